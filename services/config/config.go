// Package config publishes the selected chip profile on the bus as
// retained config/<section> messages for the services that consume them.
package config

import (
	"context"

	"clockseq-go/bus"
	"clockseq-go/config"
	"clockseq-go/errcode"
	"clockseq-go/internal/logx"
)

const (
	serviceName  = "config"
	configPrefix = "config"
	CtxDeviceKey = "device" // context key holding the profile name or path
)

// ProfileLookup resolves a profile; tests replace it.
var ProfileLookup = config.Resolve

type ConfigService struct {
	Name string
}

func NewConfigService() *ConfigService {
	return &ConfigService{Name: serviceName}
}

func (s *ConfigService) publishConfig(ctx context.Context, conn *bus.Connection) error {
	device, _ := ctx.Value(CtxDeviceKey).(string)
	if device == "" {
		return errcode.Wrap(errcode.InvalidParams, "config.publish", "missing device in context")
	}
	p, err := ProfileLookup(device)
	if err != nil {
		return err
	}
	sections := []struct {
		key string
		val any
	}{
		{"chip", p.Chip},
		{"burst", p.Burst},
		{"clockmux", p.ClockMux},
		{"sim", p.Sim},
	}
	for _, sec := range sections {
		conn.Publish(conn.NewMessage(bus.T(configPrefix, sec.key), sec.val, true))
	}
	return nil
}

// Start publishes the profile from a goroutine.
func (s *ConfigService) Start(ctx context.Context, conn *bus.Connection) {
	go func() {
		if err := s.publishConfig(ctx, conn); err != nil {
			logx.For(logx.Component(s.Name)).Error("profile not published", logx.Err(err))
		}
	}()
}
