// Package power is the bus-facing owner of the burst controller and the
// I2S clock arbiter. Every request is handled on the service goroutine, so
// the controller and the shared muxes see one caller at a time.
package power

import (
	"context"
	"log/slog"

	"clockseq-go/burst"
	"clockseq-go/bus"
	"clockseq-go/clockmux"
	"clockseq-go/config"
	"clockseq-go/errcode"
	"clockseq-go/internal/logx"
	"clockseq-go/x/timex"
)

// BurstController is the part of *burst.Controller the service drives.
type BurstController interface {
	Initialize() (burst.Availability, error)
	Enable() (burst.Mode, error)
	Disable() (burst.Mode, error)
	Availability() burst.Availability
	Mode() burst.Mode
}

// ClockArbiter is the part of *clockmux.Arbiter the service drives.
type ClockArbiter interface {
	SetClockPreset(n int, c clockmux.Clock) error
}

type Service struct {
	burst BurstController
	i2s   ClockArbiter
	log   *slog.Logger

	conn *bus.Connection
}

func New(b BurstController, a ClockArbiter) *Service {
	return &Service{
		burst: b,
		i2s:   a,
		log:   logx.For(logx.ComponentPower),
	}
}

// Start runs the service loop on its own goroutine.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) {
	go s.Run(ctx, conn)
}

// Run blocks until ctx is done.
func (s *Service) Run(ctx context.Context, conn *bus.Connection) {
	s.conn = conn
	cfgSub := conn.Subscribe(topicConfigClockMux())
	burstSub := conn.Subscribe(burstCtrlWildcard())
	i2sSub := conn.Subscribe(i2sCtrlWildcard())
	defer conn.Unsubscribe(cfgSub)
	defer conn.Unsubscribe(burstSub)
	defer conn.Unsubscribe(i2sSub)

	s.pubBurstState()
	s.pubState("ready", "")
	s.log.Info("service ready")
	for {
		select {
		case <-ctx.Done():
			s.pubState("stopped", "context_cancelled")
			s.log.Info("service stopping")
			return
		case m := <-cfgSub.Channel():
			if cm, ok := m.Payload.(config.ClockMux); ok {
				s.applyBoot(cm)
			}
		case m := <-burstSub.Channel():
			s.handleBurst(m)
		case m := <-i2sSub.Channel():
			s.handleI2S(m)
		}
	}
}

func (s *Service) applyBoot(cm config.ClockMux) {
	clocks, err := cm.BootClocks()
	if err != nil {
		s.log.Warn("boot clocks rejected", logx.Err(err))
		return
	}
	for n, c := range clocks {
		if err := s.setClock(n, c); err != nil {
			s.log.Warn("boot clock failed", "instance", n, "clock", c.String(), logx.Err(err))
		}
	}
}

func (s *Service) handleBurst(m *bus.Message) {
	// hal/clock/burst/control/<verb>
	verb, _ := m.Topic.At(4).(string)
	var err error
	switch verb {
	case "init":
		_, err = s.burst.Initialize()
	case "enable":
		_, err = s.burst.Enable()
	case "disable":
		_, err = s.burst.Disable()
	default:
		s.reply(m, BurstReply{Error: string(errcode.Unsupported), Avail: s.burst.Availability().String(), Mode: s.burst.Mode().String()})
		return
	}

	avail, mode := s.burst.Availability(), s.burst.Mode()
	if err != nil {
		s.log.Warn("burst "+verb+" failed", "mode", mode.String(), logx.Err(err))
	} else {
		s.log.Info("burst "+verb, "avail", avail.String(), "mode", mode.String())
	}
	s.pubBurstState()
	r := BurstReply{OK: err == nil, Avail: avail.String(), Mode: mode.String()}
	if err != nil {
		r.Error = string(errcode.Of(err))
	}
	s.reply(m, r)
}

func (s *Service) handleI2S(m *bus.Message) {
	// hal/clock/i2s/<n>/control/set
	n, ok := m.Topic.At(3).(int)
	if !ok {
		s.reply(m, ClockReply{Error: string(errcode.InvalidTopic)})
		return
	}
	req, ok := asClockRequest(m.Payload)
	if !ok {
		s.reply(m, ClockReply{Error: string(errcode.InvalidPayload)})
		return
	}
	c, err := clockmux.ParseClock(req.Clock)
	if err == nil {
		err = s.setClock(n, c)
	}
	if err != nil {
		s.log.Warn("i2s clock change failed", "instance", n, "clock", req.Clock, logx.Err(err))
		s.reply(m, ClockReply{Error: string(errcode.Of(err)), Clock: req.Clock})
		return
	}
	s.log.Info("i2s clock", "instance", n, "clock", c.String())
	s.reply(m, ClockReply{OK: true, Clock: c.String()})
}

func asClockRequest(v any) (ClockRequest, bool) {
	switch r := v.(type) {
	case ClockRequest:
		return r, true
	case *ClockRequest:
		if r != nil {
			return *r, true
		}
	}
	return ClockRequest{}, false
}

func (s *Service) setClock(n int, c clockmux.Clock) error {
	if err := s.i2s.SetClockPreset(n, c); err != nil {
		return err
	}
	s.conn.Publish(s.conn.NewMessage(
		TopicI2SState(n),
		ClockState{Clock: c.String(), Source: c.Source().String(), TSms: timex.NowMs()},
		true,
	))
	return nil
}

func (s *Service) reply(m *bus.Message, payload any) {
	if m.CanReply() {
		s.conn.Reply(m, payload, false)
	}
}

func (s *Service) pubBurstState() {
	s.conn.Publish(s.conn.NewMessage(
		topicBurstState(),
		BurstState{Avail: s.burst.Availability().String(), Mode: s.burst.Mode().String(), TSms: timex.NowMs()},
		true,
	))
}

func (s *Service) pubState(level, status string) {
	s.conn.Publish(s.conn.NewMessage(
		topicState(),
		ServiceState{Level: level, Status: status, TSms: timex.NowMs()},
		true,
	))
}
