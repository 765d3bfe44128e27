// Package logx is the shared slog setup for the service and CLI layers.
// The register-level packages do not log.
package logx

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"clockseq-go/errcode"
)

// Component tags a log line with the subsystem that emitted it.
type Component string

const (
	ComponentPower Component = "power"
	ComponentBurst Component = "burst"
	ComponentI2S   Component = "i2s"
	ComponentCLI   Component = "cli"
)

var (
	level = new(slog.LevelVar)

	mu     sync.RWMutex
	logger *slog.Logger
)

func init() {
	level.Set(slog.LevelWarn)
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func SetLevel(l slog.Level) { level.Set(l) }

func Level() slog.Level { return level.Level() }

// ParseLevel accepts debug, info, warn and error.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, errcode.Wrap(errcode.InvalidParams, "logx.level", "unknown level "+s)
	}
	return l, nil
}

// SetLogger replaces the process logger.
func SetLogger(l *slog.Logger) {
	mu.Lock()
	logger = l
	mu.Unlock()
}

// SetOutput points a text (or JSON) handler at w, keeping the current level.
func SetOutput(w io.Writer, json bool) {
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler = slog.NewTextHandler(w, opts)
	if json {
		h = slog.NewJSONHandler(w, opts)
	}
	SetLogger(slog.New(h))
}

// For returns a logger carrying the component attribute.
func For(c Component) *slog.Logger {
	mu.RLock()
	l := logger
	mu.RUnlock()
	return l.With("component", string(c))
}

// Err is the attribute used for failed operations. It carries the status
// code next to the message so log filters can match on it.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Group("err", "code", string(errcode.Of(err)), "msg", err.Error())
}
