// Package clockmux arbitrates the clock source of the I2S master clock.
//
// A source is three independently selected stages: the top-level NCO mux,
// the last-level (LL) mux choosing CLKGEN or a PLL tap, and the CLKGEN
// sub-mux behind the LL mux's CLKGEN input. The arbiter reads the live mux
// state, plans the minimal transition (see PlanTransition) and executes it
// with the master-clock gate held on across any LL switch.
//
// The LL mux and CLKGEN sub-muxes are shared hardware, so one Arbiter
// serialises every instance it owns.
package clockmux

import (
	"sync"

	"clockseq-go/chipreg"
	"clockseq-go/errcode"
	"clockseq-go/hw"
	"clockseq-go/regs"
	"clockseq-go/x/timex"
)

// Config holds the arbiter's constants.
type Config struct {
	Instances  int
	LLSettleUs uint32 // per LL switch
	SafeSub    SubSel // always-on CLKGEN input used during LL moves
}

func DefaultConfig() Config {
	return Config{
		Instances:  chipreg.NumI2S,
		LLSettleUs: 17,
		SafeSub:    SubHFRC3M,
	}
}

func (c Config) Validate() error {
	const op = "clockmux.config"
	if c.Instances <= 0 || c.Instances > chipreg.NumI2S {
		return errcode.Wrap(errcode.InvalidParams, op, "instances out of range")
	}
	if c.SafeSub == SubOff || c.SafeSub > subMax {
		return errcode.Wrap(errcode.InvalidParams, op, "safe sub-mux must be a running source")
	}
	return nil
}

// Arbiter owns the clock muxes of a set of I2S instances.
type Arbiter struct {
	mu    sync.Mutex
	port  Port
	delay hw.Delayer
	cfg   Config

	shadow []Source
	known  []bool
}

func New(port Port, delay hw.Delayer, cfg Config) *Arbiter {
	if delay == nil {
		delay = hw.SleepDelayer{}
	}
	return &Arbiter{
		port:   port,
		delay:  delay,
		cfg:    cfg,
		shadow: make([]Source, cfg.Instances),
		known:  make([]bool, cfg.Instances),
	}
}

// NewFromBank wires a RegisterPort over b.
func NewFromBank(b regs.Bank, delay hw.Delayer, cfg Config) *Arbiter {
	return New(NewRegisterPort(b, cfg.Instances), delay, cfg)
}

// Current returns the last source successfully applied to instance n. The
// shadow is advisory; SetClock always consults the hardware.
func (a *Arbiter) Current(n int) (Source, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if n < 0 || n >= len(a.shadow) {
		return Source{}, false
	}
	return a.shadow[n], a.known[n]
}

// SetClockPreset applies a named clock.
func (a *Arbiter) SetClockPreset(n int, c Clock) error {
	if c >= numClocks {
		return errcode.Wrap(errcode.InvalidParams, "clockmux.set", "unknown clock")
	}
	return a.SetClock(n, c.Source())
}

// SetClock switches instance n to target. On error the hardware may be at
// an intermediate waypoint; the gate is restored regardless and the shadow
// is left unchanged.
func (a *Arbiter) SetClock(n int, target Source) error {
	const op = "clockmux.set"
	if n < 0 || n >= a.cfg.Instances {
		return errcode.Wrap(errcode.InvalidParams, op, "instance out of range")
	}
	if err := target.Validate(); err != nil {
		return err
	}
	target = target.normalize()

	a.mu.Lock()
	defer a.mu.Unlock()

	var cur State
	if !target.NCO {
		var err error
		if cur.Sub, err = a.port.Sub(n); err != nil {
			return err
		}
		if cur.LL, err = a.port.LLStatus(n); err != nil {
			return err
		}
	}

	plan := PlanTransition(cur, target, a.cfg.SafeSub)
	if err := a.run(n, plan); err != nil {
		return err
	}
	a.shadow[n] = target
	a.known[n] = true
	return nil
}

// Preview returns the plan SetClock would execute now, without touching
// the muxes.
func (a *Arbiter) Preview(n int, target Source) (Plan, error) {
	if n < 0 || n >= a.cfg.Instances {
		return Plan{}, errcode.Wrap(errcode.InvalidParams, "clockmux.preview", "instance out of range")
	}
	if err := target.Validate(); err != nil {
		return Plan{}, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	sub, err := a.port.Sub(n)
	if err != nil {
		return Plan{}, err
	}
	ll, err := a.port.LLStatus(n)
	if err != nil {
		return Plan{}, err
	}
	return PlanTransition(State{LL: ll, Sub: sub}, target, a.cfg.SafeSub), nil
}

func (a *Arbiter) run(n int, p Plan) (err error) {
	var (
		saved  bool
		forced bool
	)
	defer func() {
		if forced {
			if rerr := a.port.SetGate(n, saved); rerr != nil && err == nil {
				err = rerr
			}
		}
	}()

	for _, s := range p.Steps {
		switch s.Kind {
		case StepTopMux:
			err = a.port.SelectNCO(n, s.Value != 0)
		case StepNCOSub:
			err = a.port.SetNCOSub(n, SubSel(s.Value))
		case StepSub:
			err = a.port.SetSub(n, SubSel(s.Value))
		case StepForceGate:
			if saved, err = a.port.Gate(n); err == nil {
				if err = a.port.SetGate(n, true); err == nil {
					forced = true
				}
			}
		case StepLL:
			err = a.switchLL(n, LLSel(s.Value))
		case StepRestoreGate:
			forced = false
			err = a.port.SetGate(n, saved)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// switchLL writes the LL mux, waits the settle time and checks the status
// followed. A status that did not follow is reported as a timeout.
func (a *Arbiter) switchLL(n int, sel LLSel) error {
	if err := a.port.SetLL(n, sel); err != nil {
		return err
	}
	a.delay.DelayUs(a.cfg.LLSettleUs)
	got, err := a.port.LLStatus(n)
	if err != nil {
		return err
	}
	if got != sel {
		return errcode.Wrap(errcode.Timeout, "clockmux.set", "LL mux did not settle on "+sel.String())
	}
	return nil
}

// WorstCaseUs is the longest SetClock waits: two LL settles for a PLL to
// PLL move.
func (c Config) WorstCaseUs() uint32 { return timex.SumUs(c.LLSettleUs, c.LLSettleUs) }
