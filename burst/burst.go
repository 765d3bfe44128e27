// Package burst sequences the chip's burst (high-frequency) clock mode.
//
// A Controller is initialised once, which latches whether the unit may run
// in burst mode at all, and then moves between Normal and Burst with Enable
// and Disable. Units with the burst-LDO erratum go through a manual
// regulator sequence around the frequency switch; see manual.go.
//
// Every hardware wait is a bounded poll. Nothing is retried: a failure is
// returned to the caller together with the mode the hardware is believed to
// be in (Normal when unknown).
package burst

import (
	"clockseq-go/errcode"
	"clockseq-go/hw"
	"clockseq-go/regs"
)

// Availability is latched by Initialize.
type Availability uint8

const (
	NotAvailable Availability = iota
	Available
)

func (a Availability) String() string {
	if a == Available {
		return "available"
	}
	return "not_available"
}

// Mode is the operating frequency mode.
type Mode uint8

const (
	Normal Mode = iota
	Burst
)

func (m Mode) String() string {
	if m == Burst {
		return "burst"
	}
	return "normal"
}

// Phase marks whether a manual regulator sequence is in progress.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseEnabling
	PhaseDisabling
)

// Config holds the workaround switch and every timing constant. Units are
// microseconds for delays and poll iterations for budgets.
type Config struct {
	// Workaround routes Enable/Disable through the burst-LDO manual sequence.
	Workaround bool
	// Regulator is the core regulator selected by the boot code.
	Regulator hw.RegulatorMode

	PollMaxIterations uint32 // per poll; 10000 x 1 µs ≈ 10 ms
	PollDelayUs       uint32

	BuckSettleUs      uint32 // after forcing the aux buck active
	LDOEarlySettleUs  uint32 // after arming the LDO, before ACTIVE
	LDOActiveSettleUs uint32 // power-domain switch after ACTIVE
	BuckHoldUs        uint32 // after the switch, before releasing the buck; ≥ 25
}

// MinBuckHoldUs is the documented floor for BuckHoldUs.
const MinBuckHoldUs = 25

// DefaultConfig returns the documented timings without the workaround.
func DefaultConfig() Config {
	return Config{
		Regulator:         hw.RegulatorBuck,
		PollMaxIterations: 10000,
		PollDelayUs:       1,
		BuckSettleUs:      10,
		LDOEarlySettleUs:  20,
		LDOActiveSettleUs: 10,
		BuckHoldUs:        MinBuckHoldUs,
	}
}

// Validate rejects budgets that would make every poll time out at once and
// hold times below the documented minimum.
func (c Config) Validate() error {
	if c.PollMaxIterations == 0 {
		return errcode.Wrap(errcode.InvalidParams, "burst.config", "poll_max_iterations must be non-zero")
	}
	if c.Workaround && c.BuckHoldUs < MinBuckHoldUs {
		return errcode.Wrap(errcode.InvalidParams, "burst.config", "buck_hold_us below 25")
	}
	if c.Regulator != hw.RegulatorBuck && c.Regulator != hw.RegulatorLDO {
		return errcode.Wrap(errcode.InvalidParams, "burst.config", "unknown regulator mode")
	}
	return nil
}

// Controller is one burst-mode state machine. It is not safe for
// concurrent use; callers serialise (the power service owns it).
type Controller struct {
	port  Port
	vreg  RegulatorPort
	delay hw.Delayer
	crit  hw.Critical
	trim  hw.Trim
	cfg   Config

	avail Availability
	mode  Mode
	phase Phase
}

// Deps bundles the collaborators. Trim defaults to hw.NopTrim.
type Deps struct {
	Port      Port
	Regulator RegulatorPort
	Delay     hw.Delayer
	Critical  hw.Critical
	Trim      hw.Trim
}

func New(d Deps, cfg Config) *Controller {
	if d.Trim == nil {
		d.Trim = hw.NopTrim{}
	}
	if d.Critical == nil {
		d.Critical = &hw.MutexCritical{}
	}
	if d.Delay == nil {
		d.Delay = hw.SleepDelayer{}
	}
	return &Controller{
		port:  d.Port,
		vreg:  d.Regulator,
		delay: d.Delay,
		crit:  d.Critical,
		trim:  d.Trim,
		cfg:   cfg,
	}
}

// NewFromBank wires a RegisterPort over b for both port roles.
func NewFromBank(b regs.Bank, delay hw.Delayer, crit hw.Critical, trim hw.Trim, cfg Config) *Controller {
	p := NewRegisterPort(b)
	return New(Deps{Port: p, Regulator: p, Delay: delay, Critical: crit, Trim: trim}, cfg)
}

func (c *Controller) Availability() Availability { return c.avail }
func (c *Controller) Mode() Mode                 { return c.mode }
func (c *Controller) Config() Config             { return c.cfg }

// ManualPhase reports whether a manual sequence is running. It is PhaseIdle
// whenever no Enable/Disable call is in flight.
func (c *Controller) ManualPhase() Phase { return c.phase }

func (c *Controller) poll(cond func() (bool, error)) error {
	return hw.PollUntil(c.delay, c.cfg.PollMaxIterations, c.cfg.PollDelayUs, cond)
}

// Initialize checks the SKU fuse, enables the burst feature and latches the
// availability. It re-reads the fuse on every call.
func (c *Controller) Initialize() (Availability, error) {
	const op = "burst.initialize"
	c.avail = NotAvailable

	allowed, err := c.port.BurstAllowed()
	if err != nil {
		return c.avail, err
	}
	if !allowed {
		return c.avail, errcode.Wrap(errcode.InvalidOperation, op, "burst not allowed by SKU")
	}

	if c.cfg.Workaround {
		if err := c.trim.AdjustForRegulator(c.cfg.Regulator); err != nil {
			return c.avail, err
		}
	}

	if err := c.port.SetBurstEvent(true); err != nil {
		return c.avail, err
	}

	// Clear a request latched by a previous run before asking again.
	stale, err := c.port.FeatureRequested()
	if err != nil {
		return c.avail, err
	}
	if stale {
		if err := hw.Atomic(c.crit, func() error { return c.port.SetFeatureRequest(false) }); err != nil {
			return c.avail, err
		}
		err := c.poll(func() (bool, error) {
			ack, err := c.port.FeatureAck()
			return !ack, err
		})
		if err != nil {
			return c.avail, wrapPoll(err, op, "stale feature ack did not clear")
		}
	}

	if err := c.port.SetFeatureRequest(true); err != nil {
		return c.avail, err
	}
	if err := c.poll(c.port.FeatureAck); err != nil {
		return c.avail, wrapPoll(err, op, "feature ack")
	}

	avail, err := c.port.FeatureAvailable()
	if err != nil {
		return c.avail, err
	}
	ack, err := c.port.FeatureAck()
	if err != nil {
		return c.avail, err
	}
	if !avail || !ack {
		return c.avail, errcode.Wrap(errcode.InvalidOperation, op, "burst feature unavailable")
	}

	c.avail = Available
	return c.avail, nil
}

// wrapPoll tags a poll timeout with its step; other errors pass through.
func wrapPoll(err error, op, msg string) error {
	if err == errcode.Timeout {
		return errcode.Wrap(errcode.Timeout, op, msg)
	}
	return err
}
