// Package board assembles the burst controller and the I2S clock arbiter
// from a chip profile, over either the hosted simulator or a register
// bridge on I2C.
package board

import (
	"tinygo.org/x/drivers"

	"clockseq-go/burst"
	"clockseq-go/chipreg"
	"clockseq-go/clockmux"
	"clockseq-go/config"
	"clockseq-go/hw"
	"clockseq-go/regs"
	"clockseq-go/sim"
	"clockseq-go/trace"
)

// Board is one assembled unit.
type Board struct {
	Profile config.Profile

	Bank  regs.Bank
	Trace *trace.Recorder // nil unless tracing was requested
	Crit  hw.Critical
	Trim  *burst.RegisterTrim

	Burst *burst.Controller
	I2S   *clockmux.Arbiter

	// Hosted runs only.
	Chip  *sim.Chip
	Clock *hw.SimClock
}

// Option tweaks assembly.
type Option func(*options)

type options struct {
	trace bool
	reads bool
}

// WithTrace routes every access through a trace.Recorder.
func WithTrace(reads bool) Option {
	return func(o *options) { o.trace, o.reads = true, reads }
}

// New wires the components over bank. delay paces polls and settles.
func New(p config.Profile, bank regs.Bank, delay hw.Delayer, opts ...Option) (*Board, error) {
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	bc, err := p.BurstConfig()
	if err != nil {
		return nil, err
	}
	mc, err := p.ClockMuxConfig()
	if err != nil {
		return nil, err
	}

	b := &Board{Profile: p, Crit: &hw.MutexCritical{}}
	if o.trace {
		var ropts []trace.Option
		if o.reads {
			ropts = append(ropts, trace.WithReads())
		}
		b.Trace = trace.New(bank, delay, b.Crit, ropts...)
		bank, delay = b.Trace, b.Trace
		b.Crit = b.Trace
	}
	b.Bank = bank
	b.Trim = burst.NewRegisterTrim(bank, nil)
	b.Burst = burst.NewFromBank(bank, delay, b.Crit, b.Trim, bc)
	b.I2S = clockmux.NewFromBank(bank, delay, mc)
	return b, nil
}

// NewSim builds a board on a fresh simulator configured by the profile.
// Delays advance a simulated clock instead of sleeping.
func NewSim(p config.Profile, opts ...Option) (*Board, error) {
	chip := sim.New(SimOptions(p))
	clk := &hw.SimClock{}
	b, err := New(p, chip.Mem, clk, opts...)
	if err != nil {
		return nil, err
	}
	b.Chip, b.Clock = chip, clk
	return b, nil
}

// NewI2C builds a board reaching the chip through an I2C register bridge.
func NewI2C(p config.Profile, bus drivers.I2C, addr uint16, opts ...Option) (*Board, error) {
	return New(p, regs.NewI2CBank(bus, addr, chipreg.PeripheralBase), hw.SleepDelayer{}, opts...)
}

// Boot applies the profile's boot clocks in instance order and stops at the
// first failure.
func (b *Board) Boot() error {
	clocks, err := b.Profile.BootClocks()
	if err != nil {
		return err
	}
	for n, c := range clocks {
		if err := b.I2S.SetClockPreset(n, c); err != nil {
			return err
		}
	}
	return nil
}

// SimOptions maps the profile's simulator section onto sim.Options.
func SimOptions(p config.Profile) sim.Options {
	f := p.Sim.Faults
	return sim.Options{
		BurstAllowed:     p.Sim.BurstAllowed,
		FeatureAvailable: p.Sim.FeatureAvailable,
		PatchPresent:     p.Sim.PatchPresent,
		Latency:          p.Sim.Latency,
		Faults: sim.Faults{
			FeatureNeverAck:  f.FeatureNeverAck,
			FeatureAckPulse:  f.FeatureAckPulse,
			BurstNeverSwitch: f.BurstNeverSwitch,
			BurstNoAck:       f.BurstNoAck,
			BurstRevert:      f.BurstRevert,
			DisableStuck:     f.DisableStuck,
			LLStuck:          f.LLStuck,
		},
	}
}
