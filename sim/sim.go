// Package sim is a hosted model of the clock and power registers touched by
// the burst and I2S clock sequencing code. It sits behind a regs.Mem, owns
// every hardware-driven bit (fuses, acks, status) and records rule
// violations a real mux would punish with glitches.
package sim

import (
	"fmt"
	"sync"

	"clockseq-go/chipreg"
	"clockseq-go/regs"
)

// Faults injects misbehaviour.
type Faults struct {
	FeatureNeverAck  bool // FEATUREENABLE.BURSTACK never rises
	FeatureAckPulse  bool // BURSTACK is visible for a single read only
	BurstNeverSwitch bool // FREQCTRL.BURSTSTATUS never rises
	BurstNoAck       bool // status rises without FREQCTRL.BURSTACK
	BurstRevert      bool // status is visible for a single read, then falls back
	DisableStuck     bool // BURSTSTATUS never clears
	LLStuck          bool // LL mux status ignores SEL writes
}

// Options describes the simulated unit.
type Options struct {
	BurstAllowed     bool // SKU fuse
	FeatureAvailable bool // BURSTAVAIL once the feature is requested
	PatchPresent     bool // burst LDO erratum fix fused in
	Latency          int  // status reads before a requested change is visible
	Faults           Faults
}

func DefaultOptions() Options {
	return Options{
		BurstAllowed:     true,
		FeatureAvailable: true,
		Latency:          3,
	}
}

type pending struct {
	left   int
	target bool
	armed  bool
}

// Chip is the simulated device.
type Chip struct {
	Mem *regs.Mem

	mu   sync.Mutex
	opts Options

	featReq     pending
	featAck     bool
	featAvail   bool
	burst       pending
	burstStatus bool
	burstAck    bool

	llStatus   [chipreg.NumI2S]uint32
	llLog      [chipreg.NumI2S][]uint32
	i2s        [chipreg.NumI2S]chipreg.I2SClock
	violations []string
}

func New(opts Options) *Chip {
	c := &Chip{Mem: regs.NewMem(), opts: opts}
	for n := range c.i2s {
		c.i2s[n] = chipreg.I2S(n)
		c.llLog[n] = []uint32{chipreg.LLSelClkgen}
	}
	c.Mem.OnRead = c.onRead
	c.Mem.OnWrite = c.onWrite
	return c
}

// SetFaults replaces the active faults.
func (c *Chip) SetFaults(f Faults) {
	c.mu.Lock()
	c.opts.Faults = f
	c.mu.Unlock()
}

// SetOptions replaces fuse values and faults; in-flight requests are kept.
func (c *Chip) SetOptions(o Options) {
	c.mu.Lock()
	c.opts = o
	c.mu.Unlock()
}

func (c *Chip) latency() int {
	if c.opts.Latency < 0 {
		return 0
	}
	return c.opts.Latency
}

func (c *Chip) onRead(addr, val uint32) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch addr {
	case chipreg.SKUAllowBurst.Reg:
		val = chipreg.SKUAllowBurst.Insert(val, b2u(c.opts.BurstAllowed))

	case chipreg.PatchBurstLDO.Reg:
		val = chipreg.PatchBurstLDO.Insert(val, b2u(c.opts.PatchPresent))

	case chipreg.FeatureBurstReq.Reg:
		if c.tick(&c.featReq) {
			if c.featReq.target {
				c.featAck = !c.opts.Faults.FeatureNeverAck
				c.featAvail = c.opts.FeatureAvailable
			}
		}
		val = chipreg.FeatureBurstAck.Insert(val, b2u(c.featAck))
		val = chipreg.FeatureBurstAvail.Insert(val, b2u(c.featAvail))
		if c.featAck && c.opts.Faults.FeatureAckPulse {
			c.featAck = false
		}

	case chipreg.FreqBurstReq.Reg:
		if c.tick(&c.burst) {
			if c.burst.target {
				c.burstStatus = true
				c.burstAck = !c.opts.Faults.BurstNoAck
			} else {
				c.burstStatus = false
				c.burstAck = false
			}
		}
		val = chipreg.FreqBurstStatus.Insert(val, b2u(c.burstStatus))
		val = chipreg.FreqBurstAck.Insert(val, b2u(c.burstAck))
		if c.burstStatus && c.opts.Faults.BurstRevert {
			c.burstStatus = false
		}

	default:
		for n := range c.i2s {
			if addr == c.i2s[n].LLSTATUS.Reg {
				val = c.i2s[n].LLSTATUS.Insert(val, c.llStatus[n])
			}
		}
	}
	return val
}

// tick advances a pending request and reports whether it just completed.
func (c *Chip) tick(p *pending) bool {
	if !p.armed {
		return false
	}
	if p.left > 0 {
		p.left--
		return false
	}
	p.armed = false
	return true
}

func (c *Chip) onWrite(addr, old, val uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch addr {
	case chipreg.FeatureBurstReq.Reg:
		was := chipreg.FeatureBurstReq.Extract(old) != 0
		now := chipreg.FeatureBurstReq.Extract(val) != 0
		switch {
		case now && !was:
			c.featReq = pending{left: c.latency(), target: true, armed: true}
		case !now && was:
			c.featReq = pending{}
			c.featAck = false
			c.featAvail = false
		}

	case chipreg.FreqBurstReq.Reg:
		was := chipreg.FreqBurstReq.Extract(old) != 0
		now := chipreg.FreqBurstReq.Extract(val) != 0
		switch {
		case now && !was:
			if c.featAck || c.featAvail {
				if !c.opts.Faults.BurstNeverSwitch {
					c.burst = pending{left: c.latency(), target: true, armed: true}
				}
			}
		case !now && was:
			if !c.opts.Faults.DisableStuck {
				c.burst = pending{left: c.latency(), target: false, armed: true}
			} else {
				c.burst = pending{}
			}
		}

	default:
		for n := range c.i2s {
			if addr == c.i2s[n].LLSEL.Reg {
				c.onLLWrite(n, val)
			}
		}
	}
}

func (c *Chip) onLLWrite(n int, word uint32) {
	f := c.i2s[n]
	sel := f.LLSEL.Extract(word)
	cur := c.llStatus[n]
	if sel == cur {
		return
	}
	cfg := c.Mem.Peek(f.MCLKEN.Reg)
	if f.MCLKEN.Extract(cfg) == 0 {
		c.violate("i2s%d: LL mux switched %d->%d with MCLKEN gated", n, cur, sel)
	}
	if cur != chipreg.LLSelClkgen && sel != chipreg.LLSelClkgen {
		c.violate("i2s%d: direct PLL->PLL LL switch %d->%d", n, cur, sel)
	}
	if sel == chipreg.LLSelClkgen && f.FSEL.Extract(cfg) == chipreg.FSELOff {
		c.violate("i2s%d: LL parked on CLKGEN with FSEL off", n)
	}
	if sel == chipreg.LLSelReserved {
		c.violate("i2s%d: reserved LL selection", n)
	}
	if c.opts.Faults.LLStuck {
		return
	}
	c.llStatus[n] = sel
	c.llLog[n] = append(c.llLog[n], sel)
}

func (c *Chip) violate(format string, args ...any) {
	c.violations = append(c.violations, fmt.Sprintf(format, args...))
}

// Violations returns mux rule breaches observed so far.
func (c *Chip) Violations() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.violations...)
}

// BurstActive reports the simulated frequency mode.
func (c *Chip) BurstActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.burstStatus
}

// LLStatus returns the current LL mux status of instance n.
func (c *Chip) LLStatus(n int) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.llStatus[n]
}

// LLStatusLog returns every LL status value instance n has taken, starting
// with the reset value.
func (c *Chip) LLStatusLog(n int) []uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]uint32(nil), c.llLog[n]...)
}

// ParkLL forces the LL mux of instance n without rule checks (test setup).
func (c *Chip) ParkLL(n int, sel uint32) {
	c.mu.Lock()
	c.llStatus[n] = sel
	c.llLog[n] = append(c.llLog[n], sel)
	c.mu.Unlock()
	c.Mem.PokeField(c.i2s[n].LLSEL, sel)
}

func b2u(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
