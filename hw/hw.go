// Package hw is the collaborator surface the sequencing code runs against:
// busy delays, bounded status polling, interrupt critical sections and the
// voltage-trim hooks owned by power management.
package hw

import (
	"sync"
	"sync/atomic"
	"time"

	"clockseq-go/errcode"
	"clockseq-go/x/mathx"
)

// Delayer is a microsecond busy-delay primitive.
type Delayer interface {
	DelayUs(us uint32)
}

// SleepDelayer delays on the host scheduler. Resolution is whatever the OS
// gives us; fine for hosted runs, wrong for timing-sensitive silicon.
type SleepDelayer struct{}

func (SleepDelayer) DelayUs(us uint32) {
	time.Sleep(time.Duration(us) * time.Microsecond)
}

// SimClock is a virtual microsecond clock. DelayUs only advances the count.
type SimClock struct {
	now atomic.Uint64
}

func (c *SimClock) DelayUs(us uint32) { c.now.Add(uint64(us)) }

// NowUs returns the elapsed virtual time.
func (c *SimClock) NowUs() uint64 { return c.now.Load() }

// PollUntil evaluates cond up to maxIter times, delaying delayUs between
// attempts, and returns errcode.Timeout if it never held. The condition is
// checked before the first delay, so an already-satisfied status costs
// nothing. A cond error aborts the poll.
func PollUntil(d Delayer, maxIter, delayUs uint32, cond func() (bool, error)) error {
	maxIter = mathx.Max(maxIter, 1)
	for i := uint32(0); i < maxIter; i++ {
		ok, err := cond()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		d.DelayUs(delayUs)
	}
	return errcode.Timeout
}

// Critical disables interrupts (Begin) and restores the saved state (End).
type Critical interface {
	Begin() uint32
	End(state uint32)
}

// Atomic runs fn inside a critical section.
func Atomic(c Critical, fn func() error) error {
	st := c.Begin()
	defer c.End(st)
	return fn()
}

// MutexCritical is the hosted stand-in for masking interrupts. It does not
// nest. Active lets tests assert that a write happened inside a section.
type MutexCritical struct {
	mu     sync.Mutex
	active atomic.Bool
}

func (m *MutexCritical) Begin() uint32 {
	m.mu.Lock()
	m.active.Store(true)
	return 1
}

func (m *MutexCritical) End(uint32) {
	m.active.Store(false)
	m.mu.Unlock()
}

// Active reports whether a critical section is open.
func (m *MutexCritical) Active() bool { return m.active.Load() }

// RegulatorMode is the core voltage regulator selected at boot.
type RegulatorMode uint8

const (
	RegulatorBuck RegulatorMode = iota
	RegulatorLDO
)

func (m RegulatorMode) String() string {
	switch m {
	case RegulatorBuck:
		return "buck"
	case RegulatorLDO:
		return "ldo"
	default:
		return "unknown"
	}
}

// Trim is the voltage-trim collaborator used by the burst LDO workaround.
type Trim interface {
	// AdjustForRegulator applies the rail trim for the active regulator.
	AdjustForRegulator(mode RegulatorMode) error
	// Restore puts back the saved (unboosted) trim.
	Restore() error
	// Boost re-applies the adjustment undone by Restore.
	Boost() error
}

// NopTrim does nothing.
type NopTrim struct{}

func (NopTrim) AdjustForRegulator(RegulatorMode) error { return nil }
func (NopTrim) Restore() error                        { return nil }
func (NopTrim) Boost() error                          { return nil }
