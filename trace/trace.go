// Package trace records register traffic, delays and critical sections so
// sequencing properties can be checked against the exact order of hardware
// accesses. Captures serialise to CBOR.
package trace

import (
	"sync"

	"clockseq-go/hw"
	"clockseq-go/regs"
)

// Kind classifies an event.
type Kind uint8

const (
	KindRead Kind = iota + 1
	KindWrite
	KindField // named field write, followed by its KindWrite
	KindDelay
	KindCritBegin
	KindCritEnd
)

func (k Kind) String() string {
	switch k {
	case KindRead:
		return "read"
	case KindWrite:
		return "write"
	case KindField:
		return "field"
	case KindDelay:
		return "delay"
	case KindCritBegin:
		return "crit_begin"
	case KindCritEnd:
		return "crit_end"
	default:
		return "unknown"
	}
}

// Event is one recorded access. Integer keys keep captures compact.
type Event struct {
	Seq   uint32 `cbor:"1,keyasint"`
	Kind  Kind   `cbor:"2,keyasint"`
	Addr  uint32 `cbor:"3,keyasint,omitempty"`
	Value uint32 `cbor:"4,keyasint,omitempty"`
	Field string `cbor:"5,keyasint,omitempty"`
	Us    uint32 `cbor:"6,keyasint,omitempty"`
}

// Recorder wraps a Bank, a Delayer and a Critical and logs everything that
// passes through. It is itself a Bank, Delayer and Critical.
type Recorder struct {
	inner regs.Bank
	delay hw.Delayer
	crit  hw.Critical

	mu     sync.Mutex
	events []Event
	seq    uint32
	reads  bool
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithReads also records reads (off by default; polls are noisy).
func WithReads() Option { return func(r *Recorder) { r.reads = true } }

func New(inner regs.Bank, delay hw.Delayer, crit hw.Critical, opts ...Option) *Recorder {
	r := &Recorder{inner: inner, delay: delay, crit: crit}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *Recorder) add(e Event) {
	r.mu.Lock()
	r.seq++
	e.Seq = r.seq
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *Recorder) Read(addr uint32) (uint32, error) {
	v, err := r.inner.Read(addr)
	if err == nil && r.reads {
		r.add(Event{Kind: KindRead, Addr: addr, Value: v})
	}
	return v, err
}

func (r *Recorder) Write(addr, val uint32) error {
	r.add(Event{Kind: KindWrite, Addr: addr, Value: val})
	return r.inner.Write(addr, val)
}

// WriteField implements regs.FieldWriter.
func (r *Recorder) WriteField(f regs.Field, v uint32) error {
	r.add(Event{Kind: KindField, Addr: f.Reg, Value: v, Field: f.String()})
	return f.RMW(r, v)
}

func (r *Recorder) DelayUs(us uint32) {
	r.add(Event{Kind: KindDelay, Us: us})
	if r.delay != nil {
		r.delay.DelayUs(us)
	}
}

func (r *Recorder) Begin() uint32 {
	var st uint32
	if r.crit != nil {
		st = r.crit.Begin()
	}
	r.add(Event{Kind: KindCritBegin})
	return st
}

func (r *Recorder) End(st uint32) {
	r.add(Event{Kind: KindCritEnd})
	if r.crit != nil {
		r.crit.End(st)
	}
}

// Events returns a copy of the log.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Reset clears the log.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

// FieldWrites returns the named writes to f, in order.
func (r *Recorder) FieldWrites(f regs.Field) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Kind == KindField && e.Addr == f.Reg && e.Field == f.String() {
			out = append(out, e)
		}
	}
	return out
}

// RegWrites returns the word writes to addr, in order.
func (r *Recorder) RegWrites(addr uint32) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Kind == KindWrite && e.Addr == addr {
			out = append(out, e)
		}
	}
	return out
}

// FieldHistory replays the word writes to f.Reg and returns the field
// value after each one.
func (r *Recorder) FieldHistory(f regs.Field) []uint32 {
	var out []uint32
	for _, e := range r.RegWrites(f.Reg) {
		out = append(out, f.Extract(e.Value))
	}
	return out
}

// Delays returns the delay durations in order.
func (r *Recorder) Delays() []uint32 {
	var out []uint32
	for _, e := range r.Events() {
		if e.Kind == KindDelay {
			out = append(out, e.Us)
		}
	}
	return out
}

// Index returns the position of the first event matching pred, or -1.
func Index(evs []Event, pred func(Event) bool) int {
	for i, e := range evs {
		if pred(e) {
			return i
		}
	}
	return -1
}
