package regs

import "sync"

// Mem is an in-memory Bank. Hooks let a simulator react to accesses; they
// run with the bank unlocked so they may call Peek/Poke.
type Mem struct {
	mu    sync.Mutex
	words map[uint32]uint32

	// OnRead may override the value returned for addr.
	OnRead func(addr, val uint32) uint32
	// OnWrite observes a completed write (old and new word).
	OnWrite func(addr, old, val uint32)
}

func NewMem() *Mem {
	return &Mem{words: make(map[uint32]uint32)}
}

func (m *Mem) Read(addr uint32) (uint32, error) {
	m.mu.Lock()
	v := m.words[addr]
	hook := m.OnRead
	m.mu.Unlock()
	if hook != nil {
		v = hook(addr, v)
	}
	return v, nil
}

func (m *Mem) Write(addr, val uint32) error {
	m.mu.Lock()
	old := m.words[addr]
	m.words[addr] = val
	hook := m.OnWrite
	m.mu.Unlock()
	if hook != nil {
		hook(addr, old, val)
	}
	return nil
}

// Peek reads without invoking hooks.
func (m *Mem) Peek(addr uint32) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.words[addr]
}

// Poke writes without invoking hooks.
func (m *Mem) Poke(addr, val uint32) {
	m.mu.Lock()
	m.words[addr] = val
	m.mu.Unlock()
}

// PokeField sets a field without invoking hooks.
func (m *Mem) PokeField(f Field, v uint32) {
	m.mu.Lock()
	m.words[f.Reg] = f.Insert(m.words[f.Reg], v)
	m.mu.Unlock()
}

// PeekField reads a field without invoking hooks.
func (m *Mem) PeekField(f Field) uint32 {
	return f.Extract(m.Peek(f.Reg))
}
