package clockmux

import (
	"clockseq-go/chipreg"
	"clockseq-go/regs"
)

// Port is the per-instance clock register capability used by the arbiter.
type Port interface {
	Gate(n int) (bool, error)
	SetGate(n int, on bool) error
	SelectNCO(n int, on bool) error
	SetNCOSub(n int, s SubSel) error
	Sub(n int) (SubSel, error)
	SetSub(n int, s SubSel) error
	LLStatus(n int) (LLSel, error)
	SetLL(n int, s LLSel) error
}

// RegisterPort implements Port on a register bank.
type RegisterPort struct {
	b  regs.Bank
	fs []chipreg.I2SClock
}

func NewRegisterPort(b regs.Bank, instances int) *RegisterPort {
	fs := make([]chipreg.I2SClock, instances)
	for n := range fs {
		fs[n] = chipreg.I2S(n)
	}
	return &RegisterPort{b: b, fs: fs}
}

func (p *RegisterPort) Gate(n int) (bool, error)       { return p.fs[n].MCLKEN.IsSet(p.b) }
func (p *RegisterPort) SetGate(n int, on bool) error   { return p.fs[n].MCLKEN.SetBool(p.b, on) }
func (p *RegisterPort) SelectNCO(n int, on bool) error { return p.fs[n].NCOSEL.SetBool(p.b, on) }
func (p *RegisterPort) SetNCOSub(n int, s SubSel) error {
	return p.fs[n].NCOFSEL.Set(p.b, uint32(s))
}

func (p *RegisterPort) Sub(n int) (SubSel, error) {
	v, err := p.fs[n].FSEL.Get(p.b)
	return SubSel(v), err
}

func (p *RegisterPort) SetSub(n int, s SubSel) error { return p.fs[n].FSEL.Set(p.b, uint32(s)) }

func (p *RegisterPort) LLStatus(n int) (LLSel, error) {
	v, err := p.fs[n].LLSTATUS.Get(p.b)
	return LLSel(v), err
}

func (p *RegisterPort) SetLL(n int, s LLSel) error { return p.fs[n].LLSEL.Set(p.b, uint32(s)) }
