package burst

import (
	"sync"

	"clockseq-go/chipreg"
	"clockseq-go/hw"
	"clockseq-go/regs"
	"clockseq-go/x/mathx"
)

// RegisterTrim is the hw.Trim collaborator backed by the SIMO buck core
// trim field. AdjustForRegulator saves the fused trim and raises it by the
// step for the active regulator; Restore and Boost toggle between the two.
type RegisterTrim struct {
	b     regs.Bank
	field regs.Field
	steps map[hw.RegulatorMode]uint32

	mu      sync.Mutex
	saved   uint32
	boosted uint32
	valid   bool
}

// DefaultTrimSteps are the trim codes added per regulator mode.
var DefaultTrimSteps = map[hw.RegulatorMode]uint32{
	hw.RegulatorBuck: 3,
	hw.RegulatorLDO:  5,
}

func NewRegisterTrim(b regs.Bank, steps map[hw.RegulatorMode]uint32) *RegisterTrim {
	if steps == nil {
		steps = DefaultTrimSteps
	}
	return &RegisterTrim{b: b, field: chipreg.SimoBuckCoreTrim, steps: steps}
}

func (t *RegisterTrim) AdjustForRegulator(mode hw.RegulatorMode) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.valid {
		cur, err := t.field.Get(t.b)
		if err != nil {
			return err
		}
		t.saved = cur
	}
	t.boosted = mathx.Min(t.saved+t.steps[mode], t.field.Mask()>>t.field.Pos)
	t.valid = true
	return t.field.Set(t.b, t.boosted)
}

func (t *RegisterTrim) Restore() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.valid {
		return nil
	}
	return t.field.Set(t.b, t.saved)
}

func (t *RegisterTrim) Boost() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.valid {
		return nil
	}
	return t.field.Set(t.b, t.boosted)
}

// Saved returns the unboosted trim captured by AdjustForRegulator.
func (t *RegisterTrim) Saved() (uint32, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.saved, t.valid
}
