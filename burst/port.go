package burst

import (
	"clockseq-go/chipreg"
	"clockseq-go/regs"
)

// Port is the burst-mode register capability the controller depends on.
type Port interface {
	BurstAllowed() (bool, error) // SKU fuse
	SetBurstEvent(on bool) error // power-event notification enable

	FeatureRequested() (bool, error)
	SetFeatureRequest(on bool) error
	FeatureAck() (bool, error)
	FeatureAvailable() (bool, error)

	SetBurstRequest(on bool) error
	BurstAck() (bool, error)
	BurstStatus() (bool, error)
}

// RegulatorPort drives the auxiliary buck and the secondary (burst) LDO
// used by the manual enable/disable sequence.
type RegulatorPort interface {
	PatchPresent() (bool, error)

	// SetBuckForced powers the auxiliary buck, releases reset and forces it
	// active (true), or removes the override and active bits (false).
	SetBuckForced(on bool) error

	LDOOverridden() (bool, error)
	// ArmLDOColdStart sets override, cold-start, power and active-early.
	ArmLDOColdStart() error
	SetLDOActiveEarly(on bool) error
	SetLDOActive(on bool) error
	LDOColdStart() (bool, error)
	ClearLDOColdStart() error
	// ParkLDO drops the LDO back to low-power mode, leaving it powered
	// and overridden so the cap stays charged.
	ParkLDO() error
}

// RegisterPort implements Port and RegulatorPort on a register bank.
type RegisterPort struct {
	b regs.Bank
}

func NewRegisterPort(b regs.Bank) *RegisterPort { return &RegisterPort{b: b} }

func (p *RegisterPort) BurstAllowed() (bool, error) { return chipreg.SKUAllowBurst.IsSet(p.b) }
func (p *RegisterPort) SetBurstEvent(on bool) error { return chipreg.PwrBurstEventEn.SetBool(p.b, on) }

func (p *RegisterPort) FeatureRequested() (bool, error) { return chipreg.FeatureBurstReq.IsSet(p.b) }
func (p *RegisterPort) SetFeatureRequest(on bool) error {
	return chipreg.FeatureBurstReq.SetBool(p.b, on)
}
func (p *RegisterPort) FeatureAck() (bool, error)       { return chipreg.FeatureBurstAck.IsSet(p.b) }
func (p *RegisterPort) FeatureAvailable() (bool, error) { return chipreg.FeatureBurstAvail.IsSet(p.b) }

func (p *RegisterPort) SetBurstRequest(on bool) error { return chipreg.FreqBurstReq.SetBool(p.b, on) }
func (p *RegisterPort) BurstAck() (bool, error)       { return chipreg.FreqBurstAck.IsSet(p.b) }
func (p *RegisterPort) BurstStatus() (bool, error)    { return chipreg.FreqBurstStatus.IsSet(p.b) }

func (p *RegisterPort) PatchPresent() (bool, error) { return chipreg.PatchBurstLDO.IsSet(p.b) }

func (p *RegisterPort) SetBuckForced(on bool) error {
	if on {
		return p.set(
			chipreg.SimoBuckPDNB,
			chipreg.SimoBuckRSTB,
			chipreg.SimoBuckActive,
			chipreg.SimoBuckOver,
		)
	}
	return p.clear(chipreg.SimoBuckActive, chipreg.SimoBuckOver)
}

func (p *RegisterPort) LDOOverridden() (bool, error) { return chipreg.BurstLDOOver.IsSet(p.b) }

func (p *RegisterPort) ArmLDOColdStart() error {
	return p.set(
		chipreg.BurstLDOColdStartEn,
		chipreg.BurstLDOPDNB,
		chipreg.BurstLDOActiveEarly,
		chipreg.BurstLDOOver,
	)
}

func (p *RegisterPort) SetLDOActiveEarly(on bool) error {
	return chipreg.BurstLDOActiveEarly.SetBool(p.b, on)
}
func (p *RegisterPort) SetLDOActive(on bool) error { return chipreg.BurstLDOActive.SetBool(p.b, on) }
func (p *RegisterPort) LDOColdStart() (bool, error) {
	return chipreg.BurstLDOColdStartEn.IsSet(p.b)
}
func (p *RegisterPort) ClearLDOColdStart() error { return chipreg.BurstLDOColdStartEn.Set(p.b, 0) }

func (p *RegisterPort) ParkLDO() error {
	return p.clear(chipreg.BurstLDOActive, chipreg.BurstLDOActiveEarly)
}

func (p *RegisterPort) set(fs ...regs.Field) error {
	for _, f := range fs {
		if err := f.Set(p.b, 1); err != nil {
			return err
		}
	}
	return nil
}

func (p *RegisterPort) clear(fs ...regs.Field) error {
	for _, f := range fs {
		if err := f.Set(p.b, 0); err != nil {
			return err
		}
	}
	return nil
}
