package burst

import "clockseq-go/errcode"

// enableWithManualSequence pre-charges the burst LDO with the auxiliary buck
// forced active, performs the raw switch, then unwinds the overrides. On a
// unit without the patch it is just the raw switch.
//
// The whole patched sequence runs with interrupts masked: the intermediate
// regulator states are unsafe if preempted.
func (c *Controller) enableWithManualSequence() (Mode, error) {
	patched, err := c.vreg.PatchPresent()
	if err != nil {
		return Normal, err
	}
	if !patched {
		c.phase = PhaseEnabling
		defer func() { c.phase = PhaseIdle }()
		return c.enableRaw()
	}

	st := c.crit.Begin()
	defer c.crit.End(st)

	if err := c.trim.Restore(); err != nil {
		return Normal, err
	}

	mode, swErr := c.chargeAndSwitch()

	// Buck must stay forced for at least MinBuckHoldUs after the switch.
	c.delay.DelayUs(c.cfg.BuckHoldUs)
	if err := c.vreg.SetBuckForced(false); err != nil && swErr == nil {
		swErr = err
	}
	cold, err := c.vreg.LDOColdStart()
	if err == nil && cold {
		err = c.vreg.ClearLDOColdStart()
	}
	if err != nil && swErr == nil {
		swErr = err
	}
	if err := c.trim.Boost(); err != nil && swErr == nil {
		swErr = err
	}
	return mode, swErr
}

// chargeAndSwitch forces the buck, charges the LDO and performs the raw
// switch. Whatever it returns, the caller unwinds the overrides.
func (c *Controller) chargeAndSwitch() (Mode, error) {
	if err := c.vreg.SetBuckForced(true); err != nil {
		return Normal, err
	}
	c.delay.DelayUs(c.cfg.BuckSettleUs)

	// An override left by an earlier sequence means the LDO is already
	// armed; only raise active-early.
	over, err := c.vreg.LDOOverridden()
	if err != nil {
		return Normal, err
	}
	if over {
		err = c.vreg.SetLDOActiveEarly(true)
	} else {
		err = c.vreg.ArmLDOColdStart()
	}
	if err != nil {
		return Normal, err
	}
	c.delay.DelayUs(c.cfg.LDOEarlySettleUs)
	if err := c.vreg.SetLDOActive(true); err != nil {
		return Normal, err
	}
	c.delay.DelayUs(c.cfg.LDOActiveSettleUs)

	c.phase = PhaseEnabling
	defer func() { c.phase = PhaseIdle }()
	return c.enableRaw()
}

// disableWithManualSequence performs the raw disable and then, on patched
// units, always parks the LDO and releases the buck override, even when the
// disable itself failed. The LDO stays powered so its cap is charged for
// the next entry.
func (c *Controller) disableWithManualSequence(out *Mode) error {
	if out == nil {
		return errcode.Wrap(errcode.InvalidHandle, "burst.disable", "nil mode output")
	}

	c.phase = PhaseDisabling
	mode, swErr := c.disableRaw()
	c.phase = PhaseIdle
	c.mode = mode
	*out = mode

	patched, err := c.vreg.PatchPresent()
	if err != nil {
		if swErr == nil {
			swErr = err
		}
		return swErr
	}
	if patched {
		if err := c.vreg.ParkLDO(); err != nil && swErr == nil {
			swErr = err
		}
		if err := c.vreg.SetBuckForced(false); err != nil && swErr == nil {
			swErr = err
		}
	}
	return swErr
}
