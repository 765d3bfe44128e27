package burst

import (
	"clockseq-go/errcode"
	"clockseq-go/hw"
)

// Enable switches to burst mode. The returned Mode is what the hardware
// reports afterwards: a nil error with Normal means the switch was
// acknowledged but the status fell back, and the caller must decide.
//
// A unit that is not Available fails fast and the recorded mode is left
// alone: a failed re-Initialize does not move the hardware out of burst.
func (c *Controller) Enable() (Mode, error) {
	if c.avail != Available {
		return Normal, errcode.Wrap(errcode.InvalidOperation, "burst.enable", "burst not available")
	}
	var (
		m   Mode
		err error
	)
	if c.cfg.Workaround {
		m, err = c.enableWithManualSequence()
	} else {
		m, err = c.enableRaw()
	}
	c.mode = m
	return m, err
}

// Disable returns to normal mode.
func (c *Controller) Disable() (Mode, error) {
	var m Mode
	err := c.DisableInto(&m)
	return m, err
}

// DisableInto is Disable with a caller-supplied result slot. A nil slot is
// an errcode.InvalidHandle on the workaround path only; the raw path does
// not look at it before running. Disable does not depend on availability,
// so a unit left in burst by an earlier session can always be returned to
// normal.
func (c *Controller) DisableInto(out *Mode) error {
	if c.cfg.Workaround {
		return c.disableWithManualSequence(out)
	}
	m, err := c.disableRaw()
	c.mode = m
	if out != nil {
		*out = m
	}
	return err
}

// enableRaw is the bare frequency switch.
func (c *Controller) enableRaw() (Mode, error) {
	const op = "burst.enable"
	if c.avail != Available {
		return Normal, errcode.Wrap(errcode.InvalidOperation, op, "burst not available")
	}
	if err := c.port.SetBurstRequest(true); err != nil {
		return Normal, err
	}
	if err := c.poll(c.port.BurstStatus); err != nil {
		return Normal, wrapPoll(err, op, "BURSTSTATUS did not set")
	}
	ack, err := c.port.BurstAck()
	if err != nil {
		return Normal, err
	}
	if !ack {
		return Normal, errcode.Wrap(errcode.Fail, op, "no BURSTACK")
	}
	return c.readMode()
}

// disableRaw is the bare return to normal frequency.
func (c *Controller) disableRaw() (Mode, error) {
	const op = "burst.disable"
	if err := hw.Atomic(c.crit, func() error { return c.port.SetBurstRequest(false) }); err != nil {
		return Normal, err
	}
	if err := c.port.SetBurstEvent(false); err != nil {
		return Normal, err
	}
	err := c.poll(func() (bool, error) {
		on, err := c.port.BurstStatus()
		return !on, err
	})
	if err != nil {
		return Normal, wrapPoll(err, op, "BURSTSTATUS did not clear")
	}
	return c.readMode()
}

func (c *Controller) readMode() (Mode, error) {
	on, err := c.port.BurstStatus()
	if err != nil {
		return Normal, err
	}
	if on {
		return Burst, nil
	}
	return Normal, nil
}
