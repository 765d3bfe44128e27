package burst

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"clockseq-go/chipreg"
	"clockseq-go/errcode"
	"clockseq-go/hw"
	"clockseq-go/sim"
	"clockseq-go/trace"
)

type mockTrim struct{ mock.Mock }

func (m *mockTrim) AdjustForRegulator(mode hw.RegulatorMode) error { return m.Called(mode).Error(0) }
func (m *mockTrim) Restore() error                                 { return m.Called().Error(0) }
func (m *mockTrim) Boost() error                                   { return m.Called().Error(0) }

func workaroundConfig() Config {
	cfg := testConfig()
	cfg.Workaround = true
	cfg.Regulator = hw.RegulatorLDO
	return cfg
}

func patchedOptions() sim.Options {
	o := sim.DefaultOptions()
	o.PatchPresent = true
	return o
}

func vrctrlWrites(r *rig) []trace.Event {
	return r.rec.RegWrites(chipreg.BurstLDOOver.Reg)
}

func TestManualEnableWithoutPatchIsRawPath(t *testing.T) {
	tr := &mockTrim{}
	tr.On("AdjustForRegulator", hw.RegulatorLDO).Return(nil).Once()
	r := newRig(t, sim.DefaultOptions(), workaroundConfig(), tr)
	r.mustInit(t)

	m, err := r.c.Enable()
	require.NoError(t, err)
	assert.Equal(t, Burst, m)
	assert.Empty(t, vrctrlWrites(r), "no regulator sequencing without the patch")
	for _, e := range r.rec.Events() {
		assert.NotEqual(t, trace.KindCritBegin, e.Kind)
	}
	assert.Equal(t, PhaseIdle, r.c.ManualPhase())
	tr.AssertExpectations(t)
	tr.AssertNotCalled(t, "Restore")
	tr.AssertNotCalled(t, "Boost")
}

func TestManualEnableColdStartSequence(t *testing.T) {
	tr := &mockTrim{}
	tr.On("AdjustForRegulator", hw.RegulatorLDO).Return(nil).Once()
	tr.On("Restore").Return(nil).Once()
	tr.On("Boost").Return(nil).Once()
	r := newRig(t, patchedOptions(), workaroundConfig(), tr)
	r.mustInit(t)

	m, err := r.c.Enable()
	require.NoError(t, err)
	assert.Equal(t, Burst, m)

	evs := r.rec.Events()
	require.NotEmpty(t, evs)
	assert.Equal(t, trace.KindCritBegin, evs[0].Kind, "sequence starts with interrupts masked")
	assert.Equal(t, trace.KindCritEnd, evs[len(evs)-1].Kind, "and ends by restoring them")

	// Buck forced before the LDO is touched, LDO armed before the switch.
	pos := func(name string, val uint32) int {
		return trace.Index(evs, func(e trace.Event) bool {
			return e.Kind == trace.KindField && e.Field == name && e.Value == val
		})
	}
	buck := pos("VRCTRL.SIMOBUCKOVER", 1)
	ldoOver := pos("VRCTRL.BURSTLDOOVER", 1)
	ldoActive := pos("VRCTRL.BURSTLDOACTIVE", 1)
	req := pos("FREQCTRL.BURSTREQ", 1)
	release := pos("VRCTRL.SIMOBUCKOVER", 0)
	cold := pos("VRCTRL.BURSTLDOCOLDSTARTEN", 0)
	require.True(t, buck >= 0 && ldoOver >= 0 && ldoActive >= 0 && req >= 0 && release >= 0 && cold >= 0)
	assert.True(t, buck < ldoOver && ldoOver < ldoActive && ldoActive < req && req < release && release < cold)

	// Settling delays, three 1 µs polls, then the hold time.
	cfg := r.c.Config()
	assert.Equal(t, []uint32{cfg.BuckSettleUs, cfg.LDOEarlySettleUs, cfg.LDOActiveSettleUs, 1, 1, 1, cfg.BuckHoldUs}, r.rec.Delays())

	assert.Len(t, r.rec.FieldWrites(chipreg.BurstLDOOver), 1)
	assert.Equal(t, uint32(0), r.chip.Mem.PeekField(chipreg.SimoBuckOver))
	assert.Equal(t, uint32(0), r.chip.Mem.PeekField(chipreg.BurstLDOColdStartEn))
	assert.Equal(t, uint32(1), r.chip.Mem.PeekField(chipreg.BurstLDOActive))

	tr.AssertExpectations(t)
	require.Len(t, tr.Calls, 3)
	assert.Equal(t, "Restore", tr.Calls[1].Method)
	assert.Equal(t, "Boost", tr.Calls[2].Method)
}

func TestManualEnableAlreadyOverridden(t *testing.T) {
	r := newRig(t, patchedOptions(), workaroundConfig(), nil)
	r.mustInit(t)
	r.chip.Mem.PokeField(chipreg.BurstLDOOver, 1)

	_, err := r.c.Enable()
	require.NoError(t, err)

	assert.Len(t, r.rec.FieldWrites(chipreg.BurstLDOActiveEarly), 1)
	assert.Empty(t, r.rec.FieldWrites(chipreg.BurstLDOOver))
	assert.Empty(t, r.rec.FieldWrites(chipreg.BurstLDOColdStartEn), "cold start is not re-armed")
}

func TestManualCycleReusesArmedLDO(t *testing.T) {
	r := newRig(t, patchedOptions(), workaroundConfig(), nil)
	r.mustInit(t)

	_, err := r.c.Enable()
	require.NoError(t, err)
	_, err = r.c.Disable()
	require.NoError(t, err)
	r.rec.Reset()

	// The park leaves the override set, so the second entry skips cold start.
	_, err = r.c.Enable()
	require.NoError(t, err)
	assert.Empty(t, r.rec.FieldWrites(chipreg.BurstLDOOver))
	assert.Len(t, r.rec.FieldWrites(chipreg.BurstLDOActiveEarly), 1)
}

func TestManualEnableTrimRestoreFailureAborts(t *testing.T) {
	boom := errors.New("trim bus fault")
	tr := &mockTrim{}
	tr.On("AdjustForRegulator", hw.RegulatorLDO).Return(nil)
	tr.On("Restore").Return(boom)
	r := newRig(t, patchedOptions(), workaroundConfig(), tr)
	r.mustInit(t)

	m, err := r.c.Enable()
	assert.Equal(t, boom, err)
	assert.Equal(t, Normal, m)
	assert.False(t, r.crit.Active(), "critical section must be released")
	assert.Empty(t, r.rec.FieldWrites(chipreg.FreqBurstReq))
	tr.AssertNotCalled(t, "Boost")
}

func TestManualEnableFailureStillUnwinds(t *testing.T) {
	tr := &mockTrim{}
	tr.On("AdjustForRegulator", hw.RegulatorLDO).Return(nil)
	tr.On("Restore").Return(nil)
	tr.On("Boost").Return(nil)
	r := newRig(t, patchedOptions(), workaroundConfig(), tr)
	r.mustInit(t)
	r.chip.SetFaults(sim.Faults{BurstNeverSwitch: true})

	m, err := r.c.Enable()
	assert.ErrorIs(t, err, errcode.Timeout)
	assert.Equal(t, Normal, m)
	assert.Equal(t, PhaseIdle, r.c.ManualPhase())
	assert.False(t, r.crit.Active())
	assert.Equal(t, uint32(0), r.chip.Mem.PeekField(chipreg.SimoBuckOver))
	tr.AssertCalled(t, "Boost")
}

// ldoFault fails SetLDOActive after the buck has been forced.
type ldoFault struct {
	*RegisterPort
	err error
}

func (p ldoFault) SetLDOActive(bool) error { return p.err }

func TestManualEnableRegulatorFailureUnwinds(t *testing.T) {
	boom := errors.New("vrctrl write failed")
	tr := &mockTrim{}
	tr.On("AdjustForRegulator", hw.RegulatorLDO).Return(nil)
	tr.On("Restore").Return(nil)
	tr.On("Boost").Return(nil)

	chip := sim.New(patchedOptions())
	clk := &hw.SimClock{}
	crit := &hw.MutexCritical{}
	rec := trace.New(chip.Mem, clk, crit)
	rp := NewRegisterPort(rec)
	c := New(Deps{Port: rp, Regulator: ldoFault{RegisterPort: rp, err: boom}, Delay: rec, Critical: rec, Trim: tr}, workaroundConfig())
	_, err := c.Initialize()
	require.NoError(t, err)
	rec.Reset()

	m, err := c.Enable()
	assert.Equal(t, boom, err)
	assert.Equal(t, Normal, m)
	assert.False(t, crit.Active())
	assert.Equal(t, PhaseIdle, c.ManualPhase())
	assert.Empty(t, rec.FieldWrites(chipreg.FreqBurstReq), "no switch without a charged LDO")

	assert.Equal(t, uint32(0), chip.Mem.PeekField(chipreg.SimoBuckOver), "buck override released")
	assert.Equal(t, uint32(0), chip.Mem.PeekField(chipreg.BurstLDOColdStartEn), "cold start cleared")
	assert.Contains(t, rec.Delays(), c.Config().BuckHoldUs)
	tr.AssertCalled(t, "Boost")
}

func TestManualDisableNilOutput(t *testing.T) {
	r := newRig(t, patchedOptions(), workaroundConfig(), nil)
	r.mustInit(t)
	_, err := r.c.Enable()
	require.NoError(t, err)
	r.rec.Reset()

	err = r.c.DisableInto(nil)
	assert.Equal(t, errcode.InvalidHandle, errcode.Of(err))
	assert.Empty(t, r.rec.Events(), "nothing touched on caller misuse")
	assert.True(t, r.chip.BurstActive())
}

func TestManualDisableParksLDOEvenOnFailure(t *testing.T) {
	r := newRig(t, patchedOptions(), workaroundConfig(), nil)
	r.mustInit(t)
	_, err := r.c.Enable()
	require.NoError(t, err)
	r.chip.SetFaults(sim.Faults{DisableStuck: true})

	var m Mode
	err = r.c.DisableInto(&m)
	assert.ErrorIs(t, err, errcode.Timeout)
	assert.Equal(t, Normal, m)
	assert.Equal(t, PhaseIdle, r.c.ManualPhase())

	assert.Equal(t, uint32(0), r.chip.Mem.PeekField(chipreg.BurstLDOActive))
	assert.Equal(t, uint32(0), r.chip.Mem.PeekField(chipreg.BurstLDOActiveEarly))
	assert.Equal(t, uint32(1), r.chip.Mem.PeekField(chipreg.BurstLDOPDNB), "LDO stays powered")
	assert.Equal(t, uint32(0), r.chip.Mem.PeekField(chipreg.SimoBuckOver))
}

// phaseSpy records the manual phase at the moment the frequency request is
// written.
type phaseSpy struct {
	*RegisterPort
	c    *Controller
	seen []Phase
}

func (p *phaseSpy) SetBurstRequest(on bool) error {
	p.seen = append(p.seen, p.c.ManualPhase())
	return p.RegisterPort.SetBurstRequest(on)
}

func TestManualPhaseNeverLeaks(t *testing.T) {
	for _, patched := range []bool{false, true} {
		opts := sim.DefaultOptions()
		opts.PatchPresent = patched
		chip := sim.New(opts)
		rp := NewRegisterPort(chip.Mem)
		spy := &phaseSpy{RegisterPort: rp}
		c := New(Deps{Port: spy, Regulator: rp, Delay: &hw.SimClock{}}, workaroundConfig())
		spy.c = c

		require.Equal(t, PhaseIdle, c.ManualPhase())
		_, err := c.Initialize()
		require.NoError(t, err)

		_, _ = c.Enable()
		assert.Equal(t, PhaseIdle, c.ManualPhase())
		chip.SetFaults(sim.Faults{DisableStuck: true})
		_, _ = c.Disable()
		assert.Equal(t, PhaseIdle, c.ManualPhase())

		assert.Equal(t, []Phase{PhaseEnabling, PhaseDisabling}, spy.seen, "patched=%v", patched)
	}
}

func TestRegisterTrim(t *testing.T) {
	chip := sim.New(sim.DefaultOptions())
	chip.Mem.PokeField(chipreg.SimoBuckCoreTrim, 10)
	tr := NewRegisterTrim(chip.Mem, nil)

	require.NoError(t, tr.Restore(), "restore before adjust is a no-op")
	assert.Equal(t, uint32(10), chip.Mem.PeekField(chipreg.SimoBuckCoreTrim))

	require.NoError(t, tr.AdjustForRegulator(hw.RegulatorLDO))
	assert.Equal(t, uint32(15), chip.Mem.PeekField(chipreg.SimoBuckCoreTrim))
	require.NoError(t, tr.Restore())
	assert.Equal(t, uint32(10), chip.Mem.PeekField(chipreg.SimoBuckCoreTrim))
	require.NoError(t, tr.Boost())
	assert.Equal(t, uint32(15), chip.Mem.PeekField(chipreg.SimoBuckCoreTrim))

	// Re-adjusting keeps the original fused value as the base.
	require.NoError(t, tr.AdjustForRegulator(hw.RegulatorBuck))
	saved, ok := tr.Saved()
	assert.True(t, ok)
	assert.Equal(t, uint32(10), saved)
	assert.Equal(t, uint32(13), chip.Mem.PeekField(chipreg.SimoBuckCoreTrim))

	chip.Mem.PokeField(chipreg.SimoBuckCoreTrim, 62)
	top := NewRegisterTrim(chip.Mem, nil)
	require.NoError(t, top.AdjustForRegulator(hw.RegulatorLDO))
	assert.Equal(t, uint32(63), chip.Mem.PeekField(chipreg.SimoBuckCoreTrim), "clamped to field width")
}
