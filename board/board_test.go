package board

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clockseq-go/burst"
	"clockseq-go/chipreg"
	"clockseq-go/clockmux"
	"clockseq-go/config"
	"clockseq-go/sim"
	"clockseq-go/trace"
)

func evb(t *testing.T) config.Profile {
	t.Helper()
	p, err := config.Load("apollo4p_evb")
	require.NoError(t, err)
	return p
}

func TestSimBoardBurstCycle(t *testing.T) {
	b, err := NewSim(evb(t), WithTrace(false))
	require.NoError(t, err)

	avail, err := b.Burst.Initialize()
	require.NoError(t, err)
	require.Equal(t, burst.Available, avail)

	m, err := b.Burst.Enable()
	require.NoError(t, err)
	assert.Equal(t, burst.Burst, m)
	assert.True(t, b.Chip.BurstActive())

	m, err = b.Burst.Disable()
	require.NoError(t, err)
	assert.Equal(t, burst.Normal, m)

	assert.NotEmpty(t, b.Trace.Delays(), "manual sequence delays are traced")
	assert.NotZero(t, b.Clock.NowUs())
}

func TestBootAppliesProfileClocks(t *testing.T) {
	b, err := NewSim(evb(t))
	require.NoError(t, err)
	require.NoError(t, b.Boot())

	c0, _ := b.I2S.Current(0)
	c1, _ := b.I2S.Current(1)
	assert.Equal(t, clockmux.HFRC24MHz.Source(), c0)
	assert.Equal(t, clockmux.PLLFout4.Source(), c1)
	assert.Equal(t, uint32(chipreg.LLSelPLLFout4), b.Chip.LLStatus(1))
	assert.Empty(t, b.Chip.Violations())
}

func TestNoBurstProfile(t *testing.T) {
	p, err := config.Load("apollo4p_noburst")
	require.NoError(t, err)
	b, err := NewSim(p)
	require.NoError(t, err)

	avail, err := b.Burst.Initialize()
	require.NoError(t, err)
	assert.Equal(t, burst.NotAvailable, avail)
}

// bridge forwards the I2C register protocol to a simulator, hooks included.
type bridge struct {
	mu   sync.Mutex
	chip *sim.Chip
}

func (f *bridge) Tx(_ uint16, w, r []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	addr := chipreg.PeripheralBase + (uint32(w[0])<<16 | uint32(w[1])<<8 | uint32(w[2]))
	if len(r) == 4 {
		v, err := f.chip.Mem.Read(addr)
		r[0], r[1], r[2], r[3] = byte(v), byte(v>>8), byte(v>>16), byte(v>>24)
		return err
	}
	return f.chip.Mem.Write(addr, uint32(w[3])|uint32(w[4])<<8|uint32(w[5])<<16|uint32(w[6])<<24)
}

func TestI2CBoardDrivesSimulator(t *testing.T) {
	p := evb(t)
	p.Burst.PollDelayUs = 0
	p.ClockMux.LLSettleUs = 0
	p.Burst.BuckSettleUs, p.Burst.LDOEarlySettleUs, p.Burst.LDOActiveSettleUs, p.Burst.BuckHoldUs = 0, 0, 0, 25

	chip := sim.New(SimOptions(p))
	b, err := NewI2C(p, &bridge{chip: chip}, 0, WithTrace(true))
	require.NoError(t, err)

	_, err = b.Burst.Initialize()
	require.NoError(t, err)
	_, err = b.Burst.Enable()
	require.NoError(t, err)
	assert.True(t, chip.BurstActive())

	require.NoError(t, b.I2S.SetClockPreset(0, clockmux.PLLFout3))
	assert.Equal(t, uint32(chipreg.LLSelPLLFout3), chip.LLStatus(0))
	assert.Empty(t, chip.Violations())

	reads := 0
	for _, e := range b.Trace.Events() {
		if e.Kind == trace.KindRead {
			reads++
		}
	}
	assert.NotZero(t, reads)
}

func TestSimOptions(t *testing.T) {
	assert.Equal(t, sim.DefaultOptions(), SimOptions(config.Default()))

	p := evb(t)
	assert.True(t, SimOptions(p).PatchPresent)

	p.Sim.Faults.LLStuck = true
	p.Sim.Faults.DisableStuck = true
	f := SimOptions(p).Faults
	assert.True(t, f.LLStuck)
	assert.True(t, f.DisableStuck)
	assert.False(t, f.BurstNoAck)
}
