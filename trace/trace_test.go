package trace

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clockseq-go/hw"
	"clockseq-go/regs"
)

func TestRecorderFieldAndWordWrites(t *testing.T) {
	mem := regs.NewMem()
	var clk hw.SimClock
	rec := New(mem, &clk, &hw.MutexCritical{})

	f := regs.Field{Name: "CTRL.MODE", Reg: 0x40, Pos: 4, Width: 2}
	require.NoError(t, f.Set(rec, 2))
	rec.DelayUs(17)
	st := rec.Begin()
	require.NoError(t, f.Set(rec, 1))
	rec.End(st)

	fw := rec.FieldWrites(f)
	require.Len(t, fw, 2)
	assert.Equal(t, uint32(2), fw[0].Value)
	assert.Equal(t, []uint32{2, 1}, rec.FieldHistory(f))
	assert.Equal(t, []uint32{17}, rec.Delays())
	assert.Equal(t, uint64(17), clk.NowUs())
	assert.Equal(t, uint32(0x10), mem.Peek(0x40))

	evs := rec.Events()
	begin := Index(evs, func(e Event) bool { return e.Kind == KindCritBegin })
	end := Index(evs, func(e Event) bool { return e.Kind == KindCritEnd })
	second := Index(evs, func(e Event) bool { return e.Kind == KindField && e.Value == 1 })
	assert.True(t, begin < second && second < end, "field write should sit inside the critical section")
}

func TestRecorderReadsAreOptIn(t *testing.T) {
	mem := regs.NewMem()
	quiet := New(mem, nil, nil)
	_, _ = quiet.Read(0x0)
	assert.Empty(t, quiet.Events())

	loud := New(mem, nil, nil, WithReads())
	_, _ = loud.Read(0x0)
	require.Len(t, loud.Events(), 1)
	assert.Equal(t, KindRead, loud.Events()[0].Kind)

	loud.Reset()
	assert.Empty(t, loud.Events())
}

func TestCaptureCBORFile(t *testing.T) {
	rec := New(regs.NewMem(), nil, nil)
	_ = rec.Write(0x4000_4040, 0x5)
	rec.DelayUs(25)
	c := rec.Snapshot("apollo4p")

	path := filepath.Join(t.TempDir(), "seq.cbor")
	var buf bytes.Buffer
	require.NoError(t, c.Encode(&buf))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	got, err := Decode(f)
	require.NoError(t, err)

	assert.Equal(t, c.Session, got.Session)
	assert.Equal(t, "apollo4p", got.Chip)
	assert.True(t, c.Taken.Equal(got.Taken))
	assert.Equal(t, c.Events, got.Events)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "field", KindField.String())
	assert.Equal(t, "unknown", Kind(99).String())
}
