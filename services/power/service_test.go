package power

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clockseq-go/board"
	"clockseq-go/bus"
	"clockseq-go/config"
	"clockseq-go/errcode"
	"clockseq-go/sim"
)

type rig struct {
	b    *board.Board
	bus  *bus.Bus
	conn *bus.Connection
	stop context.CancelFunc
}

func start(t *testing.T, profile string, pre func(*rig)) *rig {
	t.Helper()
	p, err := config.Load(profile)
	require.NoError(t, err)
	brd, err := board.NewSim(p)
	require.NoError(t, err)

	b := bus.NewBus(16)
	r := &rig{b: brd, bus: b, conn: b.NewConnection("test")}
	if pre != nil {
		pre(r)
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.stop = cancel
	t.Cleanup(cancel)

	state := r.conn.Subscribe(TopicState())
	defer r.conn.Unsubscribe(state)
	New(brd.Burst, brd.I2S).Start(ctx, b.NewConnection("power"))
	waitFor(t, state, func(m *bus.Message) bool {
		s, ok := m.Payload.(ServiceState)
		return ok && s.Level == "ready"
	})
	return r
}

func waitFor(t *testing.T, sub *bus.Subscription, pred func(*bus.Message) bool) *bus.Message {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		select {
		case m := <-sub.Channel():
			if pred(m) {
				return m
			}
		case <-deadline:
			t.Fatalf("timeout waiting on %v", sub.Topic())
			return nil
		}
	}
}

func (r *rig) request(t *testing.T, topic bus.Topic, payload any) any {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	reply, err := r.conn.RequestWait(ctx, r.conn.NewMessage(topic, payload, false))
	require.NoError(t, err)
	return reply.Payload
}

func (r *rig) burst(t *testing.T, verb string) BurstReply {
	t.Helper()
	rep, ok := r.request(t, TopicBurstControl(verb), nil).(BurstReply)
	require.True(t, ok)
	return rep
}

func (r *rig) retained(t *testing.T, topic bus.Topic) any {
	t.Helper()
	sub := r.conn.Subscribe(topic)
	defer r.conn.Unsubscribe(sub)
	select {
	case m := <-sub.Channel():
		return m.Payload
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("no retained message on %v", topic)
		return nil
	}
}

func TestBurstControlFlow(t *testing.T) {
	r := start(t, "apollo4p_evb", nil)

	rep := r.burst(t, "enable")
	assert.False(t, rep.OK, "enable before init")
	assert.Equal(t, string(errcode.InvalidOperation), rep.Error)

	rep = r.burst(t, "init")
	require.True(t, rep.OK, rep.Error)
	assert.Equal(t, "available", rep.Avail)

	rep = r.burst(t, "enable")
	require.True(t, rep.OK, rep.Error)
	assert.Equal(t, "burst", rep.Mode)
	assert.True(t, r.b.Chip.BurstActive())

	st, ok := r.retained(t, TopicBurstState()).(BurstState)
	require.True(t, ok)
	assert.Equal(t, "burst", st.Mode)

	rep = r.burst(t, "disable")
	require.True(t, rep.OK, rep.Error)
	assert.Equal(t, "normal", rep.Mode)
}

func TestBurstReplyCarriesControllerCode(t *testing.T) {
	r := start(t, "apollo4p_evb", nil)
	require.True(t, r.burst(t, "init").OK)

	r.b.Chip.SetFaults(sim.Faults{BurstNeverSwitch: true})
	rep := r.burst(t, "enable")
	assert.False(t, rep.OK)
	assert.Equal(t, string(errcode.Timeout), rep.Error)
	assert.Equal(t, "normal", rep.Mode)
}

func TestBurstNotAvailableProfile(t *testing.T) {
	r := start(t, "apollo4p_noburst", nil)
	rep := r.burst(t, "init")
	assert.False(t, rep.OK)
	assert.Equal(t, string(errcode.InvalidOperation), rep.Error)
	assert.Equal(t, "not_available", rep.Avail)
}

func TestUnknownBurstVerb(t *testing.T) {
	r := start(t, "apollo4p_evb", nil)
	rep := r.burst(t, "reboot")
	assert.Equal(t, string(errcode.Unsupported), rep.Error)
}

func TestI2SSet(t *testing.T) {
	r := start(t, "apollo4p_evb", nil)

	rep, ok := r.request(t, TopicI2SSet(1), ClockRequest{Clock: "pll_fout3"}).(ClockReply)
	require.True(t, ok)
	require.True(t, rep.OK, rep.Error)

	st, ok := r.retained(t, TopicI2SState(1)).(ClockState)
	require.True(t, ok)
	assert.Equal(t, "pll_fout3", st.Clock)
	assert.Empty(t, r.b.Chip.Violations())

	cases := []struct {
		topic   bus.Topic
		payload any
		want    errcode.Code
	}{
		{TopicI2SSet(0), ClockRequest{Clock: "pll_fout9"}, errcode.InvalidParams},
		{TopicI2SSet(5), ClockRequest{Clock: "xths"}, errcode.InvalidParams},
		{TopicI2SSet(0), "xths", errcode.InvalidPayload},
		{T("hal", "clock", "i2s", "zero", "control", "set"), ClockRequest{Clock: "xths"}, errcode.InvalidTopic},
	}
	for _, tc := range cases {
		rep, ok := r.request(t, tc.topic, tc.payload).(ClockReply)
		require.True(t, ok)
		assert.False(t, rep.OK)
		assert.Equal(t, string(tc.want), rep.Error, "%v", tc.topic)
	}
}

func TestI2SSettleFailureReported(t *testing.T) {
	r := start(t, "apollo4p_evb", nil)
	r.b.Chip.SetFaults(sim.Faults{LLStuck: true})
	rep, ok := r.request(t, TopicI2SSet(0), &ClockRequest{Clock: "pll_fout4"}).(ClockReply)
	require.True(t, ok)
	assert.Equal(t, string(errcode.Timeout), rep.Error)
}

func TestBootClocksFromConfig(t *testing.T) {
	r := start(t, "apollo4p_evb", func(r *rig) {
		r.conn.Publish(r.conn.NewMessage(T("config", "clockmux"), r.b.Profile.ClockMux, true))
	})
	sub := r.conn.Subscribe(TopicI2SState(1))
	defer r.conn.Unsubscribe(sub)
	m := waitFor(t, sub, func(m *bus.Message) bool {
		s, ok := m.Payload.(ClockState)
		return ok && s.Clock == "pll_fout4"
	})
	assert.Equal(t, "pll_fout4", m.Payload.(ClockState).Source)
}

func TestStopPublishesState(t *testing.T) {
	r := start(t, "apollo4p_evb", nil)
	sub := r.conn.Subscribe(TopicState())
	defer r.conn.Unsubscribe(sub)
	r.stop()
	waitFor(t, sub, func(m *bus.Message) bool {
		s, ok := m.Payload.(ServiceState)
		return ok && s.Level == "stopped"
	})
}
