package burst

import "clockseq-go/x/timex"

// Latency is the longest each operation can block, in microseconds, with
// every poll running its full budget.
type Latency struct {
	InitializeUs uint32
	EnableUs     uint32
	DisableUs    uint32
}

func (c Config) Latency() Latency {
	poll := timex.PollUs(c.PollMaxIterations, c.PollDelayUs)
	l := Latency{
		InitializeUs: timex.SumUs(poll, poll), // stale-ack clear, then ack
		EnableUs:     poll,
		DisableUs:    poll,
	}
	if c.Workaround {
		l.EnableUs = timex.SumUs(c.BuckSettleUs, c.LDOEarlySettleUs, c.LDOActiveSettleUs, poll, c.BuckHoldUs)
	}
	return l
}
