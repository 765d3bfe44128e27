package power

import "clockseq-go/bus"

func T(tokens ...bus.Token) bus.Topic { return bus.T(tokens...) }

func topicConfigClockMux() bus.Topic { return T("config", "clockmux") }

// hal/clock/...
func clockBase() bus.Topic       { return T("hal", "clock") }
func topicState() bus.Topic      { return clockBase().Append("state") }
func topicBurstState() bus.Topic { return clockBase().Append("burst", "state") }

// hal/clock/burst/control/<verb>
func TopicBurstControl(verb string) bus.Topic {
	return clockBase().Append("burst", "control", verb)
}

// hal/clock/i2s/<n>/control/set
func TopicI2SSet(n int) bus.Topic { return clockBase().Append("i2s", n, "control", "set") }

// hal/clock/i2s/<n>/state
func TopicI2SState(n int) bus.Topic { return clockBase().Append("i2s", n, "state") }

func TopicBurstState() bus.Topic { return topicBurstState() }
func TopicState() bus.Topic      { return topicState() }

func burstCtrlWildcard() bus.Topic { return clockBase().Append("burst", "control", "+") }
func i2sCtrlWildcard() bus.Topic   { return clockBase().Append("i2s", "+", "control", "set") }
