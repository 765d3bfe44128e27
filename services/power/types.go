package power

// Bus payloads. Codes travel as errcode strings.

// BurstReply answers hal/clock/burst/control/<verb>.
type BurstReply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	Avail string `json:"avail"`
	Mode  string `json:"mode"`
}

// BurstState is retained on hal/clock/burst/state.
type BurstState struct {
	Avail string `json:"avail"`
	Mode  string `json:"mode"`
	TSms  int64  `json:"ts_ms"`
}

// ClockRequest is the payload of hal/clock/i2s/<n>/control/set.
type ClockRequest struct {
	Clock string `json:"clock"`
}

// ClockReply answers a ClockRequest.
type ClockReply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	Clock string `json:"clock,omitempty"`
}

// ClockState is retained on hal/clock/i2s/<n>/state.
type ClockState struct {
	Clock  string `json:"clock"`
	Source string `json:"source"`
	TSms   int64  `json:"ts_ms"`
}

// ServiceState is retained on hal/clock/state.
type ServiceState struct {
	Level  string `json:"level"` // ready | stopped
	Status string `json:"status,omitempty"`
	TSms   int64  `json:"ts_ms"`
}
