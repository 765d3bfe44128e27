package timex

import (
	"time"

	"clockseq-go/x/mathx"
)

// NowMs returns Unix milliseconds as int64.
func NowMs() int64 { return time.Now().UnixMilli() }

// Us converts a microsecond count to a Duration.
func Us(us uint32) time.Duration { return time.Duration(us) * time.Microsecond }

// SumUs adds microsecond counts, saturating instead of wrapping.
func SumUs(us ...uint32) uint32 {
	var total uint32
	for _, u := range us {
		total = mathx.SatAdd(total, u)
	}
	return total
}

// PollUs is the longest a bounded poll can wait: iterations x per-iteration
// delay, saturated. A zero iteration budget still runs one check.
func PollUs(maxIter, delayUs uint32) uint32 {
	maxIter = mathx.Max(maxIter, 1)
	if delayUs != 0 && maxIter > ^uint32(0)/delayUs {
		return ^uint32(0)
	}
	return maxIter * delayUs
}
