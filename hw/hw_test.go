package hw

import (
	"errors"
	"testing"

	"clockseq-go/errcode"
)

func TestPollUntilChecksBeforeDelaying(t *testing.T) {
	var clk SimClock
	calls := 0
	err := PollUntil(&clk, 10, 1, func() (bool, error) { calls++; return true, nil })
	if err != nil || calls != 1 || clk.NowUs() != 0 {
		t.Fatalf("err=%v calls=%d now=%d", err, calls, clk.NowUs())
	}
}

func TestPollUntilTimeout(t *testing.T) {
	var clk SimClock
	err := PollUntil(&clk, 5, 2, func() (bool, error) { return false, nil })
	if !errors.Is(err, errcode.Timeout) {
		t.Fatalf("want timeout, got %v", err)
	}
	if clk.NowUs() != 10 {
		t.Fatalf("want 10us elapsed, got %d", clk.NowUs())
	}
}

func TestPollUntilEventually(t *testing.T) {
	var clk SimClock
	n := 0
	err := PollUntil(&clk, 100, 1, func() (bool, error) { n++; return n == 4, nil })
	if err != nil || clk.NowUs() != 3 {
		t.Fatalf("err=%v now=%d", err, clk.NowUs())
	}
}

func TestPollUntilPropagatesCondError(t *testing.T) {
	var clk SimClock
	boom := errors.New("bus fault")
	if err := PollUntil(&clk, 3, 1, func() (bool, error) { return false, boom }); err != boom {
		t.Fatalf("got %v", err)
	}
}

func TestPollUntilZeroBudgetStillChecksOnce(t *testing.T) {
	var clk SimClock
	if err := PollUntil(&clk, 0, 1, func() (bool, error) { return true, nil }); err != nil {
		t.Fatal(err)
	}
}

func TestAtomicBracketsCritical(t *testing.T) {
	var c MutexCritical
	var inside bool
	_ = Atomic(&c, func() error { inside = c.Active(); return nil })
	if !inside || c.Active() {
		t.Fatalf("inside=%v after=%v", inside, c.Active())
	}
}

func TestRegulatorModeString(t *testing.T) {
	if RegulatorBuck.String() != "buck" || RegulatorLDO.String() != "ldo" || RegulatorMode(9).String() != "unknown" {
		t.Fatal("RegulatorMode.String mapping incorrect")
	}
}
