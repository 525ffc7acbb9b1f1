package testfixtures

import (
	"testing"
	"time"
)

func TestClockStartsAtReferenceTime(t *testing.T) {
	clock := NewClock(time.Time{})
	if !clock.Now().Equal(ReferenceTime()) {
		t.Fatalf("expected ReferenceTime, got %v", clock.Now())
	}
	if !clock.Today().Equal(ReferenceDate()) {
		t.Fatalf("expected today to be %v, got %v", ReferenceDate(), clock.Today())
	}
}

func TestClockMovesThroughStays(t *testing.T) {
	clock := NewClock(time.Time{})

	checkout := clock.AdvanceNights(3)
	if !checkout.Equal(ReferenceTime().AddDate(0, 0, 3)) {
		t.Fatalf("unexpected time after three nights: %v", checkout)
	}
	if want := Date(2030, time.June, 13); !clock.Today().Equal(want) {
		t.Fatalf("expected today %v, got %v", want, clock.Today())
	}

	clock.Advance(15 * time.Hour)
	if want := Date(2030, time.June, 14); !clock.Today().Equal(want) {
		t.Fatalf("expected the date to roll over to %v, got %v", want, clock.Today())
	}
}

func TestClockNowFuncFollowsUpdates(t *testing.T) {
	clock := NewClock(time.Time{})
	nowFn := clock.NowFunc()

	clock.Set(Date(2031, time.January, 1))
	if got := nowFn(); !got.Equal(Date(2031, time.January, 1)) {
		t.Fatalf("expected NowFunc to observe Set, got %v", got)
	}

	var nilClock *Clock
	if nilClock.NowFunc() == nil {
		t.Fatalf("expected a fallback for a nil clock")
	}
}
