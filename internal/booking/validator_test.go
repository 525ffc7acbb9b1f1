package booking

import (
	"errors"
	"testing"
	"time"
)

func day(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := ParseDate(value)
	if err != nil {
		t.Fatalf("ParseDate(%q) failed: %v", value, err)
	}
	return d
}

func rejectionReason(t *testing.T, err error) Reason {
	t.Helper()
	if err == nil {
		return ""
	}
	var rej *Rejection
	if !errors.As(err, &rej) {
		t.Fatalf("expected *Rejection, got %T (%v)", err, err)
	}
	return rej.Reason
}

func TestValidate(t *testing.T) {
	t.Parallel()

	today := func(t *testing.T) time.Time { return day(t, "2025-05-20") }
	existing := func(t *testing.T) []Interval {
		return []Interval{{ReservationID: "r-1", Start: day(t, "2025-06-01"), End: day(t, "2025-06-05")}}
	}

	tests := []struct {
		name   string
		guests int
		start  string
		end    string
		cap    int
		want   Reason
	}{
		{name: "back-to-back booking after existing is accepted", guests: 2, start: "2025-06-05", end: "2025-06-08"},
		{name: "back-to-back booking before existing is accepted", guests: 2, start: "2025-05-28", end: "2025-06-01"},
		{name: "partial overlap is rejected", guests: 2, start: "2025-06-03", end: "2025-06-10", want: ReasonUnavailable},
		{name: "containing range is rejected", guests: 1, start: "2025-05-30", end: "2025-06-10", want: ReasonUnavailable},
		{name: "contained range is rejected", guests: 1, start: "2025-06-02", end: "2025-06-03", want: ReasonUnavailable},
		{name: "identical range is rejected", guests: 1, start: "2025-06-01", end: "2025-06-05", want: ReasonUnavailable},
		{name: "zero guests is rejected regardless of dates", guests: 0, start: "2025-07-01", end: "2025-07-03", want: ReasonInvalidRange},
		{name: "zero guests on an overlapping range reports the guest count", guests: 0, start: "2025-06-02", end: "2025-06-03", want: ReasonInvalidRange},
		{name: "negative guests is rejected", guests: -1, start: "2025-07-01", end: "2025-07-03", want: ReasonInvalidRange},
		{name: "empty range is rejected", guests: 1, start: "2025-07-01", end: "2025-07-01", want: ReasonInvalidRange},
		{name: "inverted range is rejected", guests: 1, start: "2025-07-03", end: "2025-07-01", want: ReasonInvalidRange},
		{name: "start before today is rejected", guests: 1, start: "2025-05-19", end: "2025-05-22", want: ReasonStartInPast},
		{name: "start today is accepted", guests: 1, start: "2025-05-20", end: "2025-05-21"},
		{name: "guests above capacity is rejected", guests: 5, start: "2025-07-01", end: "2025-07-03", cap: 4, want: ReasonOverCapacity},
		{name: "guests at capacity is accepted", guests: 4, start: "2025-07-01", end: "2025-07-03", cap: 4},
		{name: "unknown capacity skips the capacity rule", guests: 40, start: "2025-07-01", end: "2025-07-03"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := Validate(Candidate{
				RoomID:   "room-1",
				Guests:   tt.guests,
				Start:    day(t, tt.start),
				End:      day(t, tt.end),
				Today:    today(t),
				Capacity: tt.cap,
			}, existing(t))

			if got := rejectionReason(t, err); got != tt.want {
				t.Fatalf("expected reason %q, got %q", tt.want, got)
			}
		})
	}
}

func TestValidate_ReportsConflicts(t *testing.T) {
	t.Parallel()

	existing := []Interval{
		{ReservationID: "a", Start: day(t, "2025-06-01"), End: day(t, "2025-06-05")},
		{ReservationID: "b", Start: day(t, "2025-06-05"), End: day(t, "2025-06-07")},
		{ReservationID: "c", Start: day(t, "2025-06-10"), End: day(t, "2025-06-12")},
	}

	err := Validate(Candidate{
		Guests: 1,
		Start:  day(t, "2025-06-04"),
		End:    day(t, "2025-06-06"),
		Today:  day(t, "2025-06-01"),
	}, existing)

	var rej *Rejection
	if !errors.As(err, &rej) {
		t.Fatalf("expected rejection, got %v", err)
	}
	if len(rej.Conflicts) != 2 || rej.Conflicts[0].ReservationID != "a" || rej.Conflicts[1].ReservationID != "b" {
		t.Fatalf("unexpected conflicts: %#v", rej.Conflicts)
	}
}

func TestValidate_IgnoresTimeOfDay(t *testing.T) {
	t.Parallel()

	today := time.Date(2025, 5, 20, 23, 59, 0, 0, time.UTC)
	start := time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 5, 21, 0, 0, 0, 0, time.UTC)

	if err := Validate(Candidate{Guests: 1, Start: start, End: end, Today: today}, nil); err != nil {
		t.Fatalf("expected booking starting today to be accepted late in the day, got %v", err)
	}
}

// TestValidate_MatchesPredicate checks the decision against the closed-form
// rejection predicate over a grid of small ranges.
func TestValidate_MatchesPredicate(t *testing.T) {
	t.Parallel()

	base := day(t, "2025-01-01")
	at := func(offset int) time.Time { return base.AddDate(0, 0, offset) }
	today := at(2)
	existing := []Interval{
		{ReservationID: "x", Start: at(4), End: at(6)},
		{ReservationID: "y", Start: at(8), End: at(9)},
	}

	for guests := -1; guests <= 2; guests++ {
		for s := 0; s <= 10; s++ {
			for e := 0; e <= 10; e++ {
				start, end := at(s), at(e)

				overlap := false
				for _, x := range existing {
					if x.Start.Before(end) && x.End.After(start) {
						overlap = true
					}
				}
				wantReject := start.Before(today) || guests <= 0 || !start.Before(end) || overlap

				err := Validate(Candidate{Guests: guests, Start: start, End: end, Today: today}, existing)
				if (err != nil) != wantReject {
					t.Fatalf("guests=%d start=+%d end=+%d: expected reject=%v, got %v", guests, s, e, wantReject, err)
				}
			}
		}
	}
}

func TestOverlaps_IsSymmetric(t *testing.T) {
	t.Parallel()

	a := Interval{Start: day(t, "2025-06-01"), End: day(t, "2025-06-05")}
	b := Interval{Start: day(t, "2025-06-04"), End: day(t, "2025-06-06")}
	c := Interval{Start: day(t, "2025-06-05"), End: day(t, "2025-06-06")}

	if !Overlaps(a, b) || !Overlaps(b, a) {
		t.Fatalf("expected a and b to overlap in both directions")
	}
	if Overlaps(a, c) || Overlaps(c, a) {
		t.Fatalf("expected touching ranges not to overlap")
	}
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	got, err := ParseDate(" 2025-06-01 ")
	if err != nil {
		t.Fatalf("ParseDate failed: %v", err)
	}
	if FormatDate(got) != "2025-06-01" {
		t.Fatalf("unexpected round trip: %s", FormatDate(got))
	}
	if _, err := ParseDate("06/01/2025"); err == nil {
		t.Fatalf("expected error for non-ISO date")
	}
}
