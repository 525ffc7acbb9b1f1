// Package booking decides whether a candidate room reservation can be accepted
// against the reservations already held for the same room.
package booking

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format used for reservation dates.
const DateLayout = "2006-01-02"

// Interval is a half-open date range [Start, End) occupied by a reservation.
type Interval struct {
	ReservationID string
	Start         time.Time
	End           time.Time
}

// Candidate describes a reservation request awaiting a decision.
type Candidate struct {
	RoomID   string
	Guests   int
	Start    time.Time
	End      time.Time
	Today    time.Time
	Capacity int
}

// Reason identifies why a candidate was rejected.
type Reason string

const (
	// ReasonStartInPast indicates the requested start date precedes today.
	ReasonStartInPast Reason = "start date in the past"
	// ReasonInvalidRange indicates a non-positive guest count or an empty date range.
	ReasonInvalidRange Reason = "invalid guest count or date range"
	// ReasonOverCapacity indicates more guests than the room accommodates.
	ReasonOverCapacity Reason = "guest count exceeds room capacity"
	// ReasonUnavailable indicates the room is already booked for part of the range.
	ReasonUnavailable Reason = "room unavailable for requested dates"
)

// Rejection is returned by Validate when a candidate cannot be accepted.
type Rejection struct {
	Reason    Reason
	Conflicts []Interval
}

// Error implements the error interface.
func (r *Rejection) Error() string {
	if r == nil {
		return ""
	}
	if len(r.Conflicts) == 0 {
		return "booking rejected: " + string(r.Reason)
	}
	ids := make([]string, 0, len(r.Conflicts))
	for _, c := range r.Conflicts {
		ids = append(ids, c.ReservationID)
	}
	return fmt.Sprintf("booking rejected: %s (conflicts with %s)", r.Reason, strings.Join(ids, ", "))
}

// Validate accepts the candidate by returning nil or rejects it with a *Rejection.
// The existing intervals must belong to the candidate's room and exclude the
// reservation being edited, if any.
func Validate(candidate Candidate, existing []Interval) error {
	start := DateOf(candidate.Start)
	end := DateOf(candidate.End)

	if start.Before(DateOf(candidate.Today)) {
		return &Rejection{Reason: ReasonStartInPast}
	}
	if candidate.Guests < 1 || !start.Before(end) {
		return &Rejection{Reason: ReasonInvalidRange}
	}
	if candidate.Capacity > 0 && candidate.Guests > candidate.Capacity {
		return &Rejection{Reason: ReasonOverCapacity}
	}

	if conflicts := Conflicts(Interval{Start: start, End: end}, existing); len(conflicts) > 0 {
		return &Rejection{Reason: ReasonUnavailable, Conflicts: conflicts}
	}
	return nil
}

// Overlaps reports whether two half-open intervals share at least one day.
// Back-to-back ranges, where one ends on the day the other starts, do not overlap.
func Overlaps(a, b Interval) bool {
	return DateOf(a.Start).Before(DateOf(b.End)) && DateOf(a.End).After(DateOf(b.Start))
}

// Conflicts returns the existing intervals that overlap the candidate range.
func Conflicts(candidate Interval, existing []Interval) []Interval {
	var out []Interval
	for _, e := range existing {
		if Overlaps(e, candidate) {
			out = append(out, e)
		}
	}
	return out
}

// DateOf truncates t to its civil date at midnight UTC.
func DateOf(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD value into a UTC civil date.
func ParseDate(value string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(value), time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// FormatDate renders a civil date in DateLayout.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return DateOf(t).Format(DateLayout)
}
