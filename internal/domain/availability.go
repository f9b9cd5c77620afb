package domain

import (
	"time"
)

// AvailabilityHorizonDays is the number of consecutive dates, today
// included, covered by an availability query.
const AvailabilityHorizonDays = 14

// DayHours are the effective opening hours of one date.
type DayHours struct {
	Open      TimeOfDay
	Close     TimeOfDay
	LunchFrom TimeOfDay
	LunchTo   TimeOfDay
}

// AvailabilityDay is one date of an availability response.
type AvailabilityDay struct {
	Date      time.Time
	ServiceID int64
	Hours     DayHours
	Slots     []TimeOfDay
}

// GenerateSlots builds the slot grid for hours: starts spaced by duration
// from Open whose booking ends at or before LunchFrom, then from LunchTo
// whose booking ends at or before Close. Bookings that would run past
// midnight are never emitted.
func GenerateSlots(hours DayHours, duration time.Duration) []TimeOfDay {
	if duration <= 0 {
		return nil
	}
	step := int(duration / time.Second)

	slots := make([]TimeOfDay, 0, 32)
	slots = appendSegment(slots, hours.Open, hours.LunchFrom, step)
	slots = appendSegment(slots, hours.LunchTo, hours.Close, step)
	return slots
}

func appendSegment(slots []TimeOfDay, from, until TimeOfDay, step int) []TimeOfDay {
	for start := from.Seconds(); start+step <= until.Seconds(); start += step {
		slots = append(slots, TimeOfDay(start))
	}
	return slots
}

// Overlaps reports whether a booking of length duration starting at start
// intersects the half-open window [from, to). Equivalent to
// start in (from - duration, to) without computing from - duration.
func Overlaps(start TimeOfDay, duration time.Duration, from, to TimeOfDay) bool {
	return overlapsSeconds(start.Seconds(), int(duration/time.Second), from.Seconds(), to.Seconds())
}

func overlapsSeconds(start, length, from, to int) bool {
	return start < to && start+length > from
}

// RemoveOverlapping drops every slot whose booking would intersect
// [from, to). The input slice is not modified.
func RemoveOverlapping(slots []TimeOfDay, duration time.Duration, from, to TimeOfDay) []TimeOfDay {
	out := make([]TimeOfDay, 0, len(slots))
	for _, s := range slots {
		if Overlaps(s, duration, from, to) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// RemoveBooked drops every slot starting within [booked, booked+duration).
// Slots starting before booked are kept even when their own booking would
// run into it. The end bound does not wrap at midnight.
func RemoveBooked(slots []TimeOfDay, duration time.Duration, booked TimeOfDay) []TimeOfDay {
	from := booked.Seconds()
	to := from + int(duration/time.Second)
	out := make([]TimeOfDay, 0, len(slots))
	for _, s := range slots {
		if s.Seconds() >= from && s.Seconds() < to {
			continue
		}
		out = append(out, s)
	}
	return out
}

// FitsHours reports whether a booking at start of length duration lies
// within [Open, Close) and clear of the lunch break.
func FitsHours(start TimeOfDay, duration time.Duration, hours DayHours) (beforeOpen, afterClose, duringLunch bool) {
	end := start.Seconds() + int(duration/time.Second)
	beforeOpen = start.Before(hours.Open)
	afterClose = end > hours.Close.Seconds()
	duringLunch = Overlaps(start, duration, hours.LunchFrom, hours.LunchTo)
	return beforeOpen, afterClose, duringLunch
}
