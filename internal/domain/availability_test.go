package domain

import (
	"testing"
	"time"
)

func hours(open, closeAt, lunchFrom, lunchTo string) DayHours {
	return DayHours{
		Open:      MustTimeOfDay(open),
		Close:     MustTimeOfDay(closeAt),
		LunchFrom: MustTimeOfDay(lunchFrom),
		LunchTo:   MustTimeOfDay(lunchTo),
	}
}

func slotSet(slots []TimeOfDay) map[string]bool {
	out := make(map[string]bool, len(slots))
	for _, s := range slots {
		out[s.String()] = true
	}
	return out
}

func TestGenerateSlots_ClinicDayWithLunch(t *testing.T) {
	slots := GenerateSlots(hours("08:00", "17:00", "12:00", "13:00"), 30*time.Minute)

	if len(slots) != 16 {
		t.Fatalf("len(slots) = %d, want 16", len(slots))
	}

	got := slotSet(slots)
	for _, want := range []string{"08:00", "11:30", "13:00", "16:30"} {
		if !got[want] {
			t.Fatalf("slot %s missing from %v", want, slots)
		}
	}
	for _, unwanted := range []string{"11:45", "12:00", "12:30", "16:45", "17:00"} {
		if got[unwanted] {
			t.Fatalf("slot %s must not be offered", unwanted)
		}
	}

	for i := 1; i < len(slots); i++ {
		if slots[i] <= slots[i-1] {
			t.Fatalf("slots not ascending: %v", slots)
		}
	}
}

func TestGenerateSlots_UnevenSegments(t *testing.T) {
	// 45 minute bookings: 09:00, 09:45 fit before 10:40; 11:00 fits before 12:00.
	slots := GenerateSlots(hours("09:00", "12:00", "10:40", "11:00"), 45*time.Minute)

	want := []string{"09:00", "09:45", "11:00"}
	if len(slots) != len(want) {
		t.Fatalf("slots = %v, want %v", slots, want)
	}
	for i, w := range want {
		if slots[i].String() != w {
			t.Fatalf("slots[%d] = %s, want %s", i, slots[i], w)
		}
	}
}

func TestGenerateSlots_NeverCrossesMidnight(t *testing.T) {
	slots := GenerateSlots(hours("22:00", "23:59", "23:00", "23:00"), 60*time.Minute)

	for _, s := range slots {
		if s.Seconds()+3600 > MustTimeOfDay("23:59").Seconds() {
			t.Fatalf("slot %s runs past close", s)
		}
	}
	if len(slots) != 1 || slots[0].String() != "22:00" {
		t.Fatalf("slots = %v, want [22:00]", slots)
	}
}

func TestGenerateSlots_NonPositiveDuration(t *testing.T) {
	if got := GenerateSlots(hours("08:00", "17:00", "12:00", "13:00"), 0); got != nil {
		t.Fatalf("GenerateSlots(0) = %v, want nil", got)
	}
}

func TestRemoveOverlapping_BlackoutWindow(t *testing.T) {
	slots := GenerateSlots(hours("08:00", "12:00", "12:00", "12:00"), 30*time.Minute)

	// blackout [09:10, 10:00) removes every slot in (08:40, 10:00)
	out := RemoveOverlapping(slots, 30*time.Minute, MustTimeOfDay("09:10"), MustTimeOfDay("10:00"))
	got := slotSet(out)

	for _, removed := range []string{"09:00", "09:30"} {
		if got[removed] {
			t.Fatalf("slot %s overlaps blackout but was kept", removed)
		}
	}
	for _, kept := range []string{"08:00", "08:30", "10:00", "10:30"} {
		if !got[kept] {
			t.Fatalf("slot %s does not overlap blackout but was removed", kept)
		}
	}
	if len(slots) != 8 {
		t.Fatalf("input slice modified: len = %d", len(slots))
	}
}

func TestRemoveOverlapping_WindowNearMidnightStart(t *testing.T) {
	slots := []TimeOfDay{MustTimeOfDay("00:00"), MustTimeOfDay("00:30"), MustTimeOfDay("01:00")}

	// start - duration would be negative; nothing may wrap to a late time.
	out := RemoveOverlapping(slots, 60*time.Minute, MustTimeOfDay("00:15"), MustTimeOfDay("00:45"))
	if len(out) != 1 || out[0].String() != "01:00" {
		t.Fatalf("out = %v, want [01:00]", out)
	}
}

func TestFitsHours_LunchBoundary(t *testing.T) {
	h := hours("08:00", "17:00", "12:00", "13:00")
	d := 30 * time.Minute

	tests := []struct {
		at          string
		beforeOpen  bool
		afterClose  bool
		duringLunch bool
	}{
		{at: "07:59", beforeOpen: true},
		{at: "11:30"},
		{at: "11:31", duringLunch: true},
		{at: "12:59", duringLunch: true},
		{at: "13:00"},
		{at: "16:30"},
		{at: "16:31", afterClose: true},
	}

	for _, tt := range tests {
		t.Run(tt.at, func(t *testing.T) {
			bo, ac, dl := FitsHours(MustTimeOfDay(tt.at), d, h)
			if bo != tt.beforeOpen || ac != tt.afterClose || dl != tt.duringLunch {
				t.Fatalf("FitsHours(%s) = (%v,%v,%v), want (%v,%v,%v)", tt.at, bo, ac, dl, tt.beforeOpen, tt.afterClose, tt.duringLunch)
			}
		})
	}
}

func TestFitsHours_CloseShorterThanDurationDoesNotWrap(t *testing.T) {
	// close - duration would wrap to 23:40 of the previous day if computed
	// with modular arithmetic.
	h := hours("00:00", "00:10", "00:10", "00:10")
	_, afterClose, _ := FitsHours(MustTimeOfDay("00:00"), 30*time.Minute, h)
	if !afterClose {
		t.Fatalf("booking longer than the opening window must be rejected")
	}
}

func TestCalendarOverrideMerge(t *testing.T) {
	current := hours("08:00", "17:00", "12:00", "13:00")

	open := MustTimeOfDay("08:00")
	o := CalendarOverride{OpenTime: &open}
	if _, changed := o.Merge(current); changed {
		t.Fatalf("identical open time must not count as a change")
	}

	closeAt := MustTimeOfDay("15:00")
	o = CalendarOverride{CloseTime: &closeAt}
	merged, changed := o.Merge(current)
	if !changed {
		t.Fatalf("expected change")
	}
	if merged.Close != closeAt || merged.Open != current.Open || merged.LunchFrom != current.LunchFrom {
		t.Fatalf("merged = %+v", merged)
	}
}

func TestWorkingDayHours_MissingFields(t *testing.T) {
	open := MustTimeOfDay("08:00")
	closeAt := MustTimeOfDay("17:00")

	_, err := WorkingDay{OpenTime: &open, CloseTime: &closeAt}.Hours()
	if ClassifyFailure(err) != FailureConfiguration {
		t.Fatalf("kind = %s, want configuration", ClassifyFailure(err))
	}
	if err.Error() != "Lunch From time not implemented" {
		t.Fatalf("error = %q", err.Error())
	}
}

func TestRemoveBooked(t *testing.T) {
	slots := GenerateSlots(hours("08:00", "12:00", "12:00", "12:00"), 30*time.Minute)

	out := RemoveBooked(slots, 30*time.Minute, MustTimeOfDay("09:00"))
	got := slotSet(out)
	if got["09:00"] {
		t.Fatalf("booked slot still offered")
	}
	if !got["08:30"] || !got["09:30"] {
		t.Fatalf("adjacent slots must stay: %v", out)
	}

	// off-grid booking at 09:10 only blocks slots starting inside [09:10, 09:40)
	out = RemoveBooked(slots, 30*time.Minute, MustTimeOfDay("09:10"))
	got = slotSet(out)
	if !got["09:00"] {
		t.Fatalf("slot before the booking start must stay: %v", out)
	}
	if got["09:30"] {
		t.Fatalf("slot starting inside the booking must be removed: %v", out)
	}
	if len(out) != len(slots)-1 {
		t.Fatalf("len(out) = %d, want %d", len(out), len(slots)-1)
	}

	// booking near midnight does not wrap to early slots
	late := []TimeOfDay{MustTimeOfDay("00:00"), MustTimeOfDay("23:30")}
	out = RemoveBooked(late, time.Hour, MustTimeOfDay("23:30"))
	if len(out) != 1 || out[0] != MustTimeOfDay("00:00") {
		t.Fatalf("out = %v, want [00:00]", out)
	}
}
