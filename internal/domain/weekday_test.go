package domain

import (
	"testing"
	"time"
)

func TestWeekdayResolver_DefaultTable(t *testing.T) {
	r, err := NewWeekdayResolver(DefaultDays())
	if err != nil {
		t.Fatalf("NewWeekdayResolver error: %v", err)
	}

	// 2026-10-18 is a Sunday.
	sunday := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		date := sunday.AddDate(0, 0, i)
		if got := r.Resolve(date); got != i+1 {
			t.Fatalf("Resolve(%s) = %d, want %d", date.Weekday(), got, i+1)
		}
	}
}

func TestWeekdayResolver_NormalizesNames(t *testing.T) {
	days := []Day{
		{ID: 11, Name: "Sun"},
		{ID: 12, Name: "mon"},
		{ID: 13, Name: "TUESDAY"},
		{ID: 14, Name: " Wed "},
		{ID: 15, Name: "Thurs"},
		{ID: 16, Name: "Friday"},
		{ID: 17, Name: "sat"},
	}
	r, err := NewWeekdayResolver(days)
	if err != nil {
		t.Fatalf("NewWeekdayResolver error: %v", err)
	}

	monday := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	if got := r.Resolve(monday); got != 12 {
		t.Fatalf("Resolve(Monday) = %d, want 12", got)
	}

	for name, want := range map[string]int{"Tue": 13, "thu": 15, "Thursday": 15, "SATURDAY": 17} {
		got, ok := r.Lookup(name)
		if !ok || got != want {
			t.Fatalf("Lookup(%q) = %d, %v; want %d", name, got, ok, want)
		}
	}
	if _, ok := r.Lookup("Funday"); ok {
		t.Fatalf("Lookup(Funday) must fail")
	}
}

func TestWeekdayResolver_IncompleteTable(t *testing.T) {
	days := DefaultDays()[:6]
	days = append(days, Day{ID: 99, Name: "Monday"}, Day{ID: 100, Name: "Caturday"})

	_, err := NewWeekdayResolver(days)
	if err == nil {
		t.Fatalf("expected error")
	}
	if ClassifyFailure(err) != FailureConfiguration {
		t.Fatalf("kind = %s, want configuration", ClassifyFailure(err))
	}
}

func TestClassifyFailure(t *testing.T) {
	tests := []struct {
		err  error
		want FailureKind
	}{
		{err: nil, want: FailureNone},
		{err: NewClientError("x"), want: FailureClient},
		{err: NewConfigurationError("x"), want: FailureConfiguration},
		{err: errFake("boom"), want: FailureSystem},
	}
	for _, tt := range tests {
		if got := ClassifyFailure(tt.err); got != tt.want {
			t.Fatalf("ClassifyFailure(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}

type errFake string

func (e errFake) Error() string { return string(e) }
