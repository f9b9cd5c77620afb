package domain

import (
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// Day is a row of the weekday table. The seeded ids are Sunday=1 through
// Saturday=7.
type Day struct {
	bun.BaseModel `bun:"table:days"`

	ID   int    `bun:"day_id,pk"`
	Name string `bun:"name,notnull"`
}

var weekdayAliases = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tues": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "weds": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// CanonicalWeekdayName normalizes an abbreviated or differently cased weekday
// name to its full English name ("tue" -> "Tuesday").
func CanonicalWeekdayName(name string) (string, bool) {
	wd, ok := weekdayAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", false
	}
	return wd.String(), true
}

// DefaultDays is the seeded weekday table.
func DefaultDays() []Day {
	out := make([]Day, 0, 7)
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		out = append(out, Day{ID: int(wd) + 1, Name: wd.String()})
	}
	return out
}

// WeekdayResolver maps calendar dates to the weekday ids of the days table.
type WeekdayResolver struct {
	ids map[string]int
}

// NewWeekdayResolver indexes the weekday table. Row names are normalized
// first; a table that does not cover all seven weekdays is a
// ConfigurationError.
func NewWeekdayResolver(days []Day) (*WeekdayResolver, error) {
	ids := make(map[string]int, 7)
	for _, d := range days {
		name, ok := CanonicalWeekdayName(d.Name)
		if !ok {
			continue
		}
		if _, dup := ids[name]; dup {
			continue
		}
		ids[name] = d.ID
	}
	if len(ids) < 7 {
		return nil, NewConfigurationError("Weekday table is incomplete")
	}
	return &WeekdayResolver{ids: ids}, nil
}

// Resolve returns the weekday id for the calendar date of date.
func (r *WeekdayResolver) Resolve(date time.Time) int {
	return r.ids[date.Weekday().String()]
}

// Lookup returns the weekday id for a possibly abbreviated weekday name.
func (r *WeekdayResolver) Lookup(name string) (int, bool) {
	canonical, ok := CanonicalWeekdayName(name)
	if !ok {
		return 0, false
	}
	id, ok := r.ids[canonical]
	return id, ok
}
