package domain

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const secondsPerDay = 24 * 60 * 60

// TimeOfDay is a wall-clock time within one calendar day, stored as seconds
// since midnight. Valid values are in [0, 24h).
type TimeOfDay int32

func NewTimeOfDay(hour, minute, second int) (TimeOfDay, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 || second < 0 || second > 59 {
		return 0, fmt.Errorf("invalid time of day %02d:%02d:%02d", hour, minute, second)
	}
	return TimeOfDay(hour*3600 + minute*60 + second), nil
}

// MustTimeOfDay parses "HH:MM" or "HH:MM:SS" and panics on error.
func MustTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}

	vals := [3]int{}
	for i, p := range parts {
		if i == 2 {
			// postgres may send fractional seconds
			if dot := strings.IndexByte(p, '.'); dot >= 0 {
				p = p[:dot]
			}
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, fmt.Errorf("invalid time of day %q", s)
		}
		vals[i] = n
	}
	return NewTimeOfDay(vals[0], vals[1], vals[2])
}

// TimeOfDayOf returns the wall-clock time of t in its own location.
func TimeOfDayOf(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*3600 + t.Minute()*60 + t.Second())
}

func (t TimeOfDay) Seconds() int { return int(t) }

// Add returns t+d. ok is false when the result would leave the day; the
// value never wraps around midnight.
func (t TimeOfDay) Add(d time.Duration) (TimeOfDay, bool) {
	v := int64(t) + int64(d/time.Second)
	if v < 0 || v >= secondsPerDay {
		return 0, false
	}
	return TimeOfDay(v), true
}

// Sub returns t-d with the same no-wrap rule as Add.
func (t TimeOfDay) Sub(d time.Duration) (TimeOfDay, bool) {
	return t.Add(-d)
}

func (t TimeOfDay) Before(u TimeOfDay) bool { return t < u }

func (t TimeOfDay) After(u TimeOfDay) bool { return t > u }

// On places t on the calendar date of day in loc.
func (t TimeOfDay) On(day time.Time, loc *time.Location) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc).Add(time.Duration(t) * time.Second)
}

func (t TimeOfDay) String() string {
	h := int(t) / 3600
	m := (int(t) % 3600) / 60
	s := int(t) % 60
	if s != 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", h, m)
}

func (t TimeOfDay) Value() (driver.Value, error) {
	h := int(t) / 3600
	m := (int(t) % 3600) / 60
	s := int(t) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s), nil
}

func (t *TimeOfDay) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		return errors.New("time of day is null")
	case string:
		parsed, err := ParseTimeOfDay(v)
		if err != nil {
			return err
		}
		*t = parsed
	case []byte:
		parsed, err := ParseTimeOfDay(string(v))
		if err != nil {
			return err
		}
		*t = parsed
	case time.Time:
		*t = TimeOfDayOf(v)
	case int64:
		// microseconds since midnight
		*t = TimeOfDay(v / int64(time.Second/time.Microsecond))
	default:
		return fmt.Errorf("cannot scan %T into TimeOfDay", src)
	}
	return nil
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(b []byte) error {
	parsed, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// CalendarDate truncates t to its calendar date in loc and returns that date
// as midnight UTC, the representation used for DATE columns.
func CalendarDate(t time.Time, loc *time.Location) time.Time {
	if loc != nil {
		t = t.In(loc)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateKey formats a calendar date for map lookups and wire output.
func DateKey(date time.Time) string {
	return date.Format(time.DateOnly)
}
