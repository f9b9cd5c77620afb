package domain

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// DefaultServiceDuration applies when a service has no duration configured.
const DefaultServiceDuration = 15 * time.Minute

type Service struct {
	bun.BaseModel `bun:"table:services"`

	ID              int64     `bun:"service_id,pk,autoincrement"`
	Name            string    `bun:"name"`
	DurationMinutes *int      `bun:"duration"`
	IsEnabled       bool      `bun:"is_enabled,notnull"`
	CreatedAt       time.Time `bun:"creation_date,notnull"`
	UpdatedAt       time.Time `bun:"latest_update_date,notnull"`
}

// SlotDuration is the booking length and the spacing of the slot grid.
func (s Service) SlotDuration() time.Duration {
	if s.DurationMinutes == nil {
		return DefaultServiceDuration
	}
	return time.Duration(*s.DurationMinutes) * time.Minute
}

// WorkingDay is the recurring weekly schedule of one service on one weekday.
// Times are nullable in storage; callers that need them report a
// ConfigurationError when absent.
type WorkingDay struct {
	bun.BaseModel `bun:"table:work_days"`

	ID            int64      `bun:"work_day_id,pk,autoincrement"`
	ServiceID     int64      `bun:"service_id,notnull"`
	DayID         int        `bun:"day_id,notnull"`
	IsEnabled     bool       `bun:"is_enabled,notnull"`
	OpenTime      *TimeOfDay `bun:"open_time"`
	CloseTime     *TimeOfDay `bun:"close_time"`
	LunchFromTime *TimeOfDay `bun:"lunch_from_time"`
	LunchToTime   *TimeOfDay `bun:"lunch_to_time"`
	CreatedAt     time.Time  `bun:"creation_date,notnull"`
	UpdatedAt     time.Time  `bun:"latest_update_date,notnull"`
}

// Hours returns the complete schedule or the ConfigurationError naming the
// first missing field.
func (w WorkingDay) Hours() (DayHours, error) {
	return completeHours(w.OpenTime, w.CloseTime, w.LunchFromTime, w.LunchToTime)
}

// CalendarOverride ("special date") replaces the weekly schedule on one date.
type CalendarOverride struct {
	bun.BaseModel `bun:"table:special_dates"`

	ID            int64        `bun:"special_date_id,pk,autoincrement"`
	Scope         ServiceScope `bun:"service_id"`
	Date          time.Time    `bun:"date,notnull,type:date"`
	IsWorkingDate bool         `bun:"is_working_date,notnull"`
	OpenTime      *TimeOfDay   `bun:"open_time"`
	CloseTime     *TimeOfDay   `bun:"close_time"`
	LunchFromTime *TimeOfDay   `bun:"lunch_from_time"`
	LunchToTime   *TimeOfDay   `bun:"lunch_to_time"`
	Reason        string       `bun:"reason"`
	CreatedAt     time.Time    `bun:"creation_date,notnull"`
	UpdatedAt     time.Time    `bun:"latest_update_date,notnull"`
}

func (o CalendarOverride) Hours() (DayHours, error) {
	return completeHours(o.OpenTime, o.CloseTime, o.LunchFromTime, o.LunchToTime)
}

// Merge overlays the times set on the override onto current. changed reports
// whether any effective value differs afterwards.
func (o CalendarOverride) Merge(current DayHours) (merged DayHours, changed bool) {
	merged = current
	if o.OpenTime != nil {
		merged.Open = *o.OpenTime
	}
	if o.CloseTime != nil {
		merged.Close = *o.CloseTime
	}
	if o.LunchFromTime != nil {
		merged.LunchFrom = *o.LunchFromTime
	}
	if o.LunchToTime != nil {
		merged.LunchTo = *o.LunchToTime
	}
	return merged, merged != current
}

// Blackout ("unavailable hours") blocks [StartTime, EndTime) on one date.
type Blackout struct {
	bun.BaseModel `bun:"table:unavailable_hours"`

	ID        int64        `bun:"unavailable_hour_id,pk,autoincrement"`
	Scope     ServiceScope `bun:"service_id"`
	Date      time.Time    `bun:"date,notnull,type:date"`
	StartTime TimeOfDay    `bun:"start_time,notnull"`
	EndTime   TimeOfDay    `bun:"end_time,notnull"`
	Reason    string       `bun:"reason"`
	CreatedAt time.Time    `bun:"creation_date,notnull"`
	UpdatedAt time.Time    `bun:"latest_update_date,notnull"`
}

func completeHours(open, closeAt, lunchFrom, lunchTo *TimeOfDay) (DayHours, error) {
	switch {
	case open == nil:
		return DayHours{}, NewConfigurationError("Open time not implemented")
	case closeAt == nil:
		return DayHours{}, NewConfigurationError("Close time not implemented")
	case lunchFrom == nil:
		return DayHours{}, NewConfigurationError("Lunch From time not implemented")
	case lunchTo == nil:
		return DayHours{}, NewConfigurationError("Lunch To time not implemented")
	}
	return DayHours{Open: *open, Close: *closeAt, LunchFrom: *lunchFrom, LunchTo: *lunchTo}, nil
}

func stampTimes(created, updated *time.Time, query bun.Query) {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if created.IsZero() {
			*created = now
		}
		if updated.IsZero() {
			*updated = now
		}
	case *bun.UpdateQuery:
		*updated = now
	}
}

func (s *Service) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	stampTimes(&s.CreatedAt, &s.UpdatedAt, query)
	return nil
}

func (w *WorkingDay) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	stampTimes(&w.CreatedAt, &w.UpdatedAt, query)
	return nil
}

func (o *CalendarOverride) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	stampTimes(&o.CreatedAt, &o.UpdatedAt, query)
	return nil
}

func (b *Blackout) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	stampTimes(&b.CreatedAt, &b.UpdatedAt, query)
	return nil
}
