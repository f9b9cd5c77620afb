package store

import (
	"context"
	"time"

	"vetclinic/backend/internal/domain"
)

// ScheduleProvider is the read side of the clinic schedule. Date ranges are
// inclusive calendar dates expressed as midnight UTC. Override and blackout
// queries return rows scoped to serviceID as well as rows that apply to all
// services, ordered by date.
type ScheduleProvider interface {
	GetService(ctx context.Context, serviceID int64) (domain.Service, error)
	ListDays(ctx context.Context) ([]domain.Day, error)

	GetWorkingDay(ctx context.Context, serviceID int64, dayID int) (domain.WorkingDay, error)
	ListWorkingDays(ctx context.Context, serviceID int64) ([]domain.WorkingDay, error)

	ListOverridesInRange(ctx context.Context, serviceID int64, from, to time.Time) ([]domain.CalendarOverride, error)
	ListOverridesOnDate(ctx context.Context, serviceID int64, date time.Time) ([]domain.CalendarOverride, error)

	ListBlackoutsInRange(ctx context.Context, serviceID int64, from, to time.Time) ([]domain.Blackout, error)
	ListBlackoutsOnDate(ctx context.Context, serviceID int64, date time.Time) ([]domain.Blackout, error)
}
