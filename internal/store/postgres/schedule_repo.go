package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"vetclinic/backend/internal/domain"
	"vetclinic/backend/internal/store"
)

type ScheduleRepo struct {
	db bun.IDB
}

func NewScheduleRepo(db bun.IDB) *ScheduleRepo {
	return &ScheduleRepo{db: db}
}

var _ store.ScheduleProvider = (*ScheduleRepo)(nil)

func (r *ScheduleRepo) GetService(ctx context.Context, serviceID int64) (domain.Service, error) {
	var svc domain.Service
	err := r.db.NewSelect().
		Model(&svc).
		Where("service_id = ?", serviceID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Service{}, store.ErrNotFound
		}
		return domain.Service{}, fmt.Errorf("get service %d: %w", serviceID, err)
	}
	return svc, nil
}

func (r *ScheduleRepo) ListDays(ctx context.Context) ([]domain.Day, error) {
	var rows []domain.Day
	err := r.db.NewSelect().
		Model(&rows).
		OrderExpr("day_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list days: %w", err)
	}
	return rows, nil
}

func (r *ScheduleRepo) GetWorkingDay(ctx context.Context, serviceID int64, dayID int) (domain.WorkingDay, error) {
	var wd domain.WorkingDay
	err := r.db.NewSelect().
		Model(&wd).
		Where("service_id = ?", serviceID).
		Where("day_id = ?", dayID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.WorkingDay{}, store.ErrNotFound
		}
		return domain.WorkingDay{}, fmt.Errorf("get working day: %w", err)
	}
	return wd, nil
}

func (r *ScheduleRepo) ListWorkingDays(ctx context.Context, serviceID int64) ([]domain.WorkingDay, error) {
	var rows []domain.WorkingDay
	err := r.db.NewSelect().
		Model(&rows).
		Where("service_id = ?", serviceID).
		OrderExpr("day_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list working days: %w", err)
	}
	return rows, nil
}

func (r *ScheduleRepo) ListOverridesInRange(ctx context.Context, serviceID int64, from, to time.Time) ([]domain.CalendarOverride, error) {
	var rows []domain.CalendarOverride
	err := r.db.NewSelect().
		Model(&rows).
		Apply(scopedToService(serviceID)).
		Apply(onDates(from, to)).
		OrderExpr("date ASC, special_date_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list overrides: %w", err)
	}
	return rows, nil
}

func (r *ScheduleRepo) ListOverridesOnDate(ctx context.Context, serviceID int64, date time.Time) ([]domain.CalendarOverride, error) {
	return r.ListOverridesInRange(ctx, serviceID, date, date)
}

func (r *ScheduleRepo) ListBlackoutsInRange(ctx context.Context, serviceID int64, from, to time.Time) ([]domain.Blackout, error) {
	var rows []domain.Blackout
	err := r.db.NewSelect().
		Model(&rows).
		Apply(scopedToService(serviceID)).
		Apply(onDates(from, to)).
		OrderExpr("date ASC, unavailable_hour_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list blackouts: %w", err)
	}
	return rows, nil
}

func (r *ScheduleRepo) ListBlackoutsOnDate(ctx context.Context, serviceID int64, date time.Time) ([]domain.Blackout, error) {
	return r.ListBlackoutsInRange(ctx, serviceID, date, date)
}

// scopedToService matches rows for serviceID and rows with no service, which
// apply to every service.
func scopedToService(serviceID int64) func(*bun.SelectQuery) *bun.SelectQuery {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("service_id = ?", serviceID).WhereOr("service_id IS NULL")
		})
	}
}

// onDates bounds a DATE column inclusively. Dates are sent as text so the
// session time zone cannot shift them.
func onDates(from, to time.Time) func(*bun.SelectQuery) *bun.SelectQuery {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.
			Where("date >= ?::date", domain.DateKey(from)).
			Where("date <= ?::date", domain.DateKey(to))
	}
}
