package appointments

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"vetclinic/backend/internal/domain"
	"vetclinic/backend/internal/store"
)

type fakeSchedule struct {
	services  map[int64]domain.Service
	days      []domain.Day
	working   []domain.WorkingDay
	overrides []domain.CalendarOverride
	blackouts []domain.Blackout
}

func (f *fakeSchedule) GetService(ctx context.Context, serviceID int64) (domain.Service, error) {
	svc, ok := f.services[serviceID]
	if !ok {
		return domain.Service{}, store.ErrNotFound
	}
	return svc, nil
}

func (f *fakeSchedule) ListDays(ctx context.Context) ([]domain.Day, error) {
	if f.days == nil {
		return domain.DefaultDays(), nil
	}
	return f.days, nil
}

func (f *fakeSchedule) GetWorkingDay(ctx context.Context, serviceID int64, dayID int) (domain.WorkingDay, error) {
	for _, wd := range f.working {
		if wd.ServiceID == serviceID && wd.DayID == dayID {
			return wd, nil
		}
	}
	return domain.WorkingDay{}, store.ErrNotFound
}

func (f *fakeSchedule) ListWorkingDays(ctx context.Context, serviceID int64) ([]domain.WorkingDay, error) {
	panic("ListWorkingDays not used by the validator")
}

func (f *fakeSchedule) ListOverridesInRange(ctx context.Context, serviceID int64, from, to time.Time) ([]domain.CalendarOverride, error) {
	panic("ListOverridesInRange not used by the validator")
}

func (f *fakeSchedule) ListOverridesOnDate(ctx context.Context, serviceID int64, date time.Time) ([]domain.CalendarOverride, error) {
	var out []domain.CalendarOverride
	for _, o := range f.overrides {
		if o.Scope.AppliesTo(serviceID) && o.Date.Equal(date) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeSchedule) ListBlackoutsInRange(ctx context.Context, serviceID int64, from, to time.Time) ([]domain.Blackout, error) {
	panic("ListBlackoutsInRange not used by the validator")
}

func (f *fakeSchedule) ListBlackoutsOnDate(ctx context.Context, serviceID int64, date time.Time) ([]domain.Blackout, error) {
	var out []domain.Blackout
	for _, b := range f.blackouts {
		if b.Scope.AppliesTo(serviceID) && b.Date.Equal(date) {
			out = append(out, b)
		}
	}
	return out, nil
}

// memRepo is an in-memory AppointmentRepository. InSlotTransaction
// serializes callers on one mutex, standing in for the advisory lock.
type memRepo struct {
	slotMu sync.Mutex

	mu    sync.Mutex
	rows  map[uuid.UUID]domain.Appointment
	fail  error
	onTxn func()
}

func newMemRepo() *memRepo {
	return &memRepo{rows: make(map[uuid.UUID]domain.Appointment)}
}

type memTx struct {
	repo *memRepo
}

func (r *memRepo) InSlotTransaction(ctx context.Context, serviceID int64, at time.Time, fn func(ctx context.Context, tx store.AppointmentTx) error) error {
	r.slotMu.Lock()
	defer r.slotMu.Unlock()
	if r.onTxn != nil {
		r.onTxn()
	}
	return fn(ctx, memTx{repo: r})
}

func (r *memRepo) ListAppointmentsInRange(ctx context.Context, serviceID int64, from, to time.Time, includeCanceled bool) ([]domain.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Appointment
	for _, a := range r.rows {
		if a.ServiceID == serviceID && !a.Date.Before(from) && a.Date.Before(to) && (includeCanceled || !a.IsCanceled) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *memRepo) AppointmentExistsAt(ctx context.Context, serviceID int64, at time.Time, includeCanceled bool) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return false, r.fail
	}
	for _, a := range r.rows {
		if a.ServiceID == serviceID && a.Date.Equal(at) && (includeCanceled || !a.IsCanceled) {
			return true, nil
		}
	}
	return false, nil
}

func (r *memRepo) GetAppointment(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.rows[id]
	if !ok {
		return domain.Appointment{}, store.ErrNotFound
	}
	return a, nil
}

func (r *memRepo) UpdateAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[appt.ID]; !ok {
		return domain.Appointment{}, store.ErrNotFound
	}
	appt.UpdatedAt = time.Now().UTC()
	r.rows[appt.ID] = appt
	return appt, nil
}

func (r *memRepo) ListAppointmentsForUser(ctx context.Context, userID int64, from, to time.Time) ([]domain.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Appointment
	for _, a := range r.rows {
		if a.UserID == userID && !a.Date.Before(from) && a.Date.Before(to) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (t memTx) ListAppointmentsInRange(ctx context.Context, serviceID int64, from, to time.Time, includeCanceled bool) ([]domain.Appointment, error) {
	return t.repo.ListAppointmentsInRange(ctx, serviceID, from, to, includeCanceled)
}

func (t memTx) AppointmentExistsAt(ctx context.Context, serviceID int64, at time.Time, includeCanceled bool) (bool, error) {
	return t.repo.AppointmentExistsAt(ctx, serviceID, at, includeCanceled)
}

// CreateAppointment enforces the active-slot uniqueness the database index
// provides.
func (t memTx) CreateAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	for _, a := range t.repo.rows {
		if !appt.IsCanceled && !a.IsCanceled && a.ServiceID == appt.ServiceID && a.Date.Equal(appt.Date) {
			return domain.Appointment{}, store.ErrConflict
		}
	}
	id, err := uuid.NewV7()
	if err != nil {
		return domain.Appointment{}, err
	}
	now := time.Now().UTC()
	appt.ID = id
	appt.CreatedAt = now
	appt.UpdatedAt = now
	t.repo.rows[id] = appt
	return appt, nil
}

const (
	consultID  = int64(1)
	disabledID = int64(2)
	brokenID   = int64(3)
)

func tod(s string) *domain.TimeOfDay {
	t := domain.MustTimeOfDay(s)
	return &t
}

// clinicSchedule: consult is 30 minutes, Monday to Friday 08:00-17:00 with
// lunch 12:00-13:00. brokenID works Mondays without lunch times.
func clinicSchedule() *fakeSchedule {
	thirty := 30
	f := &fakeSchedule{
		services: map[int64]domain.Service{
			consultID:  {ID: consultID, Name: "Consult", DurationMinutes: &thirty, IsEnabled: true},
			disabledID: {ID: disabledID, Name: "Surgery", IsEnabled: false},
			brokenID:   {ID: brokenID, Name: "Bath", IsEnabled: true},
		},
	}
	for day := 2; day <= 6; day++ {
		f.working = append(f.working, domain.WorkingDay{
			ServiceID:     consultID,
			DayID:         day,
			IsEnabled:     true,
			OpenTime:      tod("08:00"),
			CloseTime:     tod("17:00"),
			LunchFromTime: tod("12:00"),
			LunchToTime:   tod("13:00"),
		})
	}
	f.working = append(f.working,
		domain.WorkingDay{ServiceID: consultID, DayID: 7, IsEnabled: false},
		domain.WorkingDay{ServiceID: brokenID, DayID: 2, IsEnabled: true, OpenTime: tod("08:00"), CloseTime: tod("17:00")},
	)
	return f
}

// monday returns 2026-10-19 at hh:mm UTC.
func monday(hhmm string) time.Time {
	t := domain.MustTimeOfDay(hhmm)
	return time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC).Add(time.Duration(t.Seconds()) * time.Second)
}

func ptr[T any](v T) *T {
	return &v
}
