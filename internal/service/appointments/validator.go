package appointments

import (
	"context"
	"errors"
	"time"

	"vetclinic/backend/internal/domain"
	"vetclinic/backend/internal/store"
)

// Validator checks one appointment candidate against the clinic schedule.
// Checks run in a fixed order and the first failure is returned.
type Validator struct {
	schedule store.ScheduleProvider
	loc      *time.Location
}

func NewValidator(schedule store.ScheduleProvider, loc *time.Location) *Validator {
	if loc == nil {
		loc = time.UTC
	}
	return &Validator{schedule: schedule, loc: loc}
}

// ValidateForCreate returns the appointment to insert for cmd. The duplicate
// check reads through ledger so it can run inside the insert transaction.
func (v *Validator) ValidateForCreate(ctx context.Context, ledger store.BookingLedger, cmd CreateCommand) (domain.Appointment, error) {
	svc, err := v.schedule.GetService(ctx, cmd.ServiceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Appointment{}, domain.NewClientError("Invalid service appointment")
		}
		return domain.Appointment{}, err
	}
	if !svc.IsEnabled {
		return domain.Appointment{}, domain.NewClientError("Requested service is disabled")
	}

	reserved, err := ledger.AppointmentExistsAt(ctx, cmd.ServiceID, cmd.Date, false)
	if err != nil {
		return domain.Appointment{}, err
	}
	if reserved {
		return domain.Appointment{}, domain.NewClientError("Appointment date and time already reserved")
	}

	local := cmd.Date.In(v.loc)
	date := domain.CalendarDate(local, v.loc)
	at := domain.TimeOfDayOf(local)

	days, err := v.schedule.ListDays(ctx)
	if err != nil {
		return domain.Appointment{}, err
	}
	resolver, err := domain.NewWeekdayResolver(days)
	if err != nil {
		return domain.Appointment{}, err
	}

	wd, err := v.schedule.GetWorkingDay(ctx, cmd.ServiceID, resolver.Resolve(date))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Appointment{}, domain.NewClientError("Work day not found")
		}
		return domain.Appointment{}, err
	}
	if !wd.IsEnabled {
		return domain.Appointment{}, domain.NewClientError("Week day closed for requested service")
	}

	hours, err := wd.Hours()
	if err != nil {
		return domain.Appointment{}, err
	}
	duration := svc.SlotDuration()
	if duration <= 0 {
		return domain.Appointment{}, domain.NewConfigurationError("Service duration not implemented")
	}
	if err := checkHours(at, duration, hours); err != nil {
		return domain.Appointment{}, err
	}

	overrides, err := v.schedule.ListOverridesOnDate(ctx, cmd.ServiceID, date)
	if err != nil {
		return domain.Appointment{}, err
	}
	for _, o := range overrides {
		if !o.Scope.AppliesTo(cmd.ServiceID) {
			continue
		}
		if !o.IsWorkingDate {
			return domain.Appointment{}, domain.NewClientError("Date is a non working date")
		}
		oh, err := o.Hours()
		if err != nil {
			return domain.Appointment{}, err
		}
		if err := checkHours(at, duration, oh); err != nil {
			return domain.Appointment{}, err
		}
	}

	blackouts, err := v.schedule.ListBlackoutsOnDate(ctx, cmd.ServiceID, date)
	if err != nil {
		return domain.Appointment{}, err
	}
	for _, b := range blackouts {
		if !b.Scope.AppliesTo(cmd.ServiceID) {
			continue
		}
		if domain.Overlaps(at, duration, b.StartTime, b.EndTime) {
			return domain.Appointment{}, domain.NewClientError("Appointment is set during unavailable hours")
		}
	}

	return domain.Appointment{
		UserID:     cmd.UserID,
		PetID:      cmd.PetID,
		ServiceID:  cmd.ServiceID,
		Date:       cmd.Date.UTC(),
		IsCanceled: cmd.IsCanceled,
	}, nil
}

func checkHours(at domain.TimeOfDay, duration time.Duration, hours domain.DayHours) error {
	beforeOpen, afterClose, duringLunch := domain.FitsHours(at, duration, hours)
	switch {
	case beforeOpen:
		return domain.NewClientError("Appointment is set before available hours")
	case afterClose:
		return domain.NewClientError("Appointment is set after available hours")
	case duringLunch:
		return domain.NewClientError("Appointment is set during lunch hours")
	}
	return nil
}
