package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"vetclinic/backend/internal/domain"
)

// BookingLedger answers questions about existing appointments of a service.
// Range bounds are instants; from is inclusive and to exclusive.
type BookingLedger interface {
	ListAppointmentsInRange(ctx context.Context, serviceID int64, from, to time.Time, includeCanceled bool) ([]domain.Appointment, error)
	AppointmentExistsAt(ctx context.Context, serviceID int64, at time.Time, includeCanceled bool) (bool, error)
}

// AppointmentTx is the view of the ledger inside a slot transaction. Reads
// observe the same snapshot the insert commits against.
type AppointmentTx interface {
	BookingLedger
	CreateAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error)
}

type AppointmentRepository interface {
	BookingLedger

	// InSlotTransaction runs fn while holding the lock for the
	// (serviceID, at) slot. Two callers for the same slot are serialized.
	InSlotTransaction(ctx context.Context, serviceID int64, at time.Time, fn func(ctx context.Context, tx AppointmentTx) error) error

	GetAppointment(ctx context.Context, id uuid.UUID) (domain.Appointment, error)
	UpdateAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error)
	ListAppointmentsForUser(ctx context.Context, userID int64, from, to time.Time) ([]domain.Appointment, error)
}
