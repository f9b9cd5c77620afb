package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"vetclinic/backend/internal/domain"
	"vetclinic/backend/internal/store"
)

const activeSlotConstraint = "appointments_active_slot_key"

type AppointmentRepo struct {
	db *bun.DB
}

func NewAppointmentRepo(db *bun.DB) *AppointmentRepo {
	return &AppointmentRepo{db: db}
}

var _ store.AppointmentRepository = (*AppointmentRepo)(nil)

type appointmentTx struct {
	tx bun.Tx
}

func (r *AppointmentRepo) InSlotTransaction(ctx context.Context, serviceID int64, at time.Time, fn func(ctx context.Context, tx store.AppointmentTx) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockSlot(ctx, tx, serviceID, at); err != nil {
			return err
		}
		return fn(ctx, appointmentTx{tx: tx})
	})
}

func lockSlot(ctx context.Context, tx bun.Tx, serviceID int64, at time.Time) error {
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", slotLockKey(serviceID, at)).Exec(ctx)
	return err
}

func slotLockKey(serviceID int64, at time.Time) string {
	return fmt.Sprintf("appointment-slot:%d:%d", serviceID, at.Unix())
}

func (r *AppointmentRepo) ListAppointmentsInRange(ctx context.Context, serviceID int64, from, to time.Time, includeCanceled bool) ([]domain.Appointment, error) {
	return listAppointmentsInRange(ctx, r.db, serviceID, from, to, includeCanceled)
}

func (r *AppointmentRepo) AppointmentExistsAt(ctx context.Context, serviceID int64, at time.Time, includeCanceled bool) (bool, error) {
	return appointmentExistsAt(ctx, r.db, serviceID, at, includeCanceled)
}

func (r *AppointmentRepo) GetAppointment(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
	var appt domain.Appointment
	err := r.db.NewSelect().
		Model(&appt).
		Where("appointment_id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Appointment{}, store.ErrNotFound
		}
		return domain.Appointment{}, fmt.Errorf("get appointment: %w", err)
	}
	return appt, nil
}

// UpdateAppointment persists the mutable fields of appt: pet, cancellation
// state and the update timestamp.
func (r *AppointmentRepo) UpdateAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	m := appt
	res, err := r.db.NewUpdate().
		Model(&m).
		Column("pet_id", "is_canceled", "cancellation_date", "latest_update_date").
		WherePK().
		Returning("*").
		Exec(ctx)
	if err != nil {
		return domain.Appointment{}, fmt.Errorf("update appointment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Appointment{}, err
	}
	if affected == 0 {
		return domain.Appointment{}, store.ErrNotFound
	}
	return m, nil
}

func (r *AppointmentRepo) ListAppointmentsForUser(ctx context.Context, userID int64, from, to time.Time) ([]domain.Appointment, error) {
	var rows []domain.Appointment
	err := r.db.NewSelect().
		Model(&rows).
		Where("user_id = ?", userID).
		Where("date >= ?", from).
		Where("date < ?", to).
		OrderExpr("date ASC, appointment_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list user appointments: %w", err)
	}
	return rows, nil
}

func (t appointmentTx) ListAppointmentsInRange(ctx context.Context, serviceID int64, from, to time.Time, includeCanceled bool) ([]domain.Appointment, error) {
	return listAppointmentsInRange(ctx, t.tx, serviceID, from, to, includeCanceled)
}

func (t appointmentTx) AppointmentExistsAt(ctx context.Context, serviceID int64, at time.Time, includeCanceled bool) (bool, error) {
	return appointmentExistsAt(ctx, t.tx, serviceID, at, includeCanceled)
}

func (t appointmentTx) CreateAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	m := domain.Appointment{
		ID:         appt.ID,
		UserID:     appt.UserID,
		PetID:      appt.PetID,
		ServiceID:  appt.ServiceID,
		Date:       appt.Date,
		IsCanceled: appt.IsCanceled,
		CreatedAt:  appt.CreatedAt,
		UpdatedAt:  appt.UpdatedAt,
	}

	_, err := t.tx.NewInsert().Model(&m).Returning("*").Exec(ctx)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == activeSlotConstraint {
			return domain.Appointment{}, store.ErrConflict
		}
		return domain.Appointment{}, fmt.Errorf("create appointment: %w", err)
	}
	return m, nil
}

func listAppointmentsInRange(ctx context.Context, db bun.IDB, serviceID int64, from, to time.Time, includeCanceled bool) ([]domain.Appointment, error) {
	var rows []domain.Appointment
	q := db.NewSelect().
		Model(&rows).
		Where("service_id = ?", serviceID).
		Where("date >= ?", from).
		Where("date < ?", to)
	if !includeCanceled {
		q = q.Where("NOT is_canceled")
	}
	if err := q.OrderExpr("date ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return rows, nil
}

func appointmentExistsAt(ctx context.Context, db bun.IDB, serviceID int64, at time.Time, includeCanceled bool) (bool, error) {
	q := db.NewSelect().
		Model((*domain.Appointment)(nil)).
		Where("service_id = ?", serviceID).
		Where("date = ?", at)
	if !includeCanceled {
		q = q.Where("NOT is_canceled")
	}
	exists, err := q.Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("check appointment slot: %w", err)
	}
	return exists, nil
}
