package appointments

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"vetclinic/backend/internal/domain"
	"vetclinic/backend/internal/metrics"
	"vetclinic/backend/internal/store"
)

type Service struct {
	repo      store.AppointmentRepository
	validator *Validator
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo store.AppointmentRepository, validator *Validator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		validator: validator,
		logger:    logger.With(slog.String("component", "appointments")),
		now:       time.Now,
	}
}

// Create validates req and inserts it while holding the slot lock, so two
// concurrent requests for the same service and instant cannot both pass the
// duplicate check.
func (s *Service) Create(ctx context.Context, req CreateRequest) (domain.Appointment, error) {
	cmd, err := ParseCreate(req)
	if err != nil {
		metrics.IncAppointmentCreated(domain.FailureClient.String())
		return domain.Appointment{}, err
	}

	var out domain.Appointment
	err = s.repo.InSlotTransaction(ctx, cmd.ServiceID, cmd.Date, func(ctx context.Context, tx store.AppointmentTx) error {
		appt, err := s.validator.ValidateForCreate(ctx, tx, cmd)
		if err != nil {
			return err
		}
		created, err := tx.CreateAppointment(ctx, appt)
		if err != nil {
			if errors.Is(err, store.ErrConflict) {
				return domain.NewClientError("Appointment date and time already reserved")
			}
			return err
		}
		out = created
		return nil
	})
	if err != nil {
		metrics.IncAppointmentCreated(domain.ClassifyFailure(err).String())
		return domain.Appointment{}, err
	}

	metrics.IncAppointmentCreated("created")
	s.logger.InfoContext(ctx, "appointment created",
		slog.String("appointment_id", out.ID.String()),
		slog.Int64("service_id", out.ServiceID),
		slog.Int64("user_id", out.UserID),
	)
	return out, nil
}

// Update cancels an appointment or reassigns its pet. callerID scopes the
// lookup to the owner; zero means the caller is not known.
func (s *Service) Update(ctx context.Context, callerID int64, req UpdateRequest) (domain.Appointment, error) {
	cmd, err := ParseUpdate(req)
	if err != nil {
		return domain.Appointment{}, err
	}
	change, err := ValidateForUpdate(cmd)
	if err != nil {
		return domain.Appointment{}, err
	}

	appt, err := s.lookup(ctx, callerID, cmd.ID)
	if err != nil {
		return domain.Appointment{}, err
	}
	if appt.IsCanceled {
		return domain.Appointment{}, domain.NewClientError("Appointment is already canceled")
	}

	kind := "pet"
	if change.Cancel {
		kind = "cancel"
		now := s.now().UTC()
		appt.IsCanceled = true
		appt.CancellationDate = &now
	} else {
		appt.PetID = change.PetID
	}

	updated, err := s.repo.UpdateAppointment(ctx, appt)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Appointment{}, domain.NewClientError("Appointment not found")
		}
		return domain.Appointment{}, err
	}

	metrics.IncAppointmentUpdated(kind)
	s.logger.InfoContext(ctx, "appointment updated",
		slog.String("appointment_id", updated.ID.String()),
		slog.String("change", kind),
	)
	return updated, nil
}

func (s *Service) Get(ctx context.Context, callerID int64, appointmentID string) (domain.Appointment, error) {
	id, err := uuid.Parse(appointmentID)
	if err != nil || id == uuid.Nil {
		return domain.Appointment{}, domain.NewClientError("Invalid appointment id")
	}
	return s.lookup(ctx, callerID, id)
}

func (s *Service) ListForUser(ctx context.Context, userID int64, windowStart, windowEnd time.Time) ([]domain.Appointment, error) {
	if userID == 0 {
		return nil, domain.NewClientError("User id cannot be empty")
	}

	start := windowStart.UTC()
	end := windowEnd.UTC()
	if !end.After(start) {
		return nil, domain.NewClientError("Window end must be after window start")
	}

	return s.repo.ListAppointmentsForUser(ctx, userID, start, end)
}

// lookup hides appointments of other users behind the same message as a
// missing one.
func (s *Service) lookup(ctx context.Context, callerID int64, id uuid.UUID) (domain.Appointment, error) {
	appt, err := s.repo.GetAppointment(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Appointment{}, domain.NewClientError("Appointment not found")
		}
		return domain.Appointment{}, err
	}
	if callerID != 0 && appt.UserID != callerID {
		return domain.Appointment{}, domain.NewClientError("Appointment not found")
	}
	return appt, nil
}
