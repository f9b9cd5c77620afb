package appointments

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"vetclinic/backend/internal/domain"
)

const updateShapeMessage = "Appointment can only be canceled or have its pet reassigned"

// CreateRequest is an appointment candidate as received. Absent fields are
// nil.
type CreateRequest struct {
	UserID     *int64
	PetID      *int64
	ServiceID  *int64
	Date       *time.Time
	IsCanceled *bool
}

// CreateCommand is a parsed CreateRequest with every required field present.
type CreateCommand struct {
	UserID     int64
	PetID      int64
	ServiceID  int64
	Date       time.Time
	IsCanceled bool
}

// ParseCreate checks presence of the fields an insert needs. It does not
// consult the schedule. The date is truncated to whole seconds, the
// resolution of schedule times, so the duplicate check compares slots
// rather than instants.
func ParseCreate(req CreateRequest) (CreateCommand, error) {
	var cmd CreateCommand

	switch {
	case req.UserID == nil:
		return cmd, domain.NewClientError("User id cannot be empty")
	case *req.UserID == 0:
		return cmd, domain.NewClientError("User id cannot be zero")
	case req.PetID == nil:
		return cmd, domain.NewClientError("Pet id cannot be empty")
	case *req.PetID == 0:
		return cmd, domain.NewClientError("Pet id cannot be zero")
	case req.Date == nil || req.Date.IsZero():
		return cmd, domain.NewClientError("Date cannot be empty")
	case req.ServiceID == nil:
		return cmd, domain.NewClientError("Service id cannot be empty")
	case *req.ServiceID == 0:
		return cmd, domain.NewClientError("Service id cannot be zero")
	}

	cmd = CreateCommand{
		UserID:    *req.UserID,
		PetID:     *req.PetID,
		ServiceID: *req.ServiceID,
		Date:      req.Date.Truncate(time.Second),
	}
	if req.IsCanceled != nil {
		cmd.IsCanceled = *req.IsCanceled
	}
	return cmd, nil
}

// UpdateRequest carries the fields a caller tried to change. Only the
// appointment id is required to parse.
type UpdateRequest struct {
	AppointmentID string
	PetID         *int64
	IsCanceled    *bool
	Date          *time.Time
	ServiceID     *int64
}

type UpdateCommand struct {
	ID         uuid.UUID
	PetID      *int64
	IsCanceled *bool
	Date       *time.Time
	ServiceID  *int64
}

func ParseUpdate(req UpdateRequest) (UpdateCommand, error) {
	raw := strings.TrimSpace(req.AppointmentID)
	if raw == "" {
		return UpdateCommand{}, domain.NewClientError("Appointment id cannot be empty")
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return UpdateCommand{}, domain.NewClientError("Invalid appointment id")
	}
	return UpdateCommand{
		ID:         id,
		PetID:      req.PetID,
		IsCanceled: req.IsCanceled,
		Date:       req.Date,
		ServiceID:  req.ServiceID,
	}, nil
}

// UpdateChange is the single mutation an update may perform.
type UpdateChange struct {
	Cancel bool
	PetID  int64
}

// ValidateForUpdate accepts exactly one of two shapes: a cancellation
// (is_canceled = true) or a pet reassignment to a non-zero pet. Any other
// combination is rejected.
func ValidateForUpdate(cmd UpdateCommand) (UpdateChange, error) {
	if cmd.Date != nil || cmd.ServiceID != nil {
		return UpdateChange{}, domain.NewClientError(updateShapeMessage)
	}

	switch {
	case cmd.IsCanceled != nil && cmd.PetID == nil:
		if !*cmd.IsCanceled {
			return UpdateChange{}, domain.NewClientError(updateShapeMessage)
		}
		return UpdateChange{Cancel: true}, nil
	case cmd.PetID != nil && cmd.IsCanceled == nil:
		if *cmd.PetID == 0 {
			return UpdateChange{}, domain.NewClientError(updateShapeMessage)
		}
		return UpdateChange{PetID: *cmd.PetID}, nil
	default:
		return UpdateChange{}, domain.NewClientError(updateShapeMessage)
	}
}
