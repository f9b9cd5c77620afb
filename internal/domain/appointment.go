package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Appointment struct {
	bun.BaseModel `bun:"table:appointments"`

	ID               uuid.UUID  `bun:"appointment_id,pk,type:uuid"`
	UserID           int64      `bun:"user_id,notnull"`
	PetID            int64      `bun:"pet_id,notnull"`
	ServiceID        int64      `bun:"service_id,notnull"`
	Date             time.Time  `bun:"date,notnull"`
	IsCanceled       bool       `bun:"is_canceled,notnull"`
	CancellationDate *time.Time `bun:"cancellation_date"`
	CreatedAt        time.Time  `bun:"creation_date,notnull"`
	UpdatedAt        time.Time  `bun:"latest_update_date,notnull"`
}

func (a *Appointment) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); ok && a.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		a.ID = id
	}
	stampTimes(&a.CreatedAt, &a.UpdatedAt, query)
	return nil
}
