package reminder

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, r *Reminder) error
	GetByID(ctx context.Context, id uuid.UUID) (*Reminder, error)
	ListByUser(ctx context.Context, userID string, status Status, limit, offset int) ([]*Reminder, int, error)
	Update(ctx context.Context, r *Reminder) error
	Delete(ctx context.Context, id uuid.UUID) error
	// ReplaceActive drops the user's active reminders and stores rs in
	// their place as one unit.
	ReplaceActive(ctx context.Context, userID string, rs []*Reminder) error
}
