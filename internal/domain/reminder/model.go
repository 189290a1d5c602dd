package reminder

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/vaxtrack/vaxtrack/internal/domain/schedule"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusDismissed Status = "dismissed"
)

var validStatuses = map[Status]bool{
	StatusActive: true, StatusCompleted: true, StatusDismissed: true,
}

var (
	ErrNotFound = errors.New("reminder not found")
	// ErrDuplicateActive means the user already has an active reminder for
	// the same vaccine dose.
	ErrDuplicateActive = errors.New("an active reminder for this dose already exists")
)

// Reminder is a computed schedule reminder saved for a user so it can be
// tracked after the schedule changes.
type Reminder struct {
	ID           uuid.UUID      `json:"id"`
	UserID       string         `json:"user_id"`
	VaccineID    string         `json:"vaccine_id"`
	Name         string         `json:"name"`
	DoseNumber   int            `json:"dose_number"`
	DueDate      *schedule.Date `json:"due_date,omitempty"`
	UrgencyLevel string         `json:"urgency_level"`
	ReminderText string         `json:"reminder_text"`
	Status       Status         `json:"status"`
	Note         *string        `json:"note,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}
