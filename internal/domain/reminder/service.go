package reminder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vaxtrack/vaxtrack/internal/domain/schedule"
	"github.com/vaxtrack/vaxtrack/internal/domain/vaccine"
)

// ErrInvalid marks a request the service rejected before touching storage.
var ErrInvalid = errors.New("invalid reminder")

type Service struct {
	repo    Repository
	catalog *vaccine.Catalog
	engine  *schedule.Engine
	logger  zerolog.Logger
}

func NewService(repo Repository, catalog *vaccine.Catalog, engine *schedule.Engine, logger zerolog.Logger) *Service {
	return &Service{repo: repo, catalog: catalog, engine: engine, logger: logger}
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

func (s *Service) Create(ctx context.Context, userID string, r *Reminder) error {
	if strings.TrimSpace(userID) == "" {
		return invalid("user is required")
	}
	rec, ok := s.catalog.Get(r.VaccineID)
	if !ok {
		return invalid("unknown vaccine_id %q", r.VaccineID)
	}
	if r.DoseNumber <= 0 {
		r.DoseNumber = 1
	}
	if r.Status == "" {
		r.Status = StatusActive
	}
	if !validStatuses[r.Status] {
		return invalid("invalid status: %s", r.Status)
	}
	if r.UrgencyLevel == "" {
		r.UrgencyLevel = string(schedule.UrgencyNeedsReview)
	}
	r.UserID = userID
	r.Name = rec.Name
	return s.repo.Create(ctx, r)
}

// Get returns the reminder only if it belongs to userID. Reminders owned by
// someone else are reported as not found.
func (s *Service) Get(ctx context.Context, userID string, id uuid.UUID) (*Reminder, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.UserID != userID {
		return nil, ErrNotFound
	}
	return r, nil
}

func (s *Service) List(ctx context.Context, userID string, status Status, limit, offset int) ([]*Reminder, int, error) {
	if status != "" && !validStatuses[status] {
		return nil, 0, invalid("invalid status: %s", status)
	}
	return s.repo.ListByUser(ctx, userID, status, limit, offset)
}

// Update applies the mutable fields of patch (status, note, due date) to
// the user's reminder.
func (s *Service) Update(ctx context.Context, userID string, id uuid.UUID, patch *Reminder) (*Reminder, error) {
	cur, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if patch.Status != "" {
		if !validStatuses[patch.Status] {
			return nil, invalid("invalid status: %s", patch.Status)
		}
		cur.Status = patch.Status
	}
	if patch.Note != nil {
		cur.Note = patch.Note
	}
	if patch.DueDate != nil {
		cur.DueDate = patch.DueDate
	}
	if err := s.repo.Update(ctx, cur); err != nil {
		return nil, err
	}
	return cur, nil
}

func (s *Service) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// SaveSchedule replaces the user's active reminders with a freshly computed
// schedule. Completed and dismissed reminders are kept.
func (s *Service) SaveSchedule(ctx context.Context, userID string, computed []schedule.Reminder) ([]*Reminder, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, invalid("user is required")
	}
	saved := make([]*Reminder, 0, len(computed))
	for _, c := range computed {
		r := &Reminder{
			UserID:       userID,
			VaccineID:    c.VaccineID,
			Name:         c.Name,
			DoseNumber:   c.DoseNumber,
			UrgencyLevel: string(c.UrgencyLevel),
			ReminderText: c.UIReminderText,
			Status:       StatusActive,
		}
		if c.DueDate != nil {
			d := *c.DueDate
			r.DueDate = &d
		}
		saved = append(saved, r)
	}
	if err := s.repo.ReplaceActive(ctx, userID, saved); err != nil {
		return nil, fmt.Errorf("save schedule: %w", err)
	}
	s.logger.Info().Str("user_id", userID).Int("reminders", len(saved)).Msg("schedule saved")
	return saved, nil
}

// GenerateAndSave computes the schedule for the profile and persists it.
func (s *Service) GenerateAndSave(ctx context.Context, userID string, in schedule.ProfileInput) ([]*Reminder, error) {
	computed, err := s.engine.GenerateFromInput(in)
	if err != nil {
		return nil, err
	}
	return s.SaveSchedule(ctx, userID, computed)
}
