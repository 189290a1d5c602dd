package reminder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
)

var reminderColumns = []string{
	"id", "user_id", "vaccine_id", "name", "dose_number", "due_date",
	"urgency_level", "reminder_text", "status", "note", "created_at", "updated_at",
}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func anyArgs(n int) []interface{} {
	args := make([]interface{}, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func TestRepoPG_Create(t *testing.T) {
	mock := newMock(t)
	created := time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery("INSERT INTO saved_reminder").
		WithArgs(anyArgs(10)...).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(created, created))

	r := &Reminder{UserID: "u", VaccineID: "bcg", Name: "BCG", DoseNumber: 1, Status: StatusActive}
	if err := NewRepoPG(mock).Create(context.Background(), r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.ID == uuid.Nil || !r.CreatedAt.Equal(created) {
		t.Errorf("expected id and timestamps, got %+v", r)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestRepoPG_CreateDuplicateActive(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("INSERT INTO saved_reminder").
		WithArgs(anyArgs(10)...).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_saved_reminder_active_dose"})

	r := &Reminder{UserID: "u", VaccineID: "bcg", Name: "BCG", DoseNumber: 1, Status: StatusActive}
	err := NewRepoPG(mock).Create(context.Background(), r)
	if !errors.Is(err, ErrDuplicateActive) {
		t.Fatalf("expected ErrDuplicateActive, got %v", err)
	}
}

func TestRepoPG_UpdateDuplicateActive(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec("UPDATE saved_reminder").
		WithArgs(anyArgs(4)...).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := NewRepoPG(mock).Update(context.Background(), &Reminder{ID: uuid.New(), Status: StatusActive})
	if !errors.Is(err, ErrDuplicateActive) {
		t.Fatalf("expected ErrDuplicateActive, got %v", err)
	}
}

func TestRepoPG_CreateOtherErrorWrapped(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("INSERT INTO saved_reminder").
		WithArgs(anyArgs(10)...).
		WillReturnError(&pgconn.PgError{Code: "23503"})

	err := NewRepoPG(mock).Create(context.Background(), &Reminder{UserID: "u", Status: StatusActive})
	if err == nil || errors.Is(err, ErrDuplicateActive) {
		t.Fatalf("expected a wrapped store error, got %v", err)
	}
}

func TestRepoPG_GetByID(t *testing.T) {
	mock := newMock(t)
	id := uuid.New()
	due := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM saved_reminder WHERE id").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(reminderColumns).
			AddRow(id, "u", "mr", "MMR", 1, &due, "medium", "MMR is due soon.", StatusActive, (*string)(nil), now, now))

	r, err := NewRepoPG(mock).GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.ID != id || r.VaccineID != "mr" || r.DueDate == nil || !r.DueDate.Equal(due) {
		t.Errorf("unexpected reminder %+v", r)
	}
	if r.DueDate.String() != "2024-07-01" {
		t.Errorf("expected due 2024-07-01, got %s", r.DueDate)
	}
}

func TestRepoPG_GetByID_NotFound(t *testing.T) {
	mock := newMock(t)
	id := uuid.New()
	mock.ExpectQuery("SELECT (.+) FROM saved_reminder WHERE id").
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	_, err := NewRepoPG(mock).GetByID(context.Background(), id)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRepoPG_ListByUser(t *testing.T) {
	mock := newMock(t)
	now := time.Now()
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("u", StatusActive).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery("SELECT (.+) FROM saved_reminder WHERE user_id = \\$1 AND status = \\$2 ORDER BY").
		WithArgs("u", StatusActive, 10, 0).
		WillReturnRows(pgxmock.NewRows(reminderColumns).
			AddRow(uuid.New(), "u", "bcg", "BCG", 1, (*time.Time)(nil), "high", "", StatusActive, (*string)(nil), now, now).
			AddRow(uuid.New(), "u", "opv", "Oral Polio Vaccine", 2, (*time.Time)(nil), "needs_review", "", StatusActive, (*string)(nil), now, now))

	items, total, err := NewRepoPG(mock).ListByUser(context.Background(), "u", StatusActive, 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Errorf("expected 2 items, got total=%d len=%d", total, len(items))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestRepoPG_UpdateNotFound(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec("UPDATE saved_reminder").
		WithArgs(anyArgs(4)...).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := NewRepoPG(mock).Update(context.Background(), &Reminder{ID: uuid.New(), Status: StatusDismissed})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRepoPG_Delete(t *testing.T) {
	mock := newMock(t)
	id := uuid.New()
	mock.ExpectExec("DELETE FROM saved_reminder WHERE id").
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	if err := NewRepoPG(mock).Delete(context.Background(), id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRepoPG_ReplaceActive(t *testing.T) {
	mock := newMock(t)
	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM saved_reminder WHERE user_id").
		WithArgs("u").
		WillReturnResult(pgxmock.NewResult("DELETE", 3))
	mock.ExpectQuery("INSERT INTO saved_reminder").
		WithArgs(anyArgs(10)...).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectCommit()

	rs := []*Reminder{{UserID: "u", VaccineID: "mr", Name: "MMR", DoseNumber: 1, Status: StatusActive}}
	if err := NewRepoPG(mock).ReplaceActive(context.Background(), "u", rs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestRepoPG_ReplaceActiveRollsBack(t *testing.T) {
	mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM saved_reminder WHERE user_id").
		WithArgs("u").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectQuery("INSERT INTO saved_reminder").
		WithArgs(anyArgs(10)...).
		WillReturnError(errors.New("unique violation"))
	mock.ExpectRollback()

	rs := []*Reminder{{UserID: "u", VaccineID: "mr", Name: "MMR", DoseNumber: 1, Status: StatusActive}}
	if err := NewRepoPG(mock).ReplaceActive(context.Background(), "u", rs); err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
