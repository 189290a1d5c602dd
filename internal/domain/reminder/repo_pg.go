package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vaxtrack/vaxtrack/internal/domain/schedule"
	"github.com/vaxtrack/vaxtrack/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool db.Pool }

func NewRepoPG(pool db.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const reminderCols = `id, user_id, vaccine_id, name, dose_number, due_date,
	urgency_level, reminder_text, status, note, created_at, updated_at`

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// storeErr maps a hit on the active-dose unique index to ErrDuplicateActive.
func storeErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicateActive
	}
	return fmt.Errorf("%s: %w", op, err)
}

func dueArg(d *schedule.Date) *time.Time {
	if d == nil {
		return nil
	}
	return &d.Time
}

func scanReminder(row pgx.Row) (*Reminder, error) {
	var rm Reminder
	var due *time.Time
	err := row.Scan(&rm.ID, &rm.UserID, &rm.VaccineID, &rm.Name, &rm.DoseNumber, &due,
		&rm.UrgencyLevel, &rm.ReminderText, &rm.Status, &rm.Note, &rm.CreatedAt, &rm.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if due != nil {
		d := schedule.NewDate(*due)
		rm.DueDate = &d
	}
	return &rm, nil
}

func (r *repoPG) Create(ctx context.Context, rm *Reminder) error {
	rm.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO saved_reminder (id, user_id, vaccine_id, name, dose_number, due_date,
			urgency_level, reminder_text, status, note)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at, updated_at`,
		rm.ID, rm.UserID, rm.VaccineID, rm.Name, rm.DoseNumber, dueArg(rm.DueDate),
		rm.UrgencyLevel, rm.ReminderText, rm.Status, rm.Note,
	).Scan(&rm.CreatedAt, &rm.UpdatedAt)
	if err != nil {
		return storeErr("insert reminder", err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Reminder, error) {
	return scanReminder(r.conn(ctx).QueryRow(ctx, `SELECT `+reminderCols+` FROM saved_reminder WHERE id = $1`, id))
}

func (r *repoPG) ListByUser(ctx context.Context, userID string, status Status, limit, offset int) ([]*Reminder, int, error) {
	where, args := `WHERE user_id = $1`, []interface{}{userID}
	if status != "" {
		where += ` AND status = $2`
		args = append(args, status)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM saved_reminder `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count reminders: %w", err)
	}

	n := len(args)
	query := fmt.Sprintf(`SELECT %s FROM saved_reminder %s ORDER BY due_date ASC NULLS LAST, created_at ASC LIMIT $%d OFFSET $%d`,
		reminderCols, where, n+1, n+2)
	rows, err := r.conn(ctx).Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list reminders: %w", err)
	}
	defer rows.Close()

	var items []*Reminder
	for rows.Next() {
		rm, err := scanReminder(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, rm)
	}
	return items, total, rows.Err()
}

func (r *repoPG) Update(ctx context.Context, rm *Reminder) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE saved_reminder SET status=$2, note=$3, due_date=$4, updated_at=NOW()
		WHERE id = $1`,
		rm.ID, rm.Status, rm.Note, dueArg(rm.DueDate))
	if err != nil {
		return storeErr("update reminder", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM saved_reminder WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) ReplaceActive(ctx context.Context, userID string, rs []*Reminder) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		if _, err := r.conn(ctx).Exec(ctx, `DELETE FROM saved_reminder WHERE user_id = $1 AND status = 'active'`, userID); err != nil {
			return fmt.Errorf("clear active reminders: %w", err)
		}
		for _, rm := range rs {
			if err := r.Create(ctx, rm); err != nil {
				return err
			}
		}
		return nil
	})
}
