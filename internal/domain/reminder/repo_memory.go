package reminder

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memoryRepo backs RECORD_STORE=memory for local runs without PostgreSQL.
type memoryRepo struct {
	mu    sync.RWMutex
	items map[uuid.UUID]*Reminder
	now   func() time.Time
}

func NewMemoryRepo() Repository {
	return &memoryRepo{items: make(map[uuid.UUID]*Reminder), now: time.Now}
}

func (m *memoryRepo) Create(_ context.Context, r *Reminder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.activeTaken(r) {
		return ErrDuplicateActive
	}
	m.create(r)
	return nil
}

// activeTaken mirrors the partial unique index on active
// (user_id, vaccine_id, dose_number).
func (m *memoryRepo) activeTaken(r *Reminder) bool {
	if r.Status != StatusActive {
		return false
	}
	for id, cur := range m.items {
		if id != r.ID && cur.Status == StatusActive && cur.UserID == r.UserID &&
			cur.VaccineID == r.VaccineID && cur.DoseNumber == r.DoseNumber {
			return true
		}
	}
	return false
}

func (m *memoryRepo) create(r *Reminder) {
	r.ID = uuid.New()
	r.CreatedAt = m.now()
	r.UpdatedAt = r.CreatedAt
	cp := *r
	m.items[r.ID] = &cp
}

func (m *memoryRepo) GetByID(_ context.Context, id uuid.UUID) (*Reminder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memoryRepo) ListByUser(_ context.Context, userID string, status Status, limit, offset int) ([]*Reminder, int, error) {
	m.mu.RLock()
	var all []*Reminder
	for _, r := range m.items {
		if r.UserID == userID && (status == "" || r.Status == status) {
			cp := *r
			all = append(all, &cp)
		}
	}
	m.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		a, b := all[i].DueDate, all[j].DueDate
		switch {
		case a == nil && b == nil:
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Before(b.Time)
		}
	})

	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (m *memoryRepo) Update(_ context.Context, r *Reminder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.items[r.ID]
	if !ok {
		return ErrNotFound
	}
	next := *cur
	next.Status = r.Status
	if m.activeTaken(&next) {
		return ErrDuplicateActive
	}
	cur.Status = r.Status
	cur.Note = r.Note
	cur.DueDate = r.DueDate
	cur.UpdatedAt = m.now()
	r.UpdatedAt = cur.UpdatedAt
	return nil
}

func (m *memoryRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memoryRepo) ReplaceActive(_ context.Context, userID string, rs []*Reminder) error {
	type dose struct {
		vaccineID string
		number    int
	}
	seen := make(map[dose]bool, len(rs))
	for _, r := range rs {
		if r.Status != StatusActive {
			continue
		}
		k := dose{r.VaccineID, r.DoseNumber}
		if seen[k] {
			return ErrDuplicateActive
		}
		seen[k] = true
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for id, r := range m.items {
		if r.UserID == userID && r.Status == StatusActive {
			delete(m.items, id)
		}
	}
	for _, r := range rs {
		m.create(r)
	}
	return nil
}
