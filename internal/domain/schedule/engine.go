package schedule

import (
	"sort"
	"strings"
	"time"

	"github.com/vaxtrack/vaxtrack/internal/domain/vaccine"
)

// Engine turns a user profile into due and upcoming vaccine reminders. It
// holds no per-call state; Generate is a pure function of the catalog, the
// profile and the clock's current date.
type Engine struct {
	catalog        *vaccine.Catalog
	historyMatch   vaccine.Matcher
	contraMatch    vaccine.Matcher
	seriesTracking bool
	now            func() time.Time
}

type Option func(*Engine)

// WithClock replaces time.Now as the source of today's date.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithHistoryMatcher sets how history entries are matched to vaccine names
// and synonyms. The default is case-insensitive substring matching.
func WithHistoryMatcher(m vaccine.Matcher) Option {
	return func(e *Engine) { e.historyMatch = m }
}

// WithContraindicationMatcher sets how user conditions are matched against
// contraindications. The default is vaccine.StemMatcher.
func WithContraindicationMatcher(m vaccine.Matcher) Option {
	return func(e *Engine) { e.contraMatch = m }
}

// WithSeriesTracking makes the engine count matching history entries as
// administered doses. A vaccine is then skipped only once every scheduled
// dose is covered, and the reminder targets the next unmet dose.
func WithSeriesTracking() Option {
	return func(e *Engine) { e.seriesTracking = true }
}

func NewEngine(catalog *vaccine.Catalog, opts ...Option) *Engine {
	e := &Engine{
		catalog:      catalog,
		historyMatch: vaccine.SubstringMatcher{},
		contraMatch:  vaccine.StemMatcher{},
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Today returns the engine's current date at UTC midnight.
func (e *Engine) Today() time.Time {
	return dateOf(e.now())
}

// GenerateFromInput validates the wire form and generates the schedule.
func (e *Engine) GenerateFromInput(in ProfileInput) ([]Reminder, error) {
	p, err := ParseProfile(in, e.Today())
	if err != nil {
		return nil, err
	}
	return e.Generate(p)
}

// Generate computes reminders for every catalog vaccine that is eligible,
// not yet satisfied by history and not contraindicated. The result is
// ordered by due date with unresolved dates last in catalog order.
func (e *Engine) Generate(p Profile) ([]Reminder, error) {
	today := e.Today()
	if p.DOB.IsZero() || dateOf(p.DOB).After(today) {
		return nil, &ValidationError{Field: "dob", Err: ErrInvalidDOB}
	}
	dob := dateOf(p.DOB)
	ageMonths := vaccine.AgeInMonths(daysBetween(dob, today))

	reminders := make([]Reminder, 0)
	for _, r := range e.catalog.All() {
		given := e.matchHistory(r, p.History)

		next := 0
		if e.seriesTracking {
			next = countDoses(given)
			if next >= len(r.Schedule) {
				continue
			}
		} else if len(given) > 0 {
			continue
		}

		if e.contraindicated(r, p.Conditions) {
			continue
		}
		if !r.EligibleAt(ageMonths) {
			continue
		}

		dose := r.Schedule[next]
		rem := Reminder{
			VaccineID:  r.ID,
			Name:       r.Name,
			DoseNumber: dose.DoseNumber,
			Reason:     reason(r, dose),
		}
		if due, ok := resolveDue(dob, dose, lastGiven(given)); ok {
			d := NewDate(due)
			days := daysBetween(today, due)
			rem.DueDate = &d
			rem.UrgencyLevel = Classify(days)
			rem.UIReminderText = reminderText(r, rem.UrgencyLevel, days, due)
		} else {
			rem.UrgencyLevel = UrgencyNeedsReview
			rem.UIReminderText = reminderText(r, UrgencyNeedsReview, 0, time.Time{})
		}
		reminders = append(reminders, rem)
	}

	sortByDueDate(reminders)
	return reminders, nil
}

// Classify maps days until the due date to an urgency tier. Overdue and
// due within a week are high; within a month medium; later low.
func Classify(daysUntilDue int) Urgency {
	switch {
	case daysUntilDue <= 7:
		return UrgencyHigh
	case daysUntilDue <= 30:
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}

func (e *Engine) matchHistory(r vaccine.Record, history []HistoryEntry) []HistoryEntry {
	var given []HistoryEntry
	for _, h := range history {
		if strings.TrimSpace(h.VaccineName) == "" {
			continue
		}
		if e.historyMatch.Match(h.VaccineName, r.Name) || vaccine.MatchesAny(e.historyMatch, h.VaccineName, r.Synonyms) {
			given = append(given, h)
		}
	}
	return given
}

func (e *Engine) contraindicated(r vaccine.Record, conditions []string) bool {
	for _, cond := range conditions {
		if strings.TrimSpace(cond) == "" {
			continue
		}
		for _, ci := range r.Contraindications {
			if e.contraMatch.Match(ci, cond) {
				return true
			}
		}
	}
	return false
}

// countDoses counts distinct administrations among matched entries. Dated
// entries count once per day; undated ones once per distinct name, so a
// repeated history line never advances the series.
func countDoses(given []HistoryEntry) int {
	seen := make(map[string]bool, len(given))
	for _, h := range given {
		key := "name:" + strings.ToLower(strings.Join(strings.Fields(h.VaccineName), " "))
		if h.DateGiven != nil {
			key = "date:" + dateOf(*h.DateGiven).Format(time.DateOnly)
		}
		seen[key] = true
	}
	return len(seen)
}

// lastGiven returns the latest known administration date, or nil.
func lastGiven(given []HistoryEntry) *time.Time {
	var last *time.Time
	for _, h := range given {
		if h.DateGiven != nil && (last == nil || h.DateGiven.After(*last)) {
			last = h.DateGiven
		}
	}
	return last
}

func resolveDue(dob time.Time, dose vaccine.Dose, previous *time.Time) (time.Time, bool) {
	switch dose.Due.Kind {
	case vaccine.TimingFromBirth:
		return dose.Due.Offset.AddTo(dob), true
	case vaccine.TimingFromPrevious:
		if previous == nil {
			return time.Time{}, false
		}
		return dose.Due.Offset.AddTo(dateOf(*previous)), true
	case vaccine.TimingAgeWindow:
		rng, ok := vaccine.AgeGroups[dose.Due.AgeGroup]
		if !ok {
			return time.Time{}, false
		}
		return dob.AddDate(0, rng.OpensAt, 0), true
	default:
		return time.Time{}, false
	}
}

func sortByDueDate(rs []Reminder) {
	sort.SliceStable(rs, func(i, j int) bool {
		a, b := rs[i].DueDate, rs[j].DueDate
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Before(b.Time)
		}
	})
}
