package schedule

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

type Urgency string

const (
	UrgencyLow         Urgency = "low"
	UrgencyMedium      Urgency = "medium"
	UrgencyHigh        Urgency = "high"
	UrgencyNeedsReview Urgency = "needs_review"
)

var (
	ErrInvalidDOB         = errors.New("date of birth must be a valid past date (YYYY-MM-DD)")
	ErrInvalidHistoryDate = errors.New("dateGiven must be a date (YYYY-MM-DD)")
)

// ValidationError reports input that was rejected at the engine boundary.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string { return e.Field + ": " + e.Err.Error() }

func (e *ValidationError) Unwrap() error { return e.Err }

// Date is a calendar date serialised as YYYY-MM-DD.
type Date struct{ time.Time }

func NewDate(t time.Time) Date { return Date{dateOf(t)} }

func (d Date) String() string { return d.Format(time.DateOnly) }

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(time.DateOnly))
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", s, err)
	}
	d.Time = t
	return nil
}

// HistoryEntry is one vaccination the user reports. DateGiven is nil when
// the user does not know the date.
type HistoryEntry struct {
	VaccineName string
	DateGiven   *time.Time
}

// Profile is the validated engine input.
type Profile struct {
	DOB        time.Time
	History    []HistoryEntry
	Conditions []string
}

// ProfileInput is the wire form of a schedule request.
type ProfileInput struct {
	DOB        string         `json:"dob"`
	History    []HistoryInput `json:"history"`
	Conditions []string       `json:"conditions"`
}

type HistoryInput struct {
	VaccineName string `json:"vaccineName"`
	DateGiven   string `json:"dateGiven"`
}

// Reminder is a computed, unpersisted reminder for one vaccine's next dose.
type Reminder struct {
	VaccineID      string  `json:"vaccineId"`
	Name           string  `json:"name"`
	DoseNumber     int     `json:"doseNumber"`
	DueDate        *Date   `json:"dueDate"`
	Reason         string  `json:"reason"`
	UrgencyLevel   Urgency `json:"urgencyLevel"`
	UIReminderText string  `json:"uiReminderText"`
}

// ParseProfile validates the wire form against today's date. Blank history
// names are kept and simply never match; a non-empty dateGiven must parse.
func ParseProfile(in ProfileInput, today time.Time) (Profile, error) {
	dob, err := time.Parse(time.DateOnly, strings.TrimSpace(in.DOB))
	if err != nil || dob.After(dateOf(today)) {
		return Profile{}, &ValidationError{Field: "dob", Err: ErrInvalidDOB}
	}
	p := Profile{DOB: dob, Conditions: in.Conditions}
	for i, h := range in.History {
		entry := HistoryEntry{VaccineName: h.VaccineName}
		if s := strings.TrimSpace(h.DateGiven); s != "" {
			t, err := time.Parse(time.DateOnly, s)
			if err != nil {
				return Profile{}, &ValidationError{Field: fmt.Sprintf("history[%d].dateGiven", i), Err: ErrInvalidHistoryDate}
			}
			entry.DateGiven = &t
		}
		p.History = append(p.History, entry)
	}
	return p, nil
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(dateOf(to).Sub(dateOf(from)).Hours() / 24)
}
