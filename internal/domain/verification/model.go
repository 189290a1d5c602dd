package verification

import (
	"context"
	"errors"
	"time"

	"github.com/vaxtrack/vaxtrack/internal/domain/vaccine"
)

// DefaultTTL is how long a verification result stays fresh.
const DefaultTTL = 7 * 24 * time.Hour

var ErrUnknownVaccine = errors.New("unknown vaccine")

// Result is the outcome of verifying one catalog record against its sources.
// Results handed out by the cache are shared and must not be modified.
type Result struct {
	VaccineID    string           `json:"vaccine_id"`
	Verified     bool             `json:"verified"`
	Sources      []vaccine.Source `json:"sources"`
	Disagreement []string         `json:"disagreement,omitempty"`
	LastVerified time.Time        `json:"last_verified"`
	Confidence   float64          `json:"confidence"`
}

// Report summarises verification state across a set of records.
type Report struct {
	Total             int        `json:"total"`
	Verified          int        `json:"verified"`
	NeedsVerification int        `json:"needs_verification"`
	AverageConfidence float64    `json:"average_confidence"`
	LastUpdated       *time.Time `json:"last_updated"`
}

// Verifier performs the actual lookup for a record. Implementations leave
// VaccineID and LastVerified to the cache.
type Verifier interface {
	Lookup(ctx context.Context, rec vaccine.Record) (*Result, error)
}

// Store holds verification results keyed by vaccine id. Freshness is
// decided by the cache, not the store.
type Store interface {
	Get(ctx context.Context, id string) (*Result, bool, error)
	Put(ctx context.Context, r *Result) error
}
