package verification

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/vaxtrack/vaxtrack/internal/domain/vaccine"
)

// Cache tracks how recently each catalog record was checked against its
// sources. It is advisory: lookup failures never surface as errors, they
// leave the record needing verification.
type Cache struct {
	catalog     *vaccine.Catalog
	store       Store
	verifier    Verifier
	trusted     []string
	ttl         time.Duration
	timeout     time.Duration
	concurrency int
	now         func() time.Time
	logger      zerolog.Logger
	inflight    singleflight.Group
}

type Option func(*Cache)

func WithTTL(d time.Duration) Option { return func(c *Cache) { c.ttl = d } }

// WithTimeout bounds a single lookup.
func WithTimeout(d time.Duration) Option { return func(c *Cache) { c.timeout = d } }

// WithConcurrency limits how many lookups VerifyAll runs at once.
func WithConcurrency(n int) Option { return func(c *Cache) { c.concurrency = n } }

func WithClock(now func() time.Time) Option { return func(c *Cache) { c.now = now } }

func WithLogger(l zerolog.Logger) Option { return func(c *Cache) { c.logger = l } }

func WithTrustedDomains(domains []string) Option {
	return func(c *Cache) { c.trusted = domains }
}

func NewCache(catalog *vaccine.Catalog, store Store, verifier Verifier, opts ...Option) *Cache {
	c := &Cache{
		catalog:     catalog,
		store:       store,
		verifier:    verifier,
		trusted:     DefaultTrustedDomains,
		ttl:         DefaultTTL,
		timeout:     3 * time.Second,
		concurrency: 4,
		now:         time.Now,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.concurrency < 1 {
		c.concurrency = 1
	}
	return c
}

// Verify returns the cached result for id while it is fresh, and otherwise
// looks the record up again. Concurrent calls for the same id share one
// lookup. A failed lookup yields an unverified result that is not cached.
func (c *Cache) Verify(ctx context.Context, id string) (*Result, error) {
	rec, ok := c.catalog.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVaccine, id)
	}
	if r := c.fresh(ctx, id); r != nil {
		cacheRequests.WithLabelValues("hit").Inc()
		return r, nil
	}
	cacheRequests.WithLabelValues("miss").Inc()

	v, _, _ := c.inflight.Do(id, func() (any, error) {
		return c.lookup(ctx, rec), nil
	})
	return v.(*Result), nil
}

// VerifyAll verifies ids concurrently and returns results in input order.
// Unknown ids come back as unverified results.
func (c *Cache) VerifyAll(ctx context.Context, ids []string) []*Result {
	out := make([]*Result, len(ids))
	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			r, err := c.Verify(ctx, id)
			if err != nil {
				r = &Result{VaccineID: id}
			}
			out[i] = r
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// NeedsVerification reports whether id has no fresh cache entry.
func (c *Cache) NeedsVerification(ctx context.Context, id string) bool {
	return c.fresh(ctx, id) == nil
}

// Status implements vaccine.StatusSource.
func (c *Cache) Status(ctx context.Context, id string) vaccine.VerificationStatus {
	if r := c.fresh(ctx, id); r != nil && r.Verified {
		return vaccine.Verified
	}
	return vaccine.NeedsVerification
}

// ValidateSource reports whether the source URL is on the trusted allowlist.
func (c *Cache) ValidateSource(s vaccine.Source) bool {
	return hostTrusted(c.trusted, s.URL)
}

// Report summarises the cache for the given records without triggering any
// lookups. Confidence comes from the fresh result when one exists and from
// the catalog otherwise.
func (c *Cache) Report(ctx context.Context, records []vaccine.Record) Report {
	rep := Report{Total: len(records)}
	if len(records) == 0 {
		return rep
	}
	var sum float64
	for _, rec := range records {
		r := c.fresh(ctx, rec.ID)
		if r == nil {
			sum += rec.Confidence
			rep.NeedsVerification++
			continue
		}
		sum += r.Confidence
		if r.Verified {
			rep.Verified++
		} else {
			rep.NeedsVerification++
		}
		if rep.LastUpdated == nil || r.LastVerified.After(*rep.LastUpdated) {
			t := r.LastVerified
			rep.LastUpdated = &t
		}
	}
	rep.AverageConfidence = sum / float64(len(records))
	return rep
}

func (c *Cache) fresh(ctx context.Context, id string) *Result {
	r, ok, err := c.store.Get(ctx, id)
	if err != nil {
		c.logger.Warn().Err(err).Str("vaccine_id", id).Msg("verification store read failed")
		return nil
	}
	if !ok || r == nil || !c.now().Before(r.LastVerified.Add(c.ttl)) {
		return nil
	}
	return r
}

func (c *Cache) lookup(ctx context.Context, rec vaccine.Record) *Result {
	// The lookup is shared by every waiter, so it must not die with the
	// first caller's request.
	lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	start := time.Now()
	res, err := c.verifier.Lookup(lctx, rec)
	lookupDuration.Observe(time.Since(start).Seconds())
	if err != nil || res == nil {
		lookupsTotal.WithLabelValues("error").Inc()
		c.logger.Warn().Err(err).Str("vaccine_id", rec.ID).Msg("verification lookup failed")
		return &Result{
			VaccineID:    rec.ID,
			Sources:      rec.Sources,
			Disagreement: []string{"lookup failed"},
		}
	}

	res.VaccineID = rec.ID
	res.LastVerified = c.now()
	if res.Verified {
		lookupsTotal.WithLabelValues("verified").Inc()
	} else {
		lookupsTotal.WithLabelValues("unverified").Inc()
	}
	if err := c.store.Put(lctx, res); err != nil {
		c.logger.Warn().Err(err).Str("vaccine_id", rec.ID).Msg("verification store write failed")
	}
	return res
}
