package verification

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vaxtrack/vaxtrack/internal/domain/vaccine"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// fakeVerifier verifies every record unless its id is listed in fail.
type fakeVerifier struct {
	calls atomic.Int32
	fail  map[string]bool
	block chan struct{}
}

func (f *fakeVerifier) Lookup(ctx context.Context, rec vaccine.Record) (*Result, error) {
	f.calls.Add(1)
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.fail[rec.ID] {
		return nil, errors.New("source unreachable")
	}
	return &Result{Verified: true, Sources: rec.Sources, Confidence: rec.Confidence}, nil
}

type failingStore struct{}

func (failingStore) Get(context.Context, string) (*Result, bool, error) {
	return nil, false, errors.New("store down")
}

func (failingStore) Put(context.Context, *Result) error { return errors.New("store down") }

func testRecord(id string, confidence float64) vaccine.Record {
	return vaccine.Record{
		ID:              id,
		Name:            id,
		VaccineType:     vaccine.TypeInactivated,
		TargetAgeGroups: []string{"adult"},
		Schedule: []vaccine.Dose{
			{DoseNumber: 1, Timing: "Once", Due: vaccine.DoseTiming{Kind: vaccine.TimingUnspecified}},
		},
		MandatoryStatus: vaccine.StatusRecommended,
		EvidenceLevel:   vaccine.EvidenceModerate,
		Confidence:      confidence,
		Sources: []vaccine.Source{
			{Title: "WHO", URL: "https://www.who.int/" + id},
		},
	}
}

func testCatalog(t *testing.T) *vaccine.Catalog {
	t.Helper()
	c, err := vaccine.NewCatalog([]vaccine.Record{testRecord("a", 0.8), testRecord("b", 0.4)})
	if err != nil {
		t.Fatalf("build catalog: %v", err)
	}
	return c
}

func newTestCache(t *testing.T, v Verifier, opts ...Option) (*Cache, *testClock) {
	t.Helper()
	clk := newTestClock()
	opts = append([]Option{WithClock(clk.Now)}, opts...)
	return NewCache(testCatalog(t), NewMemoryStore(), v, opts...), clk
}

func TestCache_VerifyReturnsCachedResult(t *testing.T) {
	v := &fakeVerifier{}
	c, _ := newTestCache(t, v)
	ctx := context.Background()

	first, err := c.Verify(ctx, "a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := c.Verify(ctx, "a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Error("expected the identical cached result")
	}
	if n := v.calls.Load(); n != 1 {
		t.Errorf("expected 1 lookup, got %d", n)
	}
	if !first.Verified || first.VaccineID != "a" {
		t.Errorf("unexpected result %+v", first)
	}
}

func TestCache_VerifyAfterExpiry(t *testing.T) {
	v := &fakeVerifier{}
	c, clk := newTestCache(t, v)
	ctx := context.Background()

	first, _ := c.Verify(ctx, "a")
	clk.Advance(DefaultTTL - time.Nanosecond)
	if again, _ := c.Verify(ctx, "a"); again != first {
		t.Fatal("expected cached result just inside the window")
	}

	clk.Advance(time.Nanosecond)
	if !c.NeedsVerification(ctx, "a") {
		t.Error("expected entry to be expired at the retention boundary")
	}
	fresh, _ := c.Verify(ctx, "a")
	if fresh == first {
		t.Error("expected a fresh lookup after expiry")
	}
	if n := v.calls.Load(); n != 2 {
		t.Errorf("expected 2 lookups, got %d", n)
	}
	if !fresh.LastVerified.Equal(clk.Now()) {
		t.Errorf("expected LastVerified %v, got %v", clk.Now(), fresh.LastVerified)
	}
}

func TestCache_FailedLookupNotCached(t *testing.T) {
	v := &fakeVerifier{fail: map[string]bool{"a": true}}
	c, _ := newTestCache(t, v)
	ctx := context.Background()

	r, err := c.Verify(ctx, "a")
	if err != nil {
		t.Fatalf("lookup failures must not surface, got %v", err)
	}
	if r.Verified {
		t.Error("expected unverified result")
	}
	if !c.NeedsVerification(ctx, "a") {
		t.Error("failed lookup should leave the record needing verification")
	}
	c.Verify(ctx, "a")
	if n := v.calls.Load(); n != 2 {
		t.Errorf("expected a retry on the next call, got %d lookups", n)
	}
}

func TestCache_VerifyUnknown(t *testing.T) {
	c, _ := newTestCache(t, &fakeVerifier{})
	_, err := c.Verify(context.Background(), "nope")
	if !errors.Is(err, ErrUnknownVaccine) {
		t.Fatalf("expected ErrUnknownVaccine, got %v", err)
	}
}

func TestCache_LookupTimeout(t *testing.T) {
	v := &fakeVerifier{block: make(chan struct{})}
	c, _ := newTestCache(t, v, WithTimeout(10*time.Millisecond))

	r, err := c.Verify(context.Background(), "a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Verified {
		t.Error("expected timeout to degrade to unverified")
	}
}

func TestCache_ConcurrentVerifySharesLookup(t *testing.T) {
	v := &fakeVerifier{block: make(chan struct{})}
	c, _ := newTestCache(t, v)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]*Result, 8)
	for i := range results {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = c.Verify(ctx, "a")
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(v.block)
	wg.Wait()

	if n := v.calls.Load(); n != 1 {
		t.Errorf("expected 1 lookup, got %d", n)
	}
	for i, r := range results {
		if r == nil || !r.Verified {
			t.Errorf("result %d: unexpected %+v", i, r)
		}
	}
}

func TestCache_VerifyAllPreservesOrder(t *testing.T) {
	v := &fakeVerifier{fail: map[string]bool{"b": true}}
	c, _ := newTestCache(t, v, WithConcurrency(2))

	ids := []string{"b", "missing", "a"}
	results := c.VerifyAll(context.Background(), ids)
	if len(results) != len(ids) {
		t.Fatalf("expected %d results, got %d", len(ids), len(results))
	}
	for i, id := range ids {
		if results[i].VaccineID != id {
			t.Errorf("result %d: expected %s, got %s", i, id, results[i].VaccineID)
		}
	}
	if results[0].Verified || results[1].Verified {
		t.Error("failed and unknown ids should be unverified")
	}
	if !results[2].Verified {
		t.Error("expected a to verify despite other failures")
	}
}

func TestCache_Status(t *testing.T) {
	c, _ := newTestCache(t, &fakeVerifier{})
	ctx := context.Background()
	if got := c.Status(ctx, "a"); got != vaccine.NeedsVerification {
		t.Errorf("expected needs_verification before lookup, got %s", got)
	}
	c.Verify(ctx, "a")
	if got := c.Status(ctx, "a"); got != vaccine.Verified {
		t.Errorf("expected verified, got %s", got)
	}
}

func TestCache_Report(t *testing.T) {
	c, clk := newTestCache(t, &fakeVerifier{})
	ctx := context.Background()
	c.Verify(ctx, "a")

	rep := c.Report(ctx, c.catalog.All())
	if rep.Total != 2 || rep.Verified != 1 || rep.NeedsVerification != 1 {
		t.Errorf("unexpected counts %+v", rep)
	}
	if want := (0.8 + 0.4) / 2; rep.AverageConfidence < want-1e-9 || rep.AverageConfidence > want+1e-9 {
		t.Errorf("expected average confidence %v, got %v", want, rep.AverageConfidence)
	}
	if rep.LastUpdated == nil || !rep.LastUpdated.Equal(clk.Now()) {
		t.Errorf("expected LastUpdated %v, got %v", clk.Now(), rep.LastUpdated)
	}
}

func TestCache_ReportEmpty(t *testing.T) {
	c, _ := newTestCache(t, &fakeVerifier{})
	rep := c.Report(context.Background(), nil)
	if rep.Total != 0 || rep.AverageConfidence != 0 || rep.LastUpdated != nil {
		t.Errorf("unexpected report %+v", rep)
	}
}

func TestCache_StoreFailureDegradesToMiss(t *testing.T) {
	v := &fakeVerifier{}
	c := NewCache(testCatalog(t), failingStore{}, v)
	r, err := c.Verify(context.Background(), "a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.Verified {
		t.Error("expected lookup result despite store failure")
	}
	if !c.NeedsVerification(context.Background(), "a") {
		t.Error("expected nothing cached")
	}
}

func TestCache_ValidateSource(t *testing.T) {
	c, _ := newTestCache(t, &fakeVerifier{})
	tests := []struct {
		url  string
		want bool
	}{
		{"https://www.who.int/news", true},
		{"https://WWW.CDC.GOV/vaccines", true},
		{"https://mohfw.gov.in/", true},
		{"https://pharmacy-deals.example.com/mmr", false},
		{"not a url", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := c.ValidateSource(vaccine.Source{URL: tt.url}); got != tt.want {
			t.Errorf("ValidateSource(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}
