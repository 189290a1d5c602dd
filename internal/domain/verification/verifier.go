package verification

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/vaxtrack/vaxtrack/internal/domain/vaccine"
)

// HTTPVerifier probes each trusted source URL of a record. A record is
// verified when at least one trusted source answers below 400. Confidence is
// the record's own confidence scaled by the fraction of sources that answered.
type HTTPVerifier struct {
	client  *resty.Client
	limiter *rate.Limiter
	trusted []string
}

// NewHTTPVerifier creates a verifier that issues at most rps requests per
// second across all lookups. rps <= 0 disables the limit.
func NewHTTPVerifier(trusted []string, rps float64, timeout time.Duration) *HTTPVerifier {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	c := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", "vaxtrack-verifier/1.0").
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(5))
	return &HTTPVerifier{
		client:  c,
		limiter: rate.NewLimiter(limit, 1),
		trusted: trusted,
	}
}

func (v *HTTPVerifier) Lookup(ctx context.Context, rec vaccine.Record) (*Result, error) {
	res := &Result{Sources: rec.Sources}
	if len(rec.Sources) == 0 {
		res.Disagreement = []string{"no sources listed"}
		return res, nil
	}

	reachable := 0
	for _, s := range rec.Sources {
		if !hostTrusted(v.trusted, s.URL) {
			res.Disagreement = append(res.Disagreement, s.URL+": not a trusted domain")
			continue
		}
		if err := v.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
		resp, err := v.client.R().SetContext(ctx).Head(s.URL)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("probe %s: %w", s.URL, ctx.Err())
			}
			res.Disagreement = append(res.Disagreement, s.URL+": unreachable")
			continue
		}
		if resp.StatusCode() >= http.StatusBadRequest {
			res.Disagreement = append(res.Disagreement, fmt.Sprintf("%s: status %d", s.URL, resp.StatusCode()))
			continue
		}
		reachable++
	}

	res.Verified = reachable > 0
	res.Confidence = rec.Confidence * float64(reachable) / float64(len(rec.Sources))
	return res, nil
}

// AllowlistVerifier checks sources against the allowlist without network
// access. A record is verified only when it has sources and all of them are
// trusted.
type AllowlistVerifier struct {
	Trusted []string
}

func (v AllowlistVerifier) Lookup(_ context.Context, rec vaccine.Record) (*Result, error) {
	res := &Result{Sources: rec.Sources}
	if len(rec.Sources) == 0 {
		res.Disagreement = []string{"no sources listed"}
		return res, nil
	}
	trusted := 0
	for _, s := range rec.Sources {
		if hostTrusted(v.Trusted, s.URL) {
			trusted++
		} else {
			res.Disagreement = append(res.Disagreement, s.URL+": not a trusted domain")
		}
	}
	res.Verified = trusted == len(rec.Sources)
	res.Confidence = rec.Confidence * float64(trusted) / float64(len(rec.Sources))
	return res, nil
}
