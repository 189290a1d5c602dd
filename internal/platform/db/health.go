package db

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"
)

// Check probes one backing service.
type Check func(ctx context.Context) error

// CheckResult is the outcome of a single named check.
type CheckResult struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
	Latency string `json:"latency"`
}

// RunChecks runs every check with a shared timeout and returns the results
// sorted by name, plus whether all of them passed.
func RunChecks(ctx context.Context, checks map[string]Check, timeout time.Duration) ([]CheckResult, bool) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	healthy := true
	results := make([]CheckResult, 0, len(names))
	for _, name := range names {
		start := time.Now()
		err := checks[name](ctx)
		res := CheckResult{Name: name, Healthy: err == nil, Latency: time.Since(start).String()}
		if err != nil {
			res.Error = err.Error()
			healthy = false
		}
		results = append(results, res)
	}
	return results, healthy
}

// HealthHandler returns a handler reporting the state of the given backing
// services. It answers 503 when any check fails.
func HealthHandler(checks map[string]Check) echo.HandlerFunc {
	return func(c echo.Context) error {
		results, healthy := RunChecks(c.Request().Context(), checks, 5*time.Second)
		status, code := "healthy", http.StatusOK
		if !healthy {
			status, code = "unhealthy", http.StatusServiceUnavailable
		}
		return c.JSON(code, map[string]interface{}{
			"status": status,
			"checks": results,
		})
	}
}
