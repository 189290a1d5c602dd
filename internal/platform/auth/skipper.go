package auth

import (
	"github.com/labstack/echo/v4"
)

// publicRoutes are reachable without a bearer token, keyed by method and
// route pattern. Catalog reads and schedule generation need no account;
// saved reminders and verification lookups do.
var publicRoutes = map[string]bool{
	"GET /health":                               true,
	"GET /health/db":                            true,
	"GET /metrics":                              true,
	"GET /api/v1/vaccines":                      true,
	"GET /api/v1/vaccines/:id":                  true,
	"GET /api/v1/age-groups":                    true,
	"POST /api/v1/schedule":                     true,
	"GET /api/v1/verification/report":           true,
	"GET /api/v1/verification/:id/needs":        true,
	"POST /api/v1/verification/validate-source": true,
}

// AuthSkipper reports whether the matched route is public.
func AuthSkipper(c echo.Context) bool {
	return IsPublicRoute(c.Request().Method, c.Path())
}

func IsPublicRoute(method, path string) bool {
	return publicRoutes[method+" "+path]
}
