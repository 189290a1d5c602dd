package verification

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vaxtrack/vaxtrack/internal/domain/vaccine"
)

const maxBatch = 100

type Handler struct {
	cache   *Cache
	catalog *vaccine.Catalog
}

func NewHandler(cache *Cache, catalog *vaccine.Catalog) *Handler {
	return &Handler{cache: cache, catalog: catalog}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/verification")
	g.GET("/report", h.GetReport)
	g.POST("/validate-source", h.ValidateSource)
	g.POST("", h.VerifyBatch)
	g.POST("/:id", h.Verify)
	g.GET("/:id/needs", h.NeedsVerification)
}

func (h *Handler) Verify(c echo.Context) error {
	r, err := h.cache.Verify(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrUnknownVaccine) {
			return echo.NewHTTPError(http.StatusNotFound, "vaccine not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, r)
}

type batchRequest struct {
	IDs []string `json:"ids"`
}

func (h *Handler) VerifyBatch(c echo.Context) error {
	var req batchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if len(req.IDs) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "ids is required")
	}
	if len(req.IDs) > maxBatch {
		return echo.NewHTTPError(http.StatusBadRequest, "too many ids")
	}
	results := h.cache.VerifyAll(c.Request().Context(), req.IDs)
	return c.JSON(http.StatusOK, map[string]interface{}{"results": results})
}

func (h *Handler) NeedsVerification(c echo.Context) error {
	id := c.Param("id")
	if _, ok := h.catalog.Get(id); !ok {
		return echo.NewHTTPError(http.StatusNotFound, "vaccine not found")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"vaccine_id":         id,
		"needs_verification": h.cache.NeedsVerification(c.Request().Context(), id),
	})
}

func (h *Handler) GetReport(c echo.Context) error {
	return c.JSON(http.StatusOK, h.cache.Report(c.Request().Context(), h.catalog.All()))
}

type sourceRequest struct {
	URL string `json:"url"`
}

func (h *Handler) ValidateSource(c echo.Context) error {
	var req sourceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.URL == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "url is required")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"url":     req.URL,
		"trusted": h.cache.ValidateSource(vaccine.Source{URL: req.URL}),
	})
}
