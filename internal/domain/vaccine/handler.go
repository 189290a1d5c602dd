package vaccine

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vaxtrack/vaxtrack/pkg/pagination"
)

// StatusSource reports the current verification status of a record.
type StatusSource interface {
	Status(ctx context.Context, id string) VerificationStatus
}

type Handler struct {
	catalog *Catalog
	status  StatusSource
}

// NewHandler creates a catalog handler. status may be nil, in which case
// records are served with the catalog's default status.
func NewHandler(catalog *Catalog, status StatusSource) *Handler {
	return &Handler{catalog: catalog, status: status}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/vaccines", h.ListVaccines)
	api.GET("/vaccines/:id", h.GetVaccine)
	api.GET("/age-groups", h.ListAgeGroups)
}

func (h *Handler) ListVaccines(c echo.Context) error {
	var items []Record
	if q := c.QueryParam("q"); q != "" {
		items = h.catalog.Search(q)
	} else {
		items = h.catalog.All()
	}
	ctx := c.Request().Context()
	for i := range items {
		h.annotate(ctx, &items[i])
	}

	pg := pagination.FromContext(c)
	return c.JSON(http.StatusOK, pagination.NewResponse(pagination.Window(items, pg), len(items), pg.Limit, pg.Offset))
}

func (h *Handler) GetVaccine(c echo.Context) error {
	r, ok := h.catalog.Get(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "vaccine not found")
	}
	h.annotate(c.Request().Context(), &r)
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) ListAgeGroups(c echo.Context) error {
	return c.JSON(http.StatusOK, AgeGroups)
}

func (h *Handler) annotate(ctx context.Context, r *Record) {
	if h.status != nil {
		r.VerificationStatus = h.status.Status(ctx, r.ID)
	}
}
