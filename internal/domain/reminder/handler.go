package reminder

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/vaxtrack/vaxtrack/internal/domain/schedule"
	"github.com/vaxtrack/vaxtrack/internal/platform/auth"
	"github.com/vaxtrack/vaxtrack/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/reminders", h.ListReminders)
	api.POST("/reminders", h.CreateReminder)
	api.POST("/reminders/from-schedule", h.SaveFromSchedule)
	api.GET("/reminders/:id", h.GetReminder)
	api.PUT("/reminders/:id", h.UpdateReminder)
	api.DELETE("/reminders/:id", h.DeleteReminder)
}

func userID(c echo.Context) (string, error) {
	uid := auth.UserIDFromContext(c.Request().Context())
	if uid == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return uid, nil
}

func (h *Handler) toHTTP(c echo.Context, err error) error {
	var ve *schedule.ValidationError
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "reminder not found")
	case errors.Is(err, ErrDuplicateActive):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalid), errors.As(err, &ve):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		zerolog.Ctx(c.Request().Context()).Error().Err(err).Msg("reminder request failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

func (h *Handler) ListReminders(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), uid, Status(c.QueryParam("status")), pg.Limit, pg.Offset)
	if err != nil {
		return h.toHTTP(c, err)
	}
	if items == nil {
		items = []*Reminder{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) CreateReminder(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}
	var r Reminder
	if err := c.Bind(&r); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.Create(c.Request().Context(), uid, &r); err != nil {
		return h.toHTTP(c, err)
	}
	return c.JSON(http.StatusCreated, r)
}

func (h *Handler) SaveFromSchedule(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}
	var in schedule.ProfileInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	saved, err := h.svc.GenerateAndSave(c.Request().Context(), uid, in)
	if err != nil {
		return h.toHTTP(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{"reminders": saved})
}

func (h *Handler) GetReminder(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	r, err := h.svc.Get(c.Request().Context(), uid, id)
	if err != nil {
		return h.toHTTP(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) UpdateReminder(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var patch Reminder
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	r, err := h.svc.Update(c.Request().Context(), uid, id, &patch)
	if err != nil {
		return h.toHTTP(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) DeleteReminder(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Delete(c.Request().Context(), uid, id); err != nil {
		return h.toHTTP(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
