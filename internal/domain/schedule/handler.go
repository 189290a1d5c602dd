package schedule

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type Handler struct {
	engine *Engine
}

func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/schedule", h.GenerateSchedule)
}

type scheduleResponse struct {
	Reminders []Reminder `json:"reminders"`
}

func (h *Handler) GenerateSchedule(c echo.Context) error {
	var in ProfileInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	reminders, err := h.engine.GenerateFromInput(in)
	observe(reminders, err)
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			return echo.NewHTTPError(http.StatusBadRequest, ve.Error())
		}
		zerolog.Ctx(c.Request().Context()).Error().Err(err).Msg("schedule generation failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "unable to compute your schedule right now")
	}
	return c.JSON(http.StatusOK, scheduleResponse{Reminders: reminders})
}

func isValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
