package profile

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ariesclinic/consult/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/profile", h.Get)
	g.PUT("/profile", h.Update)
}

func (h *Handler) Get(c echo.Context) error {
	actor := auth.ActorFromContext(c.Request().Context())
	if actor.ID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	p, err := h.svc.Get(c.Request().Context(), actor.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "profile not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load profile")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) Update(c echo.Context) error {
	actor := auth.ActorFromContext(c.Request().Context())
	if actor.ID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	var req UpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	p, err := h.svc.Update(c.Request().Context(), actor, req)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update profile")
	}
	return c.JSON(http.StatusOK, p)
}
