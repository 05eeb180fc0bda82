package consultation

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ariesclinic/consult/internal/platform/auth"
	"github.com/ariesclinic/consult/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/consultations", h.List)
	g.POST("/consultations", h.Book)
	g.GET("/consultations/:id", h.Get)
	g.POST("/consultations/:id/messages", h.Reply)
	g.POST("/consultations/:id/close", h.Close, auth.RequireRole(auth.RoleDoctor))
	g.POST("/consultations/:id/complete", h.Complete, auth.RequireRole(auth.RoleDoctor))
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "consultation not found")
	case errors.Is(err, ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, "not allowed")
	case errors.Is(err, ErrThreadClosed):
		return echo.NewHTTPError(http.StatusConflict, "consultation thread is closed")
	case errors.Is(err, ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrPaymentRejected):
		return echo.NewHTTPError(http.StatusPaymentRequired, "payment could not be verified")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

func actorOr401(c echo.Context) (auth.Actor, error) {
	actor := auth.ActorFromContext(c.Request().Context())
	if actor.ID == "" {
		return auth.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return actor, nil
}

func consultationID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid consultation id")
	}
	return id, nil
}

func (h *Handler) List(c echo.Context) error {
	actor, err := actorOr401(c)
	if err != nil {
		return err
	}
	p := pagination.FromContext(c)
	consultations, total, err := h.svc.List(c.Request().Context(), actor, p)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(consultations, total, p.Limit, p.Offset))
}

func (h *Handler) Book(c echo.Context) error {
	actor, err := actorOr401(c)
	if err != nil {
		return err
	}
	var req BookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	created, err := h.svc.Book(c.Request().Context(), actor, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) Get(c echo.Context) error {
	actor, err := actorOr401(c)
	if err != nil {
		return err
	}
	id, err := consultationID(c)
	if err != nil {
		return err
	}
	thread, err := h.svc.Get(c.Request().Context(), actor, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, thread)
}

type replyRequest struct {
	Content string `json:"content"`
}

func (h *Handler) Reply(c echo.Context) error {
	actor, err := actorOr401(c)
	if err != nil {
		return err
	}
	id, err := consultationID(c)
	if err != nil {
		return err
	}
	var req replyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	m, err := h.svc.Reply(c.Request().Context(), actor, id, req.Content)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) Close(c echo.Context) error {
	actor, err := actorOr401(c)
	if err != nil {
		return err
	}
	id, err := consultationID(c)
	if err != nil {
		return err
	}
	closed, err := h.svc.Close(c.Request().Context(), actor, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, closed)
}

func (h *Handler) Complete(c echo.Context) error {
	actor, err := actorOr401(c)
	if err != nil {
		return err
	}
	id, err := consultationID(c)
	if err != nil {
		return err
	}
	completed, err := h.svc.Complete(c.Request().Context(), actor, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, completed)
}
