package notification

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handler exposes the gateway surface over HTTP via Echo.
type Handler struct {
	manager *Manager
}

// NewHandler creates a new Handler.
func NewHandler(mgr *Manager) *Handler {
	return &Handler{manager: mgr}
}

// RegisterRoutes registers all notification routes on the given Echo group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/send-email", h.HandleSendEmail)
	g.POST("/send-whatsapp", h.HandleSendWhatsApp)
	g.GET("/notifications/stats", h.HandleStats)
	g.GET("/notifications/:id", h.HandleGet)
	g.POST("/notifications/:id/retry", h.HandleRetry)
}

type sendEmailRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

type sendEmailResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// HandleSendEmail handles POST /send-email.
func (h *Handler) HandleSendEmail(c echo.Context) error {
	var req sendEmailRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, sendEmailResponse{Error: "invalid request body"})
	}
	if req.To == "" || req.Subject == "" || req.Text == "" {
		return c.JSON(http.StatusBadRequest, sendEmailResponse{Error: "missing fields"})
	}

	n := &Notification{
		Type:      TypeEmail,
		Recipient: req.To,
		Subject:   req.Subject,
		Body:      req.Text,
	}
	if err := h.manager.Send(c.Request().Context(), n); err != nil {
		return c.JSON(http.StatusInternalServerError, sendEmailResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, sendEmailResponse{Success: true})
}

type sendWhatsAppRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

type sendWhatsAppResponse struct {
	Success bool   `json:"success"`
	SID     string `json:"sid,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HandleSendWhatsApp handles POST /send-whatsapp.
func (h *Handler) HandleSendWhatsApp(c echo.Context) error {
	var req sendWhatsAppRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, sendWhatsAppResponse{Error: "invalid request body"})
	}
	if req.To == "" || req.Message == "" {
		return c.JSON(http.StatusBadRequest, sendWhatsAppResponse{Error: `missing "to" or "message"`})
	}

	n := &Notification{
		Type:      TypeWhatsApp,
		Recipient: req.To,
		Body:      req.Message,
	}
	if err := h.manager.Send(c.Request().Context(), n); err != nil {
		return c.JSON(http.StatusInternalServerError, sendWhatsAppResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, sendWhatsAppResponse{Success: true, SID: n.SID})
}

// HandleGet handles GET /notifications/:id.
func (h *Handler) HandleGet(c echo.Context) error {
	n, err := h.manager.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, n)
}

// HandleRetry handles POST /notifications/:id/retry.
func (h *Handler) HandleRetry(c echo.Context) error {
	id := c.Param("id")
	if err := h.manager.Retry(c.Request().Context(), id); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	n, _ := h.manager.Get(c.Request().Context(), id)
	return c.JSON(http.StatusOK, n)
}

// HandleStats handles GET /notifications/stats.
func (h *Handler) HandleStats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.manager.Stats(c.Request().Context()))
}
