package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"

	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/internal/services"
)

const (
	headerSvixEvent  = "svix-event"
	headerClerkEvent = "clerk-event"
)

type IngestionService interface {
	Ingest(ctx context.Context, headerType string, env *models.WebhookEnvelope, raw []byte) (*services.IngestionResult, error)
}

// WebhookHandler receives identity-provider user events.
type WebhookHandler struct {
	ingestion IngestionService
}

func NewWebhookHandler(ingestion IngestionService) *WebhookHandler {
	return &WebhookHandler{ingestion: ingestion}
}

// RegisterWebhookRoutes registers the webhook routes. m guards only the POST.
func (h *WebhookHandler) RegisterWebhookRoutes(g *echo.Group, m ...echo.MiddlewareFunc) {
	g.GET("/webhook", h.Ping)
	g.POST("/webhook", h.Receive, m...)
}

func (h *WebhookHandler) Ping(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"message": "webhook endpoint is working"})
}

// Receive ingests one delivery. The event type comes from the svix-event or
// clerk-event header, falling back to the body.
func (h *WebhookHandler) Receive(c echo.Context) error {
	raw, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Failed to read request body").SetInternal(err)
	}

	var env models.WebhookEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload").SetInternal(err)
	}

	headerType := c.Request().Header.Get(headerSvixEvent)
	if headerType == "" {
		headerType = c.Request().Header.Get(headerClerkEvent)
	}

	result, err := h.ingestion.Ingest(c.Request().Context(), headerType, &env, raw)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": result.Message, "event": result.EventType, "outcome": result.Outcome})
}
