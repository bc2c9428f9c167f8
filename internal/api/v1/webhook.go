package v1

import (
	"io"
	"net/http"

	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/api/dto"
	ierr "github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/errors"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/logger"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/service"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/types"
	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
)

// maxWebhookBody caps a single gateway delivery
const maxWebhookBody = 1 << 20

// WebhookHandler receives gateway deliveries and exposes the raw event log
type WebhookHandler struct {
	service service.WebhookService
	logger  *logger.Logger
}

func NewWebhookHandler(service service.WebhookService, logger *logger.Logger) *WebhookHandler {
	return &WebhookHandler{service: service, logger: logger}
}

// HandleGatewayWebhook stores and reconciles one delivery. Anything short
// of a storage failure is acknowledged with 200 so the gateway does not
// retry events it cannot fix by retrying.
func (h *WebhookHandler) HandleGatewayWebhook(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.logger.Warnw("webhook body too large", "limit", tooLarge.Limit, "remote_ip", c.ClientIP())
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"success": false, "error": "Request body too large"})
			return
		}
		h.logger.Errorw("failed to read webhook body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Failed to read request body"})
		return
	}

	resp, err := h.service.Ingest(c.Request.Context(), body)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.WebhookIngestResponse{Success: false})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary List webhook events
// @Tags Webhooks
// @Produce json
// @Param filter query types.WebhookEventFilter false "Filter"
// @Success 200 {object} dto.ListWebhookEventsResponse
// @Router /webhooks/events [get]
func (h *WebhookHandler) ListEvents(c *gin.Context) {
	filter := types.NewWebhookEventFilter()
	if err := c.ShouldBindQuery(filter); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid filter parameters").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.ListEvents(c.Request.Context(), filter)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Get webhook event
// @Tags Webhooks
// @Produce json
// @Param id path string true "Webhook event ID"
// @Success 200 {object} dto.WebhookEventResponse
// @Router /webhooks/events/{id} [get]
func (h *WebhookHandler) GetEvent(c *gin.Context) {
	resp, err := h.service.GetEvent(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Replay webhook event
// @Description Re-run reconciliation of an unprocessed delivery
// @Tags Webhooks
// @Produce json
// @Param id path string true "Webhook event ID"
// @Success 200 {object} dto.WebhookEventResponse
// @Router /webhooks/events/{id}/replay [post]
func (h *WebhookHandler) ReplayEvent(c *gin.Context) {
	id := c.Param("id")

	resp, err := h.service.Replay(c.Request.Context(), id)
	if err != nil {
		h.logger.Errorw("failed to replay webhook event",
			"error", err,
			"webhook_event_id", id,
		)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
