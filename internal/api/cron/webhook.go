package cron

import (
	"net/http"

	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/logger"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/service"
	"github.com/gin-gonic/gin"
)

// WebhookHandler handles webhook related cron jobs
type WebhookHandler struct {
	webhookService service.WebhookService
	logger         *logger.Logger
}

// NewWebhookHandler creates a new webhook cron handler
func NewWebhookHandler(webhookService service.WebhookService, logger *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		webhookService: webhookService,
		logger:         logger,
	}
}

// ReprocessPending re-runs deliveries that are still unprocessed. External
// schedulers call it when the in-process sweep is disabled.
func (h *WebhookHandler) ReprocessPending(c *gin.Context) {
	h.logger.Infow("starting webhook reprocessing cron job")

	response, err := h.webhookService.ReprocessPending(c.Request.Context())
	if err != nil {
		h.logger.Errorw("failed to reprocess pending webhook events",
			"error", err)
		c.Error(err)
		return
	}

	h.logger.Infow("completed webhook reprocessing cron job",
		"scanned", response.Scanned,
		"processed", response.Processed)
	c.JSON(http.StatusOK, response)
}
