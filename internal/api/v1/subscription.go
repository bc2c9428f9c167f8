package v1

import (
	"net/http"

	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/api/dto"
	ierr "github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/errors"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/logger"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/service"
	"github.com/gin-gonic/gin"
)

type SubscriptionHandler struct {
	service        service.SubscriptionService
	historyService service.HistoryService
	log            *logger.Logger
}

func NewSubscriptionHandler(
	service service.SubscriptionService,
	historyService service.HistoryService,
	log *logger.Logger,
) *SubscriptionHandler {
	return &SubscriptionHandler{service: service, historyService: historyService, log: log}
}

// @Summary Create subscription
// @Description Provision a recurring subscription for a client at the payment gateway
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Param subscription body dto.CreateSubscriptionRequest true "Subscription Request"
// @Success 201 {object} dto.ProvisionResponse
// @Router /subscriptions [post]
func (h *SubscriptionHandler) CreateSubscription(c *gin.Context) {
	var req dto.CreateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}
	req.RemoteIP = c.ClientIP()

	resp, err := h.service.Provision(c.Request.Context(), req)
	if err != nil {
		h.log.Errorw("failed to provision subscription",
			"error", err,
			"client_id", req.ClientID,
		)
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// @Summary Get subscription
// @Tags Subscriptions
// @Produce json
// @Param id path string true "Subscription ID"
// @Success 200 {object} dto.SubscriptionResponse
// @Router /subscriptions/{id} [get]
func (h *SubscriptionHandler) GetSubscription(c *gin.Context) {
	id, ok := subscriptionID(c)
	if !ok {
		return
	}

	resp, err := h.service.GetSubscription(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Cancel subscription
// @Description Cancel at the gateway and locally. A gateway failure is reported as a warning.
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Param id path string true "Subscription ID"
// @Param request body dto.CancelSubscriptionRequest false "Cancel Request"
// @Success 200 {object} dto.CancelSubscriptionResponse
// @Router /subscriptions/{id}/cancel [post]
func (h *SubscriptionHandler) CancelSubscription(c *gin.Context) {
	id, ok := subscriptionID(c)
	if !ok {
		return
	}

	var req dto.CancelSubscriptionRequest
	// the body is optional
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(ierr.WithError(err).
				WithHint("Invalid request format").
				Mark(ierr.ErrValidation))
			return
		}
	}

	resp, err := h.service.Cancel(c.Request.Context(), id, req)
	if err != nil {
		h.log.Errorw("failed to cancel subscription",
			"error", err,
			"subscription_id", id,
		)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Subscription history
// @Tags Subscriptions
// @Produce json
// @Param id path string true "Subscription ID"
// @Success 200 {object} dto.ListSubscriptionHistoryResponse
// @Router /subscriptions/{id}/history [get]
func (h *SubscriptionHandler) GetHistory(c *gin.Context) {
	id, ok := subscriptionID(c)
	if !ok {
		return
	}

	resp, err := h.historyService.ListHistory(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Subscription payments
// @Tags Subscriptions
// @Produce json
// @Param id path string true "Subscription ID"
// @Success 200 {object} dto.ListSubscriptionPaymentsResponse
// @Router /subscriptions/{id}/payments [get]
func (h *SubscriptionHandler) ListPayments(c *gin.Context) {
	id, ok := subscriptionID(c)
	if !ok {
		return
	}

	resp, err := h.service.ListPayments(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Sync subscription payments
// @Description Pull the subscription's charges from the gateway and reconcile them
// @Tags Subscriptions
// @Produce json
// @Param id path string true "Subscription ID"
// @Success 200 {object} dto.SyncPaymentsResponse
// @Router /subscriptions/{id}/sync [post]
func (h *SubscriptionHandler) SyncPayments(c *gin.Context) {
	id, ok := subscriptionID(c)
	if !ok {
		return
	}

	resp, err := h.service.SyncPayments(c.Request.Context(), id)
	if err != nil {
		h.log.Errorw("failed to sync subscription payments",
			"error", err,
			"subscription_id", id,
		)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func subscriptionID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("subscription ID is required").
			WithHint("Please provide a valid subscription ID").
			Mark(ierr.ErrValidation))
		return "", false
	}
	return id, true
}
