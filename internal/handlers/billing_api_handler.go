package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cxtrack/sms-consent-api/internal/billing"
)

// BillingAPIHandler serves the org-facing subscription endpoint.
type BillingAPIHandler struct {
	service billing.BillingService
}

// NewBillingAPIHandler creates a new billing API handler instance
func NewBillingAPIHandler(service billing.BillingService) *BillingAPIHandler {
	return &BillingAPIHandler{service: service}
}

// GetSubscription handles GET /billing/subscription
func (h *BillingAPIHandler) GetSubscription(c *gin.Context) {
	orgID, _ := orgAndUser(c)

	subscription, svcErr := h.service.GetSubscription(c.Request.Context(), orgID)
	if svcErr != nil {
		sendServiceError(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, subscription)
}
