package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cxtrack/sms-consent-api/internal/consent"
	"github.com/cxtrack/sms-consent-api/internal/consent/model"
)

// ConsentAPIHandler serves the org-facing consent endpoints.
type ConsentAPIHandler struct {
	service consent.ConsentService
}

// NewConsentAPIHandler creates a new consent API handler instance
func NewConsentAPIHandler(service consent.ConsentService) *ConsentAPIHandler {
	return &ConsentAPIHandler{service: service}
}

// GetConsent handles GET /customers/:customerId/consent
func (h *ConsentAPIHandler) GetConsent(c *gin.Context) {
	orgID, _ := orgAndUser(c)
	customerID := c.Param("customerId")

	record, svcErr := h.service.GetByCustomer(c.Request.Context(), customerID, orgID)
	if svcErr != nil {
		sendServiceError(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, record)
}

// GetConsentAudit handles GET /customers/:customerId/consent/audit
func (h *ConsentAPIHandler) GetConsentAudit(c *gin.Context) {
	orgID, _ := orgAndUser(c)
	customerID := c.Param("customerId")

	entries, svcErr := h.service.GetAudit(c.Request.Context(), customerID, orgID)
	if svcErr != nil {
		sendServiceError(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": entries})
}

// OptOut handles POST /customers/:customerId/consent/opt-out, the manual
// opt-out recorded by an org user on the customer's behalf.
func (h *ConsentAPIHandler) OptOut(c *gin.Context) {
	orgID, userID := orgAndUser(c)
	customerID := c.Param("customerId")

	actorID := userID
	resp, svcErr := h.service.OptOut(c.Request.Context(), customerID, orgID, model.MethodManual, &actorID)
	if svcErr != nil {
		sendServiceError(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RequestReoptIn handles POST /customers/:customerId/consent/reopt-request
func (h *ConsentAPIHandler) RequestReoptIn(c *gin.Context) {
	orgID, userID := orgAndUser(c)
	customerID := c.Param("customerId")

	resp, svcErr := h.service.RequestReoptIn(c.Request.Context(), customerID, orgID, userID)
	if svcErr != nil {
		sendServiceError(c, svcErr)
		return
	}
	c.JSON(http.StatusAccepted, resp)
}

// ApproveReoptIn handles POST /customers/:customerId/consent/approve
func (h *ConsentAPIHandler) ApproveReoptIn(c *gin.Context) {
	orgID, userID := orgAndUser(c)
	customerID := c.Param("customerId")

	record, svcErr := h.service.ApproveReoptIn(c.Request.Context(), customerID, orgID, userID)
	if svcErr != nil {
		sendServiceError(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, record)
}
