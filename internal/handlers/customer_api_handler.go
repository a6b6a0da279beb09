package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cxtrack/sms-consent-api/internal/customer"
)

// CustomerAPIHandler serves the org-facing customer endpoints.
type CustomerAPIHandler struct {
	service customer.CustomerService
}

// NewCustomerAPIHandler creates a new customer API handler instance
func NewCustomerAPIHandler(service customer.CustomerService) *CustomerAPIHandler {
	return &CustomerAPIHandler{service: service}
}

// ListCustomers handles GET /customers
func (h *CustomerAPIHandler) ListCustomers(c *gin.Context) {
	orgID, _ := orgAndUser(c)
	limit, offset := parsePagination(c)

	customers, total, svcErr := h.service.List(c.Request.Context(), orgID, limit, offset)
	if svcErr != nil {
		sendServiceError(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, listResponse{
		Data:     customers,
		Metadata: listMetadata{Total: total, Limit: limit, Offset: offset},
	})
}

// GetCustomer handles GET /customers/:customerId
func (h *CustomerAPIHandler) GetCustomer(c *gin.Context) {
	orgID, _ := orgAndUser(c)
	customerID := c.Param("customerId")

	cust, svcErr := h.service.GetByID(c.Request.Context(), customerID, orgID)
	if svcErr != nil {
		sendServiceError(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, cust)
}
