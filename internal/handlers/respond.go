package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cxtrack/sms-consent-api/internal/system/constants"
	"github.com/cxtrack/sms-consent-api/internal/system/error/apierror"
	"github.com/cxtrack/sms-consent-api/internal/system/error/serviceerror"
	"github.com/cxtrack/sms-consent-api/internal/system/utils"
)

// Gin context keys populated by the router's header middleware.
const (
	ContextKeyOrgID  = "orgID"
	ContextKeyUserID = "userID"
)

// sendServiceError writes a service error with the status code the error
// taxonomy maps it to.
func sendServiceError(c *gin.Context, svcErr *serviceerror.ServiceError) {
	c.JSON(utils.StatusCodeFor(svcErr), apierror.ErrorResponse{
		Code:        svcErr.Error,
		Description: svcErr.ErrorDescription,
	})
}

// orgAndUser pulls the org and user identity set by the router middleware.
func orgAndUser(c *gin.Context) (string, string) {
	return c.GetString(ContextKeyOrgID), c.GetString(ContextKeyUserID)
}

// parsePagination reads limit/offset query parameters with defaults.
func parsePagination(c *gin.Context) (int, int) {
	limit := constants.DefaultPageSize
	offset := 0

	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil {
			limit = l
		}
	}
	if offsetStr := c.Query("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil {
			offset = o
		}
	}
	return limit, offset
}

// listResponse is the common pagination envelope of the org API.
type listResponse struct {
	Data     interface{}  `json:"data"`
	Metadata listMetadata `json:"metadata"`
}

type listMetadata struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}
