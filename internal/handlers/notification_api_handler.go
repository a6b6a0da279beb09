package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cxtrack/sms-consent-api/internal/notification"
)

// NotificationAPIHandler serves the org-facing notification endpoints.
type NotificationAPIHandler struct {
	service notification.NotificationService
}

// NewNotificationAPIHandler creates a new notification API handler instance
func NewNotificationAPIHandler(service notification.NotificationService) *NotificationAPIHandler {
	return &NotificationAPIHandler{service: service}
}

// ListNotifications handles GET /notifications
func (h *NotificationAPIHandler) ListNotifications(c *gin.Context) {
	orgID, userID := orgAndUser(c)
	limit, offset := parsePagination(c)

	notifications, total, svcErr := h.service.List(c.Request.Context(), orgID, userID, limit, offset)
	if svcErr != nil {
		sendServiceError(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, listResponse{
		Data:     notifications,
		Metadata: listMetadata{Total: total, Limit: limit, Offset: offset},
	})
}

// MarkNotificationRead handles POST /notifications/:notificationId/read
func (h *NotificationAPIHandler) MarkNotificationRead(c *gin.Context) {
	orgID, userID := orgAndUser(c)
	notificationID := c.Param("notificationId")

	if svcErr := h.service.MarkRead(c.Request.Context(), notificationID, orgID, userID); svcErr != nil {
		sendServiceError(c, svcErr)
		return
	}
	c.Status(http.StatusNoContent)
}
