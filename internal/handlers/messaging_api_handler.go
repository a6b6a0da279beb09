package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cxtrack/sms-consent-api/internal/messaging"
	"github.com/cxtrack/sms-consent-api/internal/messaging/model"
	"github.com/cxtrack/sms-consent-api/internal/system/error/serviceerror"
)

// MessagingAPIHandler serves the org-facing conversation endpoints.
type MessagingAPIHandler struct {
	service messaging.MessagingService
}

// NewMessagingAPIHandler creates a new messaging API handler instance
func NewMessagingAPIHandler(service messaging.MessagingService) *MessagingAPIHandler {
	return &MessagingAPIHandler{service: service}
}

// ListConversations handles GET /conversations
func (h *MessagingAPIHandler) ListConversations(c *gin.Context) {
	orgID, _ := orgAndUser(c)
	limit, offset := parsePagination(c)

	conversations, total, svcErr := h.service.ListConversations(c.Request.Context(), orgID, limit, offset)
	if svcErr != nil {
		sendServiceError(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, listResponse{
		Data:     conversations,
		Metadata: listMetadata{Total: total, Limit: limit, Offset: offset},
	})
}

// ListMessages handles GET /conversations/:conversationId/messages
func (h *MessagingAPIHandler) ListMessages(c *gin.Context) {
	orgID, _ := orgAndUser(c)
	conversationID := c.Param("conversationId")
	limit, offset := parsePagination(c)

	messages, total, svcErr := h.service.ListMessages(c.Request.Context(), conversationID, orgID, limit, offset)
	if svcErr != nil {
		sendServiceError(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, listResponse{
		Data:     messages,
		Metadata: listMetadata{Total: total, Limit: limit, Offset: offset},
	})
}

// SendMessage handles POST /conversations/:conversationId/messages
func (h *MessagingAPIHandler) SendMessage(c *gin.Context) {
	orgID, userID := orgAndUser(c)
	conversationID := c.Param("conversationId")

	var req model.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendServiceError(c, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "Invalid request body"))
		return
	}

	message, svcErr := h.service.SendMessage(c.Request.Context(), orgID, conversationID, userID, req.Body)
	if svcErr != nil {
		sendServiceError(c, svcErr)
		return
	}
	c.JSON(http.StatusCreated, message)
}
