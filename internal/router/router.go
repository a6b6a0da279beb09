package router

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/cxtrack/sms-consent-api/internal/billing"
	"github.com/cxtrack/sms-consent-api/internal/consent"
	"github.com/cxtrack/sms-consent-api/internal/customer"
	"github.com/cxtrack/sms-consent-api/internal/handlers"
	"github.com/cxtrack/sms-consent-api/internal/messaging"
	"github.com/cxtrack/sms-consent-api/internal/notification"
	"github.com/cxtrack/sms-consent-api/internal/system/config"
	"github.com/cxtrack/sms-consent-api/internal/system/constants"
	"github.com/cxtrack/sms-consent-api/internal/system/error/apierror"
	"github.com/cxtrack/sms-consent-api/internal/system/middleware"
	"github.com/cxtrack/sms-consent-api/internal/system/utils"
)

// SetupRouter configures the org-facing API. The returned engine is mounted
// under /api/v1 by the server, so routes here are defined unprefixed.
func SetupRouter(
	consentService consent.ConsentService,
	messagingService messaging.MessagingService,
	notificationService notification.NotificationService,
	billingService billing.BillingService,
	customerService customer.CustomerService,
) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.CorrelationIDMiddleware())
	engine.Use(corsMiddleware())
	engine.Use(identityMiddleware())

	consentHandler := handlers.NewConsentAPIHandler(consentService)
	messagingHandler := handlers.NewMessagingAPIHandler(messagingService)
	notificationHandler := handlers.NewNotificationAPIHandler(notificationService)
	billingHandler := handlers.NewBillingAPIHandler(billingService)
	customerHandler := handlers.NewCustomerAPIHandler(customerService)

	customers := engine.Group("/customers")
	{
		customers.GET("", customerHandler.ListCustomers)
		customers.GET("/:customerId", customerHandler.GetCustomer)
		customers.GET("/:customerId/consent", consentHandler.GetConsent)
		customers.GET("/:customerId/consent/audit", consentHandler.GetConsentAudit)
		customers.POST("/:customerId/consent/opt-out", consentHandler.OptOut)
		customers.POST("/:customerId/consent/reopt-request", consentHandler.RequestReoptIn)
		customers.POST("/:customerId/consent/approve", consentHandler.ApproveReoptIn)
	}

	conversations := engine.Group("/conversations")
	{
		conversations.GET("", messagingHandler.ListConversations)
		conversations.GET("/:conversationId/messages", messagingHandler.ListMessages)
		conversations.POST("/:conversationId/messages", messagingHandler.SendMessage)
	}

	notifications := engine.Group("/notifications")
	{
		notifications.GET("", notificationHandler.ListNotifications)
		notifications.POST("/:notificationId/read", notificationHandler.MarkNotificationRead)
	}

	engine.GET("/billing/subscription", billingHandler.GetSubscription)

	return engine
}

// corsMiddleware builds the CORS policy for the org dashboard from config.
func corsMiddleware() gin.HandlerFunc {
	cfg := config.Get()

	corsConfig := cors.DefaultConfig()
	if cfg != nil && len(cfg.CORS.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.CORS.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{
		constants.ContentTypeHeaderName,
		constants.AuthorizationHeaderName,
		constants.OrgIDHeaderName,
		constants.UserIDHeaderName,
		constants.CorrelationIDHeaderName,
	}
	if cfg != nil {
		corsConfig.AllowCredentials = cfg.CORS.AllowCredentials
	}

	return cors.New(corsConfig)
}

// identityMiddleware requires the org and user identity headers on every org
// API request and exposes them to handlers through the gin context.
func identityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := utils.ValidateOrgAndUserPresent(c.Request); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, apierror.ErrorResponse{
				Code:        "invalid_request",
				Description: err.Error(),
			})
			return
		}

		c.Set(handlers.ContextKeyOrgID, c.GetHeader(constants.OrgIDHeaderName))
		c.Set(handlers.ContextKeyUserID, c.GetHeader(constants.UserIDHeaderName))
		c.Next()
	}
}
