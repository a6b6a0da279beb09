package main

import (
	"net/http"

	"github.com/cxtrack/sms-consent-api/internal/billing"
	"github.com/cxtrack/sms-consent-api/internal/consent"
	"github.com/cxtrack/sms-consent-api/internal/customer"
	"github.com/cxtrack/sms-consent-api/internal/email"
	"github.com/cxtrack/sms-consent-api/internal/messaging"
	"github.com/cxtrack/sms-consent-api/internal/notification"
	"github.com/cxtrack/sms-consent-api/internal/organization"
	"github.com/cxtrack/sms-consent-api/internal/router"
	"github.com/cxtrack/sms-consent-api/internal/smsout"
	"github.com/cxtrack/sms-consent-api/internal/system/config"
	"github.com/cxtrack/sms-consent-api/internal/system/constants"
	"github.com/cxtrack/sms-consent-api/internal/system/database/provider"
	"github.com/cxtrack/sms-consent-api/internal/system/log"
	"github.com/cxtrack/sms-consent-api/internal/system/stores"
)

// registerServices wires the stores, providers, and feature modules onto the
// mux. Public webhook and confirmation endpoints register directly; the
// org-facing API is a gin engine mounted under the API base path.
func registerServices(mux *http.ServeMux, dbClient provider.DBClientInterface, cfg *config.Config) {
	logger := log.GetLogger()

	registry := stores.NewStoreRegistry(dbClient)
	registry.Consent = consent.NewStore(dbClient)
	registry.Customer = customer.NewStore(dbClient)
	registry.Organization = organization.NewStore(dbClient)
	registry.Messaging = messaging.NewStore(dbClient)
	registry.Notification = notification.NewStore(dbClient)
	registry.Billing = billing.NewStore(dbClient)
	logger.Info("Store registry initialized")

	emailSender := email.NewSender(&cfg.Resend)
	smsSender := smsout.NewSender(&cfg.Twilio)
	webhookValidator := smsout.NewWebhookValidator(&cfg.Twilio)
	logger.Info("Provider clients initialized")

	notificationService := notification.Initialize(registry)
	logger.Info("Notification module initialized")

	consentService := consent.Initialize(mux, registry, emailSender, notificationService)
	logger.Info("Consent module initialized")

	messagingService := messaging.Initialize(mux, registry, consentService, smsSender, webhookValidator)
	logger.Info("Messaging module initialized")

	billingService := billing.Initialize(mux, registry)
	logger.Info("Billing module initialized")

	customerService := customer.Initialize(registry)
	logger.Info("Customer module initialized")

	ginRouter := router.SetupRouter(consentService, messagingService, notificationService, billingService, customerService)
	mux.Handle(constants.APIBasePath+"/", http.StripPrefix(constants.APIBasePath, ginRouter))
	logger.Info("Org API mounted", log.String("base_path", constants.APIBasePath))
}
