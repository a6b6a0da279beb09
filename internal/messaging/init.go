package messaging

import (
	"net/http"

	"github.com/cxtrack/sms-consent-api/internal/smsout"
	"github.com/cxtrack/sms-consent-api/internal/system/stores"
)

// Initialize sets up the messaging module and registers its webhook route
func Initialize(mux *http.ServeMux, registry *stores.StoreRegistry, consentGate ConsentGate, smsSender smsout.Sender, validator smsout.WebhookValidator) MessagingService {
	service := newMessagingService(registry, consentGate, smsSender)
	handler := newMessagingHandler(service, validator)

	registerRoutes(mux, handler)

	return service
}

// registerRoutes registers the carrier webhook route. No CORS wrapper: the
// endpoint is called server-to-server, never from a browser.
func registerRoutes(mux *http.ServeMux, handler *messagingHandler) {
	mux.HandleFunc("POST /webhooks/sms/inbound", handler.inboundSMS)
}
