package billing

import (
	"net/http"

	"github.com/cxtrack/sms-consent-api/internal/system/stores"
)

// Initialize sets up the billing module and registers its webhook route
func Initialize(mux *http.ServeMux, registry *stores.StoreRegistry) BillingService {
	service := newBillingService(registry)
	handler := newBillingHandler(service)

	registerRoutes(mux, handler)

	return service
}

// registerRoutes registers the Stripe webhook route. Server-to-server only,
// so no CORS wrapper.
func registerRoutes(mux *http.ServeMux, handler *billingHandler) {
	mux.HandleFunc("POST /webhooks/stripe", handler.stripeWebhook)
}
