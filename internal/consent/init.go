package consent

import (
	"net/http"

	"github.com/cxtrack/sms-consent-api/internal/email"
	"github.com/cxtrack/sms-consent-api/internal/system/middleware"
	"github.com/cxtrack/sms-consent-api/internal/system/stores"
)

// Initialize sets up the consent module and registers its public routes
func Initialize(mux *http.ServeMux, registry *stores.StoreRegistry, emailSender email.Sender, notifier Notifier) ConsentService {
	service := newConsentService(registry, emailSender, notifier)
	handler := newConsentHandler(service)

	registerRoutes(mux, handler)

	return service
}

// registerRoutes registers the public consent routes
func registerRoutes(mux *http.ServeMux, handler *consentHandler) {
	corsOpts := middleware.CORSOptions{
		AllowOrigin:  "*",
		AllowMethods: []string{"POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "X-Correlation-ID"},
	}

	// POST /sms-opt-out - public unsubscribe link target
	registerPublicRoute(mux, "/sms-opt-out", handler.optOut, corsOpts)

	// POST /process-reopt-confirmation - emailed confirmation link target
	registerPublicRoute(mux, "/process-reopt-confirmation", handler.confirmReopt, corsOpts)
}

// registerPublicRoute registers a POST route plus the OPTIONS preflight for
// the same path. Both go through the CORS wrapper.
func registerPublicRoute(mux *http.ServeMux, path string, handler http.HandlerFunc, opts middleware.CORSOptions) {
	pattern, wrapped := middleware.WithCORS("POST "+path, handler, opts)
	mux.HandleFunc(pattern, wrapped)
	mux.HandleFunc("OPTIONS "+path, wrapped)
}
