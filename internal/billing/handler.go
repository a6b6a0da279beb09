package billing

import (
	"io"
	"net/http"

	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/cxtrack/sms-consent-api/internal/system/config"
	"github.com/cxtrack/sms-consent-api/internal/system/constants"
	"github.com/cxtrack/sms-consent-api/internal/system/log"
)

const maxWebhookBodyBytes = 65536

type billingHandler struct {
	service BillingService
	logger  *log.Logger
}

func newBillingHandler(service BillingService) *billingHandler {
	return &billingHandler{
		service: service,
		logger:  log.GetLogger().With(log.String(log.LoggerKeyComponentName, "BillingHandler")),
	}
}

// stripeWebhook handles POST /webhooks/stripe. An unverifiable signature is
// rejected with 400. Processing failures after verification are logged and
// acknowledged so the provider does not retry them into the same failure.
func (h *billingHandler) stripeWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Warn("Unreadable Stripe webhook body", log.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	signature := r.Header.Get(constants.StripeSignatureHeader)
	event, err := webhook.ConstructEvent(payload, signature, config.Get().Stripe.WebhookSecret)
	if err != nil {
		h.logger.Warn("Rejected Stripe webhook with invalid signature", log.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if svcErr := h.service.HandleEvent(ctx, event); svcErr != nil {
		h.logger.Error("Stripe event processing failed",
			log.String("event_type", string(event.Type)),
			log.String("error_code", svcErr.Code),
			log.String("error_description", svcErr.ErrorDescription),
		)
	}

	w.WriteHeader(http.StatusOK)
}
