package messaging

import (
	"net/http"

	"github.com/cxtrack/sms-consent-api/internal/messaging/model"
	"github.com/cxtrack/sms-consent-api/internal/smsout"
	"github.com/cxtrack/sms-consent-api/internal/system/config"
	"github.com/cxtrack/sms-consent-api/internal/system/constants"
	"github.com/cxtrack/sms-consent-api/internal/system/log"
)

type messagingHandler struct {
	service   MessagingService
	validator smsout.WebhookValidator
	logger    *log.Logger
}

func newMessagingHandler(service MessagingService, validator smsout.WebhookValidator) *messagingHandler {
	return &messagingHandler{
		service:   service,
		validator: validator,
		logger:    log.GetLogger().With(log.String(log.LoggerKeyComponentName, "MessagingHandler")),
	}
}

// inboundSMS handles POST /webhooks/sms/inbound. The carrier retries on
// non-2xx responses, so processing failures are logged and acknowledged with
// an empty TwiML document. Only a bad signature is rejected.
func (h *messagingHandler) inboundSMS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		h.logger.Warn("Unparseable inbound SMS webhook", log.Error(err))
		h.writeTwiML(w)
		return
	}

	cfg := config.Get()
	if cfg.Twilio.ValidateWebhook {
		params := make(map[string]string, len(r.PostForm))
		for key := range r.PostForm {
			params[key] = r.PostForm.Get(key)
		}
		url := cfg.Server.PublicURL + r.URL.RequestURI()
		signature := r.Header.Get(constants.TwilioSignatureHeader)
		if !h.validator.Validate(url, params, signature) {
			h.logger.Warn("Rejected inbound SMS webhook with invalid signature")
			w.WriteHeader(http.StatusForbidden)
			return
		}
	}

	sms := model.InboundSMS{
		From:       r.PostForm.Get("From"),
		To:         r.PostForm.Get("To"),
		Body:       r.PostForm.Get("Body"),
		MessageSID: r.PostForm.Get("MessageSid"),
	}

	if svcErr := h.service.HandleInbound(ctx, sms); svcErr != nil {
		h.logger.Error("Inbound SMS processing failed",
			log.String("error_code", svcErr.Code),
			log.String("error_description", svcErr.ErrorDescription),
		)
	}

	h.writeTwiML(w)
}

func (h *messagingHandler) writeTwiML(w http.ResponseWriter) {
	w.Header().Set(constants.ContentTypeHeaderName, constants.ContentTypeXML)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(constants.EmptyTwiMLResponse))
}
