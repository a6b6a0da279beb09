package messaging

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cxtrack/sms-consent-api/internal/system/config"
	"github.com/cxtrack/sms-consent-api/internal/system/constants"
)

type fakeWebhookValidator struct {
	valid bool
}

func (v *fakeWebhookValidator) Validate(url string, params map[string]string, signature string) bool {
	return v.valid
}

func postInboundForm(t *testing.T, handler *messagingHandler, form url.Values, signature string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/webhooks/sms/inbound", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if signature != "" {
		req.Header.Set(constants.TwilioSignatureHeader, signature)
	}
	recorder := httptest.NewRecorder()
	handler.inboundSMS(recorder, req)
	return recorder
}

func TestInboundWebhookAcknowledges(t *testing.T) {
	env := setupMessagingTest(t)
	handler := newMessagingHandler(env.service, &fakeWebhookValidator{valid: true})

	form := url.Values{}
	form.Set("From", customerNumber)
	form.Set("To", orgNumber)
	form.Set("Body", "Hello")
	form.Set("MessageSid", "SMabc")

	recorder := postInboundForm(t, handler, form, "")
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, constants.EmptyTwiMLResponse, recorder.Body.String())
	assert.Equal(t, constants.ContentTypeXML, recorder.Header().Get(constants.ContentTypeHeaderName))

	assert.Len(t, env.messagingStore.messages, 1)
}

func TestInboundWebhookAcknowledgesOnProcessingFailure(t *testing.T) {
	env := setupMessagingTest(t)
	handler := newMessagingHandler(env.service, &fakeWebhookValidator{valid: true})

	// Missing From fails processing but the carrier still gets a 200.
	form := url.Values{}
	form.Set("To", orgNumber)
	form.Set("Body", "Hello")

	recorder := postInboundForm(t, handler, form, "")
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, constants.EmptyTwiMLResponse, recorder.Body.String())
	assert.Empty(t, env.messagingStore.messages)
}

func TestInboundWebhookRejectsBadSignature(t *testing.T) {
	env := setupMessagingTest(t)
	cfg := config.Get()
	cfg.Twilio.ValidateWebhook = true
	config.SetGlobal(cfg)

	handler := newMessagingHandler(env.service, &fakeWebhookValidator{valid: false})

	form := url.Values{}
	form.Set("From", customerNumber)
	form.Set("To", orgNumber)
	form.Set("Body", "Hello")

	recorder := postInboundForm(t, handler, form, "bogus")
	assert.Equal(t, http.StatusForbidden, recorder.Code)
	assert.Empty(t, env.messagingStore.messages)
}
