package smsout

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/cxtrack/sms-consent-api/internal/system/config"
	"github.com/cxtrack/sms-consent-api/internal/system/log"
	"github.com/cxtrack/sms-consent-api/internal/system/metrics"
)

// SendResult carries the provider identifiers for a dispatched message.
type SendResult struct {
	ProviderSID string
	Status      string
}

// Sender dispatches outbound SMS through the provider.
type Sender interface {
	Send(ctx context.Context, from, to, body string) (*SendResult, error)
}

// WebhookValidator verifies inbound webhook signatures.
type WebhookValidator interface {
	Validate(url string, params map[string]string, signature string) bool
}

// twilioSender implements Sender on the Twilio REST API with bounded retries.
type twilioSender struct {
	client        *twilio.RestClient
	sendTimeout   time.Duration
	retryAttempts int
	logger        *log.Logger
}

// NewSender creates a Twilio-backed SMS sender.
func NewSender(cfg *config.TwilioConfig) Sender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &twilioSender{
		client:        client,
		sendTimeout:   cfg.SendTimeout,
		retryAttempts: cfg.RetryAttempts,
		logger:        log.GetLogger().With(log.String(log.LoggerKeyComponentName, "SMSSender")),
	}
}

// NewWebhookValidator creates a validator for provider webhook signatures.
func NewWebhookValidator(cfg *config.TwilioConfig) WebhookValidator {
	validator := twilioclient.NewRequestValidator(cfg.AuthToken)
	return &validator
}

// Send dispatches a single SMS, retrying transient failures with
// exponential backoff.
func (s *twilioSender) Send(ctx context.Context, from, to, body string) (*SendResult, error) {
	sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	defer cancel()

	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(from)
	params.SetTo(to)
	params.SetBody(body)

	var result *SendResult
	operation := func() error {
		resp, err := s.client.Api.CreateMessage(params)
		if err != nil {
			return err
		}
		result = &SendResult{}
		if resp.Sid != nil {
			result.ProviderSID = *resp.Sid
		}
		if resp.Status != nil {
			result.Status = *resp.Status
		}
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(s.retryAttempts)),
		sendCtx)

	if err := backoff.Retry(operation, policy); err != nil {
		metrics.ProviderSendFailuresTotal.WithLabelValues("twilio").Inc()
		s.logger.Error("SMS send failed after retries", log.Error(err))
		return nil, err
	}

	s.logger.Debug("SMS dispatched", log.String("provider_sid", result.ProviderSID))
	return result, nil
}
