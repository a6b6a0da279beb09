package email

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/resend/resend-go/v2"

	"github.com/cxtrack/sms-consent-api/internal/system/config"
	"github.com/cxtrack/sms-consent-api/internal/system/log"
	"github.com/cxtrack/sms-consent-api/internal/system/metrics"
)

// Sender delivers transactional email.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// resendSender implements Sender on the Resend API with bounded retries.
type resendSender struct {
	client        *resend.Client
	fromAddress   string
	sendTimeout   time.Duration
	retryAttempts int
	logger        *log.Logger
}

// NewSender creates a Resend-backed email sender.
func NewSender(cfg *config.ResendConfig) Sender {
	return &resendSender{
		client:        resend.NewClient(cfg.APIKey),
		fromAddress:   cfg.FromAddress,
		sendTimeout:   cfg.SendTimeout,
		retryAttempts: cfg.RetryAttempts,
		logger:        log.GetLogger().With(log.String(log.LoggerKeyComponentName, "EmailSender")),
	}
}

// Send delivers a single email, retrying transient failures with
// exponential backoff.
func (s *resendSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	defer cancel()

	request := &resend.SendEmailRequest{
		From:    s.fromAddress,
		To:      []string{to},
		Subject: subject,
		Html:    htmlBody,
	}

	operation := func() error {
		_, err := s.client.Emails.SendWithContext(sendCtx, request)
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(s.retryAttempts)),
		sendCtx)

	if err := backoff.Retry(operation, policy); err != nil {
		metrics.ProviderSendFailuresTotal.WithLabelValues("resend").Inc()
		s.logger.Error("Email send failed after retries",
			log.Error(err),
			log.String("subject", subject),
		)
		return err
	}

	s.logger.Debug("Email sent", log.String("subject", subject))
	return nil
}
