package constants

const (
	AuthorizationHeaderName = "Authorization"
	ContentTypeHeaderName   = "Content-Type"
	CorrelationIDHeaderName = "X-Correlation-ID"
	OrgIDHeaderName         = "X-Organization-ID"
	UserIDHeaderName        = "X-User-ID"
	StripeSignatureHeader   = "Stripe-Signature"
	TwilioSignatureHeader   = "X-Twilio-Signature"

	ContentTypeJSON = "application/json"
	ContentTypeXML  = "text/xml"

	APIBasePath = "/api/v1"

	ChannelTypeSMS = "sms"

	DefaultPageSize = 30
	MaxPageSize     = 100
)

// EmptyTwiMLResponse is the minimal acknowledgment body returned to the SMS
// carrier. Every inbound webhook path must answer with this, even on internal
// failure, so the carrier does not retry.
const EmptyTwiMLResponse = `<?xml version="1.0" encoding="UTF-8"?><Response></Response>`
