package model

// Subscription represents the SUBSCRIPTION table, keyed by the Stripe
// subscription ID and upserted from webhook events.
type Subscription struct {
	SubscriptionID   string  `db:"SUBSCRIPTION_ID" json:"subscriptionId"`
	OrgID            string  `db:"ORG_ID" json:"orgId"`
	StripeCustomerID string  `db:"STRIPE_CUSTOMER_ID" json:"stripeCustomerId"`
	Status           string  `db:"STATUS" json:"status"`
	PriceID          *string `db:"PRICE_ID" json:"priceId,omitempty"`
	LatestInvoiceID  *string `db:"LATEST_INVOICE_ID" json:"latestInvoiceId,omitempty"`
	CreatedTime      int64   `db:"CREATED_TIME" json:"createdTime"`
	UpdatedTime      int64   `db:"UPDATED_TIME" json:"updatedTime"`
}
