package billing

import (
	"github.com/cxtrack/sms-consent-api/internal/billing/model"
	dbmodel "github.com/cxtrack/sms-consent-api/internal/system/database/model"
	"github.com/cxtrack/sms-consent-api/internal/system/database/provider"
)

// DBQuery objects for billing operations
var (
	QueryUpsertSubscription = dbmodel.DBQuery{
		ID:    "UPSERT_SUBSCRIPTION",
		Query: "INSERT INTO SUBSCRIPTION (SUBSCRIPTION_ID, ORG_ID, STRIPE_CUSTOMER_ID, STATUS, PRICE_ID, LATEST_INVOICE_ID, CREATED_TIME, UPDATED_TIME) VALUES (?, ?, ?, ?, ?, ?, ?, ?) ON DUPLICATE KEY UPDATE STATUS = VALUES(STATUS), PRICE_ID = VALUES(PRICE_ID), LATEST_INVOICE_ID = VALUES(LATEST_INVOICE_ID), UPDATED_TIME = VALUES(UPDATED_TIME)",
	}

	QueryUpdateSubscriptionStatus = dbmodel.DBQuery{
		ID:    "UPDATE_SUBSCRIPTION_STATUS",
		Query: "UPDATE SUBSCRIPTION SET STATUS = ?, UPDATED_TIME = ? WHERE SUBSCRIPTION_ID = ?",
	}

	QueryUpdateSubscriptionInvoice = dbmodel.DBQuery{
		ID:    "UPDATE_SUBSCRIPTION_INVOICE",
		Query: "UPDATE SUBSCRIPTION SET LATEST_INVOICE_ID = ?, UPDATED_TIME = ? WHERE SUBSCRIPTION_ID = ?",
	}

	QueryGetSubscriptionByOrg = dbmodel.DBQuery{
		ID:    "GET_SUBSCRIPTION_BY_ORG",
		Query: "SELECT SUBSCRIPTION_ID, ORG_ID, STRIPE_CUSTOMER_ID, STATUS, PRICE_ID, LATEST_INVOICE_ID, CREATED_TIME, UPDATED_TIME FROM SUBSCRIPTION WHERE ORG_ID = ? ORDER BY UPDATED_TIME DESC",
	}
)

// BillingStore defines the interface for subscription data operations
type BillingStore interface {
	Upsert(subscription *model.Subscription) error
	UpdateStatus(subscriptionID, status string, updatedTime int64) error
	UpdateLatestInvoice(subscriptionID, invoiceID string, updatedTime int64) error
	GetByOrg(orgID string) (*model.Subscription, error)
}

// store implements the BillingStore interface
type store struct {
	dbClient provider.DBClientInterface
}

// NewStore creates and returns a new billing store (exported for registry)
func NewStore(dbClient provider.DBClientInterface) interface{} {
	return newBillingStore(dbClient)
}

func newBillingStore(dbClient provider.DBClientInterface) BillingStore {
	return &store{
		dbClient: dbClient,
	}
}

// Upsert inserts or updates a subscription keyed by its provider ID.
// Webhook events can arrive out of order, so the upsert always writes the
// latest state seen.
func (s *store) Upsert(subscription *model.Subscription) error {
	_, err := s.dbClient.Execute(QueryUpsertSubscription,
		subscription.SubscriptionID, subscription.OrgID, subscription.StripeCustomerID,
		subscription.Status, subscription.PriceID, subscription.LatestInvoiceID,
		subscription.CreatedTime, subscription.UpdatedTime)
	return err
}

// UpdateStatus updates only the subscription status
func (s *store) UpdateStatus(subscriptionID, status string, updatedTime int64) error {
	_, err := s.dbClient.Execute(QueryUpdateSubscriptionStatus, status, updatedTime, subscriptionID)
	return err
}

// UpdateLatestInvoice records the most recent invoice seen for a subscription
func (s *store) UpdateLatestInvoice(subscriptionID, invoiceID string, updatedTime int64) error {
	_, err := s.dbClient.Execute(QueryUpdateSubscriptionInvoice, invoiceID, updatedTime, subscriptionID)
	return err
}

// GetByOrg retrieves the most recently updated subscription for an org.
// Returns nil when the org has none.
func (s *store) GetByOrg(orgID string) (*model.Subscription, error) {
	rows, err := s.dbClient.Query(QueryGetSubscriptionByOrg, orgID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return mapToSubscription(rows[0]), nil
}

func mapToSubscription(row map[string]interface{}) *model.Subscription {
	if row == nil {
		return nil
	}

	subscription := &model.Subscription{}

	if v, ok := row["SUBSCRIPTION_ID"].(string); ok {
		subscription.SubscriptionID = v
	}
	if v, ok := row["ORG_ID"].(string); ok {
		subscription.OrgID = v
	}
	if v, ok := row["STRIPE_CUSTOMER_ID"].(string); ok {
		subscription.StripeCustomerID = v
	}
	if v, ok := row["STATUS"].(string); ok {
		subscription.Status = v
	}
	if v, ok := row["PRICE_ID"].(string); ok {
		subscription.PriceID = &v
	}
	if v, ok := row["LATEST_INVOICE_ID"].(string); ok {
		subscription.LatestInvoiceID = &v
	}
	if v, ok := row["CREATED_TIME"].(int64); ok {
		subscription.CreatedTime = v
	}
	if v, ok := row["UPDATED_TIME"].(int64); ok {
		subscription.UpdatedTime = v
	}

	return subscription
}
