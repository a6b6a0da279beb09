package billing

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"

	"github.com/cxtrack/sms-consent-api/internal/billing/model"
	orgmodel "github.com/cxtrack/sms-consent-api/internal/organization/model"
	dbmodel "github.com/cxtrack/sms-consent-api/internal/system/database/model"
	"github.com/cxtrack/sms-consent-api/internal/system/error/serviceerror"
	"github.com/cxtrack/sms-consent-api/internal/system/stores"
)

const (
	testOrgID            = "org-1"
	testStripeCustomerID = "cus_123"
	testSubscriptionID   = "sub_123"
)

// Fakes

type fakeTx struct{}

func (t *fakeTx) Exec(query string, args ...interface{}) (sql.Result, error) { return nil, nil }
func (t *fakeTx) Query(query string, args ...interface{}) (*sql.Rows, error) { return nil, nil }
func (t *fakeTx) Commit() error                                              { return nil }
func (t *fakeTx) Rollback() error                                            { return nil }

type fakeDBClient struct{}

func (c *fakeDBClient) Query(query dbmodel.DBQuery, args ...interface{}) ([]map[string]interface{}, error) {
	return nil, nil
}
func (c *fakeDBClient) Execute(query dbmodel.DBQuery, args ...interface{}) (int64, error) {
	return 0, nil
}
func (c *fakeDBClient) BeginTx() (dbmodel.TxInterface, error) { return &fakeTx{}, nil }

type fakeBillingStore struct {
	subscriptions map[string]*model.Subscription
}

func newFakeBillingStore() *fakeBillingStore {
	return &fakeBillingStore{subscriptions: make(map[string]*model.Subscription)}
}

func (s *fakeBillingStore) Upsert(subscription *model.Subscription) error {
	copied := *subscription
	s.subscriptions[subscription.SubscriptionID] = &copied
	return nil
}

func (s *fakeBillingStore) UpdateStatus(subscriptionID, status string, updatedTime int64) error {
	if sub, ok := s.subscriptions[subscriptionID]; ok {
		sub.Status = status
		sub.UpdatedTime = updatedTime
	}
	return nil
}

func (s *fakeBillingStore) UpdateLatestInvoice(subscriptionID, invoiceID string, updatedTime int64) error {
	if sub, ok := s.subscriptions[subscriptionID]; ok {
		sub.LatestInvoiceID = &invoiceID
		sub.UpdatedTime = updatedTime
	}
	return nil
}

func (s *fakeBillingStore) GetByOrg(orgID string) (*model.Subscription, error) {
	for _, sub := range s.subscriptions {
		if sub.OrgID == orgID {
			return sub, nil
		}
	}
	return nil, nil
}

type fakeOrgStore struct {
	stripeCustomers map[string]string // stripe customer ID -> orgID
}

func (s *fakeOrgStore) GetOrgIDByStripeCustomer(stripeCustomerID string) (string, error) {
	return s.stripeCustomers[stripeCustomerID], nil
}

func (s *fakeOrgStore) GetOrgIDByProvisionedNumber(phoneNumber string) (string, error) {
	return "", nil
}

func (s *fakeOrgStore) GetProvisionedNumberByOrg(orgID string) (*orgmodel.ProvisionedNumber, error) {
	return nil, nil
}

func (s *fakeOrgStore) ListSettingsWithNumber() ([]orgmodel.Settings, error) { return nil, nil }

func (s *fakeOrgStore) GetSettings(orgID string) (*orgmodel.Settings, error) { return nil, nil }

func (s *fakeOrgStore) ListMembers(orgID string) ([]orgmodel.Member, error) { return nil, nil }

func (s *fakeOrgStore) ListMembersByRole(orgID, role string) ([]orgmodel.Member, error) {
	return nil, nil
}

func setupBillingTest(t *testing.T) (*billingService, *fakeBillingStore) {
	t.Helper()

	registry := stores.NewStoreRegistry(&fakeDBClient{})
	billingStore := newFakeBillingStore()
	registry.Billing = billingStore
	registry.Organization = &fakeOrgStore{
		stripeCustomers: map[string]string{testStripeCustomerID: testOrgID},
	}

	return newBillingService(registry).(*billingService), billingStore
}

func subscriptionEvent(t *testing.T, eventType, subID, customerID, status, priceID string) stripe.Event {
	t.Helper()

	payload := map[string]interface{}{
		"id":       subID,
		"customer": map[string]interface{}{"id": customerID},
		"status":   status,
	}
	if priceID != "" {
		payload["items"] = map[string]interface{}{
			"data": []interface{}{
				map[string]interface{}{"price": map[string]interface{}{"id": priceID}},
			},
		}
	}
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	return stripe.Event{
		Type: stripe.EventType(eventType),
		Data: &stripe.EventData{Raw: raw},
	}
}

func invoiceEvent(t *testing.T, eventType, invoiceID, customerID string) stripe.Event {
	t.Helper()

	raw, err := json.Marshal(map[string]interface{}{
		"id":       invoiceID,
		"customer": map[string]interface{}{"id": customerID},
	})
	require.NoError(t, err)

	return stripe.Event{
		Type: stripe.EventType(eventType),
		Data: &stripe.EventData{Raw: raw},
	}
}

func TestHandleSubscriptionCreated(t *testing.T) {
	service, billingStore := setupBillingTest(t)

	event := subscriptionEvent(t, "customer.subscription.created", testSubscriptionID, testStripeCustomerID, "trialing", "price_1")
	svcErr := service.HandleEvent(context.Background(), event)
	require.Nil(t, svcErr)

	sub := billingStore.subscriptions[testSubscriptionID]
	require.NotNil(t, sub)
	assert.Equal(t, testOrgID, sub.OrgID)
	assert.Equal(t, "trialing", sub.Status)
	require.NotNil(t, sub.PriceID)
	assert.Equal(t, "price_1", *sub.PriceID)
}

func TestHandleSubscriptionUpdatedOverwrites(t *testing.T) {
	service, billingStore := setupBillingTest(t)

	created := subscriptionEvent(t, "customer.subscription.created", testSubscriptionID, testStripeCustomerID, "trialing", "")
	require.Nil(t, service.HandleEvent(context.Background(), created))

	updated := subscriptionEvent(t, "customer.subscription.updated", testSubscriptionID, testStripeCustomerID, "active", "")
	require.Nil(t, service.HandleEvent(context.Background(), updated))

	assert.Equal(t, "active", billingStore.subscriptions[testSubscriptionID].Status)
	assert.Len(t, billingStore.subscriptions, 1)
}

func TestHandleInvoicePaid(t *testing.T) {
	service, billingStore := setupBillingTest(t)

	created := subscriptionEvent(t, "customer.subscription.created", testSubscriptionID, testStripeCustomerID, "past_due", "")
	require.Nil(t, service.HandleEvent(context.Background(), created))

	paid := invoiceEvent(t, "invoice.paid", "in_123", testStripeCustomerID)
	require.Nil(t, service.HandleEvent(context.Background(), paid))

	sub := billingStore.subscriptions[testSubscriptionID]
	assert.Equal(t, "active", sub.Status)
	require.NotNil(t, sub.LatestInvoiceID)
	assert.Equal(t, "in_123", *sub.LatestInvoiceID)
}

func TestHandleInvoicePaymentFailed(t *testing.T) {
	service, billingStore := setupBillingTest(t)

	created := subscriptionEvent(t, "customer.subscription.created", testSubscriptionID, testStripeCustomerID, "active", "")
	require.Nil(t, service.HandleEvent(context.Background(), created))

	failed := invoiceEvent(t, "invoice.payment_failed", "in_456", testStripeCustomerID)
	require.Nil(t, service.HandleEvent(context.Background(), failed))

	assert.Equal(t, "past_due", billingStore.subscriptions[testSubscriptionID].Status)
}

func TestHandleEventUnknownCustomerIsAcknowledged(t *testing.T) {
	service, billingStore := setupBillingTest(t)

	event := subscriptionEvent(t, "customer.subscription.created", testSubscriptionID, "cus_unknown", "active", "")
	svcErr := service.HandleEvent(context.Background(), event)
	require.Nil(t, svcErr)
	assert.Empty(t, billingStore.subscriptions)
}

func TestHandleEventIgnoresUnrecognizedType(t *testing.T) {
	service, billingStore := setupBillingTest(t)

	raw, err := json.Marshal(map[string]interface{}{"id": "pi_1"})
	require.NoError(t, err)
	event := stripe.Event{Type: "payment_intent.created", Data: &stripe.EventData{Raw: raw}}

	svcErr := service.HandleEvent(context.Background(), event)
	require.Nil(t, svcErr)
	assert.Empty(t, billingStore.subscriptions)
}

func TestHandleInvoiceBeforeSubscriptionIsAcknowledged(t *testing.T) {
	service, _ := setupBillingTest(t)

	paid := invoiceEvent(t, "invoice.paid", "in_123", testStripeCustomerID)
	svcErr := service.HandleEvent(context.Background(), paid)
	require.Nil(t, svcErr)
}

func TestHandleSubscriptionMissingIdentifiers(t *testing.T) {
	service, _ := setupBillingTest(t)

	event := subscriptionEvent(t, "customer.subscription.created", "", testStripeCustomerID, "active", "")
	svcErr := service.HandleEvent(context.Background(), event)
	require.NotNil(t, svcErr)
	assert.Equal(t, serviceerror.InvalidRequestError.Code, svcErr.Code)
}

func TestGetSubscription(t *testing.T) {
	service, billingStore := setupBillingTest(t)

	_, svcErr := service.GetSubscription(context.Background(), testOrgID)
	require.NotNil(t, svcErr)
	assert.Equal(t, serviceerror.ResourceNotFoundError.Code, svcErr.Code)

	billingStore.subscriptions[testSubscriptionID] = &model.Subscription{
		SubscriptionID:   testSubscriptionID,
		OrgID:            testOrgID,
		StripeCustomerID: testStripeCustomerID,
		Status:           "active",
	}

	sub, svcErr := service.GetSubscription(context.Background(), testOrgID)
	require.Nil(t, svcErr)
	assert.Equal(t, testSubscriptionID, sub.SubscriptionID)
}
