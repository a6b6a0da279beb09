package billing

import (
	"context"
	"encoding/json"

	"github.com/stripe/stripe-go/v82"

	"github.com/cxtrack/sms-consent-api/internal/billing/model"
	"github.com/cxtrack/sms-consent-api/internal/organization"
	"github.com/cxtrack/sms-consent-api/internal/system/error/serviceerror"
	"github.com/cxtrack/sms-consent-api/internal/system/log"
	"github.com/cxtrack/sms-consent-api/internal/system/metrics"
	"github.com/cxtrack/sms-consent-api/internal/system/stores"
	"github.com/cxtrack/sms-consent-api/internal/system/utils"
)

// BillingService defines the exported service interface
type BillingService interface {
	HandleEvent(ctx context.Context, event stripe.Event) *serviceerror.ServiceError
	GetSubscription(ctx context.Context, orgID string) (*model.Subscription, *serviceerror.ServiceError)
}

// billingService implements the BillingService interface
type billingService struct {
	stores *stores.StoreRegistry
	logger *log.Logger
}

// newBillingService creates a new billing service
func newBillingService(registry *stores.StoreRegistry) BillingService {
	return &billingService{
		stores: registry,
		logger: log.GetLogger().With(log.String(log.LoggerKeyComponentName, "BillingService")),
	}
}

// HandleEvent dispatches a verified Stripe webhook event. Unrecognized event
// types and events for unknown customers are acknowledged without action so
// the provider does not retry them.
func (s *billingService) HandleEvent(ctx context.Context, event stripe.Event) *serviceerror.ServiceError {
	metrics.StripeEventsTotal.WithLabelValues(string(event.Type)).Inc()

	switch string(event.Type) {
	case "customer.subscription.created", "customer.subscription.updated", "customer.subscription.deleted":
		return s.handleSubscriptionEvent(event)
	case "invoice.paid", "invoice.payment_succeeded":
		return s.handleInvoiceEvent(event, "active")
	case "invoice.payment_failed":
		return s.handleInvoiceEvent(event, "past_due")
	default:
		s.logger.Debug("Ignoring Stripe event", log.String("type", string(event.Type)))
		return nil
	}
}

// handleSubscriptionEvent upserts the subscription row keyed by the Stripe
// subscription ID. Events can arrive out of order; the latest payload wins.
func (s *billingService) handleSubscriptionEvent(event stripe.Event) *serviceerror.ServiceError {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "malformed subscription payload")
	}
	if sub.ID == "" || sub.Customer == nil || sub.Customer.ID == "" {
		return serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "subscription payload missing identifiers")
	}

	orgID, svcErr := s.resolveOrg(sub.Customer.ID)
	if svcErr != nil {
		return svcErr
	}
	if orgID == "" {
		s.logger.Warn("Stripe subscription event for unknown customer",
			log.String("stripe_customer_id", sub.Customer.ID),
		)
		return nil
	}

	currentTime := utils.GetCurrentTimeMillis()
	subscription := &model.Subscription{
		SubscriptionID:   sub.ID,
		OrgID:            orgID,
		StripeCustomerID: sub.Customer.ID,
		Status:           string(sub.Status),
		CreatedTime:      currentTime,
		UpdatedTime:      currentTime,
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		priceID := sub.Items.Data[0].Price.ID
		subscription.PriceID = &priceID
	}

	billingStore := s.stores.Billing.(BillingStore)
	if err := billingStore.Upsert(subscription); err != nil {
		return serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}

	s.logger.Info("Subscription state recorded",
		log.String("subscription_id", sub.ID),
		log.String("org_id", orgID),
		log.String("status", string(sub.Status)),
	)
	return nil
}

// handleInvoiceEvent records the invoice against the org's subscription and
// moves its status to reflect the payment outcome.
func (s *billingService) handleInvoiceEvent(event stripe.Event, status string) *serviceerror.ServiceError {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		return serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "malformed invoice payload")
	}
	if invoice.Customer == nil || invoice.Customer.ID == "" {
		return serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "invoice payload missing customer")
	}

	orgID, svcErr := s.resolveOrg(invoice.Customer.ID)
	if svcErr != nil {
		return svcErr
	}
	if orgID == "" {
		s.logger.Warn("Stripe invoice event for unknown customer",
			log.String("stripe_customer_id", invoice.Customer.ID),
		)
		return nil
	}

	billingStore := s.stores.Billing.(BillingStore)
	subscription, err := billingStore.GetByOrg(orgID)
	if err != nil {
		return serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}
	if subscription == nil {
		s.logger.Warn("Invoice event before any subscription event", log.String("org_id", orgID))
		return nil
	}

	currentTime := utils.GetCurrentTimeMillis()
	if invoice.ID != "" {
		if err := billingStore.UpdateLatestInvoice(subscription.SubscriptionID, invoice.ID, currentTime); err != nil {
			return serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
		}
	}
	if err := billingStore.UpdateStatus(subscription.SubscriptionID, status, currentTime); err != nil {
		return serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}

	s.logger.Info("Invoice outcome recorded",
		log.String("subscription_id", subscription.SubscriptionID),
		log.String("org_id", orgID),
		log.String("status", status),
	)
	return nil
}

// GetSubscription returns the org's current subscription state.
func (s *billingService) GetSubscription(ctx context.Context, orgID string) (*model.Subscription, *serviceerror.ServiceError) {
	if err := utils.ValidateOrgID(orgID); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}

	billingStore := s.stores.Billing.(BillingStore)
	subscription, err := billingStore.GetByOrg(orgID)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}
	if subscription == nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ResourceNotFoundError, "organization has no subscription")
	}
	return subscription, nil
}

func (s *billingService) resolveOrg(stripeCustomerID string) (string, *serviceerror.ServiceError) {
	orgStore := s.stores.Organization.(organization.OrganizationStore)
	orgID, err := orgStore.GetOrgIDByStripeCustomer(stripeCustomerID)
	if err != nil {
		return "", serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}
	return orgID, nil
}
