package consent

import (
	"context"
	"fmt"

	"github.com/cxtrack/sms-consent-api/internal/consent/model"
	"github.com/cxtrack/sms-consent-api/internal/customer"
	"github.com/cxtrack/sms-consent-api/internal/email"
	"github.com/cxtrack/sms-consent-api/internal/system/config"
	dbmodel "github.com/cxtrack/sms-consent-api/internal/system/database/model"
	"github.com/cxtrack/sms-consent-api/internal/system/error/serviceerror"
	"github.com/cxtrack/sms-consent-api/internal/system/log"
	"github.com/cxtrack/sms-consent-api/internal/system/metrics"
	"github.com/cxtrack/sms-consent-api/internal/system/stores"
	"github.com/cxtrack/sms-consent-api/internal/system/utils"
)

// Notifier fans out in-app notifications to org users. Delivery is best
// effort; implementations must not return errors into the consent flow.
type Notifier interface {
	ConsentOptedOut(ctx context.Context, orgID, customerID, customerName, method string)
	ReoptRequested(ctx context.Context, orgID, customerID, customerName string)
	ReoptConfirmed(ctx context.Context, orgID, customerID, customerName string)
}

// ConsentService defines the exported service interface
type ConsentService interface {
	OptOut(ctx context.Context, customerID, orgID, method string, actorID *string) (*model.OptOutResponse, *serviceerror.ServiceError)
	OptOutByPhone(ctx context.Context, orgID, phone string) ([]string, *serviceerror.ServiceError)
	RequestReoptIn(ctx context.Context, customerID, orgID, actorID string) (*model.ReoptRequestResponse, *serviceerror.ServiceError)
	ConfirmReoptIn(ctx context.Context, token string) (*model.ConfirmResponse, *serviceerror.ServiceError)
	ApproveReoptIn(ctx context.Context, customerID, orgID, actorID string) (*model.Record, *serviceerror.ServiceError)
	GetByCustomer(ctx context.Context, customerID, orgID string) (*model.Record, *serviceerror.ServiceError)
	GetAudit(ctx context.Context, customerID, orgID string) ([]model.AuditEntry, *serviceerror.ServiceError)
	IsOptedOut(ctx context.Context, customerID, orgID string) (bool, *serviceerror.ServiceError)
}

// consentService implements the ConsentService interface
type consentService struct {
	stores      *stores.StoreRegistry
	emailSender email.Sender
	notifier    Notifier
	logger      *log.Logger

	// now is injectable so expiry boundaries are testable.
	now func() int64
}

// newConsentService creates a new consent service
func newConsentService(registry *stores.StoreRegistry, emailSender email.Sender, notifier Notifier) ConsentService {
	return &consentService{
		stores:      registry,
		emailSender: emailSender,
		notifier:    notifier,
		logger:      log.GetLogger().With(log.String(log.LoggerKeyComponentName, "ConsentService")),
		now:         utils.GetCurrentTimeMillis,
	}
}

// OptOut transitions a customer to opted_out. The consent row is created
// lazily on first opt-out. Repeat calls are idempotent: the response flags
// AlreadyOptedOut and no duplicate audit entry is written.
func (s *consentService) OptOut(ctx context.Context, customerID, orgID, method string, actorID *string) (*model.OptOutResponse, *serviceerror.ServiceError) {
	if err := utils.ValidateOrgID(orgID); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}
	if err := utils.ValidateCustomerID(customerID); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}
	if method != model.MethodLink && method != model.MethodSMSReply && method != model.MethodManual {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, fmt.Sprintf("unknown opt-out method: %s", method))
	}

	customerStore := s.stores.Customer.(customer.CustomerStore)
	cust, err := customerStore.GetByID(customerID, orgID)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}
	if cust == nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ResourceNotFoundError, "customer not found")
	}

	consentStore := s.stores.Consent.(ConsentStore)
	record, err := consentStore.GetByCustomer(customerID, orgID)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}

	if record != nil && record.Status == model.StatusOptedOut {
		return &model.OptOutResponse{Status: model.StatusOptedOut, AlreadyOptedOut: true}, nil
	}

	currentTime := s.now()
	previousStatus := string(model.StatusOptedIn)
	if record != nil {
		previousStatus = string(record.Status)
	}

	var queries []func(tx dbmodel.TxInterface) error

	if record == nil {
		record = &model.Record{
			ConsentID:      utils.GenerateUUID(),
			CustomerID:     customerID,
			OrgID:          orgID,
			Status:         model.StatusOptedOut,
			OptedOutAt:     &currentTime,
			OptedOutMethod: &method,
			CreatedTime:    currentTime,
			UpdatedTime:    currentTime,
		}
		created := record
		queries = append(queries, func(tx dbmodel.TxInterface) error {
			return consentStore.Create(tx, created)
		})
	} else {
		record.Status = model.StatusOptedOut
		record.OptedOutAt = &currentTime
		record.OptedOutMethod = &method
		// Opting out invalidates any in-flight re-opt link.
		record.ReoptToken = nil
		record.ReoptTokenExpiresAt = nil
		record.UpdatedTime = currentTime
		updated := record
		queries = append(queries, func(tx dbmodel.TxInterface) error {
			return consentStore.Update(tx, updated)
		})
	}

	metadata := fmt.Sprintf(`{"method":"%s"}`, method)
	audit := &model.AuditEntry{
		AuditID:        utils.GenerateUUID(),
		ConsentID:      record.ConsentID,
		Action:         model.ActionOptOut,
		ActorID:        actorID,
		PreviousStatus: &previousStatus,
		CurrentStatus:  string(model.StatusOptedOut),
		Metadata:       &metadata,
		ActionTime:     currentTime,
		OrgID:          orgID,
	}
	queries = append(queries, func(tx dbmodel.TxInterface) error {
		return consentStore.CreateAudit(tx, audit)
	})

	if err := s.stores.ExecuteTransaction(queries); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}

	metrics.OptOutTotal.WithLabelValues(method).Inc()
	s.logger.Info("Customer opted out",
		log.String("customer_id", customerID),
		log.String("org_id", orgID),
		log.String("method", method),
	)

	if s.notifier != nil {
		s.notifier.ConsentOptedOut(ctx, orgID, customerID, cust.Name, method)
	}

	return &model.OptOutResponse{Status: model.StatusOptedOut, AlreadyOptedOut: false}, nil
}

// OptOutByPhone opts out every customer of the org whose phone matches the
// sender. Matching is by trailing ten digits. Returns the customer IDs that
// transitioned.
func (s *consentService) OptOutByPhone(ctx context.Context, orgID, phone string) ([]string, *serviceerror.ServiceError) {
	if err := utils.ValidateOrgID(orgID); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}
	if utils.NormalizeDigits(phone) == "" {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, "phone is required")
	}

	customerStore := s.stores.Customer.(customer.CustomerStore)
	candidates, err := customerStore.ListWithPhone(orgID)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}

	var optedOut []string
	for _, cust := range candidates {
		if cust.Phone == nil || !utils.SamePhone(*cust.Phone, phone) {
			continue
		}
		resp, svcErr := s.OptOut(ctx, cust.CustomerID, orgID, model.MethodSMSReply, nil)
		if svcErr != nil {
			s.logger.Error("Opt-out by phone failed for customer",
				log.String("customer_id", cust.CustomerID),
				log.String("org_id", orgID),
				log.String("error_description", svcErr.ErrorDescription),
			)
			continue
		}
		if !resp.AlreadyOptedOut {
			optedOut = append(optedOut, cust.CustomerID)
		}
	}
	return optedOut, nil
}

// RequestReoptIn issues a single-use confirmation token and emails the
// customer a confirmation link. The token is persisted before the email goes
// out, so a provider failure leaves a valid token behind and the org can
// resend the link without a new transition.
func (s *consentService) RequestReoptIn(ctx context.Context, customerID, orgID, actorID string) (*model.ReoptRequestResponse, *serviceerror.ServiceError) {
	if err := utils.ValidateOrgID(orgID); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}
	if err := utils.ValidateCustomerID(customerID); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}

	customerStore := s.stores.Customer.(customer.CustomerStore)
	cust, err := customerStore.GetByID(customerID, orgID)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}
	if cust == nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ResourceNotFoundError, "customer not found")
	}
	if cust.Email == nil || *cust.Email == "" {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, "customer has no email address on file")
	}

	consentStore := s.stores.Consent.(ConsentStore)
	record, err := consentStore.GetByCustomer(customerID, orgID)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}
	if record == nil || record.Status == model.StatusOptedIn {
		return nil, serviceerror.CustomServiceError(serviceerror.ConflictError, "customer is not opted out")
	}

	currentTime := s.now()
	if record.Status == model.StatusPendingReopt {
		// A live pending token blocks a second request; an expired one is
		// replaced.
		if record.ReoptTokenExpiresAt != nil && currentTime < *record.ReoptTokenExpiresAt && record.ReoptCompletedAt == nil {
			return nil, serviceerror.CustomServiceError(serviceerror.ConflictError, "a re-opt-in request is already pending")
		}
	}

	token, err := utils.GenerateOpaqueToken()
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.InternalServerError, err.Error())
	}

	cfg := config.Get()
	expiresAt := currentTime + cfg.Consent.GetReoptTokenTTL().Milliseconds()
	previousStatus := string(record.Status)

	record.Status = model.StatusPendingReopt
	record.ReoptRequestedAt = &currentTime
	record.ReoptCompletedAt = nil
	record.ReoptToken = &token
	record.ReoptTokenExpiresAt = &expiresAt
	record.UpdatedTime = currentTime

	audit := &model.AuditEntry{
		AuditID:        utils.GenerateUUID(),
		ConsentID:      record.ConsentID,
		Action:         model.ActionReoptRequested,
		ActorID:        &actorID,
		PreviousStatus: &previousStatus,
		CurrentStatus:  string(model.StatusPendingReopt),
		ActionTime:     currentTime,
		OrgID:          orgID,
	}

	queries := []func(tx dbmodel.TxInterface) error{
		func(tx dbmodel.TxInterface) error {
			return consentStore.Update(tx, record)
		},
		func(tx dbmodel.TxInterface) error {
			return consentStore.CreateAudit(tx, audit)
		},
	}
	if err := s.stores.ExecuteTransaction(queries); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}

	metrics.ReoptRequestedTotal.Inc()

	// The request is recorded at this point, so admins hear about it even if
	// the email delivery below fails.
	if s.notifier != nil {
		s.notifier.ReoptRequested(ctx, orgID, customerID, cust.Name)
	}

	link := buildReoptLink(cfg, token)
	subject := "Confirm SMS messages"
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>You previously unsubscribed from SMS messages. To start receiving them again, confirm using the link below.</p><p><a href=\"%s\">Confirm re-opt-in</a></p><p>This link expires in %d days. If you did not expect this email you can ignore it.</p>",
		cust.Name, link, int(cfg.Consent.GetReoptTokenTTL().Hours()/24))

	if err := s.emailSender.Send(ctx, *cust.Email, subject, body); err != nil {
		// The token stays valid; the org can retry the send later.
		return nil, serviceerror.CustomServiceError(serviceerror.ExternalFailureError, "confirmation email could not be delivered")
	}

	s.logger.Info("Re-opt-in requested",
		log.String("customer_id", customerID),
		log.String("org_id", orgID),
	)

	return &model.ReoptRequestResponse{
		Status:         model.StatusPendingReopt,
		TokenExpiresAt: expiresAt,
		EmailSentTo:    *cust.Email,
	}, nil
}

// ConfirmReoptIn resolves a confirmation token from the emailed link. A token
// whose expiry is at or before the current time is expired. The record keeps
// pending_reopt status until an org admin approves the re-opt-in.
func (s *consentService) ConfirmReoptIn(ctx context.Context, token string) (*model.ConfirmResponse, *serviceerror.ServiceError) {
	if token == "" {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, "token is required")
	}

	consentStore := s.stores.Consent.(ConsentStore)
	record, err := consentStore.GetByToken(token)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}
	if record == nil || record.Status != model.StatusPendingReopt {
		return nil, serviceerror.CustomServiceError(serviceerror.ResourceNotFoundError, "unknown or invalid token")
	}
	if record.ReoptCompletedAt != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.TokenUsedError, "this confirmation link has already been used")
	}

	currentTime := s.now()
	if record.ReoptTokenExpiresAt == nil || *record.ReoptTokenExpiresAt <= currentTime {
		return nil, serviceerror.CustomServiceError(serviceerror.TokenExpiredError, "this confirmation link has expired")
	}

	record.ReoptCompletedAt = &currentTime
	record.UpdatedTime = currentTime

	pendingStatus := string(model.StatusPendingReopt)
	audit := &model.AuditEntry{
		AuditID:        utils.GenerateUUID(),
		ConsentID:      record.ConsentID,
		Action:         model.ActionReoptConfirmed,
		PreviousStatus: &pendingStatus,
		CurrentStatus:  string(model.StatusPendingReopt),
		ActionTime:     currentTime,
		OrgID:          record.OrgID,
	}

	queries := []func(tx dbmodel.TxInterface) error{
		func(tx dbmodel.TxInterface) error {
			return consentStore.Update(tx, record)
		},
		func(tx dbmodel.TxInterface) error {
			return consentStore.CreateAudit(tx, audit)
		},
	}
	if err := s.stores.ExecuteTransaction(queries); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}

	metrics.ReoptConfirmedTotal.Inc()
	s.logger.Info("Re-opt-in confirmed",
		log.String("customer_id", record.CustomerID),
		log.String("org_id", record.OrgID),
	)

	if s.notifier != nil {
		customerName := record.CustomerID
		customerStore := s.stores.Customer.(customer.CustomerStore)
		if cust, err := customerStore.GetByID(record.CustomerID, record.OrgID); err == nil && cust != nil {
			customerName = cust.Name
		}
		s.notifier.ReoptConfirmed(ctx, record.OrgID, record.CustomerID, customerName)
	}

	return &model.ConfirmResponse{
		Result:           model.ConfirmResultConfirmed,
		Status:           model.StatusPendingReopt,
		ReoptCompletedAt: currentTime,
	}, nil
}

// ApproveReoptIn completes the re-opt-in: a confirmed pending record
// transitions to opted_in and the token is retired.
func (s *consentService) ApproveReoptIn(ctx context.Context, customerID, orgID, actorID string) (*model.Record, *serviceerror.ServiceError) {
	if err := utils.ValidateOrgID(orgID); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}
	if err := utils.ValidateCustomerID(customerID); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}

	consentStore := s.stores.Consent.(ConsentStore)
	record, err := consentStore.GetByCustomer(customerID, orgID)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}
	if record == nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ResourceNotFoundError, "no consent record for customer")
	}
	if record.Status != model.StatusPendingReopt || record.ReoptCompletedAt == nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ConflictError, "re-opt-in has not been confirmed by the customer")
	}

	currentTime := s.now()
	previousStatus := string(record.Status)

	record.Status = model.StatusOptedIn
	record.ReoptToken = nil
	record.ReoptTokenExpiresAt = nil
	record.UpdatedTime = currentTime

	audit := &model.AuditEntry{
		AuditID:        utils.GenerateUUID(),
		ConsentID:      record.ConsentID,
		Action:         model.ActionReoptApproved,
		ActorID:        &actorID,
		PreviousStatus: &previousStatus,
		CurrentStatus:  string(model.StatusOptedIn),
		ActionTime:     currentTime,
		OrgID:          orgID,
	}

	queries := []func(tx dbmodel.TxInterface) error{
		func(tx dbmodel.TxInterface) error {
			return consentStore.Update(tx, record)
		},
		func(tx dbmodel.TxInterface) error {
			return consentStore.CreateAudit(tx, audit)
		},
	}
	if err := s.stores.ExecuteTransaction(queries); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}

	s.logger.Info("Re-opt-in approved",
		log.String("customer_id", customerID),
		log.String("org_id", orgID),
		log.String("actor_id", actorID),
	)
	return record, nil
}

// GetByCustomer returns the consent record for a customer. A customer with
// no row has never opted out and is reported as opted_in.
func (s *consentService) GetByCustomer(ctx context.Context, customerID, orgID string) (*model.Record, *serviceerror.ServiceError) {
	if err := utils.ValidateOrgID(orgID); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}
	if err := utils.ValidateCustomerID(customerID); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}

	consentStore := s.stores.Consent.(ConsentStore)
	record, err := consentStore.GetByCustomer(customerID, orgID)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}
	if record == nil {
		return &model.Record{
			CustomerID: customerID,
			OrgID:      orgID,
			Status:     model.StatusOptedIn,
		}, nil
	}
	return record, nil
}

// GetAudit returns the audit trail for a customer's consent record, newest
// first. A customer with no record has an empty trail.
func (s *consentService) GetAudit(ctx context.Context, customerID, orgID string) ([]model.AuditEntry, *serviceerror.ServiceError) {
	if err := utils.ValidateOrgID(orgID); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}
	if err := utils.ValidateCustomerID(customerID); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}

	consentStore := s.stores.Consent.(ConsentStore)
	record, err := consentStore.GetByCustomer(customerID, orgID)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}
	if record == nil {
		return []model.AuditEntry{}, nil
	}

	entries, err := consentStore.GetAuditByConsentID(record.ConsentID, orgID)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}
	return entries, nil
}

// IsOptedOut reports whether outbound messaging to the customer is blocked.
// Both opted_out and pending_reopt block sends.
func (s *consentService) IsOptedOut(ctx context.Context, customerID, orgID string) (bool, *serviceerror.ServiceError) {
	record, svcErr := s.GetByCustomer(ctx, customerID, orgID)
	if svcErr != nil {
		return false, svcErr
	}
	return record.Status != model.StatusOptedIn, nil
}

func buildReoptLink(cfg *config.Config, token string) string {
	format := cfg.Consent.ReoptLinkFormat
	if format == "" {
		format = "%s/reopt-confirm?token=%s"
	}
	return fmt.Sprintf(format, cfg.Server.PublicURL, token)
}
