package messaging

import (
	"context"
	"strings"

	"github.com/cxtrack/sms-consent-api/internal/customer"
	"github.com/cxtrack/sms-consent-api/internal/messaging/model"
	"github.com/cxtrack/sms-consent-api/internal/organization"
	"github.com/cxtrack/sms-consent-api/internal/smsout"
	"github.com/cxtrack/sms-consent-api/internal/system/config"
	"github.com/cxtrack/sms-consent-api/internal/system/constants"
	dbmodel "github.com/cxtrack/sms-consent-api/internal/system/database/model"
	"github.com/cxtrack/sms-consent-api/internal/system/error/serviceerror"
	"github.com/cxtrack/sms-consent-api/internal/system/log"
	"github.com/cxtrack/sms-consent-api/internal/system/metrics"
	"github.com/cxtrack/sms-consent-api/internal/system/stores"
	"github.com/cxtrack/sms-consent-api/internal/system/utils"
)

// ConsentGate is the slice of the consent service the messaging flows need:
// keyword opt-outs on inbound traffic and the send gate on outbound.
type ConsentGate interface {
	OptOutByPhone(ctx context.Context, orgID, phone string) ([]string, *serviceerror.ServiceError)
	IsOptedOut(ctx context.Context, customerID, orgID string) (bool, *serviceerror.ServiceError)
}

// MessagingService defines the exported service interface
type MessagingService interface {
	HandleInbound(ctx context.Context, sms model.InboundSMS) *serviceerror.ServiceError
	SendMessage(ctx context.Context, orgID, conversationID, senderUserID, body string) (*model.Message, *serviceerror.ServiceError)
	ListConversations(ctx context.Context, orgID string, limit, offset int) ([]model.Conversation, int, *serviceerror.ServiceError)
	ListMessages(ctx context.Context, conversationID, orgID string, limit, offset int) ([]model.Message, int, *serviceerror.ServiceError)
}

// messagingService implements the MessagingService interface
type messagingService struct {
	stores      *stores.StoreRegistry
	consentGate ConsentGate
	smsSender   smsout.Sender
	logger      *log.Logger
}

// newMessagingService creates a new messaging service
func newMessagingService(registry *stores.StoreRegistry, consentGate ConsentGate, smsSender smsout.Sender) MessagingService {
	return &messagingService{
		stores:      registry,
		consentGate: consentGate,
		smsSender:   smsSender,
		logger:      log.GetLogger().With(log.String(log.LoggerKeyComponentName, "MessagingService")),
	}
}

// HandleInbound processes a carrier webhook delivery: resolves the receiving
// org, records the message in its conversation, and applies stop-keyword
// opt-outs. Errors are surfaced for logging only; the webhook handler
// acknowledges the carrier regardless.
func (s *messagingService) HandleInbound(ctx context.Context, sms model.InboundSMS) *serviceerror.ServiceError {
	metrics.InboundSMSTotal.Inc()

	if sms.From == "" || sms.To == "" {
		return serviceerror.CustomServiceError(serviceerror.ValidationError, "From and To are required")
	}

	orgID, svcErr := s.resolveOrgIDByNumber(sms.To)
	if svcErr != nil {
		return svcErr
	}
	if orgID == "" {
		s.logger.Warn("Inbound SMS for unknown receiving number", log.String("to", sms.To))
		return nil
	}

	if isStopKeyword(sms.Body) {
		metrics.StopKeywordTotal.Inc()
		optedOut, svcErr := s.consentGate.OptOutByPhone(ctx, orgID, sms.From)
		if svcErr != nil {
			s.logger.Error("Stop keyword opt-out failed",
				log.String("org_id", orgID),
				log.String("error_description", svcErr.ErrorDescription),
			)
		} else {
			s.logger.Info("Stop keyword processed",
				log.String("org_id", orgID),
				log.Int("customers_opted_out", len(optedOut)),
			)
		}
	}

	return s.recordInbound(orgID, sms)
}

// recordInbound writes the inbound message into its conversation, creating
// the conversation on first contact.
func (s *messagingService) recordInbound(orgID string, sms model.InboundSMS) *serviceerror.ServiceError {
	messagingStore := s.stores.Messaging.(MessagingStore)
	currentTime := utils.GetCurrentTimeMillis()

	conversation, err := messagingStore.GetConversationByPhone(orgID, constants.ChannelTypeSMS, sms.From)
	if err != nil {
		return serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}

	var queries []func(tx dbmodel.TxInterface) error

	if conversation == nil {
		conversation = &model.Conversation{
			ConversationID: utils.GenerateUUID(),
			OrgID:          orgID,
			ChannelType:    constants.ChannelTypeSMS,
			CustomerPhone:  sms.From,
			CustomerID:     s.matchCustomerID(orgID, sms.From),
			LastMessageAt:  currentTime,
			CreatedTime:    currentTime,
		}
		created := conversation
		queries = append(queries, func(tx dbmodel.TxInterface) error {
			return messagingStore.CreateConversation(tx, created)
		})
	} else {
		conversationID := conversation.ConversationID
		queries = append(queries, func(tx dbmodel.TxInterface) error {
			return messagingStore.TouchConversation(tx, conversationID, orgID, currentTime)
		})
	}

	message := &model.Message{
		MessageID:      utils.GenerateUUID(),
		ConversationID: conversation.ConversationID,
		OrgID:          orgID,
		Direction:      model.DirectionInbound,
		Body:           sms.Body,
		CreatedTime:    currentTime,
	}
	if sms.MessageSID != "" {
		sid := sms.MessageSID
		message.ProviderSID = &sid
	}
	queries = append(queries, func(tx dbmodel.TxInterface) error {
		return messagingStore.CreateMessage(tx, message)
	})

	if err := s.stores.ExecuteTransaction(queries); err != nil {
		return serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}
	return nil
}

// SendMessage dispatches an outbound SMS on an existing conversation. Sends
// to a customer who is not opted in are rejected before any provider call.
func (s *messagingService) SendMessage(ctx context.Context, orgID, conversationID, senderUserID, body string) (*model.Message, *serviceerror.ServiceError) {
	if err := utils.ValidateOrgID(orgID); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}
	if err := utils.ValidateRequired("conversationID", conversationID); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}
	if err := utils.ValidateRequired("body", body); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}

	messagingStore := s.stores.Messaging.(MessagingStore)
	conversation, err := messagingStore.GetConversationByID(conversationID, orgID)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}
	if conversation == nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ResourceNotFoundError, "conversation not found")
	}

	if conversation.CustomerID != nil {
		blocked, svcErr := s.consentGate.IsOptedOut(ctx, *conversation.CustomerID, orgID)
		if svcErr != nil {
			return nil, svcErr
		}
		if blocked {
			return nil, serviceerror.CustomServiceError(serviceerror.ConflictError, "customer has opted out of SMS messages")
		}
	}

	fromNumber, svcErr := s.resolveSendingNumber(orgID)
	if svcErr != nil {
		return nil, svcErr
	}

	currentTime := utils.GetCurrentTimeMillis()
	queuedStatus := model.SendStatusQueued
	message := &model.Message{
		MessageID:      utils.GenerateUUID(),
		ConversationID: conversationID,
		OrgID:          orgID,
		Direction:      model.DirectionOutbound,
		Body:           body,
		SendStatus:     &queuedStatus,
		SenderUserID:   &senderUserID,
		CreatedTime:    currentTime,
	}

	queries := []func(tx dbmodel.TxInterface) error{
		func(tx dbmodel.TxInterface) error {
			return messagingStore.CreateMessage(tx, message)
		},
		func(tx dbmodel.TxInterface) error {
			return messagingStore.TouchConversation(tx, conversationID, orgID, currentTime)
		},
	}
	if err := s.stores.ExecuteTransaction(queries); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}

	result, err := s.smsSender.Send(ctx, fromNumber, conversation.CustomerPhone, body)
	if err != nil {
		failedStatus := model.SendStatusFailed
		if updateErr := messagingStore.UpdateMessageSendStatus(message.MessageID, orgID, failedStatus, nil); updateErr != nil {
			s.logger.Error("Failed to record message send failure", log.Error(updateErr))
		}
		message.SendStatus = &failedStatus
		return nil, serviceerror.CustomServiceError(serviceerror.ExternalFailureError, "message could not be delivered to the provider")
	}

	sentStatus := model.SendStatusSent
	var providerSID *string
	if result.ProviderSID != "" {
		sid := result.ProviderSID
		providerSID = &sid
	}
	if err := messagingStore.UpdateMessageSendStatus(message.MessageID, orgID, sentStatus, providerSID); err != nil {
		s.logger.Error("Failed to record message send success", log.Error(err))
	}
	message.SendStatus = &sentStatus
	message.ProviderSID = providerSID

	return message, nil
}

// ListConversations retrieves paginated conversations for an org.
func (s *messagingService) ListConversations(ctx context.Context, orgID string, limit, offset int) ([]model.Conversation, int, *serviceerror.ServiceError) {
	if err := utils.ValidateOrgID(orgID); err != nil {
		return nil, 0, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}
	if err := utils.ValidatePagination(limit, offset); err != nil {
		return nil, 0, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}

	messagingStore := s.stores.Messaging.(MessagingStore)
	conversations, total, err := messagingStore.ListConversations(orgID, limit, offset)
	if err != nil {
		return nil, 0, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}
	return conversations, total, nil
}

// ListMessages retrieves paginated messages for a conversation.
func (s *messagingService) ListMessages(ctx context.Context, conversationID, orgID string, limit, offset int) ([]model.Message, int, *serviceerror.ServiceError) {
	if err := utils.ValidateOrgID(orgID); err != nil {
		return nil, 0, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}
	if err := utils.ValidatePagination(limit, offset); err != nil {
		return nil, 0, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}

	messagingStore := s.stores.Messaging.(MessagingStore)
	conversation, err := messagingStore.GetConversationByID(conversationID, orgID)
	if err != nil {
		return nil, 0, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}
	if conversation == nil {
		return nil, 0, serviceerror.CustomServiceError(serviceerror.ResourceNotFoundError, "conversation not found")
	}

	messages, total, err := messagingStore.ListMessages(conversationID, orgID, limit, offset)
	if err != nil {
		return nil, 0, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}
	return messages, total, nil
}

// resolveOrgIDByNumber maps a receiving number to an org. Provisioned
// numbers match exactly and win over manually configured settings numbers,
// which match on trailing digits to tolerate formatting differences.
func (s *messagingService) resolveOrgIDByNumber(to string) (string, *serviceerror.ServiceError) {
	orgStore := s.stores.Organization.(organization.OrganizationStore)

	orgID, err := orgStore.GetOrgIDByProvisionedNumber(to)
	if err != nil {
		return "", serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}
	if orgID != "" {
		return orgID, nil
	}

	settings, err := orgStore.ListSettingsWithNumber()
	if err != nil {
		return "", serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}
	for _, entry := range settings {
		if entry.SMSNumber != nil && utils.SamePhone(*entry.SMSNumber, to) {
			return entry.OrgID, nil
		}
	}
	return "", nil
}

// resolveSendingNumber picks the From number for an org's outbound sends,
// preferring a provisioned number over the settings number.
func (s *messagingService) resolveSendingNumber(orgID string) (string, *serviceerror.ServiceError) {
	orgStore := s.stores.Organization.(organization.OrganizationStore)

	provisioned, err := orgStore.GetProvisionedNumberByOrg(orgID)
	if err != nil {
		return "", serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}
	if provisioned != nil {
		return provisioned.PhoneNumber, nil
	}

	settings, err := orgStore.GetSettings(orgID)
	if err != nil {
		return "", serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}
	if settings != nil && settings.SMSNumber != nil && *settings.SMSNumber != "" {
		return *settings.SMSNumber, nil
	}
	return "", serviceerror.CustomServiceError(serviceerror.ConflictError, "organization has no sending number configured")
}

// matchCustomerID finds the org customer whose phone matches the sender, by
// trailing ten digits. Returns nil when no customer matches.
func (s *messagingService) matchCustomerID(orgID, phone string) *string {
	customerStore := s.stores.Customer.(customer.CustomerStore)
	candidates, err := customerStore.ListWithPhone(orgID)
	if err != nil {
		s.logger.Error("Customer phone match failed", log.Error(err))
		return nil
	}
	for _, cust := range candidates {
		if cust.Phone != nil && utils.SamePhone(*cust.Phone, phone) {
			customerID := cust.CustomerID
			return &customerID
		}
	}
	return nil
}

// isStopKeyword reports whether the message body is a carrier stop keyword.
// Comparison is case-insensitive on the trimmed body.
func isStopKeyword(body string) bool {
	normalized := strings.ToUpper(strings.TrimSpace(body))
	if normalized == "" {
		return false
	}
	cfg := config.Get()
	if cfg == nil {
		cfg = &config.Config{}
	}
	for _, keyword := range cfg.Consent.GetStopKeywords() {
		if normalized == strings.ToUpper(keyword) {
			return true
		}
	}
	return false
}
