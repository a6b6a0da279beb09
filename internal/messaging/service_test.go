package messaging

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	custmodel "github.com/cxtrack/sms-consent-api/internal/customer/model"
	"github.com/cxtrack/sms-consent-api/internal/messaging/model"
	orgmodel "github.com/cxtrack/sms-consent-api/internal/organization/model"
	"github.com/cxtrack/sms-consent-api/internal/smsout"
	"github.com/cxtrack/sms-consent-api/internal/system/config"
	"github.com/cxtrack/sms-consent-api/internal/system/constants"
	dbmodel "github.com/cxtrack/sms-consent-api/internal/system/database/model"
	"github.com/cxtrack/sms-consent-api/internal/system/error/serviceerror"
	"github.com/cxtrack/sms-consent-api/internal/system/stores"
)

const (
	testOrgID      = "org-1"
	testCustomerID = "7c9e6679-7425-40de-944b-e07fc1f90ae7"
	orgNumber      = "+15550001111"
	customerNumber = "+15551234567"
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

type fakeMessagingStore struct {
	conversations map[string]*model.Conversation
	messages      map[string]*model.Message
}

func newFakeMessagingStore() *fakeMessagingStore {
	return &fakeMessagingStore{
		conversations: make(map[string]*model.Conversation),
		messages:      make(map[string]*model.Message),
	}
}

func (s *fakeMessagingStore) GetConversationByPhone(orgID, channelType, customerPhone string) (*model.Conversation, error) {
	for _, conv := range s.conversations {
		if conv.OrgID == orgID && conv.ChannelType == channelType && conv.CustomerPhone == customerPhone {
			return conv, nil
		}
	}
	return nil, nil
}

func (s *fakeMessagingStore) GetConversationByID(conversationID, orgID string) (*model.Conversation, error) {
	conv, ok := s.conversations[conversationID]
	if !ok || conv.OrgID != orgID {
		return nil, nil
	}
	return conv, nil
}

func (s *fakeMessagingStore) ListConversations(orgID string, limit, offset int) ([]model.Conversation, int, error) {
	var conversations []model.Conversation
	for _, conv := range s.conversations {
		if conv.OrgID == orgID {
			conversations = append(conversations, *conv)
		}
	}
	return conversations, len(conversations), nil
}

func (s *fakeMessagingStore) ListMessages(conversationID, orgID string, limit, offset int) ([]model.Message, int, error) {
	var messages []model.Message
	for _, msg := range s.messages {
		if msg.ConversationID == conversationID && msg.OrgID == orgID {
			messages = append(messages, *msg)
		}
	}
	return messages, len(messages), nil
}

func (s *fakeMessagingStore) UpdateMessageSendStatus(messageID, orgID string, status model.SendStatus, providerSID *string) error {
	msg, ok := s.messages[messageID]
	if !ok {
		return errors.New("message not found")
	}
	msg.SendStatus = &status
	msg.ProviderSID = providerSID
	return nil
}

func (s *fakeMessagingStore) CreateConversation(tx dbmodel.TxInterface, conversation *model.Conversation) error {
	copied := *conversation
	s.conversations[conversation.ConversationID] = &copied
	return nil
}

func (s *fakeMessagingStore) CreateMessage(tx dbmodel.TxInterface, message *model.Message) error {
	copied := *message
	s.messages[message.MessageID] = &copied
	return nil
}

func (s *fakeMessagingStore) TouchConversation(tx dbmodel.TxInterface, conversationID, orgID string, lastMessageAt int64) error {
	conv, ok := s.conversations[conversationID]
	if !ok {
		return errors.New("conversation not found")
	}
	conv.LastMessageAt = lastMessageAt
	return nil
}

type fakeOrgStore struct {
	provisioned map[string]string // phone -> orgID
	settings    map[string]*orgmodel.Settings
}

func newFakeOrgStore() *fakeOrgStore {
	return &fakeOrgStore{
		provisioned: make(map[string]string),
		settings:    make(map[string]*orgmodel.Settings),
	}
}

func (s *fakeOrgStore) GetOrgIDByStripeCustomer(stripeCustomerID string) (string, error) {
	return "", nil
}

func (s *fakeOrgStore) GetOrgIDByProvisionedNumber(phoneNumber string) (string, error) {
	return s.provisioned[phoneNumber], nil
}

func (s *fakeOrgStore) GetProvisionedNumberByOrg(orgID string) (*orgmodel.ProvisionedNumber, error) {
	for phone, owner := range s.provisioned {
		if owner == orgID {
			return &orgmodel.ProvisionedNumber{PhoneNumber: phone, OrgID: orgID}, nil
		}
	}
	return nil, nil
}

func (s *fakeOrgStore) ListSettingsWithNumber() ([]orgmodel.Settings, error) {
	var entries []orgmodel.Settings
	for _, entry := range s.settings {
		if entry.SMSNumber != nil {
			entries = append(entries, *entry)
		}
	}
	return entries, nil
}

func (s *fakeOrgStore) GetSettings(orgID string) (*orgmodel.Settings, error) {
	return s.settings[orgID], nil
}

func (s *fakeOrgStore) ListMembers(orgID string) ([]orgmodel.Member, error) { return nil, nil }

func (s *fakeOrgStore) ListMembersByRole(orgID, role string) ([]orgmodel.Member, error) {
	return nil, nil
}

type fakeCustomerStore struct {
	customers []custmodel.Customer
}

func (s *fakeCustomerStore) GetByID(customerID, orgID string) (*custmodel.Customer, error) {
	for i := range s.customers {
		if s.customers[i].CustomerID == customerID && s.customers[i].OrgID == orgID {
			return &s.customers[i], nil
		}
	}
	return nil, nil
}

func (s *fakeCustomerStore) List(orgID string, limit, offset int) ([]custmodel.Customer, int, error) {
	return s.customers, len(s.customers), nil
}

func (s *fakeCustomerStore) ListWithPhone(orgID string) ([]custmodel.Customer, error) {
	var withPhone []custmodel.Customer
	for _, cust := range s.customers {
		if cust.OrgID == orgID && cust.Phone != nil {
			withPhone = append(withPhone, cust)
		}
	}
	return withPhone, nil
}

type fakeConsentGate struct {
	optOutCalls []string // phones passed to OptOutByPhone
	optedOut    map[string]bool
	gateErr     *serviceerror.ServiceError
}

func (g *fakeConsentGate) OptOutByPhone(ctx context.Context, orgID, phone string) ([]string, *serviceerror.ServiceError) {
	g.optOutCalls = append(g.optOutCalls, phone)
	if g.gateErr != nil {
		return nil, g.gateErr
	}
	return []string{testCustomerID}, nil
}

func (g *fakeConsentGate) IsOptedOut(ctx context.Context, customerID, orgID string) (bool, *serviceerror.ServiceError) {
	return g.optedOut[customerID], nil
}

type fakeSMSSender struct {
	fail  bool
	sent  []string // bodies
	froms []string
	tos   []string
}

func (s *fakeSMSSender) Send(ctx context.Context, from, to, body string) (*smsout.SendResult, error) {
	if s.fail {
		return nil, errors.New("provider unavailable")
	}
	s.froms = append(s.froms, from)
	s.tos = append(s.tos, to)
	s.sent = append(s.sent, body)
	return &smsout.SendResult{ProviderSID: "SM123", Status: "queued"}, nil
}

type messagingTestEnv struct {
	service        *messagingService
	messagingStore *fakeMessagingStore
	orgStore       *fakeOrgStore
	customerStore  *fakeCustomerStore
	consentGate    *fakeConsentGate
	smsSender      *fakeSMSSender
}

func setupMessagingTest(t *testing.T) *messagingTestEnv {
	t.Helper()

	config.SetGlobal(&config.Config{
		Server: config.ServerConfig{PublicURL: "http://localhost:8080"},
	})

	registry := stores.NewStoreRegistry(&fakeDBClient{})
	messagingStore := newFakeMessagingStore()
	orgStore := newFakeOrgStore()
	customerStore := &fakeCustomerStore{}
	registry.Messaging = messagingStore
	registry.Organization = orgStore
	registry.Customer = customerStore

	orgStore.provisioned[orgNumber] = testOrgID
	phone := customerNumber
	customerStore.customers = append(customerStore.customers, custmodel.Customer{
		CustomerID: testCustomerID,
		OrgID:      testOrgID,
		Name:       "Jane Doe",
		Phone:      &phone,
	})

	consentGate := &fakeConsentGate{optedOut: make(map[string]bool)}
	smsSender := &fakeSMSSender{}

	return &messagingTestEnv{
		service:        newMessagingService(registry, consentGate, smsSender).(*messagingService),
		messagingStore: messagingStore,
		orgStore:       orgStore,
		customerStore:  customerStore,
		consentGate:    consentGate,
		smsSender:      smsSender,
	}
}

func (env *messagingTestEnv) addConversation(customerID *string) *model.Conversation {
	conv := &model.Conversation{
		ConversationID: "b1c2d3e4-0000-0000-0000-000000000001",
		OrgID:          testOrgID,
		ChannelType:    constants.ChannelTypeSMS,
		CustomerPhone:  customerNumber,
		CustomerID:     customerID,
		LastMessageAt:  1,
		CreatedTime:    1,
	}
	env.messagingStore.conversations[conv.ConversationID] = conv
	return conv
}

func TestHandleInboundStopKeywords(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantsStop bool
	}{
		{"uppercase", "STOP", true},
		{"lowercase", "stop", true},
		{"mixed case padded", "  Stop ", true},
		{"unsubscribe", "unsubscribe", true},
		{"plain message", "Hello there", false},
		{"keyword inside sentence", "please stop texting", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env := setupMessagingTest(t)

			svcErr := env.service.HandleInbound(context.Background(), model.InboundSMS{
				From:       customerNumber,
				To:         orgNumber,
				Body:       tc.body,
				MessageSID: "SMinbound",
			})
			require.Nil(t, svcErr)

			if tc.wantsStop {
				require.Len(t, env.consentGate.optOutCalls, 1)
				assert.Equal(t, customerNumber, env.consentGate.optOutCalls[0])
			} else {
				assert.Empty(t, env.consentGate.optOutCalls)
			}

			// The message is recorded either way.
			assert.Len(t, env.messagingStore.messages, 1)
		})
	}
}

func TestHandleInboundCreatesConversationWithCustomerMatch(t *testing.T) {
	env := setupMessagingTest(t)

	svcErr := env.service.HandleInbound(context.Background(), model.InboundSMS{
		From: "5551234567", // bare national format still matches the customer
		To:   orgNumber,
		Body: "Hi",
	})
	require.Nil(t, svcErr)

	require.Len(t, env.messagingStore.conversations, 1)
	for _, conv := range env.messagingStore.conversations {
		assert.Equal(t, testOrgID, conv.OrgID)
		assert.Equal(t, "5551234567", conv.CustomerPhone)
		require.NotNil(t, conv.CustomerID)
		assert.Equal(t, testCustomerID, *conv.CustomerID)
	}

	require.Len(t, env.messagingStore.messages, 1)
	for _, msg := range env.messagingStore.messages {
		assert.Equal(t, model.DirectionInbound, msg.Direction)
		assert.Equal(t, "Hi", msg.Body)
	}
}

func TestHandleInboundReusesConversation(t *testing.T) {
	env := setupMessagingTest(t)
	conv := env.addConversation(nil)

	svcErr := env.service.HandleInbound(context.Background(), model.InboundSMS{
		From: customerNumber,
		To:   orgNumber,
		Body: "Second message",
	})
	require.Nil(t, svcErr)

	assert.Len(t, env.messagingStore.conversations, 1)
	assert.Greater(t, env.messagingStore.conversations[conv.ConversationID].LastMessageAt, int64(1))

	require.Len(t, env.messagingStore.messages, 1)
	for _, msg := range env.messagingStore.messages {
		assert.Equal(t, conv.ConversationID, msg.ConversationID)
	}
}

func TestHandleInboundUnknownNumberIsDropped(t *testing.T) {
	env := setupMessagingTest(t)

	svcErr := env.service.HandleInbound(context.Background(), model.InboundSMS{
		From: customerNumber,
		To:   "+19998887777",
		Body: "STOP",
	})
	require.Nil(t, svcErr)
	assert.Empty(t, env.consentGate.optOutCalls)
	assert.Empty(t, env.messagingStore.messages)
}

func TestHandleInboundSettingsNumberFallback(t *testing.T) {
	env := setupMessagingTest(t)

	settingsNumber := "+15552223333"
	env.orgStore.settings["org-2"] = &orgmodel.Settings{OrgID: "org-2", SMSNumber: &settingsNumber}

	svcErr := env.service.HandleInbound(context.Background(), model.InboundSMS{
		From: customerNumber,
		To:   "5552223333",
		Body: "Hi",
	})
	require.Nil(t, svcErr)

	require.Len(t, env.messagingStore.conversations, 1)
	for _, conv := range env.messagingStore.conversations {
		assert.Equal(t, "org-2", conv.OrgID)
	}
}

func TestHandleInboundRecordsEvenWhenOptOutFails(t *testing.T) {
	env := setupMessagingTest(t)
	env.consentGate.gateErr = serviceerror.CustomServiceError(serviceerror.DatabaseError, "down")

	svcErr := env.service.HandleInbound(context.Background(), model.InboundSMS{
		From: customerNumber,
		To:   orgNumber,
		Body: "STOP",
	})
	require.Nil(t, svcErr)
	assert.Len(t, env.messagingStore.messages, 1)
}

func TestSendMessageSuccess(t *testing.T) {
	env := setupMessagingTest(t)
	customerID := testCustomerID
	conv := env.addConversation(&customerID)

	msg, svcErr := env.service.SendMessage(context.Background(), testOrgID, conv.ConversationID, "user-1", "Your order shipped")
	require.Nil(t, svcErr)
	assert.Equal(t, model.DirectionOutbound, msg.Direction)
	require.NotNil(t, msg.SendStatus)
	assert.Equal(t, model.SendStatusSent, *msg.SendStatus)
	require.NotNil(t, msg.ProviderSID)
	assert.Equal(t, "SM123", *msg.ProviderSID)

	require.Len(t, env.smsSender.sent, 1)
	assert.Equal(t, orgNumber, env.smsSender.froms[0])
	assert.Equal(t, customerNumber, env.smsSender.tos[0])
}

func TestSendMessageBlockedWhenOptedOut(t *testing.T) {
	env := setupMessagingTest(t)
	customerID := testCustomerID
	conv := env.addConversation(&customerID)
	env.consentGate.optedOut[testCustomerID] = true

	_, svcErr := env.service.SendMessage(context.Background(), testOrgID, conv.ConversationID, "user-1", "Hello")
	require.NotNil(t, svcErr)
	assert.Equal(t, serviceerror.ConflictError.Code, svcErr.Code)

	assert.Empty(t, env.smsSender.sent)
	assert.Empty(t, env.messagingStore.messages)
}

func TestSendMessageNoSendingNumber(t *testing.T) {
	env := setupMessagingTest(t)
	conv := env.addConversation(nil)
	delete(env.orgStore.provisioned, orgNumber)

	_, svcErr := env.service.SendMessage(context.Background(), testOrgID, conv.ConversationID, "user-1", "Hello")
	require.NotNil(t, svcErr)
	assert.Equal(t, serviceerror.ConflictError.Code, svcErr.Code)
	assert.Empty(t, env.smsSender.sent)
}

func TestSendMessageProviderFailure(t *testing.T) {
	env := setupMessagingTest(t)
	conv := env.addConversation(nil)
	env.smsSender.fail = true

	_, svcErr := env.service.SendMessage(context.Background(), testOrgID, conv.ConversationID, "user-1", "Hello")
	require.NotNil(t, svcErr)
	assert.Equal(t, serviceerror.ExternalFailureError.Code, svcErr.Code)

	// The message row survives with a failed status.
	require.Len(t, env.messagingStore.messages, 1)
	for _, msg := range env.messagingStore.messages {
		require.NotNil(t, msg.SendStatus)
		assert.Equal(t, model.SendStatusFailed, *msg.SendStatus)
	}
}

func TestSendMessageUnknownConversation(t *testing.T) {
	env := setupMessagingTest(t)

	_, svcErr := env.service.SendMessage(context.Background(), testOrgID, "missing", "user-1", "Hello")
	require.NotNil(t, svcErr)
	assert.Equal(t, serviceerror.ResourceNotFoundError.Code, svcErr.Code)
}

func TestListMessagesUnknownConversation(t *testing.T) {
	env := setupMessagingTest(t)

	_, _, svcErr := env.service.ListMessages(context.Background(), "missing", testOrgID, 30, 0)
	require.NotNil(t, svcErr)
	assert.Equal(t, serviceerror.ResourceNotFoundError.Code, svcErr.Code)
}

func TestListConversationsRejectsBadPagination(t *testing.T) {
	env := setupMessagingTest(t)

	_, _, svcErr := env.service.ListConversations(context.Background(), testOrgID, 0, 0)
	require.NotNil(t, svcErr)
	assert.Equal(t, serviceerror.ValidationError.Code, svcErr.Code)

	_, _, svcErr = env.service.ListConversations(context.Background(), testOrgID, 30, -1)
	require.NotNil(t, svcErr)
	assert.Equal(t, serviceerror.ValidationError.Code, svcErr.Code)
}
