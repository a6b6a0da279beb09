package messaging

import (
	"github.com/cxtrack/sms-consent-api/internal/messaging/model"
	dbmodel "github.com/cxtrack/sms-consent-api/internal/system/database/model"
	"github.com/cxtrack/sms-consent-api/internal/system/database/provider"
)

// DBQuery objects for messaging operations
var (
	QueryCreateConversation = dbmodel.DBQuery{
		ID:    "CREATE_CONVERSATION",
		Query: "INSERT INTO CONVERSATION (CONVERSATION_ID, ORG_ID, CHANNEL_TYPE, CUSTOMER_PHONE, CUSTOMER_ID, LAST_MESSAGE_AT, CREATED_TIME) VALUES (?, ?, ?, ?, ?, ?, ?)",
	}

	QueryGetConversationByPhone = dbmodel.DBQuery{
		ID:    "GET_CONVERSATION_BY_PHONE",
		Query: "SELECT CONVERSATION_ID, ORG_ID, CHANNEL_TYPE, CUSTOMER_PHONE, CUSTOMER_ID, LAST_MESSAGE_AT, CREATED_TIME FROM CONVERSATION WHERE ORG_ID = ? AND CHANNEL_TYPE = ? AND CUSTOMER_PHONE = ?",
	}

	QueryGetConversationByID = dbmodel.DBQuery{
		ID:    "GET_CONVERSATION_BY_ID",
		Query: "SELECT CONVERSATION_ID, ORG_ID, CHANNEL_TYPE, CUSTOMER_PHONE, CUSTOMER_ID, LAST_MESSAGE_AT, CREATED_TIME FROM CONVERSATION WHERE CONVERSATION_ID = ? AND ORG_ID = ?",
	}

	QueryListConversations = dbmodel.DBQuery{
		ID:    "LIST_CONVERSATIONS",
		Query: "SELECT CONVERSATION_ID, ORG_ID, CHANNEL_TYPE, CUSTOMER_PHONE, CUSTOMER_ID, LAST_MESSAGE_AT, CREATED_TIME FROM CONVERSATION WHERE ORG_ID = ? ORDER BY LAST_MESSAGE_AT DESC LIMIT ? OFFSET ?",
	}

	QueryCountConversations = dbmodel.DBQuery{
		ID:    "COUNT_CONVERSATIONS",
		Query: "SELECT COUNT(*) as count FROM CONVERSATION WHERE ORG_ID = ?",
	}

	QueryTouchConversation = dbmodel.DBQuery{
		ID:    "TOUCH_CONVERSATION",
		Query: "UPDATE CONVERSATION SET LAST_MESSAGE_AT = ? WHERE CONVERSATION_ID = ? AND ORG_ID = ?",
	}

	QueryCreateMessage = dbmodel.DBQuery{
		ID:    "CREATE_MESSAGE",
		Query: "INSERT INTO MESSAGE (MESSAGE_ID, CONVERSATION_ID, ORG_ID, DIRECTION, BODY, PROVIDER_SID, SEND_STATUS, SENDER_USER_ID, CREATED_TIME) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
	}

	QueryListMessages = dbmodel.DBQuery{
		ID:    "LIST_MESSAGES",
		Query: "SELECT MESSAGE_ID, CONVERSATION_ID, ORG_ID, DIRECTION, BODY, PROVIDER_SID, SEND_STATUS, SENDER_USER_ID, CREATED_TIME FROM MESSAGE WHERE CONVERSATION_ID = ? AND ORG_ID = ? ORDER BY CREATED_TIME DESC LIMIT ? OFFSET ?",
	}

	QueryCountMessages = dbmodel.DBQuery{
		ID:    "COUNT_MESSAGES",
		Query: "SELECT COUNT(*) as count FROM MESSAGE WHERE CONVERSATION_ID = ? AND ORG_ID = ?",
	}

	QueryUpdateMessageSendStatus = dbmodel.DBQuery{
		ID:    "UPDATE_MESSAGE_SEND_STATUS",
		Query: "UPDATE MESSAGE SET SEND_STATUS = ?, PROVIDER_SID = ? WHERE MESSAGE_ID = ? AND ORG_ID = ?",
	}
)

// MessagingStore defines the interface for conversation and message data
// operations. Message inserts run inside transactions together with the
// conversation LAST_MESSAGE_AT bump.
type MessagingStore interface {
	GetConversationByPhone(orgID, channelType, customerPhone string) (*model.Conversation, error)
	GetConversationByID(conversationID, orgID string) (*model.Conversation, error)
	ListConversations(orgID string, limit, offset int) ([]model.Conversation, int, error)
	ListMessages(conversationID, orgID string, limit, offset int) ([]model.Message, int, error)
	UpdateMessageSendStatus(messageID, orgID string, status model.SendStatus, providerSID *string) error

	CreateConversation(tx dbmodel.TxInterface, conversation *model.Conversation) error
	CreateMessage(tx dbmodel.TxInterface, message *model.Message) error
	TouchConversation(tx dbmodel.TxInterface, conversationID, orgID string, lastMessageAt int64) error
}

// store implements the MessagingStore interface
type store struct {
	dbClient provider.DBClientInterface
}

// NewStore creates and returns a new messaging store (exported for registry)
func NewStore(dbClient provider.DBClientInterface) interface{} {
	return newMessagingStore(dbClient)
}

func newMessagingStore(dbClient provider.DBClientInterface) MessagingStore {
	return &store{
		dbClient: dbClient,
	}
}

// GetConversationByPhone retrieves the conversation keyed by
// (org, channel, phone). Returns nil when absent.
func (s *store) GetConversationByPhone(orgID, channelType, customerPhone string) (*model.Conversation, error) {
	rows, err := s.dbClient.Query(QueryGetConversationByPhone, orgID, channelType, customerPhone)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return mapToConversation(rows[0]), nil
}

// GetConversationByID retrieves a conversation by ID. Returns nil when absent.
func (s *store) GetConversationByID(conversationID, orgID string) (*model.Conversation, error) {
	rows, err := s.dbClient.Query(QueryGetConversationByID, conversationID, orgID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return mapToConversation(rows[0]), nil
}

// ListConversations retrieves paginated conversations for an org, most
// recently active first.
func (s *store) ListConversations(orgID string, limit, offset int) ([]model.Conversation, int, error) {
	countRows, err := s.dbClient.Query(QueryCountConversations, orgID)
	if err != nil {
		return nil, 0, err
	}

	totalCount := 0
	if len(countRows) > 0 {
		if count, ok := countRows[0]["count"].(int64); ok {
			totalCount = int(count)
		}
	}

	rows, err := s.dbClient.Query(QueryListConversations, orgID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	conversations := make([]model.Conversation, 0, len(rows))
	for _, row := range rows {
		c := mapToConversation(row)
		if c != nil {
			conversations = append(conversations, *c)
		}
	}
	return conversations, totalCount, nil
}

// ListMessages retrieves paginated messages for a conversation, newest first.
func (s *store) ListMessages(conversationID, orgID string, limit, offset int) ([]model.Message, int, error) {
	countRows, err := s.dbClient.Query(QueryCountMessages, conversationID, orgID)
	if err != nil {
		return nil, 0, err
	}

	totalCount := 0
	if len(countRows) > 0 {
		if count, ok := countRows[0]["count"].(int64); ok {
			totalCount = int(count)
		}
	}

	rows, err := s.dbClient.Query(QueryListMessages, conversationID, orgID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	messages := make([]model.Message, 0, len(rows))
	for _, row := range rows {
		m := mapToMessage(row)
		if m != nil {
			messages = append(messages, *m)
		}
	}
	return messages, totalCount, nil
}

// UpdateMessageSendStatus records the provider outcome of an outbound send.
func (s *store) UpdateMessageSendStatus(messageID, orgID string, status model.SendStatus, providerSID *string) error {
	_, err := s.dbClient.Execute(QueryUpdateMessageSendStatus, string(status), providerSID, messageID, orgID)
	return err
}

// CreateConversation inserts a conversation within a transaction
func (s *store) CreateConversation(tx dbmodel.TxInterface, conversation *model.Conversation) error {
	_, err := tx.Exec(QueryCreateConversation.Query,
		conversation.ConversationID, conversation.OrgID, conversation.ChannelType,
		conversation.CustomerPhone, conversation.CustomerID,
		conversation.LastMessageAt, conversation.CreatedTime)
	return err
}

// CreateMessage inserts a message within a transaction
func (s *store) CreateMessage(tx dbmodel.TxInterface, message *model.Message) error {
	_, err := tx.Exec(QueryCreateMessage.Query,
		message.MessageID, message.ConversationID, message.OrgID,
		string(message.Direction), message.Body, message.ProviderSID,
		message.SendStatus, message.SenderUserID, message.CreatedTime)
	return err
}

// TouchConversation bumps LAST_MESSAGE_AT within a transaction
func (s *store) TouchConversation(tx dbmodel.TxInterface, conversationID, orgID string, lastMessageAt int64) error {
	_, err := tx.Exec(QueryTouchConversation.Query, lastMessageAt, conversationID, orgID)
	return err
}

// Mapper functions

func mapToConversation(row map[string]interface{}) *model.Conversation {
	if row == nil {
		return nil
	}

	conversation := &model.Conversation{}

	if v, ok := row["CONVERSATION_ID"].(string); ok {
		conversation.ConversationID = v
	}
	if v, ok := row["ORG_ID"].(string); ok {
		conversation.OrgID = v
	}
	if v, ok := row["CHANNEL_TYPE"].(string); ok {
		conversation.ChannelType = v
	}
	if v, ok := row["CUSTOMER_PHONE"].(string); ok {
		conversation.CustomerPhone = v
	}
	if v, ok := row["CUSTOMER_ID"].(string); ok {
		conversation.CustomerID = &v
	}
	if v, ok := row["LAST_MESSAGE_AT"].(int64); ok {
		conversation.LastMessageAt = v
	}
	if v, ok := row["CREATED_TIME"].(int64); ok {
		conversation.CreatedTime = v
	}

	return conversation
}

func mapToMessage(row map[string]interface{}) *model.Message {
	if row == nil {
		return nil
	}

	message := &model.Message{}

	if v, ok := row["MESSAGE_ID"].(string); ok {
		message.MessageID = v
	}
	if v, ok := row["CONVERSATION_ID"].(string); ok {
		message.ConversationID = v
	}
	if v, ok := row["ORG_ID"].(string); ok {
		message.OrgID = v
	}
	if v, ok := row["DIRECTION"].(string); ok {
		message.Direction = model.Direction(v)
	}
	if v, ok := row["BODY"].(string); ok {
		message.Body = v
	}
	if v, ok := row["PROVIDER_SID"].(string); ok {
		message.ProviderSID = &v
	}
	if v, ok := row["SEND_STATUS"].(string); ok {
		status := model.SendStatus(v)
		message.SendStatus = &status
	}
	if v, ok := row["SENDER_USER_ID"].(string); ok {
		message.SenderUserID = &v
	}
	if v, ok := row["CREATED_TIME"].(int64); ok {
		message.CreatedTime = v
	}

	return message
}
