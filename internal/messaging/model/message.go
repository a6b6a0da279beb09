package model

// Direction is the first-class message direction enum. The original system
// buried this in message metadata; it is promoted here to a real column.
type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// Valid reports whether the direction is a known value.
func (d Direction) Valid() bool {
	return d == DirectionInbound || d == DirectionOutbound
}

// SendStatus tracks the provider-side lifecycle of an outbound message.
type SendStatus string

const (
	SendStatusQueued SendStatus = "queued"
	SendStatusSent   SendStatus = "sent"
	SendStatusFailed SendStatus = "failed"
)

// Conversation represents the CONVERSATION table, keyed by
// (ORG_ID, CHANNEL_TYPE, CUSTOMER_PHONE).
type Conversation struct {
	ConversationID string  `db:"CONVERSATION_ID" json:"conversationId"`
	OrgID          string  `db:"ORG_ID" json:"orgId"`
	ChannelType    string  `db:"CHANNEL_TYPE" json:"channelType"`
	CustomerPhone  string  `db:"CUSTOMER_PHONE" json:"customerPhone"`
	CustomerID     *string `db:"CUSTOMER_ID" json:"customerId,omitempty"`
	LastMessageAt  int64   `db:"LAST_MESSAGE_AT" json:"lastMessageAt"`
	CreatedTime    int64   `db:"CREATED_TIME" json:"createdTime"`
}

// Message represents the MESSAGE table.
type Message struct {
	MessageID      string      `db:"MESSAGE_ID" json:"messageId"`
	ConversationID string      `db:"CONVERSATION_ID" json:"conversationId"`
	OrgID          string      `db:"ORG_ID" json:"orgId"`
	Direction      Direction   `db:"DIRECTION" json:"direction"`
	Body           string      `db:"BODY" json:"body"`
	ProviderSID    *string     `db:"PROVIDER_SID" json:"providerSid,omitempty"`
	SendStatus     *SendStatus `db:"SEND_STATUS" json:"sendStatus,omitempty"`
	SenderUserID   *string     `db:"SENDER_USER_ID" json:"senderUserId,omitempty"`
	CreatedTime    int64       `db:"CREATED_TIME" json:"createdTime"`
}

// InboundSMS is the parsed carrier webhook payload.
type InboundSMS struct {
	From       string
	To         string
	Body       string
	MessageSID string
}

// SendMessageRequest is the org API payload for an outbound send.
type SendMessageRequest struct {
	Body string `json:"body" binding:"required"`
}
