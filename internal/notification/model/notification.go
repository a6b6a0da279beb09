package model

// Notification types used by the consent workflows.
const (
	TypeOptOut         = "sms_opt_out"
	TypeOptOutAdmin    = "sms_opt_out_admin"
	TypeReoptRequested = "sms_reopt_requested"
	TypeReoptConfirmed = "sms_reopt_confirmed"
)

// Notification represents the NOTIFICATION table: in-app notifications
// delivered to organization users.
type Notification struct {
	NotificationID string `db:"NOTIFICATION_ID" json:"notificationId"`
	OrgID          string `db:"ORG_ID" json:"orgId"`
	UserID         string `db:"USER_ID" json:"userId"`
	Type           string `db:"TYPE" json:"type"`
	Title          string `db:"TITLE" json:"title"`
	Body           string `db:"BODY" json:"body"`
	IsRead         bool   `db:"IS_READ" json:"isRead"`
	CreatedTime    int64  `db:"CREATED_TIME" json:"createdTime"`
}

// ListResponse wraps a notification page.
type ListResponse struct {
	Data  []Notification `json:"data"`
	Total int            `json:"total"`
}
