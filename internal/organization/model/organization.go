package model

// Member roles within an organization.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Member represents the ORG_MEMBER table.
type Member struct {
	UserID      string `db:"USER_ID" json:"userId"`
	OrgID       string `db:"ORG_ID" json:"orgId"`
	Role        string `db:"ROLE" json:"role"`
	Email       string `db:"EMAIL" json:"email"`
	CreatedTime int64  `db:"CREATED_TIME" json:"createdTime"`
}

// Settings represents the ORG_SETTINGS table. SMSNumber is the manually
// configured inbound number used when no provisioned number matches.
type Settings struct {
	OrgID       string  `db:"ORG_ID" json:"orgId"`
	SMSNumber   *string `db:"SMS_NUMBER" json:"smsNumber,omitempty"`
	UpdatedTime int64   `db:"UPDATED_TIME" json:"updatedTime"`
}

// ProvisionedNumber represents the PROVISIONED_NUMBER table: numbers bought
// through the platform and assigned to an organization.
type ProvisionedNumber struct {
	PhoneNumber string `db:"PHONE_NUMBER" json:"phoneNumber"`
	OrgID       string `db:"ORG_ID" json:"orgId"`
	ProviderSID string `db:"PROVIDER_SID" json:"providerSid"`
	CreatedTime int64  `db:"CREATED_TIME" json:"createdTime"`
}
