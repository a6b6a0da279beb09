package model

// Customer represents the CUSTOMER table.
type Customer struct {
	CustomerID  string  `db:"CUSTOMER_ID" json:"customerId"`
	OrgID       string  `db:"ORG_ID" json:"orgId"`
	Name        string  `db:"NAME" json:"name"`
	Phone       *string `db:"PHONE" json:"phone,omitempty"`
	Email       *string `db:"EMAIL" json:"email,omitempty"`
	CreatedTime int64   `db:"CREATED_TIME" json:"createdTime"`
	UpdatedTime int64   `db:"UPDATED_TIME" json:"updatedTime"`
}
