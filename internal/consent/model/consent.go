package model

// Status is the explicit consent lifecycle state. The nullable timestamp
// fields are audit data only; state decisions are made on Status alone.
type Status string

const (
	StatusOptedIn      Status = "opted_in"
	StatusOptedOut     Status = "opted_out"
	StatusPendingReopt Status = "pending_reopt"
)

// Valid reports whether the status is one of the known lifecycle states.
func (s Status) Valid() bool {
	return s == StatusOptedIn || s == StatusOptedOut || s == StatusPendingReopt
}

// Opt-out methods recorded on the consent row.
const (
	MethodLink     = "link"
	MethodSMSReply = "sms_reply"
	MethodManual   = "manual"
)

// Record represents the SMS_CONSENT table: one row per (customer, org) pair,
// created lazily on first opt-out or first re-opt request, never deleted.
type Record struct {
	ConsentID           string  `db:"CONSENT_ID" json:"consentId"`
	CustomerID          string  `db:"CUSTOMER_ID" json:"customerId"`
	OrgID               string  `db:"ORG_ID" json:"orgId"`
	Status              Status  `db:"STATUS" json:"status"`
	OptedOutAt          *int64  `db:"OPTED_OUT_AT" json:"optedOutAt,omitempty"`
	OptedOutMethod      *string `db:"OPTED_OUT_METHOD" json:"optedOutMethod,omitempty"`
	ReoptRequestedAt    *int64  `db:"REOPT_REQUESTED_AT" json:"reoptRequestedAt,omitempty"`
	ReoptCompletedAt    *int64  `db:"REOPT_COMPLETED_AT" json:"reoptCompletedAt,omitempty"`
	ReoptToken          *string `db:"REOPT_TOKEN" json:"-"`
	ReoptTokenExpiresAt *int64  `db:"REOPT_TOKEN_EXPIRES_AT" json:"reoptTokenExpiresAt,omitempty"`
	CreatedTime         int64   `db:"CREATED_TIME" json:"createdTime"`
	UpdatedTime         int64   `db:"UPDATED_TIME" json:"updatedTime"`
}

// Audit actions recorded in SMS_CONSENT_AUDIT.
const (
	ActionOptOut         = "opt_out"
	ActionReoptRequested = "reopt_requested"
	ActionReoptConfirmed = "reopt_confirmed"
	ActionReoptApproved  = "reopt_approved"
)

// AuditEntry represents the SMS_CONSENT_AUDIT table: append-only, one row
// per transition.
type AuditEntry struct {
	AuditID        string  `db:"AUDIT_ID" json:"auditId"`
	ConsentID      string  `db:"CONSENT_ID" json:"consentId"`
	Action         string  `db:"ACTION" json:"action"`
	ActorID        *string `db:"ACTOR_ID" json:"actorId,omitempty"`
	PreviousStatus *string `db:"PREVIOUS_STATUS" json:"previousStatus,omitempty"`
	CurrentStatus  string  `db:"CURRENT_STATUS" json:"currentStatus"`
	Metadata       *string `db:"METADATA" json:"metadata,omitempty"`
	ActionTime     int64   `db:"ACTION_TIME" json:"actionTime"`
	OrgID          string  `db:"ORG_ID" json:"orgId"`
}

// OptOutRequest is the public opt-out payload (link path).
type OptOutRequest struct {
	CustomerID     string `json:"customerId"`
	OrganizationID string `json:"organizationId"`
	Method         string `json:"method"`
}

// OptOutResponse reports the outcome of an opt-out. AlreadyOptedOut is true
// on repeat calls so the caller can render idempotent copy.
type OptOutResponse struct {
	Status          Status `json:"status"`
	AlreadyOptedOut bool   `json:"alreadyOptedOut"`
}

// ReoptRequestResponse reports a successfully issued re-opt-in request.
type ReoptRequestResponse struct {
	Status         Status `json:"status"`
	TokenExpiresAt int64  `json:"tokenExpiresAt"`
	EmailSentTo    string `json:"emailSentTo"`
}

// ConfirmRequest is the public confirmation payload carrying the link token.
type ConfirmRequest struct {
	Token string `json:"token"`
}

// Confirmation results rendered by the public page.
const (
	ConfirmResultConfirmed = "confirmed"
)

// ConfirmResponse reports a successful confirmation. Status stays
// pending_reopt; the org admin approves the final opt-in separately.
type ConfirmResponse struct {
	Result           string `json:"result"`
	Status           Status `json:"status"`
	ReoptCompletedAt int64  `json:"reoptCompletedAt"`
}
