package consent

import (
	"github.com/cxtrack/sms-consent-api/internal/consent/model"
	dbmodel "github.com/cxtrack/sms-consent-api/internal/system/database/model"
	"github.com/cxtrack/sms-consent-api/internal/system/database/provider"
)

// DBQuery objects for consent operations
var (
	QueryCreateConsent = dbmodel.DBQuery{
		ID:    "CREATE_SMS_CONSENT",
		Query: "INSERT INTO SMS_CONSENT (CONSENT_ID, CUSTOMER_ID, ORG_ID, STATUS, OPTED_OUT_AT, OPTED_OUT_METHOD, REOPT_REQUESTED_AT, REOPT_COMPLETED_AT, REOPT_TOKEN, REOPT_TOKEN_EXPIRES_AT, CREATED_TIME, UPDATED_TIME) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
	}

	QueryUpdateConsent = dbmodel.DBQuery{
		ID:    "UPDATE_SMS_CONSENT",
		Query: "UPDATE SMS_CONSENT SET STATUS = ?, OPTED_OUT_AT = ?, OPTED_OUT_METHOD = ?, REOPT_REQUESTED_AT = ?, REOPT_COMPLETED_AT = ?, REOPT_TOKEN = ?, REOPT_TOKEN_EXPIRES_AT = ?, UPDATED_TIME = ? WHERE CONSENT_ID = ? AND ORG_ID = ?",
	}

	QueryGetConsentByCustomer = dbmodel.DBQuery{
		ID:    "GET_SMS_CONSENT_BY_CUSTOMER",
		Query: "SELECT CONSENT_ID, CUSTOMER_ID, ORG_ID, STATUS, OPTED_OUT_AT, OPTED_OUT_METHOD, REOPT_REQUESTED_AT, REOPT_COMPLETED_AT, REOPT_TOKEN, REOPT_TOKEN_EXPIRES_AT, CREATED_TIME, UPDATED_TIME FROM SMS_CONSENT WHERE CUSTOMER_ID = ? AND ORG_ID = ?",
	}

	QueryGetConsentByToken = dbmodel.DBQuery{
		ID:    "GET_SMS_CONSENT_BY_TOKEN",
		Query: "SELECT CONSENT_ID, CUSTOMER_ID, ORG_ID, STATUS, OPTED_OUT_AT, OPTED_OUT_METHOD, REOPT_REQUESTED_AT, REOPT_COMPLETED_AT, REOPT_TOKEN, REOPT_TOKEN_EXPIRES_AT, CREATED_TIME, UPDATED_TIME FROM SMS_CONSENT WHERE REOPT_TOKEN = ?",
	}

	QueryCreateAudit = dbmodel.DBQuery{
		ID:    "CREATE_SMS_CONSENT_AUDIT",
		Query: "INSERT INTO SMS_CONSENT_AUDIT (AUDIT_ID, CONSENT_ID, ACTION, ACTOR_ID, PREVIOUS_STATUS, CURRENT_STATUS, METADATA, ACTION_TIME, ORG_ID) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
	}

	QueryGetAuditByConsentID = dbmodel.DBQuery{
		ID:    "GET_SMS_CONSENT_AUDIT_BY_CONSENT_ID",
		Query: "SELECT AUDIT_ID, CONSENT_ID, ACTION, ACTOR_ID, PREVIOUS_STATUS, CURRENT_STATUS, METADATA, ACTION_TIME, ORG_ID FROM SMS_CONSENT_AUDIT WHERE CONSENT_ID = ? AND ORG_ID = ? ORDER BY ACTION_TIME DESC",
	}
)

// ConsentStore defines the interface for consent data operations.
// State changes run inside transactions so the consent row and its audit
// entry are written atomically.
type ConsentStore interface {
	GetByCustomer(customerID, orgID string) (*model.Record, error)
	GetByToken(token string) (*model.Record, error)
	GetAuditByConsentID(consentID, orgID string) ([]model.AuditEntry, error)

	Create(tx dbmodel.TxInterface, record *model.Record) error
	Update(tx dbmodel.TxInterface, record *model.Record) error
	CreateAudit(tx dbmodel.TxInterface, entry *model.AuditEntry) error
}

// store implements the ConsentStore interface
type store struct {
	dbClient provider.DBClientInterface
}

// NewStore creates and returns a new consent store (exported for registry)
func NewStore(dbClient provider.DBClientInterface) interface{} {
	return newConsentStore(dbClient)
}

func newConsentStore(dbClient provider.DBClientInterface) ConsentStore {
	return &store{
		dbClient: dbClient,
	}
}

// GetByCustomer retrieves the consent record for a customer within an org.
// Returns nil when no row exists; callers treat that as opted_in.
func (s *store) GetByCustomer(customerID, orgID string) (*model.Record, error) {
	rows, err := s.dbClient.Query(QueryGetConsentByCustomer, customerID, orgID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return mapToRecord(rows[0]), nil
}

// GetByToken retrieves the consent record holding the given re-opt token.
func (s *store) GetByToken(token string) (*model.Record, error) {
	rows, err := s.dbClient.Query(QueryGetConsentByToken, token)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return mapToRecord(rows[0]), nil
}

// GetAuditByConsentID retrieves the audit trail for a consent record.
func (s *store) GetAuditByConsentID(consentID, orgID string) ([]model.AuditEntry, error) {
	rows, err := s.dbClient.Query(QueryGetAuditByConsentID, consentID, orgID)
	if err != nil {
		return nil, err
	}

	entries := make([]model.AuditEntry, 0, len(rows))
	for _, row := range rows {
		entry := mapToAuditEntry(row)
		if entry != nil {
			entries = append(entries, *entry)
		}
	}
	return entries, nil
}

// Create inserts a consent record within a transaction
func (s *store) Create(tx dbmodel.TxInterface, record *model.Record) error {
	_, err := tx.Exec(QueryCreateConsent.Query,
		record.ConsentID, record.CustomerID, record.OrgID, string(record.Status),
		record.OptedOutAt, record.OptedOutMethod, record.ReoptRequestedAt,
		record.ReoptCompletedAt, record.ReoptToken, record.ReoptTokenExpiresAt,
		record.CreatedTime, record.UpdatedTime)
	return err
}

// Update writes the mutable columns of a consent record within a transaction
func (s *store) Update(tx dbmodel.TxInterface, record *model.Record) error {
	_, err := tx.Exec(QueryUpdateConsent.Query,
		string(record.Status), record.OptedOutAt, record.OptedOutMethod,
		record.ReoptRequestedAt, record.ReoptCompletedAt, record.ReoptToken,
		record.ReoptTokenExpiresAt, record.UpdatedTime,
		record.ConsentID, record.OrgID)
	return err
}

// CreateAudit appends an audit entry within a transaction
func (s *store) CreateAudit(tx dbmodel.TxInterface, entry *model.AuditEntry) error {
	_, err := tx.Exec(QueryCreateAudit.Query,
		entry.AuditID, entry.ConsentID, entry.Action, entry.ActorID,
		entry.PreviousStatus, entry.CurrentStatus, entry.Metadata,
		entry.ActionTime, entry.OrgID)
	return err
}

// Mapper functions

func mapToRecord(row map[string]interface{}) *model.Record {
	if row == nil {
		return nil
	}

	record := &model.Record{}

	if v, ok := row["CONSENT_ID"].(string); ok {
		record.ConsentID = v
	}
	if v, ok := row["CUSTOMER_ID"].(string); ok {
		record.CustomerID = v
	}
	if v, ok := row["ORG_ID"].(string); ok {
		record.OrgID = v
	}
	if v, ok := row["STATUS"].(string); ok {
		record.Status = model.Status(v)
	}
	if v, ok := row["OPTED_OUT_AT"].(int64); ok {
		record.OptedOutAt = &v
	}
	if v, ok := row["OPTED_OUT_METHOD"].(string); ok {
		record.OptedOutMethod = &v
	}
	if v, ok := row["REOPT_REQUESTED_AT"].(int64); ok {
		record.ReoptRequestedAt = &v
	}
	if v, ok := row["REOPT_COMPLETED_AT"].(int64); ok {
		record.ReoptCompletedAt = &v
	}
	if v, ok := row["REOPT_TOKEN"].(string); ok {
		record.ReoptToken = &v
	}
	if v, ok := row["REOPT_TOKEN_EXPIRES_AT"].(int64); ok {
		record.ReoptTokenExpiresAt = &v
	}
	if v, ok := row["CREATED_TIME"].(int64); ok {
		record.CreatedTime = v
	}
	if v, ok := row["UPDATED_TIME"].(int64); ok {
		record.UpdatedTime = v
	}

	return record
}

func mapToAuditEntry(row map[string]interface{}) *model.AuditEntry {
	if row == nil {
		return nil
	}

	entry := &model.AuditEntry{}

	if v, ok := row["AUDIT_ID"].(string); ok {
		entry.AuditID = v
	}
	if v, ok := row["CONSENT_ID"].(string); ok {
		entry.ConsentID = v
	}
	if v, ok := row["ACTION"].(string); ok {
		entry.Action = v
	}
	if v, ok := row["ACTOR_ID"].(string); ok {
		entry.ActorID = &v
	}
	if v, ok := row["PREVIOUS_STATUS"].(string); ok {
		entry.PreviousStatus = &v
	}
	if v, ok := row["CURRENT_STATUS"].(string); ok {
		entry.CurrentStatus = v
	}
	if v, ok := row["METADATA"].(string); ok {
		entry.Metadata = &v
	}
	if v, ok := row["ACTION_TIME"].(int64); ok {
		entry.ActionTime = v
	}
	if v, ok := row["ORG_ID"].(string); ok {
		entry.OrgID = v
	}

	return entry
}
