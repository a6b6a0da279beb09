package organization

import (
	"github.com/cxtrack/sms-consent-api/internal/organization/model"
	dbmodel "github.com/cxtrack/sms-consent-api/internal/system/database/model"
	"github.com/cxtrack/sms-consent-api/internal/system/database/provider"
)

// DBQuery objects for organization operations
var (
	QueryGetOrgIDByStripeCustomer = dbmodel.DBQuery{
		ID:    "GET_ORG_ID_BY_STRIPE_CUSTOMER",
		Query: "SELECT ORG_ID FROM ORGANIZATION WHERE STRIPE_CUSTOMER_ID = ?",
	}

	QueryGetOrgIDByProvisionedNumber = dbmodel.DBQuery{
		ID:    "GET_ORG_ID_BY_PROVISIONED_NUMBER",
		Query: "SELECT ORG_ID FROM PROVISIONED_NUMBER WHERE PHONE_NUMBER = ?",
	}

	QueryGetProvisionedNumberByOrg = dbmodel.DBQuery{
		ID:    "GET_PROVISIONED_NUMBER_BY_ORG",
		Query: "SELECT PHONE_NUMBER, ORG_ID, PROVIDER_SID, CREATED_TIME FROM PROVISIONED_NUMBER WHERE ORG_ID = ? ORDER BY CREATED_TIME ASC LIMIT 1",
	}

	QueryListSettingsWithNumber = dbmodel.DBQuery{
		ID:    "LIST_ORG_SETTINGS_WITH_NUMBER",
		Query: "SELECT ORG_ID, SMS_NUMBER, UPDATED_TIME FROM ORG_SETTINGS WHERE SMS_NUMBER IS NOT NULL",
	}

	QueryGetSettingsByOrg = dbmodel.DBQuery{
		ID:    "GET_ORG_SETTINGS_BY_ORG",
		Query: "SELECT ORG_ID, SMS_NUMBER, UPDATED_TIME FROM ORG_SETTINGS WHERE ORG_ID = ?",
	}

	QueryListMembersByOrg = dbmodel.DBQuery{
		ID:    "LIST_ORG_MEMBERS_BY_ORG",
		Query: "SELECT USER_ID, ORG_ID, ROLE, EMAIL, CREATED_TIME FROM ORG_MEMBER WHERE ORG_ID = ?",
	}

	QueryListMembersByOrgAndRole = dbmodel.DBQuery{
		ID:    "LIST_ORG_MEMBERS_BY_ORG_AND_ROLE",
		Query: "SELECT USER_ID, ORG_ID, ROLE, EMAIL, CREATED_TIME FROM ORG_MEMBER WHERE ORG_ID = ? AND ROLE = ?",
	}
)

// OrganizationStore defines the interface for organization data operations
type OrganizationStore interface {
	GetOrgIDByStripeCustomer(stripeCustomerID string) (string, error)
	GetOrgIDByProvisionedNumber(phoneNumber string) (string, error)
	GetProvisionedNumberByOrg(orgID string) (*model.ProvisionedNumber, error)
	ListSettingsWithNumber() ([]model.Settings, error)
	GetSettings(orgID string) (*model.Settings, error)
	ListMembers(orgID string) ([]model.Member, error)
	ListMembersByRole(orgID, role string) ([]model.Member, error)
}

// store implements the OrganizationStore interface
type store struct {
	dbClient provider.DBClientInterface
}

// NewStore creates and returns a new organization store (exported for registry)
func NewStore(dbClient provider.DBClientInterface) interface{} {
	return newOrganizationStore(dbClient)
}

func newOrganizationStore(dbClient provider.DBClientInterface) OrganizationStore {
	return &store{
		dbClient: dbClient,
	}
}

// GetOrgIDByStripeCustomer resolves an org by its Stripe customer ID.
// Returns "" when no org matches.
func (s *store) GetOrgIDByStripeCustomer(stripeCustomerID string) (string, error) {
	rows, err := s.dbClient.Query(QueryGetOrgIDByStripeCustomer, stripeCustomerID)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", nil
	}
	if v, ok := rows[0]["ORG_ID"].(string); ok {
		return v, nil
	}
	return "", nil
}

// GetOrgIDByProvisionedNumber resolves an org by an exact provisioned number
// match. Returns "" when no number matches.
func (s *store) GetOrgIDByProvisionedNumber(phoneNumber string) (string, error) {
	rows, err := s.dbClient.Query(QueryGetOrgIDByProvisionedNumber, phoneNumber)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", nil
	}
	if v, ok := rows[0]["ORG_ID"].(string); ok {
		return v, nil
	}
	return "", nil
}

// GetProvisionedNumberByOrg retrieves the org's oldest provisioned number,
// used as the outbound sender. Returns nil when the org has none.
func (s *store) GetProvisionedNumberByOrg(orgID string) (*model.ProvisionedNumber, error) {
	rows, err := s.dbClient.Query(QueryGetProvisionedNumberByOrg, orgID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	number := &model.ProvisionedNumber{}
	if v, ok := rows[0]["PHONE_NUMBER"].(string); ok {
		number.PhoneNumber = v
	}
	if v, ok := rows[0]["ORG_ID"].(string); ok {
		number.OrgID = v
	}
	if v, ok := rows[0]["PROVIDER_SID"].(string); ok {
		number.ProviderSID = v
	}
	if v, ok := rows[0]["CREATED_TIME"].(int64); ok {
		number.CreatedTime = v
	}
	return number, nil
}

// ListSettingsWithNumber lists all org settings rows that carry a manually
// configured SMS number.
func (s *store) ListSettingsWithNumber() ([]model.Settings, error) {
	rows, err := s.dbClient.Query(QueryListSettingsWithNumber)
	if err != nil {
		return nil, err
	}

	settings := make([]model.Settings, 0, len(rows))
	for _, row := range rows {
		entry := mapToSettings(row)
		if entry != nil {
			settings = append(settings, *entry)
		}
	}
	return settings, nil
}

// GetSettings retrieves the settings row for an org. Returns nil when absent.
func (s *store) GetSettings(orgID string) (*model.Settings, error) {
	rows, err := s.dbClient.Query(QueryGetSettingsByOrg, orgID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return mapToSettings(rows[0]), nil
}

// ListMembers retrieves all members of an org
func (s *store) ListMembers(orgID string) ([]model.Member, error) {
	rows, err := s.dbClient.Query(QueryListMembersByOrg, orgID)
	if err != nil {
		return nil, err
	}
	return mapToMembers(rows), nil
}

// ListMembersByRole retrieves org members holding the given role
func (s *store) ListMembersByRole(orgID, role string) ([]model.Member, error) {
	rows, err := s.dbClient.Query(QueryListMembersByOrgAndRole, orgID, role)
	if err != nil {
		return nil, err
	}
	return mapToMembers(rows), nil
}

// Mapper functions

func mapToSettings(row map[string]interface{}) *model.Settings {
	if row == nil {
		return nil
	}

	settings := &model.Settings{}

	if v, ok := row["ORG_ID"].(string); ok {
		settings.OrgID = v
	}
	if v, ok := row["SMS_NUMBER"].(string); ok {
		settings.SMSNumber = &v
	}
	if v, ok := row["UPDATED_TIME"].(int64); ok {
		settings.UpdatedTime = v
	}

	return settings
}

func mapToMembers(rows []map[string]interface{}) []model.Member {
	members := make([]model.Member, 0, len(rows))
	for _, row := range rows {
		member := model.Member{}
		if v, ok := row["USER_ID"].(string); ok {
			member.UserID = v
		}
		if v, ok := row["ORG_ID"].(string); ok {
			member.OrgID = v
		}
		if v, ok := row["ROLE"].(string); ok {
			member.Role = v
		}
		if v, ok := row["EMAIL"].(string); ok {
			member.Email = v
		}
		if v, ok := row["CREATED_TIME"].(int64); ok {
			member.CreatedTime = v
		}
		members = append(members, member)
	}
	return members
}
