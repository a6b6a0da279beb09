package customer

import (
	"github.com/cxtrack/sms-consent-api/internal/customer/model"
	dbmodel "github.com/cxtrack/sms-consent-api/internal/system/database/model"
	"github.com/cxtrack/sms-consent-api/internal/system/database/provider"
)

// DBQuery objects for customer operations
var (
	QueryGetCustomerByID = dbmodel.DBQuery{
		ID:    "GET_CUSTOMER_BY_ID",
		Query: "SELECT CUSTOMER_ID, ORG_ID, NAME, PHONE, EMAIL, CREATED_TIME, UPDATED_TIME FROM CUSTOMER WHERE CUSTOMER_ID = ? AND ORG_ID = ?",
	}

	QueryListCustomersByOrg = dbmodel.DBQuery{
		ID:    "LIST_CUSTOMERS_BY_ORG",
		Query: "SELECT CUSTOMER_ID, ORG_ID, NAME, PHONE, EMAIL, CREATED_TIME, UPDATED_TIME FROM CUSTOMER WHERE ORG_ID = ? ORDER BY CREATED_TIME DESC LIMIT ? OFFSET ?",
	}

	QueryCountCustomersByOrg = dbmodel.DBQuery{
		ID:    "COUNT_CUSTOMERS_BY_ORG",
		Query: "SELECT COUNT(*) as count FROM CUSTOMER WHERE ORG_ID = ?",
	}

	QueryListCustomersWithPhone = dbmodel.DBQuery{
		ID:    "LIST_CUSTOMERS_WITH_PHONE",
		Query: "SELECT CUSTOMER_ID, ORG_ID, NAME, PHONE, EMAIL, CREATED_TIME, UPDATED_TIME FROM CUSTOMER WHERE ORG_ID = ? AND PHONE IS NOT NULL",
	}
)

// CustomerStore defines the interface for customer data operations
type CustomerStore interface {
	GetByID(customerID, orgID string) (*model.Customer, error)
	List(orgID string, limit, offset int) ([]model.Customer, int, error)
	ListWithPhone(orgID string) ([]model.Customer, error)
}

// store implements the CustomerStore interface
type store struct {
	dbClient provider.DBClientInterface
}

// NewStore creates and returns a new customer store (exported for registry)
func NewStore(dbClient provider.DBClientInterface) interface{} {
	return newCustomerStore(dbClient)
}

func newCustomerStore(dbClient provider.DBClientInterface) CustomerStore {
	return &store{
		dbClient: dbClient,
	}
}

// GetByID retrieves a customer by ID within an org. Returns nil when absent.
func (s *store) GetByID(customerID, orgID string) (*model.Customer, error) {
	rows, err := s.dbClient.Query(QueryGetCustomerByID, customerID, orgID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return mapToCustomer(rows[0]), nil
}

// List retrieves paginated customers for an org
func (s *store) List(orgID string, limit, offset int) ([]model.Customer, int, error) {
	countRows, err := s.dbClient.Query(QueryCountCustomersByOrg, orgID)
	if err != nil {
		return nil, 0, err
	}

	totalCount := 0
	if len(countRows) > 0 {
		if count, ok := countRows[0]["count"].(int64); ok {
			totalCount = int(count)
		}
	}

	rows, err := s.dbClient.Query(QueryListCustomersByOrg, orgID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	customers := make([]model.Customer, 0, len(rows))
	for _, row := range rows {
		c := mapToCustomer(row)
		if c != nil {
			customers = append(customers, *c)
		}
	}
	return customers, totalCount, nil
}

// ListWithPhone retrieves all customers of an org that have a phone on file,
// for inbound sender matching.
func (s *store) ListWithPhone(orgID string) ([]model.Customer, error) {
	rows, err := s.dbClient.Query(QueryListCustomersWithPhone, orgID)
	if err != nil {
		return nil, err
	}

	customers := make([]model.Customer, 0, len(rows))
	for _, row := range rows {
		c := mapToCustomer(row)
		if c != nil {
			customers = append(customers, *c)
		}
	}
	return customers, nil
}

func mapToCustomer(row map[string]interface{}) *model.Customer {
	if row == nil {
		return nil
	}

	customer := &model.Customer{}

	if v, ok := row["CUSTOMER_ID"].(string); ok {
		customer.CustomerID = v
	}
	if v, ok := row["ORG_ID"].(string); ok {
		customer.OrgID = v
	}
	if v, ok := row["NAME"].(string); ok {
		customer.Name = v
	}
	if v, ok := row["PHONE"].(string); ok {
		customer.Phone = &v
	}
	if v, ok := row["EMAIL"].(string); ok {
		customer.Email = &v
	}
	if v, ok := row["CREATED_TIME"].(int64); ok {
		customer.CreatedTime = v
	}
	if v, ok := row["UPDATED_TIME"].(int64); ok {
		customer.UpdatedTime = v
	}

	return customer
}
