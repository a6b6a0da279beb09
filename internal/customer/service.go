package customer

import (
	"context"

	"github.com/cxtrack/sms-consent-api/internal/customer/model"
	"github.com/cxtrack/sms-consent-api/internal/system/error/serviceerror"
	"github.com/cxtrack/sms-consent-api/internal/system/stores"
	"github.com/cxtrack/sms-consent-api/internal/system/utils"
)

// CustomerService defines the exported service interface
type CustomerService interface {
	GetByID(ctx context.Context, customerID, orgID string) (*model.Customer, *serviceerror.ServiceError)
	List(ctx context.Context, orgID string, limit, offset int) ([]model.Customer, int, *serviceerror.ServiceError)
}

// customerService implements the CustomerService interface
type customerService struct {
	stores *stores.StoreRegistry
}

// Initialize sets up the customer module. Its API surface is served through
// the org API.
func Initialize(registry *stores.StoreRegistry) CustomerService {
	return &customerService{stores: registry}
}

// GetByID retrieves a customer by ID within an org.
func (s *customerService) GetByID(ctx context.Context, customerID, orgID string) (*model.Customer, *serviceerror.ServiceError) {
	if err := utils.ValidateOrgID(orgID); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}
	if err := utils.ValidateCustomerID(customerID); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}

	customerStore := s.stores.Customer.(CustomerStore)
	cust, err := customerStore.GetByID(customerID, orgID)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}
	if cust == nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ResourceNotFoundError, "customer not found")
	}
	return cust, nil
}

// List retrieves paginated customers for an org.
func (s *customerService) List(ctx context.Context, orgID string, limit, offset int) ([]model.Customer, int, *serviceerror.ServiceError) {
	if err := utils.ValidateOrgID(orgID); err != nil {
		return nil, 0, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}
	if err := utils.ValidatePagination(limit, offset); err != nil {
		return nil, 0, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}

	customerStore := s.stores.Customer.(CustomerStore)
	customers, total, err := customerStore.List(orgID, limit, offset)
	if err != nil {
		return nil, 0, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}
	return customers, total, nil
}
