package utils

import (
	"fmt"
	"net/http"

	"github.com/cxtrack/sms-consent-api/internal/system/constants"
)

// ValidateOrgAndUserPresent validates organization and user headers on the org API.
func ValidateOrgAndUserPresent(r *http.Request) error {
	if err := ValidateOrgID(r.Header.Get(constants.OrgIDHeaderName)); err != nil {
		return err
	}
	if err := ValidateUserID(r.Header.Get(constants.UserIDHeaderName)); err != nil {
		return err
	}
	return nil
}

// ValidateOrgID validates organization ID
func ValidateOrgID(orgID string) error {
	if orgID == "" {
		return fmt.Errorf("organization ID is required")
	}
	if len(orgID) > 255 {
		return fmt.Errorf("organization ID too long (max 255 chars)")
	}
	return nil
}

// ValidateUserID validates user ID
func ValidateUserID(userID string) error {
	if userID == "" {
		return fmt.Errorf("user ID is required")
	}
	if len(userID) > 255 {
		return fmt.Errorf("user ID too long (max 255 chars)")
	}
	return nil
}

// ValidateRequired validates a field is not empty
func ValidateRequired(fieldName, value string) error {
	if value == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	return nil
}

// ValidatePagination validates limit and offset
func ValidatePagination(limit, offset int) error {
	if limit < 1 || limit > constants.MaxPageSize {
		return fmt.Errorf("limit must be between 1 and %d", constants.MaxPageSize)
	}
	if offset < 0 {
		return fmt.Errorf("offset must be non-negative")
	}
	return nil
}

// ValidateUUID validates UUID format using existing IsValidUUID
func ValidateUUID(id string) error {
	if !IsValidUUID(id) {
		return fmt.Errorf("invalid UUID format: %s", id)
	}
	return nil
}

// ValidateCustomerID validates customer ID format
func ValidateCustomerID(customerID string) error {
	if err := ValidateRequired("customerID", customerID); err != nil {
		return err
	}
	if len(customerID) > 100 {
		return fmt.Errorf("customer ID too long (max 100 chars)")
	}
	return ValidateUUID(customerID)
}
