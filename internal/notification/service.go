package notification

import (
	"context"
	"fmt"

	"github.com/cxtrack/sms-consent-api/internal/notification/model"
	"github.com/cxtrack/sms-consent-api/internal/organization"
	orgmodel "github.com/cxtrack/sms-consent-api/internal/organization/model"
	"github.com/cxtrack/sms-consent-api/internal/system/config"
	"github.com/cxtrack/sms-consent-api/internal/system/error/serviceerror"
	"github.com/cxtrack/sms-consent-api/internal/system/log"
	"github.com/cxtrack/sms-consent-api/internal/system/stores"
	"github.com/cxtrack/sms-consent-api/internal/system/utils"
)

// NotificationService defines the exported service interface
type NotificationService interface {
	List(ctx context.Context, orgID, userID string, limit, offset int) ([]model.Notification, int, *serviceerror.ServiceError)
	MarkRead(ctx context.Context, notificationID, orgID, userID string) *serviceerror.ServiceError

	// Notifier methods consumed by the consent workflows.
	ConsentOptedOut(ctx context.Context, orgID, customerID, customerName, method string)
	ReoptRequested(ctx context.Context, orgID, customerID, customerName string)
	ReoptConfirmed(ctx context.Context, orgID, customerID, customerName string)
}

// notificationService implements the NotificationService interface
type notificationService struct {
	stores *stores.StoreRegistry
	logger *log.Logger
}

// newNotificationService creates a new notification service
func newNotificationService(registry *stores.StoreRegistry) NotificationService {
	return &notificationService{
		stores: registry,
		logger: log.GetLogger().With(log.String(log.LoggerKeyComponentName, "NotificationService")),
	}
}

// Initialize sets up the notification module. The module has no public
// routes; its API surface is served through the org API.
func Initialize(registry *stores.StoreRegistry) NotificationService {
	return newNotificationService(registry)
}

// List retrieves paginated notifications for an org user.
func (s *notificationService) List(ctx context.Context, orgID, userID string, limit, offset int) ([]model.Notification, int, *serviceerror.ServiceError) {
	if err := utils.ValidateOrgID(orgID); err != nil {
		return nil, 0, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}
	if err := utils.ValidateUserID(userID); err != nil {
		return nil, 0, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}
	if err := utils.ValidatePagination(limit, offset); err != nil {
		return nil, 0, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}

	notificationStore := s.stores.Notification.(NotificationStore)
	notifications, total, err := notificationStore.ListByUser(orgID, userID, limit, offset)
	if err != nil {
		return nil, 0, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}
	return notifications, total, nil
}

// MarkRead flags a notification as read for the owning user.
func (s *notificationService) MarkRead(ctx context.Context, notificationID, orgID, userID string) *serviceerror.ServiceError {
	if err := utils.ValidateRequired("notificationID", notificationID); err != nil {
		return serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}
	if err := utils.ValidateOrgID(orgID); err != nil {
		return serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}
	if err := utils.ValidateUserID(userID); err != nil {
		return serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}

	notificationStore := s.stores.Notification.(NotificationStore)
	if err := notificationStore.MarkRead(notificationID, orgID, userID); err != nil {
		return serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}
	return nil
}

// ConsentOptedOut notifies every org member that a customer opted out, and
// sends admins a separate admin-typed notification that carries the follow-up
// action. Delivery is best effort: failures are logged and never propagate
// into the consent transition that triggered them.
func (s *notificationService) ConsentOptedOut(ctx context.Context, orgID, customerID, customerName, method string) {
	title := "Customer opted out of SMS"
	body := fmt.Sprintf("%s opted out of SMS messages (%s).", customerName, method)
	s.fanOut(orgID, model.TypeOptOut, title, body, s.listMembers(orgID))

	adminBody := fmt.Sprintf("%s opted out of SMS messages (%s). You can send a re-opt-in request once the customer agrees to receive messages again.", customerName, method)
	s.fanOut(orgID, model.TypeOptOutAdmin, title, adminBody, s.listAdmins(orgID))
}

// ReoptRequested notifies org admins that a re-opt-in confirmation link was
// sent to a customer.
func (s *notificationService) ReoptRequested(ctx context.Context, orgID, customerID, customerName string) {
	title := "Re-opt-in requested"
	body := fmt.Sprintf("A re-opt-in confirmation link was sent to %s.", customerName)
	s.fanOut(orgID, model.TypeReoptRequested, title, body, s.listAdmins(orgID))
}

// ReoptConfirmed notifies every org member that a customer confirmed a
// re-opt-in link and is awaiting approval.
func (s *notificationService) ReoptConfirmed(ctx context.Context, orgID, customerID, customerName string) {
	title := "Re-opt-in confirmed"
	body := fmt.Sprintf("%s confirmed the re-opt-in link. Approve to resume SMS messages.", customerName)
	s.fanOut(orgID, model.TypeReoptConfirmed, title, body, s.listMembers(orgID))
}

func (s *notificationService) listMembers(orgID string) []orgmodel.Member {
	orgStore := s.stores.Organization.(organization.OrganizationStore)
	members, err := orgStore.ListMembers(orgID)
	if err != nil {
		s.logger.Error("Failed to list org members for notification", log.Error(err))
		return nil
	}
	return members
}

func (s *notificationService) listAdmins(orgID string) []orgmodel.Member {
	orgStore := s.stores.Organization.(organization.OrganizationStore)
	admins, err := orgStore.ListMembersByRole(orgID, orgmodel.RoleAdmin)
	if err != nil {
		s.logger.Error("Failed to list org admins for notification", log.Error(err))
		return nil
	}
	return admins
}

func (s *notificationService) fanOut(orgID, notifType, title, body string, recipients []orgmodel.Member) {
	cfg := config.Get()
	if cfg != nil && !cfg.Notifications.Enabled {
		return
	}

	notificationStore := s.stores.Notification.(NotificationStore)
	currentTime := utils.GetCurrentTimeMillis()

	for _, member := range recipients {
		notification := &model.Notification{
			NotificationID: utils.GenerateUUID(),
			OrgID:          orgID,
			UserID:         member.UserID,
			Type:           notifType,
			Title:          title,
			Body:           body,
			CreatedTime:    currentTime,
		}
		if err := notificationStore.Create(notification); err != nil {
			s.logger.Error("Failed to create notification",
				log.Error(err),
				log.String("user_id", member.UserID),
			)
		}
	}
}
