package notification

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cxtrack/sms-consent-api/internal/notification/model"
	orgmodel "github.com/cxtrack/sms-consent-api/internal/organization/model"
	"github.com/cxtrack/sms-consent-api/internal/system/config"
	dbmodel "github.com/cxtrack/sms-consent-api/internal/system/database/model"
	"github.com/cxtrack/sms-consent-api/internal/system/error/serviceerror"
	"github.com/cxtrack/sms-consent-api/internal/system/stores"
)

const testOrgID = "org-1"

// Fakes

type fakeTx struct{}

func (t *fakeTx) Exec(query string, args ...interface{}) (sql.Result, error) { return nil, nil }
func (t *fakeTx) Query(query string, args ...interface{}) (*sql.Rows, error) { return nil, nil }
func (t *fakeTx) Commit() error                                              { return nil }
func (t *fakeTx) Rollback() error                                            { return nil }

type fakeDBClient struct{}

func (c *fakeDBClient) Query(query dbmodel.DBQuery, args ...interface{}) ([]map[string]interface{}, error) {
	return nil, nil
}
func (c *fakeDBClient) Execute(query dbmodel.DBQuery, args ...interface{}) (int64, error) {
	return 0, nil
}
func (c *fakeDBClient) BeginTx() (dbmodel.TxInterface, error) { return &fakeTx{}, nil }

type fakeNotificationStore struct {
	created   []model.Notification
	createErr error
}

func (s *fakeNotificationStore) Create(notification *model.Notification) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.created = append(s.created, *notification)
	return nil
}

func (s *fakeNotificationStore) ListByUser(orgID, userID string, limit, offset int) ([]model.Notification, int, error) {
	var notifications []model.Notification
	for _, n := range s.created {
		if n.OrgID == orgID && n.UserID == userID {
			notifications = append(notifications, n)
		}
	}
	return notifications, len(notifications), nil
}

func (s *fakeNotificationStore) MarkRead(notificationID, orgID, userID string) error {
	for i := range s.created {
		if s.created[i].NotificationID == notificationID {
			s.created[i].IsRead = true
			return nil
		}
	}
	return nil
}

type fakeOrgStore struct {
	members []orgmodel.Member
}

func (s *fakeOrgStore) GetOrgIDByStripeCustomer(stripeCustomerID string) (string, error) {
	return "", nil
}

func (s *fakeOrgStore) GetOrgIDByProvisionedNumber(phoneNumber string) (string, error) {
	return "", nil
}

func (s *fakeOrgStore) GetProvisionedNumberByOrg(orgID string) (*orgmodel.ProvisionedNumber, error) {
	return nil, nil
}

func (s *fakeOrgStore) ListSettingsWithNumber() ([]orgmodel.Settings, error) { return nil, nil }

func (s *fakeOrgStore) GetSettings(orgID string) (*orgmodel.Settings, error) { return nil, nil }

func (s *fakeOrgStore) ListMembers(orgID string) ([]orgmodel.Member, error) {
	return s.members, nil
}

func (s *fakeOrgStore) ListMembersByRole(orgID, role string) ([]orgmodel.Member, error) {
	var matched []orgmodel.Member
	for _, m := range s.members {
		if m.Role == role {
			matched = append(matched, m)
		}
	}
	return matched, nil
}

func setupNotificationTest(t *testing.T) (*notificationService, *fakeNotificationStore, *fakeOrgStore) {
	t.Helper()

	config.SetGlobal(&config.Config{
		Notifications: config.NotificationsConfig{Enabled: true},
	})

	registry := stores.NewStoreRegistry(&fakeDBClient{})
	notificationStore := &fakeNotificationStore{}
	orgStore := &fakeOrgStore{
		members: []orgmodel.Member{
			{UserID: "admin-1", OrgID: testOrgID, Role: orgmodel.RoleAdmin},
			{UserID: "member-1", OrgID: testOrgID, Role: orgmodel.RoleMember},
		},
	}
	registry.Notification = notificationStore
	registry.Organization = orgStore

	return newNotificationService(registry).(*notificationService), notificationStore, orgStore
}

func TestConsentOptedOutFansOutToMembersAndAdmins(t *testing.T) {
	service, notificationStore, _ := setupNotificationTest(t)

	service.ConsentOptedOut(context.Background(), testOrgID, "cust-1", "Jane Doe", "sms_reply")

	// Every member gets the opt-out notification; admins additionally get a
	// distinct admin-typed one.
	require.Len(t, notificationStore.created, 3)
	memberRecipients := map[string]bool{}
	adminRecipients := map[string]bool{}
	for _, n := range notificationStore.created {
		assert.Contains(t, n.Body, "Jane Doe")
		switch n.Type {
		case model.TypeOptOut:
			memberRecipients[n.UserID] = true
		case model.TypeOptOutAdmin:
			adminRecipients[n.UserID] = true
		default:
			t.Fatalf("unexpected notification type %s", n.Type)
		}
	}
	assert.True(t, memberRecipients["admin-1"])
	assert.True(t, memberRecipients["member-1"])
	assert.True(t, adminRecipients["admin-1"])
	assert.False(t, adminRecipients["member-1"])
}

func TestReoptRequestedNotifiesAdmins(t *testing.T) {
	service, notificationStore, _ := setupNotificationTest(t)

	service.ReoptRequested(context.Background(), testOrgID, "cust-1", "Jane Doe")

	require.Len(t, notificationStore.created, 1)
	assert.Equal(t, "admin-1", notificationStore.created[0].UserID)
	assert.Equal(t, model.TypeReoptRequested, notificationStore.created[0].Type)
	assert.Contains(t, notificationStore.created[0].Body, "Jane Doe")
}

func TestReoptConfirmedFansOutToAllMembers(t *testing.T) {
	service, notificationStore, _ := setupNotificationTest(t)

	service.ReoptConfirmed(context.Background(), testOrgID, "cust-1", "Jane Doe")

	require.Len(t, notificationStore.created, 2)
	recipients := map[string]bool{}
	for _, n := range notificationStore.created {
		recipients[n.UserID] = true
		assert.Equal(t, model.TypeReoptConfirmed, n.Type)
	}
	assert.True(t, recipients["admin-1"])
	assert.True(t, recipients["member-1"])
}

func TestFanOutDisabledByConfig(t *testing.T) {
	service, notificationStore, _ := setupNotificationTest(t)
	config.SetGlobal(&config.Config{
		Notifications: config.NotificationsConfig{Enabled: false},
	})

	service.ConsentOptedOut(context.Background(), testOrgID, "cust-1", "Jane Doe", "link")
	assert.Empty(t, notificationStore.created)
}

func TestFanOutSwallowsStoreFailures(t *testing.T) {
	service, notificationStore, _ := setupNotificationTest(t)
	notificationStore.createErr = errors.New("db down")

	// Must not panic or propagate.
	service.ConsentOptedOut(context.Background(), testOrgID, "cust-1", "Jane Doe", "link")
	assert.Empty(t, notificationStore.created)
}

func TestListAndMarkRead(t *testing.T) {
	service, notificationStore, _ := setupNotificationTest(t)

	service.ReoptRequested(context.Background(), testOrgID, "cust-1", "Jane Doe")
	require.Len(t, notificationStore.created, 1)
	notificationID := notificationStore.created[0].NotificationID

	notifications, total, svcErr := service.List(context.Background(), testOrgID, "admin-1", 30, 0)
	require.Nil(t, svcErr)
	assert.Equal(t, 1, total)
	require.Len(t, notifications, 1)
	assert.False(t, notifications[0].IsRead)

	svcErr = service.MarkRead(context.Background(), notificationID, testOrgID, "admin-1")
	require.Nil(t, svcErr)
	assert.True(t, notificationStore.created[0].IsRead)
}

func TestListRejectsBadPagination(t *testing.T) {
	service, _, _ := setupNotificationTest(t)

	_, _, svcErr := service.List(context.Background(), testOrgID, "admin-1", 0, 0)
	require.NotNil(t, svcErr)
	assert.Equal(t, serviceerror.ValidationError.Code, svcErr.Code)
}
