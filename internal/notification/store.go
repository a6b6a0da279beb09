package notification

import (
	"github.com/cxtrack/sms-consent-api/internal/notification/model"
	dbmodel "github.com/cxtrack/sms-consent-api/internal/system/database/model"
	"github.com/cxtrack/sms-consent-api/internal/system/database/provider"
)

// DBQuery objects for notification operations
var (
	QueryCreateNotification = dbmodel.DBQuery{
		ID:    "CREATE_NOTIFICATION",
		Query: "INSERT INTO NOTIFICATION (NOTIFICATION_ID, ORG_ID, USER_ID, TYPE, TITLE, BODY, IS_READ, CREATED_TIME) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
	}

	QueryListNotificationsByUser = dbmodel.DBQuery{
		ID:    "LIST_NOTIFICATIONS_BY_USER",
		Query: "SELECT NOTIFICATION_ID, ORG_ID, USER_ID, TYPE, TITLE, BODY, IS_READ, CREATED_TIME FROM NOTIFICATION WHERE ORG_ID = ? AND USER_ID = ? ORDER BY CREATED_TIME DESC LIMIT ? OFFSET ?",
	}

	QueryCountNotificationsByUser = dbmodel.DBQuery{
		ID:    "COUNT_NOTIFICATIONS_BY_USER",
		Query: "SELECT COUNT(*) as count FROM NOTIFICATION WHERE ORG_ID = ? AND USER_ID = ?",
	}

	QueryMarkNotificationRead = dbmodel.DBQuery{
		ID:    "MARK_NOTIFICATION_READ",
		Query: "UPDATE NOTIFICATION SET IS_READ = TRUE WHERE NOTIFICATION_ID = ? AND ORG_ID = ? AND USER_ID = ?",
	}
)

// NotificationStore defines the interface for notification data operations
type NotificationStore interface {
	Create(notification *model.Notification) error
	ListByUser(orgID, userID string, limit, offset int) ([]model.Notification, int, error)
	MarkRead(notificationID, orgID, userID string) error
}

// store implements the NotificationStore interface
type store struct {
	dbClient provider.DBClientInterface
}

// NewStore creates and returns a new notification store (exported for registry)
func NewStore(dbClient provider.DBClientInterface) interface{} {
	return newNotificationStore(dbClient)
}

func newNotificationStore(dbClient provider.DBClientInterface) NotificationStore {
	return &store{
		dbClient: dbClient,
	}
}

// Create inserts a notification
func (s *store) Create(notification *model.Notification) error {
	_, err := s.dbClient.Execute(QueryCreateNotification,
		notification.NotificationID, notification.OrgID, notification.UserID,
		notification.Type, notification.Title, notification.Body,
		notification.IsRead, notification.CreatedTime)
	return err
}

// ListByUser retrieves paginated notifications for an org user, newest first.
func (s *store) ListByUser(orgID, userID string, limit, offset int) ([]model.Notification, int, error) {
	countRows, err := s.dbClient.Query(QueryCountNotificationsByUser, orgID, userID)
	if err != nil {
		return nil, 0, err
	}

	totalCount := 0
	if len(countRows) > 0 {
		if count, ok := countRows[0]["count"].(int64); ok {
			totalCount = int(count)
		}
	}

	rows, err := s.dbClient.Query(QueryListNotificationsByUser, orgID, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	notifications := make([]model.Notification, 0, len(rows))
	for _, row := range rows {
		n := mapToNotification(row)
		if n != nil {
			notifications = append(notifications, *n)
		}
	}
	return notifications, totalCount, nil
}

// MarkRead flags a notification as read
func (s *store) MarkRead(notificationID, orgID, userID string) error {
	_, err := s.dbClient.Execute(QueryMarkNotificationRead, notificationID, orgID, userID)
	return err
}

func mapToNotification(row map[string]interface{}) *model.Notification {
	if row == nil {
		return nil
	}

	notification := &model.Notification{}

	if v, ok := row["NOTIFICATION_ID"].(string); ok {
		notification.NotificationID = v
	}
	if v, ok := row["ORG_ID"].(string); ok {
		notification.OrgID = v
	}
	if v, ok := row["USER_ID"].(string); ok {
		notification.UserID = v
	}
	if v, ok := row["TYPE"].(string); ok {
		notification.Type = v
	}
	if v, ok := row["TITLE"].(string); ok {
		notification.Title = v
	}
	if v, ok := row["BODY"].(string); ok {
		notification.Body = v
	}
	if v, ok := row["IS_READ"].(bool); ok {
		notification.IsRead = v
	} else if v, ok := row["IS_READ"].(int64); ok {
		notification.IsRead = v != 0
	}
	if v, ok := row["CREATED_TIME"].(int64); ok {
		notification.CreatedTime = v
	}

	return notification
}
