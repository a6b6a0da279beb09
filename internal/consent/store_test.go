package consent

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cxtrack/sms-consent-api/internal/consent/model"
	"github.com/cxtrack/sms-consent-api/internal/system/database"
	"github.com/cxtrack/sms-consent-api/internal/system/database/provider"
)

var consentColumns = []string{
	"CONSENT_ID", "CUSTOMER_ID", "ORG_ID", "STATUS",
	"OPTED_OUT_AT", "OPTED_OUT_METHOD", "REOPT_REQUESTED_AT", "REOPT_COMPLETED_AT",
	"REOPT_TOKEN", "REOPT_TOKEN_EXPIRES_AT", "CREATED_TIME", "UPDATED_TIME",
}

func setupConsentStoreTest(t *testing.T) (ConsentStore, provider.DBClientInterface, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	dbClient := provider.NewDBClient(&database.DB{DB: sqlxDB}, "mysql")
	return newConsentStore(dbClient), dbClient, mock
}

func TestStoreGetByCustomerMapsRow(t *testing.T) {
	store, _, mock := setupConsentStoreTest(t)

	mock.ExpectQuery(QueryGetConsentByCustomer.Query).
		WithArgs("cust-1", "org-1").
		WillReturnRows(sqlmock.NewRows(consentColumns).AddRow(
			"consent-1", "cust-1", "org-1", "opted_out",
			int64(1700000000000), "sms_reply", nil, nil,
			nil, nil, int64(1690000000000), int64(1700000000000),
		))

	record, err := store.GetByCustomer("cust-1", "org-1")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "consent-1", record.ConsentID)
	assert.Equal(t, model.StatusOptedOut, record.Status)
	require.NotNil(t, record.OptedOutAt)
	assert.Equal(t, int64(1700000000000), *record.OptedOutAt)
	require.NotNil(t, record.OptedOutMethod)
	assert.Equal(t, model.MethodSMSReply, *record.OptedOutMethod)
	assert.Nil(t, record.ReoptToken)
	assert.Nil(t, record.ReoptTokenExpiresAt)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreGetByCustomerNoRow(t *testing.T) {
	store, _, mock := setupConsentStoreTest(t)

	mock.ExpectQuery(QueryGetConsentByCustomer.Query).
		WithArgs("cust-1", "org-1").
		WillReturnRows(sqlmock.NewRows(consentColumns))

	record, err := store.GetByCustomer("cust-1", "org-1")
	require.NoError(t, err)
	assert.Nil(t, record)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreGetByTokenMapsPendingRow(t *testing.T) {
	store, _, mock := setupConsentStoreTest(t)

	mock.ExpectQuery(QueryGetConsentByToken.Query).
		WithArgs("tok-1").
		WillReturnRows(sqlmock.NewRows(consentColumns).AddRow(
			"consent-1", "cust-1", "org-1", "pending_reopt",
			int64(1700000000000), "link", int64(1700000100000), nil,
			"tok-1", int64(1700604800000), int64(1690000000000), int64(1700000100000),
		))

	record, err := store.GetByToken("tok-1")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, model.StatusPendingReopt, record.Status)
	require.NotNil(t, record.ReoptToken)
	assert.Equal(t, "tok-1", *record.ReoptToken)
	require.NotNil(t, record.ReoptTokenExpiresAt)
	assert.Nil(t, record.ReoptCompletedAt)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreCreateAndAuditInTransaction(t *testing.T) {
	store, dbClient, mock := setupConsentStoreTest(t)

	optedOutAt := int64(1700000000000)
	method := model.MethodLink
	record := &model.Record{
		ConsentID:      "consent-1",
		CustomerID:     "cust-1",
		OrgID:          "org-1",
		Status:         model.StatusOptedOut,
		OptedOutAt:     &optedOutAt,
		OptedOutMethod: &method,
		CreatedTime:    optedOutAt,
		UpdatedTime:    optedOutAt,
	}
	previous := "opted_in"
	entry := &model.AuditEntry{
		AuditID:        "audit-1",
		ConsentID:      "consent-1",
		Action:         model.ActionOptOut,
		PreviousStatus: &previous,
		CurrentStatus:  "opted_out",
		ActionTime:     optedOutAt,
		OrgID:          "org-1",
	}

	mock.ExpectBegin()
	mock.ExpectExec(QueryCreateConsent.Query).
		WithArgs("consent-1", "cust-1", "org-1", "opted_out",
			optedOutAt, method, nil, nil, nil, nil, optedOutAt, optedOutAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(QueryCreateAudit.Query).
		WithArgs("audit-1", "consent-1", model.ActionOptOut, nil,
			previous, "opted_out", nil, optedOutAt, "org-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := dbClient.BeginTx()
	require.NoError(t, err)
	require.NoError(t, store.Create(tx, record))
	require.NoError(t, store.CreateAudit(tx, entry))
	require.NoError(t, tx.Commit())

	require.NoError(t, mock.ExpectationsWereMet())
}
