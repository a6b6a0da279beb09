// Package provider provides the database client used by the feature stores.
package provider

import (
	"fmt"

	"github.com/cxtrack/sms-consent-api/internal/system/database"
	dbmodel "github.com/cxtrack/sms-consent-api/internal/system/database/model"
	"github.com/cxtrack/sms-consent-api/internal/system/log"
)

// DBClientInterface defines the database access surface exposed to stores.
type DBClientInterface interface {
	Query(query dbmodel.DBQuery, args ...interface{}) ([]map[string]interface{}, error)
	Execute(query dbmodel.DBQuery, args ...interface{}) (int64, error)
	BeginTx() (dbmodel.TxInterface, error)
}

// dbClient implements DBClientInterface over the shared connection.
type dbClient struct {
	db     *database.DB
	dbType string
}

// NewDBClient creates a database client for the given connection.
func NewDBClient(db *database.DB, dbType string) DBClientInterface {
	return &dbClient{db: db, dbType: dbType}
}

// Query runs a read query and returns generic row maps. Byte slices returned
// by the MySQL driver are normalized to strings so store mappers can
// type-assert on string values.
func (c *dbClient) Query(query dbmodel.DBQuery, args ...interface{}) ([]map[string]interface{}, error) {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "DBClient"))

	rows, err := c.db.Queryx(query.GetQuery(c.dbType), args...)
	if err != nil {
		logger.Error("Query failed", log.String("query_id", query.ID), log.Error(err))
		return nil, fmt.Errorf("query %s failed: %w", query.ID, err)
	}
	defer rows.Close()

	var results []map[string]interface{}
	for rows.Next() {
		row := make(map[string]interface{})
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("query %s scan failed: %w", query.ID, err)
		}
		for k, v := range row {
			if b, ok := v.([]byte); ok {
				row[k] = string(b)
			}
		}
		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query %s iteration failed: %w", query.ID, err)
	}

	return results, nil
}

// Execute runs a write query and returns the number of affected rows.
func (c *dbClient) Execute(query dbmodel.DBQuery, args ...interface{}) (int64, error) {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "DBClient"))

	result, err := c.db.Exec(query.GetQuery(c.dbType), args...)
	if err != nil {
		logger.Error("Execute failed", log.String("query_id", query.ID), log.Error(err))
		return 0, fmt.Errorf("execute %s failed: %w", query.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return affected, nil
}

// BeginTx starts a new transaction.
func (c *dbClient) BeginTx() (dbmodel.TxInterface, error) {
	tx, err := c.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return dbmodel.NewTx(tx), nil
}
