package database

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Row is one materialized result row keyed by column name.
type Row map[string]any

// DB is the execution surface the element repositories need. Every call is one
// round trip.
type DB interface {
	QueryRows(ctx context.Context, query string, args ...any) ([]Row, error)
	PingContext(ctx context.Context) error
	Close() error
}

type ConnectionConfig struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type DatabaseInstance struct {
	*sqlx.DB
	logger ectologger.Logger
}

func NewDatabaseInstance(db *sqlx.DB, logger ectologger.Logger) *DatabaseInstance {
	return &DatabaseInstance{
		DB:     db,
		logger: logger,
	}
}

// Connect opens and pings a pooled connection.
func Connect(ctx context.Context, logger ectologger.Logger, config ConnectionConfig) (*DatabaseInstance, error) {
	driver := config.Driver
	if driver == "" {
		driver = "postgres"
	}

	db, err := sqlx.ConnectContext(ctx, driver, config.DSN)
	if err != nil {
		logger.WithContext(ctx).WithError(err).Error("failed to connect to database")
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(config.MaxOpenConns)
	}
	if config.MaxIdleConns > 0 {
		db.SetMaxIdleConns(config.MaxIdleConns)
	}
	if config.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(config.ConnMaxLifetime)
	}

	return NewDatabaseInstance(db, logger), nil
}

// QueryRows runs query and scans every row into a Row.
func (db *DatabaseInstance) QueryRows(ctx context.Context, query string, args ...any) ([]Row, error) {
	rows, err := db.QueryxContext(ctx, query, args...)
	if err != nil {
		db.logger.WithContext(ctx).WithError(err).WithField("query", query).Error("query failed")
		return nil, err
	}
	defer rows.Close()

	result := []Row{}
	for rows.Next() {
		row := map[string]any{}
		if err := rows.MapScan(row); err != nil {
			db.logger.WithContext(ctx).WithError(err).Error("failed to scan row")
			return nil, err
		}
		result = append(result, Row(normalizeRow(row)))
	}

	return result, rows.Err()
}

// lib/pq hands back textual and jsonb columns as []byte.
func normalizeRow(row map[string]any) map[string]any {
	for k, v := range row {
		if b, ok := v.([]byte); ok {
			row[k] = string(b)
		}
	}
	return row
}
