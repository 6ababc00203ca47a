package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"servicehub/config"

	_ "github.com/lib/pq"
)

// PostgresClient wraps the SQL connection to the marketplace database.
type PostgresClient struct {
	DB *sql.DB
}

// NewPostgres opens a pooled connection using POSTGRES_DSN.
func NewPostgres(cfg config.Config) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	maxConns := cfg.PostgresMaxConnections
	if maxConns <= 0 {
		maxConns = 10
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns / 2)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresClient{DB: db}, nil
}

// Ping tests the database connection
func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

// Close closes the database connection
func (c *PostgresClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
