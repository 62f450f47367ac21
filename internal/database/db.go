package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/Alias1177/Rebalancer/models"
)

// DB represents a database connection
type DB struct {
	*sql.DB
}

// ConnectionParams holds PostgreSQL connection parameters
type ConnectionParams struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN renders the lib/pq connection string
func (p ConnectionParams) DSN() string {
	sslMode := p.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, sslMode,
	)
}

// DecisionRecord is one row of the decision journal
type DecisionRecord struct {
	ID              int64
	PoolID          string
	CheckedAt       time.Time
	Action          string
	RebalanceNeeded bool
	CurrentTick     int
	NarrowBucket    models.Bucket
	WideBucket      models.Bucket
	NarrowWeight    float64
	WideWeight      float64
	Volatility      float64
	Price           float64
	Notified        bool
	NotifyError     string
}

// New creates a new database connection
func New(ctx context.Context, params ConnectionParams) (*DB, error) {
	db, err := sql.Open("postgres", params.DSN())
	if err != nil {
		return nil, err
	}

	// Check connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	wrapped := &DB{db}
	if err := wrapped.CreateTables(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return wrapped, nil
}

// CreateTables creates the journal table if it doesn't exist
func (db *DB) CreateTables(ctx context.Context) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS rebalance_decisions (
			id BIGSERIAL PRIMARY KEY,
			pool_id TEXT NOT NULL,
			checked_at TIMESTAMPTZ NOT NULL,
			action TEXT NOT NULL,
			rebalance_needed BOOLEAN NOT NULL,
			current_tick INTEGER NOT NULL,
			narrow_low INTEGER NOT NULL,
			narrow_high INTEGER NOT NULL,
			wide_low INTEGER NOT NULL,
			wide_high INTEGER NOT NULL,
			narrow_weight DOUBLE PRECISION NOT NULL,
			wide_weight DOUBLE PRECISION NOT NULL,
			volatility DOUBLE PRECISION NOT NULL,
			price DOUBLE PRECISION NOT NULL,
			notified BOOLEAN NOT NULL,
			notify_error TEXT
		)
	`)
	if err != nil {
		return fmt.Errorf("create rebalance_decisions: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS rebalance_decisions_pool_checked_at
		ON rebalance_decisions (pool_id, checked_at DESC)
	`)
	if err != nil {
		return fmt.Errorf("create rebalance_decisions index: %w", err)
	}
	return nil
}

// RecordDecision appends the outcome of one check to the journal
func (db *DB) RecordDecision(ctx context.Context, result models.CheckResult) error {
	decision := result.Outcome.Decision
	alloc := decision.Details.Allocation

	var notifyError sql.NullString
	if err := result.Outcome.Notification.Err; err != nil {
		notifyError = sql.NullString{String: err.Error(), Valid: true}
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO rebalance_decisions (
			pool_id, checked_at, action, rebalance_needed, current_tick,
			narrow_low, narrow_high, wide_low, wide_high,
			narrow_weight, wide_weight, volatility, price, notified, notify_error
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`,
		result.PoolID, result.CheckedAt, decision.Action.String(), decision.RebalanceNeeded, decision.Details.CurrentTick,
		alloc.NarrowBucket.Low, alloc.NarrowBucket.High, alloc.WideBucket.Low, alloc.WideBucket.High,
		alloc.NarrowWeight, alloc.WideWeight, result.Metrics.Volatility, result.Metrics.Price,
		result.Outcome.Notification.Delivered, notifyError)
	if err != nil {
		return fmt.Errorf("insert decision: %w", err)
	}
	return nil
}

// RecentDecisions returns the newest journal rows of a pool
func (db *DB) RecentDecisions(ctx context.Context, poolID string, limit int) ([]DecisionRecord, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT
			id, pool_id, checked_at, action, rebalance_needed, current_tick,
			narrow_low, narrow_high, wide_low, wide_high,
			narrow_weight, wide_weight, volatility, price, notified, notify_error
		FROM rebalance_decisions
		WHERE pool_id = $1
		ORDER BY checked_at DESC
		LIMIT $2
	`, poolID, limit)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	var records []DecisionRecord
	for rows.Next() {
		var rec DecisionRecord
		var notifyError sql.NullString
		if err := rows.Scan(
			&rec.ID, &rec.PoolID, &rec.CheckedAt, &rec.Action, &rec.RebalanceNeeded, &rec.CurrentTick,
			&rec.NarrowBucket.Low, &rec.NarrowBucket.High, &rec.WideBucket.Low, &rec.WideBucket.High,
			&rec.NarrowWeight, &rec.WideWeight, &rec.Volatility, &rec.Price, &rec.Notified, &notifyError,
		); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		if notifyError.Valid {
			rec.NotifyError = notifyError.String
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
