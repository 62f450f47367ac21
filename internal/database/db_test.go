package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/Rebalancer/models"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return &DB{sqlDB}, mock
}

func TestConnectionParamsDSN(t *testing.T) {
	p := ConnectionParams{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "rebalancer"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=rebalancer sslmode=disable", p.DSN())

	p.SSLMode = "require"
	assert.Contains(t, p.DSN(), "sslmode=require")
}

func TestCreateTables(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS rebalance_decisions").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS rebalance_decisions_pool_checked_at").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, db.CreateTables(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordDecision(t *testing.T) {
	db, mock := newMockDB(t)
	checkedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	result := models.CheckResult{
		PoolID:    "0xpool",
		CheckedAt: checkedAt,
		Metrics:   models.PoolMetrics{Volatility: 0.005, Price: 1.5},
		Outcome: models.Outcome{
			Decision: models.Decision{
				RebalanceNeeded: true,
				Action:          models.ActionUrgentRebalance,
				Details: models.DecisionDetails{
					CurrentTick: 1500,
					Allocation: models.BucketAllocation{
						NarrowBucket: models.Bucket{Low: 991, High: 1009},
						WideBucket:   models.Bucket{Low: 981, High: 1019},
						NarrowWeight: 0.9,
						WideWeight:   0.1,
					},
				},
			},
			Notification: models.NotificationResult{Attempted: true, Err: fmt.Errorf("%w: chat not found", models.ErrNotify)},
		},
	}

	mock.ExpectExec("INSERT INTO rebalance_decisions").
		WithArgs("0xpool", checkedAt, "urgent_rebalance", true, 1500,
			991, 1009, 981, 1019, 0.9, 0.1, 0.005, 1.5, false, "notification failed: chat not found").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, db.RecordDecision(context.Background(), result))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordDecisionError(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("INSERT INTO rebalance_decisions").WillReturnError(fmt.Errorf("connection reset"))

	err := db.RecordDecision(context.Background(), models.CheckResult{PoolID: "0xpool"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert decision")
}

func TestRecentDecisions(t *testing.T) {
	db, mock := newMockDB(t)
	checkedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	columns := []string{
		"id", "pool_id", "checked_at", "action", "rebalance_needed", "current_tick",
		"narrow_low", "narrow_high", "wide_low", "wide_high",
		"narrow_weight", "wide_weight", "volatility", "price", "notified", "notify_error",
	}
	rows := sqlmock.NewRows(columns).
		AddRow(2, "0xpool", checkedAt, "none", false, 1000, 991, 1009, 981, 1019, 0.9, 0.1, 0.004, 1.0, false, nil).
		AddRow(1, "0xpool", checkedAt.Add(-time.Hour), "create_position", true, 1000, 991, 1009, 981, 1019, 0.9, 0.1, 0.004, 1.0, false, "notification failed")

	mock.ExpectQuery("SELECT (.+) FROM rebalance_decisions").WithArgs("0xpool", 10).WillReturnRows(rows)

	records, err := db.RecentDecisions(context.Background(), "0xpool", 10)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "none", records[0].Action)
	assert.Equal(t, models.Bucket{Low: 991, High: 1009}, records[0].NarrowBucket)
	assert.Empty(t, records[0].NotifyError)
	assert.Equal(t, "create_position", records[1].Action)
	assert.Equal(t, "notification failed", records[1].NotifyError)
	assert.NoError(t, mock.ExpectationsWereMet())
}
