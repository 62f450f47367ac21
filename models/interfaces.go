package models

import "context"

type MetricsProvider interface {
	GetCurrentMetrics(ctx context.Context, poolID string) (PoolMetrics, error)
}

type Notifier interface {
	Send(ctx context.Context, subject, body, recipient string) error
}

type DecisionJournal interface {
	RecordDecision(ctx context.Context, result CheckResult) error
}
