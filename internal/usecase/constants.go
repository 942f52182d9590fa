package usecase

import (
	"errors"
	"time"
)

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from holding an account lock
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// Operation labels used for metrics and logs.
	OpAppend        = "append"
	OpRecompute     = "recompute"
	OpDelete        = "delete"
	OpRebaseAccount = "rebase_account"
)

// ErrCacheMiss is returned by Cache.Get when the key does not exist.
var ErrCacheMiss = errors.New("cache miss")

type noopMetrics struct{}

func (noopMetrics) TransactionAppended(bool)           {}
func (noopMetrics) ChainReplayed(string, int)          {}
func (noopMetrics) BalanceRejected(string)             {}
func (noopMetrics) ReportGenerated(int, time.Duration) {}

func metricsOrNoop(m MetricsRecorder) MetricsRecorder {
	if m == nil {
		return noopMetrics{}
	}
	return m
}
