package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DefaultTransactionTimeout bounds the post-and-recalculate transaction.
	DefaultTransactionTimeout = 10 * time.Second

	// DefaultBatchWorkers is the number of customers recalculated concurrently.
	DefaultBatchWorkers = 4

	// CustomerLockPrefix namespaces per-customer lock keys.
	CustomerLockPrefix = "customer:"
)

// Outcome labels
const (
	OutcomeSuccess = "success"
	OutcomePartial = "partial"
	OutcomeFailure = "failure"
)

func customerLockKey(customerID string) string {
	return CustomerLockPrefix + customerID
}

type noopMetrics struct{}

func (noopMetrics) RecalculationCompleted(string, time.Duration, int, decimal.Decimal) {}
func (noopMetrics) InvariantViolation()                                                {}
func (noopMetrics) BatchCustomerProcessed(string)                                      {}

type noRetry struct{}

func (noRetry) Retry(_ context.Context, operation func() error) error {
	return operation()
}

type noLock struct{}

func (noLock) Lock(context.Context, string) (func(context.Context) error, error) {
	return func(context.Context) error { return nil }, nil
}
