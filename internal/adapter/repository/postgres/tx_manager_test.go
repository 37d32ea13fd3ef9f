package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"

	"github.com/iho/custbalance/internal/domain"
)

func TestTxManagerPostingStatementsShareTransaction(t *testing.T) {
	mockPool := newMockPool(t)
	manager := newTxManagerWithPool(mockPool)
	repo := newEntryRepositoryWithDB(mockPool)

	mockPool.ExpectBegin()
	mockPool.ExpectExec(regexp.QuoteMeta("SET status = $2")).
		WithArgs("pay-1", "posted", pgxmock.AnyArg(), true, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mockPool.ExpectExec(regexp.QuoteMeta("SET allocated = $2")).
		WithArgs("inv-1", pgxmock.AnyArg(), false).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mockPool.ExpectCommit()

	ctx := context.Background()
	tx, err := manager.Begin(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	posted := &domain.LedgerEntry{ID: "pay-1", Status: domain.StatusPosted, PostedAt: repoTime, InOpenBalance: true}
	if err := repo.UpdateStatus(ctx, tx, posted); err != nil {
		t.Fatalf("update status: %v", err)
	}
	if err := repo.SaveAllocation(ctx, tx, domain.LedgerEntry{ID: "inv-1", Allocated: decimal.NewFromInt(40)}); err != nil {
		t.Fatalf("save allocation: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	assertExpectations(t, mockPool)
}

func TestTxManagerBeginError(t *testing.T) {
	mockPool := newMockPool(t)
	mockErr := errors.New("too many connections")
	mockPool.ExpectBegin().WillReturnError(mockErr)

	manager := newTxManagerWithPool(mockPool)
	tx, err := manager.Begin(context.Background())
	if !errors.Is(err, mockErr) {
		t.Fatalf("expected begin error, got err=%v tx=%v", err, tx)
	}
}

func TestTxRollbackAfterFailedRecalculation(t *testing.T) {
	mockPool := newMockPool(t)
	manager := newTxManagerWithPool(mockPool)
	repo := newEntryRepositoryWithDB(mockPool)

	mockPool.ExpectBegin()
	mockPool.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("cust-1").
		WillReturnError(errors.New("deadlock detected"))
	mockPool.ExpectRollback()

	ctx := context.Background()
	tx, err := manager.Begin(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := repo.FindOpenEntries(ctx, tx, "cust-1"); err == nil {
		t.Fatalf("expected query error")
	}

	if err := tx.Rollback(ctx); err != nil {
		t.Fatalf("rollback failed: %v", err)
	}

	assertExpectations(t, mockPool)
}

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	pool, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgxmock pool: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func assertExpectations(t *testing.T, pool pgxmock.PgxPoolIface) {
	t.Helper()
	if err := pool.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations were not met: %v", err)
	}
}
