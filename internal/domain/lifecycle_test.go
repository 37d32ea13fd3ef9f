package domain

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestEntryLifecycle_Post(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)

	e := &LedgerEntry{ID: "inv-1", Status: StatusInProgress, Total: decimal.NewFromInt(10)}
	l := NewEntryLifecycle(e)

	if err := l.Post(ctx, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if e.Status != StatusPosted {
		t.Fatalf("expected posted, got %s", e.Status)
	}
	if !e.PostedAt.Equal(now) {
		t.Fatalf("expected PostedAt %s, got %s", now, e.PostedAt)
	}
}

func TestEntryLifecycle_PostKeepsExistingTimestamp(t *testing.T) {
	postedAt := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)
	e := &LedgerEntry{Status: StatusCompleted, PostedAt: postedAt}

	if err := NewEntryLifecycle(e).Post(context.Background(), time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !e.PostedAt.Equal(postedAt) {
		t.Fatalf("expected PostedAt to stay %s, got %s", postedAt, e.PostedAt)
	}
}

func TestEntryLifecycle_CompleteThenPost(t *testing.T) {
	ctx := context.Background()
	e := &LedgerEntry{Status: StatusInProgress}
	l := NewEntryLifecycle(e)

	if err := l.Complete(ctx); err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if e.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s", e.Status)
	}

	if err := l.Post(ctx, time.Now()); err != nil {
		t.Fatalf("post failed: %v", err)
	}
	if e.Status != StatusPosted {
		t.Fatalf("expected posted, got %s", e.Status)
	}
}

func TestEntryLifecycle_PostedIsTerminal(t *testing.T) {
	ctx := context.Background()
	e := &LedgerEntry{Status: StatusPosted}
	l := NewEntryLifecycle(e)

	if err := l.Complete(ctx); !errors.Is(err, ErrInvalidStatusTransition) {
		t.Fatalf("expected completing a posted entry to fail, got %v", err)
	}

	err := l.Post(ctx, time.Now())
	if !errors.Is(err, ErrInvalidStatusTransition) {
		t.Fatalf("expected ErrInvalidStatusTransition, got %v", err)
	}
	if !strings.Contains(err.Error(), "post from posted") {
		t.Fatalf("expected error to name the transition, got %q", err)
	}
	if e.Status != StatusPosted {
		t.Fatalf("status must not change, got %s", e.Status)
	}
}
