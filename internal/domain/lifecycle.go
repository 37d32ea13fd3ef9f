package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/looplab/fsm"
)

// Lifecycle events
const (
	EventComplete = "complete"
	EventPost     = "post"
)

// EntryLifecycle guards the status transitions of a ledger entry.
// Posted is terminal: reversals are made by posting offsetting entries.
type EntryLifecycle struct {
	entry *LedgerEntry
	fsm   *fsm.FSM
}

// NewEntryLifecycle creates a state machine positioned at the entry's status.
func NewEntryLifecycle(entry *LedgerEntry) *EntryLifecycle {
	l := &EntryLifecycle{entry: entry}

	l.fsm = fsm.NewFSM(
		string(entry.Status),
		fsm.Events{
			// in_progress → completed
			{Name: EventComplete, Src: []string{string(StatusInProgress)}, Dst: string(StatusCompleted)},

			// in_progress/completed → posted
			{Name: EventPost, Src: []string{string(StatusInProgress), string(StatusCompleted)}, Dst: string(StatusPosted)},
		},
		fsm.Callbacks{},
	)

	return l
}

// Complete marks the entry completed.
func (l *EntryLifecycle) Complete(ctx context.Context) error {
	return l.fire(ctx, EventComplete)
}

// Post marks the entry posted, stamping PostedAt with now unless already set.
func (l *EntryLifecycle) Post(ctx context.Context, now time.Time) error {
	if err := l.fire(ctx, EventPost); err != nil {
		return err
	}

	if l.entry.PostedAt.IsZero() {
		l.entry.PostedAt = now
	}
	return nil
}

func (l *EntryLifecycle) fire(ctx context.Context, event string) error {
	if err := l.fsm.Event(ctx, event); err != nil {
		return fmt.Errorf("%w: %s from %s: %v", ErrInvalidStatusTransition, event, l.entry.Status, err)
	}

	l.entry.Status = EntryStatus(l.fsm.Current())
	return nil
}
