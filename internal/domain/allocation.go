package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// AllocationResult is the outcome of one allocation pass over a customer's
// open entries. Entries are copies; the input slice is never modified.
type AllocationResult struct {
	// Entries holds every allocated entry after the pass, debits first, each
	// group in processing order.
	Entries []LedgerEntry
	// Dirty holds the entries whose Allocated or InOpenBalance changed.
	Dirty []LedgerEntry
	// Skipped holds entries flagged open although nothing is left to allocate.
	Skipped []LedgerEntry
	// Ignored counts entries that are not posted, of unknown type, or closed.
	Ignored int
	// Moved is the total amount matched from credits to debits.
	Moved decimal.Decimal
}

type allocationSlot struct {
	entry    LedgerEntry
	original LedgerEntry
}

func (s *allocationSlot) changed() bool {
	return !s.entry.Allocated.Equal(s.original.Allocated) ||
		s.entry.InOpenBalance != s.original.InOpenBalance
}

// Allocate matches the unallocated amount of each credit against the
// outstanding debits, oldest debit first. Credits are consumed oldest first
// too, so the result depends only on the set of entries and not on their
// order. Both groups are ordered by PostedAt with the entry ID as tiebreak.
//
// Allocate never fails. Entries already fully allocated but still flagged
// open are reported in Skipped and left untouched.
func Allocate(entries []LedgerEntry) AllocationResult {
	result := AllocationResult{Moved: decimal.Zero}
	if len(entries) == 0 {
		return result
	}

	var debits, credits []*allocationSlot
	for _, e := range entries {
		if !e.IsPosted() {
			result.Ignored++
			continue
		}

		if e.Allocated.IsNegative() || !e.IsOpen() {
			if e.InOpenBalance {
				result.Skipped = append(result.Skipped, e)
			} else {
				result.Ignored++
			}
			continue
		}

		slot := &allocationSlot{entry: e, original: e}
		switch e.Kind() {
		case KindDebit:
			debits = append(debits, slot)
		case KindCredit:
			credits = append(credits, slot)
		default:
			result.Ignored++
		}
	}

	sortSlots(debits)
	sortSlots(credits)

	// Debits are filled strictly in order, so every debit before next is
	// fully allocated.
	next := 0
	for _, credit := range credits {
		available := credit.entry.Unallocated()

		for available.IsPositive() && next < len(debits) {
			debit := &debits[next].entry

			need := debit.Unallocated()
			if !need.IsPositive() {
				next++
				continue
			}

			move := decimal.Min(available, need)
			credit.entry.Allocated = credit.entry.Allocated.Add(move)
			debit.Allocated = debit.Allocated.Add(move)
			available = available.Sub(move)
			result.Moved = result.Moved.Add(move)

			if debit.IsFullyAllocated() {
				next++
			}
		}
	}

	result.Entries = make([]LedgerEntry, 0, len(debits)+len(credits))
	for _, group := range [][]*allocationSlot{debits, credits} {
		for _, slot := range group {
			slot.entry.InOpenBalance = slot.entry.IsOpen()
			if slot.changed() {
				result.Dirty = append(result.Dirty, slot.entry)
			}
			result.Entries = append(result.Entries, slot.entry)
		}
	}

	return result
}

func sortSlots(slots []*allocationSlot) {
	sort.Slice(slots, func(i, j int) bool {
		a, b := slots[i].entry, slots[j].entry
		if !a.PostedAt.Equal(b.PostedAt) {
			return a.PostedAt.Before(b.PostedAt)
		}
		return a.ID < b.ID
	})
}
