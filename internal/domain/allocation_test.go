package domain

import (
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func openEntry(id string, typ EntryType, total int64, allocated int64, postedOffset time.Duration) LedgerEntry {
	return LedgerEntry{
		ID:            id,
		CustomerID:    "cust-1",
		Type:          typ,
		Status:        StatusPosted,
		Total:         decimal.NewFromInt(total),
		Allocated:     decimal.NewFromInt(allocated),
		InOpenBalance: true,
		PostedAt:      baseTime.Add(postedOffset),
	}
}

func byID(entries []LedgerEntry) map[string]LedgerEntry {
	m := make(map[string]LedgerEntry, len(entries))
	for _, e := range entries {
		m[e.ID] = e
	}
	return m
}

func assertAmount(t *testing.T, want int64, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, decimal.NewFromInt(want).Equal(got), append([]any{"want %d, got %s", want, got}, msgAndArgs...)...)
}

func TestAllocate_Empty(t *testing.T) {
	result := Allocate(nil)

	assert.Empty(t, result.Entries)
	assert.Empty(t, result.Dirty)
	assert.True(t, result.Moved.IsZero())
}

func TestAllocate_DebitMatchedByEqualCredit(t *testing.T) {
	result := Allocate([]LedgerEntry{
		openEntry("inv-1", TypeInvoice, 100, 0, 0),
		openEntry("pay-1", TypePayment, 100, 0, time.Hour),
	})

	got := byID(result.Entries)
	assertAmount(t, 100, got["inv-1"].Allocated)
	assertAmount(t, 100, got["pay-1"].Allocated)
	assert.False(t, got["inv-1"].InOpenBalance)
	assert.False(t, got["pay-1"].InOpenBalance)
	assert.Len(t, result.Dirty, 2)
	for _, e := range result.Dirty {
		assert.False(t, e.InOpenBalance, "%s should leave the open balance", e.ID)
	}
	assertAmount(t, 100, result.Moved)
}

func TestAllocate_OldestDebitFirst(t *testing.T) {
	result := Allocate([]LedgerEntry{
		openEntry("pay-1", TypePayment, 120, 0, 2*time.Hour),
		openEntry("inv-new", TypeInvoice, 50, 0, time.Hour),
		openEntry("inv-old", TypeInvoice, 100, 0, 0),
	})

	got := byID(result.Entries)
	assertAmount(t, 100, got["inv-old"].Allocated)
	assertAmount(t, 20, got["inv-new"].Allocated)
	assertAmount(t, 120, got["pay-1"].Allocated)

	assert.False(t, got["inv-old"].InOpenBalance)
	assert.True(t, got["inv-new"].InOpenBalance)
	assert.False(t, got["pay-1"].InOpenBalance)
	assert.Len(t, result.Dirty, 3)
}

func TestAllocate_CreditWithoutDebitsStaysOpen(t *testing.T) {
	result := Allocate([]LedgerEntry{
		openEntry("pay-1", TypePayment, 100, 0, 0),
	})

	require.Len(t, result.Entries, 1)
	assert.True(t, result.Entries[0].Allocated.IsZero())
	assert.True(t, result.Entries[0].InOpenBalance)
	assert.Empty(t, result.Dirty)
}

func TestAllocate_CompetingCreditsOldestConsumedFirst(t *testing.T) {
	input := []LedgerEntry{
		openEntry("pay-b", TypePayment, 60, 0, 2*time.Hour),
		openEntry("inv-1", TypeInvoice, 100, 0, 0),
		openEntry("pay-a", TypePayment, 60, 0, time.Hour),
	}

	for i := 0; i < 5; i++ {
		shuffled := append([]LedgerEntry(nil), input...)
		rand.New(rand.NewSource(int64(i))).Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})

		got := byID(Allocate(shuffled).Entries)
		assertAmount(t, 100, got["inv-1"].Allocated)
		assertAmount(t, 60, got["pay-a"].Allocated)
		assertAmount(t, 40, got["pay-b"].Allocated)
		assert.False(t, got["pay-a"].InOpenBalance)
		assert.True(t, got["pay-b"].InOpenBalance)
		assertAmount(t, 20, got["pay-b"].Unallocated())
	}
}

func TestAllocate_TiesBrokenByID(t *testing.T) {
	result := Allocate([]LedgerEntry{
		openEntry("inv-b", TypeInvoice, 50, 0, 0),
		openEntry("inv-a", TypeInvoice, 50, 0, 0),
		openEntry("pay-1", TypePayment, 50, 0, time.Hour),
	})

	got := byID(result.Entries)
	assertAmount(t, 50, got["inv-a"].Allocated)
	assert.True(t, got["inv-b"].Allocated.IsZero())
	assert.Equal(t, "inv-a", result.Entries[0].ID)
}

func TestAllocate_RerunIsNoop(t *testing.T) {
	first := Allocate([]LedgerEntry{
		openEntry("inv-old", TypeInvoice, 100, 0, 0),
		openEntry("inv-new", TypeInvoice, 50, 0, time.Hour),
		openEntry("pay-1", TypePayment, 120, 0, 2*time.Hour),
	})
	require.NotEmpty(t, first.Dirty)

	second := Allocate(first.Entries)

	assert.Empty(t, second.Dirty)
	assert.Empty(t, second.Skipped)
	assert.True(t, second.Moved.IsZero())
}

func TestAllocate_PartialAllocationCarriedOver(t *testing.T) {
	result := Allocate([]LedgerEntry{
		openEntry("inv-1", TypeInvoice, 100, 30, 0),
		openEntry("pay-1", TypePayment, 50, 0, time.Hour),
	})

	got := byID(result.Entries)
	assertAmount(t, 80, got["inv-1"].Allocated)
	assertAmount(t, 50, got["pay-1"].Allocated)
	assertAmount(t, 50, result.Moved)
}

func TestAllocate_SkipsClosedEntriesFlaggedOpen(t *testing.T) {
	result := Allocate([]LedgerEntry{
		openEntry("inv-closed", TypeInvoice, 100, 100, 0),
		openEntry("inv-1", TypeInvoice, 40, 0, time.Hour),
		openEntry("pay-1", TypePayment, 40, 0, 2*time.Hour),
	})

	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "inv-closed", result.Skipped[0].ID)

	got := byID(result.Entries)
	assertAmount(t, 40, got["inv-1"].Allocated)
	_, present := got["inv-closed"]
	assert.False(t, present)
}

func TestAllocate_IgnoresUnpostedEntries(t *testing.T) {
	draft := openEntry("inv-draft", TypeInvoice, 100, 0, 0)
	draft.Status = StatusInProgress

	result := Allocate([]LedgerEntry{
		draft,
		openEntry("pay-1", TypePayment, 100, 0, time.Hour),
	})

	assert.Equal(t, 1, result.Ignored)
	assert.Empty(t, result.Dirty)
	assert.True(t, result.Moved.IsZero())
}

func TestAllocate_LinksUnflaggedOpenEntries(t *testing.T) {
	credit := openEntry("pay-1", TypePayment, 100, 0, 0)
	credit.InOpenBalance = false

	result := Allocate([]LedgerEntry{credit})

	require.Len(t, result.Dirty, 1)
	assert.True(t, result.Dirty[0].InOpenBalance)
}

func TestAllocate_DoesNotModifyInput(t *testing.T) {
	input := []LedgerEntry{
		openEntry("inv-1", TypeInvoice, 100, 0, 0),
		openEntry("pay-1", TypePayment, 100, 0, time.Hour),
	}

	Allocate(input)

	assert.True(t, input[0].Allocated.IsZero())
	assert.True(t, input[1].Allocated.IsZero())
	assert.True(t, input[0].InOpenBalance)
}

func randomLedger(r *rand.Rand) []LedgerEntry {
	types := []EntryType{TypeInvoice, TypeCounterSale, TypeRefund, TypePayment, TypeCreditNote, TypeBadDebt}

	n := r.Intn(12)
	entries := make([]LedgerEntry, 0, n)
	for i := 0; i < n; i++ {
		total := decimal.New(r.Int63n(50000), -2)
		allocated := decimal.Zero
		if r.Intn(4) == 0 && total.IsPositive() {
			allocated = decimal.New(r.Int63n(total.Shift(2).IntPart()), -2)
		}
		entries = append(entries, LedgerEntry{
			ID:            string(rune('a'+i)) + "-entry",
			CustomerID:    "cust-1",
			Type:          types[r.Intn(len(types))],
			Status:        StatusPosted,
			Total:         total,
			Allocated:     allocated,
			InOpenBalance: true,
			PostedAt:      baseTime.Add(time.Duration(r.Intn(5)) * time.Hour),
		})
	}
	return entries
}

func TestAllocate_Properties(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	for run := 0; run < 200; run++ {
		input := randomLedger(r)
		result := Allocate(input)
		before := byID(input)

		creditDelta, debitDelta := decimal.Zero, decimal.Zero
		for _, e := range result.Entries {
			// bounds
			require.False(t, e.Allocated.IsNegative(), "run %d: %s allocated negative", run, e.ID)
			require.True(t, e.Allocated.LessThanOrEqual(e.Total), "run %d: %s over-allocated", run, e.ID)

			// membership
			require.Equal(t, e.IsOpen(), e.InOpenBalance, "run %d: %s membership", run, e.ID)

			delta := e.Allocated.Sub(before[e.ID].Allocated)
			if e.Kind() == KindCredit {
				creditDelta = creditDelta.Add(delta)
			} else {
				debitDelta = debitDelta.Add(delta)
			}
		}

		// conservation
		require.True(t, creditDelta.Equal(debitDelta), "run %d: credits moved %s, debits received %s", run, creditDelta, debitDelta)
		require.True(t, creditDelta.Equal(result.Moved), "run %d: moved %s", run, result.Moved)

		// idempotence
		again := Allocate(result.Entries)
		require.Empty(t, again.Dirty, "run %d: second pass changed entries", run)

		// determinism
		shuffled := append([]LedgerEntry(nil), input...)
		r.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		other := byID(Allocate(shuffled).Entries)
		for _, e := range result.Entries {
			require.True(t, e.Allocated.Equal(other[e.ID].Allocated), "run %d: %s differs between runs", run, e.ID)
		}
	}
}
