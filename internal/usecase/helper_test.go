package usecase_test

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/custbalance/internal/domain"
	"github.com/iho/custbalance/internal/usecase"
)

var t0 = time.Date(2024, 1, 15, 8, 30, 0, 0, time.UTC)

// memStore is an in-memory EntryRepository and CustomerRepository.
type memStore struct {
	mu        sync.Mutex
	entries   map[string]domain.LedgerEntry
	customers map[string]*domain.Customer
	saves     []domain.LedgerEntry
	saveErrs  map[string]error
	transient map[string]int
	findErr   error
}

func newMemStore() *memStore {
	return &memStore{
		entries:   make(map[string]domain.LedgerEntry),
		customers: make(map[string]*domain.Customer),
		saveErrs:  make(map[string]error),
		transient: make(map[string]int),
	}
}

func (s *memStore) addCustomer(id, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers[id] = &domain.Customer{ID: id, Name: name, CreatedAt: t0}
}

func (s *memStore) add(customerID, id string, typ domain.EntryType, total int64, postedAfter time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = domain.LedgerEntry{
		ID:            id,
		CustomerID:    customerID,
		Type:          typ,
		Status:        domain.StatusPosted,
		Total:         decimal.NewFromInt(total),
		Allocated:     decimal.Zero,
		InOpenBalance: true,
		PostedAt:      t0.Add(postedAfter),
	}
}

func (s *memStore) put(e domain.LedgerEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[e.ID] = e
}

func (s *memStore) get(id string) domain.LedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[id]
}

func (s *memStore) resetSaves() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves = nil
}

func (s *memStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saves)
}

func (s *memStore) Create(_ context.Context, _ usecase.Transaction, entry *domain.LedgerEntry) error {
	s.put(*entry)
	return nil
}

func (s *memStore) GetByID(_ context.Context, id string) (*domain.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, domain.ErrEntryNotFound
	}
	return &e, nil
}

func (s *memStore) GetByIDForUpdate(ctx context.Context, _ usecase.Transaction, id string) (*domain.LedgerEntry, error) {
	return s.GetByID(ctx, id)
}

func (s *memStore) UpdateStatus(_ context.Context, _ usecase.Transaction, entry *domain.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entries[entry.ID]
	e.Status = entry.Status
	e.PostedAt = entry.PostedAt
	e.InOpenBalance = entry.InOpenBalance
	s.entries[entry.ID] = e
	return nil
}

func (s *memStore) FindOpenEntries(_ context.Context, _ usecase.Transaction, customerID string) ([]domain.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	var out []domain.LedgerEntry
	for _, e := range s.entries {
		if e.CustomerID == customerID && e.IsPosted() && e.InOpenBalance {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *memStore) FindUnlinkedEntries(_ context.Context, _ usecase.Transaction, customerID string) ([]domain.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.LedgerEntry
	for _, e := range s.entries {
		if e.CustomerID == customerID && e.IsPosted() && !e.InOpenBalance && e.IsOpen() {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *memStore) SaveAllocation(_ context.Context, _ usecase.Transaction, entry domain.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.saveErrs[entry.ID]; err != nil {
		return err
	}
	if s.transient[entry.ID] > 0 {
		s.transient[entry.ID]--
		return errors.New("serialization failure")
	}
	e := s.entries[entry.ID]
	e.Allocated = entry.Allocated
	e.InOpenBalance = entry.InOpenBalance
	s.entries[entry.ID] = e
	s.saves = append(s.saves, entry)
	return nil
}

func (s *memStore) FindCustomersWithOpenEntries(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	var ids []string
	for _, e := range s.entries {
		if e.IsPosted() && e.InOpenBalance {
			ids = append(ids, e.CustomerID)
		}
	}
	return ids, nil
}

// customerRepo adapts memStore to CustomerRepository; GetByID clashes with
// the entry lookup.
type customerRepo struct{ s *memStore }

func (r customerRepo) GetByID(_ context.Context, id string) (*domain.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.customers[id]
	if !ok {
		return nil, domain.ErrCustomerNotFound
	}
	return c, nil
}

func (r customerRepo) List(_ context.Context, namePattern string) ([]*domain.Customer, error) {
	expr := regexp.QuoteMeta(namePattern)
	expr = strings.NewReplacer("%", ".*", "_", ".").Replace(expr)
	re := regexp.MustCompile("(?i)^" + expr + "$")

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.Customer
	for _, c := range r.s.customers {
		if re.MatchString(c.Name) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type fixedIDs struct{ next int }

func (g *fixedIDs) Generate() string {
	g.next++
	return "entry-" + string(rune('0'+g.next))
}

func amount(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}
