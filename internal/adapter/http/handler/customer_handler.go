package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/custbalance/internal/adapter/http/dto"
	"github.com/iho/custbalance/internal/domain"
	"github.com/iho/custbalance/internal/usecase"
)

// BalanceService answers open balance queries.
type BalanceService interface {
	CustomersWithOpenEntries(ctx context.Context) ([]string, error)
	GetBalance(ctx context.Context, customerID string) (*domain.CustomerBalance, error)
}

// OpenEntryLister lists a customer's open balance entries.
type OpenEntryLister interface {
	ListOpenEntries(ctx context.Context, customerID string) ([]domain.LedgerEntry, error)
}

// CustomerRecalculator recalculates one customer under its lock.
type CustomerRecalculator interface {
	RecalculateCustomer(ctx context.Context, customerID string) (*usecase.RecalculationResult, int, error)
}

// CustomerHandler handles customer balance requests.
type CustomerHandler struct {
	balances     BalanceService
	entries      OpenEntryLister
	recalculator CustomerRecalculator
}

// NewCustomerHandler creates a new CustomerHandler.
func NewCustomerHandler(balances BalanceService, entries OpenEntryLister, recalculator CustomerRecalculator) *CustomerHandler {
	return &CustomerHandler{
		balances:     balances,
		entries:      entries,
		recalculator: recalculator,
	}
}

// Outstanding lists customers with open balance entries.
func (h *CustomerHandler) Outstanding(w http.ResponseWriter, r *http.Request) {
	ids, err := h.balances.CustomersWithOpenEntries(r.Context())
	if err != nil {
		writeDomainError(w, "failed to list outstanding customers", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}

	writeJSON(w, http.StatusOK, dto.OutstandingResponse{CustomerIDs: ids})
}

// Balance returns a customer's balance summary.
func (h *CustomerHandler) Balance(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "id")
	if customerID == "" {
		writeError(w, http.StatusBadRequest, "missing customer ID", "")
		return
	}

	balance, err := h.balances.GetBalance(r.Context(), customerID)
	if err != nil {
		writeDomainError(w, "failed to get balance", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceFromDomain(balance))
}

// OpenEntries lists a customer's open balance entries, oldest first.
func (h *CustomerHandler) OpenEntries(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "id")
	if customerID == "" {
		writeError(w, http.StatusBadRequest, "missing customer ID", "")
		return
	}

	entries, err := h.entries.ListOpenEntries(r.Context(), customerID)
	if err != nil {
		writeDomainError(w, "failed to list open entries", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntriesFromDomain(entries))
}

// Recalculate links and reallocates a customer's open balance.
func (h *CustomerHandler) Recalculate(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "id")
	if customerID == "" {
		writeError(w, http.StatusBadRequest, "missing customer ID", "")
		return
	}

	result, linked, err := h.recalculator.RecalculateCustomer(r.Context(), customerID)
	if err != nil {
		writeDomainError(w, "failed to recalculate balance", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.RecalculationFromResult(result, linked))
}
