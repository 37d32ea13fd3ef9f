package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/custbalance/internal/adapter/http/dto"
	"github.com/iho/custbalance/internal/domain"
	"github.com/iho/custbalance/internal/usecase"
)

// EntryService creates and reads ledger entries.
type EntryService interface {
	CreateEntry(ctx context.Context, input usecase.CreateEntryInput) (*domain.LedgerEntry, error)
	GetEntry(ctx context.Context, id string) (*domain.LedgerEntry, error)
}

// PostingService moves ledger entries through their lifecycle.
type PostingService interface {
	CompleteEntry(ctx context.Context, entryID string) (*domain.LedgerEntry, error)
	PostEntry(ctx context.Context, entryID string) (*domain.LedgerEntry, error)
}

// EntryHandler handles entry-related HTTP requests.
type EntryHandler struct {
	entries EntryService
	posting PostingService
}

// NewEntryHandler creates a new EntryHandler.
func NewEntryHandler(entries EntryService, posting PostingService) *EntryHandler {
	return &EntryHandler{entries: entries, posting: posting}
}

// Create stores a new in-progress entry.
func (h *EntryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount", err.Error())
		return
	}

	entry, err := h.entries.CreateEntry(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to create entry", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.EntryFromDomain(entry))
}

// Get returns an entry by ID.
func (h *EntryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing entry ID", "")
		return
	}

	entry, err := h.entries.GetEntry(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to get entry", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntryFromDomain(entry))
}

// Complete marks an in-progress entry completed.
func (h *EntryHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing entry ID", "")
		return
	}

	entry, err := h.posting.CompleteEntry(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to complete entry", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntryFromDomain(entry))
}

// Post posts an entry and reallocates the customer's open balance.
func (h *EntryHandler) Post(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing entry ID", "")
		return
	}

	entry, err := h.posting.PostEntry(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to post entry", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntryFromDomain(entry))
}
