package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/iho/custbalance/internal/adapter/http/dto"
	"github.com/iho/custbalance/internal/domain"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// writeDomainError writes err with the status mapDomainError picks for it.
// Details of internal errors are not exposed.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	status := mapDomainError(err)
	details := err.Error()
	if status == http.StatusInternalServerError {
		details = ""
	}
	writeError(w, status, message, details)
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrEntryNotFound),
		errors.Is(err, domain.ErrCustomerNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrMissingCustomer),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrAmountTooLarge),
		errors.Is(err, domain.ErrInvalidEntryType),
		errors.Is(err, domain.ErrAllocationOutOfRange),
		errors.Is(err, domain.ErrInvalidCustomerPattern):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidStatusTransition):
		return http.StatusConflict
	case errors.Is(err, domain.ErrCustomerLocked):
		return http.StatusLocked
	default:
		return http.StatusInternalServerError
	}
}
