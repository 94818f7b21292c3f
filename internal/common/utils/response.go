// internal/common/utils/response.go
// Standardized API responses ensure consistency across all endpoints

package utils

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/imadgeboyega/kiekky-feed/internal/common/models"
)

// Response is the standard API response structure
type Response struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Data    interface{}       `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// SuccessResponse sends a successful response
func SuccessResponse(w http.ResponseWriter, data interface{}, statusCode int) {
	writeJSON(w, statusCode, Response{Success: true, Data: data})
}

// ErrorResponse sends an error response
func ErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	writeJSON(w, statusCode, Response{Success: false, Error: message})
}

// MessageResponse sends a simple message response
func MessageResponse(w http.ResponseWriter, message string, statusCode int) {
	writeJSON(w, statusCode, Response{Success: true, Message: message})
}

// DomainErrorResponse maps the error taxonomy onto HTTP statuses.
// Client errors keep their message; anything else is logged and reported as a server error.
func DomainErrorResponse(w http.ResponseWriter, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, Response{Error: models.ErrValidation.Error(), Fields: verr.Fields})
	case errors.Is(err, models.ErrDuplicateVote):
		ErrorResponse(w, err.Error(), http.StatusConflict)
	case errors.Is(err, models.ErrValidation),
		errors.Is(err, models.ErrReferencedEntityMissing),
		errors.Is(err, models.ErrInvalidOption),
		errors.Is(err, models.ErrVotingClosed):
		ErrorResponse(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, models.ErrNotFound):
		ErrorResponse(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, models.ErrForbidden):
		ErrorResponse(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, models.ErrUnauthenticated):
		ErrorResponse(w, err.Error(), http.StatusUnauthorized)
	default:
		log.Printf("internal error: %v", err)
		ErrorResponse(w, "Internal server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}
