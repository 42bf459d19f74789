package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/laundrypay/backend/internal/store"
)

// ErrorResponse represents error response structure
type ErrorResponse struct {
	Error   string            `json:"error"`             // Error message
	Details map[string]string `json:"details,omitempty"` // Validation details
	Meta    map[string]any    `json:"meta,omitempty"`    // Machine readable context
}

// ValidationHelper provides shared validation functionality
type ValidationHelper struct {
	validator *validator.Validate
}

// NewValidationHelper creates a new validation helper
func NewValidationHelper() *ValidationHelper {
	return &ValidationHelper{
		validator: validator.New(),
	}
}

// ValidateStruct validates a struct and returns validation errors
func (vh *ValidationHelper) ValidateStruct(s any) error {
	return vh.validator.Struct(s)
}

// SendErrorResponse sends a JSON error response
func SendErrorResponse(w http.ResponseWriter, message string, statusCode int, validationErr error) {
	errorResp := ErrorResponse{Error: message}

	var validationErrors validator.ValidationErrors
	if errors.As(validationErr, &validationErrors) {
		errorResp.Details = make(map[string]string)
		for _, err := range validationErrors {
			errorResp.Details[err.Field()] = fmt.Sprintf("Field Validation Failed on '%s' tag", err.Tag())
		}
	}

	writeError(w, statusCode, errorResp)
}

// SendServiceError maps a ledger, checkout or gateway error to its HTTP status.
func SendServiceError(w http.ResponseWriter, err error) {
	var (
		reconciliation *ReconciliationRequiredError
		insufficient   *InsufficientBalanceError
	)

	switch {
	case errors.As(err, &reconciliation):
		writeError(w, http.StatusInternalServerError, ErrorResponse{
			Error: "Checkout could not be completed and was queued for reconciliation",
			Meta: map[string]any{
				"caseId":         reconciliation.Case.CheckoutID,
				"transactionIds": reconciliation.Case.TransactionIDs,
			},
		})
	case errors.As(err, &insufficient):
		writeError(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error: ErrInsufficientBalance.Error(),
			Meta: map[string]any{
				"balanceBefore": insufficient.BalanceBefore,
				"amount":        insufficient.Amount,
				"shortfall":     insufficient.Shortfall(),
			},
		})
	case errors.Is(err, ErrInsufficientPayment):
		SendErrorResponse(w, err.Error(), http.StatusUnprocessableEntity, nil)
	case errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrInvalidKind),
		errors.Is(err, ErrConsentRequired),
		errors.Is(err, ErrStudentRequired),
		errors.Is(err, ErrActorRequired),
		errors.Is(err, ErrInvalidCheckout),
		errors.Is(err, ErrNothingToPayOnline):
		SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
	case errors.Is(err, store.ErrBillNotFound):
		SendErrorResponse(w, err.Error(), http.StatusNotFound, nil)
	case errors.Is(err, store.ErrBillNotPayable):
		SendErrorResponse(w, err.Error(), http.StatusConflict, nil)
	case errors.Is(err, ErrInvalidSignature):
		SendErrorResponse(w, err.Error(), http.StatusUnauthorized, nil)
	case errors.Is(err, ErrGatewayUnavailable):
		SendErrorResponse(w, err.Error(), http.StatusServiceUnavailable, nil)
	default:
		log.Printf("[HTTP] unhandled service error: %v", err)
		SendErrorResponse(w, "Transaction could not be processed, please try again", http.StatusInternalServerError, nil)
	}
}

func writeError(w http.ResponseWriter, statusCode int, resp ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(resp)
}
