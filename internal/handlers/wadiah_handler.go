package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/laundrypay/backend/internal/models"
	"github.com/laundrypay/backend/internal/services"
)

type WadiahHandler struct {
	ledger    *services.LedgerService
	validator *services.ValidationHelper
}

func NewWadiahHandler(ledger *services.LedgerService) *WadiahHandler {
	return &WadiahHandler{
		ledger:    ledger,
		validator: services.NewValidationHelper(),
	}
}

// TransactionRequest is a manual ledger entry made at the counter.
type TransactionRequest struct {
	Kind            string  `json:"kind" validate:"required,oneof=deposit change_deposit payment refund adjustment sedekah"`
	Amount          int64   `json:"amount" validate:"required,gt=0"`
	OrderID         *string `json:"orderId,omitempty"`
	Notes           string  `json:"notes,omitempty" validate:"max=500"`
	CustomerConsent *bool   `json:"customerConsent,omitempty"`
	OriginalAmount  *int64  `json:"originalAmount,omitempty" validate:"omitempty,gte=0"`
	RoundedAmount   *int64  `json:"roundedAmount,omitempty" validate:"omitempty,gte=0"`
}

// GetBalance returns a student's wadiah balance
// @Summary Get wadiah balance
// @Description Returns the student's balance. A student without transactions has a zero balance.
// @Tags Wadiah
// @Produce json
// @Security BearerAuth
// @Param studentId path string true "Student ID"
// @Success 200 {object} object{success=bool,data=models.StudentBalance}
// @Failure 401 {object} services.ErrorResponse
// @Failure 403 {object} services.ErrorResponse
// @Router /students/{studentId}/balance [get]
func (h *WadiahHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	studentID := chi.URLParam(r, "studentId")
	if !requireStudentAccess(w, actor, studentID) {
		return
	}

	balance, err := h.ledger.Read(r.Context(), studentID)
	if err != nil {
		services.SendServiceError(w, err)
		return
	}
	if balance == nil {
		balance = &models.StudentBalance{StudentID: studentID}
	}

	writeJSON(w, http.StatusOK, balance)
}

// ListTransactions returns a student's ledger history
// @Summary List wadiah transactions
// @Description Newest first. limit defaults to 50 and is capped at 200.
// @Tags Wadiah
// @Produce json
// @Security BearerAuth
// @Param studentId path string true "Student ID"
// @Param limit query int false "Maximum rows"
// @Success 200 {object} object{success=bool,data=[]models.Transaction}
// @Failure 400 {object} services.ErrorResponse
// @Router /students/{studentId}/transactions [get]
func (h *WadiahHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	studentID := chi.URLParam(r, "studentId")
	if !requireStudentAccess(w, actor, studentID) {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			services.SendErrorResponse(w, "limit must be a non-negative integer", http.StatusBadRequest, nil)
			return
		}
		limit = n
	}

	txns, err := h.ledger.History(r.Context(), studentID, limit)
	if err != nil {
		services.SendServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, txns)
}

// CreateTransaction records a deposit, refund, adjustment or other entry
// @Summary Record wadiah transaction
// @Description Applies one ledger entry atomically. customerConsent defaults to true for staff.
// @Tags Wadiah
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param studentId path string true "Student ID"
// @Param request body TransactionRequest true "Transaction"
// @Success 201 {object} object{success=bool,data=models.Transaction}
// @Failure 400 {object} services.ErrorResponse
// @Failure 422 {object} services.ErrorResponse
// @Router /students/{studentId}/transactions [post]
func (h *WadiahHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	studentID := chi.URLParam(r, "studentId")
	if !requireStudentAccess(w, actor, studentID) {
		return
	}

	var req TransactionRequest
	if !decodeBody(w, r, &req, true) {
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	kind, err := models.ParseTransactionKind(req.Kind)
	if err != nil {
		services.SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}

	consent := actor.CanWaiveConsent()
	if req.CustomerConsent != nil {
		consent = *req.CustomerConsent
	}

	txn, err := h.ledger.Process(r.Context(), services.ProcessRequest{
		StudentID:       studentID,
		Kind:            kind,
		Amount:          req.Amount,
		OrderID:         req.OrderID,
		Notes:           req.Notes,
		CustomerConsent: consent,
		OriginalAmount:  req.OriginalAmount,
		RoundedAmount:   req.RoundedAmount,
		Actor:           actor,
	})
	if err != nil {
		services.SendServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, txn)
}
