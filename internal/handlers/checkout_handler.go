package handlers

import (
	"net/http"
	"strconv"

	"github.com/laundrypay/backend/internal/models"
	"github.com/laundrypay/backend/internal/services"
)

type CheckoutHandler struct {
	checkout  *services.CheckoutService
	queue     *services.ReconciliationQueue
	validator *services.ValidationHelper
}

func NewCheckoutHandler(checkout *services.CheckoutService, queue *services.ReconciliationQueue) *CheckoutHandler {
	return &CheckoutHandler{
		checkout:  checkout,
		queue:     queue,
		validator: services.NewValidationHelper(),
	}
}

func (h *CheckoutHandler) decode(w http.ResponseWriter, r *http.Request, actor models.Actor) (services.CheckoutRequest, bool) {
	var req services.CheckoutRequest
	if !decodeBody(w, r, &req, true) {
		return req, false
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return req, false
	}
	return req, requireStudentAccess(w, actor, req.StudentID)
}

// Preview computes a checkout without writing anything
// @Summary Preview settlement
// @Description Returns amount due, rounding and change for the given bills, tender and wadiah usage.
// @Tags Checkout
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body services.CheckoutRequest true "Checkout request"
// @Success 200 {object} object{success=bool,data=services.SettlementPreview}
// @Failure 400 {object} services.ErrorResponse
// @Failure 422 {object} services.ErrorResponse
// @Router /checkout/preview [post]
func (h *CheckoutHandler) Preview(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	req, ok := h.decode(w, r, actor)
	if !ok {
		return
	}

	preview, err := h.checkout.Preview(r.Context(), req, actor)
	if err != nil {
		services.SendServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, preview)
}

// Checkout settles bills with wadiah balance and tendered cash or transfer
// @Summary Checkout
// @Description Applies wadiah usage, rounding to sedekah, change to wadiah and marks the bills paid.
// @Tags Checkout
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body services.CheckoutRequest true "Checkout request"
// @Success 201 {object} object{success=bool,data=services.CheckoutResult}
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Failure 422 {object} services.ErrorResponse
// @Failure 500 {object} services.ErrorResponse
// @Router /checkout [post]
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	req, ok := h.decode(w, r, actor)
	if !ok {
		return
	}

	result, err := h.checkout.Checkout(r.Context(), req, actor)
	if err != nil {
		services.SendServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// ListReconciliation returns checkouts waiting for manual reconciliation
// @Summary List reconciliation cases
// @Tags Checkout
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Maximum cases"
// @Success 200 {object} object{success=bool,data=[]services.ReconciliationCase}
// @Failure 403 {object} services.ErrorResponse
// @Router /reconciliation [get]
func (h *CheckoutHandler) ListReconciliation(w http.ResponseWriter, r *http.Request) {
	var limit int64
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 0 {
			services.SendErrorResponse(w, "limit must be a non-negative integer", http.StatusBadRequest, nil)
			return
		}
		limit = n
	}

	cases, err := h.queue.Pending(r.Context(), limit)
	if err != nil {
		services.SendServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, cases)
}
