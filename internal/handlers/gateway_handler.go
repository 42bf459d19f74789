package handlers

import (
	"net/http"

	"github.com/laundrypay/backend/internal/services"
)

type GatewayHandler struct {
	gateway   *services.GatewayService
	validator *services.ValidationHelper
}

func NewGatewayHandler(gateway *services.GatewayService) *GatewayHandler {
	return &GatewayHandler{
		gateway:   gateway,
		validator: services.NewValidationHelper(),
	}
}

// CreatePayment opens an online payment for the amount left after wadiah usage
// @Summary Create online payment
// @Description Opens a Midtrans Snap payment. The checkout completes when the gateway reports settlement.
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body services.CheckoutRequest true "Checkout request; paidAmount and paymentMethod are ignored"
// @Success 201 {object} object{success=bool,data=services.OnlinePayment}
// @Failure 400 {object} services.ErrorResponse
// @Failure 403 {object} services.ErrorResponse
// @Failure 503 {object} services.ErrorResponse
// @Router /payments/online [post]
func (h *GatewayHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req services.CheckoutRequest
	if !decodeBody(w, r, &req, true) {
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}
	if !requireStudentAccess(w, actor, req.StudentID) {
		return
	}

	payment, err := h.gateway.CreatePayment(r.Context(), req, actor)
	if err != nil {
		services.SendServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, payment)
}

// Notification receives Midtrans payment notifications
// @Summary Midtrans notification
// @Description Verifies the signature and settles, keeps or drops the pending checkout. A non-2xx response makes Midtrans retry.
// @Tags Payments
// @Accept json
// @Produce json
// @Param request body services.Notification true "Midtrans notification"
// @Success 200 {object} object{success=bool,data=services.NotificationResult}
// @Failure 401 {object} services.ErrorResponse
// @Router /payments/midtrans/notification [post]
func (h *GatewayHandler) Notification(w http.ResponseWriter, r *http.Request) {
	var n services.Notification
	if !decodeBody(w, r, &n, false) {
		return
	}
	if err := h.validator.ValidateStruct(&n); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	result, err := h.gateway.HandleNotification(r.Context(), n)
	if err != nil {
		services.SendServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
