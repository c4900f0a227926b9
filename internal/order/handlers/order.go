package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"delivery-hub/internal/domain"
	"delivery-hub/internal/order/service"
)

// Caller identity headers. Identity is issued upstream (session/auth layer);
// this service trusts what it is handed.
const (
	headerRole   = "X-User-Role"
	headerUserID = "X-User-Id"
)

type OrderHandler struct {
	service service.OrderServiceInterface
}

func NewOrderHandler(svc service.OrderServiceInterface) *OrderHandler {
	return &OrderHandler{service: svc}
}

func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(headerUserID)
	if userID == "" {
		writeProblem(w, http.StatusUnauthorized, "missing_identity", "X-User-Id header is required")
		return
	}
	var req domain.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "bad_json", err.Error())
		return
	}
	order, err := h.service.Checkout(r.Context(), userID, req)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid_order", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, domain.CreateOrderResponse{
		OrderNumber: order.OrderNumber,
		Status:      order.Status,
		Subtotal:    order.Subtotal,
		DeliveryFee: order.DeliveryFee,
		TotalAmount: order.TotalAmount,
	})
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.Get(r.Context(), r.PathValue("order_number"))
	if errors.Is(err, domain.ErrNotFound) {
		writeProblem(w, http.StatusNotFound, "not_found", "order not found")
		return
	}
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "db_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	role := domain.Role(r.Header.Get(headerRole))
	if role != domain.RoleAdmin && role != domain.RoleDelivery {
		writeProblem(w, http.StatusForbidden, "forbidden", "only admin and delivery may change status")
		return
	}
	var req domain.UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "bad_json", err.Error())
		return
	}
	changedBy := string(role) + ":" + r.Header.Get(headerUserID)
	orderNumber := r.PathValue("order_number")

	order, err := h.service.Transition(r.Context(), orderNumber, req.Status, changedBy)
	if errors.Is(err, domain.ErrConflict) {
		// one retry against fresh state, then surface the conflict
		order, err = h.service.Transition(r.Context(), orderNumber, req.Status, changedBy)
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "not_found", "order not found")
	case errors.Is(err, domain.ErrInvalidTransition):
		writeProblem(w, http.StatusUnprocessableEntity, "invalid_transition", err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeProblem(w, http.StatusConflict, "conflict", "concurrent update, re-fetch and retry")
	case err != nil:
		writeProblem(w, http.StatusInternalServerError, "db_error", err.Error())
	default:
		writeJSON(w, http.StatusOK, order)
	}
}

func (h *OrderHandler) Claim(w http.ResponseWriter, r *http.Request) {
	role := domain.Role(r.Header.Get(headerRole))
	driverID := r.Header.Get(headerUserID)
	if role != domain.RoleDelivery || driverID == "" {
		writeProblem(w, http.StatusForbidden, "forbidden", "only an identified courier may claim an order")
		return
	}
	order, err := h.service.Claim(r.Context(), r.PathValue("order_number"), driverID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "not_found", "order not found")
	case errors.Is(err, domain.ErrConflict):
		writeProblem(w, http.StatusConflict, "conflict", "concurrent update, re-fetch and retry")
	case errors.Is(err, domain.ErrInvalidTransition):
		writeProblem(w, http.StatusUnprocessableEntity, "invalid_transition", err.Error())
	case err != nil:
		writeProblem(w, http.StatusInternalServerError, "db_error", err.Error())
	default:
		writeJSON(w, http.StatusOK, order)
	}
}
