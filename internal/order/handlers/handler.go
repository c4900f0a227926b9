package handlers

import (
	"encoding/json"
	"net/http"

	"delivery-hub/internal/order/service"
)

type Handler struct {
	OrderHandler *OrderHandler
}

func New(svc service.OrderServiceInterface) *Handler {
	return &Handler{OrderHandler: NewOrderHandler(svc)}
}

func Router(h *Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /orders", h.OrderHandler.Checkout)
	mux.HandleFunc("GET /orders/{order_number}", h.OrderHandler.Get)
	mux.HandleFunc("POST /orders/{order_number}/status", h.OrderHandler.UpdateStatus)
	mux.HandleFunc("POST /orders/{order_number}/claim", h.OrderHandler.Claim)
	return mux
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeProblem renders errors in a simplified problem+json shape.
func writeProblem(w http.ResponseWriter, code int, typ, detail string) {
	writeJSON(w, code, map[string]any{
		"type":   typ,
		"title":  http.StatusText(code),
		"status": code,
		"detail": detail,
	})
}
