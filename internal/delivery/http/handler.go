package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/Pondcod/cafe-kiosk-sub000/internal/entity"
	"github.com/Pondcod/cafe-kiosk-sub000/internal/service"
)

// Handler handles HTTP requests for the kiosk and the back-office.
type Handler struct {
	catalog       *service.CatalogService
	carts         *service.CartService
	promotions    *service.PromotionService
	orders        *service.OrderService
	inventory     *service.InventoryService
	notifications *service.NotificationService
}

func NewHandler(
	catalog *service.CatalogService,
	carts *service.CartService,
	promotions *service.PromotionService,
	orders *service.OrderService,
	inventory *service.InventoryService,
	notifications *service.NotificationService,
) *Handler {
	return &Handler{
		catalog:       catalog,
		carts:         carts,
		promotions:    promotions,
		orders:        orders,
		inventory:     inventory,
		notifications: notifications,
	}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/products", h.handleGetProducts).Methods(http.MethodGet)

	api.HandleFunc("/carts/{session}", h.handleViewCart).Methods(http.MethodGet)
	api.HandleFunc("/carts/{session}", h.handleClearCart).Methods(http.MethodDelete)
	api.HandleFunc("/carts/{session}/items", h.handleAddCartItem).Methods(http.MethodPost)
	api.HandleFunc("/carts/{session}/items/{index:[0-9]+}", h.handleRemoveCartItem).Methods(http.MethodDelete)
	api.HandleFunc("/carts/{session}/checkout", h.handleCheckout).Methods(http.MethodPost)

	api.HandleFunc("/promotions", h.handleCreatePromotion).Methods(http.MethodPost)
	api.HandleFunc("/promotions/active", h.handleActivePromotions).Methods(http.MethodGet)
	api.HandleFunc("/promotions/match", h.handleMatchPromotions).Methods(http.MethodPost)

	api.HandleFunc("/orders", h.handleCreateOrder).Methods(http.MethodPost)
	api.HandleFunc("/orders", h.handleGetOrders).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}", h.handleGetOrder).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}/status", h.handleUpdateOrderStatus).Methods(http.MethodPatch)
	api.HandleFunc("/orders/{id}/payment", h.handleProcessPayment).Methods(http.MethodPost)

	api.HandleFunc("/inventory/{id}/restock", h.handleRestock).Methods(http.MethodPost)
	api.HandleFunc("/inventory/{id}/adjust", h.handleAdjustInventory).Methods(http.MethodPost)
	api.HandleFunc("/inventory/{id}/transactions", h.handleInventoryTransactions).Methods(http.MethodGet)

	api.HandleFunc("/notifications", h.handleListNotifications).Methods(http.MethodGet)
	api.HandleFunc("/notifications/{id}/read", h.handleMarkNotificationRead).Methods(http.MethodPost)
}

func (h *Handler) handleGetProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.Products(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *Handler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req service.PlaceOrder
	if !decode(w, r, &req) {
		return
	}

	order, err := h.orders.PlaceOrder(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (h *Handler) handleGetOrders(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = n
	}

	orders, err := h.orders.RecentOrders(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.GetOrder(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if !decode(w, r, &req) {
		return
	}

	result, err := h.orders.UpdateStatus(r.Context(), mux.Vars(r)["id"], req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleProcessPayment(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.ProcessPayment(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", "err", err)
	}
}

// writeError maps the error taxonomy onto status codes. Unexpected errors are
// logged and hidden from the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, entity.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, entity.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, entity.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}

	if status >= http.StatusInternalServerError {
		slog.Error("Request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		writeJSON(w, status, map[string]string{"error": http.StatusText(status)})
		return
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// EnableCORS is a middleware to allow the kiosk frontend to connect.
func EnableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithTimeout bounds every request's store calls. A status change whose
// write times out leaves the order where it was.
func WithTimeout(d time.Duration) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if d <= 0 {
				next.ServeHTTP(w, r)
				return
			}
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NewRouter wires routes and middleware into one http.Handler.
func NewRouter(h *Handler, requestTimeout time.Duration) http.Handler {
	r := mux.NewRouter()
	r.Use(WithTimeout(requestTimeout))
	h.RegisterRoutes(r)
	return EnableCORS(r)
}
