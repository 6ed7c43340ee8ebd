package http

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/Pondcod/cafe-kiosk-sub000/internal/entity"
	"github.com/Pondcod/cafe-kiosk-sub000/internal/service"
)

func (h *Handler) handleViewCart(w http.ResponseWriter, r *http.Request) {
	view, err := h.carts.View(r.Context(), mux.Vars(r)["session"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) handleClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.Clear(r.Context(), mux.Vars(r)["session"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAddCartItem(w http.ResponseWriter, r *http.Request) {
	var req service.AddItem
	if !decode(w, r, &req) {
		return
	}
	view, err := h.carts.AddItem(r.Context(), mux.Vars(r)["session"], req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) handleRemoveCartItem(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	index, err := strconv.Atoi(vars["index"])
	if err != nil {
		// Too large for an int; no line can have this index.
		index = -1
	}
	view, err := h.carts.RemoveItem(r.Context(), vars["session"], index)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	order, err := h.carts.Checkout(r.Context(), mux.Vars(r)["session"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

type createPromotionRequest struct {
	Name       string              `json:"name"`
	Kind       entity.DiscountKind `json:"discount_type"`
	Value      decimal.Decimal     `json:"discount_value"`
	StartDate  string              `json:"start_date"`
	EndDate    string              `json:"end_date"`
	Days       []string            `json:"days_of_week"`
	Active     *bool               `json:"is_active"`
	TargetType entity.TargetType   `json:"target_type"`
	TargetIDs  []string            `json:"target_ids"`
}

// toPromotion parses the inclusive calendar dates, given as YYYY-MM-DD.
func (req createPromotionRequest) toPromotion() (entity.Promotion, error) {
	start, err := time.Parse(time.DateOnly, req.StartDate)
	if err != nil {
		return entity.Promotion{}, fmt.Errorf("%w: start_date must be YYYY-MM-DD", entity.ErrInvalidPromotion)
	}
	end, err := time.Parse(time.DateOnly, req.EndDate)
	if err != nil {
		return entity.Promotion{}, fmt.Errorf("%w: end_date must be YYYY-MM-DD", entity.ErrInvalidPromotion)
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	return entity.Promotion{
		Name:       req.Name,
		Kind:       req.Kind,
		Value:      req.Value,
		StartDate:  start,
		EndDate:    end,
		Days:       req.Days,
		Active:     active,
		TargetType: req.TargetType,
		TargetIDs:  req.TargetIDs,
	}, nil
}

func (h *Handler) handleCreatePromotion(w http.ResponseWriter, r *http.Request) {
	var req createPromotionRequest
	if !decode(w, r, &req) {
		return
	}
	promotion, err := req.toPromotion()
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.promotions.Create(r.Context(), promotion)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) handleActivePromotions(w http.ResponseWriter, r *http.Request) {
	promotions, err := h.promotions.Active(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, promotions)
}

type matchRequest struct {
	Items []service.MatchItem `json:"items"`
}

func (h *Handler) handleMatchPromotions(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if !decode(w, r, &req) {
		return
	}
	result, err := h.promotions.Match(r.Context(), req.Items)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type stockChangeRequest struct {
	Quantity decimal.Decimal        `json:"quantity"`
	Type     entity.TransactionKind `json:"transaction_type"`
	Note     string                 `json:"note"`
}

type stockChangeResponse struct {
	Item        *entity.InventoryItem        `json:"item"`
	Transaction *entity.InventoryTransaction `json:"transaction"`
}

func (h *Handler) handleRestock(w http.ResponseWriter, r *http.Request) {
	var req stockChangeRequest
	if !decode(w, r, &req) {
		return
	}
	item, txn, err := h.inventory.Restock(r.Context(), mux.Vars(r)["id"], req.Quantity, req.Note)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stockChangeResponse{Item: item, Transaction: txn})
}

func (h *Handler) handleAdjustInventory(w http.ResponseWriter, r *http.Request) {
	var req stockChangeRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Type == "" {
		req.Type = entity.TransactionAdjusted
	}
	item, txn, err := h.inventory.Adjust(r.Context(), mux.Vars(r)["id"], req.Quantity, req.Type, req.Note)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stockChangeResponse{Item: item, Transaction: txn})
}

func (h *Handler) handleInventoryTransactions(w http.ResponseWriter, r *http.Request) {
	txns, err := h.inventory.Transactions(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, txns)
}

func (h *Handler) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	unread, _ := strconv.ParseBool(r.URL.Query().Get("unread"))
	notifications, err := h.notifications.List(r.Context(), unread)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, notifications)
}

func (h *Handler) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	if err := h.notifications.MarkRead(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
