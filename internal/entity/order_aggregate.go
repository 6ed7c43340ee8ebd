package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
	OrderRefunded   OrderStatus = "refunded"
)

// transitions lists the allowed forward edges. Refunded is only reachable
// from Completed; Cancelled and Refunded are terminal.
var transitions = map[OrderStatus][]OrderStatus{
	OrderPending:    {OrderProcessing, OrderCompleted, OrderCancelled},
	OrderProcessing: {OrderCompleted, OrderCancelled},
	OrderCompleted:  {OrderRefunded},
}

// ParseOrderStatus validates a status name.
func ParseOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(s)
	switch status {
	case OrderPending, OrderProcessing, OrderCompleted, OrderCancelled, OrderRefunded:
		return status, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// LineDiscount is the promotion outcome for one snapshot line.
type LineDiscount struct {
	PromotionID     string
	DiscountPerUnit decimal.Decimal
}

// NewOrder assembles a pending order from a priced cart snapshot. discounts is
// indexed like items; a missing or short slice means no promotion discount.
// Totals are recomputed here from unit prices and never taken from the caller.
func NewOrder(id string, items []CartLineItem, discounts []LineDiscount, lineIDs func() string, now time.Time) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}

	order := &Order{
		ID:        id,
		Status:    OrderPending,
		PlacedAt:  now,
		UpdatedAt: now,
		Subtotal:  decimal.Zero,
	}

	promotionDiscount := decimal.Zero
	for idx, item := range items {
		if item.Quantity < 1 {
			return nil, fmt.Errorf("%w: quantity must be at least 1", ErrValidation)
		}
		qty := decimal.NewFromInt(int64(item.Quantity))
		gross := item.UnitPrice.Mul(qty)

		line := OrderLine{
			ID:              lineIDs(),
			ProductID:       item.ProductID,
			ProductName:     item.ProductName,
			Size:            item.Size,
			Sweetness:       item.Sweetness,
			Milk:            item.Milk,
			AddOns:          item.AddOns,
			Quantity:        item.Quantity,
			UnitPrice:       item.UnitPrice,
			DiscountPerUnit: decimal.Zero,
			LineDiscount:    decimal.Zero,
		}
		if idx < len(discounts) && discounts[idx].PromotionID != "" {
			perUnit := decimal.Min(discounts[idx].DiscountPerUnit, item.UnitPrice)
			line.PromotionID = discounts[idx].PromotionID
			line.DiscountPerUnit = perUnit
			line.LineDiscount = perUnit.Mul(qty)
		}
		line.LineTotal = gross.Sub(line.LineDiscount)

		order.Subtotal = order.Subtotal.Add(gross)
		promotionDiscount = promotionDiscount.Add(line.LineDiscount)
		order.Lines = append(order.Lines, line)
	}

	order.ThresholdDiscount = ThresholdDiscount(order.Subtotal)
	order.PromotionDiscount = promotionDiscount
	order.FinalTotal = decimal.Max(
		order.Subtotal.Sub(order.ThresholdDiscount).Sub(order.PromotionDiscount),
		decimal.Zero,
	)
	return order, nil
}

// TransitionTo moves the order to next or returns ErrInvalidTransition.
func (o *Order) TransitionTo(next OrderStatus, at time.Time) error {
	if !o.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, next)
	}
	o.Status = next
	o.UpdatedAt = at
	if next == OrderCompleted {
		completed := at
		o.CompletedAt = &completed
	}
	return nil
}

// MarkPaid sets the payment flag without touching the status. Paying an
// already-paid order is a no-op.
func (o *Order) MarkPaid(at time.Time) (changed bool, err error) {
	if o.Status == OrderCancelled || o.Status == OrderRefunded {
		return false, fmt.Errorf("%w: order is %s", ErrPaymentNotAllowed, o.Status)
	}
	if o.PaymentComplete {
		return false, nil
	}
	o.PaymentComplete = true
	o.UpdatedAt = at
	return true, nil
}
