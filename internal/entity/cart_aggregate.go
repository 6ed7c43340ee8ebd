package entity

import (
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ThresholdAmount is the subtotal a cart must exceed to earn the flat discount.
	ThresholdAmount = decimal.NewFromInt(500)
	// ThresholdDiscountAmount is the flat discount granted above ThresholdAmount.
	ThresholdDiscountAmount = decimal.NewFromInt(50)
)

// ThresholdDiscount returns the flat discount for a subtotal. The boundary is
// strict: exactly ThresholdAmount earns nothing.
func ThresholdDiscount(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThan(ThresholdAmount) {
		return decimal.Min(ThresholdDiscountAmount, subtotal)
	}
	return decimal.Zero
}

// CartLineItem represents one customized selection in a kiosk cart.
type CartLineItem struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Size        Size            `json:"size"`
	Quantity    int             `json:"quantity"`
	Sweetness   string          `json:"sweetness"`
	Milk        *string         `json:"milk,omitempty"`
	AddOns      []AddOn         `json:"add_ons,omitempty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// NewCartLineItem prices a selection from the catalog: size price plus add-ons.
func NewCartLineItem(p Product, size Size, quantity int, sweetness string, milk *string, addOns []AddOn) (CartLineItem, error) {
	if size == "" {
		size = SizeRegular
	}
	unit, err := p.PriceFor(size)
	if err != nil {
		return CartLineItem{}, err
	}
	for _, a := range addOns {
		unit = unit.Add(a.Price)
	}
	if quantity < 1 {
		quantity = 1
	}
	return CartLineItem{
		ProductID:   p.ID,
		ProductName: p.Name,
		Size:        size,
		Quantity:    quantity,
		Sweetness:   sweetness,
		Milk:        milk,
		AddOns:      addOns,
		UnitPrice:   unit,
		LineTotal:   unit.Mul(decimal.NewFromInt(int64(quantity))),
	}, nil
}

// MergeKey is the canonical identity of a selection: product name, size,
// sweetness, milk and sorted add-on names. Components are quoted so that no
// separator inside a value can make two different selections collide.
func (i CartLineItem) MergeKey() string {
	names := make([]string, 0, len(i.AddOns))
	for _, a := range i.AddOns {
		names = append(names, strconv.Quote(a.Name))
	}
	slices.Sort(names)

	milk := "null"
	if i.Milk != nil {
		milk = strconv.Quote(*i.Milk)
	}

	return strings.Join([]string{
		strconv.Quote(i.ProductName),
		strconv.Quote(string(i.Size)),
		strconv.Quote(i.Sweetness),
		milk,
		"[" + strings.Join(names, ",") + "]",
	}, "|")
}

// SameSelection reports whether two items are the same logical selection.
func (i CartLineItem) SameSelection(other CartLineItem) bool {
	return i.MergeKey() == other.MergeKey()
}

// CartAggregate holds the line items of one kiosk session. It is owned by
// exactly one session and is not safe for concurrent mutation.
type CartAggregate struct {
	AggregateBase
	Items []CartLineItem `json:"items"`
}

// NewCartAggregate creates an empty cart for a session.
func NewCartAggregate(sessionID string) *CartAggregate {
	return &CartAggregate{
		AggregateBase: AggregateBase{ID: sessionID, Version: 0},
		Items:         []CartLineItem{},
	}
}

// AddItem folds the item into an existing line with the same merge key, or
// appends it. The merged line keeps the existing unit price.
func (a *CartAggregate) AddItem(item CartLineItem) {
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	if item.LineTotal.IsZero() {
		item.LineTotal = item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
	}

	key := item.MergeKey()
	for idx := range a.Items {
		existing := &a.Items[idx]
		if existing.MergeKey() != key {
			continue
		}
		unit := existing.LineTotal.Div(decimal.NewFromInt(int64(existing.Quantity)))
		existing.Quantity += item.Quantity
		existing.UnitPrice = unit
		existing.LineTotal = unit.Mul(decimal.NewFromInt(int64(existing.Quantity))).Round(2)
		a.Version++
		return
	}

	a.Items = append(a.Items, item)
	a.Version++
}

// RemoveItem drops the line at index. Out-of-range indexes are ignored.
func (a *CartAggregate) RemoveItem(index int) {
	if index < 0 || index >= len(a.Items) {
		return
	}
	a.Items = slices.Delete(a.Items, index, index+1)
	a.Version++
}

// Clear empties the cart.
func (a *CartAggregate) Clear() {
	a.Items = []CartLineItem{}
	a.Version++
}

// IsEmpty reports whether the cart has no lines.
func (a *CartAggregate) IsEmpty() bool {
	return len(a.Items) == 0
}

// Subtotal is the sum of line totals.
func (a *CartAggregate) Subtotal() decimal.Decimal {
	subtotal := decimal.Zero
	for _, item := range a.Items {
		subtotal = subtotal.Add(item.LineTotal)
	}
	return subtotal
}

// Discount is the flat threshold discount for the current subtotal.
func (a *CartAggregate) Discount() decimal.Decimal {
	return ThresholdDiscount(a.Subtotal())
}

// Total is Subtotal minus Discount.
func (a *CartAggregate) Total() decimal.Decimal {
	return a.Subtotal().Sub(a.Discount())
}
