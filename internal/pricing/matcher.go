// Package pricing decides which promotion discounts each line of a cart.
//
// Match is a pure function of its inputs: the caller supplies the clock, the
// candidate promotions and the catalog slice it needs, so concurrent calls for
// different carts never share state.
package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Pondcod/cafe-kiosk-sub000/internal/entity"
)

// Line is a priced cart line submitted for matching.
type Line struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// LineMatch is the outcome for one input line.
type LineMatch struct {
	ProductID           string          `json:"product_id"`
	Quantity            int             `json:"quantity"`
	OriginalUnitPrice   decimal.Decimal `json:"original_unit_price"`
	DiscountedUnitPrice decimal.Decimal `json:"discounted_unit_price"`
	DiscountPerUnit     decimal.Decimal `json:"discount_per_unit"`
	LineDiscount        decimal.Decimal `json:"line_discount"`
	PromotionID         string          `json:"promotion_id,omitempty"`
}

// PromotionUsage aggregates what one promotion discounted across the cart.
type PromotionUsage struct {
	PromotionID   string          `json:"promotion_id"`
	TotalDiscount decimal.Decimal `json:"total_discount"`
	AffectedLines []int           `json:"affected_lines"`
}

// Result is the matcher output: one LineMatch per input line, in input order,
// and the promotions that won at least one line, in order of first win.
type Result struct {
	Lines      []LineMatch      `json:"lines"`
	Promotions []PromotionUsage `json:"promotions"`
}

// TotalDiscount sums the line discounts.
func (r Result) TotalDiscount() decimal.Decimal {
	total := decimal.Zero
	for _, l := range r.Lines {
		total = total.Add(l.LineDiscount)
	}
	return total
}

// Discounts converts the result into per-line order discounts.
func (r Result) Discounts() []entity.LineDiscount {
	out := make([]entity.LineDiscount, len(r.Lines))
	for i, l := range r.Lines {
		out[i] = entity.LineDiscount{PromotionID: l.PromotionID, DiscountPerUnit: l.DiscountPerUnit}
	}
	return out
}

// Match picks, for every line, the eligible promotion with the largest
// per-unit discount. On an exact tie the promotion that comes first in
// promotions wins. Lines whose product is not in products are returned
// unmodified.
func Match(now time.Time, promotions []entity.Promotion, products map[string]entity.Product, lines []Line) Result {
	eligible := make([]entity.Promotion, 0, len(promotions))
	for _, p := range promotions {
		if p.Kind == entity.DiscountPercentage && p.ActiveOn(now) {
			eligible = append(eligible, p)
		}
	}

	result := Result{Lines: make([]LineMatch, len(lines))}
	usage := map[string]int{}

	for idx, line := range lines {
		match := LineMatch{
			ProductID:           line.ProductID,
			Quantity:            line.Quantity,
			OriginalUnitPrice:   line.UnitPrice,
			DiscountedUnitPrice: line.UnitPrice,
			DiscountPerUnit:     decimal.Zero,
			LineDiscount:        decimal.Zero,
		}

		product, ok := products[line.ProductID]
		if !ok {
			result.Lines[idx] = match
			continue
		}

		var winner *entity.Promotion
		best := decimal.Zero
		for i := range eligible {
			p := &eligible[i]
			if !p.AppliesTo(product) {
				continue
			}
			candidate := p.DiscountPerUnit(line.UnitPrice)
			if candidate.GreaterThan(best) {
				best = candidate
				winner = p
			}
		}

		if winner != nil {
			qty := decimal.NewFromInt(int64(line.Quantity))
			match.PromotionID = winner.ID
			match.DiscountPerUnit = best
			match.DiscountedUnitPrice = decimal.Max(line.UnitPrice.Sub(best), decimal.Zero)
			match.LineDiscount = best.Mul(qty)

			pos, seen := usage[winner.ID]
			if !seen {
				pos = len(result.Promotions)
				usage[winner.ID] = pos
				result.Promotions = append(result.Promotions, PromotionUsage{
					PromotionID:   winner.ID,
					TotalDiscount: decimal.Zero,
				})
			}
			u := &result.Promotions[pos]
			u.TotalDiscount = u.TotalDiscount.Add(match.LineDiscount)
			u.AffectedLines = append(u.AffectedLines, idx)
		}

		result.Lines[idx] = match
	}

	return result
}
