package entity

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DiscountKind is how a promotion computes its discount.
type DiscountKind string

// DiscountPercentage is the only implemented kind.
const DiscountPercentage DiscountKind = "percentage"

// TargetType says whether TargetIDs holds product ids or category ids.
type TargetType string

const (
	TargetProduct  TargetType = "product"
	TargetCategory TargetType = "category"
)

var hundred = decimal.NewFromInt(100)

// Promotion is a time-boxed percentage discount on products or categories.
type Promotion struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Kind       DiscountKind    `json:"discount_type"`
	Value      decimal.Decimal `json:"discount_value"`
	StartDate  time.Time       `json:"start_date"`
	EndDate    time.Time       `json:"end_date"`
	Days       []string        `json:"days_of_week,omitempty"`
	Active     bool            `json:"is_active"`
	TargetType TargetType      `json:"target_type"`
	TargetIDs  []string        `json:"target_ids"`
	CreatedAt  time.Time       `json:"created_at"`
}

// ActiveOn reports whether the promotion is eligible at now: active flag set,
// now's calendar date within [StartDate, EndDate] and, when Days is set,
// now's weekday listed. Dates are compared by calendar day in now's location.
func (p Promotion) ActiveOn(now time.Time) bool {
	if !p.Active {
		return false
	}
	today := calendarDay(now)
	if today.Before(calendarDay(p.StartDate)) || today.After(calendarDay(p.EndDate)) {
		return false
	}
	if len(p.Days) == 0 {
		return true
	}
	for _, d := range p.Days {
		if wd, ok := ParseWeekday(d); ok && wd == now.Weekday() {
			return true
		}
	}
	return false
}

// AppliesTo reports whether the product is in the promotion's target set.
func (p Promotion) AppliesTo(product Product) bool {
	switch p.TargetType {
	case TargetProduct:
		return slices.Contains(p.TargetIDs, product.ID)
	case TargetCategory:
		for _, c := range p.TargetIDs {
			if product.InCategory(c) {
				return true
			}
		}
	}
	return false
}

// DiscountPerUnit is the candidate discount on one unit, never more than the
// unit price. Unknown kinds yield zero.
func (p Promotion) DiscountPerUnit(unitPrice decimal.Decimal) decimal.Decimal {
	if p.Kind != DiscountPercentage {
		return decimal.Zero
	}
	d := unitPrice.Mul(p.Value).Div(hundred).Round(2)
	return decimal.Min(decimal.Max(d, decimal.Zero), unitPrice)
}

// Validate checks a promotion before it is stored and normalizes day names.
func (p *Promotion) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidPromotion)
	}
	if p.Kind != DiscountPercentage {
		return fmt.Errorf("%w %q", ErrUnknownDiscountKind, p.Kind)
	}
	if !p.Value.IsPositive() || p.Value.GreaterThan(hundred) {
		return fmt.Errorf("%w: percentage must be in (0, 100]", ErrInvalidPromotion)
	}
	if p.StartDate.IsZero() || p.EndDate.IsZero() {
		return fmt.Errorf("%w: start and end dates are required", ErrInvalidPromotion)
	}
	if calendarDay(p.EndDate).Before(calendarDay(p.StartDate)) {
		return fmt.Errorf("%w: end date before start date", ErrInvalidPromotion)
	}
	if p.TargetType != TargetProduct && p.TargetType != TargetCategory {
		return fmt.Errorf("%w: target type must be %q or %q", ErrInvalidPromotion, TargetProduct, TargetCategory)
	}
	if len(p.TargetIDs) == 0 {
		return fmt.Errorf("%w: at least one target is required", ErrInvalidPromotion)
	}
	days := make([]string, 0, len(p.Days))
	for _, d := range p.Days {
		wd, ok := ParseWeekday(d)
		if !ok {
			return fmt.Errorf("%w: unknown day %q", ErrInvalidPromotion, d)
		}
		if !slices.Contains(days, wd.String()) {
			days = append(days, wd.String())
		}
	}
	p.Days = days
	return nil
}

// ParseWeekday accepts full English weekday names or their three-letter
// abbreviations, case-insensitively.
func ParseWeekday(s string) (time.Weekday, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) < 3 {
		return 0, false
	}
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		name := strings.ToLower(wd.String())
		if s == name || s == name[:3] {
			return wd, true
		}
	}
	return 0, false
}

func calendarDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
