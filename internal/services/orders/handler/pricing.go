package handler

import (
	"fmt"

	"inventory-system/internal/database/models"
	"inventory-system/internal/utils"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type DiscountSpec struct {
	Type        models.DiscountType `json:"type"`
	Value       decimal.Decimal     `json:"value"`
	Description string              `json:"description"`
}

func Subtotal(lines []models.OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.LineTotal())
	}
	return total
}

func ValidateDiscounts(specs []DiscountSpec) error {
	for i, d := range specs {
		if !d.Type.Valid() {
			return utils.NewValidationError("discounts", fmt.Sprintf("discount %d: type must be PERCENTAGE or FIXED", i))
		}
		if d.Value.IsNegative() {
			return utils.NewValidationError("discounts", fmt.Sprintf("discount %d: value must be greater than or equal to 0", i))
		}
		if d.Type == models.DiscountTypePercentage && d.Value.GreaterThan(hundred) {
			return utils.NewValidationError("discounts", fmt.Sprintf("discount %d: percentage cannot exceed 100", i))
		}
	}
	return nil
}

// roundDiscounts brings every value to the stored precision (cents), so the
// persisted discount set replays to the same total.
func roundDiscounts(specs []DiscountSpec) []DiscountSpec {
	rounded := make([]DiscountSpec, len(specs))
	for i, d := range specs {
		d.Value = d.Value.Round(2)
		rounded[i] = d
	}
	return rounded
}

// ApplyDiscounts folds specs over subtotal in order. Percentages apply to the
// running total, not the undiscounted subtotal. The result is floored at zero and
// rounded half away from zero to cents.
func ApplyDiscounts(subtotal decimal.Decimal, specs []DiscountSpec) (decimal.Decimal, error) {
	if err := ValidateDiscounts(specs); err != nil {
		return decimal.Zero, err
	}

	running := subtotal
	for _, d := range specs {
		switch d.Type {
		case models.DiscountTypePercentage:
			running = running.Sub(running.Mul(d.Value).Div(hundred))
		case models.DiscountTypeFixed:
			running = running.Sub(d.Value)
		}
	}

	if running.IsNegative() {
		running = decimal.Zero
	}
	return running.Round(2), nil
}
