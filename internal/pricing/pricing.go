// Package pricing adjusts topping display prices for receipts. The rules are
// display-only: totals are computed upstream by the ordering platform and are
// never recomputed here.
package pricing

import (
	"strings"

	"github.com/shopspring/decimal"

	"print-service/internal/model"
)

// AdjustedTopping is a topping with its final display price
type AdjustedTopping struct {
	Name  string
	Price decimal.Decimal
	Free  bool
}

// Adjust applies the item's pricing rule to its toppings, in order.
//
// Toppings already priced at zero are included items, not add-ons: they pass
// through untouched and never consume the free allowance. The first
// FreeToppingAllowance paid toppings become free. Paid toppings past the
// allowance get the size adjustment for the item's size, if one exists.
func Adjust(toppings []model.Topping, rule model.PricingRule, size string) []AdjustedTopping {
	adjustments := rule.SizeAdjustments
	if adjustments == nil {
		adjustments = model.DefaultSizeAdjustments()
	}
	sizeAdj, hasSizeAdj := adjustments[normalizeSize(size)]

	out := make([]AdjustedTopping, 0, len(toppings))
	freeUsed := 0
	for _, t := range toppings {
		if t.Price.LessThanOrEqual(decimal.Zero) {
			out = append(out, AdjustedTopping{Name: t.Name, Price: decimal.Zero})
			continue
		}
		if freeUsed < rule.FreeToppingAllowance {
			freeUsed++
			out = append(out, AdjustedTopping{Name: t.Name, Price: decimal.Zero, Free: true})
			continue
		}
		price := t.Price
		if hasSizeAdj {
			price = sizeAdj.Apply(price)
		}
		out = append(out, AdjustedTopping{Name: t.Name, Price: price})
	}
	return out
}

func normalizeSize(size string) string {
	return strings.ToLower(strings.TrimSpace(size))
}
