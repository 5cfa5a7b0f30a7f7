package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"print-service/internal/model"
)

func top(name string, price float64) model.Topping {
	return model.Topping{Name: name, Price: decimal.NewFromFloat(price)}
}

func TestAdjustFreeAllowance(t *testing.T) {
	rule := model.PricingRule{FreeToppingAllowance: 2}
	got := Adjust([]model.Topping{
		top("mozzarella", 1.00),
		top("pepperoni", 1.50),
		top("ananas", 1.00),
	}, rule, "normal")

	require.Len(t, got, 3)
	assert.True(t, got[0].Free)
	assert.True(t, got[0].Price.IsZero())
	assert.True(t, got[1].Free)
	assert.False(t, got[2].Free)
	assert.Equal(t, "1", got[2].Price.String())
}

func TestAdjustZeroPricedToppingsSkipAllowance(t *testing.T) {
	// Included toppings must not eat the free allowance of paid add-ons.
	rule := model.PricingRule{FreeToppingAllowance: 1}
	got := Adjust([]model.Topping{
		top("tomaattikastike", 0),
		top("juusto", 0),
		top("salami", 1.00),
		top("herkkusieni", 1.00),
	}, rule, "normal")

	require.Len(t, got, 4)
	assert.False(t, got[0].Free)
	assert.True(t, got[0].Price.IsZero())
	assert.False(t, got[1].Free)
	assert.True(t, got[2].Free, "first paid topping should be the free one")
	assert.False(t, got[3].Free)
	assert.Equal(t, "1", got[3].Price.String())
}

func TestAdjustSizeRules(t *testing.T) {
	rule := model.PricingRule{}

	tests := []struct {
		name  string
		size  string
		price float64
		want  string
	}{
		{"family doubles", "family", 1.50, "3"},
		{"perhe doubles", "perhe", 1.00, "2"},
		{"large bumps one euro", "large", 1.00, "2"},
		{"iso bumps one euro", "iso", 1.00, "2"},
		{"large leaves other prices", "large", 1.50, "1.5"},
		{"unknown size passes through", "normal", 1.50, "1.5"},
		{"size is case insensitive", " Family ", 2.00, "4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Adjust([]model.Topping{top("extra", tt.price)}, rule, tt.size)
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, got[0].Price.String())
		})
	}
}

func TestAdjustAllowanceBeforeSizeRule(t *testing.T) {
	// The allowance consumes toppings first; only the remainder is resized.
	rule := model.PricingRule{FreeToppingAllowance: 1}
	got := Adjust([]model.Topping{
		top("aurajuusto", 1.00),
		top("kebab", 1.00),
	}, rule, "family")

	require.Len(t, got, 2)
	assert.True(t, got[0].Free)
	assert.Equal(t, "2", got[1].Price.String())
}

func TestAdjustCustomSizeTable(t *testing.T) {
	rule := model.PricingRule{
		SizeAdjustments: map[string]model.SizeAdjustment{
			"jumbo": {Factor: decimal.NewFromInt(3)},
		},
	}
	got := Adjust([]model.Topping{top("extra", 1.00)}, rule, "jumbo")
	require.Len(t, got, 1)
	assert.Equal(t, "3", got[0].Price.String())

	// A custom table replaces the defaults entirely.
	got = Adjust([]model.Topping{top("extra", 1.00)}, rule, "family")
	assert.Equal(t, "1", got[0].Price.String())
}

func TestAdjustEmpty(t *testing.T) {
	got := Adjust(nil, model.PricingRule{FreeToppingAllowance: 4}, "large")
	assert.Empty(t, got)
}
