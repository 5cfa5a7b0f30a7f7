package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderType identifies how the order reaches the customer
type OrderType string

const (
	OrderTypeDelivery OrderType = "delivery"
	OrderTypePickup   OrderType = "pickup"
)

// PaymentMethod as reported by the ordering platform
type PaymentMethod string

const (
	PaymentCard       PaymentMethod = "card"
	PaymentCash       PaymentMethod = "cash"
	PaymentOnline     PaymentMethod = "online"
	PaymentCashOrCard PaymentMethod = "cash_or_card"
)

// Topping is a single add-on line under a receipt item
type Topping struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// SizeAdjustment describes how a paid topping price changes for one size.
// A non-zero Factor multiplies the price. Otherwise, when the price equals
// MatchPrice it is replaced by OverridePrice; all other prices pass through.
type SizeAdjustment struct {
	Factor        decimal.Decimal `json:"factor,omitempty"`
	MatchPrice    decimal.Decimal `json:"match_price,omitempty"`
	OverridePrice decimal.Decimal `json:"override_price,omitempty"`
}

// Apply returns the adjusted price for one paid topping
func (a SizeAdjustment) Apply(price decimal.Decimal) decimal.Decimal {
	if !a.Factor.IsZero() {
		return price.Mul(a.Factor)
	}
	if price.Equal(a.MatchPrice) {
		return a.OverridePrice
	}
	return price
}

// PricingRule controls topping display pricing for one item
type PricingRule struct {
	FreeToppingAllowance int                       `json:"free_topping_allowance"`
	SizeAdjustments      map[string]SizeAdjustment `json:"size_adjustments,omitempty"`
}

// DefaultSizeAdjustments returns the house rules: family-size paid toppings
// double, large-size toppings priced at 1.00 become 2.00.
func DefaultSizeAdjustments() map[string]SizeAdjustment {
	double := SizeAdjustment{Factor: decimal.NewFromInt(2)}
	largeStep := SizeAdjustment{
		MatchPrice:    decimal.NewFromInt(1),
		OverridePrice: decimal.NewFromInt(2),
	}
	return map[string]SizeAdjustment{
		"family": double,
		"perhe":  double,
		"large":  largeStep,
		"iso":    largeStep,
	}
}

// ReceiptItem is one ordered product line
type ReceiptItem struct {
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
	Toppings  []Topping       `json:"toppings,omitempty"`
	Notes     string          `json:"notes,omitempty"`
	Pricing   PricingRule     `json:"pricing"`
}

// ReceiptModel is the printable representation of an order. It carries no
// rendering state; both command families render from the same model.
type ReceiptModel struct {
	OrderNumber         string          `json:"order_number"`
	CreatedAt           time.Time       `json:"created_at"`
	OrderType           OrderType       `json:"order_type"`
	PaymentMethod       PaymentMethod   `json:"payment_method"`
	PaymentStatus       string          `json:"payment_status,omitempty"`
	TableNumber         string          `json:"table_number,omitempty"`
	CustomerName        string          `json:"customer_name,omitempty"`
	CustomerPhone       string          `json:"customer_phone,omitempty"`
	CustomerEmail       string          `json:"customer_email,omitempty"`
	DeliveryAddress     string          `json:"delivery_address,omitempty"`
	Items               []ReceiptItem   `json:"items"`
	Subtotal            decimal.Decimal `json:"subtotal"`
	DeliveryFee         decimal.Decimal `json:"delivery_fee"`
	SmallOrderFee       decimal.Decimal `json:"small_order_fee"`
	Discount            decimal.Decimal `json:"discount"`
	Total               decimal.Decimal `json:"total"`
	SpecialInstructions string          `json:"special_instructions,omitempty"`
}

// TranslatePaymentMethod maps a payment method to its receipt label
func TranslatePaymentMethod(m PaymentMethod) string {
	switch m {
	case PaymentCard:
		return "Kortti"
	case PaymentCash:
		return "Käteinen"
	case PaymentOnline:
		return "Verkkomaksu"
	case PaymentCashOrCard:
		return "Käteinen tai kortti"
	default:
		if m == "" {
			return "Ei määritelty"
		}
		return string(m)
	}
}
