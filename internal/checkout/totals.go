package checkout

import "github.com/shopspring/decimal"

// Totals is the order summary shown on the shipping and payment steps. It is always
// derived, never stored on its own.
type Totals struct {
	ProductTotal decimal.Decimal `json:"productTotal"`
	ShippingCost decimal.Decimal `json:"shippingCost"`
}

// Subtotal is product total plus shipping.
func (t Totals) Subtotal() decimal.Decimal {
	return t.ProductTotal.Add(t.ShippingCost)
}

// ShippingCost is zero for free shipping and the surcharge otherwise.
func ShippingCost(method ShippingMethod, surcharge decimal.Decimal) decimal.Decimal {
	if method == ShippingFast {
		return surcharge
	}
	return decimal.Zero
}

// CartSummary is the cart screen summary, which always shows the flat surcharge.
func CartSummary(productTotal, surcharge decimal.Decimal) Totals {
	return Totals{ProductTotal: productTotal, ShippingCost: surcharge}
}
