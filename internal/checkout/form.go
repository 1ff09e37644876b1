package checkout

import (
	"strings"

	"github.com/angelmondragon/stylinx-storefront/pkg/validation"
)

// ShippingMethod selects the delivery speed.
type ShippingMethod string

const (
	ShippingFree ShippingMethod = "free"
	ShippingFast ShippingMethod = "fast"
)

// IsValid reports whether m is a known method.
func (m ShippingMethod) IsValid() bool {
	return m == ShippingFree || m == ShippingFast
}

// ShippingForm is the data collected on the shipping step.
type ShippingForm struct {
	FirstName     string         `json:"firstName" validate:"required"`
	LastName      string         `json:"lastName" validate:"required"`
	Country       string         `json:"country" validate:"required"`
	Street        string         `json:"street" validate:"required"`
	City          string         `json:"city" validate:"required"`
	ZipCode       string         `json:"zipCode" validate:"required"`
	Phone         string         `json:"phone" validate:"required"`
	Method        ShippingMethod `json:"shippingMethod" validate:"omitempty,oneof=free fast"`
	SameAsBilling bool           `json:"sameAsBilling"`
	CouponCode    string         `json:"couponCode"`
}

// DefaultShippingForm is the form as first shown: free shipping, billing same as shipping.
func DefaultShippingForm() ShippingForm {
	return ShippingForm{Method: ShippingFree, SameAsBilling: true}
}

func (f ShippingForm) normalized() ShippingForm {
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)
	f.Country = strings.TrimSpace(f.Country)
	f.Street = strings.TrimSpace(f.Street)
	f.City = strings.TrimSpace(f.City)
	f.ZipCode = strings.TrimSpace(f.ZipCode)
	f.Phone = strings.TrimSpace(f.Phone)
	f.CouponCode = strings.TrimSpace(f.CouponCode)
	if f.Method == "" {
		f.Method = ShippingFree
	}
	return f
}

// ValidateShippingForm reports missing or malformed fields. The result is advisory:
// SubmitShipping proceeds regardless.
func ValidateShippingForm(form ShippingForm) error {
	return validation.Struct(form.normalized())
}
