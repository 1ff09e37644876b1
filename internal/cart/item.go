package cart

import (
	"github.com/angelmondragon/stylinx-storefront/internal/catalog"
	"github.com/shopspring/decimal"
)

// Item is one cart line.
type Item struct {
	Product  catalog.Product `json:"product"`
	Quantity int             `json:"quantity"`
	Size     *string         `json:"size,omitempty"`
	Color    *string         `json:"color,omitempty"`
}

// LineKey identifies a cart line. Two lines are the same only when the product id, size
// and color all match, where two absent labels also match.
type LineKey struct {
	ProductID int     `json:"productId"`
	Size      *string `json:"size,omitempty"`
	Color     *string `json:"color,omitempty"`
}

// Key returns the identity of the line.
func (i Item) Key() LineKey {
	return LineKey{ProductID: i.Product.ID, Size: i.Size, Color: i.Color}
}

// LineTotal is quantity times unit price.
func (i Item) LineTotal() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Equal compares keys by value.
func (k LineKey) Equal(other LineKey) bool {
	return k.ProductID == other.ProductID && sameLabel(k.Size, other.Size) && sameLabel(k.Color, other.Color)
}

func sameLabel(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func cloneLabel(v *string) *string {
	if v == nil {
		return nil
	}
	cp := *v
	return &cp
}

func (i Item) clone() Item {
	i.Size = cloneLabel(i.Size)
	i.Color = cloneLabel(i.Color)
	i.Product = i.Product.Clone()
	return i
}
