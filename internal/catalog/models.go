package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category groups products on the remote catalog.
type Category struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Image     string    `json:"image"`
	CreatedAt time.Time `json:"creationAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Product is a catalog entry. Values are replaced wholesale on every re-fetch and never
// mutated in place.
type Product struct {
	ID          int             `json:"id"`
	Title       string          `json:"title"`
	Slug        string          `json:"slug"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Category    Category        `json:"category"`
	Images      []string        `json:"images"`
	CreatedAt   time.Time       `json:"creationAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// ImageURL returns the first product image, falling back to the category image.
func (p Product) ImageURL() string {
	if len(p.Images) > 0 && p.Images[0] != "" {
		return p.Images[0]
	}
	return p.Category.Image
}

// Clone returns a copy that shares no slices with p.
func (p Product) Clone() Product {
	if p.Images != nil {
		images := make([]string, len(p.Images))
		copy(images, p.Images)
		p.Images = images
	}
	return p
}

func cloneProducts(in []Product) []Product {
	out := make([]Product, len(in))
	for i, p := range in {
		out[i] = p.Clone()
	}
	return out
}

func cloneCategories(in []Category) []Category {
	if in == nil {
		return []Category{}
	}
	out := make([]Category, len(in))
	copy(out, in)
	return out
}
