package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/stylinx-storefront/api/responses"
	"github.com/angelmondragon/stylinx-storefront/api/validators"
	"github.com/angelmondragon/stylinx-storefront/internal/cart"
	"github.com/angelmondragon/stylinx-storefront/internal/catalog"
	"github.com/angelmondragon/stylinx-storefront/internal/checkout"
	pkgerrors "github.com/angelmondragon/stylinx-storefront/pkg/errors"
	"github.com/angelmondragon/stylinx-storefront/pkg/logger"
)

// CartService is the cart store.
type CartService interface {
	AddItem(item cart.Item) error
	SetQuantity(key cart.LineKey, quantity int)
	RemoveItem(key cart.LineKey)
	Clear()
	Items() []cart.Item
	TotalItemCount() int
}

// CartSummarizer computes the cart screen totals.
type CartSummarizer interface {
	CartSummary() checkout.Totals
}

type addItemRequest struct {
	ProductID int     `json:"productId" validate:"required,gt=0"`
	Quantity  *int    `json:"quantity" validate:"omitempty,gt=0"`
	Size      *string `json:"size"`
	Color     *string `json:"color"`
}

type lineRequest struct {
	ProductID int     `json:"productId" validate:"required,gt=0"`
	Size      *string `json:"size"`
	Color     *string `json:"color"`
}

func (l lineRequest) key() cart.LineKey {
	return cart.LineKey{ProductID: l.ProductID, Size: l.Size, Color: l.Color}
}

// updateLineRequest requires an explicit quantity so a missing field never removes a line.
type updateLineRequest struct {
	lineRequest
	Quantity *int `json:"quantity" validate:"required"`
}

type cartLineResponse struct {
	cart.Item
	LineTotal string `json:"lineTotal"`
}

type cartResponse struct {
	Items          []cartLineResponse `json:"items"`
	TotalItemCount int                `json:"totalItemCount"`
	Summary        totalsResponse     `json:"summary"`
}

type totalsResponse struct {
	ProductTotal string `json:"productTotal"`
	ShippingCost string `json:"shippingCost"`
	Subtotal     string `json:"subtotal"`
}

func newTotalsResponse(t checkout.Totals) totalsResponse {
	return totalsResponse{
		ProductTotal: t.ProductTotal.StringFixed(2),
		ShippingCost: t.ShippingCost.StringFixed(2),
		Subtotal:     t.Subtotal().StringFixed(2),
	}
}

func newCartResponse(c CartService, s CartSummarizer) cartResponse {
	items := c.Items()
	lines := make([]cartLineResponse, 0, len(items))
	for _, item := range items {
		lines = append(lines, cartLineResponse{Item: item, LineTotal: item.LineTotal().StringFixed(2)})
	}
	return cartResponse{
		Items:          lines,
		TotalItemCount: c.TotalItemCount(),
		Summary:        newTotalsResponse(s.CartSummary()),
	}
}

// CartFetch returns the cart lines with the summary block.
func CartFetch(c CartService, s CartSummarizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, newCartResponse(c, s))
	}
}

// CartAddItem adds a product from the catalog. Quantity defaults to one.
func CartAddItem(c CartService, s CartSummarizer, products CatalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body addItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := lookupProduct(r.Context(), products, body.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		quantity := 1
		if body.Quantity != nil {
			quantity = *body.Quantity
		}
		item := cart.Item{Product: *product, Quantity: quantity, Size: body.Size, Color: body.Color}
		if err := c.AddItem(item); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newCartResponse(c, s))
	}
}

// CartUpdateItem sets a line's quantity. Zero or less removes the line.
func CartUpdateItem(c CartService, s CartSummarizer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body updateLineRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		c.SetQuantity(body.key(), *body.Quantity)
		responses.WriteSuccess(w, newCartResponse(c, s))
	}
}

func CartRemoveItem(c CartService, s CartSummarizer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body lineRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		c.RemoveItem(body.key())
		responses.WriteSuccess(w, newCartResponse(c, s))
	}
}

func CartClear(c CartService, s CartSummarizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c.Clear()
		responses.WriteSuccess(w, newCartResponse(c, s))
	}
}

// lookupProduct prefers a product already loaded by the catalog and falls back to a
// detail fetch.
func lookupProduct(ctx context.Context, products CatalogService, id int) (*catalog.Product, error) {
	snap := products.Snapshot()
	if snap.SelectedProduct != nil && snap.SelectedProduct.ID == id {
		return snap.SelectedProduct, nil
	}
	for _, list := range [][]catalog.Product{snap.Products, snap.FilteredProducts} {
		for i := range list {
			if list[i].ID == id {
				return &list[i], nil
			}
		}
	}
	if err := products.FetchProduct(ctx, id); err != nil {
		return nil, err
	}
	selected := products.Snapshot().SelectedProduct
	if selected == nil || selected.ID != id {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return selected, nil
}
