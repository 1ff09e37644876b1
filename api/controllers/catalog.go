package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/stylinx-storefront/api/responses"
	"github.com/angelmondragon/stylinx-storefront/api/validators"
	"github.com/angelmondragon/stylinx-storefront/internal/catalog"
	pkgerrors "github.com/angelmondragon/stylinx-storefront/pkg/errors"
	"github.com/angelmondragon/stylinx-storefront/pkg/logger"
)

const maxSearchLength = 120

// CatalogService is the product catalog store.
type CatalogService interface {
	Snapshot() catalog.Snapshot
	FetchProducts(ctx context.Context, filter catalog.ProductFilter) error
	FetchCategories(ctx context.Context) error
	FetchProduct(ctx context.Context, id int) error
	Refresh(ctx context.Context, filter catalog.ProductFilter) error
	Browse(ctx context.Context, q catalog.BrowseQuery) error
	Search(ctx context.Context, text string) error
	Category(ctx context.Context, id int) (*catalog.Category, error)
	SetFilteredProducts(list []catalog.Product)
	ResetFilteredProducts()
	ClearSelectedProduct()
}

type filteredRequest struct {
	ProductIDs []int `json:"productIds" validate:"required,dive,gt=0"`
}

// CatalogSnapshot returns every catalog slot as last loaded.
func CatalogSnapshot(svc CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, svc.Snapshot())
	}
}

// CatalogHome loads the home screen list.
func CatalogHome(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", catalog.HomePageSize, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.FetchProducts(r.Context(), catalog.ProductFilter{}.WithLimit(limit)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"products": svc.Snapshot().Products})
	}
}

// CatalogDiscover loads products and categories together, as the discover screen does
// on entry.
func CatalogDiscover(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Refresh(r.Context(), catalog.ProductFilter{}.WithLimit(catalog.DiscoverPageSize)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, svc.Snapshot())
	}
}

// CatalogBrowse applies the discover screen controls: search text, category and price
// range. With no control set the baseline list is reloaded.
func CatalogBrowse(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := browseQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Browse(r.Context(), q); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"products": svc.Snapshot().FilteredProducts})
	}
}

// CatalogSearch runs a title search. Blank text leaves the filtered list untouched.
func CatalogSearch(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		text := validators.SanitizeString(r.URL.Query().Get("q"), maxSearchLength)
		if err := svc.Search(r.Context(), text); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"products": svc.Snapshot().FilteredProducts})
	}
}

func CatalogCategories(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.FetchCategories(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"categories": svc.Snapshot().Categories})
	}
}

// CatalogCategory returns one category, fetching it when it is not loaded.
func CatalogCategory(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathInt(chi.URLParam(r, "categoryId"), "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		category, err := svc.Category(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, category)
	}
}

// CatalogSetFiltered pins a subset of the loaded products as the filtered list. Ids
// keep the order given.
func CatalogSetFiltered(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body filteredRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		snap := svc.Snapshot()
		loaded := make(map[int]catalog.Product, len(snap.Products)+len(snap.FilteredProducts))
		for _, list := range [][]catalog.Product{snap.FilteredProducts, snap.Products} {
			for _, p := range list {
				loaded[p.ID] = p
			}
		}
		picked := make([]catalog.Product, 0, len(body.ProductIDs))
		for _, id := range body.ProductIDs {
			p, ok := loaded[id]
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product is not loaded").
					WithDetails(map[string]any{"productId": id}))
				return
			}
			picked = append(picked, p)
		}
		svc.SetFilteredProducts(picked)
		responses.WriteSuccess(w, map[string]any{"filteredProducts": svc.Snapshot().FilteredProducts})
	}
}

// CatalogResetSearch clears the discover controls, showing the baseline list again.
func CatalogResetSearch(svc CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.ResetFilteredProducts()
		responses.WriteSuccess(w, map[string]any{"filteredProducts": svc.Snapshot().FilteredProducts})
	}
}

// CatalogProduct loads one product into the selected slot and returns it.
func CatalogProduct(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathInt(chi.URLParam(r, "productId"), "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.FetchProduct(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		selected := svc.Snapshot().SelectedProduct
		if selected == nil || selected.ID != id {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeConflict, "product request was superseded"))
			return
		}
		responses.WriteSuccess(w, selected)
	}
}

// CatalogClearSelection leaves the product detail screen.
func CatalogClearSelection(svc CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.ClearSelectedProduct()
		w.WriteHeader(http.StatusNoContent)
	}
}

func browseQuery(r *http.Request) (catalog.BrowseQuery, error) {
	var q catalog.BrowseQuery
	var err error
	q.Search = validators.SanitizeString(r.URL.Query().Get("q"), maxSearchLength)
	if q.CategoryID, err = validators.ParseOptionalQueryInt(r, "categoryId"); err != nil {
		return q, err
	}
	if q.PriceMin, err = validators.ParseOptionalQueryDecimal(r, "price_min"); err != nil {
		return q, err
	}
	if q.PriceMax, err = validators.ParseOptionalQueryDecimal(r, "price_max"); err != nil {
		return q, err
	}
	if q.PriceMin != nil && q.PriceMax != nil && q.PriceMin.GreaterThan(*q.PriceMax) {
		return q, pkgerrors.New(pkgerrors.CodeValidation, "price_min must not exceed price_max").
			WithDetails(map[string]any{"field": "price_min"})
	}
	if q.Limit, err = validators.ParseQueryInt(r, "limit", catalog.DiscoverPageSize, 1, 200); err != nil {
		return q, err
	}
	return q, nil
}
