package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"

	pkgerrors "github.com/angelmondragon/stylinx-storefront/pkg/errors"
	"github.com/angelmondragon/stylinx-storefront/pkg/logger"
	"github.com/angelmondragon/stylinx-storefront/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

type slot string

const (
	slotProducts   slot = "products"
	slotFiltered   slot = "filtered_products"
	slotCategories slot = "categories"
	slotSelected   slot = "selected_product"
)

// Snapshot is a point-in-time copy of the store.
type Snapshot struct {
	Products         []Product  `json:"products"`
	FilteredProducts []Product  `json:"filteredProducts"`
	Categories       []Category `json:"categories"`
	SelectedProduct  *Product   `json:"selectedProduct"`
	Loading          bool       `json:"loading"`
	Error            string     `json:"error,omitempty"`
}

// StoreParams wires the catalog store.
type StoreParams struct {
	API     API
	Logger  *logger.Logger
	Metrics *metrics.StoreMetrics
	// Sequenced applies a response only when it belongs to the latest request issued for
	// its slot. When false the last response to arrive wins.
	Sequenced bool
}

// Store holds the results of the most recent catalog queries.
type Store struct {
	api       API
	logg      *logger.Logger
	metrics   *metrics.StoreMetrics
	sequenced bool

	mu         sync.Mutex
	products   []Product
	filtered   []Product
	categories []Category
	selected   *Product
	pending    int
	lastErr    string
	issued     map[slot]uint64
}

// NewStore builds an empty catalog store.
func NewStore(p StoreParams) (*Store, error) {
	if p.API == nil {
		return nil, fmt.Errorf("catalog api required")
	}
	logg := p.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Store{
		api:        p.API,
		logg:       logg,
		metrics:    p.Metrics,
		sequenced:  p.Sequenced,
		products:   []Product{},
		filtered:   []Product{},
		categories: []Category{},
		issued:     make(map[slot]uint64),
	}, nil
}

type ticket map[slot]uint64

// FetchProducts replaces both the baseline and the filtered list on success.
func (s *Store) FetchProducts(ctx context.Context, filter ProductFilter) error {
	ctx = s.logg.WithField(ctx, "op", "fetch_products")
	t := s.issue(ctx, slotProducts, slotFiltered)

	list, err := s.api.ListProducts(ctx, filter)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.settle(ctx, t, err); err != nil {
		return err
	}
	if s.accept(ctx, t, slotProducts) {
		s.products = cloneProducts(list)
	}
	if s.accept(ctx, t, slotFiltered) {
		s.filtered = cloneProducts(list)
	}
	return nil
}

// SearchProducts replaces only the filtered list on success.
func (s *Store) SearchProducts(ctx context.Context, filter ProductFilter) error {
	ctx = s.logg.WithField(ctx, "op", "search_products")
	t := s.issue(ctx, slotFiltered)

	list, err := s.api.ListProducts(ctx, filter)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.settle(ctx, t, err); err != nil {
		return err
	}
	if s.accept(ctx, t, slotFiltered) {
		s.filtered = cloneProducts(list)
	}
	return nil
}

// FetchCategories replaces the category list on success.
func (s *Store) FetchCategories(ctx context.Context) error {
	ctx = s.logg.WithField(ctx, "op", "fetch_categories")
	t := s.issue(ctx, slotCategories)

	list, err := s.api.ListCategories(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.settle(ctx, t, err); err != nil {
		return err
	}
	if s.accept(ctx, t, slotCategories) {
		s.categories = cloneCategories(list)
	}
	return nil
}

// FetchProduct loads one product into the selected slot.
func (s *Store) FetchProduct(ctx context.Context, id int) error {
	ctx = s.logg.WithFields(ctx, map[string]any{"op": "fetch_product", "product_id": id})
	t := s.issue(ctx, slotSelected)

	product, err := s.api.GetProduct(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.settle(ctx, t, err); err != nil {
		return err
	}
	if s.accept(ctx, t, slotSelected) {
		cp := product.Clone()
		s.selected = &cp
	}
	return nil
}

// Refresh loads products and categories concurrently, as the discover screen does on
// entry. Neither request cancels the other.
func (s *Store) Refresh(ctx context.Context, filter ProductFilter) error {
	var g errgroup.Group
	g.Go(func() error { return s.FetchProducts(ctx, filter) })
	g.Go(func() error { return s.FetchCategories(ctx) })
	return g.Wait()
}

// Browse mirrors the discover screen: any set control issues one combined search,
// otherwise the baseline list is fetched.
func (s *Store) Browse(ctx context.Context, q BrowseQuery) error {
	if q.Narrowed() {
		return s.SearchProducts(ctx, q.Filter())
	}
	limit := q.Limit
	if limit <= 0 {
		limit = DiscoverPageSize
	}
	return s.FetchProducts(ctx, ProductFilter{}.WithLimit(limit))
}

// Search runs a title search. Blank text is ignored.
func (s *Store) Search(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return s.SearchProducts(ctx, ProductFilter{Title: &text}.WithLimit(DiscoverPageSize))
}

// Category returns a category from the loaded list, or fetches it when the list does not
// hold it. The categories slot is left untouched.
func (s *Store) Category(ctx context.Context, id int) (*Category, error) {
	s.mu.Lock()
	for _, c := range s.categories {
		if c.ID == id {
			cp := c
			s.mu.Unlock()
			return &cp, nil
		}
	}
	s.mu.Unlock()

	ctx = s.logg.WithFields(ctx, map[string]any{"op": "fetch_category", "category_id": id})
	category, err := s.api.GetCategory(ctx, id)
	if err != nil {
		s.logg.Debug(ctx, "category lookup failed")
		return nil, err
	}
	return category, nil
}

// ResetFilteredProducts puts the baseline list back into the filtered slot, as clearing
// the discover screen's controls does.
func (s *Store) ResetFilteredProducts() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setFilteredLocked(s.products)
}

// SetFilteredProducts overwrites the filtered list locally. In-flight responses for that
// slot are superseded.
func (s *Store) SetFilteredProducts(list []Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setFilteredLocked(list)
}

func (s *Store) setFilteredLocked(list []Product) {
	s.issued[slotFiltered]++
	s.filtered = cloneProducts(list)
}

// ClearSelectedProduct empties the selected slot, superseding any pending detail fetch.
func (s *Store) ClearSelectedProduct() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued[slotSelected]++
	s.selected = nil
}

// Loading reports whether any request is outstanding.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending > 0
}

// Err returns the message of the last recorded failure, empty when none.
func (s *Store) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Snapshot returns copies of every slot.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		Products:         cloneProducts(s.products),
		FilteredProducts: cloneProducts(s.filtered),
		Categories:       cloneCategories(s.categories),
		Loading:          s.pending > 0,
		Error:            s.lastErr,
	}
	if s.selected != nil {
		cp := s.selected.Clone()
		snap.SelectedProduct = &cp
	}
	return snap
}

func (s *Store) issue(ctx context.Context, slots ...slot) ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending++
	s.lastErr = ""
	t := make(ticket, len(slots))
	for _, sl := range slots {
		s.issued[sl]++
		t[sl] = s.issued[sl]
	}
	s.logg.Debug(ctx, "catalog request issued")
	return t
}

// settle must be called with mu held. It always releases the pending count and records
// err unless every slot of the request has been superseded.
func (s *Store) settle(ctx context.Context, t ticket, err error) error {
	s.pending--
	if err == nil {
		return nil
	}
	live := !s.sequenced
	for sl := range t {
		if s.issued[sl] == t[sl] {
			live = true
		}
	}
	if live {
		s.lastErr = pkgerrors.PublicMessage(err)
		s.logg.Warn(ctx, "catalog request failed: "+s.lastErr)
	} else {
		s.logg.Debug(ctx, "stale catalog failure discarded")
	}
	return err
}

// accept must be called with mu held.
func (s *Store) accept(ctx context.Context, t ticket, sl slot) bool {
	if !s.sequenced || s.issued[sl] == t[sl] {
		return true
	}
	s.metrics.IncStale(string(sl))
	s.logg.Debug(s.logg.WithField(ctx, "slot", string(sl)), "stale catalog response discarded")
	return false
}
