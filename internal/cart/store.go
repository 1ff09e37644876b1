package cart

import (
	"sync"

	pkgerrors "github.com/angelmondragon/stylinx-storefront/pkg/errors"
	"github.com/angelmondragon/stylinx-storefront/pkg/metrics"
	"github.com/shopspring/decimal"
)

// Store holds the cart lines. Each method is atomic; lines never carry a quantity below
// one and never share a key.
type Store struct {
	mu      sync.Mutex
	items   []Item
	metrics *metrics.StoreMetrics
}

// NewStore returns an empty cart. m may be nil.
func NewStore(m *metrics.StoreMetrics) *Store {
	return &Store{items: []Item{}, metrics: m}
}

// AddItem merges item into the line with the same key, or appends a new line.
func (s *Store) AddItem(item Item) error {
	if item.Quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1").
			WithDetails(map[string]string{"quantity": "must be at least 1"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.publish()

	key := item.Key()
	if i := s.indexOf(key); i >= 0 {
		s.items[i].Quantity += item.Quantity
		return nil
	}
	s.items = append(s.items, item.clone())
	return nil
}

// SetQuantity sets a line's quantity exactly; zero or less removes the line. Unknown keys
// are ignored.
func (s *Store) SetQuantity(key LineKey, quantity int) {
	if quantity <= 0 {
		s.RemoveItem(key)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.publish()

	if i := s.indexOf(key); i >= 0 {
		s.items[i].Quantity = quantity
	}
}

// RemoveItem drops the line with key if present.
func (s *Store) RemoveItem(key LineKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.publish()

	if i := s.indexOf(key); i >= 0 {
		s.items = append(s.items[:i], s.items[i+1:]...)
	}
}

// Clear empties the cart.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.publish()

	s.items = []Item{}
}

// TotalItemCount is the sum of quantities, used for the cart badge.
func (s *Store) TotalItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalLocked()
}

// Items returns a copy of the lines in insertion order.
func (s *Store) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Item, len(s.items))
	for i, item := range s.items {
		out[i] = item.clone()
	}
	return out
}

// Len is the number of distinct lines.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// ProductTotal is the sum of quantity times price over all lines.
func (s *Store) ProductTotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, item := range s.items {
		total = total.Add(item.LineTotal())
	}
	return total
}

func (s *Store) indexOf(key LineKey) int {
	for i := range s.items {
		if s.items[i].Key().Equal(key) {
			return i
		}
	}
	return -1
}

func (s *Store) totalLocked() int {
	n := 0
	for _, item := range s.items {
		n += item.Quantity
	}
	return n
}

func (s *Store) publish() {
	s.metrics.SetCartItems(s.totalLocked())
}
