package cart

import (
	"sync"
	"testing"

	"github.com/angelmondragon/stylinx-storefront/internal/catalog"
	pkgerrors "github.com/angelmondragon/stylinx-storefront/pkg/errors"
	"github.com/shopspring/decimal"
)

func label(v string) *string {
	return &v
}

func product(id int, price string) catalog.Product {
	return catalog.Product{ID: id, Title: "P", Price: decimal.RequireFromString(price)}
}

func TestAddItemMergesSameKey(t *testing.T) {
	store := NewStore(nil)
	p1 := product(1, "20.00")

	if err := store.AddItem(Item{Product: p1, Quantity: 2, Size: label("M"), Color: label("black")}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if store.Len() != 1 || store.Items()[0].Quantity != 2 {
		t.Fatalf("unexpected items %+v", store.Items())
	}
	if !store.ProductTotal().Equal(decimal.RequireFromString("40.00")) {
		t.Fatalf("expected product total 40.00, got %s", store.ProductTotal())
	}

	if err := store.AddItem(Item{Product: p1, Quantity: 1, Size: label("L"), Color: label("black")}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if store.Len() != 2 {
		t.Fatalf("different size should be a new line, got %d lines", store.Len())
	}

	if err := store.AddItem(Item{Product: p1, Quantity: 1, Size: label("M"), Color: label("black")}); err != nil {
		t.Fatalf("add: %v", err)
	}
	items := store.Items()
	if len(items) != 2 || items[0].Quantity != 3 {
		t.Fatalf("expected first line quantity 3, got %+v", items)
	}
}

func TestAddItemRepeatedSumsQuantities(t *testing.T) {
	store := NewStore(nil)
	quantities := []int{1, 4, 2, 7}
	sum := 0
	for _, q := range quantities {
		sum += q
		if err := store.AddItem(Item{Product: product(9, "1"), Quantity: q}); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	if store.Len() != 1 {
		t.Fatalf("expected single line, got %d", store.Len())
	}
	if store.Items()[0].Quantity != sum || store.TotalItemCount() != sum {
		t.Fatalf("expected quantity %d, got %+v", sum, store.Items())
	}
}

func TestAbsentLabelsOnlyMatchAbsent(t *testing.T) {
	store := NewStore(nil)
	p := product(1, "5")

	_ = store.AddItem(Item{Product: p, Quantity: 1})
	_ = store.AddItem(Item{Product: p, Quantity: 1, Size: label("")})
	_ = store.AddItem(Item{Product: p, Quantity: 1})

	if store.Len() != 2 {
		t.Fatalf("expected 2 lines, got %d", store.Len())
	}
	if store.Items()[0].Quantity != 2 {
		t.Fatalf("both-absent lines should merge, got %+v", store.Items())
	}
}

func TestAddItemRejectsNonPositiveQuantity(t *testing.T) {
	store := NewStore(nil)
	for _, q := range []int{0, -3} {
		err := store.AddItem(Item{Product: product(1, "5"), Quantity: q})
		if !pkgerrors.Is(err, pkgerrors.CodeValidation) {
			t.Fatalf("expected validation error for %d, got %v", q, err)
		}
	}
	if store.Len() != 0 {
		t.Fatalf("cart should stay empty")
	}
}

func TestSetQuantity(t *testing.T) {
	store := NewStore(nil)
	item := Item{Product: product(1, "5"), Quantity: 1, Size: label("S")}
	_ = store.AddItem(item)
	key := LineKey{ProductID: 1, Size: label("S")}

	store.SetQuantity(key, 4)
	store.SetQuantity(key, 4)
	if got := store.Items()[0].Quantity; got != 4 {
		t.Fatalf("expected quantity 4, got %d", got)
	}

	store.SetQuantity(LineKey{ProductID: 2}, 9)
	if store.Len() != 1 || store.TotalItemCount() != 4 {
		t.Fatalf("unknown key must be a no-op")
	}

	store.SetQuantity(key, -1)
	if store.Len() != 0 {
		t.Fatalf("negative quantity should remove the line")
	}

	_ = store.AddItem(item)
	store.SetQuantity(key, 0)
	if store.Len() != 0 {
		t.Fatalf("zero quantity should remove the line")
	}
}

func TestRemoveItemAndClear(t *testing.T) {
	store := NewStore(nil)
	_ = store.AddItem(Item{Product: product(1, "5"), Quantity: 1})
	_ = store.AddItem(Item{Product: product(2, "5"), Quantity: 2})
	_ = store.AddItem(Item{Product: product(3, "5"), Quantity: 3})

	store.RemoveItem(LineKey{ProductID: 2})
	store.RemoveItem(LineKey{ProductID: 42})
	items := store.Items()
	if len(items) != 2 || items[0].Product.ID != 1 || items[1].Product.ID != 3 {
		t.Fatalf("unexpected items after remove %+v", items)
	}

	store.Clear()
	if store.Len() != 0 || store.TotalItemCount() != 0 || !store.ProductTotal().IsZero() {
		t.Fatalf("clear should empty the cart")
	}
	store.Clear()
	if store.Len() != 0 {
		t.Fatalf("clear on empty cart should stay empty")
	}
}

func TestItemsReturnsCopies(t *testing.T) {
	store := NewStore(nil)
	size := "M"
	_ = store.AddItem(Item{Product: product(1, "5"), Quantity: 1, Size: &size})
	size = "XL"

	items := store.Items()
	*items[0].Size = "XS"
	items[0].Quantity = 50

	again := store.Items()
	if *again[0].Size != "M" || again[0].Quantity != 1 {
		t.Fatalf("store state leaked: %+v", again[0])
	}
}

func TestConcurrentAddsKeepInvariants(t *testing.T) {
	store := NewStore(nil)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.AddItem(Item{Product: product(1, "2.50"), Quantity: 2, Color: label("red")})
		}()
	}
	wg.Wait()

	if store.Len() != 1 || store.TotalItemCount() != 100 {
		t.Fatalf("expected one line of 100, got %d lines / %d items", store.Len(), store.TotalItemCount())
	}
	if !store.ProductTotal().Equal(decimal.NewFromInt(250)) {
		t.Fatalf("unexpected total %s", store.ProductTotal())
	}
}
