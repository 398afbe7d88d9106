// Package inventoryservice provides the stock stores the checkout reserves
// against.
package inventoryservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/coordinator"
	"github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/inventory-service/domain"
	"github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/pricing"
)

// ErrInsufficientStock is returned by Reserve when stock ran out after the
// availability check.
var ErrInsufficientStock = errors.New("inventory: insufficient stock")

// MemoryStore keeps stock counts in process. Unknown SKUs, including the
// empty one, are never available.
type MemoryStore struct {
	mu    sync.Mutex
	stock map[string]int
}

var _ coordinator.Inventory = (*MemoryStore)(nil)

func NewMemoryStore(initial map[string]int) *MemoryStore {
	stock := make(map[string]int, len(initial))
	for sku, qty := range initial {
		stock[sku] = qty
	}
	return &MemoryStore{stock: stock}
}

func (s *MemoryStore) IsAvailable(ctx context.Context, lines []pricing.ItemLine) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.available(ctx, domain.StockItemsFromLines(lines)), nil
}

func (s *MemoryStore) available(ctx context.Context, items []domain.StockItem) bool {
	for _, item := range items {
		current, exists := s.stock[item.SKU]
		if !exists {
			slog.InfoContext(ctx, "unknown product", "sku", item.SKU)
			return false
		}
		if current < item.Quantity {
			slog.InfoContext(ctx, "insufficient stock", "sku", item.SKU, "available", current, "requested", item.Quantity)
			return false
		}
	}
	return true
}

// Reserve takes the items out of stock. Nothing is taken unless every item
// can be.
func (s *MemoryStore) Reserve(ctx context.Context, lines []pricing.ItemLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := domain.StockItemsFromLines(lines)
	if !s.available(ctx, items) {
		return fmt.Errorf("reserve for checkout %s: %w", coordinator.CheckoutIDFromContext(ctx), ErrInsufficientStock)
	}

	for _, item := range items {
		s.stock[item.SKU] -= item.Quantity
		slog.InfoContext(ctx, "stock reserved", "sku", item.SKU, "quantity", item.Quantity, "remaining", s.stock[item.SKU])
	}
	return nil
}

// Stock reports the current count for sku.
func (s *MemoryStore) Stock(sku string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stock[sku]
}
