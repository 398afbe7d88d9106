package domain

import (
	"sort"

	"github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/pricing"
)

// StockItem is the quantity of one SKU an order needs.
type StockItem struct {
	SKU      string
	Quantity int
}

// StockItemsFromLines merges item lines by SKU. The result is sorted by SKU
// so stores lock and log items in a stable order.
func StockItemsFromLines(lines []pricing.ItemLine) []StockItem {
	totals := make(map[string]int, len(lines))
	for _, line := range lines {
		totals[line.SKU()] += line.Quantity()
	}
	items := make([]StockItem, 0, len(totals))
	for sku, qty := range totals {
		items = append(items, StockItem{SKU: sku, Quantity: qty})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].SKU < items[j].SKU })
	return items
}
