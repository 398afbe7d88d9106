package pricing

import "github.com/shopspring/decimal"

// ItemLine is one purchased product. Weight is per unit. An ItemLine cannot
// be changed once built.
type ItemLine struct {
	sku       string
	unitPrice decimal.Decimal
	quantity  int
	weight    decimal.Decimal
}

// NewItemLine validates and builds an item line. sku may be empty; it is only
// read by inventory adapters that track stock per product.
func NewItemLine(sku string, unitPrice decimal.Decimal, quantity int, weight decimal.Decimal) (ItemLine, error) {
	if unitPrice.IsNegative() {
		return ItemLine{}, invalid("unit_price", "must not be negative, got %s", unitPrice)
	}
	if quantity < 1 {
		return ItemLine{}, invalid("quantity", "must be at least 1, got %d", quantity)
	}
	if weight.IsNegative() {
		return ItemLine{}, invalid("weight", "must not be negative, got %s", weight)
	}
	return ItemLine{sku: sku, unitPrice: unitPrice, quantity: quantity, weight: weight}, nil
}

// MustItemLine is NewItemLine for fixed, known-good values. It panics on a
// validation fault.
func MustItemLine(sku string, unitPrice decimal.Decimal, quantity int, weight decimal.Decimal) ItemLine {
	item, err := NewItemLine(sku, unitPrice, quantity, weight)
	if err != nil {
		panic(err)
	}
	return item
}

func (i ItemLine) SKU() string                { return i.sku }
func (i ItemLine) UnitPrice() decimal.Decimal { return i.unitPrice }
func (i ItemLine) Quantity() int              { return i.quantity }
func (i ItemLine) Weight() decimal.Decimal    { return i.weight }

// ShippedWeight is unit weight times quantity.
func (i ItemLine) ShippedWeight() decimal.Decimal {
	return i.weight.Mul(decimal.NewFromInt(int64(i.quantity)))
}

// Subtotal is unit price times quantity.
func (i ItemLine) Subtotal() decimal.Decimal {
	return i.unitPrice.Mul(decimal.NewFromInt(int64(i.quantity)))
}
