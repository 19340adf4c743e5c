package pricing

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Money is an exact decimal currency amount. Rounding to two places happens only
// when an amount is presented or persisted.
type Money = decimal.Decimal

var (
	hundred = decimal.NewFromInt(100)

	// ErrInvalidTaxRate is returned when a tax rate falls outside [0, 100].
	ErrInvalidTaxRate = errors.New("pricing: tax rate must be between 0 and 100")
	// ErrNegativeDiscount is returned when a discount amount is below zero.
	ErrNegativeDiscount = errors.New("pricing: discount must not be negative")
)

// Product is the catalog snapshot a line item is priced from.
type Product struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Code       string `json:"code"`
	Barcode    string `json:"barcode,omitempty"`
	CategoryID string `json:"categoryId,omitempty"`
	Price      Money  `json:"price"`
	Cost       Money  `json:"cost"`
	Stock      int    `json:"stock"`
}

// LineItem is one product in a cart with its quantity and derived total.
type LineItem struct {
	Product   Product `json:"product"`
	Quantity  int     `json:"quantity"`
	LineTotal Money   `json:"lineTotal"`
}

// Cart holds the lines of one checkout session plus its tax rate and flat discount.
type Cart struct {
	Lines          []LineItem `json:"lines"`
	TaxRatePercent Money      `json:"taxRatePercent"`
	Discount       Money      `json:"discount"`
}

// Summary aggregates the computed amounts of a cart.
type Summary struct {
	Subtotal  Money `json:"subtotal"`
	Tax       Money `json:"tax"`
	Discount  Money `json:"discount"`
	Total     Money `json:"total"`
	ItemCount int   `json:"itemCount"`
}

// NewCart returns an empty cart using the provided tax rate.
func NewCart(taxRatePercent Money) *Cart {
	return &Cart{Lines: []LineItem{}, TaxRatePercent: taxRatePercent}
}

// AddLine increments the quantity of an existing line for the product or appends a
// new line. Non-positive quantities are ignored. Stock is not checked here.
func (c *Cart) AddLine(p Product, quantity int) {
	if quantity <= 0 {
		return
	}
	if idx := c.indexOf(p.ID); idx >= 0 {
		line := &c.Lines[idx]
		line.Quantity += quantity
		line.LineTotal = line.Product.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		return
	}
	c.Lines = append(c.Lines, LineItem{
		Product:   p,
		Quantity:  quantity,
		LineTotal: p.Price.Mul(decimal.NewFromInt(int64(quantity))),
	})
}

// RemoveLine drops the line for productID. Removing an absent line is a no-op.
func (c *Cart) RemoveLine(productID string) {
	idx := c.indexOf(productID)
	if idx < 0 {
		return
	}
	c.Lines = append(c.Lines[:idx], c.Lines[idx+1:]...)
}

// SetQuantity replaces the quantity of a line; quantity <= 0 removes it.
func (c *Cart) SetQuantity(productID string, quantity int) {
	if quantity <= 0 {
		c.RemoveLine(productID)
		return
	}
	idx := c.indexOf(productID)
	if idx < 0 {
		return
	}
	line := &c.Lines[idx]
	line.Quantity = quantity
	line.LineTotal = line.Product.Price.Mul(decimal.NewFromInt(int64(quantity)))
}

// SetTaxRate updates the tax percentage applied to the subtotal.
func (c *Cart) SetTaxRate(percent Money) error {
	if percent.IsNegative() || percent.GreaterThan(hundred) {
		return ErrInvalidTaxRate
	}
	c.TaxRatePercent = percent
	return nil
}

// SetDiscount sets the flat discount. It is not bounded by the subtotal.
func (c *Cart) SetDiscount(amount Money) error {
	if amount.IsNegative() {
		return ErrNegativeDiscount
	}
	c.Discount = amount
	return nil
}

// Clear empties the cart and resets the discount. The tax rate is kept.
func (c *Cart) Clear() {
	c.Lines = []LineItem{}
	c.Discount = decimal.Zero
}

// Subtotal sums the line totals.
func (c *Cart) Subtotal() Money {
	sum := decimal.Zero
	for _, line := range c.Lines {
		sum = sum.Add(line.LineTotal)
	}
	return sum
}

// Tax is subtotal × rate / 100.
func (c *Cart) Tax() Money {
	return c.Subtotal().Mul(c.TaxRatePercent).Div(hundred)
}

// DiscountAmount returns the flat discount.
func (c *Cart) DiscountAmount() Money {
	return c.Discount
}

// Total is subtotal + tax - discount. The result is not clamped at zero.
func (c *Cart) Total() Money {
	return Total(c.Subtotal(), c.Tax(), c.DiscountAmount())
}

// ItemCount sums quantities across lines.
func (c *Cart) ItemCount() int {
	count := 0
	for _, line := range c.Lines {
		count += line.Quantity
	}
	return count
}

// Summarize computes every derived amount in one pass over the current state.
func (c *Cart) Summarize() Summary {
	subtotal := c.Subtotal()
	tax := subtotal.Mul(c.TaxRatePercent).Div(hundred)
	return Summary{
		Subtotal:  subtotal,
		Tax:       tax,
		Discount:  c.Discount,
		Total:     Total(subtotal, tax, c.Discount),
		ItemCount: c.ItemCount(),
	}
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// Total combines the components of a cart total.
func Total(subtotal, tax, discount Money) Money {
	return subtotal.Add(tax).Sub(discount)
}

func (c *Cart) indexOf(productID string) int {
	for i := range c.Lines {
		if c.Lines[i].Product.ID == productID {
			return i
		}
	}
	return -1
}
