package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(v string) Money {
	return decimal.RequireFromString(v)
}

func product(id, price string) Product {
	return Product{ID: id, Name: "Item " + id, Code: "C-" + id, Price: d(price), Cost: d("1")}
}

func TestAddLineAccumulatesQuantity(t *testing.T) {
	cart := NewCart(decimal.Zero)
	p := product("a", "12.50")
	cart.AddLine(p, 1)
	cart.AddLine(p, 2)
	cart.AddLine(p, 4)

	if len(cart.Lines) != 1 {
		t.Fatalf("expected one line, got %d", len(cart.Lines))
	}
	if cart.Lines[0].Quantity != 7 {
		t.Fatalf("expected quantity 7, got %d", cart.Lines[0].Quantity)
	}
	if !cart.Lines[0].LineTotal.Equal(d("87.5")) {
		t.Fatalf("expected line total 87.5, got %s", cart.Lines[0].LineTotal)
	}
}

func TestAddLineIgnoresNonPositiveQuantity(t *testing.T) {
	cart := NewCart(decimal.Zero)
	cart.AddLine(product("a", "1"), 0)
	cart.AddLine(product("a", "1"), -3)
	if !cart.IsEmpty() {
		t.Fatalf("expected empty cart, got %d lines", len(cart.Lines))
	}
}

func TestSubtotalIndependentOfOrder(t *testing.T) {
	p1, p2, p3 := product("1", "10.10"), product("2", "0.20"), product("3", "99.99")

	first := NewCart(decimal.Zero)
	first.AddLine(p1, 3)
	first.AddLine(p2, 5)
	first.AddLine(p3, 1)

	second := NewCart(decimal.Zero)
	second.AddLine(p3, 1)
	second.AddLine(p1, 3)
	second.AddLine(p2, 5)

	want := d("131.29")
	if !first.Subtotal().Equal(want) || !second.Subtotal().Equal(want) {
		t.Fatalf("expected subtotal %s, got %s and %s", want, first.Subtotal(), second.Subtotal())
	}
	if first.Lines[0].Product.ID != "1" || second.Lines[0].Product.ID != "3" {
		t.Fatalf("expected insertion order to be preserved")
	}
}

func TestTaxIsScalarOfSubtotal(t *testing.T) {
	cart := NewCart(decimal.Zero)
	cart.AddLine(product("a", "200"), 2)
	if !cart.Tax().IsZero() {
		t.Fatalf("expected zero tax at zero rate, got %s", cart.Tax())
	}
	if err := cart.SetTaxRate(d("18")); err != nil {
		t.Fatalf("set tax rate: %v", err)
	}
	if !cart.Tax().Equal(d("72")) {
		t.Fatalf("expected tax 72, got %s", cart.Tax())
	}
	if err := cart.SetTaxRate(d("100")); err != nil {
		t.Fatalf("set tax rate 100: %v", err)
	}
	if !cart.Tax().Equal(cart.Subtotal()) {
		t.Fatalf("expected tax to equal subtotal at 100%%")
	}
}

func TestSetTaxRateRejectsOutOfRange(t *testing.T) {
	cart := NewCart(d("5"))
	if err := cart.SetTaxRate(d("100.01")); err != ErrInvalidTaxRate {
		t.Fatalf("expected ErrInvalidTaxRate, got %v", err)
	}
	if err := cart.SetTaxRate(d("-1")); err != ErrInvalidTaxRate {
		t.Fatalf("expected ErrInvalidTaxRate, got %v", err)
	}
	if !cart.TaxRatePercent.Equal(d("5")) {
		t.Fatalf("rate should be unchanged, got %s", cart.TaxRatePercent)
	}
}

func TestTotalIsNotFlooredAtZero(t *testing.T) {
	// A discount larger than subtotal plus tax yields a negative total. This is
	// kept deliberately; callers decide whether to accept such a sale.
	cart := NewCart(decimal.Zero)
	cart.AddLine(product("a", "100"), 1)
	if err := cart.SetDiscount(d("150")); err != nil {
		t.Fatalf("set discount: %v", err)
	}
	if !cart.Total().Equal(d("-50")) {
		t.Fatalf("expected total -50, got %s", cart.Total())
	}
	if !Total(d("100"), decimal.Zero, d("150")).Equal(d("-50")) {
		t.Fatalf("expected Total helper to return -50")
	}
}

func TestDiscountSubtractedOnce(t *testing.T) {
	cart := NewCart(d("10"))
	cart.AddLine(product("a", "50"), 2)
	_ = cart.SetDiscount(d("5"))
	summary := cart.Summarize()
	if !summary.Subtotal.Equal(d("100")) || !summary.Tax.Equal(d("10")) {
		t.Fatalf("unexpected subtotal/tax %s/%s", summary.Subtotal, summary.Tax)
	}
	if !summary.Total.Equal(d("105")) {
		t.Fatalf("expected total 105, got %s", summary.Total)
	}
	if summary.ItemCount != 2 {
		t.Fatalf("expected item count 2, got %d", summary.ItemCount)
	}
	if err := cart.SetDiscount(d("-1")); err != ErrNegativeDiscount {
		t.Fatalf("expected ErrNegativeDiscount, got %v", err)
	}
}

func TestSetQuantityAndRemove(t *testing.T) {
	cart := NewCart(decimal.Zero)
	cart.AddLine(product("a", "3"), 1)
	cart.AddLine(product("b", "4"), 1)

	cart.SetQuantity("a", 5)
	if !cart.Lines[0].LineTotal.Equal(d("15")) {
		t.Fatalf("expected line total 15, got %s", cart.Lines[0].LineTotal)
	}

	cart.SetQuantity("a", 0)
	if len(cart.Lines) != 1 || cart.Lines[0].Product.ID != "b" {
		t.Fatalf("expected only line b to remain, got %+v", cart.Lines)
	}

	cart.RemoveLine("missing")
	cart.SetQuantity("missing", 3)
	if len(cart.Lines) != 1 {
		t.Fatalf("absent lines must be ignored, got %d lines", len(cart.Lines))
	}

	cart.RemoveLine("b")
	if !cart.IsEmpty() || !cart.Subtotal().IsZero() {
		t.Fatalf("expected empty cart after removal")
	}
}

func TestClearKeepsTaxRate(t *testing.T) {
	cart := NewCart(d("12"))
	cart.AddLine(product("a", "3"), 2)
	_ = cart.SetDiscount(d("1"))
	cart.Clear()
	if !cart.IsEmpty() || !cart.DiscountAmount().IsZero() {
		t.Fatalf("expected lines and discount reset")
	}
	if !cart.TaxRatePercent.Equal(d("12")) {
		t.Fatalf("expected tax rate to survive clear, got %s", cart.TaxRatePercent)
	}
}
