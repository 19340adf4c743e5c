package receipt

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-pos/internal/store"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestMoneyGroupsThousands(t *testing.T) {
	f := NewFormatter("₹")
	cases := map[string]string{
		"0":        "₹0.00",
		"9.5":      "₹9.50",
		"1234.567": "₹1,234.57",
		"-50":      "-₹50.00",
	}
	for in, want := range cases {
		if got := f.Money(decimal.RequireFromString(in)); got != want {
			t.Fatalf("Money(%s) = %q, want %q", in, got, want)
		}
	}
}

func TestRenderCashReceipt(t *testing.T) {
	tx := store.Transaction{
		ID:             "abcdef12-0000-0000-0000-000000000000",
		Subtotal:       *dec("1200"),
		TaxAmount:      *dec("60"),
		DiscountAmount: *dec("10"),
		TotalAmount:    *dec("1250"),
		PaymentMethod:  "cash",
		ReceivedAmount: dec("1300"),
		ChangeAmount:   dec("50"),
		CreatedAt:      time.Date(2025, 3, 15, 9, 5, 0, 0, time.UTC),
		Items: []store.SoldLine{
			{Name: "Kettle", Quantity: 2, UnitPrice: *dec("600"), LineTotal: *dec("1200")},
		},
	}
	company := store.CompanySettings{Name: "Corner Shop", Address: "1 Main Rd", City: "Pune", GSTIN: "27ABCDE1234F1Z5"}
	out := Render(company, tx, Options{Currency: "₹", Location: time.UTC})

	for _, want := range []string{
		"Corner Shop",
		"1 Main Rd, Pune",
		"GSTIN: 27ABCDE1234F1Z5",
		"Date: 15/03/2025",
		"Time: 09:05:00",
		"Bill: ABCDEF12",
		"  2 x ₹600.00 = ₹1,200.00",
		"Discount",
		"-₹10.00",
		"₹1,250.00",
		"Change",
		"Thank You!",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("receipt missing %q:\n%s", want, out)
		}
	}
}

func TestRenderCardOmitsCash(t *testing.T) {
	tx := store.Transaction{
		Subtotal:      *dec("100"),
		TotalAmount:   *dec("100"),
		PaymentMethod: "card",
		CreatedAt:     time.Now(),
	}
	out := Render(store.CompanySettings{}, tx, Options{Currency: "$"})
	if !strings.Contains(out, "My Store") || !strings.Contains(out, "CARD") {
		t.Fatalf("unexpected receipt:\n%s", out)
	}
	if strings.Contains(out, "Cash") || strings.Contains(out, "Tax") {
		t.Fatalf("card receipt should not show cash or zero tax:\n%s", out)
	}
}
