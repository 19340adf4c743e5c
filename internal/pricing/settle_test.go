package pricing

import "testing"

func TestSettleCash(t *testing.T) {
	total := d("750")
	thousand := d("1000")
	fiveHundred := d("500")

	cases := []struct {
		name     string
		received *Money
		want     PaymentResult
	}{
		{"exact when empty", nil, PaymentResult{Received: d("750"), Change: d("0"), Discount: d("0")}},
		{"overpayment gives change", &thousand, PaymentResult{Received: d("1000"), Change: d("250"), Discount: d("0")}},
		// An underpayment is granted as a discount rather than declined.
		{"shortfall becomes discount", &fiveHundred, PaymentResult{Received: d("500"), Change: d("0"), Discount: d("250")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := SettleCash(total, tc.received)
			if got.Method != MethodCash {
				t.Fatalf("expected cash method, got %q", got.Method)
			}
			if !got.Total.Equal(total) {
				t.Fatalf("total changed: %s", got.Total)
			}
			if !got.Received.Equal(tc.want.Received) || !got.Change.Equal(tc.want.Change) || !got.Discount.Equal(tc.want.Discount) {
				t.Fatalf("unexpected result %+v", got)
			}
		})
	}
}

func TestSettleNonCashIsExact(t *testing.T) {
	received := d("10")
	got := Settle(MethodUPI, d("99.5"), &received)
	if !got.Received.Equal(d("99.5")) || !got.Change.IsZero() || !got.Discount.IsZero() {
		t.Fatalf("unexpected upi settlement %+v", got)
	}
	if !got.Charged().Equal(d("99.5")) {
		t.Fatalf("expected charged 99.5, got %s", got.Charged())
	}
}

func TestChargedSubtractsShortfall(t *testing.T) {
	received := d("500")
	got := Settle(MethodCash, d("750"), &received)
	if !got.Charged().Equal(d("500")) {
		t.Fatalf("expected charged 500, got %s", got.Charged())
	}
}

func TestParseMethod(t *testing.T) {
	for _, in := range []string{"cash", " Card ", "UPI"} {
		if _, err := ParseMethod(in); err != nil {
			t.Fatalf("parse %q: %v", in, err)
		}
	}
	if _, err := ParseMethod("cheque"); err == nil {
		t.Fatal("expected error for unsupported method")
	}
}
