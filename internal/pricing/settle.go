package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Method identifies how a sale was paid.
type Method string

const (
	MethodCash Method = "cash"
	MethodCard Method = "card"
	MethodUPI  Method = "upi"
)

// ParseMethod normalises a payment method name.
func ParseMethod(value string) (Method, error) {
	switch m := Method(strings.ToLower(strings.TrimSpace(value))); m {
	case MethodCash, MethodCard, MethodUPI:
		return m, nil
	default:
		return "", fmt.Errorf("pricing: unsupported payment method %q", value)
	}
}

// PaymentResult describes how a total was settled.
type PaymentResult struct {
	Method   Method `json:"method"`
	Total    Money  `json:"total"`
	Received Money  `json:"received"`
	Change   Money  `json:"change"`
	// Discount is the cash shortfall granted as a discount.
	Discount Money `json:"discount"`
}

// SettleCash derives change or shortfall discount for a cash payment. A nil
// received amount means exact payment. An underpayment is not rejected: the
// shortfall becomes a discount.
func SettleCash(total Money, received *Money) PaymentResult {
	res := PaymentResult{Method: MethodCash, Total: total, Received: total, Change: decimal.Zero, Discount: decimal.Zero}
	if received == nil {
		return res
	}
	res.Received = *received
	diff := received.Sub(total)
	if diff.IsNegative() {
		res.Discount = diff.Neg()
		return res
	}
	res.Change = diff
	return res
}

// Settle records a payment for any method. Card and UPI payments are always exact.
func Settle(method Method, total Money, received *Money) PaymentResult {
	if method == MethodCash {
		return SettleCash(total, received)
	}
	return PaymentResult{Method: method, Total: total, Received: total, Change: decimal.Zero, Discount: decimal.Zero}
}

// Charged is the amount actually collected: the total less any shortfall discount.
func (p PaymentResult) Charged() Money {
	return p.Total.Sub(p.Discount)
}
