// Package receipt renders plain-text receipts sized for an 80mm thermal printer.
package receipt

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/noah-isme/backend-pos/internal/store"
)

// Width is the character width of a receipt line.
const Width = 32

var rule = strings.Repeat("-", Width)

// Options tune rendering.
type Options struct {
	Currency string
	Location *time.Location
}

// Formatter formats money with thousands grouping and two decimals.
type Formatter struct {
	printer  *message.Printer
	currency string
}

// NewFormatter builds a Formatter for the currency symbol.
func NewFormatter(currency string) Formatter {
	return Formatter{printer: message.NewPrinter(language.English), currency: currency}
}

// Money formats d, for example "₹1,234.50".
func (f Formatter) Money(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	v := d.Round(2).InexactFloat64()
	return sign + f.currency + f.printer.Sprintf("%v", number.Decimal(v, number.Scale(2)))
}

// Render produces the receipt text for a recorded sale.
func Render(company store.CompanySettings, tx store.Transaction, opts Options) string {
	f := NewFormatter(opts.Currency)
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	var b strings.Builder
	line := func(s string) {
		b.WriteString(s)
		b.WriteByte('\n')
	}

	name := company.Name
	if name == "" {
		name = "My Store"
	}
	line(center(name))
	if addr := joinNonEmpty(", ", company.Address, company.City, company.State, company.Pincode); addr != "" {
		line(center(addr))
	}
	if company.Phone != "" {
		line(center("Tel: " + company.Phone))
	}
	if company.GSTIN != "" {
		line(center("GSTIN: " + company.GSTIN))
	}
	line(rule)

	at := tx.CreatedAt.In(loc)
	line("Date: " + at.Format("02/01/2006"))
	line("Time: " + at.Format("15:04:05"))
	if len(tx.ID) >= 8 {
		line("Bill: " + strings.ToUpper(tx.ID[:8]))
	}
	line(rule)

	for _, item := range tx.Items {
		line(item.Name)
		line(fmt.Sprintf("  %d x %s = %s", item.Quantity, f.Money(item.UnitPrice), f.Money(item.LineTotal)))
	}
	line(rule)

	line(pair("Subtotal", f.Money(tx.Subtotal)))
	if tx.TaxAmount.IsPositive() {
		line(pair("Tax", f.Money(tx.TaxAmount)))
	}
	if tx.DiscountAmount.IsPositive() {
		line(pair("Discount", "-"+f.Money(tx.DiscountAmount)))
	}
	line(pair("TOTAL", f.Money(tx.TotalAmount)))
	line(pair("Payment", strings.ToUpper(tx.PaymentMethod)))
	if tx.PaymentMethod == "cash" && tx.ReceivedAmount != nil {
		line(pair("Cash", f.Money(*tx.ReceivedAmount)))
		if tx.ChangeAmount != nil && tx.ChangeAmount.IsPositive() {
			line(pair("Change", f.Money(*tx.ChangeAmount)))
		}
	}
	line(rule)
	line(center("Thank You!"))
	line(center("Visit Again"))
	return b.String()
}

func pair(label, value string) string {
	gap := Width - len([]rune(label)) - len([]rune(value))
	if gap < 1 {
		gap = 1
	}
	return label + strings.Repeat(" ", gap) + value
}

func center(s string) string {
	n := len([]rune(s))
	if n >= Width {
		return s
	}
	return strings.Repeat(" ", (Width-n)/2) + s
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
