package importer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Kind selects the entity a file is imported as.
type Kind string

const (
	KindCategories Kind = "categories"
	KindItems      Kind = "items"
)

// ParseKind accepts "categories" or "items" in any case.
func ParseKind(value string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(value))); k {
	case KindCategories, KindItems:
		return k, nil
	default:
		return "", fmt.Errorf("importer: unknown import kind %q", value)
	}
}

// RowError is a failure attributed to one data row. Index is 1-based.
type RowError struct {
	Index   int
	Message string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("Row %d: %s", e.Index, e.Message)
}

func rowErr(i int, format string, args ...any) *RowError {
	return &RowError{Index: i + 1, Message: fmt.Sprintf(format, args...)}
}

// ValidateCategoryRow checks the row at zero-based position i of a category file.
func ValidateCategoryRow(row Row, i int) error {
	if row.Get("name") == "" {
		return rowErr(i, "Category name is required")
	}
	return nil
}

// ValidateItemRow checks the row at zero-based position i of an item file. Checks
// stop at the first failure: name, code, price, cost.
func ValidateItemRow(row Row, i int) error {
	if row.Get("name") == "" {
		return rowErr(i, "Item name is required")
	}
	if row.Get("code") == "" {
		return rowErr(i, "Item code is required")
	}
	if _, ok := parseAmount(row.Get("price")); !ok {
		return rowErr(i, "Valid price is required")
	}
	if _, ok := parseAmount(row.Get("cost")); !ok {
		return rowErr(i, "Valid cost is required")
	}
	return nil
}

// NewCategory is the create payload handed to the sink for a category row.
type NewCategory struct {
	Name        string
	Subcategory *string
	Brand       *string
}

// NewItem is the create payload handed to the sink for an item row.
type NewItem struct {
	Name        string
	Code        string
	Barcode     *string
	CategoryID  *string
	Subcategory *string
	Cost        decimal.Decimal
	Price       decimal.Decimal
	MRP         *decimal.Decimal
	Stock       int
}

// CategoryFromRow builds the create payload of a validated category row.
func CategoryFromRow(row Row) NewCategory {
	return NewCategory{
		Name:        row.Get("name"),
		Subcategory: optional(row.Get("subcategory")),
		Brand:       optional(row.Get("brand")),
	}
}

// ItemFromRow builds the create payload of a validated item row. A blank stock
// becomes 0 and a blank mrp is left unset; malformed values fail the row.
func ItemFromRow(row Row, i int, categoryID string) (NewItem, error) {
	price, _ := parseAmount(row.Get("price"))
	cost, _ := parseAmount(row.Get("cost"))
	item := NewItem{
		Name:        row.Get("name"),
		Code:        row.Get("code"),
		Barcode:     optional(row.Get("barcode")),
		CategoryID:  optional(categoryID),
		Subcategory: optional(row.Get("subcategory")),
		Cost:        cost,
		Price:       price,
	}
	if raw := row.Get("mrp"); raw != "" {
		mrp, ok := parseAmount(raw)
		if !ok {
			return NewItem{}, rowErr(i, "Valid mrp is required")
		}
		item.MRP = &mrp
	}
	if raw := row.Get("stock"); raw != "" {
		stock, err := strconv.Atoi(raw)
		if err != nil {
			return NewItem{}, rowErr(i, "Valid stock is required")
		}
		item.Stock = stock
	}
	return item, nil
}

func parseAmount(raw string) (decimal.Decimal, bool) {
	if raw == "" {
		return decimal.Zero, false
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return v, true
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
