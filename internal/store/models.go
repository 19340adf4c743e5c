package store

import (
	"time"

	"github.com/shopspring/decimal"
)

// Owner is a store owner account.
type Owner struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Category is one name×subcategory pair.
type Category struct {
	ID          string
	OwnerID     string
	Name        string
	Subcategory *string
	Brand       *string
	CreatedAt   time.Time
}

// Item is a sellable product.
type Item struct {
	ID          string
	OwnerID     string
	Name        string
	Code        string
	Barcode     *string
	CategoryID  *string
	Subcategory *string
	Cost        decimal.Decimal
	Price       decimal.Decimal
	MRP         *decimal.Decimal
	Stock       int
	ImageURL    *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Customer is a buyer record.
type Customer struct {
	ID        string
	OwnerID   string
	Name      string
	Email     *string
	Phone     *string
	Address   *string
	City      *string
	State     *string
	Pincode   *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SoldLine is the snapshot of a cart line stored with a transaction.
type SoldLine struct {
	ItemID     string          `json:"itemId"`
	Name       string          `json:"name"`
	Code       string          `json:"code"`
	CategoryID *string         `json:"categoryId,omitempty"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	UnitCost   decimal.Decimal `json:"unitCost"`
	LineTotal  decimal.Decimal `json:"lineTotal"`
}

// Transaction is a recorded sale.
type Transaction struct {
	ID             string
	OwnerID        string
	CustomerID     *string
	Subtotal       decimal.Decimal
	TaxAmount      decimal.Decimal
	DiscountAmount decimal.Decimal
	TotalAmount    decimal.Decimal
	PaymentMethod  string
	ReceivedAmount *decimal.Decimal
	ChangeAmount   *decimal.Decimal
	Items          []SoldLine
	CreatedAt      time.Time
}

// CompanySettings holds receipt header details for an owner.
type CompanySettings struct {
	OwnerID   string
	Name      string
	Address   string
	City      string
	State     string
	Pincode   string
	Phone     string
	Email     string
	GSTIN     string
	Website   string
	LogoURL   string
	UpdatedAt time.Time
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func fromNullDecimal(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}
