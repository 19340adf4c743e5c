package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-pos/internal/cart"
	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/obs"
	"github.com/noah-isme/backend-pos/internal/pricing"
	"github.com/noah-isme/backend-pos/internal/reports"
	"github.com/noah-isme/backend-pos/internal/store"
)

// Ledger is the write side used inside the checkout transaction.
type Ledger interface {
	CreateTransaction(ctx context.Context, arg store.TransactionParams) (store.Transaction, error)
	DecrementStock(ctx context.Context, ownerID, id string, qty int) (bool, error)
}

// TxRunner runs fn inside one database transaction.
type TxRunner func(ctx context.Context, fn func(Ledger) error) error

// PoolTx runs checkouts in pgx transactions on pool.
func PoolTx(pool *pgxpool.Pool) TxRunner {
	return func(ctx context.Context, fn func(Ledger) error) error {
		return store.WithTx(ctx, pool, func(tx pgx.Tx) error {
			return fn(store.New(tx))
		})
	}
}

// Querier is the read side for transaction listings and receipts.
type Querier interface {
	GetTransaction(ctx context.Context, ownerID, id string) (store.Transaction, error)
	ListTransactionsPage(ctx context.Context, ownerID string, since *time.Time, limit, offset int) ([]store.Transaction, error)
	CountTransactionsSince(ctx context.Context, ownerID string, since *time.Time) (int64, error)
	GetCompanySettings(ctx context.Context, ownerID string) (store.CompanySettings, error)
}

// Carts is the cart access checkout needs.
type Carts interface {
	Get(ctx context.Context, ownerID, id string) (cart.Snapshot, error)
	Clear(ctx context.Context, ownerID, id string) (cart.Snapshot, error)
}

type Service struct {
	Q        Querier
	InTx     TxRunner
	Carts    Carts
	OnSale   func(ctx context.Context, ownerID string)
	Log      zerolog.Logger
	Currency string
	Location *time.Location
	Now      func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Input is the checkout request.
type Input struct {
	CartID         string           `json:"cartId" validate:"required"`
	PaymentMethod  string           `json:"paymentMethod" validate:"required"`
	ReceivedAmount *decimal.Decimal `json:"receivedAmount"`
	CustomerID     *string          `json:"customerId" validate:"omitempty,uuid"`
}

// Output is the checkout response.
type Output struct {
	Transaction Transaction           `json:"transaction"`
	Payment     pricing.PaymentResult `json:"payment"`
}

// Transaction is the API shape of a recorded sale.
type Transaction struct {
	ID             string           `json:"id"`
	CustomerID     *string          `json:"customerId"`
	Subtotal       decimal.Decimal  `json:"subtotal"`
	TaxAmount      decimal.Decimal  `json:"taxAmount"`
	DiscountAmount decimal.Decimal  `json:"discountAmount"`
	TotalAmount    decimal.Decimal  `json:"totalAmount"`
	PaymentMethod  string           `json:"paymentMethod"`
	ReceivedAmount *decimal.Decimal `json:"receivedAmount"`
	ChangeAmount   *decimal.Decimal `json:"changeAmount"`
	Items          []store.SoldLine `json:"items"`
	ItemCount      int              `json:"itemCount"`
	Profit         decimal.Decimal  `json:"profit"`
	Loss           decimal.Decimal  `json:"loss"`
	NetProfit      decimal.Decimal  `json:"netProfit"`
	CreatedAt      time.Time        `json:"createdAt"`
}

// ProfitLoss splits a sale's margin into gains and losses. Lines without a
// recorded cost are ignored.
func ProfitLoss(lines []store.SoldLine) (profit, loss decimal.Decimal) {
	profit, loss = decimal.Zero, decimal.Zero
	for _, line := range lines {
		if !line.UnitCost.IsPositive() {
			continue
		}
		diff := line.UnitPrice.Sub(line.UnitCost).Mul(decimal.NewFromInt(int64(line.Quantity)))
		if diff.IsNegative() {
			loss = loss.Add(diff.Neg())
		} else {
			profit = profit.Add(diff)
		}
	}
	return profit, loss
}

func toTransaction(t store.Transaction) Transaction {
	profit, loss := ProfitLoss(t.Items)
	count := 0
	for _, line := range t.Items {
		count += line.Quantity
	}
	return Transaction{
		ID:             t.ID,
		CustomerID:     t.CustomerID,
		Subtotal:       t.Subtotal,
		TaxAmount:      t.TaxAmount,
		DiscountAmount: t.DiscountAmount,
		TotalAmount:    t.TotalAmount,
		PaymentMethod:  t.PaymentMethod,
		ReceivedAmount: t.ReceivedAmount,
		ChangeAmount:   t.ChangeAmount,
		Items:          t.Items,
		ItemCount:      count,
		Profit:         profit.Round(2),
		Loss:           loss.Round(2),
		NetProfit:      profit.Sub(loss).Round(2),
		CreatedAt:      t.CreatedAt,
	}
}

func soldLines(c pricing.Cart) []store.SoldLine {
	lines := make([]store.SoldLine, 0, len(c.Lines))
	for _, l := range c.Lines {
		line := store.SoldLine{
			ItemID:    l.Product.ID,
			Name:      l.Product.Name,
			Code:      l.Product.Code,
			Quantity:  l.Quantity,
			UnitPrice: l.Product.Price,
			UnitCost:  l.Product.Cost,
			LineTotal: l.LineTotal.Round(2),
		}
		if l.Product.CategoryID != "" {
			id := l.Product.CategoryID
			line.CategoryID = &id
		}
		lines = append(lines, line)
	}
	return lines
}

// Checkout settles a cart and records the sale.
func (s *Service) Checkout(ctx context.Context, ownerID string, in Input) (Output, error) {
	if s == nil || s.InTx == nil || s.Carts == nil {
		return Output{}, errors.New("checkout service not configured")
	}
	method, err := pricing.ParseMethod(in.PaymentMethod)
	if err != nil {
		obs.CheckoutTotal.WithLabelValues("unknown", "rejected").Inc()
		return Output{}, common.BadRequest("paymentMethod", "paymentMethod must be cash, card or upi", err)
	}
	if in.ReceivedAmount != nil && in.ReceivedAmount.IsNegative() {
		obs.CheckoutTotal.WithLabelValues(string(method), "rejected").Inc()
		return Output{}, common.BadRequest("receivedAmount", "receivedAmount must not be negative", nil)
	}
	snap, err := s.Carts.Get(ctx, ownerID, in.CartID)
	if err != nil {
		return Output{}, err
	}
	if snap.Cart.IsEmpty() {
		obs.CheckoutTotal.WithLabelValues(string(method), "rejected").Inc()
		return Output{}, common.NewAppError("EMPTY_CART", "cart is empty", http.StatusBadRequest, nil)
	}

	summary := snap.Cart.Summarize()
	total := summary.Total.Round(2)
	payment := pricing.Settle(method, total, in.ReceivedAmount)
	params := store.TransactionParams{
		OwnerID:        ownerID,
		CustomerID:     in.CustomerID,
		Subtotal:       summary.Subtotal.Round(2),
		TaxAmount:      summary.Tax.Round(2),
		DiscountAmount: summary.Discount.Add(payment.Discount).Round(2),
		TotalAmount:    payment.Charged().Round(2),
		PaymentMethod:  string(method),
		Items:          soldLines(snap.Cart),
	}
	if method == pricing.MethodCash {
		received, change := payment.Received.Round(2), payment.Change.Round(2)
		params.ReceivedAmount, params.ChangeAmount = &received, &change
	}

	var recorded store.Transaction
	err = s.InTx(ctx, func(l Ledger) error {
		tx, err := l.CreateTransaction(ctx, params)
		if err != nil {
			return err
		}
		for _, line := range params.Items {
			ok, err := l.DecrementStock(ctx, ownerID, line.ItemID, line.Quantity)
			if err != nil {
				return fmt.Errorf("decrement stock of %s: %w", line.ItemID, err)
			}
			if !ok {
				s.Log.Warn().Str("item_id", line.ItemID).Int("quantity", line.Quantity).Msg("stock not decremented")
			}
		}
		recorded = tx
		return nil
	})
	if err != nil {
		obs.CheckoutTotal.WithLabelValues(string(method), "failed").Inc()
		if errors.Is(err, store.ErrInvalidReference) {
			return Output{}, common.BadRequest("customerId", "customer does not exist", err)
		}
		return Output{}, fmt.Errorf("record transaction: %w", err)
	}

	if _, err := s.Carts.Clear(ctx, ownerID, in.CartID); err != nil {
		s.Log.Warn().Err(err).Str("cart_id", in.CartID).Msg("cart not cleared after checkout")
	}
	if s.OnSale != nil {
		s.OnSale(ctx, ownerID)
	}
	obs.CheckoutTotal.WithLabelValues(string(method), "success").Inc()
	s.Log.Info().Str("transaction_id", recorded.ID).Str("method", string(method)).
		Str("total", recorded.TotalAmount.StringFixed(2)).Msg("checkout completed")
	return Output{Transaction: toTransaction(recorded), Payment: payment}, nil
}

// TransactionPage is one page of sales.
type TransactionPage struct {
	Items []Transaction
	Total int64
}

// List returns sales in period, newest first.
func (s *Service) List(ctx context.Context, ownerID string, period reports.Period, limit, offset int) (TransactionPage, error) {
	since := period.Start(s.now().In(s.location()))
	rows, err := s.Q.ListTransactionsPage(ctx, ownerID, since, limit, offset)
	if err != nil {
		return TransactionPage{}, fmt.Errorf("list transactions: %w", err)
	}
	total, err := s.Q.CountTransactionsSince(ctx, ownerID, since)
	if err != nil {
		return TransactionPage{}, fmt.Errorf("count transactions: %w", err)
	}
	out := TransactionPage{Items: make([]Transaction, 0, len(rows)), Total: total}
	for _, row := range rows {
		out.Items = append(out.Items, toTransaction(row))
	}
	return out, nil
}

// Get returns one sale.
func (s *Service) Get(ctx context.Context, ownerID, id string) (store.Transaction, error) {
	tx, err := s.Q.GetTransaction(ctx, ownerID, id)
	if errors.Is(err, store.ErrNotFound) {
		return store.Transaction{}, common.NotFound("transaction", err)
	}
	if err != nil {
		return store.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return tx, nil
}

// Company returns the receipt header, falling back to defaults.
func (s *Service) Company(ctx context.Context, ownerID string) (store.CompanySettings, error) {
	settings, err := s.Q.GetCompanySettings(ctx, ownerID)
	if errors.Is(err, store.ErrNotFound) {
		return store.CompanySettings{OwnerID: ownerID}, nil
	}
	return settings, err
}

func (s *Service) location() *time.Location {
	if s.Location != nil {
		return s.Location
	}
	return time.Local
}
