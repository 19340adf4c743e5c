package checkout_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-pos/internal/cart"
	"github.com/noah-isme/backend-pos/internal/checkout"
	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/pricing"
	"github.com/noah-isme/backend-pos/internal/store"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

type fakeCarts struct {
	snaps   map[string]cart.Snapshot
	cleared []string
}

func (f *fakeCarts) Get(_ context.Context, ownerID, id string) (cart.Snapshot, error) {
	snap, ok := f.snaps[id]
	if !ok || snap.OwnerID != ownerID {
		return cart.Snapshot{}, common.NotFound("cart", cart.ErrNotFound)
	}
	return snap, nil
}

func (f *fakeCarts) Clear(_ context.Context, _ string, id string) (cart.Snapshot, error) {
	f.cleared = append(f.cleared, id)
	snap := f.snaps[id]
	snap.Cart.Clear()
	f.snaps[id] = snap
	return snap, nil
}

type fakeLedger struct {
	stock     map[string]int
	recorded  []store.TransactionParams
	createErr error
}

func (l *fakeLedger) CreateTransaction(_ context.Context, arg store.TransactionParams) (store.Transaction, error) {
	if l.createErr != nil {
		return store.Transaction{}, l.createErr
	}
	l.recorded = append(l.recorded, arg)
	return store.Transaction{
		ID:             "tx-1",
		OwnerID:        arg.OwnerID,
		Subtotal:       arg.Subtotal,
		TaxAmount:      arg.TaxAmount,
		DiscountAmount: arg.DiscountAmount,
		TotalAmount:    arg.TotalAmount,
		PaymentMethod:  arg.PaymentMethod,
		ReceivedAmount: arg.ReceivedAmount,
		ChangeAmount:   arg.ChangeAmount,
		Items:          arg.Items,
	}, nil
}

func (l *fakeLedger) DecrementStock(_ context.Context, _ string, id string, qty int) (bool, error) {
	if l.stock[id] < qty {
		return false, nil
	}
	l.stock[id] -= qty
	return true, nil
}

func newCart(owner string, tax string, lines ...pricing.LineItem) cart.Snapshot {
	c := pricing.NewCart(dec(tax))
	for _, l := range lines {
		c.AddLine(l.Product, l.Quantity)
	}
	return cart.Snapshot{ID: "cart-1", OwnerID: owner, Cart: *c}
}

func line(id string, price, cost string, qty int) pricing.LineItem {
	return pricing.LineItem{Product: pricing.Product{ID: id, Name: id, Code: id, Price: dec(price), Cost: dec(cost), CategoryID: "cat"}, Quantity: qty}
}

type harness struct {
	svc    *checkout.Service
	carts  *fakeCarts
	ledger *fakeLedger
	sales  []string
}

func newHarness(snap cart.Snapshot) *harness {
	h := &harness{
		carts:  &fakeCarts{snaps: map[string]cart.Snapshot{snap.ID: snap}},
		ledger: &fakeLedger{stock: map[string]int{"tea": 10, "saw": 0}},
	}
	h.svc = &checkout.Service{
		Carts: h.carts,
		InTx: func(ctx context.Context, fn func(checkout.Ledger) error) error {
			return fn(h.ledger)
		},
		OnSale: func(_ context.Context, owner string) { h.sales = append(h.sales, owner) },
	}
	return h
}

func TestCashShortfallBecomesDiscount(t *testing.T) {
	h := newHarness(newCart("owner-1", "0", line("tea", "250", "200", 3)))
	out, err := h.svc.Checkout(context.Background(), "owner-1", checkout.Input{
		CartID: "cart-1", PaymentMethod: "cash", ReceivedAmount: decPtr("500"),
	})
	require.NoError(t, err)

	require.Len(t, h.ledger.recorded, 1)
	rec := h.ledger.recorded[0]
	require.Equal(t, "750", rec.Subtotal.String())
	require.Equal(t, "250", rec.DiscountAmount.String())
	require.Equal(t, "500", rec.TotalAmount.String())
	require.Equal(t, "500", rec.ReceivedAmount.String())
	require.True(t, rec.ChangeAmount.IsZero())
	require.Equal(t, "250", out.Payment.Discount.String())

	require.Equal(t, 7, h.ledger.stock["tea"])
	require.Equal(t, []string{"cart-1"}, h.carts.cleared)
	require.Equal(t, []string{"owner-1"}, h.sales)
	require.Equal(t, "150", out.Transaction.Profit.String())
}

func TestCashChangeAndTaxedCardCheckout(t *testing.T) {
	h := newHarness(newCart("owner-1", "10", line("tea", "100", "50", 2)))
	out, err := h.svc.Checkout(context.Background(), "owner-1", checkout.Input{
		CartID: "cart-1", PaymentMethod: "CASH", ReceivedAmount: decPtr("300"),
	})
	require.NoError(t, err)
	require.Equal(t, "220", out.Transaction.TotalAmount.String())
	require.Equal(t, "80", out.Payment.Change.String())
	require.Equal(t, "20", h.ledger.recorded[0].TaxAmount.String())

	h = newHarness(newCart("owner-1", "0", line("tea", "100", "50", 1)))
	_, err = h.svc.Checkout(context.Background(), "owner-1", checkout.Input{
		CartID: "cart-1", PaymentMethod: "upi", ReceivedAmount: decPtr("1"),
	})
	require.NoError(t, err)
	rec := h.ledger.recorded[0]
	require.Equal(t, "100", rec.TotalAmount.String())
	require.Nil(t, rec.ReceivedAmount)
	require.Nil(t, rec.ChangeAmount)
}

func TestCheckoutSkipsStockShortfall(t *testing.T) {
	h := newHarness(newCart("owner-1", "0", line("saw", "10", "5", 1), line("tea", "1", "1", 1)))
	_, err := h.svc.Checkout(context.Background(), "owner-1", checkout.Input{CartID: "cart-1", PaymentMethod: "card"})
	require.NoError(t, err)
	require.Equal(t, 0, h.ledger.stock["saw"])
	require.Equal(t, 9, h.ledger.stock["tea"])
}

func TestCheckoutRejections(t *testing.T) {
	h := newHarness(newCart("owner-1", "0"))
	var appErr *common.AppError

	_, err := h.svc.Checkout(context.Background(), "owner-1", checkout.Input{CartID: "cart-1", PaymentMethod: "cheque"})
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, http.StatusBadRequest, appErr.HTTPStatus)

	_, err = h.svc.Checkout(context.Background(), "owner-1", checkout.Input{CartID: "cart-1", PaymentMethod: "cash"})
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "EMPTY_CART", appErr.Code)

	_, err = h.svc.Checkout(context.Background(), "owner-2", checkout.Input{CartID: "cart-1", PaymentMethod: "cash"})
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, http.StatusNotFound, appErr.HTTPStatus)
	require.Empty(t, h.ledger.recorded)
}

func TestCheckoutFailureKeepsCart(t *testing.T) {
	h := newHarness(newCart("owner-1", "0", line("tea", "1", "1", 1)))
	h.ledger.createErr = store.ErrInvalidReference
	_, err := h.svc.Checkout(context.Background(), "owner-1", checkout.Input{CartID: "cart-1", PaymentMethod: "cash"})
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, http.StatusBadRequest, appErr.HTTPStatus)
	require.Empty(t, h.carts.cleared)
	require.Empty(t, h.sales)

	h.ledger.createErr = errors.New("connection reset")
	_, err = h.svc.Checkout(context.Background(), "owner-1", checkout.Input{CartID: "cart-1", PaymentMethod: "cash"})
	require.Error(t, err)
	require.False(t, common.IsAppError(err))
}

func TestProfitLoss(t *testing.T) {
	profit, loss := checkout.ProfitLoss([]store.SoldLine{
		{Quantity: 2, UnitPrice: dec("15"), UnitCost: dec("10")},
		{Quantity: 1, UnitPrice: dec("5"), UnitCost: dec("8")},
		{Quantity: 4, UnitPrice: dec("3"), UnitCost: dec("0")},
	})
	require.Equal(t, "10", profit.String())
	require.Equal(t, "3", loss.String())
}

type fakeQuerier struct {
	txs []store.Transaction
}

func (f fakeQuerier) GetTransaction(_ context.Context, ownerID, id string) (store.Transaction, error) {
	for _, tx := range f.txs {
		if tx.ID == id && tx.OwnerID == ownerID {
			return tx, nil
		}
	}
	return store.Transaction{}, store.ErrNotFound
}

func (f fakeQuerier) ListTransactionsPage(_ context.Context, ownerID string, since *time.Time, limit, offset int) ([]store.Transaction, error) {
	out := []store.Transaction{}
	for _, tx := range f.txs {
		if tx.OwnerID == ownerID && (since == nil || !tx.CreatedAt.Before(*since)) {
			out = append(out, tx)
		}
	}
	if offset >= len(out) {
		return []store.Transaction{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f fakeQuerier) CountTransactionsSince(ctx context.Context, ownerID string, since *time.Time) (int64, error) {
	rows, _ := f.ListTransactionsPage(ctx, ownerID, since, len(f.txs)+1, 0)
	return int64(len(rows)), nil
}

func (f fakeQuerier) GetCompanySettings(context.Context, string) (store.CompanySettings, error) {
	return store.CompanySettings{}, store.ErrNotFound
}

func TestTransactionHandlers(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	q := fakeQuerier{txs: []store.Transaction{
		{ID: "a1b2c3d4-0000", OwnerID: "owner-1", PaymentMethod: "card", Subtotal: dec("30"), TotalAmount: dec("30"), CreatedAt: now.Add(-time.Hour),
			Items: []store.SoldLine{{Name: "Tea", Quantity: 2, UnitPrice: dec("15"), UnitCost: dec("10"), LineTotal: dec("30")}}},
		{ID: "old", OwnerID: "owner-1", PaymentMethod: "cash", TotalAmount: dec("5"), CreatedAt: now.AddDate(0, -2, 0)},
	}}
	svc := &checkout.Service{Q: q, Currency: "₹", Location: time.UTC, Now: func() time.Time { return now }}
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(common.WithOwnerID(req.Context(), "owner-1")))
		})
	})
	(&checkout.Handler{Svc: svc}).Routes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/transactions?period=month", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "1", rec.Header().Get("X-Total-Count"))
	var list struct {
		Data []checkout.Transaction `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
	require.Equal(t, "10", list.Data[0].NetProfit.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/transactions", nil))
	require.Equal(t, "2", rec.Header().Get("X-Total-Count"))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/transactions/missing", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/transactions/a1b2c3d4-0000/receipt", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))
	require.Contains(t, rec.Body.String(), "My Store")
	require.Contains(t, rec.Body.String(), "2 x ₹15.00 = ₹30.00")
}
