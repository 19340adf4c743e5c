package cart_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-pos/internal/cart"
	"github.com/noah-isme/backend-pos/internal/catalog"
	"github.com/noah-isme/backend-pos/internal/common"
)

const (
	itemA = "11111111-1111-1111-1111-111111111111"
	itemB = "22222222-2222-2222-2222-222222222222"
)

type fakeProducts map[string]catalog.Item

func (f fakeProducts) GetItem(_ context.Context, _ string, id string) (catalog.Item, error) {
	item, ok := f[id]
	if !ok {
		return catalog.Item{}, common.NotFound("item", nil)
	}
	return item, nil
}

func (f fakeProducts) ItemByBarcode(_ context.Context, _ string, barcode string) (catalog.Item, error) {
	for _, item := range f {
		if item.Barcode != nil && *item.Barcode == barcode {
			return item, nil
		}
	}
	return catalog.Item{}, common.NotFound("item", nil)
}

func newService(t *testing.T) (*cart.Service, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	barcode := "8901"
	products := fakeProducts{
		itemA: {ID: itemA, Name: "Tea", Code: "T-1", Barcode: &barcode, Price: decimal.RequireFromString("250"), Cost: decimal.RequireFromString("200"), Stock: 5},
		itemB: {ID: itemB, Name: "Sugar", Code: "S-1", Price: decimal.RequireFromString("50"), Cost: decimal.RequireFromString("40"), Stock: 9},
	}
	return &cart.Service{R: rdb, Products: products, TTL: time.Hour, DefaultTaxRate: decimal.NewFromInt(10)}, mr
}

func TestCartLifecycle(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	snap, err := svc.Create(ctx, "owner-1")
	require.NoError(t, err)
	require.True(t, snap.Cart.IsEmpty())

	_, err = svc.AddItem(ctx, "owner-1", snap.ID, itemA, "", 2)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "owner-1", snap.ID, "", "8901", 1)
	require.NoError(t, err)
	snap, err = svc.AddItem(ctx, "owner-1", snap.ID, itemB, "", 2)
	require.NoError(t, err)
	require.Len(t, snap.Cart.Lines, 2)
	require.Equal(t, 3, snap.Cart.Lines[0].Quantity)

	snap, err = svc.SetDiscount(ctx, "owner-1", snap.ID, decimal.NewFromInt(25))
	require.NoError(t, err)
	view := cart.ViewOf(snap)
	require.Equal(t, "850", view.Summary.Subtotal.String())
	require.Equal(t, "85", view.Summary.Tax.String())
	require.Equal(t, "910", view.Summary.Total.String())
	require.Equal(t, 5, view.Summary.ItemCount)

	snap, err = svc.SetQuantity(ctx, "owner-1", snap.ID, itemB, 0)
	require.NoError(t, err)
	require.Len(t, snap.Cart.Lines, 1)

	snap, err = svc.Clear(ctx, "owner-1", snap.ID)
	require.NoError(t, err)
	require.True(t, snap.Cart.IsEmpty())
	require.Equal(t, "10", snap.Cart.TaxRatePercent.String())
}

func TestCartIsOwnerScoped(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	snap, err := svc.Create(ctx, "owner-1")
	require.NoError(t, err)

	_, err = svc.Get(ctx, "owner-2", snap.ID)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, http.StatusNotFound, appErr.HTTPStatus)

	_, err = svc.AddItem(ctx, "owner-2", snap.ID, itemA, "", 1)
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, http.StatusNotFound, appErr.HTTPStatus)
}

func TestCartRejectsInvalidTaxAndDiscount(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	snap, err := svc.Create(ctx, "owner-1")
	require.NoError(t, err)

	_, err = svc.SetTaxRate(ctx, "owner-1", snap.ID, decimal.NewFromInt(101))
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, http.StatusBadRequest, appErr.HTTPStatus)

	_, err = svc.SetDiscount(ctx, "owner-1", snap.ID, decimal.NewFromInt(-1))
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, http.StatusBadRequest, appErr.HTTPStatus)

	got, err := svc.Get(ctx, "owner-1", snap.ID)
	require.NoError(t, err)
	require.Equal(t, "10", got.Cart.TaxRatePercent.String())
	require.True(t, got.Cart.Discount.IsZero())
}

func TestCartExpiresAfterTTL(t *testing.T) {
	svc, mr := newService(t)
	ctx := context.Background()
	snap, err := svc.Create(ctx, "owner-1")
	require.NoError(t, err)

	mr.FastForward(30 * time.Minute)
	_, err = svc.Get(ctx, "owner-1", snap.ID)
	require.NoError(t, err)
	mr.FastForward(45 * time.Minute)
	_, err = svc.Get(ctx, "owner-1", snap.ID)
	require.NoError(t, err, "reads slide the ttl")

	mr.FastForward(2 * time.Hour)
	_, err = svc.Get(ctx, "owner-1", snap.ID)
	require.Error(t, err)
}

func TestCartHandlers(t *testing.T) {
	svc, _ := newService(t)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if owner := req.Header.Get("X-Test-Owner"); owner != "" {
				req = req.WithContext(common.WithOwnerID(req.Context(), owner))
			}
			next.ServeHTTP(w, req)
		})
	})
	cart.Handler{Service: svc}.Routes(r)

	do := func(method, path, body, owner string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
		if owner != "" {
			req.Header.Set("X-Test-Owner", owner)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	rec := do(http.MethodPost, "/carts", "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(http.MethodPost, "/carts", "", "owner-1")
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		Data cart.View `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	id := created.Data.ID

	rec = do(http.MethodPost, "/carts/"+id+"/items", `{"itemId":"`+itemA+`","quantity":2}`, "owner-1")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(http.MethodPost, "/carts/"+id+"/items", `{"barcode":"nope"}`, "owner-1")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(http.MethodPut, "/carts/"+id+"/tax", `{"ratePercent":"150"}`, "owner-1")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(http.MethodPut, "/carts/"+id+"/discount", `{}`, "owner-1")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "VALIDATION_ERROR")

	rec = do(http.MethodPatch, "/carts/"+id+"/items/"+itemA, `{"quantity":3}`, "owner-1")
	require.Equal(t, http.StatusOK, rec.Code)
	var view struct {
		Data cart.View `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Equal(t, "750", view.Data.Summary.Subtotal.String())
	require.Equal(t, "825", view.Data.Summary.Total.String())

	rec = do(http.MethodGet, "/carts/"+id, "", "owner-2")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(http.MethodDelete, "/carts/"+id+"/items/"+itemA, "", "owner-1")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Empty(t, view.Data.Lines)
}
