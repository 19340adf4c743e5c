package catalog_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-pos/internal/catalog"
	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/importer"
	"github.com/noah-isme/backend-pos/internal/store"
)

type fakeQueries struct {
	mu             sync.Mutex
	categories     []store.Category
	items          []store.Item
	categoryListed int
}

func (f *fakeQueries) ListCategories(_ context.Context, ownerID string) ([]store.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.categoryListed++
	out := []store.Category{}
	for _, c := range f.categories {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeQueries) GetCategory(_ context.Context, ownerID, id string) (store.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.categories {
		if c.OwnerID == ownerID && c.ID == id {
			return c, nil
		}
	}
	return store.Category{}, store.ErrNotFound
}

func (f *fakeQueries) CreateCategory(_ context.Context, arg store.CategoryParams) (store.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := store.Category{ID: uuid.NewString(), OwnerID: arg.OwnerID, Name: arg.Name, Subcategory: arg.Subcategory, Brand: arg.Brand, CreatedAt: time.Now()}
	f.categories = append(f.categories, c)
	return c, nil
}

func (f *fakeQueries) UpdateCategory(_ context.Context, id string, arg store.CategoryParams) (store.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, c := range f.categories {
		if c.OwnerID == arg.OwnerID && c.ID == id {
			f.categories[i].Name = arg.Name
			f.categories[i].Subcategory = arg.Subcategory
			f.categories[i].Brand = arg.Brand
			return f.categories[i], nil
		}
	}
	return store.Category{}, store.ErrNotFound
}

func (f *fakeQueries) DeleteCategory(_ context.Context, ownerID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, c := range f.categories {
		if c.OwnerID == ownerID && c.ID == id {
			f.categories = append(f.categories[:i], f.categories[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeQueries) matching(ownerID, query string) []store.Item {
	q := strings.ToLower(strings.TrimSpace(query))
	out := []store.Item{}
	for _, it := range f.items {
		if it.OwnerID != ownerID {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(it.Name+" "+it.Code), q) {
			continue
		}
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (f *fakeQueries) ListItems(_ context.Context, arg store.ListItemsParams) ([]store.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := f.matching(arg.OwnerID, arg.Query)
	if arg.Offset >= len(all) {
		return []store.Item{}, nil
	}
	end := min(arg.Offset+arg.Limit, len(all))
	return all[arg.Offset:end], nil
}

func (f *fakeQueries) CountItems(_ context.Context, ownerID, query string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.matching(ownerID, query))), nil
}

func (f *fakeQueries) GetItem(_ context.Context, ownerID, id string) (store.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, it := range f.items {
		if it.OwnerID == ownerID && it.ID == id {
			return it, nil
		}
	}
	return store.Item{}, store.ErrNotFound
}

func (f *fakeQueries) GetItemByBarcode(_ context.Context, ownerID, barcode string) (store.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, it := range f.items {
		if it.OwnerID == ownerID && it.Barcode != nil && *it.Barcode == barcode {
			return it, nil
		}
	}
	return store.Item{}, store.ErrNotFound
}

func (f *fakeQueries) CreateItem(_ context.Context, arg store.ItemParams) (store.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, it := range f.items {
		if it.OwnerID == arg.OwnerID && it.Code == arg.Code {
			return store.Item{}, fmt.Errorf("%w: items_owner_code_key", store.ErrConflict)
		}
	}
	it := store.Item{
		ID: uuid.NewString(), OwnerID: arg.OwnerID, Name: arg.Name, Code: arg.Code, Barcode: arg.Barcode,
		CategoryID: arg.CategoryID, Subcategory: arg.Subcategory, Cost: arg.Cost, Price: arg.Price, MRP: arg.MRP,
		Stock: arg.Stock, ImageURL: arg.ImageURL,
	}
	f.items = append(f.items, it)
	return it, nil
}

func (f *fakeQueries) UpdateItem(_ context.Context, id string, arg store.ItemParams) (store.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, it := range f.items {
		if it.OwnerID == arg.OwnerID && it.ID == id {
			f.items[i].Name, f.items[i].Code, f.items[i].Price, f.items[i].Stock = arg.Name, arg.Code, arg.Price, arg.Stock
			return f.items[i], nil
		}
	}
	return store.Item{}, store.ErrNotFound
}

func (f *fakeQueries) DeleteItem(_ context.Context, ownerID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, it := range f.items {
		if it.OwnerID == ownerID && it.ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

type harness struct {
	queries *fakeQueries
	svc     *catalog.Service
	router  http.Handler
	changes []string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	h := &harness{queries: &fakeQueries{}}
	svc, err := catalog.NewService(catalog.ServiceConfig{
		Queries:      h.queries,
		Cache:        catalog.NewCache(rdb, time.Minute),
		OnChange:     func(_ context.Context, ownerID string) { h.changes = append(h.changes, ownerID) },
		Logger:       zerolog.Nop(),
		DefaultLimit: 2,
		MaxLimit:     10,
	})
	require.NoError(t, err)
	h.svc = svc

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if owner := r.Header.Get("X-Test-Owner"); owner != "" {
				r = r.WithContext(common.WithOwnerID(r.Context(), owner))
			}
			next.ServeHTTP(w, r)
		})
	})
	catalog.NewHandler(catalog.HandlerConfig{Service: svc}).Routes(r)
	h.router = r
	return h
}

func (h *harness) do(t *testing.T, method, path, owner, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if owner != "" {
		req.Header.Set("X-Test-Owner", owner)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Data       json.RawMessage `json:"data"`
	Pagination *struct {
		Page       int `json:"page"`
		PerPage    int `json:"per_page"`
		TotalItems int `json:"total_items"`
	} `json:"pagination"`
	Error *common.ErrorBody `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func TestCategoryListIsCachedUntilWrite(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/categories", "o1", `{"name":" Electronics ","subcategory":"Phones"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	for i := 0; i < 3; i++ {
		rec = h.do(t, http.MethodGet, "/categories", "o1", "")
		require.Equal(t, http.StatusOK, rec.Code)
	}
	require.Equal(t, 1, h.queries.categoryListed)

	var cats []catalog.Category
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &cats))
	require.Len(t, cats, 1)
	require.Equal(t, "Electronics", cats[0].Name)

	rec = h.do(t, http.MethodPost, "/categories", "o1", `{"name":"Toys"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = h.do(t, http.MethodGet, "/categories", "o1", "")
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &cats))
	require.Len(t, cats, 2)
	require.Equal(t, 2, h.queries.categoryListed)
	require.Equal(t, []string{"o1", "o1"}, h.changes)

	rec = h.do(t, http.MethodGet, "/categories", "o2", "")
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &cats))
	require.Empty(t, cats)
}

func TestCategoryValidationAndMissing(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/categories", "o1", `{"name":"  "}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "VALIDATION_ERROR", decode(t, rec).Error.Code)

	rec = h.do(t, http.MethodGet, "/categories/"+uuid.NewString(), "o1", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(t, http.MethodGet, "/categories", "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestItemLifecycle(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/items", "o1", `{"name":"USB Cable","code":"USB-1","barcode":"890","price":"99.00","cost":45,"stock":5}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created catalog.Item
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &created))
	require.Equal(t, "99", created.Price.String())
	require.Equal(t, 5, created.Stock)

	rec = h.do(t, http.MethodPost, "/items", "o1", `{"name":"Other","code":"USB-1","price":1}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, `item code "USB-1" already exists`, decode(t, rec).Error.Message)

	rec = h.do(t, http.MethodPost, "/items", "o1", `{"name":"Free","code":"F-1","price":-1}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(t, http.MethodPost, "/items", "o1", `{"name":"NoPrice","code":"N-1"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(t, http.MethodGet, "/items?barcode=890", "o1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var found catalog.Item
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &found))
	require.Equal(t, created.ID, found.ID)

	rec = h.do(t, http.MethodGet, "/items?barcode=890", "o2", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(t, http.MethodPut, "/items/"+created.ID, "o1", `{"name":"USB-C Cable","code":"USB-1","price":"120"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(t, http.MethodDelete, "/items/"+created.ID, "o1", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = h.do(t, http.MethodGet, "/items/"+created.ID, "o1", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestItemSearchPaginates(t *testing.T) {
	h := newHarness(t)
	for _, name := range []string{"Apple", "Apricot", "Banana", "Avocado"} {
		rec := h.do(t, http.MethodPost, "/items", "o1", fmt.Sprintf(`{"name":%q,"code":%q,"price":1}`, name, "C-"+name))
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := h.do(t, http.MethodGet, "/items?q=ap&page=1", "o1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "2", rec.Header().Get("X-Total-Count"))
	env := decode(t, rec)
	require.Equal(t, 2, env.Pagination.PerPage)
	require.Equal(t, 2, env.Pagination.TotalItems)

	rec = h.do(t, http.MethodGet, "/items?page=2&limit=3", "o1", "")
	var items []catalog.Item
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &items))
	require.Len(t, items, 1)
	require.Equal(t, "Banana", items[0].Name)
}

func TestImportSinkFeedsImporter(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	rows, err := importer.Parse("name,subcategory\nElectronics,\nElectronics,Phones\n")
	require.NoError(t, err)
	res, err := importer.Run(ctx, importer.KindCategories, rows, nil, h.svc.Importer("o1"), nil)
	require.NoError(t, err)
	require.Equal(t, 2, res.Success)

	snapshot, err := h.svc.Snapshot(ctx, "o1")
	require.NoError(t, err)
	require.Len(t, snapshot, 2)

	rows, err = importer.Parse("name,code,category_name,subcategory,cost,price\nPhone,P-1,Electronics,Phones,100,150\nPhone 2,P-1,Electronics,,1,2\n")
	require.NoError(t, err)
	res, err = importer.Run(ctx, importer.KindItems, rows, snapshot, h.svc.Importer("o1"), nil)
	require.NoError(t, err)
	require.Equal(t, 1, res.Success)
	require.Equal(t, []string{`Row 2: item code "P-1" already exists`}, res.Errors)

	var phonesID string
	for _, ref := range snapshot {
		if ref.Subcategory == "Phones" {
			phonesID = ref.ID
		}
	}
	require.Equal(t, phonesID, *h.queries.items[0].CategoryID)
}
