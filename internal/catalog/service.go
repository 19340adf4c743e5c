package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/store"
)

type queryProvider interface {
	ListCategories(ctx context.Context, ownerID string) ([]store.Category, error)
	GetCategory(ctx context.Context, ownerID, id string) (store.Category, error)
	CreateCategory(ctx context.Context, arg store.CategoryParams) (store.Category, error)
	UpdateCategory(ctx context.Context, id string, arg store.CategoryParams) (store.Category, error)
	DeleteCategory(ctx context.Context, ownerID, id string) error
	ListItems(ctx context.Context, arg store.ListItemsParams) ([]store.Item, error)
	CountItems(ctx context.Context, ownerID, query string) (int64, error)
	GetItem(ctx context.Context, ownerID, id string) (store.Item, error)
	GetItemByBarcode(ctx context.Context, ownerID, barcode string) (store.Item, error)
	CreateItem(ctx context.Context, arg store.ItemParams) (store.Item, error)
	UpdateItem(ctx context.Context, id string, arg store.ItemParams) (store.Item, error)
	DeleteItem(ctx context.Context, ownerID, id string) error
}

// Service owns categories and items. Every write drops the owner's cached
// category list, so the next read refetches.
type Service struct {
	queries      queryProvider
	cache        *Cache
	onChange     func(ctx context.Context, ownerID string)
	log          zerolog.Logger
	defaultLimit int
	maxLimit     int
}

// ServiceConfig groups Service dependencies. OnChange runs after every successful
// write, typically to drop derived caches such as reports.
type ServiceConfig struct {
	Queries      queryProvider
	Cache        *Cache
	OnChange     func(ctx context.Context, ownerID string)
	Logger       zerolog.Logger
	DefaultLimit int
	MaxLimit     int
}

// Category is the API shape of a category.
type Category struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Subcategory *string `json:"subcategory"`
	Brand       *string `json:"brand"`
}

// Item is the API shape of an item.
type Item struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Code        string           `json:"code"`
	Barcode     *string          `json:"barcode"`
	CategoryID  *string          `json:"categoryId"`
	Subcategory *string          `json:"subcategory"`
	Cost        decimal.Decimal  `json:"cost"`
	Price       decimal.Decimal  `json:"price"`
	MRP         *decimal.Decimal `json:"mrp"`
	Stock       int              `json:"stock"`
	ImageURL    *string          `json:"imageUrl"`
}

// CategoryInput is the create/update payload for categories.
type CategoryInput struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Subcategory *string `json:"subcategory" validate:"omitempty,max=200"`
	Brand       *string `json:"brand" validate:"omitempty,max=200"`
}

// ItemInput is the create/update payload for items.
type ItemInput struct {
	Name        string           `json:"name" validate:"required,max=200"`
	Code        string           `json:"code" validate:"required,max=100"`
	Barcode     *string          `json:"barcode" validate:"omitempty,max=100"`
	CategoryID  *string          `json:"categoryId" validate:"omitempty,uuid"`
	Subcategory *string          `json:"subcategory" validate:"omitempty,max=200"`
	Cost        *decimal.Decimal `json:"cost"`
	Price       *decimal.Decimal `json:"price" validate:"required"`
	MRP         *decimal.Decimal `json:"mrp"`
	Stock       int              `json:"stock" validate:"gte=0"`
	ImageURL    *string          `json:"imageUrl" validate:"omitempty,url"`
}

// ItemList is one page of items.
type ItemList struct {
	Items []Item
	Total int64
	Page  int
	Limit int
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Queries == nil {
		return nil, errors.New("catalog: queries provider is required")
	}
	maxLimit := cfg.MaxLimit
	if maxLimit < 1 {
		maxLimit = 100
	}
	defaultLimit := cfg.DefaultLimit
	if defaultLimit < 1 || defaultLimit > maxLimit {
		defaultLimit = min(50, maxLimit)
	}
	return &Service{
		queries:      cfg.Queries,
		cache:        cfg.Cache,
		onChange:     cfg.OnChange,
		log:          cfg.Logger,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}, nil
}

// ListCategories returns the owner's categories, served from cache when warm.
func (s *Service) ListCategories(ctx context.Context, ownerID string) ([]Category, error) {
	cached, ok, err := s.cache.Categories(ctx, ownerID)
	if err != nil {
		s.log.Warn().Err(err).Msg("category cache read failed")
	}
	if ok {
		return cached, nil
	}
	rows, err := s.queries.ListCategories(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]Category, 0, len(rows))
	for _, row := range rows {
		out = append(out, toCategory(row))
	}
	if err := s.cache.StoreCategories(ctx, ownerID, out); err != nil {
		s.log.Warn().Err(err).Msg("category cache write failed")
	}
	return out, nil
}

// GetCategory returns one category.
func (s *Service) GetCategory(ctx context.Context, ownerID, id string) (Category, error) {
	row, err := s.queries.GetCategory(ctx, ownerID, id)
	if err != nil {
		return Category{}, translate(err, "category", "")
	}
	return toCategory(row), nil
}

// CreateCategory validates and inserts a category.
func (s *Service) CreateCategory(ctx context.Context, ownerID string, in CategoryInput) (Category, error) {
	arg, err := categoryParams(ownerID, in)
	if err != nil {
		return Category{}, err
	}
	row, err := s.queries.CreateCategory(ctx, arg)
	if err != nil {
		return Category{}, translate(err, "category", "")
	}
	s.changed(ctx, ownerID)
	return toCategory(row), nil
}

// UpdateCategory replaces a category.
func (s *Service) UpdateCategory(ctx context.Context, ownerID, id string, in CategoryInput) (Category, error) {
	arg, err := categoryParams(ownerID, in)
	if err != nil {
		return Category{}, err
	}
	row, err := s.queries.UpdateCategory(ctx, id, arg)
	if err != nil {
		return Category{}, translate(err, "category", "")
	}
	s.changed(ctx, ownerID)
	return toCategory(row), nil
}

// DeleteCategory removes a category.
func (s *Service) DeleteCategory(ctx context.Context, ownerID, id string) error {
	if err := s.queries.DeleteCategory(ctx, ownerID, id); err != nil {
		return translate(err, "category", "")
	}
	s.changed(ctx, ownerID)
	return nil
}

// ListItems returns a page of items matching query.
func (s *Service) ListItems(ctx context.Context, ownerID, query string, page, limit int) (ItemList, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = s.defaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}
	total, err := s.queries.CountItems(ctx, ownerID, query)
	if err != nil {
		return ItemList{}, fmt.Errorf("count items: %w", err)
	}
	rows, err := s.queries.ListItems(ctx, store.ListItemsParams{
		OwnerID: ownerID,
		Query:   query,
		Limit:   limit,
		Offset:  common.Offset(page, limit),
	})
	if err != nil {
		return ItemList{}, fmt.Errorf("list items: %w", err)
	}
	items := make([]Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, toItem(row))
	}
	return ItemList{Items: items, Total: total, Page: page, Limit: limit}, nil
}

// GetItem returns one item.
func (s *Service) GetItem(ctx context.Context, ownerID, id string) (Item, error) {
	row, err := s.queries.GetItem(ctx, ownerID, id)
	if err != nil {
		return Item{}, translate(err, "item", "")
	}
	return toItem(row), nil
}

// ItemByBarcode looks an item up by its barcode.
func (s *Service) ItemByBarcode(ctx context.Context, ownerID, barcode string) (Item, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return Item{}, common.BadRequest("barcode", "barcode is required", nil)
	}
	row, err := s.queries.GetItemByBarcode(ctx, ownerID, barcode)
	if err != nil {
		return Item{}, translate(err, "item", "")
	}
	return toItem(row), nil
}

// CreateItem validates and inserts an item.
func (s *Service) CreateItem(ctx context.Context, ownerID string, in ItemInput) (Item, error) {
	arg, err := itemParams(ownerID, in)
	if err != nil {
		return Item{}, err
	}
	row, err := s.queries.CreateItem(ctx, arg)
	if err != nil {
		return Item{}, translate(err, "item", arg.Code)
	}
	s.changed(ctx, ownerID)
	return toItem(row), nil
}

// UpdateItem replaces an item.
func (s *Service) UpdateItem(ctx context.Context, ownerID, id string, in ItemInput) (Item, error) {
	arg, err := itemParams(ownerID, in)
	if err != nil {
		return Item{}, err
	}
	row, err := s.queries.UpdateItem(ctx, id, arg)
	if err != nil {
		return Item{}, translate(err, "item", arg.Code)
	}
	s.changed(ctx, ownerID)
	return toItem(row), nil
}

// DeleteItem removes an item.
func (s *Service) DeleteItem(ctx context.Context, ownerID, id string) error {
	if err := s.queries.DeleteItem(ctx, ownerID, id); err != nil {
		return translate(err, "item", "")
	}
	s.changed(ctx, ownerID)
	return nil
}

func (s *Service) changed(ctx context.Context, ownerID string) {
	if err := s.cache.Forget(ctx, ownerID); err != nil {
		s.log.Warn().Err(err).Str("owner_id", ownerID).Msg("category cache invalidation failed")
	}
	if s.onChange != nil {
		s.onChange(ctx, ownerID)
	}
}

func categoryParams(ownerID string, in CategoryInput) (store.CategoryParams, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := common.ValidateStruct(in); err != nil {
		return store.CategoryParams{}, err
	}
	return store.CategoryParams{
		OwnerID:     ownerID,
		Name:        in.Name,
		Subcategory: trimmed(in.Subcategory),
		Brand:       trimmed(in.Brand),
	}, nil
}

func itemParams(ownerID string, in ItemInput) (store.ItemParams, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Code = strings.TrimSpace(in.Code)
	if err := common.ValidateStruct(in); err != nil {
		return store.ItemParams{}, err
	}
	cost := decimal.Zero
	if in.Cost != nil {
		cost = *in.Cost
	}
	for field, v := range map[string]*decimal.Decimal{"cost": &cost, "price": in.Price, "mrp": in.MRP} {
		if v != nil && v.IsNegative() {
			return store.ItemParams{}, common.BadRequest(field, field+" must not be negative", nil)
		}
	}
	return store.ItemParams{
		OwnerID:     ownerID,
		Name:        in.Name,
		Code:        in.Code,
		Barcode:     trimmed(in.Barcode),
		CategoryID:  trimmed(in.CategoryID),
		Subcategory: trimmed(in.Subcategory),
		Cost:        cost,
		Price:       *in.Price,
		MRP:         in.MRP,
		Stock:       in.Stock,
		ImageURL:    trimmed(in.ImageURL),
	}, nil
}

// translate maps store sentinels onto API errors. code names the item on conflicts.
func translate(err error, what, code string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return common.NotFound(what, err)
	case errors.Is(err, store.ErrConflict):
		return common.Conflict("CONFLICT", fmt.Sprintf("%s code \"%s\" already exists", what, code), err)
	case errors.Is(err, store.ErrInvalidReference):
		return common.BadRequest("categoryId", "category not found", err)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}

func toCategory(row store.Category) Category {
	return Category{ID: row.ID, Name: row.Name, Subcategory: row.Subcategory, Brand: row.Brand}
}

func toItem(row store.Item) Item {
	return Item{
		ID:          row.ID,
		Name:        row.Name,
		Code:        row.Code,
		Barcode:     row.Barcode,
		CategoryID:  row.CategoryID,
		Subcategory: row.Subcategory,
		Cost:        row.Cost,
		Price:       row.Price,
		MRP:         row.MRP,
		Stock:       row.Stock,
		ImageURL:    row.ImageURL,
	}
}

// writeError is shared by the handlers.
func writeError(w http.ResponseWriter, err error) {
	common.WriteError(w, err)
}
