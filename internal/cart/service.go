package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-pos/internal/catalog"
	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/obs"
	"github.com/noah-isme/backend-pos/internal/pricing"
)

// ErrNotFound indicates the requested cart could not be located for the owner.
var ErrNotFound = errors.New("cart not found")

const maxMutateAttempts = 5

// ProductLookup resolves catalog items for the owner. *catalog.Service satisfies it.
type ProductLookup interface {
	GetItem(ctx context.Context, ownerID, id string) (catalog.Item, error)
	ItemByBarcode(ctx context.Context, ownerID, barcode string) (catalog.Item, error)
}

// Service keeps session carts in Redis as JSON snapshots of pricing.Cart.
type Service struct {
	R              *redis.Client
	Products       ProductLookup
	TTL            time.Duration
	DefaultTaxRate decimal.Decimal
	Now            func() time.Time
}

// Snapshot is the stored form of a cart.
type Snapshot struct {
	ID        string       `json:"id"`
	OwnerID   string       `json:"ownerId"`
	Cart      pricing.Cart `json:"cart"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// View is the API shape of a cart with its computed amounts.
type View struct {
	ID             string             `json:"id"`
	Lines          []pricing.LineItem `json:"lines"`
	TaxRatePercent decimal.Decimal    `json:"taxRatePercent"`
	Summary        pricing.Summary    `json:"summary"`
	UpdatedAt      time.Time          `json:"updatedAt"`
}

// ViewOf renders a snapshot.
func ViewOf(s Snapshot) View {
	return View{
		ID:             s.ID,
		Lines:          s.Cart.Lines,
		TaxRatePercent: s.Cart.TaxRatePercent,
		Summary:        s.Cart.Summarize(),
		UpdatedAt:      s.UpdatedAt,
	}
}

func key(id string) string {
	return "cart:" + id
}

func (s *Service) ttl() time.Duration {
	if s == nil || s.TTL <= 0 {
		return 12 * time.Hour
	}
	return s.TTL
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Create starts an empty cart at the default tax rate.
func (s *Service) Create(ctx context.Context, ownerID string) (Snapshot, error) {
	now := s.now().UTC()
	snap := Snapshot{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Cart:      *pricing.NewCart(s.DefaultTaxRate),
		CreatedAt: now,
		UpdatedAt: now,
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return Snapshot{}, err
	}
	if err := s.R.Set(ctx, key(snap.ID), data, s.ttl()).Err(); err != nil {
		return Snapshot{}, fmt.Errorf("save cart: %w", err)
	}
	obs.CartOperationsTotal.WithLabelValues("create").Inc()
	return snap, nil
}

// Get loads a cart and refreshes its TTL.
func (s *Service) Get(ctx context.Context, ownerID, id string) (Snapshot, error) {
	snap, err := s.load(ctx, s.R, ownerID, id)
	if err != nil {
		return Snapshot{}, err
	}
	_ = s.R.Expire(ctx, key(id), s.ttl()).Err()
	return snap, nil
}

// AddItem resolves the product by id or barcode and adds quantity of it.
func (s *Service) AddItem(ctx context.Context, ownerID, id, itemID, barcode string, quantity int) (Snapshot, error) {
	if quantity <= 0 {
		return Snapshot{}, common.BadRequest("quantity", "quantity must be positive", nil)
	}
	var (
		item catalog.Item
		err  error
	)
	switch {
	case itemID != "":
		item, err = s.Products.GetItem(ctx, ownerID, itemID)
	case barcode != "":
		item, err = s.Products.ItemByBarcode(ctx, ownerID, barcode)
	default:
		return Snapshot{}, common.BadRequest("itemId", "itemId or barcode is required", nil)
	}
	if err != nil {
		return Snapshot{}, err
	}
	product := ProductOf(item)
	return s.mutate(ctx, ownerID, id, "add_item", func(c *pricing.Cart) error {
		c.AddLine(product, quantity)
		return nil
	})
}

// SetQuantity replaces a line's quantity; zero or less removes the line.
func (s *Service) SetQuantity(ctx context.Context, ownerID, id, itemID string, quantity int) (Snapshot, error) {
	return s.mutate(ctx, ownerID, id, "set_quantity", func(c *pricing.Cart) error {
		c.SetQuantity(itemID, quantity)
		return nil
	})
}

// RemoveItem drops a line.
func (s *Service) RemoveItem(ctx context.Context, ownerID, id, itemID string) (Snapshot, error) {
	return s.mutate(ctx, ownerID, id, "remove_item", func(c *pricing.Cart) error {
		c.RemoveLine(itemID)
		return nil
	})
}

// SetTaxRate changes the cart's tax percentage.
func (s *Service) SetTaxRate(ctx context.Context, ownerID, id string, rate decimal.Decimal) (Snapshot, error) {
	return s.mutate(ctx, ownerID, id, "set_tax", func(c *pricing.Cart) error {
		if err := c.SetTaxRate(rate); err != nil {
			return common.BadRequest("ratePercent", "tax rate must be between 0 and 100", err)
		}
		return nil
	})
}

// SetDiscount changes the cart's flat discount.
func (s *Service) SetDiscount(ctx context.Context, ownerID, id string, amount decimal.Decimal) (Snapshot, error) {
	return s.mutate(ctx, ownerID, id, "set_discount", func(c *pricing.Cart) error {
		if err := c.SetDiscount(amount); err != nil {
			return common.BadRequest("amount", "discount must not be negative", err)
		}
		return nil
	})
}

// Clear empties the cart, keeping its tax rate.
func (s *Service) Clear(ctx context.Context, ownerID, id string) (Snapshot, error) {
	return s.mutate(ctx, ownerID, id, "clear", func(c *pricing.Cart) error {
		c.Clear()
		return nil
	})
}

// mutate applies fn under WATCH so concurrent edits to one cart never lose writes.
func (s *Service) mutate(ctx context.Context, ownerID, id, op string, fn func(*pricing.Cart) error) (Snapshot, error) {
	var out Snapshot
	txf := func(tx *redis.Tx) error {
		snap, err := s.load(ctx, tx, ownerID, id)
		if err != nil {
			return err
		}
		if err := fn(&snap.Cart); err != nil {
			return err
		}
		snap.UpdatedAt = s.now().UTC()
		data, err := json.Marshal(snap)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key(id), data, s.ttl())
			return nil
		})
		if err != nil {
			return err
		}
		out = snap
		return nil
	}
	for attempt := 0; attempt < maxMutateAttempts; attempt++ {
		err := s.R.Watch(ctx, txf, key(id))
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return Snapshot{}, err
		}
		obs.CartOperationsTotal.WithLabelValues(op).Inc()
		return out, nil
	}
	return Snapshot{}, common.Conflict("CART_BUSY", "cart is being modified, retry", redis.TxFailedErr)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *Service) load(ctx context.Context, c getter, ownerID, id string) (Snapshot, error) {
	data, err := c.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Snapshot{}, common.NotFound("cart", ErrNotFound)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("load cart: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode cart: %w", err)
	}
	if snap.OwnerID != ownerID {
		return Snapshot{}, common.NotFound("cart", ErrNotFound)
	}
	if snap.Cart.Lines == nil {
		snap.Cart.Lines = []pricing.LineItem{}
	}
	return snap, nil
}

// ProductOf converts a catalog item into the pricing snapshot carried by a line.
func ProductOf(item catalog.Item) pricing.Product {
	p := pricing.Product{
		ID:    item.ID,
		Name:  item.Name,
		Code:  item.Code,
		Price: item.Price,
		Cost:  item.Cost,
		Stock: item.Stock,
	}
	if item.Barcode != nil {
		p.Barcode = *item.Barcode
	}
	if item.CategoryID != nil {
		p.CategoryID = *item.CategoryID
	}
	return p
}
