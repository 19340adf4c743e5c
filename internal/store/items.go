package store

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const itemColumns = `id, owner_id, name, code, barcode, category_id, subcategory, cost, price, mrp, stock, image_url, created_at, updated_at`

func scanItem(row pgx.Row) (Item, error) {
	var (
		it  Item
		mrp decimal.NullDecimal
	)
	err := row.Scan(&it.ID, &it.OwnerID, &it.Name, &it.Code, &it.Barcode, &it.CategoryID, &it.Subcategory,
		&it.Cost, &it.Price, &mrp, &it.Stock, &it.ImageURL, &it.CreatedAt, &it.UpdatedAt)
	it.MRP = fromNullDecimal(mrp)
	return it, err
}

func collectItems(rows pgx.Rows, err error) ([]Item, error) {
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	out := []Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, mapErr(rows.Err())
}

// ListItemsParams filters an owner's items. An empty Query matches everything.
type ListItemsParams struct {
	OwnerID string
	Query   string
	Limit   int
	Offset  int
}

func likePattern(q string) string {
	q = strings.TrimSpace(q)
	if q == "" {
		return ""
	}
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(q) + "%"
}

const itemSearch = `owner_id = $1 AND ($2 = '' OR name ILIKE $2 OR code ILIKE $2 OR barcode ILIKE $2)`

const listItems = `SELECT ` + itemColumns + ` FROM items WHERE ` + itemSearch + `
ORDER BY name, code
LIMIT $3 OFFSET $4`

// ListItems returns a page of items matching the search.
func (q *Queries) ListItems(ctx context.Context, arg ListItemsParams) ([]Item, error) {
	return collectItems(q.db.Query(ctx, listItems, arg.OwnerID, likePattern(arg.Query), arg.Limit, arg.Offset))
}

const countItems = `SELECT count(*) FROM items WHERE ` + itemSearch

// CountItems counts items matching the search.
func (q *Queries) CountItems(ctx context.Context, ownerID, query string) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, countItems, ownerID, likePattern(query)).Scan(&n)
	return n, mapErr(err)
}

const listAllItems = `SELECT ` + itemColumns + ` FROM items WHERE owner_id = $1 ORDER BY name`

// ListAllItems returns every item of the owner.
func (q *Queries) ListAllItems(ctx context.Context, ownerID string) ([]Item, error) {
	return collectItems(q.db.Query(ctx, listAllItems, ownerID))
}

const getItem = `SELECT ` + itemColumns + ` FROM items WHERE owner_id = $1 AND id = $2`

// GetItem returns one item.
func (q *Queries) GetItem(ctx context.Context, ownerID, id string) (Item, error) {
	it, err := scanItem(q.db.QueryRow(ctx, getItem, ownerID, id))
	return it, mapErr(err)
}

const getItemByBarcode = `SELECT ` + itemColumns + ` FROM items WHERE owner_id = $1 AND barcode = $2
ORDER BY created_at LIMIT 1`

// GetItemByBarcode returns the oldest item carrying barcode.
func (q *Queries) GetItemByBarcode(ctx context.Context, ownerID, barcode string) (Item, error) {
	it, err := scanItem(q.db.QueryRow(ctx, getItemByBarcode, ownerID, barcode))
	return it, mapErr(err)
}

// ItemParams carries the writable item columns.
type ItemParams struct {
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
}

const createItem = `INSERT INTO items (owner_id, name, code, barcode, category_id, subcategory, cost, price, mrp, stock, image_url)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING ` + itemColumns

// CreateItem inserts an item. A duplicate code for the owner yields ErrConflict.
func (q *Queries) CreateItem(ctx context.Context, arg ItemParams) (Item, error) {
	it, err := scanItem(q.db.QueryRow(ctx, createItem, arg.OwnerID, arg.Name, arg.Code, arg.Barcode, arg.CategoryID,
		arg.Subcategory, arg.Cost, arg.Price, nullDecimal(arg.MRP), arg.Stock, arg.ImageURL))
	return it, mapErr(err)
}

const updateItem = `UPDATE items SET name = $3, code = $4, barcode = $5, category_id = $6, subcategory = $7,
    cost = $8, price = $9, mrp = $10, stock = $11, image_url = $12, updated_at = now()
WHERE owner_id = $1 AND id = $2
RETURNING ` + itemColumns

// UpdateItem replaces the writable columns of an item.
func (q *Queries) UpdateItem(ctx context.Context, id string, arg ItemParams) (Item, error) {
	it, err := scanItem(q.db.QueryRow(ctx, updateItem, arg.OwnerID, id, arg.Name, arg.Code, arg.Barcode, arg.CategoryID,
		arg.Subcategory, arg.Cost, arg.Price, nullDecimal(arg.MRP), arg.Stock, arg.ImageURL))
	return it, mapErr(err)
}

const deleteItem = `DELETE FROM items WHERE owner_id = $1 AND id = $2`

// DeleteItem removes an item.
func (q *Queries) DeleteItem(ctx context.Context, ownerID, id string) error {
	tag, err := q.db.Exec(ctx, deleteItem, ownerID, id)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const decrementStock = `UPDATE items SET stock = stock - $3, updated_at = now()
WHERE owner_id = $1 AND id = $2 AND stock >= $3`

// DecrementStock lowers stock by qty only when enough is on hand. It reports
// whether the row changed.
func (q *Queries) DecrementStock(ctx context.Context, ownerID, id string, qty int) (bool, error) {
	tag, err := q.db.Exec(ctx, decrementStock, ownerID, id, qty)
	if err != nil {
		return false, mapErr(err)
	}
	return tag.RowsAffected() == 1, nil
}
