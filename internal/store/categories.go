package store

import (
	"context"

	"github.com/jackc/pgx/v5"
)

const categoryColumns = `id, owner_id, name, subcategory, brand, created_at`

func scanCategory(row pgx.Row) (Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Subcategory, &c.Brand, &c.CreatedAt)
	return c, err
}

const listCategories = `SELECT ` + categoryColumns + ` FROM categories
WHERE owner_id = $1
ORDER BY name, subcategory NULLS FIRST, created_at`

// ListCategories returns every category of the owner ordered by name and subcategory.
func (q *Queries) ListCategories(ctx context.Context, ownerID string) ([]Category, error) {
	rows, err := q.db.Query(ctx, listCategories, ownerID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	out := []Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, mapErr(rows.Err())
}

const getCategory = `SELECT ` + categoryColumns + ` FROM categories WHERE owner_id = $1 AND id = $2`

// GetCategory returns one category.
func (q *Queries) GetCategory(ctx context.Context, ownerID, id string) (Category, error) {
	c, err := scanCategory(q.db.QueryRow(ctx, getCategory, ownerID, id))
	return c, mapErr(err)
}

// CategoryParams carries the writable category columns.
type CategoryParams struct {
	OwnerID     string
	Name        string
	Subcategory *string
	Brand       *string
}

const createCategory = `INSERT INTO categories (owner_id, name, subcategory, brand)
VALUES ($1, $2, $3, $4)
RETURNING ` + categoryColumns

// CreateCategory inserts a category.
func (q *Queries) CreateCategory(ctx context.Context, arg CategoryParams) (Category, error) {
	c, err := scanCategory(q.db.QueryRow(ctx, createCategory, arg.OwnerID, arg.Name, arg.Subcategory, arg.Brand))
	return c, mapErr(err)
}

const updateCategory = `UPDATE categories SET name = $3, subcategory = $4, brand = $5
WHERE owner_id = $1 AND id = $2
RETURNING ` + categoryColumns

// UpdateCategory replaces the writable columns of a category.
func (q *Queries) UpdateCategory(ctx context.Context, id string, arg CategoryParams) (Category, error) {
	c, err := scanCategory(q.db.QueryRow(ctx, updateCategory, arg.OwnerID, id, arg.Name, arg.Subcategory, arg.Brand))
	return c, mapErr(err)
}

const deleteCategory = `DELETE FROM categories WHERE owner_id = $1 AND id = $2`

// DeleteCategory removes a category. Items keep existing with a null category.
func (q *Queries) DeleteCategory(ctx context.Context, ownerID, id string) error {
	tag, err := q.db.Exec(ctx, deleteCategory, ownerID, id)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
