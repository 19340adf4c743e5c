package store

import (
	"context"

	"github.com/jackc/pgx/v5"
)

const customerColumns = `id, owner_id, name, email, phone, address, city, state, pincode, created_at, updated_at`

func scanCustomer(row pgx.Row) (Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.City, &c.State, &c.Pincode,
		&c.CreatedAt, &c.UpdatedAt)
	return c, err
}

const listCustomers = `SELECT ` + customerColumns + ` FROM customers WHERE owner_id = $1
ORDER BY name, created_at
LIMIT $2 OFFSET $3`

// ListCustomers returns a page of customers ordered by name.
func (q *Queries) ListCustomers(ctx context.Context, ownerID string, limit, offset int) ([]Customer, error) {
	rows, err := q.db.Query(ctx, listCustomers, ownerID, limit, offset)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	out := []Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, mapErr(rows.Err())
}

const countCustomers = `SELECT count(*) FROM customers WHERE owner_id = $1`

// CountCustomers counts the owner's customers.
func (q *Queries) CountCustomers(ctx context.Context, ownerID string) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, countCustomers, ownerID).Scan(&n)
	return n, mapErr(err)
}

const getCustomer = `SELECT ` + customerColumns + ` FROM customers WHERE owner_id = $1 AND id = $2`

// GetCustomer returns one customer.
func (q *Queries) GetCustomer(ctx context.Context, ownerID, id string) (Customer, error) {
	c, err := scanCustomer(q.db.QueryRow(ctx, getCustomer, ownerID, id))
	return c, mapErr(err)
}

// CustomerParams carries the writable customer columns.
type CustomerParams struct {
	OwnerID string
	Name    string
	Email   *string
	Phone   *string
	Address *string
	City    *string
	State   *string
	Pincode *string
}

const createCustomer = `INSERT INTO customers (owner_id, name, email, phone, address, city, state, pincode)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + customerColumns

// CreateCustomer inserts a customer.
func (q *Queries) CreateCustomer(ctx context.Context, arg CustomerParams) (Customer, error) {
	c, err := scanCustomer(q.db.QueryRow(ctx, createCustomer, arg.OwnerID, arg.Name, arg.Email, arg.Phone,
		arg.Address, arg.City, arg.State, arg.Pincode))
	return c, mapErr(err)
}

const updateCustomer = `UPDATE customers SET name = $3, email = $4, phone = $5, address = $6, city = $7,
    state = $8, pincode = $9, updated_at = now()
WHERE owner_id = $1 AND id = $2
RETURNING ` + customerColumns

// UpdateCustomer replaces the writable columns of a customer.
func (q *Queries) UpdateCustomer(ctx context.Context, id string, arg CustomerParams) (Customer, error) {
	c, err := scanCustomer(q.db.QueryRow(ctx, updateCustomer, arg.OwnerID, id, arg.Name, arg.Email, arg.Phone,
		arg.Address, arg.City, arg.State, arg.Pincode))
	return c, mapErr(err)
}

const deleteCustomer = `DELETE FROM customers WHERE owner_id = $1 AND id = $2`

// DeleteCustomer removes a customer; their transactions keep a null customer.
func (q *Queries) DeleteCustomer(ctx context.Context, ownerID, id string) error {
	tag, err := q.db.Exec(ctx, deleteCustomer, ownerID, id)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
