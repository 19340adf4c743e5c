package store

import "context"

const createOwner = `INSERT INTO owners (email, password_hash) VALUES ($1, $2)
RETURNING id, email, password_hash, created_at`

// CreateOwner inserts a new owner. A taken email yields ErrConflict.
func (q *Queries) CreateOwner(ctx context.Context, email, passwordHash string) (Owner, error) {
	var o Owner
	err := q.db.QueryRow(ctx, createOwner, email, passwordHash).Scan(&o.ID, &o.Email, &o.PasswordHash, &o.CreatedAt)
	return o, mapErr(err)
}

const getOwnerByEmail = `SELECT id, email, password_hash, created_at FROM owners WHERE email = $1`

// GetOwnerByEmail looks an owner up by lower-cased email.
func (q *Queries) GetOwnerByEmail(ctx context.Context, email string) (Owner, error) {
	var o Owner
	err := q.db.QueryRow(ctx, getOwnerByEmail, email).Scan(&o.ID, &o.Email, &o.PasswordHash, &o.CreatedAt)
	return o, mapErr(err)
}

const getOwnerByID = `SELECT id, email, password_hash, created_at FROM owners WHERE id = $1`

// GetOwnerByID looks an owner up by id.
func (q *Queries) GetOwnerByID(ctx context.Context, id string) (Owner, error) {
	var o Owner
	err := q.db.QueryRow(ctx, getOwnerByID, id).Scan(&o.ID, &o.Email, &o.PasswordHash, &o.CreatedAt)
	return o, mapErr(err)
}
