package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const transactionColumns = `id, owner_id, customer_id, subtotal, tax_amount, discount_amount, total_amount,
    payment_method, received_amount, change_amount, items, created_at`

func scanTransaction(row pgx.Row) (Transaction, error) {
	var (
		t        Transaction
		received decimal.NullDecimal
		change   decimal.NullDecimal
		items    []byte
	)
	err := row.Scan(&t.ID, &t.OwnerID, &t.CustomerID, &t.Subtotal, &t.TaxAmount, &t.DiscountAmount, &t.TotalAmount,
		&t.PaymentMethod, &received, &change, &items, &t.CreatedAt)
	if err != nil {
		return t, err
	}
	t.ReceivedAmount = fromNullDecimal(received)
	t.ChangeAmount = fromNullDecimal(change)
	t.Items = []SoldLine{}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &t.Items); err != nil {
			return t, fmt.Errorf("decode transaction items: %w", err)
		}
	}
	return t, nil
}

// TransactionParams carries a sale to record.
type TransactionParams struct {
	OwnerID        string
	CustomerID     *string
	Subtotal       decimal.Decimal
	TaxAmount      decimal.Decimal
	DiscountAmount decimal.Decimal
	TotalAmount    decimal.Decimal
	PaymentMethod  string
	ReceivedAmount *decimal.Decimal
	ChangeAmount   *decimal.Decimal
	Items          []SoldLine
}

const createTransaction = `INSERT INTO transactions (owner_id, customer_id, subtotal, tax_amount, discount_amount,
    total_amount, payment_method, received_amount, change_amount, items)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING ` + transactionColumns

// CreateTransaction records a sale.
func (q *Queries) CreateTransaction(ctx context.Context, arg TransactionParams) (Transaction, error) {
	lines := arg.Items
	if lines == nil {
		lines = []SoldLine{}
	}
	items, err := json.Marshal(lines)
	if err != nil {
		return Transaction{}, fmt.Errorf("encode transaction items: %w", err)
	}
	t, err := scanTransaction(q.db.QueryRow(ctx, createTransaction, arg.OwnerID, arg.CustomerID, arg.Subtotal,
		arg.TaxAmount, arg.DiscountAmount, arg.TotalAmount, arg.PaymentMethod, nullDecimal(arg.ReceivedAmount),
		nullDecimal(arg.ChangeAmount), items))
	return t, mapErr(err)
}

const getTransaction = `SELECT ` + transactionColumns + ` FROM transactions WHERE owner_id = $1 AND id = $2`

// GetTransaction returns one sale.
func (q *Queries) GetTransaction(ctx context.Context, ownerID, id string) (Transaction, error) {
	t, err := scanTransaction(q.db.QueryRow(ctx, getTransaction, ownerID, id))
	return t, mapErr(err)
}

func collectTransactions(rows pgx.Rows, err error) ([]Transaction, error) {
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	out := []Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, mapErr(rows.Err())
}

// A nil since means no lower bound.
const sinceFilter = `owner_id = $1 AND ($2::timestamptz IS NULL OR created_at >= $2)`

const listTransactionsSince = `SELECT ` + transactionColumns + ` FROM transactions WHERE ` + sinceFilter + `
ORDER BY created_at DESC`

// ListTransactionsSince returns every sale at or after since, newest first.
func (q *Queries) ListTransactionsSince(ctx context.Context, ownerID string, since *time.Time) ([]Transaction, error) {
	return collectTransactions(q.db.Query(ctx, listTransactionsSince, ownerID, since))
}

const listTransactionsPage = `SELECT ` + transactionColumns + ` FROM transactions WHERE ` + sinceFilter + `
ORDER BY created_at DESC
LIMIT $3 OFFSET $4`

// ListTransactionsPage returns a page of sales at or after since, newest first.
func (q *Queries) ListTransactionsPage(ctx context.Context, ownerID string, since *time.Time, limit, offset int) ([]Transaction, error) {
	return collectTransactions(q.db.Query(ctx, listTransactionsPage, ownerID, since, limit, offset))
}

const countTransactionsSince = `SELECT count(*) FROM transactions WHERE ` + sinceFilter

// CountTransactionsSince counts sales at or after since.
func (q *Queries) CountTransactionsSince(ctx context.Context, ownerID string, since *time.Time) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, countTransactionsSince, ownerID, since).Scan(&n)
	return n, mapErr(err)
}
