package customer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/store"
)

type queryProvider interface {
	ListCustomers(ctx context.Context, ownerID string, limit, offset int) ([]store.Customer, error)
	CountCustomers(ctx context.Context, ownerID string) (int64, error)
	GetCustomer(ctx context.Context, ownerID, id string) (store.Customer, error)
	CreateCustomer(ctx context.Context, arg store.CustomerParams) (store.Customer, error)
	UpdateCustomer(ctx context.Context, id string, arg store.CustomerParams) (store.Customer, error)
	DeleteCustomer(ctx context.Context, ownerID, id string) error
}

// Customer is the API shape of a customer.
type Customer struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
	City    *string `json:"city"`
	State   *string `json:"state"`
	Pincode *string `json:"pincode"`
}

// Input is the create payload.
type Input struct {
	Name    string  `json:"name" validate:"required,max=200"`
	Email   *string `json:"email" validate:"omitempty,email"`
	Phone   *string `json:"phone" validate:"omitempty,max=32"`
	Address *string `json:"address" validate:"omitempty,max=500"`
	City    *string `json:"city" validate:"omitempty,max=100"`
	State   *string `json:"state" validate:"omitempty,max=100"`
	Pincode *string `json:"pincode" validate:"omitempty,max=16"`
}

// Patch carries the fields to change; absent fields keep their value and an
// empty string clears an optional field.
type Patch struct {
	Name    *string `json:"name" validate:"omitempty,max=200"`
	Email   *string `json:"email" validate:"omitempty"`
	Phone   *string `json:"phone" validate:"omitempty,max=32"`
	Address *string `json:"address" validate:"omitempty,max=500"`
	City    *string `json:"city" validate:"omitempty,max=100"`
	State   *string `json:"state" validate:"omitempty,max=100"`
	Pincode *string `json:"pincode" validate:"omitempty,max=16"`
}

// Service manages customers.
type Service struct {
	Q queryProvider
}

// List returns a page of customers and the total count.
func (s Service) List(ctx context.Context, ownerID string, page, perPage int) ([]Customer, int64, error) {
	total, err := s.Q.CountCustomers(ctx, ownerID)
	if err != nil {
		return nil, 0, fmt.Errorf("count customers: %w", err)
	}
	rows, err := s.Q.ListCustomers(ctx, ownerID, perPage, common.Offset(page, perPage))
	if err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}
	out := make([]Customer, 0, len(rows))
	for _, row := range rows {
		out = append(out, toCustomer(row))
	}
	return out, total, nil
}

// Get returns one customer.
func (s Service) Get(ctx context.Context, ownerID, id string) (Customer, error) {
	row, err := s.Q.GetCustomer(ctx, ownerID, id)
	if err != nil {
		return Customer{}, translate(err)
	}
	return toCustomer(row), nil
}

// Create validates and inserts a customer.
func (s Service) Create(ctx context.Context, ownerID string, in Input) (Customer, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := common.ValidateStruct(in); err != nil {
		return Customer{}, err
	}
	row, err := s.Q.CreateCustomer(ctx, store.CustomerParams{
		OwnerID: ownerID,
		Name:    in.Name,
		Email:   clean(in.Email),
		Phone:   clean(in.Phone),
		Address: clean(in.Address),
		City:    clean(in.City),
		State:   clean(in.State),
		Pincode: clean(in.Pincode),
	})
	if err != nil {
		return Customer{}, translate(err)
	}
	return toCustomer(row), nil
}

// Update applies p to an existing customer.
func (s Service) Update(ctx context.Context, ownerID, id string, p Patch) (Customer, error) {
	current, err := s.Q.GetCustomer(ctx, ownerID, id)
	if err != nil {
		return Customer{}, translate(err)
	}
	next := Input{
		Name:    current.Name,
		Email:   current.Email,
		Phone:   current.Phone,
		Address: current.Address,
		City:    current.City,
		State:   current.State,
		Pincode: current.Pincode,
	}
	if p.Name != nil {
		next.Name = strings.TrimSpace(*p.Name)
	}
	apply(&next.Email, p.Email)
	apply(&next.Phone, p.Phone)
	apply(&next.Address, p.Address)
	apply(&next.City, p.City)
	apply(&next.State, p.State)
	apply(&next.Pincode, p.Pincode)
	if err := common.ValidateStruct(next); err != nil {
		return Customer{}, err
	}
	row, err := s.Q.UpdateCustomer(ctx, id, store.CustomerParams{
		OwnerID: ownerID,
		Name:    next.Name,
		Email:   next.Email,
		Phone:   next.Phone,
		Address: next.Address,
		City:    next.City,
		State:   next.State,
		Pincode: next.Pincode,
	})
	if err != nil {
		return Customer{}, translate(err)
	}
	return toCustomer(row), nil
}

// Delete removes a customer.
func (s Service) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.Q.DeleteCustomer(ctx, ownerID, id); err != nil {
		return translate(err)
	}
	return nil
}

func apply(dst **string, v *string) {
	if v != nil {
		*dst = clean(v)
	}
}

func clean(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}

func translate(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return common.NotFound("customer", err)
	}
	return fmt.Errorf("customer: %w", err)
}

func toCustomer(row store.Customer) Customer {
	return Customer{
		ID:      row.ID,
		Name:    row.Name,
		Email:   row.Email,
		Phone:   row.Phone,
		Address: row.Address,
		City:    row.City,
		State:   row.State,
		Pincode: row.Pincode,
	}
}
