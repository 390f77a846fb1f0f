package customers

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/ledger"
	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/platform/httpx"
)

// RepositoryPort defines data access methods for customers.
type RepositoryPort interface {
	ListCustomers(ctx context.Context, search string, limit, offset int) ([]Customer, int, error)
	GetCustomer(ctx context.Context, id int64) (Customer, error)
	CreateCustomer(ctx context.Context, input CustomerInput) (Customer, error)
	UpdateCustomer(ctx context.Context, id int64, input CustomerInput) (Customer, error)
	DeleteCustomer(ctx context.Context, id int64) error
	CountAttachments(ctx context.Context, id int64) (devices int, transactions int, err error)
}

// Repository provides PostgreSQL backed persistence for customers.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const customerColumns = `id, name, phone, address, notes, COALESCE(credit_limit, 0), created_at, updated_at`

// ListCustomers returns a page of customers with an optional name/phone search.
func (r *Repository) ListCustomers(ctx context.Context, search string, limit, offset int) ([]Customer, int, error) {
	if limit <= 0 {
		limit = 50
	}
	pattern := "%" + search + "%"

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM customers WHERE ($1 = '%%' OR name ILIKE $1 OR phone ILIKE $1)`,
		pattern).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+customerColumns+` FROM customers
		 WHERE ($1 = '%%' OR name ILIKE $1 OR phone ILIKE $1)
		 ORDER BY name LIMIT $2 OFFSET $3`,
		pattern, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.Address, &c.Notes, &c.CreditLimit, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, err
		}
		customers = append(customers, c)
	}
	return customers, total, rows.Err()
}

// GetCustomer fetches one customer by ID.
func (r *Repository) GetCustomer(ctx context.Context, id int64) (Customer, error) {
	var c Customer
	err := r.pool.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Phone, &c.Address, &c.Notes, &c.CreditLimit, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, httpx.ErrNotFound
		}
		return Customer{}, err
	}
	return c, nil
}

// CreateCustomer inserts a new customer.
func (r *Repository) CreateCustomer(ctx context.Context, input CustomerInput) (Customer, error) {
	var c Customer
	err := r.pool.QueryRow(ctx,
		`INSERT INTO customers (name, phone, address, notes, credit_limit, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		 RETURNING `+customerColumns,
		input.Name, input.Phone, input.Address, input.Notes, input.CreditLimit).
		Scan(&c.ID, &c.Name, &c.Phone, &c.Address, &c.Notes, &c.CreditLimit, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return Customer{}, err
	}
	return c, nil
}

// UpdateCustomer updates an existing customer.
func (r *Repository) UpdateCustomer(ctx context.Context, id int64, input CustomerInput) (Customer, error) {
	var c Customer
	err := r.pool.QueryRow(ctx,
		`UPDATE customers SET name = $2, phone = $3, address = $4, notes = $5, credit_limit = $6, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+customerColumns,
		id, input.Name, input.Phone, input.Address, input.Notes, input.CreditLimit).
		Scan(&c.ID, &c.Name, &c.Phone, &c.Address, &c.Notes, &c.CreditLimit, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, httpx.ErrNotFound
		}
		return Customer{}, err
	}
	return c, nil
}

// DeleteCustomer removes a customer by ID.
func (r *Repository) DeleteCustomer(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// CountAttachments reports how many devices and transactions reference
// the customer. Used to guard deletion.
func (r *Repository) CountAttachments(ctx context.Context, id int64) (int, int, error) {
	var devices, transactions int
	err := r.pool.QueryRow(ctx,
		`SELECT
			(SELECT COUNT(*) FROM devices WHERE customer_id = $1),
			(SELECT COUNT(*) FROM customer_transactions WHERE customer_id = $1)`,
		id).Scan(&devices, &transactions)
	if err != nil {
		return 0, 0, err
	}
	return devices, transactions, nil
}

// LedgerCustomers returns minimal customer rows for shop-wide report
// aggregation.
func (r *Repository) LedgerCustomers(ctx context.Context) ([]ledger.Customer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, phone, COALESCE(credit_limit, 0) FROM customers ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []ledger.Customer
	for rows.Next() {
		var c ledger.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.CreditLimit); err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

var _ RepositoryPort = (*Repository)(nil)
