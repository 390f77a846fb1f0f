package transactions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/ledger"
	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/platform/httpx"
)

const uniqueViolation = "23505"

// RepositoryPort defines data access methods for customer transactions.
type RepositoryPort interface {
	ListTransactions(ctx context.Context, filter ListFilter, limit, offset int) ([]Transaction, int, error)
	GetTransaction(ctx context.Context, id int64) (Transaction, error)
	CreateTransaction(ctx context.Context, input TransactionInput) (Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) error
}

// Repository provides PostgreSQL backed persistence for transactions.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const transactionColumns = `t.id, t.customer_id, c.name, t.type, COALESCE(t.amount, 0), t.date,
	COALESCE(t.reference, ''), COALESCE(t.description, ''), COALESCE(t.created_by, 0), t.created_at`

func scanTransaction(row pgx.Row) (Transaction, error) {
	var t Transaction
	err := row.Scan(&t.ID, &t.CustomerID, &t.CustomerName, &t.Type, &t.Amount, &t.Date,
		&t.Reference, &t.Description, &t.CreatedBy, &t.CreatedAt)
	return t, err
}

// ListTransactions returns a page of transactions matching the filter,
// newest first.
func (r *Repository) ListTransactions(ctx context.Context, filter ListFilter, limit, offset int) ([]Transaction, int, error) {
	if limit <= 0 {
		limit = 50
	}
	where := `WHERE ($1 = 0 OR t.customer_id = $1)
	  AND ($2 = '' OR t.type = $2)
	  AND ($3::timestamptz IS NULL OR t.date >= $3)
	  AND ($4::timestamptz IS NULL OR t.date < $4)`
	from := nullableTime(filter.From)
	to := nullableTime(filter.To)

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM customer_transactions t `+where,
		filter.CustomerID, string(filter.Type), from, to).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+transactionColumns+`
		 FROM customer_transactions t JOIN customers c ON c.id = t.customer_id `+where+`
		 ORDER BY t.date DESC, t.id DESC LIMIT $5 OFFSET $6`,
		filter.CustomerID, string(filter.Type), from, to, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var transactions []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		transactions = append(transactions, t)
	}
	return transactions, total, rows.Err()
}

// GetTransaction fetches one transaction by ID.
func (r *Repository) GetTransaction(ctx context.Context, id int64) (Transaction, error) {
	t, err := scanTransaction(r.pool.QueryRow(ctx,
		`SELECT `+transactionColumns+`
		 FROM customer_transactions t JOIN customers c ON c.id = t.customer_id WHERE t.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, httpx.ErrNotFound
		}
		return Transaction{}, err
	}
	return t, nil
}

// CreateTransaction inserts a transaction. A reference that already
// exists trips the unique index and surfaces as a duplicate.
func (r *Repository) CreateTransaction(ctx context.Context, input TransactionInput) (Transaction, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO customer_transactions (customer_id, type, amount, date, reference, description, created_by, created_at)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, NULLIF($7, 0), NOW())
		 RETURNING id`,
		input.CustomerID, string(input.Type), input.Amount, input.Date,
		input.Reference, input.Description, input.CreatedBy).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Transaction{}, fmt.Errorf("%w: reference %q already recorded", httpx.ErrDuplicate, input.Reference)
		}
		return Transaction{}, err
	}
	return r.GetTransaction(ctx, id)
}

// DeleteTransaction removes a transaction by ID.
func (r *Repository) DeleteTransaction(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM customer_transactions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

const ledgerTransactionColumns = `id, customer_id, type, COALESCE(amount, 0), date,
	COALESCE(reference, ''), COALESCE(description, '')`

// LedgerTransactions returns normalized transaction rows for one
// customer. NULL amounts are coerced to zero at the scan.
func (r *Repository) LedgerTransactions(ctx context.Context, customerID int64) ([]ledger.Transaction, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+ledgerTransactionColumns+` FROM customer_transactions WHERE customer_id = $1 ORDER BY id`,
		customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLedgerTransactions(rows)
}

// AllLedgerTransactions returns normalized rows for every customer,
// used by shop-wide report aggregation.
func (r *Repository) AllLedgerTransactions(ctx context.Context) ([]ledger.Transaction, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+ledgerTransactionColumns+` FROM customer_transactions ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLedgerTransactions(rows)
}

func collectLedgerTransactions(rows pgx.Rows) ([]ledger.Transaction, error) {
	var transactions []ledger.Transaction
	for rows.Next() {
		var t ledger.Transaction
		if err := rows.Scan(&t.ID, &t.CustomerID, &t.Type, &t.Amount, &t.Date, &t.Reference, &t.Description); err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

var _ RepositoryPort = (*Repository)(nil)
