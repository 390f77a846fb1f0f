package transactions

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/ledger"
	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/platform/httpx"
)

type memoryTransactionRepo struct {
	transactions map[int64]Transaction
	references   map[string]bool
	nextID       int64
}

func newMemoryTransactionRepo() *memoryTransactionRepo {
	return &memoryTransactionRepo{
		transactions: make(map[int64]Transaction),
		references:   make(map[string]bool),
	}
}

func (r *memoryTransactionRepo) ListTransactions(ctx context.Context, filter ListFilter, limit, offset int) ([]Transaction, int, error) {
	var out []Transaction
	for _, t := range r.transactions {
		out = append(out, t)
	}
	return out, len(out), nil
}

func (r *memoryTransactionRepo) GetTransaction(ctx context.Context, id int64) (Transaction, error) {
	t, ok := r.transactions[id]
	if !ok {
		return Transaction{}, httpx.ErrNotFound
	}
	return t, nil
}

func (r *memoryTransactionRepo) CreateTransaction(ctx context.Context, input TransactionInput) (Transaction, error) {
	if input.Reference != "" && r.references[input.Reference] {
		return Transaction{}, fmt.Errorf("%w: reference %q already recorded", httpx.ErrDuplicate, input.Reference)
	}
	r.nextID++
	t := Transaction{
		ID:          r.nextID,
		CustomerID:  input.CustomerID,
		Type:        input.Type,
		Amount:      input.Amount,
		Date:        input.Date,
		Reference:   input.Reference,
		Description: input.Description,
		CreatedBy:   input.CreatedBy,
	}
	r.transactions[t.ID] = t
	if input.Reference != "" {
		r.references[input.Reference] = true
	}
	return t, nil
}

func (r *memoryTransactionRepo) DeleteTransaction(ctx context.Context, id int64) error {
	t, ok := r.transactions[id]
	if !ok {
		return httpx.ErrNotFound
	}
	delete(r.transactions, id)
	delete(r.references, t.Reference)
	return nil
}

type countingInvalidator struct {
	calls int
}

func (i *countingInvalidator) InvalidateDashboard(ctx context.Context) error {
	i.calls++
	return nil
}

func newTestService() (*Service, *memoryTransactionRepo, *countingInvalidator) {
	repo := newMemoryTransactionRepo()
	invalidator := &countingInvalidator{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(logger, repo, invalidator, nil), repo, invalidator
}

func TestRecordTransaction(t *testing.T) {
	svc, _, invalidator := newTestService()

	tx, err := svc.RecordTransaction(context.Background(), TransactionInput{
		CustomerID: 1,
		Type:       ledger.TypePayment,
		Amount:     250,
		Reference:  " RCPT-001 ",
	})
	require.NoError(t, err)
	require.Equal(t, "RCPT-001", tx.Reference)
	require.False(t, tx.Date.IsZero(), "missing date defaults to now")
	require.Equal(t, 1, invalidator.calls)
}

func TestRecordTransactionValidation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.RecordTransaction(ctx, TransactionInput{Type: ledger.TypePayment, Amount: 10})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.RecordTransaction(ctx, TransactionInput{CustomerID: 1, Type: "loan", Amount: 10})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.RecordTransaction(ctx, TransactionInput{CustomerID: 1, Type: ledger.TypePayment, Amount: -10})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestRecordTransactionDuplicateReference(t *testing.T) {
	svc, _, invalidator := newTestService()
	ctx := context.Background()

	input := TransactionInput{CustomerID: 1, Type: ledger.TypePayment, Amount: 100, Reference: "RCPT-7"}
	_, err := svc.RecordTransaction(ctx, input)
	require.NoError(t, err)

	_, err = svc.RecordTransaction(ctx, input)
	require.ErrorIs(t, err, httpx.ErrDuplicate)
	require.Equal(t, 1, invalidator.calls, "failed insert must not bump the cache")
}

func TestRecordTransactionKeepsExplicitDate(t *testing.T) {
	svc, _, _ := newTestService()

	when := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	tx, err := svc.RecordTransaction(context.Background(), TransactionInput{
		CustomerID: 1,
		Type:       ledger.TypeCharge,
		Amount:     75,
		Date:       when,
	})
	require.NoError(t, err)
	require.Equal(t, when, tx.Date)
}

func TestDeleteTransaction(t *testing.T) {
	svc, _, invalidator := newTestService()
	ctx := context.Background()

	tx, err := svc.RecordTransaction(ctx, TransactionInput{CustomerID: 1, Type: ledger.TypePayment, Amount: 10})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteTransaction(ctx, tx.ID))
	require.Equal(t, 2, invalidator.calls)
	require.ErrorIs(t, svc.DeleteTransaction(ctx, tx.ID), httpx.ErrNotFound)
}
