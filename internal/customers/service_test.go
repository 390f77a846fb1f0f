package customers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/ledger"
	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/platform/httpx"
)

type memoryCustomerRepo struct {
	customers    map[int64]Customer
	nextID       int64
	devices      int
	transactions int
}

func newMemoryCustomerRepo() *memoryCustomerRepo {
	return &memoryCustomerRepo{customers: make(map[int64]Customer)}
}

func (r *memoryCustomerRepo) ListCustomers(ctx context.Context, search string, limit, offset int) ([]Customer, int, error) {
	var out []Customer
	for _, c := range r.customers {
		out = append(out, c)
	}
	return out, len(out), nil
}

func (r *memoryCustomerRepo) GetCustomer(ctx context.Context, id int64) (Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return Customer{}, httpx.ErrNotFound
	}
	return c, nil
}

func (r *memoryCustomerRepo) CreateCustomer(ctx context.Context, input CustomerInput) (Customer, error) {
	r.nextID++
	c := Customer{
		ID:          r.nextID,
		Name:        input.Name,
		Phone:       input.Phone,
		Address:     input.Address,
		Notes:       input.Notes,
		CreditLimit: input.CreditLimit,
	}
	r.customers[c.ID] = c
	return c, nil
}

func (r *memoryCustomerRepo) UpdateCustomer(ctx context.Context, id int64, input CustomerInput) (Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return Customer{}, httpx.ErrNotFound
	}
	c.Name = input.Name
	c.CreditLimit = input.CreditLimit
	r.customers[id] = c
	return c, nil
}

func (r *memoryCustomerRepo) DeleteCustomer(ctx context.Context, id int64) error {
	if _, ok := r.customers[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(r.customers, id)
	return nil
}

func (r *memoryCustomerRepo) CountAttachments(ctx context.Context, id int64) (int, int, error) {
	return r.devices, r.transactions, nil
}

type stubTransactionSource struct {
	transactions []ledger.Transaction
}

func (s stubTransactionSource) LedgerTransactions(ctx context.Context, customerID int64) ([]ledger.Transaction, error) {
	return s.transactions, nil
}

type stubDeviceSource struct {
	devices []ledger.Device
}

func (s stubDeviceSource) LedgerDevices(ctx context.Context, customerID int64) ([]ledger.Device, error) {
	return s.devices, nil
}

func TestCreateCustomerNormalizesName(t *testing.T) {
	repo := newMemoryCustomerRepo()
	svc := NewService(repo, stubTransactionSource{}, stubDeviceSource{})

	c, err := svc.CreateCustomer(context.Background(), CustomerInput{Name: "  ali   hassan "})
	require.NoError(t, err)
	require.Equal(t, "Ali Hassan", c.Name)
}

func TestCreateCustomerRejectsNegativeCreditLimit(t *testing.T) {
	repo := newMemoryCustomerRepo()
	svc := NewService(repo, stubTransactionSource{}, stubDeviceSource{})

	_, err := svc.CreateCustomer(context.Background(), CustomerInput{Name: "Ali", CreditLimit: -1})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestDeleteCustomerGuardedByAttachments(t *testing.T) {
	repo := newMemoryCustomerRepo()
	svc := NewService(repo, stubTransactionSource{}, stubDeviceSource{})

	c, err := svc.CreateCustomer(context.Background(), CustomerInput{Name: "Ali"})
	require.NoError(t, err)

	repo.devices = 2
	require.ErrorIs(t, svc.DeleteCustomer(context.Background(), c.ID), httpx.ErrConflict)

	repo.devices = 0
	require.NoError(t, svc.DeleteCustomer(context.Background(), c.ID))
}

func TestStatementDerivesLedgerFigures(t *testing.T) {
	repo := newMemoryCustomerRepo()
	ctx := context.Background()

	txs := stubTransactionSource{transactions: []ledger.Transaction{
		{CustomerID: 1, Type: ledger.TypePayment, Amount: 3000},
	}}
	devs := stubDeviceSource{devices: []ledger.Device{
		{
			ID: 1, CustomerID: 1, Delivered: true, Paid: false,
			Actions: []ledger.Action{
				{Cost: 10000, PartsCost: 2000},
				{Cost: 5000, PartsCost: 1000},
			},
		},
	}}
	svc := NewService(repo, txs, devs)

	created, err := svc.CreateCustomer(ctx, CustomerInput{Name: "Ali", CreditLimit: 10000})
	require.NoError(t, err)
	require.Equal(t, int64(1), created.ID)

	st, err := svc.Statement(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 12000.0, st.Balance)
	require.Equal(t, 3000.0, st.TotalPayments)
	require.Equal(t, 15000.0, st.MaintenanceCost)
	require.Equal(t, 3000.0, st.PartsCost)
	require.Equal(t, 12000.0, st.NetProfit)
	require.Equal(t, 12000.0, st.ReceivedNetProfit)
	require.True(t, st.OverCreditLimit, "balance 12000 exceeds limit 10000")
}

func TestStatementUnknownCustomer(t *testing.T) {
	repo := newMemoryCustomerRepo()
	svc := NewService(repo, stubTransactionSource{}, stubDeviceSource{})

	_, err := svc.Statement(context.Background(), 99)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}
