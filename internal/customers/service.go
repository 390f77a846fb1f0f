package customers

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/ledger"
	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/platform/httpx"
)

// TransactionSource supplies normalized transaction rows for the
// ledger computation.
type TransactionSource interface {
	LedgerTransactions(ctx context.Context, customerID int64) ([]ledger.Transaction, error)
}

// DeviceSource supplies normalized device rows (actions joined) for
// the ledger computation.
type DeviceSource interface {
	LedgerDevices(ctx context.Context, customerID int64) ([]ledger.Device, error)
}

// Service handles customer business logic.
type Service struct {
	repo         RepositoryPort
	transactions TransactionSource
	devices      DeviceSource
	titleCaser   cases.Caser
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, transactions TransactionSource, devices DeviceSource) *Service {
	return &Service{
		repo:         repo,
		transactions: transactions,
		devices:      devices,
		titleCaser:   cases.Title(language.Und, cases.NoLower),
	}
}

// ListCustomers returns a page of customers.
func (s *Service) ListCustomers(ctx context.Context, search string, limit, offset int) ([]Customer, int, error) {
	return s.repo.ListCustomers(ctx, strings.TrimSpace(search), limit, offset)
}

// GetCustomer fetches one customer.
func (s *Service) GetCustomer(ctx context.Context, id int64) (Customer, error) {
	return s.repo.GetCustomer(ctx, id)
}

// CreateCustomer validates and inserts a customer record.
func (s *Service) CreateCustomer(ctx context.Context, input CustomerInput) (Customer, error) {
	normalized, err := s.normalize(input)
	if err != nil {
		return Customer{}, err
	}
	return s.repo.CreateCustomer(ctx, normalized)
}

// UpdateCustomer validates and updates a customer record.
func (s *Service) UpdateCustomer(ctx context.Context, id int64, input CustomerInput) (Customer, error) {
	normalized, err := s.normalize(input)
	if err != nil {
		return Customer{}, err
	}
	return s.repo.UpdateCustomer(ctx, id, normalized)
}

// DeleteCustomer removes a customer unless devices or transactions
// still reference them.
func (s *Service) DeleteCustomer(ctx context.Context, id int64) error {
	devices, transactions, err := s.repo.CountAttachments(ctx, id)
	if err != nil {
		return err
	}
	if devices > 0 || transactions > 0 {
		return fmt.Errorf("%w: customer has %d devices and %d transactions", httpx.ErrConflict, devices, transactions)
	}
	return s.repo.DeleteCustomer(ctx, id)
}

// Statement recomputes the customer's financial figures from the full
// row sets. Transactions and devices are fetched in parallel; the
// aggregation itself is pure and runs on the snapshot.
func (s *Service) Statement(ctx context.Context, id int64) (Statement, error) {
	customer, err := s.repo.GetCustomer(ctx, id)
	if err != nil {
		return Statement{}, err
	}

	var (
		transactions []ledger.Transaction
		devices      []ledger.Device
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		transactions, err = s.transactions.LedgerTransactions(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		devices, err = s.devices.LedgerDevices(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return Statement{}, err
	}

	var maintenanceTotal float64
	for _, d := range devices {
		maintenanceTotal += ledger.MaintenanceCost(d)
	}

	ledgerCustomer := ledger.Customer{ID: customer.ID, Name: customer.Name, CreditLimit: customer.CreditLimit}
	balance := ledger.CustomerBalance(id, transactions, devices)

	return Statement{
		CustomerID:        customer.ID,
		Name:              customer.Name,
		CreditLimit:       customer.CreditLimit,
		Balance:           balance,
		TotalPayments:     ledger.TotalPayments(id, transactions, devices),
		MaintenanceCost:   maintenanceTotal,
		PartsCost:         ledger.PartsCostForCustomer(id, devices),
		NetProfit:         ledger.NetProfit(id, devices),
		ReceivedNetProfit: ledger.ReceivedNetProfit(id, devices),
		OverCreditLimit:   ledger.CreditOverage(ledgerCustomer, transactions, devices),
	}, nil
}

func (s *Service) normalize(input CustomerInput) (CustomerInput, error) {
	input.Name = s.titleCaser.String(strings.Join(strings.Fields(input.Name), " "))
	input.Phone = strings.TrimSpace(input.Phone)
	input.Address = strings.TrimSpace(input.Address)
	input.Notes = strings.TrimSpace(input.Notes)
	if input.Name == "" {
		return CustomerInput{}, fmt.Errorf("%w: name required", httpx.ErrValidation)
	}
	if input.CreditLimit < 0 {
		return CustomerInput{}, fmt.Errorf("%w: credit limit cannot be negative", httpx.ErrValidation)
	}
	return input, nil
}
