package reports

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/devices"
	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/ledger"
)

// CustomerSource supplies minimal customer rows for aggregation.
type CustomerSource interface {
	LedgerCustomers(ctx context.Context) ([]ledger.Customer, error)
}

// TransactionSource supplies every normalized transaction row.
type TransactionSource interface {
	AllLedgerTransactions(ctx context.Context) ([]ledger.Transaction, error)
}

// DeviceSource supplies every normalized device row plus workflow counts.
type DeviceSource interface {
	AllLedgerDevices(ctx context.Context) ([]ledger.Device, error)
	CountByStatus(ctx context.Context) (map[devices.Status]int, error)
}

// Dashboard bundles the shop-wide figures shown on the landing screen.
type Dashboard struct {
	GeneratedAt       time.Time         `json:"generated_at"`
	TotalDebt         float64           `json:"total_debt"`
	TodayPayments     float64           `json:"today_payments"`
	NetProfit         float64           `json:"net_profit"`
	ReceivedNetProfit float64           `json:"received_net_profit"`
	PartsCost         float64           `json:"parts_cost"`
	DeviceCounts      map[string]int    `json:"device_counts"`
	OverLimit         []OverLimitHolder `json:"over_limit"`
}

// OverLimitHolder is a customer whose balance exceeds their credit limit.
type OverLimitHolder struct {
	CustomerID  int64   `json:"customer_id"`
	Name        string  `json:"name"`
	Balance     float64 `json:"balance"`
	CreditLimit float64 `json:"credit_limit"`
}

// Service computes and caches the dashboard. Figures are always
// rederived from the full row sets; the cache only spares repeat reads
// between mutations.
type Service struct {
	customers    CustomerSource
	transactions TransactionSource
	devices      DeviceSource
	cache        *Cache
	group        singleflight.Group
}

// NewService builds a Service instance. cache may be nil in tests.
func NewService(customers CustomerSource, transactions TransactionSource, devices DeviceSource, cache *Cache) *Service {
	return &Service{
		customers:    customers,
		transactions: transactions,
		devices:      devices,
		cache:        cache,
	}
}

// Dashboard returns the cached dashboard, computing it on a miss.
// Concurrent misses collapse into a single computation.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	key, err := s.cache.BuildKey(ctx, "reports", "dashboard")
	if err != nil {
		return Dashboard{}, err
	}
	result, err, _ := s.group.Do(key, func() (interface{}, error) {
		var dashboard Dashboard
		err := s.cache.FetchJSON(ctx, key, &dashboard, func(ctx context.Context) (interface{}, error) {
			return s.compute(ctx)
		})
		return dashboard, err
	})
	if err != nil {
		return Dashboard{}, err
	}
	return result.(Dashboard), nil
}

// WarmDashboard recomputes the dashboard into the cache.
func (s *Service) WarmDashboard(ctx context.Context) error {
	if err := s.cache.Bump(ctx); err != nil {
		return err
	}
	_, err := s.Dashboard(ctx)
	return err
}

// InvalidateDashboard bumps the cache version so the next read recomputes.
func (s *Service) InvalidateDashboard(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

func (s *Service) compute(ctx context.Context) (Dashboard, error) {
	var (
		customers    []ledger.Customer
		transactions []ledger.Transaction
		deviceRows   []ledger.Device
		counts       map[devices.Status]int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		customers, err = s.customers.LedgerCustomers(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		transactions, err = s.transactions.AllLedgerTransactions(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		deviceRows, err = s.devices.AllLedgerDevices(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		counts, err = s.devices.CountByStatus(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	dashboard := Dashboard{
		GeneratedAt:   time.Now(),
		TotalDebt:     ledger.TotalDebt(customers, transactions, deviceRows),
		TodayPayments: ledger.TodayPayments(transactions, deviceRows, time.Now()),
		DeviceCounts:  make(map[string]int, len(counts)),
	}
	for status, n := range counts {
		dashboard.DeviceCounts[string(status)] = n
	}
	for _, d := range deviceRows {
		billed := ledger.ActualDeviceCost(d)
		parts := ledger.PartsCost(d)
		dashboard.NetProfit += billed - parts
		dashboard.PartsCost += parts
		if d.Delivered {
			dashboard.ReceivedNetProfit += billed - parts
		}
	}
	for _, c := range customers {
		if ledger.CreditOverage(c, transactions, deviceRows) {
			dashboard.OverLimit = append(dashboard.OverLimit, OverLimitHolder{
				CustomerID:  c.ID,
				Name:        c.Name,
				Balance:     ledger.CustomerBalance(c.ID, transactions, deviceRows),
				CreditLimit: c.CreditLimit,
			})
		}
	}
	return dashboard, nil
}
