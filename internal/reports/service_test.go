package reports

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/devices"
	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/ledger"
)

type stubSources struct {
	customers    []ledger.Customer
	transactions []ledger.Transaction
	devices      []ledger.Device
	counts       map[devices.Status]int

	customerCalls int
}

func (s *stubSources) LedgerCustomers(ctx context.Context) ([]ledger.Customer, error) {
	s.customerCalls++
	return s.customers, nil
}

func (s *stubSources) AllLedgerTransactions(ctx context.Context) ([]ledger.Transaction, error) {
	return s.transactions, nil
}

func (s *stubSources) AllLedgerDevices(ctx context.Context) ([]ledger.Device, error) {
	return s.devices, nil
}

func (s *stubSources) CountByStatus(ctx context.Context) (map[devices.Status]int, error) {
	return s.counts, nil
}

func newTestService(t *testing.T, sources *stubSources) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewService(sources, sources, sources, NewCache(client, time.Minute))
}

func fixtureSources() *stubSources {
	return &stubSources{
		customers: []ledger.Customer{
			{ID: 1, Name: "Ali", CreditLimit: 1000},
			{ID: 2, Name: "Omar", CreditLimit: 20000},
		},
		transactions: []ledger.Transaction{
			{ID: 1, CustomerID: 1, Type: ledger.TypePayment, Amount: 3000, Date: time.Now()},
		},
		devices: []ledger.Device{
			{
				ID: 1, CustomerID: 1, Delivered: true,
				Actions: []ledger.Action{{Cost: 10000, PartsCost: 2000}, {Cost: 5000, PartsCost: 1000}},
			},
			{
				ID: 2, CustomerID: 2,
				Actions: []ledger.Action{{Cost: 4000, PartsCost: 500}},
			},
		},
		counts: map[devices.Status]int{
			devices.StatusDelivered:  1,
			devices.StatusInProgress: 1,
		},
	}
}

func TestDashboardFigures(t *testing.T) {
	sources := fixtureSources()
	svc := newTestService(t, sources)

	dashboard, err := svc.Dashboard(context.Background())
	require.NoError(t, err)

	// Customer 1 owes 15000 - 3000; customer 2's device is undelivered.
	require.Equal(t, 12000.0, dashboard.TotalDebt)
	require.Equal(t, 3000.0, dashboard.TodayPayments)
	require.Equal(t, 15500.0, dashboard.NetProfit)
	require.Equal(t, 12000.0, dashboard.ReceivedNetProfit)
	require.Equal(t, 3500.0, dashboard.PartsCost)
	require.Equal(t, map[string]int{"delivered": 1, "in_progress": 1}, dashboard.DeviceCounts)

	require.Len(t, dashboard.OverLimit, 1)
	require.Equal(t, int64(1), dashboard.OverLimit[0].CustomerID)
	require.Equal(t, 12000.0, dashboard.OverLimit[0].Balance)
}

func TestDashboardCachedUntilInvalidated(t *testing.T) {
	sources := fixtureSources()
	svc := newTestService(t, sources)
	ctx := context.Background()

	_, err := svc.Dashboard(ctx)
	require.NoError(t, err)
	_, err = svc.Dashboard(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, sources.customerCalls, "second read must hit the cache")

	require.NoError(t, svc.InvalidateDashboard(ctx))
	_, err = svc.Dashboard(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, sources.customerCalls, "bump must force a recompute")
}

func TestWarmDashboardPopulatesCache(t *testing.T) {
	sources := fixtureSources()
	svc := newTestService(t, sources)
	ctx := context.Background()

	require.NoError(t, svc.WarmDashboard(ctx))
	calls := sources.customerCalls

	_, err := svc.Dashboard(ctx)
	require.NoError(t, err)
	require.Equal(t, calls, sources.customerCalls, "warmed dashboard must serve from cache")
}
