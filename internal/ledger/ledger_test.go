package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func device(customerID int64, delivered, paid bool, actions ...Action) Device {
	return Device{ID: 1, CustomerID: customerID, Delivered: delivered, Paid: paid, Actions: actions}
}

func TestActualDeviceCostIgnoresEstimate(t *testing.T) {
	d := Device{EstimatedCost: 9999}
	require.Zero(t, ActualDeviceCost(d))

	d.Actions = []Action{{Cost: 10000}, {Cost: 5000}}
	require.Equal(t, 15000.0, ActualDeviceCost(d))
}

func TestMaintenanceCostFallsBackToEstimate(t *testing.T) {
	d := Device{EstimatedCost: 7500}
	require.Equal(t, 7500.0, MaintenanceCost(d))

	d.Actions = []Action{{Cost: 10000}, {Cost: 5000}}
	require.Equal(t, 15000.0, MaintenanceCost(d), "fallback must not trigger once actions exist")
}

func TestCustomerBalanceEmptyInputs(t *testing.T) {
	require.Zero(t, CustomerBalance(42, nil, nil))
	require.Zero(t, TotalPayments(42, nil, nil))
	require.Zero(t, NetProfit(42, nil))
	require.Zero(t, ReceivedNetProfit(42, nil))
	require.Zero(t, PartsCostForCustomer(42, nil))
}

func TestCustomerBalanceDeliveredUnpaidScenario(t *testing.T) {
	devices := []Device{device(1, true, false,
		Action{Cost: 10000, PartsCost: 2000},
		Action{Cost: 5000, PartsCost: 1000},
	)}
	transactions := []Transaction{{CustomerID: 1, Type: TypePayment, Amount: 3000}}

	require.Equal(t, 15000.0, ActualDeviceCost(devices[0]))
	require.Equal(t, 12000.0, CustomerBalance(1, transactions, devices))
	require.Equal(t, 3000.0, PartsCostForCustomer(1, devices))
	require.Equal(t, 12000.0, NetProfit(1, devices))
	require.Equal(t, 12000.0, ReceivedNetProfit(1, devices))
}

func TestCustomerBalanceUndeliveredDeviceExcluded(t *testing.T) {
	devices := []Device{device(1, false, false,
		Action{Cost: 10000, PartsCost: 2000},
		Action{Cost: 5000, PartsCost: 1000},
	)}
	transactions := []Transaction{{CustomerID: 1, Type: TypePayment, Amount: 3000}}

	require.Equal(t, -3000.0, CustomerBalance(1, transactions, devices), "undelivered work is not owed yet")
	require.Zero(t, ReceivedNetProfit(1, devices))
	require.Equal(t, 12000.0, NetProfit(1, devices))
}

func TestCustomerBalanceOrderIndependent(t *testing.T) {
	devices := []Device{
		device(1, true, false, Action{Cost: 100}),
		device(1, true, false, Action{Cost: 250}),
	}
	transactions := []Transaction{
		{CustomerID: 1, Type: TypePayment, Amount: 40},
		{CustomerID: 1, Type: TypePayment, Amount: 60},
		{CustomerID: 1, Type: TypeCharge, Amount: 999},
	}

	want := CustomerBalance(1, transactions, devices)

	reversedTx := []Transaction{transactions[2], transactions[1], transactions[0]}
	reversedDev := []Device{devices[1], devices[0]}
	require.Equal(t, want, CustomerBalance(1, reversedTx, reversedDev))
	require.Equal(t, 250.0, want)
}

func TestPaymentStrictlyDecreasesBalance(t *testing.T) {
	devices := []Device{device(1, true, false, Action{Cost: 500})}
	before := CustomerBalance(1, nil, devices)

	after := CustomerBalance(1, []Transaction{{CustomerID: 1, Type: TypePayment, Amount: 120}}, devices)
	require.Equal(t, before-120, after)
}

func TestMarkingPaidRemovesDeviceFromBalance(t *testing.T) {
	d := device(1, true, false, Action{Cost: 800}, Action{Cost: 200})
	before := CustomerBalance(1, nil, []Device{d})

	d.Paid = true
	after := CustomerBalance(1, nil, []Device{d})
	require.Equal(t, before-ActualDeviceCost(d), after)
	require.Zero(t, after)
}

func TestOtherCustomersRowsIgnored(t *testing.T) {
	devices := []Device{
		device(1, true, false, Action{Cost: 100}),
		device(2, true, false, Action{Cost: 7777}),
	}
	transactions := []Transaction{
		{CustomerID: 1, Type: TypePayment, Amount: 30},
		{CustomerID: 2, Type: TypePayment, Amount: 5},
	}
	require.Equal(t, 70.0, CustomerBalance(1, transactions, devices))
}

func TestNonPaymentTransactionsDoNotReduceBalance(t *testing.T) {
	devices := []Device{device(1, true, false, Action{Cost: 100})}
	transactions := []Transaction{
		{CustomerID: 1, Type: TypeCharge, Amount: 50},
		{CustomerID: 1, Type: TypeRefund, Amount: 25},
		{CustomerID: 1, Type: TypeAdjustment, Amount: 10},
	}
	require.Equal(t, 100.0, CustomerBalance(1, transactions, devices))
}

func TestTotalPaymentsCountsPaidDevicesAndManualPayments(t *testing.T) {
	devices := []Device{device(1, true, true, Action{Cost: 300})}
	transactions := []Transaction{{CustomerID: 1, Type: TypePayment, Amount: 300}}

	// Both mechanisms recorded for the same work double count; the
	// figure is an independent display total, not the balance
	// complement.
	require.Equal(t, 600.0, TotalPayments(1, transactions, devices))
}

func TestNetProfitEqualsReceivedWhenAllDelivered(t *testing.T) {
	devices := []Device{
		device(1, true, false, Action{Cost: 400, PartsCost: 150}),
		device(1, true, true, Action{Cost: 600, PartsCost: 250}),
	}
	require.Equal(t, NetProfit(1, devices), ReceivedNetProfit(1, devices))
	require.Equal(t, 600.0, NetProfit(1, devices))
}

func TestTotalDebtExcludesCreditBalances(t *testing.T) {
	customers := []Customer{{ID: 1}, {ID: 2}}
	devices := []Device{device(2, true, false,
		Action{Cost: 10000},
		Action{Cost: 5000},
	)}
	transactions := []Transaction{
		{CustomerID: 1, Type: TypePayment, Amount: 3000},
		{CustomerID: 2, Type: TypePayment, Amount: 3000},
	}

	require.Equal(t, -3000.0, CustomerBalance(1, transactions, devices))
	require.Equal(t, 12000.0, CustomerBalance(2, transactions, devices))
	require.Equal(t, 12000.0, TotalDebt(customers, transactions, devices))
}

func TestCreditOverageStrictInequality(t *testing.T) {
	devices := []Device{device(1, true, false, Action{Cost: 1000})}

	atLimit := Customer{ID: 1, CreditLimit: 1000}
	require.False(t, CreditOverage(atLimit, nil, devices), "balance equal to limit is not an overage")

	justOver := Customer{ID: 1, CreditLimit: 999.99}
	require.True(t, CreditOverage(justOver, nil, devices))
}

func TestTodayPayments(t *testing.T) {
	today := time.Date(2025, 6, 10, 15, 0, 0, 0, time.UTC)
	yesterday := today.AddDate(0, 0, -1)

	transactions := []Transaction{
		{CustomerID: 1, Type: TypePayment, Amount: 100, Date: today.Add(-6 * time.Hour)},
		{CustomerID: 2, Type: TypePayment, Amount: 40, Date: yesterday},
		{CustomerID: 1, Type: TypeCharge, Amount: 75, Date: today},
	}
	devices := []Device{
		{CustomerID: 1, Paid: true, DeliveryDate: today, Actions: []Action{{Cost: 500}}},
		{CustomerID: 2, Paid: true, DeliveryDate: yesterday, Actions: []Action{{Cost: 900}}},
		{CustomerID: 3, Paid: false, DeliveryDate: today, Actions: []Action{{Cost: 111}}},
	}

	require.Equal(t, 600.0, TodayPayments(transactions, devices, today))
}

func TestTodayPaymentsZeroDeliveryDateNeverMatches(t *testing.T) {
	devices := []Device{{CustomerID: 1, Paid: true, Actions: []Action{{Cost: 500}}}}
	require.Zero(t, TodayPayments(nil, devices, time.Now()))
}
