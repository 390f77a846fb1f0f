// Package ledger derives customer financial figures from in-memory
// row sets. Every function is pure: no I/O, no shared state, and no
// error paths. Inputs are assumed normalized at the repository
// boundary, so optional numeric columns arrive as zero values and an
// unknown customer simply yields zero aggregates.
package ledger

import "time"

// ActualDeviceCost sums the billed cost of a device's maintenance
// actions. A device without actions costs zero; the estimate is a
// planning figure and never substitutes here.
func ActualDeviceCost(d Device) float64 {
	var total float64
	for _, a := range d.Actions {
		total += a.Cost
	}
	return total
}

// MaintenanceCost is the informational cost figure shown on intake
// screens: the action sum, or the estimate while no actions are booked.
func MaintenanceCost(d Device) float64 {
	if total := ActualDeviceCost(d); total != 0 {
		return total
	}
	return d.EstimatedCost
}

// PartsCost sums the internal parts cost across a device's actions.
func PartsCost(d Device) float64 {
	var total float64
	for _, a := range d.Actions {
		total += a.PartsCost
	}
	return total
}

// CustomerBalance is the amount the customer currently owes: the
// actual cost of their unpaid, delivered devices minus their manual
// payment transactions. Devices that have not been handed back do not
// count, even when fully costed. The result goes negative when the
// customer has overpaid and is deliberately not clamped.
func CustomerBalance(customerID int64, transactions []Transaction, devices []Device) float64 {
	var owed float64
	for _, d := range devices {
		if d.CustomerID == customerID && d.Delivered && !d.Paid {
			owed += ActualDeviceCost(d)
		}
	}
	return owed - manualPayments(customerID, transactions)
}

// TotalPayments is a display figure: manual payment transactions plus
// the actual cost of devices flagged paid. The two mechanisms are
// additive, so recording both for the same device overstates the
// total; that matches how operators have always used the paid flag.
func TotalPayments(customerID int64, transactions []Transaction, devices []Device) float64 {
	total := manualPayments(customerID, transactions)
	for _, d := range devices {
		if d.CustomerID == customerID && d.Paid {
			total += ActualDeviceCost(d)
		}
	}
	return total
}

// PartsCostForCustomer sums parts cost across all of a customer's
// devices.
func PartsCostForCustomer(customerID int64, devices []Device) float64 {
	var total float64
	for _, d := range devices {
		if d.CustomerID == customerID {
			total += PartsCost(d)
		}
	}
	return total
}

// NetProfit is billed revenue minus parts cost over all of a
// customer's devices, delivered or not.
func NetProfit(customerID int64, devices []Device) float64 {
	var revenue float64
	for _, d := range devices {
		if d.CustomerID == customerID {
			revenue += ActualDeviceCost(d)
		}
	}
	return revenue - PartsCostForCustomer(customerID, devices)
}

// ReceivedNetProfit restricts NetProfit to delivered devices.
func ReceivedNetProfit(customerID int64, devices []Device) float64 {
	var profit float64
	for _, d := range devices {
		if d.CustomerID == customerID && d.Delivered {
			profit += ActualDeviceCost(d) - PartsCost(d)
		}
	}
	return profit
}

// TotalDebt sums positive balances across customers. Credit balances
// are excluded rather than netted, so one customer's overpayment never
// hides another's debt.
func TotalDebt(customers []Customer, transactions []Transaction, devices []Device) float64 {
	var total float64
	for _, c := range customers {
		if balance := CustomerBalance(c.ID, transactions, devices); balance > 0 {
			total += balance
		}
	}
	return total
}

// TodayPayments totals money received on the given calendar day:
// payment transactions dated today plus the actual cost of paid
// devices delivered today. Day comparison happens in today's location.
func TodayPayments(transactions []Transaction, devices []Device, today time.Time) float64 {
	var total float64
	for _, t := range transactions {
		if t.Type == TypePayment && sameDay(t.Date, today) {
			total += t.Amount
		}
	}
	for _, d := range devices {
		if d.Paid && sameDay(d.DeliveryDate, today) {
			total += ActualDeviceCost(d)
		}
	}
	return total
}

// CreditOverage reports whether the customer's balance exceeds their
// configured credit limit. Sitting exactly at the limit is allowed.
func CreditOverage(c Customer, transactions []Transaction, devices []Device) bool {
	return CustomerBalance(c.ID, transactions, devices) > c.CreditLimit
}

func manualPayments(customerID int64, transactions []Transaction) float64 {
	var total float64
	for _, t := range transactions {
		if t.CustomerID == customerID && t.Type == TypePayment {
			total += t.Amount
		}
	}
	return total
}

func sameDay(t, today time.Time) bool {
	if t.IsZero() {
		return false
	}
	t = t.In(today.Location())
	return t.Year() == today.Year() && t.YearDay() == today.YearDay()
}
