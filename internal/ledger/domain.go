package ledger

import "time"

// TransactionType enumerates manual transaction kinds.
type TransactionType string

const (
	TypePayment    TransactionType = "payment"
	TypeCharge     TransactionType = "charge"
	TypeRefund     TransactionType = "refund"
	TypeAdjustment TransactionType = "adjustment"
)

// Customer carries the fields the aggregator needs; the stored balance
// column is never read, figures are always rederived.
type Customer struct {
	ID          int64
	Name        string
	Phone       string
	CreditLimit float64
}

// Transaction is a manually recorded ledger entry for a customer.
type Transaction struct {
	ID          int64
	CustomerID  int64
	Type        TransactionType
	Amount      float64
	Date        time.Time
	Reference   string
	Description string
}

// Device is an intake record with its maintenance actions already
// joined by the repository layer.
type Device struct {
	ID            int64
	CustomerID    int64
	EstimatedCost float64
	Delivered     bool
	Paid          bool
	DeliveryDate  time.Time
	Actions       []Action
}

// Action is a single billed maintenance step on a device.
type Action struct {
	ID        int64
	DeviceID  int64
	Cost      float64
	PartsCost float64
	Status    string
}
