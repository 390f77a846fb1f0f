package transactions

import (
	"time"

	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/ledger"
)

// Transaction is a manually recorded ledger entry against a customer.
type Transaction struct {
	ID           int64                  `json:"id"`
	CustomerID   int64                  `json:"customer_id"`
	CustomerName string                 `json:"customer_name,omitempty"`
	Type         ledger.TransactionType `json:"type"`
	Amount       float64                `json:"amount"`
	Date         time.Time              `json:"date"`
	Reference    string                 `json:"reference,omitempty"`
	Description  string                 `json:"description,omitempty"`
	CreatedBy    int64                  `json:"created_by,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
}

// TransactionInput carries fields for recording a transaction.
type TransactionInput struct {
	CustomerID  int64
	Type        ledger.TransactionType
	Amount      float64
	Date        time.Time
	Reference   string
	Description string
	CreatedBy   int64
}

// ListFilter narrows transaction listings.
type ListFilter struct {
	CustomerID int64
	Type       ledger.TransactionType
	From       time.Time
	To         time.Time
}

func validType(t ledger.TransactionType) bool {
	switch t {
	case ledger.TypePayment, ledger.TypeCharge, ledger.TypeRefund, ledger.TypeAdjustment:
		return true
	}
	return false
}
