package customers

import "time"

// Customer is a shop customer. Balance is intentionally absent from
// the stored model: financial figures are derived on demand by the
// ledger package and exposed through Statement.
type Customer struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Phone       string    `json:"phone"`
	Address     string    `json:"address"`
	Notes       string    `json:"notes"`
	CreditLimit float64   `json:"credit_limit"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CustomerInput carries fields for creating or updating a customer.
type CustomerInput struct {
	Name        string
	Phone       string
	Address     string
	Notes       string
	CreditLimit float64
}

// Statement bundles the derived financial figures for one customer.
type Statement struct {
	CustomerID        int64   `json:"customer_id"`
	Name              string  `json:"name"`
	CreditLimit       float64 `json:"credit_limit"`
	Balance           float64 `json:"balance"`
	TotalPayments     float64 `json:"total_payments"`
	MaintenanceCost   float64 `json:"maintenance_cost"`
	PartsCost         float64 `json:"parts_cost"`
	NetProfit         float64 `json:"net_profit"`
	ReceivedNetProfit float64 `json:"received_net_profit"`
	OverCreditLimit   bool    `json:"over_credit_limit"`
}
