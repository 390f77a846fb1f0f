package devices

import "time"

// Status tracks a device through the repair workflow.
type Status string

const (
	StatusReceived   Status = "received"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusDelivered  Status = "delivered"
)

// transitions holds the allowed forward moves of the workflow.
var transitions = map[Status][]Status{
	StatusReceived:   {StatusInProgress},
	StatusInProgress: {StatusCompleted},
	StatusCompleted:  {StatusDelivered},
	StatusDelivered:  {},
}

// CanTransition reports whether moving from one status to another is allowed.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidStatus reports whether the value is a known workflow status.
func ValidStatus(s Status) bool {
	_, ok := transitions[s]
	return ok
}

// Device is an intake record for a unit brought in for repair.
type Device struct {
	ID            int64               `json:"id"`
	CustomerID    int64               `json:"customer_id"`
	CustomerName  string              `json:"customer_name,omitempty"`
	Brand         string              `json:"brand"`
	Model         string              `json:"model"`
	SerialNumber  string              `json:"serial_number"`
	Problem       string              `json:"problem"`
	Notes         string              `json:"notes"`
	Status        Status              `json:"status"`
	TechnicianID  *int64              `json:"technician_id,omitempty"`
	EstimatedCost float64             `json:"estimated_cost"`
	Delivered     bool                `json:"delivered"`
	Paid          bool                `json:"paid"`
	DeliveryDate  *time.Time          `json:"delivery_date,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
	Actions       []MaintenanceAction `json:"actions,omitempty"`
}

// MaintenanceAction is one billed repair step performed on a device.
type MaintenanceAction struct {
	ID          int64     `json:"id"`
	DeviceID    int64     `json:"device_id"`
	Description string    `json:"description"`
	Cost        float64   `json:"cost"`
	PartsCost   float64   `json:"parts_cost"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DeviceInput carries fields for creating or updating a device record.
type DeviceInput struct {
	CustomerID    int64
	Brand         string
	Model         string
	SerialNumber  string
	Problem       string
	Notes         string
	TechnicianID  *int64
	EstimatedCost float64
}

// ActionInput carries fields for creating or updating a maintenance action.
type ActionInput struct {
	Description string
	Cost        float64
	PartsCost   float64
	Status      string
}

// ListFilter narrows device listings.
type ListFilter struct {
	CustomerID   int64
	TechnicianID int64
	Status       Status
	Search       string
}
