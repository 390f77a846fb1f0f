package devices

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/ledger"
	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/platform/httpx"
)

// RepositoryPort defines data access methods for devices and their
// maintenance actions.
type RepositoryPort interface {
	ListDevices(ctx context.Context, filter ListFilter, limit, offset int) ([]Device, int, error)
	GetDevice(ctx context.Context, id int64) (Device, error)
	CreateDevice(ctx context.Context, input DeviceInput) (Device, error)
	UpdateDevice(ctx context.Context, id int64, input DeviceInput) (Device, error)
	DeleteDevice(ctx context.Context, id int64) error
	SetStatus(ctx context.Context, id int64, status Status, delivered bool, deliveryDate *time.Time) error
	SetPaid(ctx context.Context, id int64, paid bool) error

	ListActions(ctx context.Context, deviceID int64) ([]MaintenanceAction, error)
	CreateAction(ctx context.Context, deviceID int64, input ActionInput) (MaintenanceAction, error)
	UpdateAction(ctx context.Context, actionID int64, input ActionInput) (MaintenanceAction, error)
	DeleteAction(ctx context.Context, actionID int64) error

	CountByStatus(ctx context.Context) (map[Status]int, error)
}

// Repository provides PostgreSQL backed persistence for devices.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const deviceColumns = `d.id, d.customer_id, c.name, d.brand, d.model, d.serial_number, d.problem, d.notes,
	d.status, d.technician_id, COALESCE(d.estimated_cost, 0), d.delivered, d.paid, d.delivery_date,
	d.created_at, d.updated_at`

func scanDevice(row pgx.Row) (Device, error) {
	var d Device
	err := row.Scan(&d.ID, &d.CustomerID, &d.CustomerName, &d.Brand, &d.Model, &d.SerialNumber,
		&d.Problem, &d.Notes, &d.Status, &d.TechnicianID, &d.EstimatedCost,
		&d.Delivered, &d.Paid, &d.DeliveryDate, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

// ListDevices returns a page of devices matching the filter.
func (r *Repository) ListDevices(ctx context.Context, filter ListFilter, limit, offset int) ([]Device, int, error) {
	if limit <= 0 {
		limit = 50
	}
	pattern := "%" + filter.Search + "%"
	where := `WHERE ($1 = 0 OR d.customer_id = $1)
	  AND ($2 = 0 OR d.technician_id = $2)
	  AND ($3 = '' OR d.status = $3)
	  AND ($4 = '%%' OR d.brand ILIKE $4 OR d.model ILIKE $4 OR d.serial_number ILIKE $4)`

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM devices d `+where,
		filter.CustomerID, filter.TechnicianID, string(filter.Status), pattern).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+deviceColumns+` FROM devices d JOIN customers c ON c.id = d.customer_id `+where+`
		 ORDER BY d.created_at DESC, d.id DESC LIMIT $5 OFFSET $6`,
		filter.CustomerID, filter.TechnicianID, string(filter.Status), pattern, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var devices []Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, 0, err
		}
		devices = append(devices, d)
	}
	return devices, total, rows.Err()
}

// GetDevice fetches a device with its maintenance actions joined.
func (r *Repository) GetDevice(ctx context.Context, id int64) (Device, error) {
	d, err := scanDevice(r.pool.QueryRow(ctx,
		`SELECT `+deviceColumns+` FROM devices d JOIN customers c ON c.id = d.customer_id WHERE d.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Device{}, httpx.ErrNotFound
		}
		return Device{}, err
	}
	d.Actions, err = r.ListActions(ctx, id)
	if err != nil {
		return Device{}, err
	}
	return d, nil
}

// CreateDevice inserts a new intake record in the received state.
func (r *Repository) CreateDevice(ctx context.Context, input DeviceInput) (Device, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO devices (customer_id, brand, model, serial_number, problem, notes, status,
			technician_id, estimated_cost, delivered, paid, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, FALSE, FALSE, NOW(), NOW())
		 RETURNING id`,
		input.CustomerID, input.Brand, input.Model, input.SerialNumber, input.Problem,
		input.Notes, string(StatusReceived), input.TechnicianID, input.EstimatedCost).Scan(&id)
	if err != nil {
		return Device{}, err
	}
	return r.GetDevice(ctx, id)
}

// UpdateDevice updates intake fields. Workflow state moves through
// SetStatus, never through here.
func (r *Repository) UpdateDevice(ctx context.Context, id int64, input DeviceInput) (Device, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE devices SET brand = $2, model = $3, serial_number = $4, problem = $5, notes = $6,
			technician_id = $7, estimated_cost = $8, updated_at = NOW()
		 WHERE id = $1`,
		id, input.Brand, input.Model, input.SerialNumber, input.Problem, input.Notes,
		input.TechnicianID, input.EstimatedCost)
	if err != nil {
		return Device{}, err
	}
	if tag.RowsAffected() == 0 {
		return Device{}, httpx.ErrNotFound
	}
	return r.GetDevice(ctx, id)
}

// DeleteDevice removes a device and its actions.
func (r *Repository) DeleteDevice(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM devices WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// SetStatus moves a device to a new workflow state.
func (r *Repository) SetStatus(ctx context.Context, id int64, status Status, delivered bool, deliveryDate *time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE devices SET status = $2, delivered = $3, delivery_date = $4, updated_at = NOW() WHERE id = $1`,
		id, string(status), delivered, deliveryDate)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// SetPaid flips the paid flag on a device.
func (r *Repository) SetPaid(ctx context.Context, id int64, paid bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE devices SET paid = $2, updated_at = NOW() WHERE id = $1`, id, paid)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// ListActions returns the maintenance actions of a device in insert order.
func (r *Repository) ListActions(ctx context.Context, deviceID int64) ([]MaintenanceAction, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, device_id, description, COALESCE(cost, 0), COALESCE(parts_cost, 0), status, created_at, updated_at
		 FROM maintenance_actions WHERE device_id = $1 ORDER BY id`, deviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var actions []MaintenanceAction
	for rows.Next() {
		var a MaintenanceAction
		if err := rows.Scan(&a.ID, &a.DeviceID, &a.Description, &a.Cost, &a.PartsCost, &a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}

// CreateAction inserts a maintenance action under a device.
func (r *Repository) CreateAction(ctx context.Context, deviceID int64, input ActionInput) (MaintenanceAction, error) {
	var a MaintenanceAction
	err := r.pool.QueryRow(ctx,
		`INSERT INTO maintenance_actions (device_id, description, cost, parts_cost, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		 RETURNING id, device_id, description, COALESCE(cost, 0), COALESCE(parts_cost, 0), status, created_at, updated_at`,
		deviceID, input.Description, input.Cost, input.PartsCost, input.Status).
		Scan(&a.ID, &a.DeviceID, &a.Description, &a.Cost, &a.PartsCost, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return MaintenanceAction{}, err
	}
	return a, nil
}

// UpdateAction updates a maintenance action.
func (r *Repository) UpdateAction(ctx context.Context, actionID int64, input ActionInput) (MaintenanceAction, error) {
	var a MaintenanceAction
	err := r.pool.QueryRow(ctx,
		`UPDATE maintenance_actions SET description = $2, cost = $3, parts_cost = $4, status = $5, updated_at = NOW()
		 WHERE id = $1
		 RETURNING id, device_id, description, COALESCE(cost, 0), COALESCE(parts_cost, 0), status, created_at, updated_at`,
		actionID, input.Description, input.Cost, input.PartsCost, input.Status).
		Scan(&a.ID, &a.DeviceID, &a.Description, &a.Cost, &a.PartsCost, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return MaintenanceAction{}, httpx.ErrNotFound
		}
		return MaintenanceAction{}, err
	}
	return a, nil
}

// DeleteAction removes a maintenance action.
func (r *Repository) DeleteAction(ctx context.Context, actionID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM maintenance_actions WHERE id = $1`, actionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// CountByStatus returns how many devices sit in each workflow state.
func (r *Repository) CountByStatus(ctx context.Context) (map[Status]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM devices GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[Status]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[Status(status)] = n
	}
	return counts, rows.Err()
}

const ledgerDeviceColumns = `d.id, d.customer_id, COALESCE(d.estimated_cost, 0), d.delivered, d.paid, d.delivery_date,
	a.id, COALESCE(a.cost, 0), COALESCE(a.parts_cost, 0), COALESCE(a.status, '')`

// LedgerDevices returns normalized device rows for one customer with
// actions joined. NULL numerics are coerced to zero at the scan so the
// aggregation never sees missing values.
func (r *Repository) LedgerDevices(ctx context.Context, customerID int64) ([]ledger.Device, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+ledgerDeviceColumns+`
		 FROM devices d LEFT JOIN maintenance_actions a ON a.device_id = d.id
		 WHERE d.customer_id = $1
		 ORDER BY d.id, a.id`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLedgerDevices(rows)
}

// AllLedgerDevices returns normalized rows for every customer, used by
// shop-wide report aggregation.
func (r *Repository) AllLedgerDevices(ctx context.Context) ([]ledger.Device, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+ledgerDeviceColumns+`
		 FROM devices d LEFT JOIN maintenance_actions a ON a.device_id = d.id
		 ORDER BY d.id, a.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLedgerDevices(rows)
}

func collectLedgerDevices(rows pgx.Rows) ([]ledger.Device, error) {
	var (
		devices []ledger.Device
		current *ledger.Device
	)
	for rows.Next() {
		var (
			d            ledger.Device
			deliveryDate *time.Time
			actionID     *int64
			cost         float64
			partsCost    float64
			status       string
		)
		if err := rows.Scan(&d.ID, &d.CustomerID, &d.EstimatedCost, &d.Delivered, &d.Paid,
			&deliveryDate, &actionID, &cost, &partsCost, &status); err != nil {
			return nil, err
		}
		if deliveryDate != nil {
			d.DeliveryDate = *deliveryDate
		}
		if current == nil || current.ID != d.ID {
			devices = append(devices, d)
			current = &devices[len(devices)-1]
		}
		if actionID != nil {
			current.Actions = append(current.Actions, ledger.Action{
				ID:        *actionID,
				DeviceID:  current.ID,
				Cost:      cost,
				PartsCost: partsCost,
				Status:    status,
			})
		}
	}
	return devices, rows.Err()
}

var _ RepositoryPort = (*Repository)(nil)
