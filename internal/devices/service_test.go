package devices

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/platform/httpx"
)

type memoryDeviceRepo struct {
	devices      map[int64]Device
	actions      map[int64]MaintenanceAction
	nextDeviceID int64
	nextActionID int64
}

func newMemoryDeviceRepo() *memoryDeviceRepo {
	return &memoryDeviceRepo{
		devices: make(map[int64]Device),
		actions: make(map[int64]MaintenanceAction),
	}
}

func (r *memoryDeviceRepo) ListDevices(ctx context.Context, filter ListFilter, limit, offset int) ([]Device, int, error) {
	var out []Device
	for _, d := range r.devices {
		out = append(out, d)
	}
	return out, len(out), nil
}

func (r *memoryDeviceRepo) GetDevice(ctx context.Context, id int64) (Device, error) {
	d, ok := r.devices[id]
	if !ok {
		return Device{}, httpx.ErrNotFound
	}
	d.Actions = nil
	for _, a := range r.actions {
		if a.DeviceID == id {
			d.Actions = append(d.Actions, a)
		}
	}
	return d, nil
}

func (r *memoryDeviceRepo) CreateDevice(ctx context.Context, input DeviceInput) (Device, error) {
	r.nextDeviceID++
	d := Device{
		ID:            r.nextDeviceID,
		CustomerID:    input.CustomerID,
		Brand:         input.Brand,
		Model:         input.Model,
		Status:        StatusReceived,
		TechnicianID:  input.TechnicianID,
		EstimatedCost: input.EstimatedCost,
	}
	r.devices[d.ID] = d
	return d, nil
}

func (r *memoryDeviceRepo) UpdateDevice(ctx context.Context, id int64, input DeviceInput) (Device, error) {
	d, ok := r.devices[id]
	if !ok {
		return Device{}, httpx.ErrNotFound
	}
	d.Brand = input.Brand
	d.Model = input.Model
	d.EstimatedCost = input.EstimatedCost
	r.devices[id] = d
	return d, nil
}

func (r *memoryDeviceRepo) DeleteDevice(ctx context.Context, id int64) error {
	if _, ok := r.devices[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(r.devices, id)
	return nil
}

func (r *memoryDeviceRepo) SetStatus(ctx context.Context, id int64, status Status, delivered bool, deliveryDate *time.Time) error {
	d, ok := r.devices[id]
	if !ok {
		return httpx.ErrNotFound
	}
	d.Status = status
	d.Delivered = delivered
	d.DeliveryDate = deliveryDate
	r.devices[id] = d
	return nil
}

func (r *memoryDeviceRepo) SetPaid(ctx context.Context, id int64, paid bool) error {
	d, ok := r.devices[id]
	if !ok {
		return httpx.ErrNotFound
	}
	d.Paid = paid
	r.devices[id] = d
	return nil
}

func (r *memoryDeviceRepo) ListActions(ctx context.Context, deviceID int64) ([]MaintenanceAction, error) {
	var out []MaintenanceAction
	for _, a := range r.actions {
		if a.DeviceID == deviceID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memoryDeviceRepo) CreateAction(ctx context.Context, deviceID int64, input ActionInput) (MaintenanceAction, error) {
	r.nextActionID++
	a := MaintenanceAction{
		ID:          r.nextActionID,
		DeviceID:    deviceID,
		Description: input.Description,
		Cost:        input.Cost,
		PartsCost:   input.PartsCost,
		Status:      input.Status,
	}
	r.actions[a.ID] = a
	return a, nil
}

func (r *memoryDeviceRepo) UpdateAction(ctx context.Context, actionID int64, input ActionInput) (MaintenanceAction, error) {
	a, ok := r.actions[actionID]
	if !ok {
		return MaintenanceAction{}, httpx.ErrNotFound
	}
	a.Description = input.Description
	a.Cost = input.Cost
	a.PartsCost = input.PartsCost
	r.actions[actionID] = a
	return a, nil
}

func (r *memoryDeviceRepo) DeleteAction(ctx context.Context, actionID int64) error {
	if _, ok := r.actions[actionID]; !ok {
		return httpx.ErrNotFound
	}
	delete(r.actions, actionID)
	return nil
}

func (r *memoryDeviceRepo) CountByStatus(ctx context.Context) (map[Status]int, error) {
	counts := make(map[Status]int)
	for _, d := range r.devices {
		counts[d.Status]++
	}
	return counts, nil
}

type recordingNotifier struct {
	delivered []Device
}

func (n *recordingNotifier) NotifyDelivered(ctx context.Context, device Device) error {
	n.delivered = append(n.delivered, device)
	return nil
}

type countingInvalidator struct {
	calls int
}

func (i *countingInvalidator) InvalidateDashboard(ctx context.Context) error {
	i.calls++
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(t *testing.T) (*Service, *memoryDeviceRepo, *recordingNotifier, *countingInvalidator) {
	t.Helper()
	repo := newMemoryDeviceRepo()
	notifier := &recordingNotifier{}
	invalidator := &countingInvalidator{}
	return NewService(testLogger(), repo, notifier, invalidator, nil), repo, notifier, invalidator
}

func TestCreateDeviceStartsReceived(t *testing.T) {
	svc, _, _, invalidator := newTestService(t)

	d, err := svc.CreateDevice(context.Background(), DeviceInput{CustomerID: 1, Brand: "Samsung", Model: "A52"})
	require.NoError(t, err)
	require.Equal(t, StatusReceived, d.Status)
	require.False(t, d.Delivered)
	require.Equal(t, 1, invalidator.calls)
}

func TestCreateDeviceValidation(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateDevice(ctx, DeviceInput{Brand: "Samsung"})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.CreateDevice(ctx, DeviceInput{CustomerID: 1})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.CreateDevice(ctx, DeviceInput{CustomerID: 1, Brand: "Samsung", EstimatedCost: -5})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestTransitionWalksWorkflow(t *testing.T) {
	svc, _, notifier, _ := newTestService(t)
	ctx := context.Background()

	d, err := svc.CreateDevice(ctx, DeviceInput{CustomerID: 1, Brand: "Samsung"})
	require.NoError(t, err)

	d, err = svc.Transition(ctx, d.ID, StatusInProgress)
	require.NoError(t, err)
	require.Equal(t, StatusInProgress, d.Status)

	d, err = svc.Transition(ctx, d.ID, StatusCompleted)
	require.NoError(t, err)

	d, err = svc.Transition(ctx, d.ID, StatusDelivered)
	require.NoError(t, err)
	require.True(t, d.Delivered)
	require.NotNil(t, d.DeliveryDate)
	require.Len(t, notifier.delivered, 1)
	require.Equal(t, d.ID, notifier.delivered[0].ID)
}

func TestTransitionRejectsSkips(t *testing.T) {
	svc, _, notifier, _ := newTestService(t)
	ctx := context.Background()

	d, err := svc.CreateDevice(ctx, DeviceInput{CustomerID: 1, Brand: "Samsung"})
	require.NoError(t, err)

	_, err = svc.Transition(ctx, d.ID, StatusDelivered)
	require.ErrorIs(t, err, httpx.ErrConflict)
	require.Empty(t, notifier.delivered)

	_, err = svc.Transition(ctx, d.ID, Status("lost"))
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestAddActionBlockedAfterDelivery(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	d, err := svc.CreateDevice(ctx, DeviceInput{CustomerID: 1, Brand: "Samsung"})
	require.NoError(t, err)

	_, err = svc.AddAction(ctx, d.ID, ActionInput{Description: "screen swap", Cost: 100, PartsCost: 40})
	require.NoError(t, err)

	stored := repo.devices[d.ID]
	stored.Status = StatusDelivered
	repo.devices[d.ID] = stored

	_, err = svc.AddAction(ctx, d.ID, ActionInput{Description: "battery", Cost: 50})
	require.ErrorIs(t, err, httpx.ErrConflict)
}

func TestActionValidation(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	d, err := svc.CreateDevice(ctx, DeviceInput{CustomerID: 1, Brand: "Samsung"})
	require.NoError(t, err)

	_, err = svc.AddAction(ctx, d.ID, ActionInput{Description: "   "})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.AddAction(ctx, d.ID, ActionInput{Description: "screen", Cost: -1})
	require.ErrorIs(t, err, httpx.ErrValidation)

	a, err := svc.AddAction(ctx, d.ID, ActionInput{Description: "screen", Cost: 10})
	require.NoError(t, err)
	require.Equal(t, "done", a.Status)
}

func TestSetPaid(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	d, err := svc.CreateDevice(ctx, DeviceInput{CustomerID: 1, Brand: "Samsung"})
	require.NoError(t, err)

	d, err = svc.SetPaid(ctx, d.ID, true)
	require.NoError(t, err)
	require.True(t, d.Paid)
}
