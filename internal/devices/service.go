package devices

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/platform/httpx"
	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/shared"
)

// DeliveryNotifier enqueues the customer notification sent when a
// device is handed back.
type DeliveryNotifier interface {
	NotifyDelivered(ctx context.Context, device Device) error
}

// ReportInvalidator bumps cached report figures after a mutation that
// changes the ledger inputs.
type ReportInvalidator interface {
	InvalidateDashboard(ctx context.Context) error
}

// Service handles device workflow business logic.
type Service struct {
	logger   *slog.Logger
	repo     RepositoryPort
	notifier DeliveryNotifier
	reports  ReportInvalidator
	audit    *shared.AuditLogger
}

// NewService builds a Service instance. notifier, reports and audit may
// be nil in tests.
func NewService(logger *slog.Logger, repo RepositoryPort, notifier DeliveryNotifier, reports ReportInvalidator, audit *shared.AuditLogger) *Service {
	return &Service{logger: logger, repo: repo, notifier: notifier, reports: reports, audit: audit}
}

// ListDevices returns a page of devices.
func (s *Service) ListDevices(ctx context.Context, filter ListFilter, limit, offset int) ([]Device, int, error) {
	return s.repo.ListDevices(ctx, filter, limit, offset)
}

// GetDevice fetches one device with its actions.
func (s *Service) GetDevice(ctx context.Context, id int64) (Device, error) {
	return s.repo.GetDevice(ctx, id)
}

// CreateDevice registers a new intake in the received state.
func (s *Service) CreateDevice(ctx context.Context, input DeviceInput) (Device, error) {
	if err := validateInput(input); err != nil {
		return Device{}, err
	}
	device, err := s.repo.CreateDevice(ctx, input)
	if err != nil {
		return Device{}, err
	}
	s.bumpReports(ctx)
	s.recordAudit(ctx, "device.create", device.ID, map[string]any{"customer_id": device.CustomerID})
	return device, nil
}

// UpdateDevice updates intake fields of an existing device.
func (s *Service) UpdateDevice(ctx context.Context, id int64, input DeviceInput) (Device, error) {
	if err := validateInput(input); err != nil {
		return Device{}, err
	}
	device, err := s.repo.UpdateDevice(ctx, id, input)
	if err != nil {
		return Device{}, err
	}
	s.bumpReports(ctx)
	return device, nil
}

// DeleteDevice removes a device and its actions.
func (s *Service) DeleteDevice(ctx context.Context, id int64) error {
	if err := s.repo.DeleteDevice(ctx, id); err != nil {
		return err
	}
	s.bumpReports(ctx)
	s.recordAudit(ctx, "device.delete", id, nil)
	return nil
}

// Transition moves a device forward in the workflow. Delivery stamps
// the delivery date and enqueues the customer notification.
func (s *Service) Transition(ctx context.Context, id int64, to Status) (Device, error) {
	if !ValidStatus(to) {
		return Device{}, fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, to)
	}
	device, err := s.repo.GetDevice(ctx, id)
	if err != nil {
		return Device{}, err
	}
	if !CanTransition(device.Status, to) {
		return Device{}, fmt.Errorf("%w: cannot move device from %s to %s", httpx.ErrConflict, device.Status, to)
	}

	var deliveryDate *time.Time
	delivered := to == StatusDelivered
	if delivered {
		now := time.Now()
		deliveryDate = &now
	}
	if err := s.repo.SetStatus(ctx, id, to, delivered, deliveryDate); err != nil {
		return Device{}, err
	}

	device.Status = to
	device.Delivered = delivered
	device.DeliveryDate = deliveryDate
	s.bumpReports(ctx)
	s.recordAudit(ctx, "device.transition", id, map[string]any{"status": string(to)})

	if delivered && s.notifier != nil {
		if err := s.notifier.NotifyDelivered(ctx, device); err != nil {
			// Delivery already happened; a lost notification must not
			// roll back the workflow.
			s.logger.Error("enqueue delivery notification", slog.Any("error", err), slog.Int64("device_id", id))
		}
	}
	return device, nil
}

// SetPaid flips the paid flag on a device.
func (s *Service) SetPaid(ctx context.Context, id int64, paid bool) (Device, error) {
	if err := s.repo.SetPaid(ctx, id, paid); err != nil {
		return Device{}, err
	}
	s.bumpReports(ctx)
	s.recordAudit(ctx, "device.paid", id, map[string]any{"paid": paid})
	return s.repo.GetDevice(ctx, id)
}

// ListActions returns the maintenance actions of a device.
func (s *Service) ListActions(ctx context.Context, deviceID int64) ([]MaintenanceAction, error) {
	if _, err := s.repo.GetDevice(ctx, deviceID); err != nil {
		return nil, err
	}
	return s.repo.ListActions(ctx, deviceID)
}

// AddAction records a maintenance step under a device.
func (s *Service) AddAction(ctx context.Context, deviceID int64, input ActionInput) (MaintenanceAction, error) {
	device, err := s.repo.GetDevice(ctx, deviceID)
	if err != nil {
		return MaintenanceAction{}, err
	}
	if device.Status == StatusDelivered {
		return MaintenanceAction{}, fmt.Errorf("%w: device already delivered", httpx.ErrConflict)
	}
	normalized, err := normalizeAction(input)
	if err != nil {
		return MaintenanceAction{}, err
	}
	action, err := s.repo.CreateAction(ctx, deviceID, normalized)
	if err != nil {
		return MaintenanceAction{}, err
	}
	s.bumpReports(ctx)
	return action, nil
}

// UpdateAction updates a maintenance step.
func (s *Service) UpdateAction(ctx context.Context, actionID int64, input ActionInput) (MaintenanceAction, error) {
	normalized, err := normalizeAction(input)
	if err != nil {
		return MaintenanceAction{}, err
	}
	action, err := s.repo.UpdateAction(ctx, actionID, normalized)
	if err != nil {
		return MaintenanceAction{}, err
	}
	s.bumpReports(ctx)
	return action, nil
}

// DeleteAction removes a maintenance step.
func (s *Service) DeleteAction(ctx context.Context, actionID int64) error {
	if err := s.repo.DeleteAction(ctx, actionID); err != nil {
		return err
	}
	s.bumpReports(ctx)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, action string, deviceID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  shared.ActorIDFromContext(ctx),
		Action:   action,
		Entity:   "device",
		EntityID: strconv.FormatInt(deviceID, 10),
		Meta:     meta,
	})
	if err != nil {
		s.logger.Warn("audit record", slog.Any("error", err))
	}
}

func (s *Service) bumpReports(ctx context.Context) {
	if s.reports == nil {
		return
	}
	if err := s.reports.InvalidateDashboard(ctx); err != nil {
		s.logger.Warn("invalidate report cache", slog.Any("error", err))
	}
}

func validateInput(input DeviceInput) error {
	if input.CustomerID <= 0 {
		return fmt.Errorf("%w: customer required", httpx.ErrValidation)
	}
	if strings.TrimSpace(input.Brand) == "" && strings.TrimSpace(input.Model) == "" {
		return fmt.Errorf("%w: brand or model required", httpx.ErrValidation)
	}
	if input.EstimatedCost < 0 {
		return fmt.Errorf("%w: estimated cost cannot be negative", httpx.ErrValidation)
	}
	return nil
}

func normalizeAction(input ActionInput) (ActionInput, error) {
	input.Description = strings.TrimSpace(input.Description)
	if input.Description == "" {
		return ActionInput{}, fmt.Errorf("%w: description required", httpx.ErrValidation)
	}
	if input.Cost < 0 || input.PartsCost < 0 {
		return ActionInput{}, fmt.Errorf("%w: costs cannot be negative", httpx.ErrValidation)
	}
	if input.Status == "" {
		input.Status = "done"
	}
	return input, nil
}
