package transactions

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

// ReportInvalidator bumps cached report figures after a mutation that
// changes the ledger inputs.
type ReportInvalidator interface {
	InvalidateDashboard(ctx context.Context) error
}

// Service handles transaction business logic.
type Service struct {
	logger  *slog.Logger
	repo    RepositoryPort
	reports ReportInvalidator
	audit   *shared.AuditLogger
}

// NewService builds a Service instance. reports and audit may be nil in
// tests.
func NewService(logger *slog.Logger, repo RepositoryPort, reports ReportInvalidator, audit *shared.AuditLogger) *Service {
	return &Service{logger: logger, repo: repo, reports: reports, audit: audit}
}

// ListTransactions returns a page of transactions.
func (s *Service) ListTransactions(ctx context.Context, filter ListFilter, limit, offset int) ([]Transaction, int, error) {
	return s.repo.ListTransactions(ctx, filter, limit, offset)
}

// GetTransaction fetches one transaction.
func (s *Service) GetTransaction(ctx context.Context, id int64) (Transaction, error) {
	return s.repo.GetTransaction(ctx, id)
}

// RecordTransaction validates and inserts a ledger entry. Amounts are
// non-negative by construction; the entry type carries the direction.
func (s *Service) RecordTransaction(ctx context.Context, input TransactionInput) (Transaction, error) {
	if input.CustomerID <= 0 {
		return Transaction{}, fmt.Errorf("%w: customer required", httpx.ErrValidation)
	}
	if !validType(input.Type) {
		return Transaction{}, fmt.Errorf("%w: unknown transaction type %q", httpx.ErrValidation, input.Type)
	}
	if input.Amount < 0 {
		return Transaction{}, fmt.Errorf("%w: amount cannot be negative", httpx.ErrValidation)
	}
	input.Reference = strings.TrimSpace(input.Reference)
	input.Description = strings.TrimSpace(input.Description)
	if input.Date.IsZero() {
		input.Date = time.Now()
	}

	transaction, err := s.repo.CreateTransaction(ctx, input)
	if err != nil {
		return Transaction{}, err
	}
	s.bumpReports(ctx)
	s.recordAudit(ctx, "transaction.create", transaction.ID, map[string]any{
		"customer_id": transaction.CustomerID,
		"type":        string(transaction.Type),
		"amount":      transaction.Amount,
	})
	return transaction, nil
}

// DeleteTransaction removes a ledger entry.
func (s *Service) DeleteTransaction(ctx context.Context, id int64) error {
	if err := s.repo.DeleteTransaction(ctx, id); err != nil {
		return err
	}
	s.bumpReports(ctx)
	s.recordAudit(ctx, "transaction.delete", id, nil)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  shared.ActorIDFromContext(ctx),
		Action:   action,
		Entity:   "transaction",
		EntityID: strconv.FormatInt(id, 10),
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
