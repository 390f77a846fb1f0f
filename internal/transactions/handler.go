package transactions

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/ledger"
	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/platform/httpx"
	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/rbac"
	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/shared"
)

// Handler manages transaction endpoints.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	rbac        rbac.Middleware
	validator   *validator.Validate
	idempotency *shared.IdempotencyStore
}

// NewHandler builds a Handler instance. idempotency may be nil.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware, idempotency *shared.IdempotencyStore) *Handler {
	return &Handler{
		logger:      logger,
		service:     service,
		rbac:        rbac,
		validator:   validator.New(),
		idempotency: idempotency,
	}
}

// MountRoutes registers transaction routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermTransactionsView))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermTransactionsEdit))
		r.Post("/", h.create)
		r.Delete("/{id}", h.remove)
	})
}

type transactionRequest struct {
	CustomerID  int64   `json:"customer_id" validate:"required,gt=0"`
	Type        string  `json:"type" validate:"required,oneof=payment charge refund adjustment"`
	Amount      float64 `json:"amount" validate:"gte=0"`
	Date        string  `json:"date"`
	Reference   string  `json:"reference"`
	Description string  `json:"description"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 50
	}
	customerID, _ := strconv.ParseInt(q.Get("customer_id"), 10, 64)

	filter := ListFilter{
		CustomerID: customerID,
		Type:       ledger.TransactionType(q.Get("type")),
	}
	if from := q.Get("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid from timestamp")
			return
		}
		filter.From = t
	}
	if to := q.Get("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid to timestamp")
			return
		}
		filter.To = t
	}

	transactions, total, err := h.service.ListTransactions(r.Context(), filter, perPage, (page-1)*perPage)
	if err != nil {
		h.logger.Error("list transactions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"transactions": transactions,
		"pagination":   shared.NewPagination(page, perPage, total),
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid transaction ID")
		return
	}
	transaction, err := h.service.GetTransaction(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, transaction)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	input := TransactionInput{
		CustomerID:  req.CustomerID,
		Type:        ledger.TransactionType(req.Type),
		Amount:      req.Amount,
		Reference:   req.Reference,
		Description: req.Description,
	}
	if req.Date != "" {
		t, err := time.Parse(time.RFC3339, req.Date)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid date timestamp")
			return
		}
		input.Date = t
	}
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		if uid, err := strconv.ParseInt(sess.User(), 10, 64); err == nil {
			input.CreatedBy = uid
		}
	}

	idemKey := r.Header.Get("Idempotency-Key")
	if idemKey != "" && h.idempotency != nil {
		if err := h.idempotency.CheckAndInsert(r.Context(), idemKey, "transactions"); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				httpx.Problem(w, http.StatusConflict, "Conflict", "request already processed")
				return
			}
			h.logger.Error("idempotency check", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
	}

	transaction, err := h.service.RecordTransaction(r.Context(), input)
	if err != nil {
		if idemKey != "" && h.idempotency != nil {
			// Free the key so the caller can retry after fixing the request.
			if delErr := h.idempotency.Delete(r.Context(), idemKey); delErr != nil {
				h.logger.Warn("idempotency rollback", slog.Any("error", delErr))
			}
		}
		h.logger.Error("record transaction", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, transaction)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid transaction ID")
		return
	}
	if err := h.service.DeleteTransaction(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
