package devices

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/platform/httpx"
	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/rbac"
	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/shared"
)

// Handler manages device endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	rbac      rbac.Middleware
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac, validator: validator.New()}
}

// MountRoutes registers device routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermDevicesView))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Get("/{id}/actions", h.listActions)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermDevicesEdit))
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.remove)
		r.Post("/{id}/status", h.transition)
		r.Post("/{id}/paid", h.setPaid)
		r.Post("/{id}/actions", h.addAction)
		r.Put("/actions/{actionID}", h.updateAction)
		r.Delete("/actions/{actionID}", h.removeAction)
	})
}

type deviceRequest struct {
	CustomerID    int64   `json:"customer_id" validate:"required,gt=0"`
	Brand         string  `json:"brand"`
	Model         string  `json:"model"`
	SerialNumber  string  `json:"serial_number"`
	Problem       string  `json:"problem"`
	Notes         string  `json:"notes"`
	TechnicianID  *int64  `json:"technician_id"`
	EstimatedCost float64 `json:"estimated_cost" validate:"gte=0"`
}

type actionRequest struct {
	Description string  `json:"description" validate:"required"`
	Cost        float64 `json:"cost" validate:"gte=0"`
	PartsCost   float64 `json:"parts_cost" validate:"gte=0"`
	Status      string  `json:"status"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

type paidRequest struct {
	Paid bool `json:"paid"`
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
	technicianID, _ := strconv.ParseInt(q.Get("technician_id"), 10, 64)

	filter := ListFilter{
		CustomerID:   customerID,
		TechnicianID: technicianID,
		Status:       Status(q.Get("status")),
		Search:       q.Get("search"),
	}
	devices, total, err := h.service.ListDevices(r.Context(), filter, perPage, (page-1)*perPage)
	if err != nil {
		h.logger.Error("list devices", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"devices":    devices,
		"pagination": shared.NewPagination(page, perPage, total),
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	device, err := h.service.GetDevice(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, device)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeDevice(w, r)
	if !ok {
		return
	}
	device, err := h.service.CreateDevice(r.Context(), input)
	if err != nil {
		h.logger.Error("create device", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, device)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	input, ok := h.decodeDevice(w, r)
	if !ok {
		return
	}
	device, err := h.service.UpdateDevice(r.Context(), id, input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, device)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteDevice(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req statusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	device, err := h.service.Transition(r.Context(), id, Status(req.Status))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, device)
}

func (h *Handler) setPaid(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req paidRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	device, err := h.service.SetPaid(r.Context(), id, req.Paid)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, device)
}

func (h *Handler) listActions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	actions, err := h.service.ListActions(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"actions": actions})
}

func (h *Handler) addAction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	input, ok := h.decodeAction(w, r)
	if !ok {
		return
	}
	action, err := h.service.AddAction(r.Context(), id, input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, action)
}

func (h *Handler) updateAction(w http.ResponseWriter, r *http.Request) {
	actionID, ok := pathID(w, r, "actionID")
	if !ok {
		return
	}
	input, ok := h.decodeAction(w, r)
	if !ok {
		return
	}
	action, err := h.service.UpdateAction(r.Context(), actionID, input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, action)
}

func (h *Handler) removeAction(w http.ResponseWriter, r *http.Request) {
	actionID, ok := pathID(w, r, "actionID")
	if !ok {
		return
	}
	if err := h.service.DeleteAction(r.Context(), actionID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) decodeDevice(w http.ResponseWriter, r *http.Request) (DeviceInput, bool) {
	var req deviceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return DeviceInput{}, false
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return DeviceInput{}, false
	}
	return DeviceInput{
		CustomerID:    req.CustomerID,
		Brand:         req.Brand,
		Model:         req.Model,
		SerialNumber:  req.SerialNumber,
		Problem:       req.Problem,
		Notes:         req.Notes,
		TechnicianID:  req.TechnicianID,
		EstimatedCost: req.EstimatedCost,
	}, true
}

func (h *Handler) decodeAction(w http.ResponseWriter, r *http.Request) (ActionInput, bool) {
	var req actionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return ActionInput{}, false
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return ActionInput{}, false
	}
	return ActionInput{
		Description: req.Description,
		Cost:        req.Cost,
		PartsCost:   req.PartsCost,
		Status:      req.Status,
	}, true
}

func pathID(w http.ResponseWriter, r *http.Request, key string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, key), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid ID")
		return 0, false
	}
	return id, true
}
