package auth

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/platform/httpx"
	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/rbac"
	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	rbacService    *rbac.Service
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager, csrf *shared.CSRFManager, rbacService *rbac.Service) *Handler {
	return &Handler{
		logger:         logger,
		service:        service,
		sessionManager: sessions,
		csrfManager:    csrf,
		rbacService:    rbacService,
		validator:      validator.New(),
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/session", h.currentSession)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type sessionResponse struct {
	UserID      int64    `json:"user_id"`
	Email       string   `json:"email,omitempty"`
	Name        string   `json:"name,omitempty"`
	Permissions []string `json:"permissions"`
	CSRFToken   string   `json:"csrf_token"`
}

// currentSession reports the logged-in user and a CSRF token for the
// browser to attach to mutating requests. Anonymous sessions still get
// a token so the login request itself can pass the CSRF gate.
func (h *Handler) currentSession(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	if sess.User() == "" {
		token, _ := h.csrfManager.EnsureToken(r.Context(), sess)
		httpx.JSON(w, http.StatusOK, sessionResponse{Permissions: []string{}, CSRFToken: token})
		return
	}
	userID, _ := strconv.ParseInt(sess.User(), 10, 64)
	perms, err := h.rbacService.EffectivePermissions(r.Context(), userID)
	if err != nil {
		h.logger.Error("resolve permissions", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	token, _ := h.csrfManager.EnsureToken(r.Context(), sess)
	httpx.JSON(w, http.StatusOK, sessionResponse{
		UserID:      userID,
		Permissions: perms,
		CSRFToken:   token,
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "email and password are required")
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Warn("login failed", slog.String("email", req.Email))
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid credentials")
		return
	}

	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	sess.SetUser(strconv.FormatInt(user.ID, 10))
	h.rbacService.InvalidateUser(r.Context(), user.ID)

	expiresAt := time.Now().Add(h.sessionManager.TTL())
	if err := h.service.RegisterSession(r.Context(), sess.ID, user.ID, expiresAt, r.RemoteAddr, r.UserAgent()); err != nil {
		h.logger.Error("register session", slog.Any("error", err))
	}

	perms, err := h.rbacService.EffectivePermissions(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("resolve permissions", slog.Any("error", err))
		perms = nil
	}
	token, _ := h.csrfManager.EnsureToken(r.Context(), sess)

	httpx.JSON(w, http.StatusOK, sessionResponse{
		UserID:      user.ID,
		Email:       user.Email,
		Name:        user.Name,
		Permissions: perms,
		CSRFToken:   token,
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		if userID, err := strconv.ParseInt(sess.User(), 10, 64); err == nil {
			h.rbacService.InvalidateUser(r.Context(), userID)
		}
		if err := h.service.RemoveSession(r.Context(), sess.ID); err != nil {
			h.logger.Warn("remove session", slog.Any("error", err))
		}
		h.sessionManager.Destroy(sess)
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}
