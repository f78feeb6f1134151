package authapi

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"taskward/cmd/identity"
	"taskward/cmd/internal/auth"
	"taskward/cmd/internal/auth/session"
	"taskward/cmd/security/password"
	"taskward/cmd/security/token"

	"github.com/prometheus/client_golang/prometheus"
)

// Handler wires the HTTP auth endpoints to the auth service.
type Handler struct {
	log      *slog.Logger
	cfg      Config
	svc      *auth.Service
	tokens   *token.Codec
	outcomes *prometheus.CounterVec
}

// HandlerOption configures optional Handler wiring.
type HandlerOption func(*Handler)

// WithOutcomeCounter attaches a counter labelled (op, outcome) that is
// bumped once per finished auth operation.
func WithOutcomeCounter(c *prometheus.CounterVec) HandlerOption {
	return func(h *Handler) { h.outcomes = c }
}

// NewHandler constructs an auth Handler.
func NewHandler(log *slog.Logger, cfg Config, svc *auth.Service, tokens *token.Codec, opts ...HandlerOption) (*Handler, error) {
	if log == nil {
		log = slog.Default()
	}
	if svc == nil {
		return nil, errors.New("authapi: nil auth service")
	}
	if tokens == nil {
		return nil, errors.New("authapi: nil token codec")
	}
	h := &Handler{log: log, cfg: cfg, svc: svc, tokens: tokens}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

func (h *Handler) countOutcome(op, outcome string) {
	if h.outcomes == nil {
		return
	}
	h.outcomes.WithLabelValues(op, outcome).Inc()
}

// Register wires auth routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("/auth/register", h.handleRegister)
	mux.HandleFunc("/auth/login", h.handleLogin)
	mux.HandleFunc("/auth/logout", h.handleLogout)
	mux.HandleFunc("/auth/reissue-tokens/", h.handleReissue)
}

// ---- handlers ----

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	form, ok := h.parseForm(w, r)
	if !ok {
		return
	}
	creds := auth.Credentials{
		Login:    strings.TrimSpace(form.Get("login")),
		Name:     strings.TrimSpace(form.Get("name")),
		Surname:  strings.TrimSpace(form.Get("surname")),
		Password: form.Get("password"),
	}
	if creds.Login == "" || creds.Password == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "login and password are required")
		return
	}

	u, err := h.svc.Register(r.Context(), creds)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrLoginTaken):
			writeError(w, http.StatusBadRequest, "login_taken", "login is already registered")
		case errors.Is(err, password.ErrSecretTooLong):
			writeError(w, http.StatusBadRequest, "invalid_request", "password is too long")
		default:
			h.log.Error("auth.register.fail", "err", err)
			writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		}
		h.countOutcome("register", "fail")
		return
	}

	h.countOutcome("register", "ok")
	h.log.Info("auth.register.ok", "login", u.Login, "user_id", u.ID)
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	form, ok := h.parseForm(w, r)
	if !ok {
		return
	}
	username := strings.TrimSpace(form.Get("username"))
	pass := form.Get("password")
	if username == "" || pass == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "username and password are required")
		return
	}
	fingerprint := strings.TrimSpace(r.Header.Get(HeaderFingerprint))

	now := time.Now().UTC()
	issued, err := h.svc.Login(r.Context(), now, username, pass, fingerprint)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrUserNotFound):
			h.log.Info("auth.login.fail", "login", username, "reason", "not_found")
			writeError(w, http.StatusBadRequest, "user_not_found", "user not found")
		case errors.Is(err, auth.ErrInvalidPassword):
			h.log.Info("auth.login.fail", "login", username, "reason", "bad_password")
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "wrong password")
		case errors.Is(err, session.ErrTooManySessions):
			h.log.Info("auth.login.fail", "login", username, "reason", "too_many_sessions")
			writeError(w, http.StatusTooManyRequests, "too_many_sessions", "maximum number of sessions reached")
		default:
			h.log.Error("auth.login.fail", "login", username, "err", err)
			writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		}
		h.countOutcome("login", "fail")
		return
	}

	h.countOutcome("login", "ok")
	h.log.Info("auth.login.ok", "login", username)
	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken:  issued.AccessToken,
		TokenType:    "Bearer",
		LoggedAt:     now,
		RefreshToken: issued.RefreshToken,
		Fingerprint:  issued.Fingerprint,
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	claims, ok := h.gate(w, r)
	if !ok {
		return
	}
	fingerprint := strings.TrimSpace(r.Header.Get(HeaderFingerprint))

	if err := h.svc.Logout(r.Context(), claims.Login, fingerprint); err != nil {
		h.log.Error("auth.logout.fail", "login", claims.Login, "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		h.countOutcome("logout", "fail")
		return
	}

	h.countOutcome("logout", "ok")
	h.log.Info("auth.logout.ok", "login", claims.Login)
	writeJSON(w, http.StatusOK, logoutResponse{
		User:   claims.Login,
		Status: "logged out",
	})
}

func (h *Handler) handleReissue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	login := strings.Trim(strings.TrimPrefix(r.URL.Path, "/auth/reissue-tokens/"), "/")
	if login == "" || strings.Contains(login, "/") {
		writeError(w, http.StatusBadRequest, "invalid_request", "login path segment is required")
		return
	}

	presented := strings.TrimSpace(r.Header.Get(HeaderRefreshToken))
	fingerprint := strings.TrimSpace(r.Header.Get(HeaderFingerprint))
	if presented == "" || fingerprint == "" {
		h.log.Info("auth.reissue.fail", "login", login, "reason", "missing_headers")
		writeUnauthorized(w)
		h.countOutcome("reissue", "fail")
		return
	}

	now := time.Now().UTC()
	issued, err := h.svc.Reissue(r.Context(), now, login, presented, fingerprint)
	if err != nil {
		// Every validation failure collapses to the constant 401; the
		// sub-case is only visible in the logs.
		switch {
		case errors.Is(err, identity.ErrUserNotFound):
			h.log.Info("auth.reissue.fail", "login", login, "reason", "not_found")
			writeUnauthorized(w)
		case errors.Is(err, session.ErrSessionNotFound):
			h.log.Info("auth.reissue.fail", "login", login, "reason", "session_not_found")
			writeUnauthorized(w)
		case errors.Is(err, session.ErrRefreshTokenMismatch):
			h.log.Info("auth.reissue.fail", "login", login, "reason", "token_mismatch")
			writeUnauthorized(w)
		case errors.Is(err, session.ErrRefreshTokenExpired):
			h.log.Info("auth.reissue.fail", "login", login, "reason", "token_expired")
			writeUnauthorized(w)
		default:
			h.log.Error("auth.reissue.fail", "login", login, "err", err)
			writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		}
		h.countOutcome("reissue", "fail")
		return
	}

	h.countOutcome("reissue", "ok")
	h.log.Info("auth.reissue.ok", "login", login)
	writeJSON(w, http.StatusOK, reissueResponse{
		Login:        login,
		AccessToken:  issued.AccessToken,
		TokenType:    "Bearer",
		RefreshToken: issued.RefreshToken,
		Fingerprint:  issued.Fingerprint,
	})
}

// ---- helpers ----

func (h *Handler) parseForm(w http.ResponseWriter, r *http.Request) (url.Values, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxBodyBytes)
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid form body")
		return nil, false
	}
	return r.PostForm, true
}
