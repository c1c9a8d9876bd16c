package handlers

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/alvinroe04/scheduler/libs/auth"
	"github.com/alvinroe04/scheduler/services/appointment-service/internal/audit"
	"github.com/alvinroe04/scheduler/services/appointment-service/internal/hours"
	"github.com/alvinroe04/scheduler/services/appointment-service/internal/session"
	"github.com/alvinroe04/scheduler/services/appointment-service/internal/storage"
)

type AuthConfig struct {
	Secret   string
	Issuer   string
	TokenTTL time.Duration
}

type AuthHandler struct {
	users  UserStore
	audit  LoginRecorder
	logger *slog.Logger
	cfg    AuthConfig
	now    func() time.Time
	verify func(hash, raw string) error
}

func NewAuthHandler(users UserStore, auditRepo LoginRecorder, logger *slog.Logger, cfg AuthConfig) *AuthHandler {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 8 * time.Hour
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "appointment-service"
	}
	return &AuthHandler{users: users, audit: auditRepo, logger: logger, cfg: cfg, now: time.Now, verify: verifyPassword}
}

type loginRequest struct {
	UserName string `json:"user_name"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	UserID      int       `json:"user_id"`
	UserName    string    `json:"user_name"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.UserName = strings.TrimSpace(req.UserName)
	if req.UserName == "" || req.Password == "" {
		http.Error(w, "user_name and password required", http.StatusBadRequest)
		return
	}

	now := h.now()
	user, err := h.users.GetByName(r.Context(), req.UserName)
	if err != nil && !storage.IsNotFound(err) {
		http.Error(w, "failed to lookup user", http.StatusInternalServerError)
		return
	}
	// Unknown names still pay for a bcrypt compare so response time does
	// not reveal which user names exist.
	found := err == nil
	hash := user.PasswordHash
	if !found {
		hash = dummyHash()
	}
	ok := h.verify(hash, req.Password) == nil && found
	h.record(r, req.UserName, ok, now)
	if !ok {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	claims := auth.NewClaims(user.ID, user.Name, h.cfg.Issuer, h.cfg.TokenTTL, now)
	token, err := auth.SignHS256(claims, h.cfg.Secret)
	if err != nil {
		http.Error(w, "failed to issue token", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   claims.ExpiresAt.Time,
		UserID:      user.ID,
		UserName:    user.Name,
	})
}

func (h *AuthHandler) record(r *http.Request, userName string, success bool, at time.Time) {
	if h.audit == nil {
		return
	}
	err := h.audit.RecordLogin(r.Context(), audit.LoginAttempt{
		UserName:   userName,
		At:         at,
		Success:    success,
		RemoteAddr: remoteHost(r),
	})
	if err != nil {
		h.logger.Error("record login attempt failed", "err", err, "user_name", userName)
	}
}

type loginAttemptResponse struct {
	UserName    string    `json:"user_name"`
	AttemptedAt time.Time `json:"attempted_at"`
	Success     bool      `json:"success"`
	RemoteAddr  string    `json:"remote_addr"`
}

// Logins lists recent sign-in attempts, newest first.
func (h *AuthHandler) Logins(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 500 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	if h.audit == nil {
		writeJSON(w, http.StatusOK, []loginAttemptResponse{})
		return
	}
	attempts, err := h.audit.Recent(r.Context(), limit)
	if err != nil {
		h.logger.Error("list login attempts failed", "err", err)
		http.Error(w, "failed to list login attempts", http.StatusInternalServerError)
		return
	}
	out := make([]loginAttemptResponse, 0, len(attempts))
	for _, a := range attempts {
		out = append(out, loginAttemptResponse{
			UserName:    a.UserName,
			AttemptedAt: a.At.UTC(),
			Success:     a.Success,
			RemoteAddr:  a.RemoteAddr,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// SessionBase is the part of every session that does not depend on who
// signed in.
type SessionBase struct {
	Location  *time.Location
	Hours     *hours.Calendar
	Directory *session.Directory
}

// RequireAuth rejects requests without a valid bearer token and attaches a
// session.Context built from the token to the rest.
func RequireAuth(secret string, base SessionBase) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := auth.BearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "missing or invalid Authorization header", http.StatusUnauthorized)
				return
			}
			claims, err := auth.ParseAndVerifyHS256(token, secret)
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			loc := base.Location
			if loc == nil {
				loc = time.Local
			}
			sess := &session.Context{
				UserID:    claims.UserID,
				UserName:  claims.UserName,
				Location:  loc,
				Hours:     base.Hours,
				Directory: base.Directory,
			}
			next.ServeHTTP(w, r.WithContext(session.WithContext(r.Context(), sess)))
		})
	}
}

func HashPassword(raw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

var dummyHash = sync.OnceValue(func() string {
	hash, err := HashPassword("appointment-service-unknown-user")
	if err != nil {
		return ""
	}
	return hash
})

func verifyPassword(hash string, raw string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw))
}
