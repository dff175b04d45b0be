package service

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/listkeep/listkeep/internal/auth"
	"github.com/listkeep/listkeep/internal/middleware"
)

// AuthService implements the registration, login and logout endpoints.
type AuthService struct {
	authenticator auth.Authenticator
	sessions      *auth.SessionManager
	secureCookies bool
	logger        *slog.Logger
}

// NewAuthService creates a new authentication service. secureCookies should
// be true in production so session cookies only travel over TLS.
func NewAuthService(authenticator auth.Authenticator, sessions *auth.SessionManager, secureCookies bool, logger *slog.Logger) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		sessions:      sessions,
		secureCookies: secureCookies,
		logger:        logger,
	}
}

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleRegister creates a new user account and immediately establishes a
// session for it: register implies login.
func (s *AuthService) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	s.logger.Info("Register request", "email", req.Email, "username", req.Username)

	if req.Email == "" || req.Username == "" {
		writeError(w, r, fmt.Errorf("%w: email and username are required", ErrBadRequest))
		return
	}

	user, err := s.authenticator.Register(r.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		s.logger.Warn("Registration failed", "email", req.Email, "error", err)
		writeError(w, r, err)
		return
	}

	token, err := s.sessions.Create(r.Context(), user)
	if err != nil {
		s.logger.Error("Failed to create session", "user_id", user.ID, "error", err)
		writeError(w, r, err)
		return
	}

	http.SetCookie(w, s.sessionCookie(token))
	s.logger.Info("User registered successfully", "user_id", user.ID, "username", user.Username)
	writeJSON(w, http.StatusOK, user)
}

// HandleLogin authenticates a user and establishes a session. The uniform
// 401 never reveals whether the login or the password was wrong.
func (s *AuthService) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	s.logger.Info("Login request", "username", req.Username)

	if req.Username == "" || req.Password == "" {
		writeError(w, r, auth.ErrInvalidCredentials)
		return
	}

	user, err := s.authenticator.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		s.logger.Warn("Login failed", "username", req.Username)
		writeError(w, r, auth.ErrInvalidCredentials)
		return
	}

	token, err := s.sessions.Create(r.Context(), user)
	if err != nil {
		s.logger.Error("Failed to create session", "user_id", user.ID, "error", err)
		writeError(w, r, err)
		return
	}

	http.SetCookie(w, s.sessionCookie(token))
	s.logger.Info("User logged in successfully", "user_id", user.ID, "username", user.Username)
	writeJSON(w, http.StatusOK, user)
}

// HandleLogout destroys the caller's session and clears the cookie.
// Logging out twice is not an error.
func (s *AuthService) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookie); err == nil {
		if err := s.sessions.Destroy(r.Context(), cookie.Value); err != nil {
			writeError(w, r, err)
			return
		}
	}

	expired := s.sessionCookie("")
	expired.MaxAge = -1
	http.SetCookie(w, expired)

	s.logger.Info("Logout request", "user_id", middleware.GetUserID(r.Context()))
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (s *AuthService) sessionCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.sessions.Lifetime().Seconds()),
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}
