package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/listkeep/listkeep/internal/models"
	"github.com/listkeep/listkeep/internal/storage"
)

var (
	ErrInvalidSession = errors.New("invalid or expired session")
	ErrMissingSession = errors.New("session token required")
)

// SessionStorage defines the persistence operations sessions need.
type SessionStorage interface {
	CreateSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, id string) (*models.Session, error)
	DeleteSession(ctx context.Context, id string) error
}

// Identity is the authenticated caller resolved from a session token.
// It is bound to the request context once and passed explicitly to every
// downstream call; nothing reads it from global state.
type Identity struct {
	UserID   string
	Username string
}

// Claims are the signed contents of a session token. The token proves
// integrity and expiry; the referenced session row provides revocation,
// so a logged-out token is rejected even before it expires.
type Claims struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	jwt.RegisteredClaims
}

// SessionManager establishes, validates and destroys login sessions.
type SessionManager struct {
	storage  SessionStorage
	secret   []byte
	lifetime time.Duration
}

// NewSessionManager creates a session manager. secret should be a strong
// random string; lifetime is the fixed session duration (e.g. 24 hours).
func NewSessionManager(storage SessionStorage, secret string, lifetime time.Duration) *SessionManager {
	return &SessionManager{
		storage:  storage,
		secret:   []byte(secret),
		lifetime: lifetime,
	}
}

// Lifetime returns the fixed session duration.
func (m *SessionManager) Lifetime() time.Duration {
	return m.lifetime
}

// Create establishes a session for the user and returns the signed token
// the client stores in its cookie.
func (m *SessionManager) Create(ctx context.Context, user *models.User) (string, error) {
	now := time.Now()
	session := &models.Session{
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.lifetime),
	}
	if err := m.storage.CreateSession(ctx, session); err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}

	claims := &Claims{
		SessionID: session.ID,
		UserID:    user.ID,
		Username:  user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// Validate resolves the identity bound to a session token. It verifies the
// token's signature and expiry, then requires the referenced session row to
// still exist and be unexpired: a destroyed session fails validation no
// matter how fresh the token is.
func (m *SessionManager) Validate(ctx context.Context, token string) (*Identity, error) {
	claims, err := m.parse(token)
	if err != nil {
		return nil, err
	}

	session, err := m.storage.GetSession(ctx, claims.SessionID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrInvalidSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session.Expired(time.Now()) {
		return nil, ErrInvalidSession
	}

	return &Identity{UserID: session.UserID, Username: claims.Username}, nil
}

// Destroy ends the session a token refers to. It is idempotent: malformed
// tokens and already-destroyed sessions succeed silently.
func (m *SessionManager) Destroy(ctx context.Context, token string) error {
	claims, err := m.parse(token)
	if err != nil {
		return nil
	}
	if err := m.storage.DeleteSession(ctx, claims.SessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (m *SessionManager) parse(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(
		token,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			// Verify the signing method
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return m.secret, nil
		},
	)

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidSession
	}

	return claims, nil
}
