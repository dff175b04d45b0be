package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/listkeep/listkeep/internal/models"
	"github.com/listkeep/listkeep/internal/storage"
)

// fakeSessionStore is an in-memory SessionStorage for exercising the
// manager without a database.
type fakeSessionStore struct {
	sessions map[string]*models.Session
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]*models.Session)}
}

func (f *fakeSessionStore) CreateSession(_ context.Context, s *models.Session) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	f.sessions[s.ID] = s
	return nil
}

func (f *fakeSessionStore) GetSession(_ context.Context, id string) (*models.Session, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: session %s", storage.ErrNotFound, id)
	}
	return s, nil
}

func (f *fakeSessionStore) DeleteSession(_ context.Context, id string) error {
	delete(f.sessions, id)
	return nil
}

func testUser() *models.User {
	return &models.User{ID: "u1", Email: "alice@example.com", Username: "alice"}
}

func TestSessionLifecycle(t *testing.T) {
	store := newFakeSessionStore()
	mgr := NewSessionManager(store, "test-secret", 24*time.Hour)
	ctx := context.Background()

	token, err := mgr.Create(ctx, testUser())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	identity, err := mgr.Validate(ctx, token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if identity.UserID != "u1" || identity.Username != "alice" {
		t.Errorf("unexpected identity: %+v", identity)
	}

	if err := mgr.Destroy(ctx, token); err != nil {
		t.Fatalf("Destroy failed: %v", err)
	}

	// A destroyed session fails validation even though the token itself
	// is still unexpired.
	if _, err := mgr.Validate(ctx, token); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("expected ErrInvalidSession after destroy, got %v", err)
	}

	// Destroy is idempotent.
	if err := mgr.Destroy(ctx, token); err != nil {
		t.Errorf("second Destroy errored: %v", err)
	}
	if err := mgr.Destroy(ctx, "garbage-token"); err != nil {
		t.Errorf("Destroy of garbage token errored: %v", err)
	}
}

func TestValidateRejectsBadTokens(t *testing.T) {
	store := newFakeSessionStore()
	mgr := NewSessionManager(store, "test-secret", 24*time.Hour)
	ctx := context.Background()

	if _, err := mgr.Validate(ctx, "not-a-token"); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("expected ErrInvalidSession for malformed token, got %v", err)
	}

	// Token signed with a different secret.
	other := NewSessionManager(store, "other-secret", 24*time.Hour)
	token, err := other.Create(ctx, testUser())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := mgr.Validate(ctx, token); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("expected ErrInvalidSession for wrong signature, got %v", err)
	}
}

func TestValidateRejectsExpiredSession(t *testing.T) {
	store := newFakeSessionStore()
	mgr := NewSessionManager(store, "test-secret", 24*time.Hour)
	ctx := context.Background()

	token, err := mgr.Create(ctx, testUser())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Expire the stored row behind the token's back.
	for _, s := range store.sessions {
		s.ExpiresAt = time.Now().Add(-time.Minute)
	}

	if _, err := mgr.Validate(ctx, token); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("expected ErrInvalidSession for expired session, got %v", err)
	}
}
