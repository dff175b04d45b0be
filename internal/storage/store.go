// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/listkeep/listkeep/internal/models"
	"github.com/listkeep/listkeep/internal/reconcile"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrVersionConflict is returned when a reconcile apply finds the
	// list's version has advanced past the one the caller read.
	ErrVersionConflict = errors.New("list version conflict")
)

// Store defines the interface for all persistence operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL,
// etc.) without changing the service layer.
type Store interface {
	// CreateUser persists a new user.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByID retrieves a user by ID. Returns (nil, nil) when absent.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// GetUserByEmail retrieves a user by email. Returns (nil, nil) when absent.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByUsername retrieves a user by username. Returns (nil, nil) when absent.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	// CreateSession persists a new session.
	CreateSession(ctx context.Context, session *models.Session) error

	// GetSession retrieves a session by ID. Returns ErrNotFound when absent.
	GetSession(ctx context.Context, id string) (*models.Session, error)

	// DeleteSession removes a session. Deleting an absent session is a no-op.
	DeleteSession(ctx context.Context, id string) error

	// CreateList persists a new list with its items and contributors in
	// one transaction, assigning IDs and timestamps as needed.
	CreateList(ctx context.Context, list *models.List) error

	// GetList retrieves a list by ID with items, contributors, owner and
	// modified-by identities joined. Returns ErrNotFound when absent.
	GetList(ctx context.Context, listID string) (*models.List, error)

	// ListsForUser retrieves every list the user owns or contributes to.
	ListsForUser(ctx context.Context, userID string) ([]*models.List, error)

	// ApplyReconcile applies a non-empty reconcile plan to the list in a
	// single transaction guarded by expectedVersion; the list's version,
	// modified timestamp and modified-by are updated as part of the same
	// write. Returns ErrVersionConflict when the stored version differs
	// and ErrNotFound when the list is gone.
	ApplyReconcile(ctx context.Context, listID string, expectedVersion int64, modifiedBy string, plan *reconcile.Plan) error

	// DeleteList removes a list and, transitively, its items and
	// contributors. Deleting an absent list is a no-op.
	DeleteList(ctx context.Context, listID string) error

	// DeleteItem removes a single item. Deleting an absent item is a no-op.
	DeleteItem(ctx context.Context, listID, itemID string) error

	// CreateFriendRequest persists a new pending relationship.
	CreateFriendRequest(ctx context.Context, rel *models.FriendRelationship) error

	// GetFriendRequest retrieves a relationship by ID. Returns ErrNotFound when absent.
	GetFriendRequest(ctx context.Context, id string) (*models.FriendRelationship, error)

	// GetFriendRequestByPair retrieves the relationship between two users
	// in either direction. Returns (nil, nil) when no record exists.
	GetFriendRequestByPair(ctx context.Context, userA, userB string) (*models.FriendRelationship, error)

	// UpdateFriendStatus sets the relationship's approval state.
	UpdateFriendStatus(ctx context.Context, id string, status models.FriendStatus) error

	// DeleteFriendRequest removes a relationship record.
	DeleteFriendRequest(ctx context.Context, id string) error

	// FriendsForUser retrieves every relationship where the user is
	// either party, with the counterpart's identity joined at query time.
	FriendsForUser(ctx context.Context, userID string) ([]*models.FriendView, error)

	// Close releases any resources held by the store.
	Close() error
}
