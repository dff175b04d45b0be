package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/listkeep/listkeep/internal/models"
	"github.com/listkeep/listkeep/internal/storage"
)

// CreateFriendRequest persists a new relationship record.
func (s *SQLiteStore) CreateFriendRequest(ctx context.Context, rel *models.FriendRelationship) error {
	// Generate ID if not set
	if rel.ID == "" {
		rel.ID = uuid.New().String()
	}
	if rel.CreatedAt == 0 {
		rel.CreatedAt = time.Now().Unix()
	}
	if rel.Status == "" {
		rel.Status = models.FriendPending
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO friends (id, requester_id, addressee_id, status, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		rel.ID, rel.RequesterID, rel.AddresseeID, rel.Status, rel.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert friend request: %w", err)
	}

	return nil
}

// GetFriendRequest retrieves a relationship by ID.
func (s *SQLiteStore) GetFriendRequest(ctx context.Context, id string) (*models.FriendRelationship, error) {
	rel := &models.FriendRelationship{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, requester_id, addressee_id, status, created_at FROM friends WHERE id = ?",
		id,
	).Scan(&rel.ID, &rel.RequesterID, &rel.AddresseeID, &rel.Status, &rel.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: friend request %s", storage.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get friend request: %w", err)
	}

	return rel, nil
}

// GetFriendRequestByPair retrieves the single record between two users,
// whichever direction it was created in. Returns (nil, nil) when no
// record exists.
func (s *SQLiteStore) GetFriendRequestByPair(ctx context.Context, userA, userB string) (*models.FriendRelationship, error) {
	rel := &models.FriendRelationship{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, requester_id, addressee_id, status, created_at
		 FROM friends
		 WHERE (requester_id = ? AND addressee_id = ?)
		    OR (requester_id = ? AND addressee_id = ?)`,
		userA, userB, userB, userA,
	).Scan(&rel.ID, &rel.RequesterID, &rel.AddresseeID, &rel.Status, &rel.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get friend request by pair: %w", err)
	}

	return rel, nil
}

// UpdateFriendStatus sets the relationship's approval state.
func (s *SQLiteStore) UpdateFriendStatus(ctx context.Context, id string, status models.FriendStatus) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE friends SET status = ? WHERE id = ?",
		status, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update friend status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: friend request %s", storage.ErrNotFound, id)
	}

	return nil
}

// DeleteFriendRequest removes a relationship record. Absent records are a
// no-op so cancellation stays idempotent.
func (s *SQLiteStore) DeleteFriendRequest(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM friends WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete friend request: %w", err)
	}
	return nil
}

// FriendsForUser retrieves every relationship where the user is either
// party, annotated with the counterpart's display identity joined at
// query time.
func (s *SQLiteStore) FriendsForUser(ctx context.Context, userID string) ([]*models.FriendView, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT f.id, f.requester_id, f.addressee_id, f.status, f.created_at,
		        u.id, u.username, u.avatar
		 FROM friends f
		 JOIN users u ON u.id = CASE WHEN f.requester_id = ? THEN f.addressee_id ELSE f.requester_id END
		 WHERE f.requester_id = ? OR f.addressee_id = ?
		 ORDER BY f.created_at DESC`,
		userID, userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}
	defer rows.Close()

	var views []*models.FriendView
	for rows.Next() {
		view := &models.FriendView{}
		if err := rows.Scan(
			&view.ID, &view.RequesterID, &view.AddresseeID, &view.Status, &view.CreatedAt,
			&view.Counterpart.UserID, &view.Counterpart.UserName, &view.Counterpart.Avatar,
		); err != nil {
			return nil, fmt.Errorf("failed to scan friend view: %w", err)
		}
		views = append(views, view)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate friends: %w", err)
	}

	return views, nil
}
