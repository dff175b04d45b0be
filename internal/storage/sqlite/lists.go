package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/listkeep/listkeep/internal/models"
	"github.com/listkeep/listkeep/internal/reconcile"
	"github.com/listkeep/listkeep/internal/storage"
)

// CreateList persists a new list with its items and contributors.
// IDs and timestamps are generated when absent; version starts at 1.
func (s *SQLiteStore) CreateList(ctx context.Context, list *models.List) error {
	// Generate IDs if not set
	if list.ID == "" {
		list.ID = uuid.New().String()
	}
	now := time.Now()
	if list.Created.IsZero() {
		list.Created = now
	}
	list.Modified = list.Created
	if list.ModifiedBy.UserID == "" {
		list.ModifiedBy = list.Owner
	}
	list.Version = 1

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO lists (id, owner_id, title, description, created_at, modified_at, modified_by, version)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		list.ID, list.Owner.UserID, list.Title, list.Description,
		list.Created.Unix(), list.Modified.Unix(), list.ModifiedBy.UserID, list.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to insert list: %w", err)
	}

	for i := range list.Items {
		item := &list.Items[i]
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO items (list_id, id, title, description) VALUES (?, ?, ?, ?)",
			list.ID, item.ID, item.Title, item.Description,
		)
		if err != nil {
			return fmt.Errorf("failed to insert item: %w", err)
		}
	}

	for _, c := range list.Contributors {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO list_contributors (list_id, user_id) VALUES (?, ?)",
			list.ID, c.UserID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert contributor: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetList retrieves a list by ID, including items, contributors and the
// owner/modified-by identities joined from the users table.
func (s *SQLiteStore) GetList(ctx context.Context, listID string) (*models.List, error) {
	list := &models.List{}
	var createdAt, modifiedAt int64
	var ownerID, modifiedByID string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, owner_id, title, description, created_at, modified_at, modified_by, version
		 FROM lists WHERE id = ?`,
		listID,
	).Scan(&list.ID, &ownerID, &list.Title, &list.Description,
		&createdAt, &modifiedAt, &modifiedByID, &list.Version)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: list %s", storage.ErrNotFound, listID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get list: %w", err)
	}

	list.Created = time.Unix(createdAt, 0)
	list.Modified = time.Unix(modifiedAt, 0)

	if list.Owner, err = s.userRef(ctx, ownerID); err != nil {
		return nil, err
	}
	if list.ModifiedBy, err = s.userRef(ctx, modifiedByID); err != nil {
		return nil, err
	}

	// Get items
	itemRows, err := s.db.QueryContext(ctx,
		"SELECT id, title, description FROM items WHERE list_id = ? ORDER BY rowid",
		listID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var item models.ListItem
		if err := itemRows.Scan(&item.ID, &item.Title, &item.Description); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		list.Items = append(list.Items, item)
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}

	// Get contributors with their display identities
	contribRows, err := s.db.QueryContext(ctx,
		`SELECT u.id, u.username, u.avatar
		 FROM list_contributors lc
		 JOIN users u ON u.id = lc.user_id
		 WHERE lc.list_id = ?
		 ORDER BY u.username`,
		listID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get contributors: %w", err)
	}
	defer contribRows.Close()

	for contribRows.Next() {
		var ref models.UserRef
		if err := contribRows.Scan(&ref.UserID, &ref.UserName, &ref.Avatar); err != nil {
			return nil, fmt.Errorf("failed to scan contributor: %w", err)
		}
		list.Contributors = append(list.Contributors, ref)
	}
	if err := contribRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate contributors: %w", err)
	}

	return list, nil
}

// ListsForUser retrieves every list the user owns or contributes to.
func (s *SQLiteStore) ListsForUser(ctx context.Context, userID string) ([]*models.List, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM lists WHERE owner_id = ?
		 UNION
		 SELECT list_id FROM list_contributors WHERE user_id = ?
		 ORDER BY 1`,
		userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list lists for user: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan list id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate list ids: %w", err)
	}

	lists := make([]*models.List, 0, len(ids))
	for _, id := range ids {
		list, err := s.GetList(ctx, id)
		if err != nil {
			return nil, err
		}
		lists = append(lists, list)
	}

	return lists, nil
}

// ApplyReconcile applies a reconcile plan to the list inside a single
// transaction. The header row is updated under an optimistic version
// guard, so a concurrent writer who advanced the version causes a clean
// ErrVersionConflict with nothing written.
func (s *SQLiteStore) ApplyReconcile(ctx context.Context, listID string, expectedVersion int64, modifiedBy string, plan *reconcile.Plan) error {
	if plan.Empty() {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()

	var res sql.Result
	if plan.Header != nil {
		res, err = tx.ExecContext(ctx,
			`UPDATE lists
			 SET title = ?, description = ?, modified_at = ?, modified_by = ?, version = version + 1
			 WHERE id = ? AND version = ?`,
			plan.Header.Title, plan.Header.Description, now, modifiedBy, listID, expectedVersion,
		)
	} else {
		res, err = tx.ExecContext(ctx,
			`UPDATE lists
			 SET modified_at = ?, modified_by = ?, version = version + 1
			 WHERE id = ? AND version = ?`,
			now, modifiedBy, listID, expectedVersion,
		)
	}
	if err != nil {
		return fmt.Errorf("failed to update list header: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		// Distinguish a vanished list from a concurrent writer.
		var exists int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM lists WHERE id = ?", listID).Scan(&exists)
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w: list %s", storage.ErrNotFound, listID)
		}
		if err != nil {
			return fmt.Errorf("failed to check list existence: %w", err)
		}
		return fmt.Errorf("%w: list %s", storage.ErrVersionConflict, listID)
	}

	if plan.Header != nil {
		if _, err := tx.ExecContext(ctx, "DELETE FROM list_contributors WHERE list_id = ?", listID); err != nil {
			return fmt.Errorf("failed to clear contributors: %w", err)
		}
		for _, userID := range plan.Header.ContributorIDs {
			_, err = tx.ExecContext(ctx,
				"INSERT INTO list_contributors (list_id, user_id) VALUES (?, ?)",
				listID, userID,
			)
			if err != nil {
				return fmt.Errorf("failed to insert contributor: %w", err)
			}
		}
	}

	for _, item := range plan.Inserts {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO items (list_id, id, title, description) VALUES (?, ?, ?, ?)",
			listID, item.ID, item.Title, item.Description,
		)
		if err != nil {
			return fmt.Errorf("failed to insert item: %w", err)
		}
	}

	for _, item := range plan.Updates {
		_, err = tx.ExecContext(ctx,
			"UPDATE items SET title = ?, description = ? WHERE list_id = ? AND id = ?",
			item.Title, item.Description, listID, item.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// DeleteList removes a list; items and contributors cascade. Absent lists
// are a no-op so deletes stay idempotent.
func (s *SQLiteStore) DeleteList(ctx context.Context, listID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM lists WHERE id = ?", listID)
	if err != nil {
		return fmt.Errorf("failed to delete list: %w", err)
	}
	return nil
}

// DeleteItem removes a single item from a list. Absent items are a no-op.
func (s *SQLiteStore) DeleteItem(ctx context.Context, listID, itemID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM items WHERE list_id = ? AND id = ?", listID, itemID)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return nil
}
