package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/castock/listsync/internal/models"
	"github.com/castock/listsync/internal/shared"
)

// SQLiteStore implements [EntityStore] against the on-device SQLite cache.
//
// Rows carry a pending bit recording writes that have not been confirmed
// against the remote backend; the orchestrator drains it through the
// Pending*/Mark*Synced helpers.
type SQLiteStore struct {
	db *sql.DB

	mu    sync.RWMutex
	owner string
}

// NewSQLiteStore creates a SQLiteStore scoped to ownerID. An empty ownerID
// selects the guest scope.
func NewSQLiteStore(db *sql.DB, ownerID string) *SQLiteStore {
	return &SQLiteStore{db: db, owner: ownerID}
}

func (s *SQLiteStore) Name() string { return "local" }

// SetOwner switches the owner scope, used when the authenticated user changes.
func (s *SQLiteStore) SetOwner(ownerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owner = ownerID
}

// Owner returns the current owner scope.
func (s *SQLiteStore) Owner() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.owner
}

// IsAvailable pings the underlying database.
func (s *SQLiteStore) IsAvailable(ctx context.Context) bool {
	return s.db.PingContext(ctx) == nil
}

// GetAllLists returns all non-deleted lists in the current owner scope.
func (s *SQLiteStore) GetAllLists(ctx context.Context) ([]*models.List, error) {
	query := `
		SELECT id, owner_id, name, kind, created_at, updated_at, deleted_at, pending
		FROM lists
		WHERE owner_id = ? AND deleted_at IS NULL
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, s.Owner())
	if err != nil {
		return nil, fmt.Errorf("failed to query lists: %w", err)
	}
	defer rows.Close()

	var lists []*models.List
	for rows.Next() {
		list, err := scanList(rows)
		if err != nil {
			return nil, err
		}
		lists = append(lists, list)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return lists, nil
}

// GetListByID retrieves a list by ID within the current owner scope,
// excluding soft-deleted lists. A row owned by someone else reads as
// ErrNotFound; callers needing 403-vs-404 semantics probe with ListOwner.
func (s *SQLiteStore) GetListByID(ctx context.Context, id string) (*models.List, error) {
	query := `
		SELECT id, owner_id, name, kind, created_at, updated_at, deleted_at, pending
		FROM lists
		WHERE id = ? AND owner_id = ? AND deleted_at IS NULL
	`

	list, err := scanList(s.db.QueryRowContext(ctx, query, id, s.Owner()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: list %s", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return list, nil
}

// SaveList upserts a list by identifier.
func (s *SQLiteStore) SaveList(ctx context.Context, list *models.List) error {
	if err := list.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO lists (id, owner_id, name, kind, created_at, updated_at, deleted_at, pending)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner_id = excluded.owner_id,
			name = excluded.name,
			kind = excluded.kind,
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at,
			pending = excluded.pending
	`

	_, err := s.db.ExecContext(ctx, query,
		list.ID,
		list.OwnerID,
		list.Name,
		string(list.Kind),
		list.CreatedAt,
		list.UpdatedAt,
		nullTime(list.DeletedAt),
		list.Pending,
	)
	if err != nil {
		return fmt.Errorf("failed to save list: %w", err)
	}

	return nil
}

// DeleteList soft-deletes a list and marks its items. Deleting an
// already-deleted list is a no-op success.
func (s *SQLiteStore) DeleteList(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	result, err := tx.ExecContext(ctx,
		"UPDATE lists SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL",
		now, now, id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete list: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		var exists bool
		if err := tx.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM lists WHERE id = ?)", id).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check list existence: %w", err)
		}
		if !exists {
			return fmt.Errorf("%w: list %s", shared.ErrNotFound, id)
		}
		// already soft-deleted
		return nil
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE list_items SET deleted_at = ?, updated_at = ? WHERE list_id = ? AND deleted_at IS NULL",
		now, now, id,
	); err != nil {
		return fmt.Errorf("failed to delete list items: %w", err)
	}

	return tx.Commit()
}

// GetItemsByListID returns all non-deleted items owned by the list. Items
// of a list outside the current owner scope read as an empty set.
func (s *SQLiteStore) GetItemsByListID(ctx context.Context, listID string) ([]*models.ListItem, error) {
	query := `
		SELECT id, list_id, title, description, category, priority, done,
		       created_at, updated_at, completed_at, deleted_at, pending
		FROM list_items
		WHERE list_id = ? AND deleted_at IS NULL
		  AND EXISTS (SELECT 1 FROM lists WHERE lists.id = list_items.list_id AND lists.owner_id = ?)
		ORDER BY priority DESC, created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, listID, s.Owner())
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var items []*models.ListItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return items, nil
}

// SaveItem upserts an item by identifier.
func (s *SQLiteStore) SaveItem(ctx context.Context, item *models.ListItem) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO list_items (id, list_id, title, description, category, priority, done,
		                        created_at, updated_at, completed_at, deleted_at, pending)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			list_id = excluded.list_id,
			title = excluded.title,
			description = excluded.description,
			category = excluded.category,
			priority = excluded.priority,
			done = excluded.done,
			updated_at = excluded.updated_at,
			completed_at = excluded.completed_at,
			deleted_at = excluded.deleted_at,
			pending = excluded.pending
	`

	_, err := s.db.ExecContext(ctx, query,
		item.ID,
		item.ListID,
		item.Title,
		item.Description,
		item.Category,
		item.Priority,
		item.Done,
		item.CreatedAt,
		item.UpdatedAt,
		nullTime(item.CompletedAt),
		nullTime(item.DeletedAt),
		item.Pending,
	)
	if err != nil {
		return fmt.Errorf("failed to save item: %w", err)
	}

	return nil
}

// UpdateItem modifies an existing, non-deleted item.
func (s *SQLiteStore) UpdateItem(ctx context.Context, item *models.ListItem) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		UPDATE list_items
		SET title = ?, description = ?, category = ?, priority = ?, done = ?,
		    updated_at = ?, completed_at = ?, pending = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := s.db.ExecContext(ctx, query,
		item.Title,
		item.Description,
		item.Category,
		item.Priority,
		item.Done,
		item.UpdatedAt,
		nullTime(item.CompletedAt),
		item.Pending,
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: item %s", shared.ErrNotFound, item.ID)
	}

	return nil
}

// DeleteItem soft-deletes an item. Deleting an already-deleted item is a
// no-op success.
func (s *SQLiteStore) DeleteItem(ctx context.Context, id string) error {
	now := time.Now().UTC()

	result, err := s.db.ExecContext(ctx,
		"UPDATE list_items SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL",
		now, now, id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		var exists bool
		if err := s.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM list_items WHERE id = ?)", id).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check item existence: %w", err)
		}
		if !exists {
			return fmt.Errorf("%w: item %s", shared.ErrNotFound, id)
		}
	}

	return nil
}

// PendingLists returns lists in the current owner scope whose last write has
// not been confirmed against the remote backend. Soft-deleted rows are
// included so deletes propagate too.
func (s *SQLiteStore) PendingLists(ctx context.Context) ([]*models.List, error) {
	query := `
		SELECT id, owner_id, name, kind, created_at, updated_at, deleted_at, pending
		FROM lists
		WHERE owner_id = ? AND pending = 1
		ORDER BY updated_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, s.Owner())
	if err != nil {
		return nil, fmt.Errorf("failed to query pending lists: %w", err)
	}
	defer rows.Close()

	var lists []*models.List
	for rows.Next() {
		list, err := scanList(rows)
		if err != nil {
			return nil, err
		}
		lists = append(lists, list)
	}
	return lists, rows.Err()
}

// PendingItems returns items whose last write has not been confirmed against
// the remote backend, including soft-deleted rows.
func (s *SQLiteStore) PendingItems(ctx context.Context) ([]*models.ListItem, error) {
	query := `
		SELECT i.id, i.list_id, i.title, i.description, i.category, i.priority, i.done,
		       i.created_at, i.updated_at, i.completed_at, i.deleted_at, i.pending
		FROM list_items i
		JOIN lists l ON l.id = i.list_id
		WHERE l.owner_id = ? AND i.pending = 1
		ORDER BY i.updated_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, s.Owner())
	if err != nil {
		return nil, fmt.Errorf("failed to query pending items: %w", err)
	}
	defer rows.Close()

	var items []*models.ListItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// MarkListSynced clears a list's pending bit after a confirmed remote write.
func (s *SQLiteStore) MarkListSynced(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "UPDATE lists SET pending = 0 WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to mark list synced: %w", err)
	}
	return nil
}

// MarkItemSynced clears an item's pending bit after a confirmed remote write.
func (s *SQLiteStore) MarkItemSynced(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "UPDATE list_items SET pending = 0 WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to mark item synced: %w", err)
	}
	return nil
}

// ListOwner reports who owns a list regardless of scope or deletion state.
// Returns ErrNotFound when no row exists at all.
func (s *SQLiteStore) ListOwner(ctx context.Context, id string) (string, error) {
	var owner string
	err := s.db.QueryRowContext(ctx, "SELECT owner_id FROM lists WHERE id = ?", id).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("list %s: %w", id, shared.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve list owner: %w", err)
	}
	return owner, nil
}

// ItemOwner reports who owns an item through its parent list.
func (s *SQLiteStore) ItemOwner(ctx context.Context, id string) (string, error) {
	var owner string
	err := s.db.QueryRowContext(ctx, `
		SELECT l.owner_id FROM list_items i
		JOIN lists l ON l.id = i.list_id
		WHERE i.id = ?`, id).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("item %s: %w", id, shared.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve item owner: %w", err)
	}
	return owner, nil
}

// MarkListPending flags a list as awaiting a remote write, including rows
// already soft-deleted so the delete itself can be replayed.
func (s *SQLiteStore) MarkListPending(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "UPDATE lists SET pending = 1 WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to mark list pending: %w", err)
	}
	return nil
}

// MarkItemPending flags an item as awaiting a remote write.
func (s *SQLiteStore) MarkItemPending(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "UPDATE list_items SET pending = 1 WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to mark item pending: %w", err)
	}
	return nil
}

// Clear removes every row in the current owner scope. Used when a migration
// replaces the local dataset wholesale; this is the one path allowed to
// physically delete rows.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	owner := s.Owner()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM list_items WHERE list_id IN (SELECT id FROM lists WHERE owner_id = ?)", owner,
	); err != nil {
		return fmt.Errorf("failed to clear items: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM lists WHERE owner_id = ?", owner); err != nil {
		return fmt.Errorf("failed to clear lists: %w", err)
	}

	return tx.Commit()
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanList scans one lists row.
func scanList(row rowScanner) (*models.List, error) {
	var (
		list      models.List
		kind      string
		deletedAt sql.NullTime
	)

	err := row.Scan(&list.ID, &list.OwnerID, &list.Name, &kind,
		&list.CreatedAt, &list.UpdatedAt, &deletedAt, &list.Pending)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan list: %w", err)
	}

	list.Kind = models.ListKind(kind)
	if deletedAt.Valid {
		t := deletedAt.Time
		list.DeletedAt = &t
	}

	return &list, nil
}

// scanItem scans one list_items row.
func scanItem(row rowScanner) (*models.ListItem, error) {
	var (
		item        models.ListItem
		completedAt sql.NullTime
		deletedAt   sql.NullTime
	)

	err := row.Scan(&item.ID, &item.ListID, &item.Title, &item.Description,
		&item.Category, &item.Priority, &item.Done,
		&item.CreatedAt, &item.UpdatedAt, &completedAt, &deletedAt, &item.Pending)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan item: %w", err)
	}

	if completedAt.Valid {
		t := completedAt.Time
		item.CompletedAt = &t
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		item.DeletedAt = &t
	}

	return &item, nil
}

// nullTime converts an optional timestamp to a driver-friendly value.
func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
