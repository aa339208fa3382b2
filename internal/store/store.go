// Package store defines the entity store contract shared by the local and
// remote backends, plus the two adapters implementing it.
//
// Both adapters expose identical CRUD semantics: upserts are idempotent,
// deletes are soft (a deleted_at marker, never row removal), and soft-deleted
// rows are excluded from every default read path. The orchestrator owns all
// caching and routing policy; adapters hold no state beyond their backend.
package store

import (
	"context"

	"github.com/castock/listsync/internal/models"
)

// EntityStore is the CRUD contract for lists and list items against one
// backend. Implementations are [SQLiteStore] (local, always available) and
// [RESTStore] (remote, row-level authorized, may be unreachable).
type EntityStore interface {
	// GetAllLists returns all non-deleted lists visible to the current owner scope.
	GetAllLists(ctx context.Context) ([]*models.List, error)

	// GetListByID returns a list by identifier, or ErrNotFound if the list
	// is absent or soft-deleted.
	GetListByID(ctx context.Context, id string) (*models.List, error)

	// SaveList upserts a list by identifier. Saving the same payload twice
	// produces no duplicate.
	SaveList(ctx context.Context, list *models.List) error

	// DeleteList soft-deletes a list and marks all items it owns. Deleting
	// an already-deleted list is a no-op; an unknown identifier is
	// ErrNotFound. On the remote backend the mutation is ownership-guarded
	// and a rejected guard surfaces as ErrForbidden, never as success.
	DeleteList(ctx context.Context, id string) error

	// GetItemsByListID returns all non-deleted items owned by the list.
	GetItemsByListID(ctx context.Context, listID string) ([]*models.ListItem, error)

	// SaveItem upserts an item by identifier.
	SaveItem(ctx context.Context, item *models.ListItem) error

	// UpdateItem modifies an existing, non-deleted item. ErrNotFound when
	// the row is absent or soft-deleted.
	UpdateItem(ctx context.Context, item *models.ListItem) error

	// DeleteItem soft-deletes an item with the same discipline as DeleteList.
	DeleteItem(ctx context.Context, id string) error

	// IsAvailable is a cheap liveness probe.
	IsAvailable(ctx context.Context) bool

	// Name identifies the backend in logs and error reports.
	Name() string
}
