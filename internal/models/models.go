package models

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// validate backs every Validate method. A single instance caches struct metadata.
var validate = validator.New(validator.WithRequiredStructEnabled())

// Model defines the base interface for all persistent entities.
// Implementations are List and ListItem.
type Model interface {
	Key() string            // Key returns the unique identifier for this entity
	ModifiedAt() time.Time  // ModifiedAt returns the timestamp used for last-writer-wins ordering
	Validate() error        // Validate checks if the entity's data is valid and returns an error if not
}

// ListKind enumerates list categories.
type ListKind string

const (
	KindCustom   ListKind = "custom"
	KindShopping ListKind = "shopping"
	KindProject  ListKind = "project"
	KindRoutine  ListKind = "routine"
)

// Valid reports whether k is a known list kind.
func (k ListKind) Valid() bool {
	switch k {
	case KindCustom, KindShopping, KindProject, KindRoutine:
		return true
	}
	return false
}

// List is a named collection owned by exactly one user. An empty OwnerID
// means the list belongs to the guest scope.
//
// Soft-deleted lists keep their row with DeletedAt set and are excluded from
// all default read paths. Pending marks a row whose last write has not been
// confirmed against the remote backend.
type List struct {
	ID        string     `json:"id" validate:"required"`
	OwnerID   string     `json:"owner_id"`
	Name      string     `json:"name" validate:"required,max=120"`
	Kind      ListKind   `json:"kind" validate:"omitempty,oneof=custom shopping project routine"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	Pending   bool       `json:"pending,omitempty"`
}

// NewList creates a List with a generated timestamp pair and the given scope.
func NewList(id, ownerID, name string, kind ListKind) *List {
	if kind == "" {
		kind = KindCustom
	}
	now := time.Now().UTC()
	return &List{
		ID:        id,
		OwnerID:   ownerID,
		Name:      name,
		Kind:      kind,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (l *List) Key() string { return l.ID }

// ModifiedAt prefers UpdatedAt and falls back to CreatedAt for rows written
// before update tracking existed.
func (l *List) ModifiedAt() time.Time {
	if l.UpdatedAt.IsZero() {
		return l.CreatedAt
	}
	return l.UpdatedAt
}

// Deleted reports whether the list is soft-deleted.
func (l *List) Deleted() bool { return l.DeletedAt != nil }

// Touch advances the update timestamp.
func (l *List) Touch() { l.UpdatedAt = time.Now().UTC() }

// Delete soft-deletes the list. Deleting a deleted list is a no-op.
func (l *List) Delete() {
	if l.DeletedAt != nil {
		return
	}
	now := time.Now().UTC()
	l.DeletedAt = &now
	l.UpdatedAt = now
}

func (l *List) Validate() error {
	if err := validate.Struct(l); err != nil {
		return fmt.Errorf("invalid list: %w", err)
	}
	return nil
}

// ListItem is a unit of work within a list. ListID is a non-null foreign key;
// referential integrity against a live list is checked at the orchestrator,
// not assumed at the adapters.
type ListItem struct {
	ID          string     `json:"id" validate:"required"`
	ListID      string     `json:"list_id" validate:"required"`
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description,omitempty"`
	Category    string     `json:"category,omitempty"`
	Priority    float64    `json:"priority"`
	Done        bool       `json:"done"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
	Pending     bool       `json:"pending,omitempty"`
}

// NewItem creates a ListItem owned by the given list.
func NewItem(id, listID, title string) *ListItem {
	now := time.Now().UTC()
	return &ListItem{
		ID:        id,
		ListID:    listID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (i *ListItem) Key() string { return i.ID }

func (i *ListItem) ModifiedAt() time.Time {
	if i.UpdatedAt.IsZero() {
		return i.CreatedAt
	}
	return i.UpdatedAt
}

// Deleted reports whether the item is soft-deleted.
func (i *ListItem) Deleted() bool { return i.DeletedAt != nil }

// Touch advances the update timestamp.
func (i *ListItem) Touch() { i.UpdatedAt = time.Now().UTC() }

// Delete soft-deletes the item. Deleting a deleted item is a no-op.
func (i *ListItem) Delete() {
	if i.DeletedAt != nil {
		return
	}
	now := time.Now().UTC()
	i.DeletedAt = &now
	i.UpdatedAt = now
}

// Complete marks the item done and records the completion time.
// Completing a done item is a no-op.
func (i *ListItem) Complete() {
	if i.Done {
		return
	}
	now := time.Now().UTC()
	i.Done = true
	i.CompletedAt = &now
	i.UpdatedAt = now
}

func (i *ListItem) Validate() error {
	if err := validate.Struct(i); err != nil {
		return fmt.Errorf("invalid item: %w", err)
	}
	return nil
}
