package models

import (
	"encoding/json"
	"fmt"

	"github.com/castock/listsync/internal/shared"
)

// ImportSource is implemented by each supported dump shape. The import path
// models the legacy "accept anything" adapters as a closed set of variants
// with one explicit conversion per variant instead of type-switching on
// untyped payloads.
type ImportSource interface {
	// Entities converts the dump into lists and items scoped to ownerID.
	// Identifiers missing from the dump are generated with newID.
	Entities(ownerID string, newID func() string) ([]*List, []*ListItem, error)
}

// LegacyDump is the flat export shape written by the old on-device client.
type LegacyDump struct {
	Version int          `json:"version"`
	Lists   []LegacyList `json:"lists"`
}

// LegacyList is a list row in a LegacyDump. The legacy client called lists
// "labels" and items "entries".
type LegacyList struct {
	ListID  string        `json:"list_id"`
	Label   string        `json:"label"`
	Entries []LegacyEntry `json:"entries"`
}

// LegacyEntry is an item row in a LegacyDump.
type LegacyEntry struct {
	Text    string  `json:"text"`
	Score   float64 `json:"score"`
	Checked bool    `json:"checked"`
}

func (d *LegacyDump) Entities(ownerID string, newID func() string) ([]*List, []*ListItem, error) {
	if d.Version != 1 {
		return nil, nil, fmt.Errorf("%w: unsupported legacy dump version %d", shared.ErrInvalidInput, d.Version)
	}

	var lists []*List
	var items []*ListItem

	for _, ll := range d.Lists {
		if ll.Label == "" {
			return nil, nil, fmt.Errorf("%w: legacy list missing label", shared.ErrInvalidInput)
		}
		id := ll.ListID
		if id == "" {
			id = newID()
		}
		list := NewList(id, ownerID, ll.Label, KindCustom)
		lists = append(lists, list)

		for _, entry := range ll.Entries {
			item := NewItem(newID(), id, entry.Text)
			item.Priority = entry.Score
			if entry.Checked {
				item.Complete()
			}
			items = append(items, item)
		}
	}

	return lists, items, nil
}

// APIDump is the remote backend's native wire shape: parallel collections of
// fully-formed lists and items.
type APIDump struct {
	Lists []List     `json:"lists"`
	Items []ListItem `json:"items"`
}

func (d *APIDump) Entities(ownerID string, newID func() string) ([]*List, []*ListItem, error) {
	lists := make([]*List, 0, len(d.Lists))
	for i := range d.Lists {
		list := d.Lists[i]
		if list.ID == "" {
			list.ID = newID()
		}
		list.OwnerID = ownerID
		if err := list.Validate(); err != nil {
			return nil, nil, err
		}
		lists = append(lists, &list)
	}

	items := make([]*ListItem, 0, len(d.Items))
	for i := range d.Items {
		item := d.Items[i]
		if item.ID == "" {
			item.ID = newID()
		}
		if err := item.Validate(); err != nil {
			return nil, nil, err
		}
		items = append(items, &item)
	}

	return lists, items, nil
}

// GenericDump is a loosely-typed record list produced by third-party tools:
// each record holds a "name" and an optional "items" array of strings.
type GenericDump []map[string]any

func (d GenericDump) Entities(ownerID string, newID func() string) ([]*List, []*ListItem, error) {
	var lists []*List
	var items []*ListItem

	for _, record := range d {
		name, ok := record["name"].(string)
		if !ok || name == "" {
			return nil, nil, fmt.Errorf("%w: generic record missing name", shared.ErrInvalidInput)
		}

		list := NewList(newID(), ownerID, name, KindCustom)
		lists = append(lists, list)

		raw, ok := record["items"].([]any)
		if !ok {
			continue
		}
		for _, entry := range raw {
			title, ok := entry.(string)
			if !ok || title == "" {
				return nil, nil, fmt.Errorf("%w: generic record item must be a string", shared.ErrInvalidInput)
			}
			items = append(items, NewItem(newID(), list.ID, title))
		}
	}

	return lists, items, nil
}

// DetectImport parses raw JSON into one of the supported dump variants.
// The legacy shape is recognized by its version field, the API shape by its
// top-level lists collection; anything that parses as a record array is
// treated as generic.
func DetectImport(data []byte) (ImportSource, error) {
	var legacy LegacyDump
	if err := json.Unmarshal(data, &legacy); err == nil && legacy.Version > 0 {
		return &legacy, nil
	}

	var api APIDump
	if err := json.Unmarshal(data, &api); err == nil && len(api.Lists) > 0 {
		return &api, nil
	}

	var generic GenericDump
	if err := json.Unmarshal(data, &generic); err == nil && len(generic) > 0 {
		return generic, nil
	}

	return nil, fmt.Errorf("%w: unrecognized import payload", shared.ErrInvalidInput)
}
