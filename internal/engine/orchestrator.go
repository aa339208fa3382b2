package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/castock/listsync/internal/models"
	"github.com/castock/listsync/internal/shared"
	"github.com/castock/listsync/internal/store"
	"github.com/charmbracelet/log"
)

// ListView pairs a list with its items for snapshot consumers.
type ListView struct {
	List  *models.List
	Items []*models.ListItem
}

// Orchestrator is the single entry point for application reads and writes.
// Every mutation lands in the local store synchronously before the remote
// write is attempted; a remote outage marks the entity pending and reports
// success, while authorization and existence failures surface to the caller.
type Orchestrator struct {
	local   *store.SQLiteStore
	remote  store.EntityStore
	modes   *ModeController
	tracker *OpTracker
	logger  *log.Logger

	mu       sync.RWMutex
	snapshot map[string]*ListView
}

// NewOrchestrator wires the engine together around the two store adapters.
func NewOrchestrator(local *store.SQLiteStore, remote store.EntityStore, modes *ModeController, logger *log.Logger) *Orchestrator {
	return &Orchestrator{
		local:    local,
		remote:   remote,
		modes:    modes,
		tracker:  NewOpTracker(0),
		logger:   shared.WithLogger(logger, "component", "engine"),
		snapshot: make(map[string]*ListView),
	}
}

// Mode reports the active persistence mode.
func (o *Orchestrator) Mode() models.PersistenceMode { return o.modes.Mode() }

// Tracker exposes the operation history for status reporting.
func (o *Orchestrator) Tracker() *OpTracker { return o.tracker }

// CreateList validates and persists a new list. In cloud-first mode the
// remote write is attempted after the local one; on outage the list stays
// pending and the create still succeeds.
func (o *Orchestrator) CreateList(ctx context.Context, name string, kind models.ListKind) (*models.List, error) {
	if err := o.modes.BeginOp(); err != nil {
		return nil, err
	}
	defer o.modes.EndOp()
	finish := o.tracker.Begin("create-list")

	// The owner comes from the store scope, not the identity: after a
	// sign-out the scope stays on the signed-out user so new writes land
	// next to the retained snapshot and stay readable.
	list := models.NewList(shared.GenerateID(), o.local.Owner(), name, kind)
	if err := list.Validate(); err != nil {
		finish(OpFailed, err)
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	if o.modes.Mode() == models.CloudFirst {
		list.Pending = true
	}
	if err := o.local.SaveList(ctx, list); err != nil {
		finish(OpFailed, err)
		return nil, err
	}

	state, err := o.propagateList(ctx, list)
	finish(state, err)
	if err != nil {
		return nil, err
	}

	o.cacheList(list, nil)
	return list, nil
}

// UpdateList persists changes to an existing list.
func (o *Orchestrator) UpdateList(ctx context.Context, list *models.List) error {
	if err := o.modes.BeginOp(); err != nil {
		return err
	}
	defer o.modes.EndOp()
	finish := o.tracker.Begin("update-list")

	if err := list.Validate(); err != nil {
		finish(OpFailed, err)
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	if _, err := o.local.GetListByID(ctx, list.ID); err != nil {
		finish(OpFailed, err)
		return err
	}

	list.Touch()
	if o.modes.Mode() == models.CloudFirst {
		list.Pending = true
	}
	if err := o.local.SaveList(ctx, list); err != nil {
		finish(OpFailed, err)
		return err
	}

	state, err := o.propagateList(ctx, list)
	finish(state, err)
	if err != nil {
		return err
	}

	o.cacheList(list, nil)
	return nil
}

// DeleteList soft-deletes a list and its items. Deleting an already deleted
// list is a no-op; an unknown id is ErrNotFound.
func (o *Orchestrator) DeleteList(ctx context.Context, id string) error {
	if err := o.modes.BeginOp(); err != nil {
		return err
	}
	defer o.modes.EndOp()
	finish := o.tracker.Begin("delete-list")

	if err := o.local.DeleteList(ctx, id); err != nil {
		finish(OpFailed, err)
		return err
	}

	state := OpSucceeded
	var opErr error
	if o.modes.Mode() == models.CloudFirst {
		err := o.remote.DeleteList(ctx, id)
		if errorsIsNotFound(err) {
			// The create never reached the remote; nothing left to undo.
			err = nil
			if markErr := o.local.MarkListSynced(ctx, id); markErr != nil {
				o.logger.Error("failed to clear pending bit", "id", id, "error", markErr)
			}
		}
		if err != nil {
			if !Recoverable(err) {
				finish(OpFailed, err)
				return err
			}
			// Replay the delete on the next repush.
			if markErr := o.local.MarkListPending(ctx, id); markErr != nil {
				o.logger.Error("failed to mark deleted list pending", "id", id, "error", markErr)
			}
			state, opErr = OpFallenBack, err
			o.logger.Warn("remote delete deferred", "id", id, "error", err)
		}
	}
	finish(state, opErr)

	o.mu.Lock()
	delete(o.snapshot, id)
	o.mu.Unlock()
	return nil
}

// AddItem validates and persists a new item under an existing list.
func (o *Orchestrator) AddItem(ctx context.Context, listID, title string) (*models.ListItem, error) {
	if err := o.modes.BeginOp(); err != nil {
		return nil, err
	}
	defer o.modes.EndOp()
	finish := o.tracker.Begin("add-item")

	if _, err := o.local.GetListByID(ctx, listID); err != nil {
		finish(OpFailed, err)
		return nil, err
	}

	item := models.NewItem(shared.GenerateID(), listID, title)
	if err := item.Validate(); err != nil {
		finish(OpFailed, err)
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	if o.modes.Mode() == models.CloudFirst {
		item.Pending = true
	}
	if err := o.local.SaveItem(ctx, item); err != nil {
		finish(OpFailed, err)
		return nil, err
	}

	state, err := o.propagateItem(ctx, item)
	finish(state, err)
	if err != nil {
		return nil, err
	}

	o.cacheItem(item)
	return item, nil
}

// UpdateItem persists changes to an existing item, verifying its owning
// list still exists.
func (o *Orchestrator) UpdateItem(ctx context.Context, item *models.ListItem) error {
	if err := o.modes.BeginOp(); err != nil {
		return err
	}
	defer o.modes.EndOp()
	finish := o.tracker.Begin("update-item")

	if err := item.Validate(); err != nil {
		finish(OpFailed, err)
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	if _, err := o.local.GetListByID(ctx, item.ListID); err != nil {
		finish(OpFailed, err)
		return err
	}

	item.Touch()
	if o.modes.Mode() == models.CloudFirst {
		item.Pending = true
	}
	if err := o.local.UpdateItem(ctx, item); err != nil {
		finish(OpFailed, err)
		return err
	}

	state, err := o.propagateItem(ctx, item)
	finish(state, err)
	if err != nil {
		return err
	}

	o.cacheItem(item)
	return nil
}

// RemoveItem soft-deletes an item. Idempotent on repeated deletes.
func (o *Orchestrator) RemoveItem(ctx context.Context, id string) error {
	if err := o.modes.BeginOp(); err != nil {
		return err
	}
	defer o.modes.EndOp()
	finish := o.tracker.Begin("remove-item")

	if err := o.local.DeleteItem(ctx, id); err != nil {
		finish(OpFailed, err)
		return err
	}

	state := OpSucceeded
	var opErr error
	if o.modes.Mode() == models.CloudFirst {
		err := o.remote.DeleteItem(ctx, id)
		if errorsIsNotFound(err) {
			err = nil
			if markErr := o.local.MarkItemSynced(ctx, id); markErr != nil {
				o.logger.Error("failed to clear pending bit", "id", id, "error", markErr)
			}
		}
		if err != nil {
			if !Recoverable(err) {
				finish(OpFailed, err)
				return err
			}
			if markErr := o.local.MarkItemPending(ctx, id); markErr != nil {
				o.logger.Error("failed to mark deleted item pending", "id", id, "error", markErr)
			}
			state, opErr = OpFallenBack, err
			o.logger.Warn("remote item delete deferred", "id", id, "error", err)
		}
	}
	finish(state, opErr)

	o.evictItem(id)
	return nil
}

// LoadAll reads the full dataset for the active mode. Cloud-first reads the
// remote store and falls back to the local cache on outage; local-first
// never touches the network. The in-memory snapshot is replaced entity by
// entity from whatever source served the read.
func (o *Orchestrator) LoadAll(ctx context.Context) ([]*ListView, error) {
	if err := o.modes.BeginOp(); err != nil {
		return nil, err
	}
	defer o.modes.EndOp()
	finish := o.tracker.Begin("load-all")

	source := store.EntityStore(o.local)
	state := OpSucceeded

	if o.modes.Mode() == models.CloudFirst {
		if o.remote.IsAvailable(ctx) {
			source = o.remote
			if err := o.repushPending(ctx, nil); err != nil {
				o.logger.Warn("pending repush incomplete", "error", err)
			}
		} else {
			state = OpFallenBack
			o.logger.Warn("remote unavailable, serving local cache")
		}
	}

	views, err := o.loadFrom(ctx, source)
	if err != nil && source == o.remote {
		// The remote scan failed mid-read; the local cache still serves.
		o.logger.Warn("remote read failed, serving local cache", "error", err)
		views, err = o.loadFrom(ctx, o.local)
		state = OpFallenBack
	}
	if err != nil {
		finish(OpFailed, err)
		return nil, err
	}
	finish(state, nil)

	o.mu.Lock()
	o.snapshot = make(map[string]*ListView, len(views))
	for _, view := range views {
		o.snapshot[view.List.ID] = view
	}
	o.mu.Unlock()

	// Refresh the cache when the read came from remote.
	if source == o.remote {
		o.cacheToLocal(ctx, views)
	}

	return views, nil
}

// Snapshot returns a deep copy of the last loaded dataset without touching
// either store.
func (o *Orchestrator) Snapshot() []*ListView {
	o.mu.RLock()
	defer o.mu.RUnlock()

	views := make([]*ListView, 0, len(o.snapshot))
	for _, view := range o.snapshot {
		listCopy := *view.List
		items := make([]*models.ListItem, len(view.Items))
		for i, item := range view.Items {
			itemCopy := *item
			items[i] = &itemCopy
		}
		views = append(views, &ListView{List: &listCopy, Items: items})
	}
	return views
}

// Refresh replays pending writes and reloads the dataset.
func (o *Orchestrator) Refresh(ctx context.Context, progress chan<- ProgressUpdate) ([]*ListView, error) {
	if o.modes.Mode() == models.CloudFirst && o.remote.IsAvailable(ctx) {
		if err := o.modes.BeginOp(); err != nil {
			return nil, err
		}
		if err := o.repushPending(ctx, progress); err != nil {
			o.logger.Warn("pending repush incomplete", "error", err)
		}
		o.modes.EndOp()
	}
	return o.LoadAll(ctx)
}

// SwitchMode runs a persistence-mode transition through the controller. A
// partial migration still completes the transition, so the snapshot is
// invalidated in that case too.
func (o *Orchestrator) SwitchMode(ctx context.Context, isAuthenticated bool, userID string, strategy models.MigrationStrategy, progress chan<- ProgressUpdate) (*MigrationReport, error) {
	report, err := o.modes.Transition(ctx, isAuthenticated, userID, strategy, progress)
	if err != nil && !errors.Is(err, shared.ErrMigrationPartial) {
		return report, err
	}

	o.mu.Lock()
	o.snapshot = make(map[string]*ListView)
	o.mu.Unlock()
	return report, err
}

// Import persists a converted batch of entities through the usual write
// path. Returns how many lists and items were written; stops at the first
// local failure since a partial import is worse than a loud one.
func (o *Orchestrator) Import(ctx context.Context, lists []*models.List, items []*models.ListItem) (int, int, error) {
	if err := o.modes.BeginOp(); err != nil {
		return 0, 0, err
	}
	defer o.modes.EndOp()
	finish := o.tracker.Begin("import")

	cloud := o.modes.Mode() == models.CloudFirst
	state := OpSucceeded

	var listCount int
	for _, list := range lists {
		list.OwnerID = o.local.Owner()
		if cloud {
			list.Pending = true
		}
		if err := o.local.SaveList(ctx, list); err != nil {
			finish(OpFailed, err)
			return listCount, 0, err
		}
		listCount++
		if st, err := o.propagateList(ctx, list); err != nil {
			finish(OpFailed, err)
			return listCount, 0, err
		} else if st == OpFallenBack {
			state = OpFallenBack
		}
	}

	var itemCount int
	for _, item := range items {
		if cloud {
			item.Pending = true
		}
		if err := o.local.SaveItem(ctx, item); err != nil {
			finish(OpFailed, err)
			return listCount, itemCount, err
		}
		itemCount++
		if st, err := o.propagateItem(ctx, item); err != nil {
			finish(OpFailed, err)
			return listCount, itemCount, err
		} else if st == OpFallenBack {
			state = OpFallenBack
		}
	}

	finish(state, nil)
	return listCount, itemCount, nil
}

// repushPending replays every pending local write against the remote store,
// clearing pending bits as writes are confirmed. Soft-deleted pending rows
// replay as remote deletes.
func (o *Orchestrator) repushPending(ctx context.Context, progress chan<- ProgressUpdate) error {
	lists, err := o.local.PendingLists(ctx)
	if err != nil {
		return err
	}
	items, err := o.local.PendingItems(ctx)
	if err != nil {
		return err
	}

	total := len(lists) + len(items)
	if total == 0 {
		return nil
	}
	o.logger.Info("repushing pending writes", "lists", len(lists), "items", len(items))

	step := 0
	var firstErr error
	for _, list := range lists {
		step++
		sendProgress(progress, repushUpdate(step, total))

		err := o.replayList(ctx, list)
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, item := range items {
		step++
		sendProgress(progress, repushUpdate(step, total))

		err := o.replayItem(ctx, item)
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (o *Orchestrator) replayList(ctx context.Context, list *models.List) error {
	var err error
	if list.Deleted() {
		err = o.remote.DeleteList(ctx, list.ID)
		// The remote row may never have existed.
		if errorsIsNotFound(err) {
			err = nil
		}
	} else {
		err = o.remote.SaveList(ctx, list)
	}
	if err != nil {
		return err
	}
	return o.local.MarkListSynced(ctx, list.ID)
}

func (o *Orchestrator) replayItem(ctx context.Context, item *models.ListItem) error {
	var err error
	if item.Deleted() {
		err = o.remote.DeleteItem(ctx, item.ID)
		if errorsIsNotFound(err) {
			err = nil
		}
	} else {
		err = o.remote.SaveItem(ctx, item)
	}
	if err != nil {
		return err
	}
	return o.local.MarkItemSynced(ctx, item.ID)
}

// propagateList attempts the remote half of a cloud-first list write.
func (o *Orchestrator) propagateList(ctx context.Context, list *models.List) (OpState, error) {
	if o.modes.Mode() != models.CloudFirst {
		return OpSucceeded, nil
	}
	if err := o.remote.SaveList(ctx, list); err != nil {
		if !Recoverable(err) {
			return OpFailed, err
		}
		o.logger.Warn("remote list write deferred", "id", list.ID, "error", err)
		return OpFallenBack, nil
	}
	list.Pending = false
	if err := o.local.MarkListSynced(ctx, list.ID); err != nil {
		o.logger.Error("failed to clear pending bit", "id", list.ID, "error", err)
	}
	return OpSucceeded, nil
}

// propagateItem attempts the remote half of a cloud-first item write.
func (o *Orchestrator) propagateItem(ctx context.Context, item *models.ListItem) (OpState, error) {
	if o.modes.Mode() != models.CloudFirst {
		return OpSucceeded, nil
	}
	if err := o.remote.SaveItem(ctx, item); err != nil {
		if !Recoverable(err) {
			return OpFailed, err
		}
		o.logger.Warn("remote item write deferred", "id", item.ID, "error", err)
		return OpFallenBack, nil
	}
	item.Pending = false
	if err := o.local.MarkItemSynced(ctx, item.ID); err != nil {
		o.logger.Error("failed to clear pending bit", "id", item.ID, "error", err)
	}
	return OpSucceeded, nil
}

func (o *Orchestrator) loadFrom(ctx context.Context, s store.EntityStore) ([]*ListView, error) {
	lists, err := s.GetAllLists(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]*ListView, 0, len(lists))
	for _, list := range lists {
		items, err := s.GetItemsByListID(ctx, list.ID)
		if err != nil {
			return nil, err
		}
		views = append(views, &ListView{List: list, Items: items})
	}
	return views, nil
}

// cacheToLocal writes a remote-served dataset into the local cache so the
// next outage has fresh data to fall back on.
func (o *Orchestrator) cacheToLocal(ctx context.Context, views []*ListView) {
	for _, view := range views {
		if err := o.local.SaveList(ctx, view.List); err != nil {
			o.logger.Warn("failed to cache list", "id", view.List.ID, "error", err)
			continue
		}
		for _, item := range view.Items {
			if err := o.local.SaveItem(ctx, item); err != nil {
				o.logger.Warn("failed to cache item", "id", item.ID, "error", err)
			}
		}
	}
}

func (o *Orchestrator) cacheList(list *models.List, items []*models.ListItem) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if existing, ok := o.snapshot[list.ID]; ok && items == nil {
		items = existing.Items
	}
	o.snapshot[list.ID] = &ListView{List: list, Items: items}
}

func (o *Orchestrator) cacheItem(item *models.ListItem) {
	o.mu.Lock()
	defer o.mu.Unlock()
	view, ok := o.snapshot[item.ListID]
	if !ok {
		return
	}
	for i, existing := range view.Items {
		if existing.ID == item.ID {
			view.Items[i] = item
			return
		}
	}
	view.Items = append(view.Items, item)
}

func (o *Orchestrator) evictItem(id string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, view := range o.snapshot {
		for i, item := range view.Items {
			if item.ID == id {
				view.Items = append(view.Items[:i], view.Items[i+1:]...)
				return
			}
		}
	}
}

func errorsIsNotFound(err error) bool {
	return errors.Is(err, shared.ErrNotFound)
}
