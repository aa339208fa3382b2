package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/castock/listsync/internal/models"
	"github.com/castock/listsync/internal/shared"
	"github.com/castock/listsync/internal/store"
	"github.com/charmbracelet/log"
)

// EntityError records one entity write that failed during a migration.
type EntityError struct {
	Kind string // "list" or "item"
	ID   string
	Err  error
}

func (e EntityError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Kind, e.ID, e.Err)
}

// MigrationReport summarizes one migration run. Individual entity failures
// are collected here rather than aborting the run.
type MigrationReport struct {
	Strategy     models.MigrationStrategy
	ListsWritten int
	ItemsWritten int
	Skipped      int
	Failures     []EntityError
}

// Attempted returns the number of entity writes the run attempted.
func (r *MigrationReport) Attempted() int {
	return r.ListsWritten + r.ItemsWritten + len(r.Failures)
}

// Err returns nil for a clean run, ErrMigrationPartial when some entities
// failed but a majority succeeded, and ErrMigrationFailed otherwise.
func (r *MigrationReport) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	succeeded := r.ListsWritten + r.ItemsWritten
	if succeeded*2 > r.Attempted() {
		return fmt.Errorf("%w: %d of %d writes failed", shared.ErrMigrationPartial, len(r.Failures), r.Attempted())
	}
	return fmt.Errorf("%w: %d of %d writes failed", shared.ErrMigrationFailed, len(r.Failures), r.Attempted())
}

// dataset is a full scan of one store: lists plus items grouped by list.
type dataset struct {
	lists map[string]*models.List
	items map[string]*models.ListItem
	order []string // list ids in scan order
}

// Migrator reconciles the local and remote datasets during a mode transition.
// Runs are cancellable between individual entity operations.
type Migrator struct {
	local  *store.SQLiteStore
	remote store.EntityStore
	logger *log.Logger
}

// NewMigrator creates a Migrator over the given adapters.
func NewMigrator(local *store.SQLiteStore, remote store.EntityStore, logger *log.Logger) *Migrator {
	return &Migrator{local: local, remote: remote, logger: logger}
}

// Run executes exactly one strategy. Guest-scoped rows are rewritten to the
// newly authenticated userID before any remote upsert. The run fails outright
// when the remote backend is unreachable; per-entity failures are collected
// into the report and judged by its quorum rule.
func (m *Migrator) Run(ctx context.Context, strategy models.MigrationStrategy, userID string, progress chan<- ProgressUpdate) (*MigrationReport, error) {
	report := &MigrationReport{Strategy: strategy}

	var err error
	switch strategy {
	case models.ReplaceLocalWithCloud:
		err = m.replaceLocal(ctx, report, progress)
	case models.ReplaceCloudWithLocal:
		err = m.replaceCloud(ctx, report, userID, progress)
	case models.IntelligentMerge:
		err = m.merge(ctx, report, userID, progress)
	default:
		return nil, fmt.Errorf("%w: strategy %v", shared.ErrInvalidArgument, strategy)
	}
	if err != nil {
		return report, err
	}

	if err := report.Err(); err != nil {
		return report, err
	}

	m.logger.Info("migration complete",
		"strategy", strategy,
		"lists", report.ListsWritten,
		"items", report.ItemsWritten,
		"skipped", report.Skipped,
		"failures", len(report.Failures))

	return report, nil
}

// snapshotRemote copies the remote dataset into the local store, used on
// sign-out. The local store is cleared only after the remote scan succeeds.
func (m *Migrator) snapshotRemote(ctx context.Context, progress chan<- ProgressUpdate) (*MigrationReport, error) {
	report := &MigrationReport{Strategy: models.ReplaceLocalWithCloud}
	if err := m.replaceLocal(ctx, report, progress); err != nil {
		return report, err
	}
	return report, report.Err()
}

// replaceLocal makes the remote dataset authoritative: the local scope is
// cleared and repopulated from remote reads.
func (m *Migrator) replaceLocal(ctx context.Context, report *MigrationReport, progress chan<- ProgressUpdate) error {
	remote, err := m.scan(ctx, m.remote)
	if err != nil {
		return fmt.Errorf("remote scan failed: %w", err)
	}
	sendProgress(progress, scanRemoteUpdate(len(remote.order)))

	if err := m.local.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear local store: %w", err)
	}

	total := len(remote.lists) + len(remote.items)
	step := 0

	for _, id := range remote.order {
		if err := ctx.Err(); err != nil {
			return err
		}
		step++
		sendProgress(progress, pullLocalUpdate(step, total))

		list := remote.lists[id]
		if err := m.local.SaveList(ctx, list); err != nil {
			report.Failures = append(report.Failures, EntityError{Kind: "list", ID: id, Err: err})
			continue
		}
		report.ListsWritten++
	}

	for id, item := range remote.items {
		if err := ctx.Err(); err != nil {
			return err
		}
		step++
		sendProgress(progress, pullLocalUpdate(step, total))

		if err := m.local.SaveItem(ctx, item); err != nil {
			report.Failures = append(report.Failures, EntityError{Kind: "item", ID: id, Err: err})
			continue
		}
		report.ItemsWritten++
	}

	return nil
}

// replaceCloud makes the local dataset authoritative: every local entity is
// upserted to remote as the newly authenticated owner.
func (m *Migrator) replaceCloud(ctx context.Context, report *MigrationReport, userID string, progress chan<- ProgressUpdate) error {
	if !m.remote.IsAvailable(ctx) {
		return fmt.Errorf("%w: remote backend unreachable", shared.ErrUnavailable)
	}

	local, err := m.scan(ctx, m.local)
	if err != nil {
		return fmt.Errorf("local scan failed: %w", err)
	}
	sendProgress(progress, scanLocalUpdate(len(local.order)))

	total := len(local.lists) + len(local.items)
	step := 0

	for _, id := range local.order {
		if err := ctx.Err(); err != nil {
			return err
		}
		step++
		sendProgress(progress, pushRemoteUpdate(step, total))

		list := local.lists[id]
		list.OwnerID = userID
		if err := m.pushList(ctx, report, list); err != nil {
			return err
		}
	}

	for _, item := range local.items {
		if err := ctx.Err(); err != nil {
			return err
		}
		step++
		sendProgress(progress, pushRemoteUpdate(step, total))

		if err := m.pushItem(ctx, report, item); err != nil {
			return err
		}
	}

	// Persist the ownership rewrite locally so the datasets agree.
	for _, id := range local.order {
		if err := m.local.SaveList(ctx, local.lists[id]); err != nil {
			m.logger.Warn("failed to rescope local list", "id", id, "error", err)
		}
	}

	return nil
}

// merge reconciles entity by entity: one-sided entities are copied to the
// other store; two-sided conflicts resolve by later update timestamp with
// ties to the remote copy. Running merge twice with no intervening changes
// performs zero writes the second time.
func (m *Migrator) merge(ctx context.Context, report *MigrationReport, userID string, progress chan<- ProgressUpdate) error {
	local, err := m.scan(ctx, m.local)
	if err != nil {
		return fmt.Errorf("local scan failed: %w", err)
	}
	sendProgress(progress, scanLocalUpdate(len(local.order)))

	remote, err := m.scan(ctx, m.remote)
	if err != nil {
		return fmt.Errorf("remote scan failed: %w", err)
	}
	sendProgress(progress, scanRemoteUpdate(len(remote.order)))

	listIDs := unionKeys(local.order, remote.order)
	total := len(listIDs)

	for step, id := range listIDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		sendProgress(progress, mergeUpdate(step+1, total))

		localList, inLocal := local.lists[id]
		remoteList, inRemote := remote.lists[id]

		switch {
		case inLocal && !inRemote:
			localList.OwnerID = userID
			if err := m.local.SaveList(ctx, localList); err != nil {
				report.Failures = append(report.Failures, EntityError{Kind: "list", ID: id, Err: err})
				continue
			}
			if err := m.pushList(ctx, report, localList); err != nil {
				return err
			}
		case inRemote && !inLocal:
			if err := m.pullList(ctx, report, remoteList); err != nil {
				return err
			}
		default:
			m.mergeLists(ctx, report, localList, remoteList, userID)
		}
	}

	itemIDs := unionItemKeys(local.items, remote.items)
	for _, id := range itemIDs {
		if err := ctx.Err(); err != nil {
			return err
		}

		localItem, inLocal := local.items[id]
		remoteItem, inRemote := remote.items[id]

		switch {
		case inLocal && !inRemote:
			if err := m.pushItem(ctx, report, localItem); err != nil {
				return err
			}
		case inRemote && !inLocal:
			if err := m.pullItem(ctx, report, remoteItem); err != nil {
				return err
			}
		default:
			m.mergeItems(ctx, report, localItem, remoteItem)
		}
	}

	return nil
}

// mergeLists resolves one two-sided list conflict by last writer, ties to remote.
func (m *Migrator) mergeLists(ctx context.Context, report *MigrationReport, localList, remoteList *models.List, userID string) {
	switch {
	case localList.ModifiedAt().After(remoteList.ModifiedAt()):
		localList.OwnerID = userID
		if err := m.remote.SaveList(ctx, localList); err != nil {
			report.Failures = append(report.Failures, EntityError{Kind: "list", ID: localList.ID, Err: err})
			return
		}
		report.ListsWritten++
	case remoteList.ModifiedAt().After(localList.ModifiedAt()) || !listsEqual(localList, remoteList):
		// Remote is newer, or timestamps tie with differing payloads:
		// the remote copy wins as the durability-preferred backend.
		if err := m.local.SaveList(ctx, remoteList); err != nil {
			report.Failures = append(report.Failures, EntityError{Kind: "list", ID: remoteList.ID, Err: err})
			return
		}
		report.ListsWritten++
	default:
		report.Skipped++
	}
}

// mergeItems resolves one two-sided item conflict by last writer, ties to remote.
func (m *Migrator) mergeItems(ctx context.Context, report *MigrationReport, localItem, remoteItem *models.ListItem) {
	switch {
	case localItem.ModifiedAt().After(remoteItem.ModifiedAt()):
		if err := m.remote.SaveItem(ctx, localItem); err != nil {
			report.Failures = append(report.Failures, EntityError{Kind: "item", ID: localItem.ID, Err: err})
			return
		}
		report.ItemsWritten++
	case remoteItem.ModifiedAt().After(localItem.ModifiedAt()) || !itemsEqual(localItem, remoteItem):
		if err := m.local.SaveItem(ctx, remoteItem); err != nil {
			report.Failures = append(report.Failures, EntityError{Kind: "item", ID: remoteItem.ID, Err: err})
			return
		}
		report.ItemsWritten++
	default:
		report.Skipped++
	}
}

// pushList upserts one list to remote. An unreachable remote aborts the run;
// any other failure is collected.
func (m *Migrator) pushList(ctx context.Context, report *MigrationReport, list *models.List) error {
	if err := m.remote.SaveList(ctx, list); err != nil {
		if isUnreachable(err) {
			return fmt.Errorf("remote backend lost mid-migration: %w", err)
		}
		report.Failures = append(report.Failures, EntityError{Kind: "list", ID: list.ID, Err: err})
		return nil
	}
	report.ListsWritten++
	return nil
}

func (m *Migrator) pushItem(ctx context.Context, report *MigrationReport, item *models.ListItem) error {
	if err := m.remote.SaveItem(ctx, item); err != nil {
		if isUnreachable(err) {
			return fmt.Errorf("remote backend lost mid-migration: %w", err)
		}
		report.Failures = append(report.Failures, EntityError{Kind: "item", ID: item.ID, Err: err})
		return nil
	}
	report.ItemsWritten++
	return nil
}

func (m *Migrator) pullList(ctx context.Context, report *MigrationReport, list *models.List) error {
	if err := m.local.SaveList(ctx, list); err != nil {
		report.Failures = append(report.Failures, EntityError{Kind: "list", ID: list.ID, Err: err})
		return nil
	}
	report.ListsWritten++
	return nil
}

func (m *Migrator) pullItem(ctx context.Context, report *MigrationReport, item *models.ListItem) error {
	if err := m.local.SaveItem(ctx, item); err != nil {
		report.Failures = append(report.Failures, EntityError{Kind: "item", ID: item.ID, Err: err})
		return nil
	}
	report.ItemsWritten++
	return nil
}

// scan reads the full dataset of one store.
func (m *Migrator) scan(ctx context.Context, s store.EntityStore) (*dataset, error) {
	lists, err := s.GetAllLists(ctx)
	if err != nil {
		return nil, err
	}

	ds := &dataset{
		lists: make(map[string]*models.List, len(lists)),
		items: make(map[string]*models.ListItem),
	}

	for _, list := range lists {
		ds.lists[list.ID] = list
		ds.order = append(ds.order, list.ID)

		items, err := s.GetItemsByListID(ctx, list.ID)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			ds.items[item.ID] = item
		}
	}

	return ds, nil
}

func isUnreachable(err error) bool {
	return errors.Is(err, shared.ErrUnavailable)
}

// listsEqual compares the merge-relevant payload of two lists.
func listsEqual(a, b *models.List) bool {
	return a.Name == b.Name &&
		a.Kind == b.Kind &&
		a.Deleted() == b.Deleted()
}

// itemsEqual compares the merge-relevant payload of two items.
func itemsEqual(a, b *models.ListItem) bool {
	return a.ListID == b.ListID &&
		a.Title == b.Title &&
		a.Description == b.Description &&
		a.Category == b.Category &&
		a.Priority == b.Priority &&
		a.Done == b.Done &&
		a.Deleted() == b.Deleted()
}

// unionKeys merges two ordered key slices, local order first.
func unionKeys(local, remote []string) []string {
	seen := make(map[string]bool, len(local)+len(remote))
	var out []string
	for _, id := range local {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, id := range remote {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// unionItemKeys merges the key sets of two item maps.
func unionItemKeys(local, remote map[string]*models.ListItem) []string {
	seen := make(map[string]bool, len(local)+len(remote))
	var out []string
	for id := range local {
		seen[id] = true
		out = append(out, id)
	}
	for id := range remote {
		if !seen[id] {
			out = append(out, id)
		}
	}
	return out
}
