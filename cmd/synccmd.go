package main

import (
	"context"

	"github.com/castock/listsync/internal/engine"
	"github.com/castock/listsync/internal/formatter"
	"github.com/castock/listsync/internal/models"
	"github.com/urfave/cli/v3"
)

// Sync replays deferred writes and refreshes the dataset from the backend.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	if err := r.openEngine(ctx); err != nil {
		return err
	}

	if r.engine.Mode() == models.LocalFirst {
		return r.writePlain("Running local-first; nothing to sync. Sign in with `auth login`.\n")
	}

	r.writePlain("Syncing with backend...\n")

	progress := make(chan engine.ProgressUpdate, 50)
	go r.printProgress(progress)

	views, err := r.engine.Refresh(ctx, progress)
	close(progress)
	if err != nil {
		return err
	}

	total := 0
	for _, view := range views {
		total += len(view.Items)
	}
	r.writePlain("✓ Sync complete: %d lists, %d items\n\n", len(views), total)
	return r.writePlain("%s", formatter.RenderLists(views))
}

// SyncReport shows how many rows are still waiting to reach the backend.
func (r *Runner) SyncReport(ctx context.Context, cmd *cli.Command) error {
	if err := r.openEngine(ctx); err != nil {
		return err
	}

	lists, err := r.local.PendingLists(ctx)
	if err != nil {
		return err
	}
	items, err := r.local.PendingItems(ctx)
	if err != nil {
		return err
	}

	if len(lists) == 0 && len(items) == 0 {
		return r.writePlain("✓ Nothing pending; all writes have reached the backend.\n")
	}

	r.writePlain("Pending: %d lists, %d items\n", len(lists), len(items))
	for _, list := range lists {
		r.writePlain("  list %s (%s)\n", list.Name, list.ID)
	}
	for _, item := range items {
		r.writePlain("  item %s (%s)\n", item.Title, item.ID)
	}
	return nil
}

// printProgress drains a progress channel to the output writer.
func (r *Runner) printProgress(progress <-chan engine.ProgressUpdate) {
	for update := range progress {
		if update.Total > 0 {
			r.writePlain("  %s [%d/%d]\n", update.Message, update.Step, update.Total)
		} else {
			r.writePlain("  %s\n", update.Message)
		}
	}
}
