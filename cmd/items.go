package main

import (
	"context"
	"fmt"

	"github.com/castock/listsync/internal/models"
	"github.com/castock/listsync/internal/shared"
	"github.com/urfave/cli/v3"
)

// ItemAdd adds an item to a list.
func (r *Runner) ItemAdd(ctx context.Context, cmd *cli.Command) error {
	listRef := cmd.StringArg("list")
	title := cmd.StringArg("title")
	if listRef == "" || title == "" {
		return fmt.Errorf("%w: list and title", shared.ErrMissingArgument)
	}

	if err := r.openEngine(ctx); err != nil {
		return err
	}

	view, err := r.resolveList(ctx, listRef)
	if err != nil {
		return err
	}

	item, err := r.engine.AddItem(ctx, view.List.ID, title)
	if err != nil {
		return err
	}

	if category, priority := cmd.String("category"), cmd.Float("priority"); category != "" || priority != 0 {
		item.Category = category
		item.Priority = priority
		if err := r.engine.UpdateItem(ctx, item); err != nil {
			return err
		}
	}

	r.logger.Info("item added", "id", item.ID, "list", view.List.Name)
	return r.writePlain("✓ Added %s to %s\n", item.Title, view.List.Name)
}

// ItemEdit updates the provided fields on an existing item.
func (r *Runner) ItemEdit(ctx context.Context, cmd *cli.Command) error {
	ref := cmd.StringArg("item")
	if ref == "" {
		return fmt.Errorf("%w: item id or title", shared.ErrMissingArgument)
	}

	if err := r.openEngine(ctx); err != nil {
		return err
	}

	item, err := r.resolveItem(ctx, ref)
	if err != nil {
		return err
	}

	changed := false
	if title := cmd.String("title"); title != "" {
		item.Title = title
		changed = true
	}
	if description := cmd.String("description"); description != "" {
		item.Description = description
		changed = true
	}
	if category := cmd.String("category"); category != "" {
		item.Category = category
		changed = true
	}
	if cmd.IsSet("priority") {
		item.Priority = cmd.Float("priority")
		changed = true
	}
	if !changed {
		return r.writePlain("Nothing to change for %s\n", item.Title)
	}

	if err := r.engine.UpdateItem(ctx, item); err != nil {
		return err
	}
	return r.writePlain("✓ Updated %s\n", item.Title)
}

// ItemDone marks an item completed.
func (r *Runner) ItemDone(ctx context.Context, cmd *cli.Command) error {
	ref := cmd.StringArg("item")
	if ref == "" {
		return fmt.Errorf("%w: item id or title", shared.ErrMissingArgument)
	}

	if err := r.openEngine(ctx); err != nil {
		return err
	}

	item, err := r.resolveItem(ctx, ref)
	if err != nil {
		return err
	}

	item.Complete()
	if err := r.engine.UpdateItem(ctx, item); err != nil {
		return err
	}
	return r.writePlain("✓ Done: %s\n", item.Title)
}

// ItemRemove deletes an item.
func (r *Runner) ItemRemove(ctx context.Context, cmd *cli.Command) error {
	ref := cmd.StringArg("item")
	if ref == "" {
		return fmt.Errorf("%w: item id or title", shared.ErrMissingArgument)
	}

	if err := r.openEngine(ctx); err != nil {
		return err
	}

	item, err := r.resolveItem(ctx, ref)
	if err != nil {
		return err
	}

	if err := r.engine.RemoveItem(ctx, item.ID); err != nil {
		return err
	}
	return r.writePlain("✓ Removed %s\n", item.Title)
}

// resolveItem finds an item by id or by exact title across all lists.
func (r *Runner) resolveItem(ctx context.Context, ref string) (*models.ListItem, error) {
	views, err := r.engine.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	var byTitle *models.ListItem
	for _, view := range views {
		for _, item := range view.Items {
			if item.ID == ref {
				return item, nil
			}
			if byTitle == nil && item.Title == ref {
				byTitle = item
			}
		}
	}
	if byTitle != nil {
		return byTitle, nil
	}
	return nil, fmt.Errorf("item %q: %w", ref, shared.ErrNotFound)
}
