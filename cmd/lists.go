package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/castock/listsync/internal/engine"
	"github.com/castock/listsync/internal/formatter"
	"github.com/castock/listsync/internal/models"
	"github.com/castock/listsync/internal/shared"
	"github.com/urfave/cli/v3"
)

// ListAll shows every list grouped by kind.
func (r *Runner) ListAll(ctx context.Context, cmd *cli.Command) error {
	if err := r.openEngine(ctx); err != nil {
		return err
	}

	views, err := r.engine.LoadAll(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(views, cmd.Bool("pretty"))
	}
	return r.writePlain("%s", formatter.RenderLists(views))
}

// ListAdd creates a new list.
func (r *Runner) ListAdd(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	if name == "" {
		return fmt.Errorf("%w: list name", shared.ErrMissingArgument)
	}

	kind := models.ListKind(cmd.String("kind"))
	if !kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", shared.ErrInvalidFlag, cmd.String("kind"))
	}

	if err := r.openEngine(ctx); err != nil {
		return err
	}

	list, err := r.engine.CreateList(ctx, name, kind)
	if err != nil {
		return err
	}

	r.logger.Info("list created", "id", list.ID, "name", list.Name)
	return r.writePlain("✓ Created %s (%s)\n", list.Name, list.ID)
}

// ListShow prints one list with its items.
func (r *Runner) ListShow(ctx context.Context, cmd *cli.Command) error {
	ref := cmd.StringArg("list")
	if ref == "" {
		return fmt.Errorf("%w: list id or name", shared.ErrMissingArgument)
	}

	if err := r.openEngine(ctx); err != nil {
		return err
	}

	view, err := r.resolveList(ctx, ref)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(view, cmd.Bool("pretty"))
	}
	return r.writePlain("%s", formatter.RenderItems(view))
}

// ListRename changes a list's name.
func (r *Runner) ListRename(ctx context.Context, cmd *cli.Command) error {
	ref := cmd.StringArg("list")
	name := cmd.StringArg("name")
	if ref == "" || name == "" {
		return fmt.Errorf("%w: list and new name", shared.ErrMissingArgument)
	}

	if err := r.openEngine(ctx); err != nil {
		return err
	}

	view, err := r.resolveList(ctx, ref)
	if err != nil {
		return err
	}

	view.List.Name = name
	if err := r.engine.UpdateList(ctx, view.List); err != nil {
		return err
	}
	return r.writePlain("✓ Renamed to %s\n", name)
}

// ListDelete removes a list and its items.
func (r *Runner) ListDelete(ctx context.Context, cmd *cli.Command) error {
	ref := cmd.StringArg("list")
	if ref == "" {
		return fmt.Errorf("%w: list id or name", shared.ErrMissingArgument)
	}

	if err := r.openEngine(ctx); err != nil {
		return err
	}

	view, err := r.resolveList(ctx, ref)
	if err != nil {
		return err
	}

	if err := r.engine.DeleteList(ctx, view.List.ID); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted %s\n", view.List.Name)
}

// resolveList finds a list by id or by exact name.
func (r *Runner) resolveList(ctx context.Context, ref string) (*engine.ListView, error) {
	views, err := r.engine.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	for _, view := range views {
		if view.List.ID == ref {
			return view, nil
		}
	}
	for _, view := range views {
		if strings.EqualFold(view.List.Name, ref) {
			return view, nil
		}
	}
	return nil, fmt.Errorf("list %q: %w", ref, shared.ErrNotFound)
}
