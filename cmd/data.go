package main

import (
	"context"
	"fmt"
	"os"

	"github.com/castock/listsync/internal/formatter"
	"github.com/castock/listsync/internal/models"
	"github.com/castock/listsync/internal/server"
	"github.com/castock/listsync/internal/shared"
	"github.com/urfave/cli/v3"
)

// Import reads a JSON dump, detects its shape, and persists the converted
// entities through the engine's usual write path.
func (r *Runner) Import(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: dump file path", shared.ErrMissingArgument)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read dump: %w", err)
	}

	source, err := models.DetectImport(data)
	if err != nil {
		return err
	}

	if err := r.openEngine(ctx); err != nil {
		return err
	}

	owner := ""
	if token := r.token(); token != "" {
		owner, _ = server.UserFromToken(token)
	}

	lists, items, err := source.Entities(owner, shared.GenerateID)
	if err != nil {
		return err
	}

	listCount, itemCount, err := r.engine.Import(ctx, lists, items)
	if err != nil {
		return err
	}

	r.logger.Info("import complete", "lists", listCount, "items", itemCount, "source", path)
	return r.writePlain("✓ Imported %d lists and %d items from %s\n", listCount, itemCount, path)
}

// Export writes the dataset to a file in the chosen format.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	if err := r.openEngine(ctx); err != nil {
		return err
	}

	views, err := r.engine.LoadAll(ctx)
	if err != nil {
		return err
	}

	path, err := formatter.WriteExport(views, cmd.String("format"), cmd.String("output"))
	if err != nil {
		return err
	}

	r.logger.Info("export written", "path", path, "format", cmd.String("format"))
	return r.writePlain("✓ Exported to %s\n", path)
}
