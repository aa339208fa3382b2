package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/castock/listsync/internal/engine"
	"github.com/castock/listsync/internal/formatter"
	"github.com/castock/listsync/internal/models"
	"github.com/castock/listsync/internal/server"
	"github.com/castock/listsync/internal/shared"
	"github.com/castock/listsync/internal/store"
	"github.com/urfave/cli/v3"
)

// AuthLogin switches to cloud-first persistence. The engine starts as a
// guest, migrates per the chosen strategy using the new token, and the
// token is persisted only after the transition succeeds.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	token := cmd.String("token")

	userID, err := server.UserFromToken(token)
	if err != nil {
		return err
	}

	strategy, err := models.ParseStrategy(cmd.String("strategy"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}

	// The remote adapter must carry the new token before the engine opens.
	r.remote = store.NewRESTStore(r.config.Remote, token)
	if err := r.openEngine(ctx); err != nil {
		return err
	}

	if r.engine.Mode() == models.CloudFirst {
		return r.writePlain("Already signed in\n")
	}

	r.logger.Info("signing in", "user", userID, "strategy", strategy)

	progress := make(chan engine.ProgressUpdate, 50)
	go r.printProgress(progress)

	report, err := r.engine.SwitchMode(ctx, true, userID, strategy, progress)
	close(progress)
	if err != nil && !errors.Is(err, shared.ErrMigrationPartial) {
		r.writePlain("%s", formatter.RenderReport(report))
		return err
	}

	if saveErr := r.saveToken(token); saveErr != nil {
		return saveErr
	}

	r.writePlain("%s", formatter.RenderReport(report))
	if err != nil {
		r.writePlain("⚠ Some entities did not migrate; see the report above.\n")
	}
	return r.writePlain("✓ Signed in as %s\n", userID)
}

// AuthLogout switches back to local-first persistence, snapshotting the
// cloud dataset locally first so it stays readable offline.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.openEngine(ctx); err != nil {
		return err
	}

	if r.engine.Mode() == models.LocalFirst {
		return r.writePlain("Not signed in\n")
	}

	progress := make(chan engine.ProgressUpdate, 50)
	go r.printProgress(progress)

	report, err := r.engine.SwitchMode(ctx, false, "", models.ReplaceLocalWithCloud, progress)
	close(progress)
	if err != nil {
		return err
	}

	r.clearToken()
	r.writePlain("%s", formatter.RenderReport(report))
	return r.writePlain("✓ Signed out\n")
}

// AuthStatus shows the persistence mode, identity, backend health, and
// recent operation history.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.openEngine(ctx); err != nil {
		return err
	}

	userID := ""
	if token := r.token(); token != "" {
		userID, _ = server.UserFromToken(token)
	}

	r.writePlain("%s", formatter.RenderStatus(r.engine.Mode(), userID, r.engine.Tracker()))

	if r.engine.Mode() == models.CloudFirst {
		if r.remote.IsAvailable(ctx) {
			return r.writePlain("  backend: reachable\n")
		}
		return r.writePlain("  backend: unreachable, writes are deferred\n")
	}
	return nil
}
