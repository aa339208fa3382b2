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

// ModeController holds the current persistence mode and user identity and
// executes the two legal transitions. The embedded gate serializes every
// transition against every CRUD operation: CRUD holds the read side, a
// transition the write side, and neither blocks. A contended acquisition
// surfaces ErrTransitionInProgress so the caller can retry.
type ModeController struct {
	local    *store.SQLiteStore
	remote   store.EntityStore
	migrator *Migrator
	logger   *log.Logger

	gate sync.RWMutex

	mu     sync.RWMutex
	mode   models.PersistenceMode
	userID string
}

// NewModeController computes the initial mode from the authentication signal.
// There is no default assumption of either state.
func NewModeController(local *store.SQLiteStore, remote store.EntityStore, migrator *Migrator, logger *log.Logger, isAuthenticated bool, userID string) *ModeController {
	mode := models.LocalFirst
	if isAuthenticated {
		mode = models.CloudFirst
		local.SetOwner(userID)
	}
	return &ModeController{
		local:    local,
		remote:   remote,
		migrator: migrator,
		logger:   logger,
		mode:     mode,
		userID:   userID,
	}
}

// Mode returns the current persistence mode.
func (c *ModeController) Mode() models.PersistenceMode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mode
}

// UserID returns the current user identity, empty in guest scope.
func (c *ModeController) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

// BeginOp acquires the CRUD side of the transition gate. It fails with
// ErrTransitionInProgress instead of blocking behind a transition.
func (c *ModeController) BeginOp() error {
	if !c.gate.TryRLock() {
		return shared.ErrTransitionInProgress
	}
	return nil
}

// EndOp releases the CRUD side of the gate.
func (c *ModeController) EndOp() {
	c.gate.RUnlock()
}

// Transition applies an authentication-state change.
//
// Sign-in (LocalFirst → CloudFirst) runs the migration strategy first and
// flips the mode only on success; a failed migration leaves the mode and
// local data untouched. Sign-out (CloudFirst → LocalFirst) snapshots the
// remote dataset into the local store so the user's last-known data stays
// available offline, then flips the mode. A transition matching the current
// state is a no-op.
func (c *ModeController) Transition(ctx context.Context, isAuthenticated bool, userID string, strategy models.MigrationStrategy, progress chan<- ProgressUpdate) (*MigrationReport, error) {
	if !c.gate.TryLock() {
		return nil, shared.ErrTransitionInProgress
	}
	defer c.gate.Unlock()

	current := c.Mode()

	switch {
	case isAuthenticated && current == models.LocalFirst:
		return c.signIn(ctx, userID, strategy, progress)
	case !isAuthenticated && current == models.CloudFirst:
		return c.signOut(ctx, progress)
	default:
		c.logger.Debug("transition is a no-op", "mode", current, "authenticated", isAuthenticated)
		return nil, nil
	}
}

func (c *ModeController) signIn(ctx context.Context, userID string, strategy models.MigrationStrategy, progress chan<- ProgressUpdate) (*MigrationReport, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: sign-in requires a user identity", shared.ErrInvalidArgument)
	}

	c.logger.Info("transitioning to cloud-first", "user", userID, "strategy", strategy)

	report, err := c.migrator.Run(ctx, strategy, userID, progress)
	if err != nil && !errors.Is(err, shared.ErrMigrationPartial) {
		// The transition failed, not the application: mode stays LocalFirst.
		c.logger.Error("migration failed, staying local-first", "error", err)
		return report, err
	}
	if err != nil {
		// A quorum of writes landed; the transition completes and the
		// failures travel with the report.
		c.logger.Warn("migration completed with failures", "error", err)
	}

	c.local.SetOwner(userID)
	c.set(models.CloudFirst, userID)
	return report, err
}

func (c *ModeController) signOut(ctx context.Context, progress chan<- ProgressUpdate) (*MigrationReport, error) {
	c.logger.Info("transitioning to local-first", "user", c.UserID())

	// Keep the signed-out user's last-known data servable offline. The local
	// owner scope intentionally stays on that user.
	report, err := c.migrator.snapshotRemote(ctx, progress)
	if err != nil {
		c.logger.Warn("remote snapshot incomplete, local data retained as-is", "error", err)
	}

	c.set(models.LocalFirst, "")
	return report, nil
}

func (c *ModeController) set(mode models.PersistenceMode, userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode = mode
	c.userID = userID
}
