package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/castock/listsync/internal/engine"
	"github.com/castock/listsync/internal/server"
	"github.com/castock/listsync/internal/shared"
	"github.com/castock/listsync/internal/store"
	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config *shared.Config
	logger *log.Logger
	output io.Writer

	db     *sql.DB
	local  *store.SQLiteStore
	remote store.EntityStore
	engine *engine.Orchestrator
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config *shared.Config
	Logger *log.Logger
	Output io.Writer
	Remote store.EntityStore
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config: opts.Config,
		logger: opts.Logger,
		output: opts.Output,
		remote: opts.Remote,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, listCommand, itemCommand, authCommand, syncCommand, importCommand, exportCommand, serveCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// openEngine lazily wires the persistence engine: database, both store
// adapters, mode controller, orchestrator. Safe to call from every action.
func (r *Runner) openEngine(ctx context.Context) error {
	if r.engine != nil {
		return nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	token := r.token()
	userID := ""
	if token != "" {
		if userID, err = server.UserFromToken(token); err != nil {
			r.logger.Warn("stored token is unreadable, starting as guest", "error", err)
			token = ""
		}
	}

	if r.remote == nil {
		r.remote = store.NewRESTStore(r.config.Remote, token)
	}

	r.db = db
	r.local = store.NewSQLiteStore(db, "")
	migrator := engine.NewMigrator(r.local, r.remote, r.logger)
	modes := engine.NewModeController(r.local, r.remote, migrator, r.logger, token != "", userID)
	r.engine = engine.NewOrchestrator(r.local, r.remote, modes, r.logger)

	return nil
}

// Close releases the database handle if the engine was opened.
func (r *Runner) Close() {
	if r.db != nil {
		r.db.Close()
		r.db = nil
	}
}

// token returns the bearer token from config (or environment overlay),
// falling back to the saved token file.
func (r *Runner) token() string {
	if r.config.Auth.Token != "" {
		return r.config.Auth.Token
	}

	data, err := os.ReadFile(r.tokenPath())
	if err != nil {
		return ""
	}
	return string(data)
}

func (r *Runner) tokenPath() string {
	return filepath.Join(os.Getenv("HOME"), ".listsync", "token")
}

func (r *Runner) saveToken(token string) error {
	dir := filepath.Dir(r.tokenPath())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create auth directory: %w", err)
	}
	if err := os.WriteFile(r.tokenPath(), []byte(token), 0600); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

func (r *Runner) clearToken() {
	if err := os.Remove(r.tokenPath()); err != nil && !os.IsNotExist(err) {
		r.logger.Warn("failed to remove token file", "error", err)
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
