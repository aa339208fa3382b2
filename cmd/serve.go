package main

import (
	"context"
	"fmt"
	"time"

	"github.com/castock/listsync/internal/server"
	"github.com/castock/listsync/internal/shared"
	"github.com/urfave/cli/v3"
)

const serveTokenTTL = 24 * time.Hour

// Serve runs the development sync backend against the configured database.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	secret := r.config.Auth.JWTSecret
	if secret == "" {
		return fmt.Errorf("%w: auth.jwt_secret must be set to serve", shared.ErrMissingConfig)
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	srv := server.NewServer(db, r.config.Server, secret, r.logger)
	return srv.Run(ctx)
}

// ServeToken mints a development bearer token for the configured secret.
func (r *Runner) ServeToken(ctx context.Context, cmd *cli.Command) error {
	secret := r.config.Auth.JWTSecret
	if secret == "" {
		return fmt.Errorf("%w: auth.jwt_secret must be set to mint tokens", shared.ErrMissingConfig)
	}

	token, err := server.GenerateToken(cmd.String("user"), secret, cmd.Duration("ttl"))
	if err != nil {
		return err
	}
	return r.writePlain("%s\n", token)
}
