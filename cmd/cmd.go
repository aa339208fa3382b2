// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand initializes the database and config file.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize database and run migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}

// listCommand handles list operations
func listCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"lists", "l"},
		Usage:   "Todo list operations",
		Commands: []*cli.Command{
			{
				Name:    "all",
				Aliases: []string{"ls"},
				Usage:   "Show every list grouped by kind",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty print JSON output",
					},
				},
				Action: r.ListAll,
			},
			{
				Name:    "add",
				Aliases: []string{"create"},
				Usage:   "Create a new list",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "name"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "kind",
						Aliases: []string{"k"},
						Usage:   "List kind (custom, shopping, project, routine)",
						Value:   "custom",
					},
				},
				Action: r.ListAdd,
			},
			{
				Name:  "show",
				Usage: "Show one list with its items",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "list"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty print JSON output",
					},
				},
				Action: r.ListShow,
			},
			{
				Name:  "rename",
				Usage: "Rename a list",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "list"},
					&cli.StringArg{Name: "name"},
				},
				Action: r.ListRename,
			},
			{
				Name:    "rm",
				Aliases: []string{"delete"},
				Usage:   "Delete a list and its items",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "list"},
				},
				Action: r.ListDelete,
			},
		},
	}
}

// itemCommand handles item operations
func itemCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "item",
		Aliases: []string{"i"},
		Usage:   "Todo item operations",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Add an item to a list",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "list"},
					&cli.StringArg{Name: "title"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "category",
						Usage: "Free-form category tag",
					},
					&cli.FloatFlag{
						Name:  "priority",
						Usage: "Sort priority, higher first",
					},
				},
				Action: r.ItemAdd,
			},
			{
				Name:  "edit",
				Usage: "Update an item's fields",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "item"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "title",
						Usage: "New title",
					},
					&cli.StringFlag{
						Name:  "description",
						Usage: "New description",
					},
					&cli.StringFlag{
						Name:  "category",
						Usage: "New category tag",
					},
					&cli.FloatFlag{
						Name:  "priority",
						Usage: "New sort priority",
					},
				},
				Action: r.ItemEdit,
			},
			{
				Name:  "done",
				Usage: "Mark an item as completed",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "item"},
				},
				Action: r.ItemDone,
			},
			{
				Name:    "rm",
				Aliases: []string{"delete"},
				Usage:   "Delete an item",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "item"},
				},
				Action: r.ItemRemove,
			},
		},
	}
}

// authCommand handles sign-in and sign-out, including the data migration
// either direction implies.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage authentication and persistence mode",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in with a bearer token and migrate local data",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "token",
						Usage:    "JWT issued by the backend",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "strategy",
						Aliases: []string{"s"},
						Usage:   "Migration strategy (merge, replace-local, replace-cloud)",
						Value:   "merge",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "logout",
				Usage:  "Sign out, keeping a local snapshot of cloud data",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Show persistence mode, identity, and backend health",
				Action: r.AuthStatus,
			},
		},
	}
}

// syncCommand replays deferred writes and refreshes from the backend.
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Replay pending writes and refresh from the backend",
		Commands: []*cli.Command{
			{
				Name:   "refresh",
				Usage:  "Replay pending writes and reload from the backend",
				Action: r.Sync,
			},
			{
				Name:   "report",
				Usage:  "Show rows still waiting to reach the backend",
				Action: r.SyncReport,
			},
		},
		Action: r.Sync,
	}
}

// importCommand loads entities from a JSON dump.
func importCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import lists from a JSON dump (legacy, api, or generic shape)",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "path"},
		},
		Action: r.Import,
	}
}

// exportCommand writes the dataset to a file.
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export lists to a file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Export format (csv, markdown, json, text)",
				Value:   "text",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file path",
			},
		},
		Action: r.Export,
	}
}

// serveCommand runs the development backend.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the development sync backend",
		Commands: []*cli.Command{
			{
				Name:  "token",
				Usage: "Mint a development bearer token",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "user",
						Usage:    "User id to embed in the token",
						Required: true,
					},
					&cli.DurationFlag{
						Name:  "ttl",
						Usage: "Token lifetime",
						Value: serveTokenTTL,
					},
				},
				Action: r.ServeToken,
			},
		},
		Action: r.Serve,
	}
}
