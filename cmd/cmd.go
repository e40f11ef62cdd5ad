// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func userFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "user",
		Aliases: []string{"u"},
		Usage:   "Local owner id migration records are kept under",
		Value:   "default",
	}
}

// setupCommand initializes the local database
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Initialize database and run migrations",
		Flags:  []cli.Flag{configFlag()},
		Action: r.SetupDatabase,
	}
}

// authCommand links and unlinks Google accounts
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Link the Google accounts used for migration",
		Commands: []*cli.Command{
			{
				Name:   "source",
				Usage:  "Link the account playlists are read from",
				Action: r.AuthSource,
			},
			{
				Name:    "destination",
				Aliases: []string{"dest"},
				Usage:   "Link the account playlists are re-created on",
				Action:  r.AuthDest,
			},
			{
				Name:  "revoke",
				Usage: "Revoke and delete a stored token",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "account"},
				},
				Action: r.AuthRevoke,
			},
		},
	}
}

// playlistsCommand handles playlist listing and migration
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"pl"},
		Usage:   "Playlist operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List playlists on the source account",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
					&cli.BoolFlag{Name: "pretty", Usage: "Pretty-print output"},
				},
				Action: r.PlaylistsList,
			},
			{
				Name:  "migrate",
				Usage: "Mirror source playlists and re-create them on the destination account",
				Flags: []cli.Flag{
					userFlag(),
					&cli.StringSliceFlag{
						Name:  "id",
						Usage: "Playlist id to migrate (repeatable)",
					},
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Migrate every playlist on the source account",
					},
					&cli.BoolFlag{
						Name:  "fetch-only",
						Usage: "Only mirror playlists into the local store",
					},
					&cli.BoolFlag{
						Name:  "create-only",
						Usage: "Only re-create previously mirrored playlists",
					},
					&cli.BoolFlag{
						Name:  "tui",
						Usage: "Pick playlists interactively instead of passing flags",
					},
				},
				Action: r.PlaylistsMigrate,
			},
		},
	}
}

// subscriptionsCommand handles subscription listing, migration, and pruning
func subscriptionsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "subscriptions",
		Aliases: []string{"subs"},
		Usage:   "Subscription operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List subscriptions on the source account",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
					&cli.BoolFlag{Name: "pretty", Usage: "Pretty-print output"},
				},
				Action: r.SubscriptionsList,
			},
			{
				Name:   "migrate",
				Usage:  "Subscribe the destination account to every source channel",
				Action: r.SubscriptionsMigrate,
			},
			{
				Name:  "prune",
				Usage: "Unsubscribe the source account from channels already carried over",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Usage: "Confirm the destructive prune"},
				},
				Action: r.SubscriptionsPrune,
			},
		},
	}
}

// statusCommand reports past migration outcomes
func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show per-resource outcomes of recent migration runs",
		Flags: []cli.Flag{
			userFlag(),
			&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
			&cli.BoolFlag{Name: "pretty", Usage: "Pretty-print output"},
		},
		Action: r.Status,
	}
}

// tuiCommand launches the interactive picker
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "tui",
		Usage:  "Interactively pick and migrate playlists",
		Flags:  []cli.Flag{userFlag()},
		Action: r.TUI,
	}
}
