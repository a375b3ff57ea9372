// submodule cmd contains command definitions
package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/hsrx/internal/formatter"
	"github.com/desertthunder/hsrx/internal/models"
)

// filterFlags are shared by commands that walk the feed.
func filterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "name",
			Usage: "Only replays with a player whose name contains this text",
		},
		&cli.StringFlag{
			Name:  "mode",
			Usage: "Game mode: arena, ranked, casual, brawl, friendly or adventure",
		},
		&cli.StringFlag{
			Name:  "format",
			Usage: "Game format: standard or wild",
		},
		&cli.StringFlag{
			Name:  "result",
			Usage: "Result: won or lost",
		},
		&cli.StringFlag{
			Name:  "hero",
			Usage: "Your class, e.g. mage",
		},
		&cli.StringFlag{
			Name:  "opponent",
			Usage: "Opponent class, e.g. warrior",
		},
		&cli.StringFlag{
			Name:    "query",
			Aliases: []string{"q"},
			Usage:   "Raw filter fragment, e.g. \"mode=arena&result=won\"",
		},
	}
}

// gamesCommand handles replay feed operations
func gamesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "games",
		Aliases: []string{"replays"},
		Usage:   "List, export and manage uploaded replays",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "Show one local page of the filtered feed",
				Flags: append(filterFlags(),
					&cli.IntFlag{
						Name:  "page",
						Usage: "Local page number, starting at 1",
						Value: 1,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				),
				Action: r.GamesList,
			},
			{
				Name:  "export",
				Usage: "Export every replay matching the filters",
				Flags: append(filterFlags(),
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (default: replays_{username}{ext})",
					},
					&cli.StringFlag{
						Name:    "as",
						Aliases: []string{"f"},
						Usage:   fmt.Sprintf("Export format: %s", strings.Join(formatter.Formats(), ", ")),
						Value:   formatter.FormatCSV,
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Stop after this many matches (0 for all)",
					},
					&cli.IntFlag{
						Name:  "max-pages",
						Usage: "Stop after this many server pages (0 for all)",
					},
					&cli.IntFlag{
						Name:  "rate",
						Usage: "Page requests per second",
						Value: 2,
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Count matches without writing a file",
					},
				),
				Action: r.GamesExport,
			},
			{
				Name:  "show",
				Usage: "Show one replay",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "shortid"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.GamesShow,
			},
			{
				Name:  "delete",
				Usage: "Delete one of your replays",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "shortid"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "yes",
						Aliases: []string{"y"},
						Usage:   "Skip the confirmation prompt",
					},
				},
				Action: r.GamesDelete,
			},
			{
				Name:  "visibility",
				Usage: "Change who can see a replay",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "shortid"},
					&cli.StringArg{Name: "visibility"},
				},
				Action: r.GamesVisibility,
			},
		},
	}
}

// metadataCommand handles card metadata lookups
func metadataCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "metadata",
		Aliases: []string{"meta"},
		Usage:   "Resolve and prefetch card metadata",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Resolve the metadata document of a build",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "build"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "locale",
						Usage: "Card text locale (default from config)",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output the raw document",
					},
				},
				Action: r.MetadataGet,
			},
			{
				Name:  "prefetch",
				Usage: "Store the metadata of several builds in the cache",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "build",
						Aliases: []string{"b"},
						Usage:   "Build number to prefetch (repeatable)",
					},
					&cli.BoolFlag{
						Name:  "from-feed",
						Usage: "Also prefetch every build seen in the first feed pages",
					},
					&cli.IntFlag{
						Name:  "pages",
						Usage: "Feed pages to scan with --from-feed",
						Value: 3,
					},
					&cli.StringFlag{
						Name:  "locale",
						Usage: "Card text locale (default from config)",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent fetches",
						Value: 4,
					},
					&cli.IntFlag{
						Name:  "rate",
						Usage: "Fetches per second",
						Value: 4,
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Refetch builds that are already cached",
					},
				},
				Action: r.MetadataPrefetch,
			},
		},
	}
}

// cacheCommand inspects the sqlite metadata cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect the local metadata cache",
		Commands: []*cli.Command{
			{
				Name:   "stats",
				Usage:  "Show cached documents and their size",
				Action: r.CacheStats,
			},
			{
				Name:  "list",
				Usage: "List cached documents",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "locale",
						Usage: "Only documents in this locale",
					},
				},
				Action: r.CacheList,
			},
			{
				Name:   "clear",
				Usage:  "Remove every cached document",
				Action: r.CacheClear,
			},
		},
	}
}

// shareCommand builds share links
func shareCommand(r *Runner) *cli.Command {
	networks := []string{models.NetworkCopy, models.NetworkTwitter, models.NetworkReddit, models.NetworkFacebook}
	return &cli.Command{
		Name:  "share",
		Usage: "Build a share link for a replay",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "shortid"},
		},
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "turn",
				Usage: "Link to this half-turn, counting from 1",
			},
			&cli.BoolFlag{
				Name:  "reveal",
				Usage: "Show hidden cards when the link opens",
			},
			&cli.BoolFlag{
				Name:  "swap",
				Usage: "Swap the player perspective when the link opens",
			},
			&cli.StringFlag{
				Name:  "network",
				Usage: fmt.Sprintf("Record the share on a network: %s", strings.Join(networks, ", ")),
				Value: models.NetworkCopy,
			},
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the link in the browser",
			},
		},
		Action: r.Share,
	}
}

// serveCommand runs the local games API fixture
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve a local games API with seeded replays",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (default from config)",
			},
			&cli.IntFlag{
				Name:  "fixtures",
				Usage: "Number of seeded replays (default from config)",
			},
			&cli.StringFlag{
				Name:  "username",
				Usage: "Uploader of the seeded replays",
				Value: "dev",
			},
			&cli.IntFlag{
				Name:  "seed",
				Usage: "Random seed for the fixtures",
				Value: 1,
			},
			&cli.StringFlag{
				Name:  "token",
				Usage: "Require this API token for changes",
			},
			&cli.StringSliceFlag{
				Name:  "origin",
				Usage: "Allowed CORS origin (repeatable)",
			},
		},
		Action: r.Serve,
	}
}

// apiCommand handles direct API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the replay site API",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET to the API, prints raw JSON",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
						Value: true,
					},
				},
				Action: r.APIGet,
			},
		},
	}
}

// setupCommand handles setup operations for database and authentication.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   defaultConfigPath,
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:  "token",
				Usage: "Store the API token from a browser request",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "curl",
						Usage: "cURL command from browser DevTools (Copy as cURL)",
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "Path to .sh file containing cURL command",
					},
					&cli.StringFlag{
						Name:  "token",
						Usage: "API token to store directly",
					},
					&cli.StringFlag{
						Name:  "username",
						Usage: "Account whose replays are listed",
					},
					&cli.StringFlag{
						Name:  "env-file",
						Usage: "Dotenv file to write",
						Value: ".env",
					},
				},
				Action: r.SetupToken,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive replay browsing.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive replay browser",
		Flags: append(filterFlags(),
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where the TUI writes its logs",
				Value: "./tmp/hsrx-tui.log",
			},
		),
		Action: r.TUI,
	}
}
