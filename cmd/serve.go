package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/hsrx/internal/server"
	"github.com/desertthunder/hsrx/internal/services"
)

// Serve runs a local games API seeded with generated replays until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	addr := cmd.String("addr")
	if addr == "" {
		addr = r.config.Server.Addr()
	}
	n := cmd.Int("fixtures")
	if n <= 0 {
		n = r.config.Server.Fixtures
	}
	username := cmd.String("username")

	replays, err := server.Seed(n, username, uint64(cmd.Int("seed")))
	if err != nil {
		return err
	}
	store := server.NewGameStore()
	if err := store.Add(replays...); err != nil {
		return err
	}

	srv := server.New(server.Opts{
		Addr:    addr,
		Store:   store,
		Token:   cmd.String("token"),
		Origins: cmd.StringSlice("origin"),
		Logger:  r.logger,
	})

	r.writePlain("Serving %d replays of %q on http://%s%s\n", store.Len(), username, addr, services.GamesPath)
	r.writePlain("Point api.base_url at http://%s to use it.\n", addr)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx, srv, r.logger); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
