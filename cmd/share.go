package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/hsrx/internal/metrics"
	"github.com/desertthunder/hsrx/internal/models"
	"github.com/desertthunder/hsrx/internal/query"
	"github.com/desertthunder/hsrx/internal/repositories"
	"github.com/desertthunder/hsrx/internal/shared"
)

// Share builds the share link of a replay and records the share once per network.
func (r *Runner) Share(ctx context.Context, cmd *cli.Command) error {
	shortID := cmd.StringArg("shortid")
	if shortID == "" {
		return fmt.Errorf("%w: shortid", shared.ErrMissingArgument)
	}

	network := cmd.String("network")
	link := shared.ReplayURL(r.config.API.BaseURL, shortID, "")

	opts := query.ShareOptions{
		Turn:       cmd.Int("turn"),
		LinkToTurn: cmd.Int("turn") > 0,
	}
	if cmd.IsSet("reveal") || cmd.IsSet("swap") {
		opts.PreservePerspective = true
		if cmd.IsSet("reveal") {
			reveal := cmd.Bool("reveal")
			opts.Reveal = &reveal
		}
		if cmd.IsSet("swap") {
			swap := cmd.Bool("swap")
			opts.Swap = &swap
		}
	}
	link = query.BuildShareURL(link, opts)

	target := link
	if network != models.NetworkCopy {
		var ok bool
		if target, ok = query.ShareLinks(link)[network]; !ok {
			return fmt.Errorf("%w: unknown network %q", shared.ErrInvalidArgument, network)
		}
	}

	db, err := r.database()
	if err != nil {
		return err
	}
	reporter := r.reporter(metrics.SitePrefix, nil)
	first, err := metrics.TrackShare(reporter, repositories.NewShareRepository(db), shortID, network, opts.LinkToTurn)
	if err != nil {
		r.logger.Warn("failed to record share", "error", err)
	}
	r.logger.Debug("share", "shortid", shortID, "network", network, "first", first)

	r.writePlain("%s\n", target)

	if cmd.Bool("open") {
		if err := shared.OpenBrowser(target); err != nil {
			return err
		}
	}
	return nil
}
