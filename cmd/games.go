package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/hsrx/internal/feed"
	"github.com/desertthunder/hsrx/internal/filters"
	"github.com/desertthunder/hsrx/internal/formatter"
	"github.com/desertthunder/hsrx/internal/models"
	"github.com/desertthunder/hsrx/internal/query"
	"github.com/desertthunder/hsrx/internal/services"
	"github.com/desertthunder/hsrx/internal/shared"
	"github.com/desertthunder/hsrx/internal/tasks"
)

// filterQuery builds the filter query from --query and the named filter
// flags. Named flags win over the same key in --query.
func filterQuery(cmd *cli.Command) *query.Query {
	q := query.Parse(cmd.String("query"))
	for _, name := range []string{filters.Name, filters.Mode, filters.Format, filters.Result, filters.Hero, filters.Opponent} {
		if v := strings.TrimSpace(cmd.String(name)); v != "" {
			q.Set(name, v)
		}
	}
	return q
}

// GamesList prints one local page of the filtered feed.
func (r *Runner) GamesList(ctx context.Context, cmd *cli.Command) error {
	api, err := r.gamesAPI()
	if err != nil {
		return err
	}
	if api.Username() == "" {
		return fmt.Errorf("%w: set api.username or %s", shared.ErrMissingConfig, shared.EnvUsername)
	}

	target := cmd.Int("page")
	if target < 1 {
		return fmt.Errorf("%w: --page must be at least 1", shared.ErrInvalidArgument)
	}

	q := filterQuery(cmd)
	ctrl := feed.New(feed.Opts{
		API:          api,
		FirstPageURL: api.FirstPageURL(),
		Query:        q,
		Logger:       r.logger,
	})
	r.logger.Debug("listing replays", "session", ctrl.Session(), "filters", q.String(), "page", target)

	page, err := ctrl.VisiblePage(ctx)
	if err != nil {
		return fmt.Errorf("failed to load replays: %w", err)
	}
	for i := 1; i < target; i++ {
		if err := ctrl.Advance(); err != nil {
			return fmt.Errorf("%w: page %d is past the last page", shared.ErrInvalidArgument, target)
		}
		if page, err = ctrl.VisiblePage(ctx); err != nil {
			return fmt.Errorf("failed to load replays: %w", err)
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{
			"page":         page.Index + 1,
			"page_size":    page.Size,
			"has_next":     page.HasNext,
			"has_previous": page.HasPrevious,
			"count":        ctrl.Count(),
			"filters":      q.String(),
			"results":      page.Replays,
		}, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Replays of %s · page %d", api.Username(), page.Index+1))
	if q.Len() > 0 {
		r.writePlain("Filters: %s\n\n", q.String())
	}
	if len(page.Replays) == 0 {
		r.writePlain("No replay found\n")
		return nil
	}
	for _, replay := range page.Replays {
		row := formatter.NewRow(replay, api.BaseURL())
		r.writePlain("%-22s  %-16s  %-8s  %-8s %-4s %-8s vs %-8s  %s\n",
			row.ShortID, row.Date, row.Mode, row.PlayerClass, row.Result, shared.Truncate(row.Player, 8), row.OpponentHero, row.URL)
	}
	r.writePlain("\n%d on server, %d server pages fetched", ctrl.Count(), ctrl.FetchedPages())
	if page.HasNext {
		r.writePlain(", more with --page %d", page.Index+2)
	}
	r.writePlain("\n")
	return nil
}

// GamesExport writes every replay matching the filters to a file.
func (r *Runner) GamesExport(ctx context.Context, cmd *cli.Command) error {
	api, err := r.gamesAPI()
	if err != nil {
		return err
	}
	if api.Username() == "" {
		return fmt.Errorf("%w: set api.username or %s", shared.ErrMissingConfig, shared.EnvUsername)
	}

	opts := tasks.ExportOpts{
		Query:     filterQuery(cmd),
		Format:    cmd.String("as"),
		Path:      cmd.String("output"),
		Username:  api.Username(),
		BaseURL:   api.BaseURL(),
		Limit:     cmd.Int("limit"),
		MaxPages:  cmd.Int("max-pages"),
		RateLimit: float64(cmd.Int("rate")),
		DryRun:    cmd.Bool("dry-run"),
	}

	r.logger.Info("starting export", "username", opts.Username, "format", opts.Format, "filters", opts.Query.String())

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.FetchPages:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.FilterReplays:
				r.writePlain("   %s\n", update.Message)
			case tasks.WriteExport:
				r.writePlain("\n📝 %s\n", update.Message)
			}
		}
	}()

	result, err := r.engine(ctx).Export(ctx, opts, progressCh)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Export Complete!")
	r.writePlain("Server pages: %d\n", result.Pages)
	r.writePlain("Replays seen: %d\n", result.Seen)
	r.writePlain("Matches: %d\n", result.Count)
	if result.Path != "" {
		r.writePlain("File: %s\n", result.Path)
	}
	return nil
}

// GamesShow prints one replay.
func (r *Runner) GamesShow(ctx context.Context, cmd *cli.Command) error {
	shortID := cmd.StringArg("shortid")
	if shortID == "" {
		return fmt.Errorf("%w: shortid", shared.ErrMissingArgument)
	}
	api, err := r.gamesAPI()
	if err != nil {
		return err
	}

	replay, err := api.GetReplay(ctx, shortID)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(replay, true)
	}

	row := formatter.NewRow(*replay, api.BaseURL())
	r.writePlainHeader(fmt.Sprintf("%s vs %s", row.PlayerClass, row.OpponentHero))
	r.writePlain("Replay:     %s\n", row.ShortID)
	r.writePlain("Date:       %s\n", row.Date)
	r.writePlain("Mode:       %s %s\n", row.Mode, row.Format)
	r.writePlain("Players:    %s vs %s\n", row.Player, row.Opponent)
	r.writePlain("Result:     %s in %d turns (%s)\n", row.Result, row.Turns, row.Duration)
	r.writePlain("Visibility: %s\n", replay.Visibility)
	r.writePlain("URL:        %s\n", row.URL)
	return nil
}

// GamesDelete deletes one replay after confirmation.
func (r *Runner) GamesDelete(ctx context.Context, cmd *cli.Command) error {
	shortID := cmd.StringArg("shortid")
	if shortID == "" {
		return fmt.Errorf("%w: shortid", shared.ErrMissingArgument)
	}
	api, err := r.gamesAPI()
	if err != nil {
		return err
	}

	if !cmd.Bool("yes") {
		r.writePlain("Delete replay %s? This cannot be undone. [y/N] ", shortID)
		answer, _ := bufio.NewReader(r.input).ReadString('\n')
		if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
			r.writePlain("Cancelled\n")
			return nil
		}
	}

	if err := api.DeleteReplay(ctx, shortID); err != nil {
		r.logger.Error("delete failed", "shortid", shortID, "error", err)
		return errors.New(services.FailureMessage(services.DeleteFailure, err))
	}

	r.logger.Info("replay deleted", "shortid", shortID)
	r.writePlain("✓ Replay %s deleted\n", shortID)
	return nil
}

// GamesVisibility changes who can see a replay.
func (r *Runner) GamesVisibility(ctx context.Context, cmd *cli.Command) error {
	shortID := cmd.StringArg("shortid")
	if shortID == "" {
		return fmt.Errorf("%w: shortid", shared.ErrMissingArgument)
	}
	v, err := models.ParseVisibility(cmd.StringArg("visibility"))
	if err != nil {
		return fmt.Errorf("%w: visibility must be public, unlisted or private", shared.ErrInvalidArgument)
	}
	api, err := r.gamesAPI()
	if err != nil {
		return err
	}

	replay, err := api.GetReplay(ctx, shortID)
	if err != nil {
		return err
	}

	control := services.NewVisibilityControl(api, shortID, replay.Visibility)
	if err := control.Select(ctx, v); err != nil {
		r.logger.Error("visibility change failed", "shortid", shortID, "error", err)
		return errors.New(services.FailureMessage(services.VisibilityFailure, err))
	}

	r.writePlain("✓ Replay %s is now %s\n", shortID, control.Selected())
	return nil
}
