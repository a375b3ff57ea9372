package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/hsrx/internal/metadata"
	"github.com/desertthunder/hsrx/internal/metrics"
	"github.com/desertthunder/hsrx/internal/shared"
	"github.com/desertthunder/hsrx/internal/tasks"
)

// MetadataGet resolves the metadata document of a build through the cache
// and fallback chain.
func (r *Runner) MetadataGet(ctx context.Context, cmd *cli.Command) error {
	build := cmd.StringArg("build")
	manager, err := r.metadataManager(ctx, cmd.String("locale"))
	if err != nil {
		return err
	}
	reporter := r.reporter(metrics.PlayerPrefix, map[string]string{"locale": manager.Locale()})

	var (
		payload json.RawMessage
		flags   metadata.Flags
		found   bool
	)
	manager.Get(ctx, build, func(p json.RawMessage, f metadata.Flags) {
		payload, flags, found = p, f, true
		reporter.WritePoint("metadata", map[string]any{"count": 1}, f.Tags())
	})
	if !found {
		return fmt.Errorf("%w: build %s", shared.ErrMetadataNotFound, metadata.NormalizeBuild(build))
	}

	if cmd.Bool("json") {
		_, err := r.output.Write(append(payload, '\n'))
		return err
	}

	cards, err := metadata.Cards(payload)
	if err != nil {
		return err
	}
	r.writePlainHeader(fmt.Sprintf("Card metadata · build %s", metadata.NormalizeBuild(build)))
	r.writePlain("Locale:   %s\n", manager.Locale())
	r.writePlain("Cards:    %d\n", len(cards))
	r.writePlain("Size:     %d bytes\n", len(payload))
	r.writePlain("Cached:   %t\n", flags.Cached)
	r.writePlain("Fetched:  %t\n", flags.Fetched)
	r.writePlain("Fallback: %t\n", flags.Fallback)
	return nil
}

// MetadataPrefetch stores the metadata of the requested builds.
func (r *Runner) MetadataPrefetch(ctx context.Context, cmd *cli.Command) error {
	builds := cmd.StringSlice("build")
	if cmd.Bool("from-feed") {
		seen, err := r.feedBuilds(ctx, cmd.Int("pages"))
		if err != nil {
			return err
		}
		builds = append(builds, seen...)
	}
	builds = dedupe(builds)
	if len(builds) == 0 {
		return fmt.Errorf("%w: pass --build or --from-feed", shared.ErrMissingArgument)
	}

	locale := cmd.String("locale")
	if locale == "" {
		locale = r.config.Metadata.Locale
	}
	opts := tasks.PrefetchOpts{
		Builds:     builds,
		Locale:     locale,
		NumWorkers: cmd.Int("workers"),
		RateLimit:  float64(cmd.Int("rate")),
		Force:      cmd.Bool("force"),
	}

	progressCh := make(chan tasks.ProgressUpdate, len(builds)+1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			if update.Step == 0 {
				r.writePlain("🗂  %s\n", update.Message)
				continue
			}
			r.writePlain("   %s\n", update.Message)
		}
	}()

	summary, err := r.engine(ctx).Prefetch(ctx, opts, progressCh)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Prefetch Complete!")
	r.writePlain("Builds:  %d\n", summary.Total)
	r.writePlain("Fetched: %d\n", summary.Fetched)
	r.writePlain("Cached:  %d\n", summary.Cached)
	r.writePlain("Failed:  %d\n", summary.Failed)
	if summary.Failed > 0 {
		return fmt.Errorf("%w: %d of %d builds failed", shared.ErrAPIRequest, summary.Failed, summary.Total)
	}
	return nil
}

// feedBuilds collects the builds of the replays on the first pages of the feed.
func (r *Runner) feedBuilds(ctx context.Context, pages int) ([]string, error) {
	api, err := r.gamesAPI()
	if err != nil {
		return nil, err
	}
	if pages <= 0 {
		pages = 1
	}

	var builds []string
	next := api.FirstPageURL()
	for i := 0; i < pages && next != ""; i++ {
		page, err := api.FetchPage(ctx, next)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feed: %w", err)
		}
		for _, replay := range page.Results {
			if replay.Build > 0 {
				builds = append(builds, strconv.Itoa(replay.Build))
			}
		}
		next = page.Next
	}
	r.logger.Debug("collected builds from feed", "count", len(builds))
	return builds, nil
}

// dedupe removes repeated builds, newest first.
func dedupe(builds []string) []string {
	seen := make(map[string]bool, len(builds))
	out := make([]string, 0, len(builds))
	for _, b := range builds {
		if b == "" || seen[b] {
			continue
		}
		seen[b] = true
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, errA := strconv.Atoi(out[i])
		b, errB := strconv.Atoi(out[j])
		if errA != nil || errB != nil {
			return false
		}
		return a > b
	})
	return out
}
