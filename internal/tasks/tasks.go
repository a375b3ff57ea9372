package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/desertthunder/hsrx/internal/filters"
	"github.com/desertthunder/hsrx/internal/formatter"
	"github.com/desertthunder/hsrx/internal/metadata"
	"github.com/desertthunder/hsrx/internal/models"
	"github.com/desertthunder/hsrx/internal/query"
	"github.com/desertthunder/hsrx/internal/services"
	"github.com/desertthunder/hsrx/internal/shared"
)

// Engine defines the long-running replay operations.
type Engine interface {
	// Export walks every server page, filters and writes the matches.
	Export(ctx context.Context, opts ExportOpts, progress chan<- ProgressUpdate) (*ExportResult, error)

	// Prefetch stores the metadata document of each build in the backend.
	Prefetch(ctx context.Context, opts PrefetchOpts, progress chan<- ProgressUpdate) (*PrefetchSummary, error)
}

// ReplayEngine implements [Engine].
type ReplayEngine struct {
	api      services.PageFetcher
	fetcher  metadata.Fetcher
	backend  metadata.Backend
	logger   *log.Logger
	firstURL string
}

// EngineOpts configures [NewReplayEngine]. Only the dependencies of the
// operations actually used are required.
type EngineOpts struct {
	API          services.PageFetcher
	FirstPageURL string
	Fetcher      metadata.Fetcher
	Backend      metadata.Backend
	Logger       *log.Logger
}

// NewReplayEngine creates a new ReplayEngine.
func NewReplayEngine(opts EngineOpts) *ReplayEngine {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &ReplayEngine{
		api:      opts.API,
		fetcher:  opts.Fetcher,
		backend:  opts.Backend,
		logger:   opts.Logger,
		firstURL: opts.FirstPageURL,
	}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *ReplayEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// ExportOpts configures [ReplayEngine.Export].
type ExportOpts struct {
	Query     *query.Query
	Format    string
	Path      string  // Output file, defaults to replays_{username}{ext}
	Username  string  // Recorded in the export header
	BaseURL   string  // Used to build replay links
	Limit     int     // Stop after this many matches, 0 for all
	MaxPages  int     // Stop after this many server pages, 0 for all
	RateLimit float64 // Page requests per second (default: 2)
	DryRun    bool    // Collect without writing a file
}

// ExportResult summarizes an export.
type ExportResult struct {
	Pages   int
	Seen    int
	Count   int
	Path    string
	Replays []models.Replay
}

// Export walks the feed from the first page, keeping replays that match the
// filter query.
func (e *ReplayEngine) Export(ctx context.Context, opts ExportOpts, progress chan<- ProgressUpdate) (*ExportResult, error) {
	if e.api == nil {
		return nil, fmt.Errorf("%w: games API not initialized", shared.ErrServiceUnavailable)
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 2
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	result := &ExportResult{}
	next := e.firstURL

	for next != "" || result.Pages == 0 {
		if opts.MaxPages > 0 && result.Pages >= opts.MaxPages {
			break
		}
		if err := limiter.Wait(ctx); err != nil {
			return result, err
		}

		page, err := e.api.FetchPage(ctx, next)
		if err != nil {
			return result, fmt.Errorf("export page %d: %w", result.Pages+1, err)
		}
		result.Pages++
		e.sendProgress(progress, fetchPageUpdate(result.Pages, page.Count))

		result.Seen += len(page.Results)
		result.Replays = append(result.Replays, filters.Apply(page.Results, opts.Query)...)
		e.sendProgress(progress, filterUpdate(len(result.Replays), result.Seen))

		if opts.Limit > 0 && len(result.Replays) >= opts.Limit {
			result.Replays = result.Replays[:opts.Limit]
			break
		}
		next = page.Next
	}
	result.Count = len(result.Replays)

	if opts.DryRun {
		return result, nil
	}

	export := &formatter.Export{
		Username: opts.Username,
		BaseURL:  opts.BaseURL,
		Exported: time.Now(),
		Replays:  result.Replays,
	}
	if opts.Query != nil {
		export.Filters = opts.Query.String()
	}

	path, err := formatter.WriteExport(export, opts.Format, opts.Path)
	if err != nil {
		return result, err
	}
	result.Path = path
	e.sendProgress(progress, writeExportUpdate(path, result.Count))
	return result, nil
}

// PrefetchOpts configures [ReplayEngine.Prefetch].
type PrefetchOpts struct {
	Builds     []string
	Locale     string  // Defaults to [metadata.DefaultLocale]
	NumWorkers int     // Concurrent fetches (default: 4, max: 8)
	RateLimit  float64 // Fetches per second (default: 4)
	Force      bool    // Refetch builds already in the backend
}

// PrefetchResult is the outcome for one build.
type PrefetchResult struct {
	Build   string
	Key     string
	Cached  bool
	Fetched bool
	Bytes   int
	Error   error
}

// PrefetchSummary aggregates every [PrefetchResult] in input order.
type PrefetchSummary struct {
	Total   int
	Cached  int
	Fetched int
	Failed  int
	Results []PrefetchResult
}

// Prefetch fetches and stores the metadata of each build. Per-build failures
// are reported in the summary; only cancellation aborts the whole run.
func (e *ReplayEngine) Prefetch(ctx context.Context, opts PrefetchOpts, progress chan<- ProgressUpdate) (*PrefetchSummary, error) {
	if e.fetcher == nil || e.backend == nil {
		return nil, fmt.Errorf("%w: metadata fetcher or backend not initialized", shared.ErrServiceUnavailable)
	}
	if opts.Locale == "" {
		opts.Locale = metadata.DefaultLocale
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 8 {
		opts.NumWorkers = 8
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 4
	}

	summary := &PrefetchSummary{
		Total:   len(opts.Builds),
		Results: make([]PrefetchResult, len(opts.Builds)),
	}
	e.sendProgress(progress, prefetchStartUpdate(summary.Total))

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.NumWorkers)

	var mu sync.Mutex
	completed := 0

	for i, build := range opts.Builds {
		g.Go(func() error {
			res, err := e.prefetchOne(gctx, limiter, build, opts)
			if err != nil {
				return err
			}

			mu.Lock()
			summary.Results[i] = res
			completed++
			step := completed
			mu.Unlock()

			e.sendProgress(progress, prefetchResultUpdate(step, summary.Total, res))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return summary, err
	}

	for _, res := range summary.Results {
		switch {
		case res.Error != nil:
			summary.Failed++
		case res.Cached:
			summary.Cached++
		case res.Fetched:
			summary.Fetched++
		}
	}
	return summary, nil
}

// prefetchOne handles one build. The returned error is reserved for
// cancellation; anything else lands in the result.
func (e *ReplayEngine) prefetchOne(ctx context.Context, limiter *rate.Limiter, build string, opts PrefetchOpts) (PrefetchResult, error) {
	res := PrefetchResult{Build: build}

	normalized := metadata.NormalizeBuild(build)
	if normalized == models.LatestBuild {
		res.Error = fmt.Errorf("%w: %q is not a specific build", shared.ErrInvalidArgument, build)
		return res, nil
	}
	res.Build = normalized
	res.Key = models.MetadataKey(normalized, opts.Locale)

	if !opts.Force {
		if ok, err := e.backend.Has(ctx, res.Key); err == nil && ok {
			res.Cached = true
			return res, nil
		}
	}

	if err := limiter.Wait(ctx); err != nil {
		return res, err
	}

	payload, err := e.fetcher.Fetch(ctx, normalized, opts.Locale)
	if err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		res.Error = err
		return res, nil
	}

	if err := e.backend.Set(ctx, res.Key, payload); err != nil {
		res.Error = fmt.Errorf("store %s: %w", res.Key, err)
		return res, nil
	}
	e.logger.Debug("prefetched metadata", "key", res.Key, "bytes", len(payload))

	res.Fetched = true
	res.Bytes = len(payload)
	return res, nil
}
