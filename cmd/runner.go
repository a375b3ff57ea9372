package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/hsrx/internal/metadata"
	"github.com/desertthunder/hsrx/internal/metrics"
	"github.com/desertthunder/hsrx/internal/repositories"
	"github.com/desertthunder/hsrx/internal/services"
	"github.com/desertthunder/hsrx/internal/shared"
	"github.com/desertthunder/hsrx/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Connections are opened on first use so that commands which never touch the
// database or the network do not pay for them.
type Runner struct {
	config     *shared.Config
	configPath string
	games      *services.GamesAPI
	db         *sql.DB
	backend    metadata.Backend
	httpClient *http.Client
	logger     *log.Logger
	input      io.Reader
	output     io.Writer

	sink       *metrics.InfluxSink
	batcher    *metrics.Batcher
	flushHooks []func()
	closers    []func() error
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Games      *services.GamesAPI
	DB         *sql.DB
	Backend    metadata.Backend
	HTTPClient *http.Client
	Logger     *log.Logger
	Input      io.Reader
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.ConfigPath == "" {
		opts.ConfigPath = defaultConfigPath
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		games:      opts.Games,
		db:         opts.DB,
		backend:    opts.Backend,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		input:      opts.Input,
		output:     opts.Output,
	}
}

// SetLogger replaces the logger, e.g. when the TUI takes over the terminal.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, gamesCommand, metadataCommand, cacheCommand, shareCommand, serveCommand, apiCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// gamesAPI returns the games client, building it from the api config section.
func (r *Runner) gamesAPI() (*services.GamesAPI, error) {
	if r.games != nil {
		return r.games, nil
	}

	api, err := services.NewGamesAPI(services.GamesAPIOpts{
		BaseURL:   r.config.API.BaseURL,
		Username:  r.config.API.Username,
		Token:     r.config.API.Token,
		Timeout:   r.config.API.Timeout(),
		Transport: r.httpClient.Transport,
	})
	if err != nil {
		return nil, err
	}
	r.games = api
	return api, nil
}

// database opens the configured sqlite database and runs pending migrations.
func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, err
	}
	r.db = db
	r.closers = append(r.closers, db.Close)
	return db, nil
}

// metadataBackend selects the cache named by metadata.backend.
func (r *Runner) metadataBackend(ctx context.Context) (metadata.Backend, error) {
	if r.backend != nil {
		return r.backend, nil
	}

	switch r.config.Metadata.Backend {
	case "memory":
		r.backend = metadata.NewMemoryBackend()
	case "redis":
		backend, err := metadata.NewRedisBackend(ctx, r.config.Metadata.RedisURL, r.config.Metadata.RedisNamespace)
		if err != nil {
			return nil, err
		}
		r.backend = backend.WithTTL(r.config.Metadata.RedisTTL())
		r.closers = append(r.closers, backend.Close)
	case "", "sqlite":
		db, err := r.database()
		if err != nil {
			return nil, err
		}
		r.backend = repositories.NewMetadataCacheAdapter(repositories.NewMetadataRepository(db))
	default:
		return nil, fmt.Errorf("%w: unknown metadata backend %q", shared.ErrInvalidConfig, r.config.Metadata.Backend)
	}
	return r.backend, nil
}

func (r *Runner) metadataFetcher() *metadata.HTTPFetcher {
	return metadata.NewHTTPFetcher(r.config.Metadata.URLTemplate, r.httpClient)
}

func (r *Runner) metadataManager(ctx context.Context, locale string) (*metadata.Manager, error) {
	backend, err := r.metadataBackend(ctx)
	if err != nil {
		return nil, err
	}
	if locale == "" {
		locale = r.config.Metadata.Locale
	}
	return metadata.NewManager(metadata.ManagerOpts{
		Fetcher:       r.metadataFetcher(),
		Backend:       backend,
		Locale:        locale,
		DefaultLocale: r.config.Metadata.DefaultLocale,
		Logger:        shared.WithLogger(r.logger, "component", "metadata"),
	}), nil
}

// engine builds a [tasks.ReplayEngine] with whatever dependencies are
// available. Operations report [shared.ErrServiceUnavailable] for missing ones.
func (r *Runner) engine(ctx context.Context) *tasks.ReplayEngine {
	opts := tasks.EngineOpts{Fetcher: r.metadataFetcher(), Logger: r.logger}
	if api, err := r.gamesAPI(); err == nil {
		opts.API = api
		opts.FirstPageURL = api.FirstPageURL()
	} else {
		r.logger.Debug("games API unavailable", "error", err)
	}
	if backend, err := r.metadataBackend(ctx); err == nil {
		opts.Backend = backend
	} else {
		r.logger.Debug("metadata backend unavailable", "error", err)
	}
	return tasks.NewReplayEngine(opts)
}

// reporter returns a reporter for prefix. When metrics are disabled it
// discards every point.
func (r *Runner) reporter(prefix string, tags map[string]string) *metrics.Reporter {
	merged := map[string]string{"release": r.config.Metrics.Release}
	for k, v := range tags {
		merged[k] = v
	}
	if !r.config.Metrics.Enabled || r.config.Metrics.Endpoint == "" {
		return metrics.NewReporter(nil, prefix, merged)
	}

	if r.batcher == nil {
		r.sink = metrics.NewInfluxSink(r.config.Metrics.Endpoint, shared.WithLogger(r.logger, "component", "metrics"))
		r.batcher = metrics.NewBatcher(r.sink, metrics.BatcherOpts{
			Interval: r.config.Metrics.Interval(),
			OnClose:  r.runFlushHooks,
			Logger:   r.logger,
		})
	}
	return metrics.NewReporter(r.batcher, prefix, merged)
}

// onFlush registers fn to run right before the final metrics flush.
func (r *Runner) onFlush(fn func()) {
	r.flushHooks = append(r.flushHooks, fn)
}

func (r *Runner) runFlushHooks() {
	for _, fn := range r.flushHooks {
		fn()
	}
}

// Close flushes pending metrics and releases open connections.
func (r *Runner) Close(ctx context.Context) error {
	var firstErr error
	if r.batcher != nil {
		if err := r.batcher.Close(ctx); err != nil {
			firstErr = err
		}
		if err := r.sink.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		r.batcher, r.sink = nil, nil
	}
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	r.closers = nil
	return firstErr
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

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
