package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/hsrx/internal/feed"
	"github.com/desertthunder/hsrx/internal/metrics"
	"github.com/desertthunder/hsrx/internal/repositories"
	"github.com/desertthunder/hsrx/internal/shared"
	"github.com/desertthunder/hsrx/internal/ui"
)

// TUI launches the interactive replay browser.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	api, err := r.gamesAPI()
	if err != nil {
		return err
	}
	if api.Username() == "" {
		return fmt.Errorf("%w: set api.username or %s", shared.ErrMissingConfig, shared.EnvUsername)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	logPath := cmd.String("log-file")
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	fileLogger, logFile, err := shared.NewFileLogger(logPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer logFile.Close()
	r.SetLogger(fileLogger)

	ctrl := feed.New(feed.Opts{
		API:          api,
		FirstPageURL: api.FirstPageURL(),
		Query:        filterQuery(cmd),
		Logger:       fileLogger,
	})

	opts := ui.ModelOpts{
		Feed:     ctrl,
		API:      api,
		BaseURL:  api.BaseURL(),
		Reporter: r.reporter(metrics.SitePrefix, map[string]string{"session": ctrl.Session()}),
		Logger:   fileLogger,
	}
	if db, err := r.database(); err == nil {
		opts.Ledger = repositories.NewShareRepository(db)
	} else {
		fileLogger.Warn("share tracking disabled", "error", err)
	}

	started := time.Now()
	player := r.reporter(metrics.PlayerPrefix, map[string]string{"session": ctrl.Session()})
	r.onFlush(func() {
		player.WritePoint("watched", map[string]any{"seconds": time.Since(started).Seconds()}, nil)
	})

	p := tea.NewProgram(ui.NewModel(ctx, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
