package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/hsrx/internal/repositories"
)

func (r *Runner) metadataRepository() (*repositories.MetadataRepository, error) {
	db, err := r.database()
	if err != nil {
		return nil, err
	}
	return repositories.NewMetadataRepository(db), nil
}

// CacheStats prints the number and size of cached metadata documents.
func (r *Runner) CacheStats(ctx context.Context, cmd *cli.Command) error {
	repo, err := r.metadataRepository()
	if err != nil {
		return err
	}

	stats, err := repo.Stats()
	if err != nil {
		return err
	}

	r.writePlainHeader("Metadata Cache")
	r.writePlain("Database:  %s\n", r.config.Database.Path)
	r.writePlain("Documents: %d\n", stats.Entries)
	r.writePlain("Builds:    %d\n", stats.Builds)
	r.writePlain("Size:      %.1f MiB\n", float64(stats.Bytes)/(1<<20))
	if backend := r.config.Metadata.Backend; backend != "" && backend != "sqlite" {
		r.writePlainln("Note: metadata.backend is %q, so lookups do not use this cache.", backend)
	}
	return nil
}

// CacheList prints the cached documents, newest build first.
func (r *Runner) CacheList(ctx context.Context, cmd *cli.Command) error {
	repo, err := r.metadataRepository()
	if err != nil {
		return err
	}

	criteria := map[string]any{}
	if locale := cmd.String("locale"); locale != "" {
		criteria["locale"] = locale
	}
	entries, err := repo.List(criteria)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		r.writePlain("No cached metadata\n")
		return nil
	}
	for _, e := range entries {
		r.writePlain("%-8d %-6s  %s\n", e.Build, e.Locale, e.Updated.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

// CacheClear removes every cached metadata document.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	repo, err := r.metadataRepository()
	if err != nil {
		return err
	}

	n, err := repo.Clear()
	if err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	r.logger.Info("metadata cache cleared", "removed", n)
	r.writePlain("✓ Removed %d cached documents\n", n)
	return nil
}
