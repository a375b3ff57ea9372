package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/hsrx/internal/models"
	"github.com/desertthunder/hsrx/internal/shared"
)

// DefaultLocale is the locale of last resort.
const DefaultLocale = "enUS"

// Flags records how the last document was obtained.
type Flags struct {
	HasBuild bool
	Cached   bool
	Fetched  bool
	Fallback bool
}

// Tags renders the flags as telemetry tags.
func (f Flags) Tags() map[string]string {
	return map[string]string{
		"has_build": strconv.FormatBool(f.HasBuild),
		"cached":    strconv.FormatBool(f.Cached),
		"fetched":   strconv.FormatBool(f.Fetched),
		"fallback":  strconv.FormatBool(f.Fallback),
	}
}

// Callback receives a metadata document and the flags at delivery time.
type Callback func(payload json.RawMessage, flags Flags)

// ManagerOpts configures a [Manager].
type ManagerOpts struct {
	Fetcher       Fetcher
	Backend       Backend
	Locale        string
	DefaultLocale string
	Logger        *log.Logger
}

// Manager resolves card metadata through its backend and the fallback chain.
type Manager struct {
	fetcher       Fetcher
	backend       Backend
	defaultLocale string
	logger        *log.Logger

	mu     sync.Mutex
	locale string
	flags  Flags
}

// NewManager creates a [Manager]. A nil backend stores documents in memory.
func NewManager(opts ManagerOpts) *Manager {
	if opts.Backend == nil {
		opts.Backend = NewMemoryBackend()
	}
	if opts.Fetcher == nil {
		opts.Fetcher = NewHTTPFetcher("", nil)
	}
	if opts.DefaultLocale == "" {
		opts.DefaultLocale = DefaultLocale
	}
	if opts.Locale == "" {
		opts.Locale = opts.DefaultLocale
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Manager{
		fetcher:       opts.Fetcher,
		backend:       opts.Backend,
		defaultLocale: opts.DefaultLocale,
		logger:        opts.Logger,
		locale:        opts.Locale,
	}
}

// NormalizeBuild returns build when it is a positive integer and
// [models.LatestBuild] otherwise.
func NormalizeBuild(build string) string {
	n, err := strconv.Atoi(build)
	if err != nil || n <= 0 {
		return models.LatestBuild
	}
	return strconv.Itoa(n)
}

// Locale returns the current locale. It changes to the default locale when a
// "latest" fetch in another locale fails.
func (m *Manager) Locale() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.locale
}

// Flags returns the flags of the most recent request.
func (m *Manager) Flags() Flags {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flags
}

// Get resolves the document for build and delivers it to cb at most once.
// It blocks until the chain completes. When every source fails, cb is not
// called.
func (m *Manager) Get(ctx context.Context, build string, cb Callback) {
	build = NormalizeBuild(build)
	m.get(ctx, build, build != models.LatestBuild, cb)
}

func (m *Manager) get(ctx context.Context, build string, hasBuild bool, cb Callback) {
	latest := build == models.LatestBuild

	m.mu.Lock()
	m.flags.HasBuild = hasBuild
	m.flags.Cached = false
	if !latest {
		m.flags.Fetched = false
		m.flags.Fallback = false
	}
	locale := m.locale
	m.mu.Unlock()

	var key string
	if !latest {
		key = models.MetadataKey(build, locale)
		if payload, ok := m.lookup(ctx, key); ok {
			cb(payload, m.mark(func(f *Flags) { f.Cached = true }))
			return
		}
	}

	payload, err := m.fetcher.Fetch(ctx, build, locale)
	if err == nil {
		cb(payload, m.mark(func(f *Flags) { f.Fetched = true }))
		if !latest {
			if err := m.backend.Set(ctx, key, payload); err != nil {
				m.logger.Warn("failed to persist metadata", "key", key, "error", err)
			}
		}
		return
	}

	if errors.Is(err, ErrCancelled) || ctx.Err() != nil {
		m.logger.Debug("metadata request cancelled", "build", build, "locale", locale)
		return
	}

	m.logger.Warn("metadata fetch failed", "build", build, "locale", locale, "error", err)

	if latest {
		m.mu.Lock()
		if m.locale == m.defaultLocale {
			m.mu.Unlock()
			m.logger.Error("no metadata available", "locale", locale)
			return
		}
		m.locale = m.defaultLocale
		m.mu.Unlock()
	}

	m.mark(func(f *Flags) { f.Fallback = true })
	m.get(ctx, models.LatestBuild, hasBuild, cb)
}

func (m *Manager) lookup(ctx context.Context, key string) (json.RawMessage, bool) {
	ok, err := m.backend.Has(ctx, key)
	if err != nil {
		m.logger.Warn("metadata backend unavailable", "key", key, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	payload, err := m.backend.Get(ctx, key)
	if err != nil {
		m.logger.Warn("failed to read cached metadata", "key", key, "error", err)
		return nil, false
	}
	return json.RawMessage(payload), true
}

func (m *Manager) mark(fn func(*Flags)) Flags {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(&m.flags)
	return m.flags
}
