package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/desertthunder/hsrx/internal/models"
	"github.com/desertthunder/hsrx/internal/shared"
	tu "github.com/desertthunder/hsrx/internal/testing"
)

// stubFetcher serves documents by "build/locale" and records every request.
type stubFetcher struct {
	mu    sync.Mutex
	docs  map[string]string
	err   error
	calls []string
}

func (s *stubFetcher) Fetch(_ context.Context, build, locale string) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := build + "/" + locale
	s.calls = append(s.calls, id)
	if s.err != nil {
		return nil, s.err
	}
	doc, ok := s.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrMetadataNotFound, id)
	}
	return json.RawMessage(doc), nil
}

type delivery struct {
	payload string
	flags   Flags
}

func collect(deliveries *[]delivery) Callback {
	return func(payload json.RawMessage, flags Flags) {
		*deliveries = append(*deliveries, delivery{payload: string(payload), flags: flags})
	}
}

func newTestManager(fetcher Fetcher, backend Backend, locale string) *Manager {
	return NewManager(ManagerOpts{
		Fetcher: fetcher,
		Backend: backend,
		Locale:  locale,
		Logger:  tu.DiscardLogger(),
	})
}

func TestNormalizeBuild(t *testing.T) {
	tc := []struct {
		in   string
		want string
	}{
		{"42", "42"},
		{"", models.LatestBuild},
		{"0", models.LatestBuild},
		{"latest", models.LatestBuild},
		{"12a", models.LatestBuild},
		{"-3", models.LatestBuild},
	}
	for _, tt := range tc {
		if got := NormalizeBuild(tt.in); got != tt.want {
			t.Errorf("NormalizeBuild(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestManagerGet(t *testing.T) {
	ctx := context.Background()

	t.Run("Cache Hit", func(t *testing.T) {
		backend := NewMemoryBackend()
		backend.Set(ctx, "hsjson_build-42_enUS", []byte(`[{"id":"cached"}]`))
		fetcher := &stubFetcher{}
		m := newTestManager(fetcher, backend, "")

		var got []delivery
		m.Get(ctx, "42", collect(&got))

		if len(got) != 1 || got[0].payload != `[{"id":"cached"}]` {
			t.Fatalf("expected cached payload, got %+v", got)
		}
		if !got[0].flags.Cached || got[0].flags.Fetched || got[0].flags.Fallback || !got[0].flags.HasBuild {
			t.Errorf("unexpected flags %+v", got[0].flags)
		}
		if len(fetcher.calls) != 0 {
			t.Errorf("expected no network call, got %v", fetcher.calls)
		}
	})

	t.Run("Cache Miss Fetches And Persists", func(t *testing.T) {
		backend := NewMemoryBackend()
		fetcher := &stubFetcher{docs: map[string]string{"42/enUS": `[{"id":"fresh"}]`}}
		m := newTestManager(fetcher, backend, "")

		var got []delivery
		m.Get(ctx, "42", collect(&got))

		if len(got) != 1 || !got[0].flags.Fetched || got[0].flags.Cached {
			t.Fatalf("unexpected deliveries %+v", got)
		}
		stored, err := backend.Get(ctx, "hsjson_build-42_enUS")
		if err != nil || string(stored) != `[{"id":"fresh"}]` {
			t.Errorf("payload not persisted: %q, %v", stored, err)
		}

		m.Get(ctx, "42", collect(&got))
		if len(fetcher.calls) != 1 {
			t.Errorf("second get should be served from the backend, calls: %v", fetcher.calls)
		}
		if !got[1].flags.Cached {
			t.Errorf("second get should be cached, flags %+v", got[1].flags)
		}
	})

	t.Run("Latest Is Never Persisted", func(t *testing.T) {
		backend := NewMemoryBackend()
		fetcher := &stubFetcher{docs: map[string]string{"latest/enUS": `[]`}}
		m := newTestManager(fetcher, backend, "")

		var got []delivery
		m.Get(ctx, "", collect(&got))
		m.Get(ctx, "latest", collect(&got))

		if len(got) != 2 {
			t.Fatalf("expected two deliveries, got %d", len(got))
		}
		if got[0].flags.HasBuild {
			t.Error("HasBuild should be false for latest")
		}
		if backend.Len() != 0 {
			t.Errorf("latest should never be cached, backend has %d entries", backend.Len())
		}
		if len(fetcher.calls) != 2 {
			t.Errorf("latest should always be refetched, calls: %v", fetcher.calls)
		}
	})

	t.Run("Build Failure Falls Back To Latest", func(t *testing.T) {
		fetcher := &stubFetcher{docs: map[string]string{"latest/enUS": `["latest"]`}}
		m := newTestManager(fetcher, NewMemoryBackend(), "")

		var got []delivery
		m.Get(ctx, "42", collect(&got))

		if len(got) != 1 || got[0].payload != `["latest"]` {
			t.Fatalf("expected latest payload, got %+v", got)
		}
		if !got[0].flags.Fallback || !got[0].flags.Fetched || !got[0].flags.HasBuild {
			t.Errorf("unexpected flags %+v", got[0].flags)
		}
		if strings.Join(fetcher.calls, ",") != "42/enUS,latest/enUS" {
			t.Errorf("unexpected fetch order %v", fetcher.calls)
		}
	})

	t.Run("Non-default Locale Resets Before Final Latest Fetch", func(t *testing.T) {
		fetcher := &stubFetcher{docs: map[string]string{"latest/enUS": `["en"]`}}
		m := newTestManager(fetcher, NewMemoryBackend(), "frFR")

		var got []delivery
		m.Get(ctx, "42", collect(&got))

		if strings.Join(fetcher.calls, ",") != "42/frFR,latest/frFR,latest/enUS" {
			t.Errorf("unexpected fetch order %v", fetcher.calls)
		}
		if len(got) != 1 || got[0].payload != `["en"]` {
			t.Fatalf("expected default-locale payload, got %+v", got)
		}
		if !got[0].flags.Fallback {
			t.Error("expected fallback flag")
		}
		if m.Locale() != "enUS" {
			t.Errorf("locale should be reset to enUS, got %s", m.Locale())
		}
	})

	t.Run("Total Failure Never Calls Back", func(t *testing.T) {
		fetcher := &stubFetcher{err: shared.ErrServiceUnavailable}
		m := newTestManager(fetcher, NewMemoryBackend(), "")

		called := false
		m.Get(ctx, "42", func(json.RawMessage, Flags) { called = true })

		if called {
			t.Error("callback should not be invoked when every source fails")
		}
		if len(fetcher.calls) != 2 {
			t.Errorf("expected build then latest fetch, got %v", fetcher.calls)
		}
		if !m.Flags().Fallback {
			t.Error("fallback flag should record the attempted fallback")
		}
	})

	t.Run("Cancellation Aborts Without Fallback", func(t *testing.T) {
		fetcher := &stubFetcher{err: fmt.Errorf("%w: context canceled", ErrCancelled)}
		m := newTestManager(fetcher, NewMemoryBackend(), "")

		called := false
		m.Get(ctx, "42", func(json.RawMessage, Flags) { called = true })

		if called || len(fetcher.calls) != 1 {
			t.Errorf("cancelled request should stop the chain, calls: %v", fetcher.calls)
		}
	})

	t.Run("Backend Errors Are Treated As Misses", func(t *testing.T) {
		fetcher := &stubFetcher{docs: map[string]string{"42/enUS": `[]`}}
		var disabled *RedisBackend
		m := newTestManager(fetcher, disabled, "")

		var got []delivery
		m.Get(ctx, "42", collect(&got))

		if len(got) != 1 || !got[0].flags.Fetched {
			t.Errorf("expected a fetched delivery, got %+v", got)
		}
	})

	t.Run("Specific Build Resets Flags", func(t *testing.T) {
		backend := NewMemoryBackend()
		backend.Set(ctx, "hsjson_build-7_enUS", []byte(`[]`))
		fetcher := &stubFetcher{docs: map[string]string{"latest/enUS": `[]`}}
		m := newTestManager(fetcher, backend, "")

		m.Get(ctx, "42", func(json.RawMessage, Flags) {})
		if !m.Flags().Fallback {
			t.Fatal("expected fallback after failed build")
		}

		m.Get(ctx, "7", func(json.RawMessage, Flags) {})
		if f := m.Flags(); f.Fallback || f.Fetched || !f.Cached {
			t.Errorf("flags should be reset for a new build, got %+v", f)
		}
	})
}

func TestHTTPFetcher(t *testing.T) {
	t.Run("SourceURL", func(t *testing.T) {
		got := SourceURL(DefaultURLTemplate, "20022", "deDE")
		want := "https://api.hearthstonejson.com/v1/20022/deDE/cards.json"
		if got != want {
			t.Errorf("SourceURL() = %s, want %s", got, want)
		}
	})

	t.Run("Fetch", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/v1/42/enUS/cards.json":
				w.Write([]byte(`[{"id":"EX1_001","dbfId":1,"name":"Lightwarden","cost":1}]`))
			case "/v1/43/enUS/cards.json":
				w.Write([]byte(`{"detail":"not an array"}`))
			default:
				http.NotFound(w, r)
			}
		}))
		defer server.Close()

		f := NewHTTPFetcher(server.URL+"/v1/%(build)s/%(locale)s/cards.json", server.Client())

		payload, err := f.Fetch(context.Background(), "42", "enUS")
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		cards, err := Cards(payload)
		if err != nil || len(cards) != 1 || cards[0].Name != "Lightwarden" {
			t.Errorf("Cards() = %+v, %v", cards, err)
		}

		if _, err := f.Fetch(context.Background(), "43", "enUS"); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest for a non-array body, got %v", err)
		}

		if _, err := f.Fetch(context.Background(), "44", "enUS"); !errors.Is(err, shared.ErrMetadataNotFound) {
			t.Errorf("expected ErrMetadataNotFound for 404, got %v", err)
		}
	})

	t.Run("Cancelled Context", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[]`))
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		f := NewHTTPFetcher(server.URL+"/%(build)s", server.Client())
		if _, err := f.Fetch(ctx, "42", "enUS"); !errors.Is(err, ErrCancelled) {
			t.Errorf("expected ErrCancelled, got %v", err)
		}
	})

	t.Run("Transport Failure", func(t *testing.T) {
		client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))}
		f := NewHTTPFetcher("", client)
		if _, err := f.Fetch(context.Background(), "42", "enUS"); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})
}

func TestRedisBackend(t *testing.T) {
	t.Run("namespaceKey", func(t *testing.T) {
		r := newRedisBackend(nil, "")
		if got := r.namespaceKey("hsjson_build-42_enUS"); got != "hsrx:hsjson_build-42_enUS" {
			t.Errorf("namespaceKey() = %s", got)
		}
		r = newRedisBackend(nil, "cards")
		if got := r.namespaceKey("k"); got != "cards:k" {
			t.Errorf("namespaceKey() = %s", got)
		}
	})

	t.Run("Nil Backend Is Disabled", func(t *testing.T) {
		var r *RedisBackend
		ctx := context.Background()
		if _, err := r.Has(ctx, "k"); !errors.Is(err, ErrCacheDisabled) {
			t.Errorf("Has() error = %v", err)
		}
		if _, err := r.Get(ctx, "k"); !errors.Is(err, ErrCacheDisabled) {
			t.Errorf("Get() error = %v", err)
		}
		if err := r.Set(ctx, "k", nil); !errors.Is(err, ErrCacheDisabled) {
			t.Errorf("Set() error = %v", err)
		}
		if err := r.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})

	t.Run("Round Trip", func(t *testing.T) {
		srv := miniredis.RunT(t)
		ctx := context.Background()
		r, err := NewRedisBackend(ctx, "redis://"+srv.Addr()+"/0", "cards")
		if err != nil {
			t.Fatalf("NewRedisBackend: %v", err)
		}
		defer r.Close()

		key := "hsjson_build-42_enUS"
		if ok, err := r.Has(ctx, key); ok || err != nil {
			t.Errorf("Has() on empty cache = %t, %v", ok, err)
		}
		if _, err := r.Get(ctx, key); !errors.Is(err, shared.ErrMetadataNotFound) {
			t.Errorf("expected ErrMetadataNotFound, got %v", err)
		}

		if err := r.Set(ctx, key, []byte(`[{"id":"CS2_029"}]`)); err != nil {
			t.Fatalf("Set: %v", err)
		}
		if ok, err := r.Has(ctx, key); !ok || err != nil {
			t.Errorf("Has() after Set = %t, %v", ok, err)
		}
		payload, err := r.Get(ctx, key)
		if err != nil || string(payload) != `[{"id":"CS2_029"}]` {
			t.Errorf("Get() = %s, %v", payload, err)
		}
		if ttl := srv.TTL("cards:" + key); ttl != 0 {
			t.Errorf("expected no expiry by default, got %v", ttl)
		}

		short := "hsjson_build-43_enUS"
		r.WithTTL(time.Hour)
		if err := r.Set(ctx, short, []byte(`[]`)); err != nil {
			t.Fatalf("Set: %v", err)
		}
		if ttl := srv.TTL("cards:" + short); ttl != time.Hour {
			t.Errorf("expected 1h expiry, got %v", ttl)
		}
		srv.FastForward(2 * time.Hour)
		if ok, _ := r.Has(ctx, short); ok {
			t.Error("expected expired document to be gone")
		}
	})

	t.Run("Invalid URL", func(t *testing.T) {
		_, err := NewRedisBackend(context.Background(), "not-a-url", "hsrx")
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestFlagsTags(t *testing.T) {
	tags := Flags{HasBuild: true, Fallback: true}.Tags()
	want := map[string]string{"has_build": "true", "cached": "false", "fetched": "false", "fallback": "true"}
	for k, v := range want {
		if tags[k] != v {
			t.Errorf("tag %s = %s, want %s", k, tags[k], v)
		}
	}
}
