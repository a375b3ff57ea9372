package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/hsrx/internal/models"
	"github.com/desertthunder/hsrx/internal/services"
	"github.com/desertthunder/hsrx/internal/shared"
	tu "github.com/desertthunder/hsrx/internal/testing"
)

func newFixture(t *testing.T, n int, token string) (*GameStore, *httptest.Server) {
	t.Helper()
	store := NewGameStore()
	replays, err := Seed(n, "dev", 7)
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if err := store.Add(replays...); err != nil {
		t.Fatalf("Add: %v", err)
	}
	srv := httptest.NewServer(New(Opts{Store: store, Token: token, Logger: tu.DiscardLogger()}).Handler)
	t.Cleanup(srv.Close)
	return store, srv
}

func TestSeed(t *testing.T) {
	t.Run("Deterministic Apart From ShortIDs", func(t *testing.T) {
		a, _ := Seed(5, "dev", 42)
		b, _ := Seed(5, "dev", 42)
		for i := range a {
			if a[i].GlobalGame.GameType != b[i].GlobalGame.GameType || a[i].Won != b[i].Won {
				t.Errorf("game %d differs between runs", i)
			}
			if len(a[i].ShortID) != ShortIDLength {
				t.Errorf("expected %d char shortid, got %q", ShortIDLength, a[i].ShortID)
			}
			if a[i].ShortID == b[i].ShortID {
				t.Errorf("expected fresh shortids, got %s twice", a[i].ShortID)
			}
		}
	})

	t.Run("Players Are Classifiable", func(t *testing.T) {
		replays, _ := Seed(20, "dev", 1)
		for _, r := range replays {
			p, ok := r.FriendlyPlayer()
			if !ok || p.Name != "dev" || !strings.HasPrefix(p.HeroID, "HERO_0") {
				t.Errorf("unexpected friendly player %+v", p)
			}
			if _, ok := r.OpposingPlayer(); !ok {
				t.Error("expected an opponent")
			}
		}
	})
}

func TestGameStore(t *testing.T) {
	store := NewGameStore()
	older := tu.NewReplay("old", tu.ReplayOpts{})
	newer := tu.NewReplay("new", tu.ReplayOpts{FriendlyName: "other"})
	newer.GlobalGame.MatchStart = older.GlobalGame.MatchStart.Add(1)
	store.Add(older, newer, models.Replay{})

	t.Run("Newest First", func(t *testing.T) {
		all := store.List("")
		if len(all) != 3 || all[0].ShortID != "new" {
			t.Errorf("unexpected order %v", all)
		}
	})

	t.Run("Generates Missing ShortID", func(t *testing.T) {
		for _, r := range store.List("") {
			if r.ShortID == "" {
				t.Error("expected every replay to have a shortid")
			}
		}
	})

	t.Run("Filters By Username", func(t *testing.T) {
		if got := store.List("other"); len(got) != 1 || got[0].ShortID != "new" {
			t.Errorf("unexpected list %v", got)
		}
	})

	t.Run("Mutations", func(t *testing.T) {
		if _, err := store.SetVisibility("old", models.VisibilityPrivate); err != nil {
			t.Fatalf("SetVisibility: %v", err)
		}
		r, _ := store.Get("old")
		if r.Visibility != models.VisibilityPrivate {
			t.Errorf("expected private, got %s", r.Visibility)
		}
		if err := store.Delete("old"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := store.Get("old"); !errors.Is(err, shared.ErrReplayNotFound) {
			t.Errorf("expected ErrReplayNotFound, got %v", err)
		}
		if err := store.Delete("old"); !errors.Is(err, shared.ErrReplayNotFound) {
			t.Errorf("expected ErrReplayNotFound, got %v", err)
		}
	})
}

func TestGamesHandler(t *testing.T) {
	t.Run("Paginates", func(t *testing.T) {
		_, srv := newFixture(t, 25, "")

		resp, err := http.Get(srv.URL + "/api/v1/games/?username=dev&page=3")
		if err != nil {
			t.Fatalf("GET: %v", err)
		}
		defer resp.Body.Close()

		var page models.FeedPage
		json.NewDecoder(resp.Body).Decode(&page)
		if page.Count != 25 || len(page.Results) != 5 {
			t.Errorf("unexpected page count=%d results=%d", page.Count, len(page.Results))
		}
		if page.Next != "" {
			t.Errorf("expected no next on the last page, got %s", page.Next)
		}
		if !strings.Contains(page.Previous, "page=2") || !strings.Contains(page.Previous, "username=dev") {
			t.Errorf("unexpected previous %s", page.Previous)
		}
		if resp.Header.Get(RequestIDHeader) == "" {
			t.Error("expected a request id header")
		}
	})

	t.Run("Invalid Page", func(t *testing.T) {
		_, srv := newFixture(t, 3, "")
		resp, _ := http.Get(srv.URL + "/api/v1/games/?page=9")
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404, got %d", resp.StatusCode)
		}
	})

	t.Run("Unknown Replay", func(t *testing.T) {
		_, srv := newFixture(t, 1, "")
		resp, _ := http.Get(srv.URL + "/api/v1/games/missing/")
		defer resp.Body.Close()
		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		if resp.StatusCode != http.StatusNotFound || body["detail"] != "Not found." {
			t.Errorf("unexpected response %d %v", resp.StatusCode, body)
		}
	})

	t.Run("Collection Rejects Post", func(t *testing.T) {
		_, srv := newFixture(t, 1, "")
		resp, _ := http.Post(srv.URL+"/api/v1/games/", "application/json", strings.NewReader("{}"))
		resp.Body.Close()
		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", resp.StatusCode)
		}
	})

	t.Run("Requires Token For Mutations", func(t *testing.T) {
		store, srv := newFixture(t, 1, "secret")
		id := store.List("")[0].ShortID

		req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/v1/games/"+id+"/", nil)
		resp, _ := http.DefaultClient.Do(req)
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", resp.StatusCode)
		}

		req, _ = http.NewRequest(http.MethodDelete, srv.URL+"/api/v1/games/"+id+"/", nil)
		req.Header.Set("Authorization", "Token wrong")
		resp, _ = http.DefaultClient.Do(req)
		resp.Body.Close()
		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("expected 403, got %d", resp.StatusCode)
		}
		if store.Len() != 1 {
			t.Error("expected replay to survive unauthorized deletes")
		}
	})

	t.Run("Patch Validation", func(t *testing.T) {
		store, srv := newFixture(t, 1, "")
		id := store.List("")[0].ShortID

		tests := []struct {
			body   string
			status int
		}{
			{`{"visibility": 2}`, http.StatusOK},
			{`{"visibility": "private"}`, http.StatusOK},
			{`{"visibility": 7}`, http.StatusBadRequest},
			{`{}`, http.StatusBadRequest},
			{`not json`, http.StatusBadRequest},
		}
		for _, tt := range tests {
			req, _ := http.NewRequest(http.MethodPatch, srv.URL+"/api/v1/games/"+id+"/", strings.NewReader(tt.body))
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("PATCH: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.status {
				t.Errorf("%s: expected %d, got %d", tt.body, tt.status, resp.StatusCode)
			}
		}
		if r, _ := store.Get(id); r.Visibility != models.VisibilityPrivate {
			t.Errorf("expected private after patches, got %s", r.Visibility)
		}
	})

	t.Run("Health", func(t *testing.T) {
		_, srv := newFixture(t, 4, "")
		resp, _ := http.Get(srv.URL + "/health")
		defer resp.Body.Close()
		var body map[string]any
		json.NewDecoder(resp.Body).Decode(&body)
		if body["status"] != "ok" || body["games"] != float64(4) {
			t.Errorf("unexpected health %v", body)
		}
	})

	t.Run("CORS Preflight", func(t *testing.T) {
		_, srv := newFixture(t, 1, "")
		req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/api/v1/games/", nil)
		req.Header.Set("Origin", "http://localhost:8080")
		req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("OPTIONS: %v", err)
		}
		resp.Body.Close()
		if resp.Header.Get("Access-Control-Allow-Origin") == "" {
			t.Error("expected CORS headers on preflight")
		}
	})
}

// The games client and the fixture agree on the wire format end to end.
func TestGamesAPIAgainstFixture(t *testing.T) {
	store, srv := newFixture(t, 12, "secret")
	api, err := services.NewGamesAPI(services.GamesAPIOpts{BaseURL: srv.URL, Username: "dev", Token: "secret"})
	if err != nil {
		t.Fatalf("NewGamesAPI: %v", err)
	}
	ctx := context.Background()

	page, err := api.FetchPage(ctx, "")
	if err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if page.Count != 12 || len(page.Results) != defaultPageSize || page.Next == "" {
		t.Fatalf("unexpected first page %+v", page)
	}
	second, err := api.FetchPage(ctx, page.Next)
	if err != nil {
		t.Fatalf("FetchPage next: %v", err)
	}
	if len(second.Results) != 2 || second.Next != "" {
		t.Errorf("unexpected second page results=%d next=%q", len(second.Results), second.Next)
	}

	id := page.Results[0].ShortID
	if err := api.SetVisibility(ctx, id, models.VisibilityUnlisted); err != nil {
		t.Fatalf("SetVisibility: %v", err)
	}
	if r, _ := store.Get(id); r.Visibility != models.VisibilityUnlisted {
		t.Errorf("expected unlisted, got %s", r.Visibility)
	}
	if err := api.DeleteReplay(ctx, id); err != nil {
		t.Fatalf("DeleteReplay: %v", err)
	}
	err = api.DeleteReplay(ctx, id)
	if !errors.Is(err, shared.ErrReplayNotFound) {
		t.Errorf("expected ErrReplayNotFound, got %v", err)
	}
	if msg := services.FailureMessage(services.DeleteFailure, err); msg != "Could not delete replay.\n\nNot found." {
		t.Errorf("unexpected message %q", msg)
	}
}
