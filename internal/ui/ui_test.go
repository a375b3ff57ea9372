package ui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/hsrx/internal/feed"
	"github.com/desertthunder/hsrx/internal/filters"
	"github.com/desertthunder/hsrx/internal/models"
	"github.com/desertthunder/hsrx/internal/services"
	"github.com/desertthunder/hsrx/internal/shared"
	tu "github.com/desertthunder/hsrx/internal/testing"
)

type staticFeed struct {
	replays []models.Replay
}

func (s *staticFeed) FetchPage(ctx context.Context, url string) (*models.FeedPage, error) {
	return &models.FeedPage{Count: len(s.replays), Results: s.replays}, nil
}

type stubMutator struct {
	visErr error
	delErr error
	calls  []string
}

func (s *stubMutator) SetVisibility(ctx context.Context, shortID string, v models.Visibility) error {
	s.calls = append(s.calls, "patch "+shortID+" "+v.String())
	return s.visErr
}

func (s *stubMutator) DeleteReplay(ctx context.Context, shortID string) error {
	s.calls = append(s.calls, "delete "+shortID)
	return s.delErr
}

func keyPress(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestModel(t *testing.T, api Mutator) *Model {
	t.Helper()
	replays := []models.Replay{
		tu.NewReplay("won", tu.ReplayOpts{Won: true}),
		tu.NewReplay("lost", tu.ReplayOpts{}),
	}
	ctrl := feed.New(feed.Opts{API: &staticFeed{replays: replays}, Logger: tu.DiscardLogger()})
	m := NewModel(context.Background(), ModelOpts{
		Feed:    ctrl,
		API:     api,
		BaseURL: "https://hsreplay.net",
		Logger:  tu.DiscardLogger(),
		Open:    func(string) error { return nil },
	})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	run(t, m, m.Init())
	return m
}

// run executes cmd and feeds the resulting message back into the model.
func run(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		return
	}
	if msg, ok := cmd().(Msg); ok {
		m.Update(msg)
	}
}

func TestModel(t *testing.T) {
	t.Run("Loads First Page", func(t *testing.T) {
		m := newTestModel(t, nil)
		if len(m.replays.Items()) != 2 {
			t.Fatalf("expected 2 items, got %d", len(m.replays.Items()))
		}
		if !strings.Contains(m.View(), "Mage vs Warrior") {
			t.Errorf("expected replay title in view:\n%s", m.View())
		}
	})

	t.Run("Cycles Result Filter", func(t *testing.T) {
		m := newTestModel(t, nil)
		_, cmd := m.Update(keyPress("r"))
		run(t, m, cmd)

		if got := m.feed.Filters().Get(filters.Result); got != "won" {
			t.Errorf("expected result=won, got %q", got)
		}
		if items := m.replays.Items(); len(items) != 1 || items[0].(replayItem).replay.ShortID != "won" {
			t.Errorf("expected only the won replay, got %v", items)
		}
		if !strings.Contains(m.View(), "Won") {
			t.Error("expected filter label in view")
		}
	})

	t.Run("Empty Result Offers Reset", func(t *testing.T) {
		m := newTestModel(t, nil)
		m.feed.SetFilter(filters.Hero, "druid")
		run(t, m, m.loadPage())
		if view := m.View(); !strings.Contains(view, "No replay found") || !strings.Contains(view, "reset search") {
			t.Errorf("expected empty message, got:\n%s", view)
		}

		_, cmd := m.Update(keyPress("0"))
		run(t, m, cmd)
		if len(m.replays.Items()) != 2 {
			t.Errorf("expected filters cleared, got %d items", len(m.replays.Items()))
		}
	})

	t.Run("Visibility Rolls Back On Failure", func(t *testing.T) {
		api := &stubMutator{visErr: &services.APIError{Status: 403, Detail: "Forbidden"}}
		m := newTestModel(t, api)

		_, cmd := m.Update(keyPress("v"))
		if got := m.replays.Items()[0].(replayItem).replay.Visibility; got != models.VisibilityUnlisted {
			t.Errorf("expected optimistic unlisted, got %s", got)
		}
		run(t, m, cmd)

		if got := m.replays.Items()[0].(replayItem).replay.Visibility; got != models.VisibilityPublic {
			t.Errorf("expected rollback to public, got %s", got)
		}
		if !strings.Contains(m.status, "Could not change replay visibility.") || !strings.Contains(m.status, "Forbidden") {
			t.Errorf("unexpected status %q", m.status)
		}
	})

	t.Run("Delete Requires Confirmation", func(t *testing.T) {
		api := &stubMutator{}
		m := newTestModel(t, api)

		m.Update(keyPress("d"))
		if m.view != ConfirmDeleteView {
			t.Fatalf("expected confirm view, got %d", m.view)
		}
		m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		if m.view != FeedView || len(api.calls) != 0 {
			t.Fatalf("expected cancel without calls, got %v", api.calls)
		}

		m.Update(keyPress("d"))
		_, cmd := m.Update(keyPress("y"))
		run(t, m, cmd)
		if len(api.calls) != 1 || api.calls[0] != "delete won" {
			t.Errorf("unexpected calls %v", api.calls)
		}
		if m.status == "" {
			t.Error("expected a status message")
		}
	})

	t.Run("Delete Failure Shows Detail", func(t *testing.T) {
		api := &stubMutator{delErr: errors.New("offline")}
		m := newTestModel(t, api)
		m.Update(keyPress("d"))
		_, cmd := m.Update(keyPress("y"))
		run(t, m, cmd)
		if !strings.Contains(m.status, "Could not delete replay.") {
			t.Errorf("unexpected status %q", m.status)
		}
	})

	t.Run("Busy Feed Retries Load", func(t *testing.T) {
		m := newTestModel(t, &stubMutator{})
		m.feed.Reset()
		m.replays.SetItems(nil)

		_, cmd := m.Update(pageLoadedMsg(feed.LocalPage{}, shared.ErrFeedBusy))
		if cmd == nil {
			t.Fatal("expected a retry to be scheduled")
		}
		if !m.loading || m.err != nil {
			t.Errorf("expected loading without error, got loading=%t err=%v", m.loading, m.err)
		}

		reload, ok := cmd().(Msg)
		if !ok || reload.kind != MsgReloadPage {
			t.Fatalf("expected reload message, got %#v", reload)
		}
		_, cmd = m.Update(reload)
		run(t, m, cmd)
		if m.loading || len(m.replays.Items()) != 2 {
			t.Errorf("expected page reloaded, got loading=%t items=%d", m.loading, len(m.replays.Items()))
		}
	})

	t.Run("Search Sets Name Filter", func(t *testing.T) {
		m := newTestModel(t, nil)
		m.Update(keyPress("/"))
		if m.view != SearchView {
			t.Fatalf("expected search view, got %d", m.view)
		}
		m.Update(keyPress("opp"))
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		run(t, m, cmd)
		if got := m.feed.Filters().Get(filters.Name); got != "opp" {
			t.Errorf("expected name=opp, got %q", got)
		}
	})

	t.Run("Share Link", func(t *testing.T) {
		m := newTestModel(t, nil)
		m.Update(keyPress("s"))
		if !strings.Contains(m.status, "https://hsreplay.net/replay/won") {
			t.Errorf("unexpected status %q", m.status)
		}
	})

	t.Run("Quit", func(t *testing.T) {
		m := newTestModel(t, nil)
		_, cmd := m.Update(keyPress("q"))
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
	})
}
