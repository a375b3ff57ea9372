package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/desertthunder/hsrx/internal/feed"
	"github.com/desertthunder/hsrx/internal/filters"
	"github.com/desertthunder/hsrx/internal/metrics"
	"github.com/desertthunder/hsrx/internal/models"
	"github.com/desertthunder/hsrx/internal/query"
	"github.com/desertthunder/hsrx/internal/services"
	"github.com/desertthunder/hsrx/internal/shared"
)

// busyRetryDelay is how long the feed waits before asking again for a page
// the controller refused because another fetch was running.
const busyRetryDelay = 150 * time.Millisecond

// ViewState represents the current view in the TUI.
type ViewState int

const (
	FeedView ViewState = iota
	SearchView
	ConfirmDeleteView
)

// Mutator is the part of the games API the TUI changes replays through.
type Mutator interface {
	services.VisibilityUpdater
	DeleteReplay(ctx context.Context, shortID string) error
}

// ModelOpts configures [NewModel].
type ModelOpts struct {
	Feed     *feed.Controller
	API      Mutator
	BaseURL  string
	Reporter *metrics.Reporter
	Ledger   metrics.ShareLedger
	Logger   *log.Logger
	// Open launches a URL; defaults to [shared.OpenBrowser].
	Open func(url string) error
}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	view     ViewState
	feed     *feed.Controller
	api      Mutator
	baseURL  string
	reporter *metrics.Reporter
	ledger   metrics.ShareLedger
	logger   *log.Logger
	open     func(string) error

	width    int
	height   int
	replays  list.Model
	page     feed.LocalPage
	loading  bool
	controls map[string]*services.VisibilityControl
	search   textinput.Model
	status   string
	err      error
	help     help.Model
	keys     keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts ModelOpts) *Model {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Open == nil {
		opts.Open = shared.OpenBrowser
	}

	replays := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	replays.Title = "Replays"
	replays.SetFilteringEnabled(false)
	replays.SetShowHelp(false)
	replays.SetShowStatusBar(false)

	search := textinput.New()
	search.Placeholder = "player name"
	search.CharLimit = 64

	return &Model{
		ctx:      ctx,
		view:     FeedView,
		feed:     opts.Feed,
		api:      opts.API,
		baseURL:  opts.BaseURL,
		reporter: opts.Reporter,
		ledger:   opts.Ledger,
		logger:   opts.Logger,
		open:     opts.Open,
		replays:  replays,
		controls: map[string]*services.VisibilityControl{},
		search:   search,
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init loads the first local page.
func (m *Model) Init() tea.Cmd {
	return m.loadPage()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.replays.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case SearchView:
			return m.handleSearchKeys(msg)
		case ConfirmDeleteView:
			return m.handleConfirmKeys(msg)
		default:
			return m.handleFeedKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	var cmd tea.Cmd
	m.replays, cmd = m.replays.Update(msg)
	return m, cmd
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgPageLoaded:
		data := msg.data.(pageLoaded)
		if errors.Is(data.err, shared.ErrFeedBusy) {
			m.logger.Debug("feed busy, retrying", "after", busyRetryDelay)
			return m, tea.Tick(busyRetryDelay, func(time.Time) tea.Msg { return reloadPageMsg() })
		}
		m.loading = false
		if data.err != nil {
			m.err = data.err
			m.logger.Error("failed to load replays", "error", data.err)
			return m, nil
		}
		m.err = nil
		m.page = data.page
		cmd := m.replays.SetItems(replayItems(data.page.Replays))
		m.replays.Title = m.pageTitle()
		return m, cmd

	case MsgVisibilityChanged:
		data := msg.data.(visibilityChanged)
		if data.err != nil {
			m.status = styles.err.Render(services.FailureMessage(services.VisibilityFailure, data.err))
			m.logger.Warn("visibility change failed", "shortid", data.shortID, "error", data.err)
		} else {
			m.status = styles.ok.Render(fmt.Sprintf("Replay is now %s", data.current))
		}
		m.setVisibility(data.shortID, data.current)
		return m, nil

	case MsgReplayDeleted:
		data := msg.data.(replayDeleted)
		if data.err != nil {
			m.status = styles.err.Render(services.FailureMessage(services.DeleteFailure, data.err))
			return m, nil
		}
		m.status = styles.ok.Render("Replay deleted")
		delete(m.controls, data.shortID)
		m.feed.Reset()
		return m, m.loadPage()

	case MsgReloadPage:
		return m, m.loadPage()

	case MsgBrowserOpened:
		if err, _ := msg.data.(error); err != nil {
			m.status = styles.warn.Render(fmt.Sprintf("Could not open browser: %v", err))
		}
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderFilters())
	b.WriteString("\n\n")

	switch {
	case m.err != nil:
		b.WriteString(styles.err.Render(fmt.Sprintf("Error: %v", m.err)))
	case len(m.page.Replays) == 0 && (m.loading || m.page.Loading):
		b.WriteString("Loading replays…")
	case len(m.page.Replays) == 0:
		b.WriteString(styles.title.Render("No replay found"))
		if m.feed.Filters().Len() > 0 {
			b.WriteString("\n" + styles.help.Render("Press 0 to reset search"))
		}
	default:
		b.WriteString(m.replays.View())
	}

	switch m.view {
	case SearchView:
		b.WriteString("\n\n" + m.search.View())
	case ConfirmDeleteView:
		if item, ok := m.selected(); ok {
			b.WriteString("\n\n" + styles.warn.Render(fmt.Sprintf("Delete replay %s? (y/esc)", item.ShortID)))
		}
	}

	if m.status != "" {
		b.WriteString("\n\n" + m.status)
	}
	b.WriteString("\n\n" + m.help.View(m.keys))
	return b.String()
}

func (m *Model) pageTitle() string {
	title := fmt.Sprintf("Replays · page %d", m.page.Index+1)
	if count := m.feed.Count(); count > 0 {
		title += fmt.Sprintf(" · %d on server", count)
	}
	return title
}

func (m *Model) renderFilters() string {
	q := m.feed.Filters()
	var cells []string
	if name := q.Get(filters.Name); name != "" {
		cells = append(cells, styles.active.Render(fmt.Sprintf("%q", name)))
	}
	for _, d := range filters.Definitions() {
		value := q.Get(d.Name)
		style := styles.filter
		if value != "" {
			style = styles.active
		}
		cells = append(cells, style.Render(d.Label(value)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}

func (m *Model) handleFeedKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.next):
		if m.loading {
			return m, nil
		}
		if err := m.feed.Advance(); err != nil {
			return m, nil
		}
		return m, m.loadPage()
	case key.Matches(msg, m.keys.prev):
		if err := m.feed.Retreat(); err != nil {
			return m, nil
		}
		return m, m.loadPage()
	case key.Matches(msg, m.keys.mode):
		return m, m.cycleFilter(filters.Mode)
	case key.Matches(msg, m.keys.format):
		return m, m.cycleFilter(filters.Format)
	case key.Matches(msg, m.keys.result):
		return m, m.cycleFilter(filters.Result)
	case key.Matches(msg, m.keys.hero):
		return m, m.cycleFilter(filters.Hero)
	case key.Matches(msg, m.keys.opponent):
		return m, m.cycleFilter(filters.Opponent)
	case key.Matches(msg, m.keys.clear):
		m.feed.SetQuery(query.New())
		return m, m.loadPage()
	case key.Matches(msg, m.keys.search):
		m.view = SearchView
		m.search.SetValue(m.feed.Filters().Get(filters.Name))
		m.search.Focus()
		return m, textinput.Blink
	case key.Matches(msg, m.keys.open):
		return m, m.openSelected()
	case key.Matches(msg, m.keys.share):
		m.shareSelected()
		return m, nil
	case key.Matches(msg, m.keys.visibility):
		return m, m.toggleVisibility()
	case key.Matches(msg, m.keys.remove):
		if _, ok := m.selected(); ok {
			m.view = ConfirmDeleteView
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.replays, cmd = m.replays.Update(msg)
	return m, cmd
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.view = FeedView
		m.search.Blur()
		m.feed.SetFilter(filters.Name, strings.TrimSpace(m.search.Value()))
		return m, m.loadPage()
	case tea.KeyEsc:
		m.view = FeedView
		m.search.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		m.view = FeedView
		if r, ok := m.selected(); ok {
			return m, m.deleteReplay(r.ShortID)
		}
	case key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.quit):
		m.view = FeedView
	}
	return m, nil
}

func (m *Model) selected() (models.Replay, bool) {
	item, ok := m.replays.SelectedItem().(replayItem)
	if !ok {
		return models.Replay{}, false
	}
	return item.replay, true
}

func (m *Model) cycleFilter(name string) tea.Cmd {
	for _, d := range filters.Definitions() {
		if d.Name == name {
			m.feed.SetFilter(name, d.Cycle(m.feed.Filters().Get(name)))
			return m.loadPage()
		}
	}
	return nil
}

// loadPage computes the visible page off the UI goroutine.
func (m *Model) loadPage() tea.Cmd {
	m.loading = true
	return func() tea.Msg {
		page, err := m.feed.VisiblePage(m.ctx)
		return pageLoadedMsg(page, err)
	}
}

func (m *Model) replayURL(shortID, fragment string) string {
	return shared.ReplayURL(m.baseURL, shortID, fragment)
}

func (m *Model) openSelected() tea.Cmd {
	r, ok := m.selected()
	if !ok {
		return nil
	}
	url := m.replayURL(r.ShortID, "")
	m.reporter.WritePoint("replay_opened", map[string]any{"count": 1}, map[string]string{"source": "tui"})
	return func() tea.Msg {
		return browserOpenedMsg(m.open(url))
	}
}

func (m *Model) shareSelected() {
	r, ok := m.selected()
	if !ok {
		return
	}
	link := query.BuildShareURL(m.replayURL(r.ShortID, ""), query.ShareOptions{})
	m.status = styles.ok.Render("Share link: ") + link
	if m.ledger != nil {
		if _, err := metrics.TrackShare(m.reporter, m.ledger, r.ShortID, models.NetworkCopy, false); err != nil {
			m.logger.Warn("failed to record share", "error", err)
		}
	}
}

// toggleVisibility flips the selected replay between public and unlisted.
func (m *Model) toggleVisibility() tea.Cmd {
	r, ok := m.selected()
	if !ok || m.api == nil {
		return nil
	}
	control, ok := m.controls[r.ShortID]
	if !ok {
		control = services.NewVisibilityControl(m.api, r.ShortID, r.Visibility)
		m.controls[r.ShortID] = control
	}
	if control.Working() {
		return nil
	}

	target := models.VisibilityUnlisted
	if control.Selected() == models.VisibilityUnlisted {
		target = models.VisibilityPublic
	}
	m.setVisibility(r.ShortID, target)

	return func() tea.Msg {
		err := control.Select(m.ctx, target)
		return visibilityChangedMsg(r.ShortID, control.Selected(), err)
	}
}

func (m *Model) deleteReplay(shortID string) tea.Cmd {
	if m.api == nil {
		return nil
	}
	return func() tea.Msg {
		return replayDeletedMsg(shortID, m.api.DeleteReplay(m.ctx, shortID))
	}
}

// setVisibility updates the visible list item in place.
func (m *Model) setVisibility(shortID string, v models.Visibility) {
	for i, item := range m.replays.Items() {
		ri, ok := item.(replayItem)
		if ok && ri.replay.ShortID == shortID {
			ri.replay.Visibility = v
			m.replays.SetItem(i, ri)
			return
		}
	}
}
