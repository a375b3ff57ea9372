package feed

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/hsrx/internal/filters"
	"github.com/desertthunder/hsrx/internal/models"
	"github.com/desertthunder/hsrx/internal/query"
	"github.com/desertthunder/hsrx/internal/services"
	"github.com/desertthunder/hsrx/internal/shared"
)

// DefaultMaxRestarts bounds how often a single Query restarts from the first
// page because the server's count changed underneath it.
const DefaultMaxRestarts = 3

// State is the fetch state of a [Controller].
type State int

const (
	StateIdle State = iota
	StateFetching
)

func (s State) String() string {
	if s == StateFetching {
		return "fetching"
	}
	return "idle"
}

// LocalPage is one client-side page of filtered replays.
type LocalPage struct {
	Replays     []models.Replay
	Index       int
	Size        int
	HasNext     bool
	HasPrevious bool
	// Loading is set when results are short because another fetch is in flight.
	Loading bool
}

// Opts configures [New].
type Opts struct {
	API          services.PageFetcher
	FirstPageURL string
	Query        *query.Query
	MaxRestarts  int
	Logger       *log.Logger
}

// Controller reconciles server pages with fixed-size local pages of filtered
// results. It is safe for concurrent use; at most one fetch runs at a time.
type Controller struct {
	api         services.PageFetcher
	firstPage   string
	maxRestarts int
	logger      *log.Logger
	session     string

	mu       sync.Mutex
	state    State
	started  bool
	gen      int
	query    *query.Query
	pages    [][]models.Replay
	count    int
	next     string
	index    int
	pageSize int
	lastNext bool
}

// New creates a controller. Nothing is fetched until the first Query or
// VisiblePage call.
func New(opts Opts) *Controller {
	q := opts.Query
	if q == nil {
		q = query.New()
	}
	if opts.MaxRestarts <= 0 {
		opts.MaxRestarts = DefaultMaxRestarts
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	session := shared.GenerateID()
	return &Controller{
		api:         opts.API,
		firstPage:   opts.FirstPageURL,
		maxRestarts: opts.MaxRestarts,
		logger:      shared.WithLogger(opts.Logger, "feed", session[:8]),
		session:     session,
		query:       q.Clone(),
		pageSize:    1,
	}
}

// Session identifies this feed session in logs and telemetry.
func (c *Controller) Session() string { return c.session }

// State returns the current fetch state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// PageSize is the local page size. It only ever grows.
func (c *Controller) PageSize() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pageSize
}

// Count is the total reported by the last server page.
func (c *Controller) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// FetchedPages returns how many server pages are held.
func (c *Controller) FetchedPages() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pages)
}

// Filters returns a copy of the active filter query.
func (c *Controller) Filters() *query.Query {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query.Clone()
}

// Index is the current local page index.
func (c *Controller) Index() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}

// Query fetches one server page. An empty url means the first page. It fails
// with [shared.ErrFeedBusy] while another fetch is running and leaves the
// controller idle on any error. A page that arrives after [Controller.Reset]
// is discarded.
func (c *Controller) Query(ctx context.Context, url string) error {
	c.mu.Lock()
	if c.state == StateFetching {
		c.mu.Unlock()
		return shared.ErrFeedBusy
	}
	c.state = StateFetching
	c.started = true
	gen := c.gen
	c.mu.Unlock()

	if url == "" {
		url = c.firstPage
	}

	for restarts := 0; ; restarts++ {
		c.logger.Debug("fetching page", "url", url)
		page, err := c.api.FetchPage(ctx, url)

		c.mu.Lock()
		if err != nil {
			c.state = StateIdle
			c.mu.Unlock()
			return fmt.Errorf("feed query: %w", err)
		}

		if gen != c.gen {
			c.logger.Debug("dropping page fetched before reset", "url", url)
			c.state = StateIdle
			c.mu.Unlock()
			return nil
		}

		if page.Count != 0 && c.count != 0 && page.Count != c.count && restarts < c.maxRestarts {
			c.logger.Info("replay count changed, restarting", "was", c.count, "now", page.Count)
			c.pages = nil
			c.count = page.Count
			c.next = ""
			c.mu.Unlock()
			url = c.firstPage
			continue
		}

		if page.Count != 0 {
			c.pages = append(c.pages, page.Results)
			c.observePageSize(len(page.Results))
		}
		c.count = page.Count
		c.next = page.Next
		c.state = StateIdle
		c.mu.Unlock()
		return nil
	}
}

// observePageSize grows the local page size to the largest server page seen.
func (c *Controller) observePageSize(n int) {
	if n > c.pageSize {
		c.pageSize = n
	}
}

// VisiblePage returns the current local page, fetching further server pages
// until it holds one more result than the page needs (so HasNext is known) or
// the server runs out.
func (c *Controller) VisiblePage(ctx context.Context) (LocalPage, error) {
	for {
		c.mu.Lock()
		if !c.started {
			c.mu.Unlock()
			if err := c.Query(ctx, ""); err != nil {
				return LocalPage{}, err
			}
			continue
		}
		games, exhausted := c.accumulate()
		if exhausted && c.next != "" && c.state == StateIdle {
			next, held := c.next, len(c.pages)
			c.mu.Unlock()
			if err := c.Query(ctx, next); err != nil {
				return LocalPage{}, err
			}
			c.mu.Lock()
			stalled := len(c.pages) == held && c.next == next
			c.mu.Unlock()
			if !stalled {
				continue
			}
			c.mu.Lock()
			games, _ = c.accumulate()
		}
		page := c.slice(games)
		c.mu.Unlock()
		return page, nil
	}
}

// accumulate concatenates filtered pages in fetch order until it has
// pageSize*(index+1)+1 results. exhausted reports that the held pages ran out
// first. Callers hold mu.
func (c *Controller) accumulate() (games []models.Replay, exhausted bool) {
	want := c.pageSize*(c.index+1) + 1
	for _, p := range c.pages {
		games = append(games, filters.Apply(p, c.query)...)
		if len(games) >= want {
			return games, false
		}
	}
	return games, true
}

// slice cuts the current local page out of games. Callers hold mu.
func (c *Controller) slice(games []models.Replay) LocalPage {
	start := c.pageSize * c.index
	if start > len(games) {
		start = len(games)
	}
	rest := games[start:]
	hasNext := c.next != "" || len(rest) > c.pageSize
	if len(rest) > c.pageSize {
		rest = rest[:c.pageSize]
	}
	c.lastNext = hasNext
	return LocalPage{
		Replays:     rest,
		Index:       c.index,
		Size:        c.pageSize,
		HasNext:     hasNext,
		HasPrevious: c.index > 0,
		Loading:     c.state == StateFetching,
	}
}

// SetFilter sets one filter value; an empty value clears it. The local page
// index resets to 0 while fetched pages are kept.
func (c *Controller) SetFilter(name, value string) error {
	if !filters.IsKnown(name) {
		return fmt.Errorf("%w: %q", shared.ErrUnknownFilter, name)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.query.Set(name, value)
	c.index = 0
	c.lastNext = false
	return nil
}

// SetQuery replaces every filter, e.g. from a URL fragment.
func (c *Controller) SetQuery(q *query.Query) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if q == nil {
		q = query.New()
	}
	c.query = q.Clone()
	c.index = 0
	c.lastNext = false
}

// Advance moves to the next local page. It requires the last VisiblePage to
// have reported a next page and no fetch to be running.
func (c *Controller) Advance() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.lastNext || c.state == StateFetching {
		return shared.ErrNoNextPage
	}
	c.index++
	c.lastNext = false
	return nil
}

// Retreat moves to the previous local page.
func (c *Controller) Retreat() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.index == 0 {
		return shared.ErrNoPreviousPage
	}
	c.index--
	return nil
}

// Reset drops every fetched page; the next VisiblePage starts over. A fetch
// still in flight keeps the controller busy but its page is thrown away.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.pages = nil
	c.count = 0
	c.next = ""
	c.index = 0
	c.started = false
	c.lastNext = false
}
