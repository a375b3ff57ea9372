package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/desertthunder/hsrx/internal/models"
	"github.com/desertthunder/hsrx/internal/shared"
)

// DefaultBaseURL is the public replay site.
const DefaultBaseURL = "https://hsreplay.net"

// GamesAPI talks to the games endpoints of the replay site.
//
// Every collection request carries the configured username as a query
// parameter. Authentication uses the site's "Authorization: Token <key>"
// scheme, supplied through an oauth2 static token source so the header is
// attached by the transport.
type GamesAPI struct {
	baseURL  *url.URL
	username string
	client   *http.Client
}

// GamesAPIOpts configures [NewGamesAPI].
type GamesAPIOpts struct {
	BaseURL  string
	Username string
	Token    string
	Timeout  time.Duration
	// Transport is the base round tripper; nil uses [http.DefaultTransport].
	Transport http.RoundTripper
}

var _ GamesService = (*GamesAPI)(nil)

// NewGamesAPI creates a games API client.
func NewGamesAPI(opts GamesAPIOpts) (*GamesAPI, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: invalid api base url %q", shared.ErrInvalidConfig, opts.BaseURL)
	}

	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	if opts.Token != "" {
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token, TokenType: "Token"}),
			Base:   transport,
		}
	}

	return &GamesAPI{
		baseURL:  base,
		username: opts.Username,
		client:   &http.Client{Transport: transport, Timeout: opts.Timeout},
	}, nil
}

// Username returns the account whose games are listed.
func (g *GamesAPI) Username() string { return g.username }

// BaseURL returns the site root without a trailing slash.
func (g *GamesAPI) BaseURL() string { return g.baseURL.String() }

// FirstPageURL is the initial collection URL for a feed session.
func (g *GamesAPI) FirstPageURL() string {
	return g.BaseURL() + GamesPath
}

// replayURL is the detail endpoint for one replay.
func (g *GamesAPI) replayURL(shortID string) string {
	return g.BaseURL() + GamesPath + url.PathEscape(shortID) + "/"
}

// resolve turns a possibly relative page URL into an absolute one and adds the
// username parameter.
func (g *GamesAPI) resolve(pageURL string) (string, error) {
	if pageURL == "" {
		pageURL = g.FirstPageURL()
	}
	ref, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("%w: page url %q: %v", shared.ErrInvalidInput, pageURL, err)
	}
	u := g.baseURL.ResolveReference(ref)
	if g.username != "" {
		q := u.Query()
		q.Set("username", g.username)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// FetchPage fetches one page of the games collection. An empty pageURL means
// the first page; server-provided next cursors are used verbatim apart from
// the username parameter.
func (g *GamesAPI) FetchPage(ctx context.Context, pageURL string) (*models.FeedPage, error) {
	target, err := g.resolve(pageURL)
	if err != nil {
		return nil, err
	}

	var page models.FeedPage
	if err := g.doJSON(ctx, http.MethodGet, target, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetReplay fetches a single replay by shortid.
func (g *GamesAPI) GetReplay(ctx context.Context, shortID string) (*models.Replay, error) {
	if shortID == "" {
		return nil, fmt.Errorf("%w: shortid", shared.ErrMissingArgument)
	}
	var replay models.Replay
	if err := g.doJSON(ctx, http.MethodGet, g.replayURL(shortID), nil, &replay); err != nil {
		return nil, err
	}
	return &replay, nil
}

// DeleteReplay removes a replay.
func (g *GamesAPI) DeleteReplay(ctx context.Context, shortID string) error {
	if shortID == "" {
		return fmt.Errorf("%w: shortid", shared.ErrMissingArgument)
	}
	return g.doJSON(ctx, http.MethodDelete, g.replayURL(shortID), nil, nil)
}

// SetVisibility patches the visibility of a replay.
func (g *GamesAPI) SetVisibility(ctx context.Context, shortID string, v models.Visibility) error {
	if shortID == "" {
		return fmt.Errorf("%w: shortid", shared.ErrMissingArgument)
	}
	if !v.Valid() {
		return fmt.Errorf("%w: visibility %d", shared.ErrInvalidArgument, int(v))
	}
	body, err := json.Marshal(map[string]int{"visibility": int(v)})
	if err != nil {
		return err
	}
	return g.doJSON(ctx, http.MethodPatch, g.replayURL(shortID), body, nil)
}

// doJSON sends a request and decodes a 2xx body into out when out is non-nil.
// Non-2xx responses become an [*APIError].
func (g *GamesAPI) doJSON(ctx context.Context, method, target string, body []byte, out any) error {
	resp, err := g.Do(ctx, method, target, body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, resp.Body)
	}
	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", shared.ErrAPIRequest, err)
	}
	return nil
}

// APIResponse is a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// Do performs a raw authenticated request. Relative targets resolve against
// the base URL. It never inspects the status code.
func (g *GamesAPI) Do(ctx context.Context, method, target string, body []byte) (*APIResponse, error) {
	ref, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("%w: url %q: %v", shared.ErrInvalidInput, target, err)
	}
	fullURL := g.baseURL.ResolveReference(ref).String()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", shared.ErrAPIRequest, err)
	}

	apiResp := &APIResponse{StatusCode: resp.StatusCode, Headers: resp.Header, Body: data}
	var jsonData any
	if err := json.Unmarshal(data, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}
	return apiResp, nil
}

// Get performs a raw GET of a path relative to the base URL.
func (g *GamesAPI) Get(ctx context.Context, path string) (*APIResponse, error) {
	return g.Do(ctx, http.MethodGet, path, nil)
}
