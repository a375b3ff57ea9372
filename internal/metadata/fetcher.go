package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/desertthunder/hsrx/internal/shared"
)

// DefaultURLTemplate is the HearthstoneJSON card document for a build and locale.
const DefaultURLTemplate = "https://api.hearthstonejson.com/v1/%(build)s/%(locale)s/cards.json"

// ErrCancelled means the request was abandoned and no fallback should run.
var ErrCancelled = errors.New("metadata request cancelled")

// Fetcher retrieves the metadata document for a build and locale.
type Fetcher interface {
	Fetch(ctx context.Context, build, locale string) (json.RawMessage, error)
}

// SourceURL substitutes build and locale into a URL template.
func SourceURL(template, build, locale string) string {
	r := strings.NewReplacer("%(build)s", build, "%(locale)s", locale)
	return r.Replace(template)
}

// HTTPFetcher fetches documents over HTTP from a URL template.
type HTTPFetcher struct {
	template   string
	httpClient *http.Client
}

// NewHTTPFetcher creates a fetcher for template, defaulting to [DefaultURLTemplate].
func NewHTTPFetcher(template string, client *http.Client) *HTTPFetcher {
	if template == "" {
		template = DefaultURLTemplate
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{template: template, httpClient: client}
}

// Fetch downloads and validates the document. The body must be a JSON array.
func (f *HTTPFetcher) Fetch(ctx context.Context, build, locale string) (json.RawMessage, error) {
	url := SourceURL(f.template, build, locale)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
		}
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %d", shared.ErrMetadataNotFound, url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
		}
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var cards []json.RawMessage
	if err := json.Unmarshal(body, &cards); err != nil {
		return nil, fmt.Errorf("%w: metadata is not a JSON array: %v", shared.ErrAPIRequest, err)
	}

	return json.RawMessage(body), nil
}

// Card is the subset of a card definition used for summaries.
type Card struct {
	ID     string `json:"id"`
	DbfID  int    `json:"dbfId"`
	Name   string `json:"name"`
	Set    string `json:"set"`
	Type   string `json:"type"`
	Rarity string `json:"rarity"`
	Cost   int    `json:"cost"`
}

// Cards decodes a metadata document.
func Cards(payload json.RawMessage) ([]Card, error) {
	var cards []Card
	if err := json.Unmarshal(payload, &cards); err != nil {
		return nil, fmt.Errorf("failed to decode cards: %w", err)
	}
	return cards, nil
}
