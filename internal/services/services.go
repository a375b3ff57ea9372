package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/desertthunder/hsrx/internal/models"
	"github.com/desertthunder/hsrx/internal/shared"
)

// GamesPath is the games collection endpoint.
const GamesPath = "/api/v1/games/"

// PageFetcher fetches one page of the games collection.
type PageFetcher interface {
	FetchPage(ctx context.Context, pageURL string) (*models.FeedPage, error)
}

// VisibilityUpdater changes the visibility of a replay.
type VisibilityUpdater interface {
	SetVisibility(ctx context.Context, shortID string, v models.Visibility) error
}

// GamesService is the full games API surface used by the CLI and TUI.
type GamesService interface {
	PageFetcher
	VisibilityUpdater
	GetReplay(ctx context.Context, shortID string) (*models.Replay, error)
	DeleteReplay(ctx context.Context, shortID string) error
}

// APIError is a non-2xx response from the games API.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("games API error (status %d): %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("games API error: status %d", e.Status)
}

// Unwrap maps 404 to [shared.ErrReplayNotFound] and everything else to [shared.ErrAPIRequest].
func (e *APIError) Unwrap() error {
	if e.Status == http.StatusNotFound {
		return shared.ErrReplayNotFound
	}
	return shared.ErrAPIRequest
}

// newAPIError extracts the best-effort "detail" field from an error body.
func newAPIError(status int, body []byte) *APIError {
	var payload struct {
		Detail string `json:"detail"`
	}
	apiErr := &APIError{Status: status}
	if err := json.Unmarshal(body, &payload); err == nil {
		apiErr.Detail = payload.Detail
	}
	return apiErr
}

// FailureMessage renders a mutation failure for the user: summary, then the
// server's detail after a blank line when one was returned.
func FailureMessage(summary string, err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return summary + "\n\n" + apiErr.Detail
	}
	return summary
}
