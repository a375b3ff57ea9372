package services

import (
	"context"
	"sync"

	"github.com/desertthunder/hsrx/internal/models"
	"github.com/desertthunder/hsrx/internal/shared"
)

// Failure summaries shown to the user before any server detail.
const (
	VisibilityFailure = "Could not change replay visibility."
	DeleteFailure     = "Could not delete replay."
)

// VisibilityOptions are the choices offered to the user. Private exists on the
// server but is not selectable from the client.
var VisibilityOptions = []models.Visibility{models.VisibilityPublic, models.VisibilityUnlisted}

// VisibilityControl tracks the selected visibility of one replay and keeps the
// last value the server accepted so a failed update can roll back.
type VisibilityControl struct {
	api     VisibilityUpdater
	shortID string

	mu       sync.Mutex
	selected models.Visibility
	previous models.Visibility
	working  bool
}

// NewVisibilityControl starts a control at the replay's current visibility.
func NewVisibilityControl(api VisibilityUpdater, shortID string, current models.Visibility) *VisibilityControl {
	return &VisibilityControl{api: api, shortID: shortID, selected: current, previous: current}
}

// Selected returns the currently displayed visibility.
func (c *VisibilityControl) Selected() models.Visibility {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// Working reports whether an update is in flight.
func (c *VisibilityControl) Working() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.working
}

// Select optimistically shows v and patches the server. On failure the
// selection reverts to the last accepted value. Changes made while an update
// is in flight are rejected with [shared.ErrMutationBusy].
func (c *VisibilityControl) Select(ctx context.Context, v models.Visibility) error {
	c.mu.Lock()
	if c.working {
		c.mu.Unlock()
		return shared.ErrMutationBusy
	}
	if v == c.selected {
		c.mu.Unlock()
		return nil
	}
	c.selected = v
	c.working = true
	c.mu.Unlock()

	err := c.api.SetVisibility(ctx, c.shortID, v)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.working = false
	if err != nil {
		c.selected = c.previous
		return err
	}
	c.previous = c.selected
	return nil
}
