package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/hsrx/internal/models"
	"github.com/desertthunder/hsrx/internal/shared"
)

// ErrAlreadyShared is returned by [ShareRepository.Create] for a repeated (shortid, network).
var ErrAlreadyShared = errors.New("replay already shared on network")

// ShareRepository implements [models.Repository] for [models.ShareEvent] persistence.
type ShareRepository struct {
	db *sql.DB
}

// NewShareRepository creates a new [ShareRepository] with the given database connection
func NewShareRepository(db *sql.DB) *ShareRepository {
	return &ShareRepository{db: db}
}

// Create inserts a share event with a generated ID.
func (r *ShareRepository) Create(event *models.ShareEvent) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if event.EventID == "" {
		event.EventID = shared.GenerateID()
	}
	if event.Created.IsZero() {
		event.Created = time.Now().UTC()
	}

	query := `
		INSERT INTO share_events (id, shortid, network, link_to_turn, created_at) VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query, event.EventID, event.ShortID, event.Network, event.LinkToTurn, event.Created)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s on %s", ErrAlreadyShared, event.ShortID, event.Network)
	}
	if err != nil {
		return fmt.Errorf("failed to insert share event: %w", err)
	}
	return nil
}

// RecordOnce stores the event and reports whether it is the first share of
// the replay on that network.
func (r *ShareRepository) RecordOnce(event *models.ShareEvent) (bool, error) {
	err := r.Create(event)
	if errors.Is(err, ErrAlreadyShared) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Get retrieves a share event by ID
func (r *ShareRepository) Get(id string) (*models.ShareEvent, error) {
	query := `
		SELECT id, shortid, network, link_to_turn, created_at
		FROM share_events
		WHERE id = ?
	`

	var e models.ShareEvent
	err := r.db.QueryRow(query, id).Scan(&e.EventID, &e.ShortID, &e.Network, &e.LinkToTurn, &e.Created)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("share event not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query share event: %w", err)
	}
	return &e, nil
}

// Delete removes a share event by ID
func (r *ShareRepository) Delete(id string) error {
	res, err := r.db.Exec("DELETE FROM share_events WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete share event: %w", err)
	}
	return rowsAffected(res, fmt.Errorf("share event not found: %s", id))
}

// List returns share events filtered by "shortid" and/or "network", oldest first.
func (r *ShareRepository) List(criteria map[string]any) ([]*models.ShareEvent, error) {
	clause, args, err := where(criteria, "shortid", "network")
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(`SELECT id, shortid, network, link_to_turn, created_at FROM share_events`+clause+` ORDER BY created_at, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list share events: %w", err)
	}
	defer rows.Close()

	var events []*models.ShareEvent
	for rows.Next() {
		var e models.ShareEvent
		if err := rows.Scan(&e.EventID, &e.ShortID, &e.Network, &e.LinkToTurn, &e.Created); err != nil {
			return nil, fmt.Errorf("failed to scan share event: %w", err)
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}
