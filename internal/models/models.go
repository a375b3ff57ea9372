// package models defines the data model for the replay feed client
package models

import (
	"fmt"
	"strings"
	"time"
)

// Model defines the base interface for all persistent models.
// Implementations include MetadataEntry and ShareEvent.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// LatestBuild is the sentinel build for the newest metadata snapshot. It is never cached.
const LatestBuild = "latest"

// MetadataKey is the cache key of the card metadata for build in locale.
func MetadataKey(build, locale string) string {
	return "hsjson_build-" + build + "_" + locale
}

// ParseMetadataKey splits a key produced by [MetadataKey].
func ParseMetadataKey(key string) (build, locale string, ok bool) {
	rest, found := strings.CutPrefix(key, "hsjson_build-")
	if !found {
		return "", "", false
	}
	i := strings.LastIndex(rest, "_")
	if i <= 0 || i == len(rest)-1 {
		return "", "", false
	}
	return rest[:i], rest[i+1:], true
}

// MetadataEntry is a persisted card metadata document.
type MetadataEntry struct {
	Key     string
	Build   int
	Locale  string
	Payload []byte
	Created time.Time
	Updated time.Time
}

func (m *MetadataEntry) ID() string           { return m.Key }
func (m *MetadataEntry) CreatedAt() time.Time { return m.Created }
func (m *MetadataEntry) UpdatedAt() time.Time { return m.Updated }

// Validate rejects entries for the latest sentinel and empty payloads.
func (m *MetadataEntry) Validate() error {
	if m.Key == "" {
		return fmt.Errorf("metadata entry key is required")
	}
	if strings.Contains(m.Key, "build-"+LatestBuild) {
		return fmt.Errorf("metadata for %q is never cached", LatestBuild)
	}
	if len(m.Payload) == 0 {
		return fmt.Errorf("metadata entry %s has no payload", m.Key)
	}
	return nil
}

// Share networks known to the share dialog.
const (
	NetworkCopy     = "copy"
	NetworkTwitter  = "twitter"
	NetworkReddit   = "reddit"
	NetworkFacebook = "facebook"
)

// ShareEvent records that a replay link was shared on a network.
//
// At most one event exists per (ShortID, Network).
type ShareEvent struct {
	EventID    string
	ShortID    string
	Network    string
	LinkToTurn bool
	Created    time.Time
}

func (s *ShareEvent) ID() string           { return s.EventID }
func (s *ShareEvent) CreatedAt() time.Time { return s.Created }
func (s *ShareEvent) UpdatedAt() time.Time { return s.Created }

func (s *ShareEvent) Validate() error {
	if s.ShortID == "" {
		return fmt.Errorf("share event needs a replay shortid")
	}
	if s.Network == "" {
		return fmt.Errorf("share event needs a network")
	}
	return nil
}
