package repositories

import (
	"context"
)

// MetadataCacheAdapter implements metadata.Backend using [MetadataRepository].
type MetadataCacheAdapter struct {
	repo *MetadataRepository
}

// NewMetadataCacheAdapter creates a new MetadataCacheAdapter with the given repository
func NewMetadataCacheAdapter(repo *MetadataRepository) *MetadataCacheAdapter {
	return &MetadataCacheAdapter{repo: repo}
}

func (a *MetadataCacheAdapter) Has(_ context.Context, key string) (bool, error) {
	return a.repo.Exists(key)
}

func (a *MetadataCacheAdapter) Get(_ context.Context, key string) ([]byte, error) {
	entry, err := a.repo.Get(key)
	if err != nil {
		return nil, err
	}
	return entry.Payload, nil
}

// Set persists payload under key. Keys for the latest sentinel are rejected
// by validation.
func (a *MetadataCacheAdapter) Set(_ context.Context, key string, payload []byte) error {
	entry, err := newMetadataEntry(key, payload)
	if err != nil {
		return err
	}
	return a.repo.Create(entry)
}
