// Package repositories implements SQLite persistence for the locally stored entities.
//
// Key Implementations:
//   - [MetadataRepository] : card metadata documents keyed by build and locale
//   - [MetadataCacheAdapter] : exposes [MetadataRepository] as a metadata.Backend
//   - [ShareRepository] : share events, at most one per replay and network
//
// Tables are created by the embedded migrations in the shared package.
package repositories
