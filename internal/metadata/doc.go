// Package metadata serves build-specific card metadata documents.
//
// # Fallback Chain
//
// [Manager.Get] resolves a build number to a JSON array of card definitions:
//
//  1. A numeric build is looked up in the [Backend] under
//     "hsjson_build-<build>_<locale>". A hit is served without a network call.
//  2. On a miss the document is fetched through the URL template and
//     persisted on success.
//  3. When the build fetch fails, the manager falls back to the "latest"
//     document in the current locale, then in the default locale.
//  4. When the default-locale "latest" fetch fails the chain gives up and
//     the callback is never invoked.
//
// The "latest" document is never persisted. A cancelled context aborts the
// chain without falling back.
//
// # Flags
//
// Each callback receives [Flags] describing how the document was obtained
// (cached, fetched, fallback). They are attached as tags to telemetry.
//
// # Backends
//
//   - [MemoryBackend] : process-local map, used by tests and as a no-config default
//   - [RedisBackend] : shared cache over go-redis with namespaced keys
//   - repositories.MetadataRepository : sqlite table, the durable default
package metadata
