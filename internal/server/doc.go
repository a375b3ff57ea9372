// Package server provides HTTP routing, middleware and a fixture of the replay
// site's games API for offline development.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] is applied so the first one added is the outermost wrapper.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns.
//
// # Games Fixture
//
// [GamesHandler] implements the endpoints the client uses:
//   - GET /api/v1/games/?username=<u>&page=<n> with {count, next, previous, results}
//   - GET, DELETE and PATCH /api/v1/games/<shortid>/
//
// Errors use the {"detail": "..."} body the real API returns. Mutations
// require "Authorization: Token <key>" when a token is configured.
//
// [Seed] generates deterministic games with nanoid shortids, and [GameStore]
// keeps them in memory, newest first.
//
// # Middleware
//
//   - [RequestID] : X-Request-ID on every response
//   - [Logging] : one log line per request
//   - [CORS] : rs/cors for browser clients
package server
