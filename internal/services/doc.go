// Package services implements the HTTP client for the replay site's games API.
//
// # Games API
//
// [GamesAPI] covers the three endpoints the client needs:
//   - GET /api/v1/games/?username=<u> returns a [models.FeedPage]
//   - DELETE /api/v1/games/<shortid>/ removes a replay
//   - PATCH /api/v1/games/<shortid>/ with {"visibility": n} changes its visibility
//
// The username is always attached as a query parameter, including on the
// server-provided next cursors. Authentication uses an oauth2 static token
// source with token type "Token" so requests carry "Authorization: Token <key>".
//
// # Mutations
//
// [VisibilityControl] shows the new value immediately and rolls back to the
// last accepted one when the PATCH fails. While an update is in flight further
// changes are rejected.
//
// # Error Handling
//
// Non-2xx responses become [*APIError], which carries the "detail" string from
// the response body when the body is JSON. It unwraps to:
//   - [shared.ErrReplayNotFound] : status 404
//   - [shared.ErrAPIRequest] : any other failure status
//
// [FailureMessage] renders the user-facing text: a summary line, then the
// detail after a blank line.
package services
