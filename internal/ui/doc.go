// Package ui implements an interactive replay browser using bubbletea's Elm architecture.
//
// The (view) [Model] shows one local page of the feed at a time:
//   - [ ] and arrow keys page through local pages; the feed controller fetches server pages as needed
//   - m, f, r, c, x cycle the mode, format, result, class and opponent filters
//   - / edits the player-name search, 0 resets every filter
//   - enter opens the replay in the browser, s prints a share link
//   - v toggles public/unlisted with rollback on failure, d deletes after confirmation
//
// Fetches and mutations run as tea.Cmd goroutines and report back through the Msg union type.
// The feed controller rejects overlapping fetches, so a slow page never races a newer one.
package ui
