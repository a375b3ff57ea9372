// Package models defines the records exchanged with the replay site and the
// entities persisted locally.
//
// Wire records decode the games endpoint:
//   - [Replay] : an uploaded game with its uploader, build and visibility
//   - [GlobalGame] : the match shared by both uploaders, with its [Player] list
//   - [FeedPage] : one server page with count and next/previous cursors
//
// [BnetGameType], [FormatType] and [PlayState] carry the Hearthstone numeric
// values. [Visibility] is the public/unlisted/private setting of a replay.
//
// Persistent entities implement [Model]:
//   - [MetadataEntry] : a card metadata document keyed by [MetadataKey]
//   - [ShareEvent] : one share of a replay link on a network
package models
