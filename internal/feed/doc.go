// Package feed pages through a user's replays with client-side filters.
//
// The server paginates the unfiltered games collection; the [Controller] keeps
// every fetched server page, re-applies the active filters on each
// [Controller.VisiblePage] call and cuts fixed-size local pages out of the
// concatenated result. When the held pages cannot fill the current local page
// plus one look-ahead item, it follows the server's next cursor.
//
// The local page size starts at 1 and grows to the largest server page seen.
// A change of the server's total count between two fetches discards every
// held page and restarts from the first page.
package feed
