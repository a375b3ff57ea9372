// Package filters holds the client-side predicates of the replay feed.
//
// Every predicate passes a replay when the requested value is unrecognized.
package filters

import (
	"strings"

	"github.com/desertthunder/hsrx/internal/models"
	"github.com/desertthunder/hsrx/internal/query"
)

// Filter names accepted in a [query.Query].
const (
	Name     = "name"
	Mode     = "mode"
	Format   = "format"
	Result   = "result"
	Hero     = "hero"
	Opponent = "opponent"
)

// NameMatches reports whether any player's lower-cased name contains needle,
// or needle is exactly a player's lower-cased name wrapped in double quotes.
func NameMatches(r models.Replay, needle string) bool {
	for _, p := range r.GlobalGame.Players {
		name := strings.ToLower(p.Name)
		if strings.Contains(name, needle) || needle == `"`+name+`"` {
			return true
		}
	}
	return false
}

// ModeMatches maps a mode to the game types it covers.
func ModeMatches(r models.Replay, mode string) bool {
	gt := r.GlobalGame.GameType
	switch mode {
	case "arena":
		return gt == models.GameTypeArena
	case "ranked":
		return gt == models.GameTypeRankedStandard || gt == models.GameTypeRankedWild
	case "casual":
		return gt == models.GameTypeCasualStandard || gt == models.GameTypeCasualWild
	case "brawl":
		return gt == models.GameTypeTavernBrawlPvP ||
			gt == models.GameTypeTavernBrawl1PVsAI ||
			gt == models.GameTypeTavernBrawl2PCoop
	case "friendly":
		return gt == models.GameTypeFriends
	case "adventure":
		return gt == models.GameTypeVsAI
	default:
		return true
	}
}

// FormatMatches only constrains ranked, casual or unfiltered modes; any other
// mode has no format.
func FormatMatches(r models.Replay, format, mode string) bool {
	if mode != "" && mode != "ranked" && mode != "casual" {
		return true
	}
	switch format {
	case "standard":
		return r.GlobalGame.Format == models.FormatStandard
	case "wild":
		return r.GlobalGame.Format == models.FormatWild
	default:
		return true
	}
}

// ResultMatches checks won/lost against the uploader's result.
func ResultMatches(r models.Replay, result string) bool {
	switch result {
	case "won":
		return r.Won
	case "lost":
		return !r.Won
	default:
		return true
	}
}

// HeroMatches checks the class of the uploader's hero.
func HeroMatches(r models.Replay, hero string) bool {
	p, ok := r.FriendlyPlayer()
	return classMatches(p, ok, hero)
}

// OpponentMatches checks the class of the opposing hero.
func OpponentMatches(r models.Replay, hero string) bool {
	p, ok := r.OpposingPlayer()
	return classMatches(p, ok, hero)
}

// classMatches passes any replay for an unknown requested class and fails a
// player whose hero cannot be classified.
func classMatches(p models.Player, found bool, hero string) bool {
	want := ParseHeroClass(hero)
	if want == Unknown {
		return true
	}
	if !found {
		return false
	}
	return ClassifyHero(p.HeroID) == want
}

// Matches applies every active filter of q to r.
func Matches(r models.Replay, q *query.Query) bool {
	mode := q.Get(Mode)

	if name := q.Get(Name); name != "" && !NameMatches(r, strings.ToLower(name)) {
		return false
	}
	if mode != "" && !ModeMatches(r, mode) {
		return false
	}
	if format := q.Get(Format); format != "" && !FormatMatches(r, format, mode) {
		return false
	}
	if result := q.Get(Result); result != "" && !ResultMatches(r, result) {
		return false
	}
	if hero := q.Get(Hero); hero != "" && !HeroMatches(r, hero) {
		return false
	}
	if opponent := q.Get(Opponent); opponent != "" && !OpponentMatches(r, opponent) {
		return false
	}
	return true
}

// Apply returns the replays that match q, preserving order.
func Apply(replays []models.Replay, q *query.Query) []models.Replay {
	if q == nil || q.Len() == 0 {
		return replays
	}
	out := make([]models.Replay, 0, len(replays))
	for _, r := range replays {
		if Matches(r, q) {
			out = append(out, r)
		}
	}
	return out
}

// IsKnown reports whether name is a filter the feed understands.
func IsKnown(name string) bool {
	for _, d := range Definitions() {
		if d.Name == name {
			return true
		}
	}
	return name == Name
}

// Option is one selectable value of a filter.
type Option struct {
	Value string
	Label string
}

// Definition describes a select-style filter for the UI.
type Definition struct {
	Name    string
	Default string
	Options []Option
}

// Definitions returns the select filters in display order. Name is free text
// and not included.
func Definitions() []Definition {
	classes := make([]Option, 0, 9)
	for _, c := range Classes() {
		classes = append(classes, Option{Value: string(c), Label: c.Title()})
	}

	return []Definition{
		{
			Name:    Mode,
			Default: "All Modes",
			Options: []Option{
				{"arena", "Arena"}, {"ranked", "Ranked"}, {"casual", "Casual"},
				{"brawl", "Tavern Brawl"}, {"friendly", "Friendly"}, {"adventure", "Adventure"},
			},
		},
		{Name: Format, Default: "All Formats", Options: []Option{{"standard", "Standard"}, {"wild", "Wild"}}},
		{Name: Result, Default: "All Results", Options: []Option{{"won", "Won"}, {"lost", "Lost"}}},
		{Name: Hero, Default: "All Heroes", Options: classes},
		{Name: Opponent, Default: "All Opponents", Options: classes},
	}
}

// Cycle returns the option after current in d, wrapping to "" (the default)
// after the last one.
func (d Definition) Cycle(current string) string {
	for i, o := range d.Options {
		if o.Value == current {
			if i+1 < len(d.Options) {
				return d.Options[i+1].Value
			}
			return ""
		}
	}
	if len(d.Options) == 0 {
		return ""
	}
	return d.Options[0].Value
}

// Label returns the display label of value, or the default label.
func (d Definition) Label(value string) string {
	for _, o := range d.Options {
		if o.Value == value {
			return o.Label
		}
	}
	return d.Default
}
