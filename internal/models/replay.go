package models

import (
	"time"
)

// User is the uploader of a replay.
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

// Player is one side of a [GlobalGame].
type Player struct {
	Name        string    `json:"name"`
	PlayerID    int       `json:"player_id"`
	AccountHi   int64     `json:"account_hi,omitempty"`
	AccountLo   int64     `json:"account_lo,omitempty"`
	IsAI        bool      `json:"is_ai"`
	IsFirst     bool      `json:"is_first"`
	HeroID      string    `json:"hero_id"`
	HeroPremium bool      `json:"hero_premium"`
	FinalState  PlayState `json:"final_state"`
	Wins        int       `json:"wins"`
	Losses      int       `json:"losses"`
	Rank        int       `json:"rank"`
	LegendRank  int       `json:"legend_rank"`
}

// GlobalGame is the match a replay was recorded from, shared by both uploaders.
type GlobalGame struct {
	Build        int          `json:"build"`
	MatchStart   time.Time    `json:"match_start"`
	MatchEnd     time.Time    `json:"match_end"`
	GameType     BnetGameType `json:"game_type"`
	Format       FormatType   `json:"format"`
	LadderSeason int          `json:"ladder_season"`
	ScenarioID   int          `json:"scenario_id"`
	NumTurns     int          `json:"num_turns"`
	Players      []Player     `json:"players"`
}

// Duration is the wall-clock length of the match, zero when unknown.
func (g GlobalGame) Duration() time.Duration {
	if g.MatchStart.IsZero() || g.MatchEnd.Before(g.MatchStart) {
		return 0
	}
	return g.MatchEnd.Sub(g.MatchStart)
}

// Replay is one uploaded game as returned by the games endpoint. It is never
// mutated after decoding except for its visibility.
type Replay struct {
	ShortID          string     `json:"shortid"`
	User             User       `json:"user"`
	GlobalGame       GlobalGame `json:"global_game"`
	SpectatorMode    bool       `json:"spectator_mode"`
	FriendlyPlayerID int        `json:"friendly_player_id"`
	Build            int        `json:"build"`
	Won              bool       `json:"won"`
	Disconnected     bool       `json:"disconnected"`
	Reconnecting     bool       `json:"reconnecting"`
	Visibility       Visibility `json:"visibility"`
}

// FriendlyPlayer returns the uploader's side of the match.
func (r Replay) FriendlyPlayer() (Player, bool) {
	for _, p := range r.GlobalGame.Players {
		if p.PlayerID == r.FriendlyPlayerID {
			return p, true
		}
	}
	return Player{}, false
}

// OpposingPlayer returns the first player that is not the uploader.
func (r Replay) OpposingPlayer() (Player, bool) {
	for _, p := range r.GlobalGame.Players {
		if p.PlayerID != r.FriendlyPlayerID {
			return p, true
		}
	}
	return Player{}, false
}

// FeedPage is one server page of the games collection.
//
// Count is the server-side total before any client filtering. Next and
// Previous are opaque URLs, empty when exhausted.
type FeedPage struct {
	Count    int      `json:"count"`
	Next     string   `json:"next"`
	Previous string   `json:"previous"`
	Results  []Replay `json:"results"`
}
