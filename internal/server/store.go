package server

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/desertthunder/hsrx/internal/models"
	"github.com/desertthunder/hsrx/internal/shared"
)

// shortIDAlphabet avoids look-alike characters, like the site's shortids.
const shortIDAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// ShortIDLength is the length of generated shortids.
const ShortIDLength = 22

// NewShortID generates a random replay shortid.
func NewShortID() (string, error) {
	id, err := gonanoid.Generate(shortIDAlphabet, ShortIDLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate shortid: %w", err)
	}
	return id, nil
}

// GameStore holds fixture replays, newest first.
type GameStore struct {
	mu      sync.RWMutex
	replays []models.Replay
}

// NewGameStore creates an empty store.
func NewGameStore() *GameStore {
	return &GameStore{}
}

// Add stores replays, generating a shortid for any replay without one.
func (s *GameStore) Add(replays ...models.Replay) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range replays {
		if r.ShortID == "" {
			id, err := NewShortID()
			if err != nil {
				return err
			}
			r.ShortID = id
		}
		s.replays = append(s.replays, r)
	}
	sort.SliceStable(s.replays, func(i, j int) bool {
		return s.replays[i].GlobalGame.MatchStart.After(s.replays[j].GlobalGame.MatchStart)
	})
	return nil
}

// Len is the number of stored replays.
func (s *GameStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.replays)
}

// List returns the replays uploaded by username, or all when username is empty.
func (s *GameStore) List(username string) []models.Replay {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Replay, 0, len(s.replays))
	for _, r := range s.replays {
		if username == "" || r.User.Username == username {
			out = append(out, r)
		}
	}
	return out
}

// Get returns one replay.
func (s *GameStore) Get(shortID string) (models.Replay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.replays {
		if r.ShortID == shortID {
			return r, nil
		}
	}
	return models.Replay{}, shared.ErrReplayNotFound
}

// Delete removes one replay.
func (s *GameStore) Delete(shortID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.replays {
		if r.ShortID == shortID {
			s.replays = append(s.replays[:i], s.replays[i+1:]...)
			return nil
		}
	}
	return shared.ErrReplayNotFound
}

// SetVisibility updates one replay and returns it.
func (s *GameStore) SetVisibility(shortID string, v models.Visibility) (models.Replay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.replays {
		if s.replays[i].ShortID == shortID {
			s.replays[i].Visibility = v
			return s.replays[i], nil
		}
	}
	return models.Replay{}, shared.ErrReplayNotFound
}

var (
	seedNames = []string{"Rexxar", "Thrall", "Valeera", "Uther", "Garrosh", "Malfurion", "Gul'dan", "Jaina", "Anduin"}
	seedModes = []models.BnetGameType{
		models.GameTypeRankedStandard, models.GameTypeRankedWild, models.GameTypeArena,
		models.GameTypeCasualStandard, models.GameTypeTavernBrawlPvP, models.GameTypeFriends,
		models.GameTypeVsAI,
	}
)

// Seed generates n plausible replays uploaded by username. The same seed
// value produces the same games apart from shortids.
func Seed(n int, username string, seed uint64) ([]models.Replay, error) {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	start := time.Date(2017, 7, 1, 12, 0, 0, 0, time.UTC)
	out := make([]models.Replay, n)

	for i := range out {
		id, err := NewShortID()
		if err != nil {
			return nil, err
		}

		mode := seedModes[rng.IntN(len(seedModes))]
		format := models.FormatStandard
		if mode == models.GameTypeRankedWild {
			format = models.FormatWild
		}
		friendly, opposing := rng.IntN(9), rng.IntN(9)
		matchStart := start.Add(time.Duration(i) * 17 * time.Minute)
		turns := 6 + rng.IntN(20)

		out[i] = models.Replay{
			ShortID:          id,
			User:             models.User{ID: 1, Username: username},
			FriendlyPlayerID: 1,
			Build:            20022,
			Won:              rng.IntN(2) == 0,
			Visibility:       models.VisibilityPublic,
			GlobalGame: models.GlobalGame{
				Build:      20022,
				GameType:   mode,
				Format:     format,
				MatchStart: matchStart,
				MatchEnd:   matchStart.Add(time.Duration(turns) * 70 * time.Second),
				NumTurns:   turns,
				Players: []models.Player{
					{PlayerID: 1, Name: username, HeroID: fmt.Sprintf("HERO_%02d", friendly+1), IsFirst: i%2 == 0},
					{PlayerID: 2, Name: seedNames[opposing], HeroID: fmt.Sprintf("HERO_%02d", opposing+1), IsFirst: i%2 == 1},
				},
			},
		}
	}
	return out, nil
}
