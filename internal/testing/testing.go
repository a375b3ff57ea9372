// package testing contains shared testing utilities
package testing

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/hsrx/internal/models"
)

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

// DiscardLogger returns a logger that writes nowhere.
func DiscardLogger() *log.Logger {
	return log.New(io.Discard)
}

// ReplayOpts customizes a replay built by [NewReplay].
type ReplayOpts struct {
	GameType     models.BnetGameType
	Format       models.FormatType
	Won          bool
	FriendlyName string
	FriendlyHero string
	OpposingName string
	OpposingHero string
}

// NewReplay builds a two-player replay with sensible defaults.
func NewReplay(shortID string, opts ReplayOpts) models.Replay {
	if opts.GameType == 0 {
		opts.GameType = models.GameTypeRankedStandard
	}
	if opts.Format == 0 {
		opts.Format = models.FormatStandard
	}
	if opts.FriendlyName == "" {
		opts.FriendlyName = "Uploader"
	}
	if opts.FriendlyHero == "" {
		opts.FriendlyHero = "HERO_08"
	}
	if opts.OpposingName == "" {
		opts.OpposingName = "Opponent"
	}
	if opts.OpposingHero == "" {
		opts.OpposingHero = "HERO_01"
	}

	start := time.Date(2017, 7, 3, 19, 0, 0, 0, time.UTC)
	return models.Replay{
		ShortID:          shortID,
		User:             models.User{ID: 1, Username: opts.FriendlyName},
		FriendlyPlayerID: 1,
		Build:            20022,
		Won:              opts.Won,
		Visibility:       models.VisibilityPublic,
		GlobalGame: models.GlobalGame{
			Build:      20022,
			GameType:   opts.GameType,
			Format:     opts.Format,
			MatchStart: start,
			MatchEnd:   start.Add(10 * time.Minute),
			NumTurns:   14,
			Players: []models.Player{
				{PlayerID: 1, Name: opts.FriendlyName, HeroID: opts.FriendlyHero, IsFirst: true},
				{PlayerID: 2, Name: opts.OpposingName, HeroID: opts.OpposingHero},
			},
		},
	}
}

// NewReplays builds n replays with shortids prefix0..prefixN-1.
func NewReplays(prefix string, n int, opts ReplayOpts) []models.Replay {
	out := make([]models.Replay, n)
	for i := range out {
		out[i] = NewReplay(fmt.Sprintf("%s%d", prefix, i), opts)
	}
	return out
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
