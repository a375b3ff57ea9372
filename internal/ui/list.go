package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/hsrx/internal/filters"
	"github.com/desertthunder/hsrx/internal/formatter"
	"github.com/desertthunder/hsrx/internal/models"
)

var (
	_ list.Item = replayItem{}
)

// replayItem wraps [models.Replay] to implement [list.Item].
type replayItem struct {
	replay models.Replay
}

func (i replayItem) FilterValue() string { return i.replay.ShortID }

// Title reads "Mage vs Warrior".
func (i replayItem) Title() string {
	you, them := filters.Unknown, filters.Unknown
	if p, ok := i.replay.FriendlyPlayer(); ok {
		you = filters.ClassifyHero(p.HeroID)
	}
	if p, ok := i.replay.OpposingPlayer(); ok {
		them = filters.ClassifyHero(p.HeroID)
	}
	return fmt.Sprintf("%s vs %s", you.Title(), them.Title())
}

func (i replayItem) Description() string {
	row := formatter.NewRow(i.replay, "")
	parts := []string{strings.TrimSpace(row.Mode + " " + row.Format), row.Result}
	if row.Opponent != "" {
		parts = append(parts, "vs "+row.Opponent)
	}
	parts = append(parts, fmt.Sprintf("%d turns", row.Turns))
	if row.Date != "" {
		parts = append(parts, row.Date)
	}
	if i.replay.Visibility != models.VisibilityPublic {
		parts = append(parts, i.replay.Visibility.String())
	}
	return strings.Join(parts, " • ")
}

func replayItems(replays []models.Replay) []list.Item {
	items := make([]list.Item, len(replays))
	for i, r := range replays {
		items[i] = replayItem{replay: r}
	}
	return items
}
