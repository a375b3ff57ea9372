package filters

import (
	"testing"

	"github.com/desertthunder/hsrx/internal/models"
	"github.com/desertthunder/hsrx/internal/query"
)

func replay(gt models.BnetGameType, ft models.FormatType, won bool, friendlyHero, opposingHero string) models.Replay {
	return models.Replay{
		ShortID:          "r",
		Won:              won,
		FriendlyPlayerID: 1,
		GlobalGame: models.GlobalGame{
			GameType: gt,
			Format:   ft,
			Players: []models.Player{
				{PlayerID: 1, Name: "Rdu", HeroID: friendlyHero},
				{PlayerID: 2, Name: "Kolento", HeroID: opposingHero},
			},
		},
	}
}

func TestNameMatches(t *testing.T) {
	r := replay(models.GameTypeRankedStandard, models.FormatStandard, true, "HERO_01", "HERO_02")

	tc := []struct {
		needle string
		want   bool
	}{
		{"rdu", true},
		{"kol", true},
		{"ent", true},
		{`"rdu"`, true},
		{`"rd"`, false},
		{"trump", false},
	}
	for _, tt := range tc {
		if got := NameMatches(r, tt.needle); got != tt.want {
			t.Errorf("NameMatches(%q) = %v, want %v", tt.needle, got, tt.want)
		}
	}
}

func TestModeMatches(t *testing.T) {
	wild := replay(models.GameTypeRankedWild, models.FormatWild, true, "", "")

	tc := []struct {
		name string
		r    models.Replay
		mode string
		want bool
	}{
		{"ranked wild is ranked", wild, "ranked", true},
		{"ranked wild is not casual", wild, "casual", false},
		{"unknown mode passes", wild, "unknown_mode", true},
		{"arena", replay(models.GameTypeArena, 0, true, "", ""), "arena", true},
		{"casual wild", replay(models.GameTypeCasualWild, 0, true, "", ""), "casual", true},
		{"brawl coop", replay(models.GameTypeTavernBrawl2PCoop, 0, true, "", ""), "brawl", true},
		{"brawl vs ai", replay(models.GameTypeTavernBrawl1PVsAI, 0, true, "", ""), "brawl", true},
		{"friendly", replay(models.GameTypeFriends, 0, true, "", ""), "friendly", true},
		{"adventure", replay(models.GameTypeVsAI, 0, true, "", ""), "adventure", true},
		{"adventure is not arena", replay(models.GameTypeVsAI, 0, true, "", ""), "arena", false},
	}
	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := ModeMatches(tt.r, tt.mode); got != tt.want {
				t.Errorf("ModeMatches(%s) = %v, want %v", tt.mode, got, tt.want)
			}
		})
	}
}

func TestFormatMatches(t *testing.T) {
	wild := replay(models.GameTypeTavernBrawlPvP, models.FormatWild, true, "", "")

	tc := []struct {
		name   string
		format string
		mode   string
		want   bool
	}{
		{"vacuous outside ranked and casual", "standard", "brawl", true},
		{"no mode", "standard", "", false},
		{"ranked wild", "wild", "ranked", true},
		{"casual standard", "standard", "casual", false},
		{"unknown format", "classic", "", true},
	}
	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatMatches(wild, tt.format, tt.mode); got != tt.want {
				t.Errorf("FormatMatches(%s, %s) = %v, want %v", tt.format, tt.mode, got, tt.want)
			}
		})
	}
}

func TestResultMatches(t *testing.T) {
	won := replay(models.GameTypeArena, 0, true, "", "")
	lost := replay(models.GameTypeArena, 0, false, "", "")

	if !ResultMatches(won, "won") || ResultMatches(lost, "won") {
		t.Error("won filter mismatch")
	}
	if !ResultMatches(lost, "lost") || ResultMatches(won, "lost") {
		t.Error("lost filter mismatch")
	}
	if !ResultMatches(lost, "tied") {
		t.Error("unknown result should pass")
	}
}

func TestHeroMatches(t *testing.T) {
	r := replay(models.GameTypeArena, 0, true, "HERO_05a", "HERO_08")

	tc := []struct {
		name string
		fn   func(models.Replay, string) bool
		hero string
		want bool
	}{
		{"alternate hunter is hunter", HeroMatches, "hunter", true},
		{"hunter is not mage", HeroMatches, "mage", false},
		{"opponent mage", OpponentMatches, "mage", true},
		{"opponent is not hunter", OpponentMatches, "hunter", false},
		{"unknown requested class passes", HeroMatches, "demonhunter", true},
		{"requested class is case-insensitive", HeroMatches, "Hunter", true},
	}
	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(r, tt.hero); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("unclassifiable player hero fails", func(t *testing.T) {
		odd := replay(models.GameTypeArena, 0, true, "BRM_027h", "HERO_08")
		if HeroMatches(odd, "mage") {
			t.Error("an unknown hero id should not match a class filter")
		}
	})
}

func TestClassifyHero(t *testing.T) {
	want := []HeroClass{Warrior, Shaman, Rogue, Paladin, Hunter, Druid, Warlock, Mage, Priest}
	for i, class := range want {
		id := "HERO_0" + string(rune('1'+i))
		if got := ClassifyHero(id); got != class {
			t.Errorf("ClassifyHero(%s) = %s, want %s", id, got, class)
		}
	}
	if ClassifyHero("KAR_A02_01") != Unknown {
		t.Error("expected Unknown for a non-hero card id")
	}
}

func TestApply(t *testing.T) {
	games := []models.Replay{
		replay(models.GameTypeRankedStandard, models.FormatStandard, true, "HERO_08", "HERO_01"),
		replay(models.GameTypeRankedWild, models.FormatWild, false, "HERO_08", "HERO_09"),
		replay(models.GameTypeArena, 0, true, "HERO_03", "HERO_01"),
	}
	games[0].ShortID, games[1].ShortID, games[2].ShortID = "a", "b", "c"

	tc := []struct {
		name     string
		fragment string
		want     []string
	}{
		{"no filters", "", []string{"a", "b", "c"}},
		{"ranked", "mode=ranked", []string{"a", "b"}},
		{"ranked wild", "mode=ranked&format=wild", []string{"b"}},
		{"format without mode", "format=standard", []string{"a"}},
		{"won mage", "result=won&hero=mage", []string{"a"}},
		{"opponent warrior", "opponent=warrior", []string{"a", "c"}},
		{"name is lower-cased", "name=KOL", []string{"a", "b", "c"}},
		{"unknown values pass", "mode=duels&hero=necromancer", []string{"a", "b", "c"}},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(games, query.Parse(tt.fragment))
			if len(got) != len(tt.want) {
				t.Fatalf("Apply(%q) returned %d replays, want %d", tt.fragment, len(got), len(tt.want))
			}
			for i, id := range tt.want {
				if got[i].ShortID != id {
					t.Errorf("Apply(%q)[%d] = %s, want %s", tt.fragment, i, got[i].ShortID, id)
				}
			}
		})
	}
}

func TestDefinitions(t *testing.T) {
	defs := Definitions()
	if len(defs) != 5 {
		t.Fatalf("expected 5 select filters, got %d", len(defs))
	}

	mode := defs[0]
	if got := mode.Cycle(""); got != "arena" {
		t.Errorf("Cycle(\"\") = %s, want arena", got)
	}
	if got := mode.Cycle("adventure"); got != "" {
		t.Errorf("Cycle(last) = %q, want empty", got)
	}
	if got := mode.Label("brawl"); got != "Tavern Brawl" {
		t.Errorf("Label(brawl) = %s", got)
	}
	if got := defs[3].Label(""); got != "All Heroes" {
		t.Errorf("Label(\"\") = %s", got)
	}

	for _, name := range []string{Name, Mode, Format, Result, Hero, Opponent} {
		if !IsKnown(name) {
			t.Errorf("IsKnown(%s) = false", name)
		}
	}
	if IsKnown("deck") {
		t.Error("IsKnown(deck) = true")
	}
}
