package models

import (
	"fmt"
	"strconv"
	"strings"
)

// BnetGameType is the Battle.net game type of a match.
type BnetGameType int

const (
	GameTypeUnknown              BnetGameType = 0
	GameTypeFriends              BnetGameType = 1
	GameTypeRankedStandard       BnetGameType = 2
	GameTypeArena                BnetGameType = 3
	GameTypeVsAI                 BnetGameType = 4
	GameTypeTutorial             BnetGameType = 5
	GameTypeAsync                BnetGameType = 6
	GameTypeCasualStandardNewbie BnetGameType = 9
	GameTypeCasualStandard       BnetGameType = 10
	GameTypeTest1                BnetGameType = 11
	GameTypeTest2                BnetGameType = 12
	GameTypeTest3                BnetGameType = 13
	GameTypeTavernBrawlPvP       BnetGameType = 16
	GameTypeTavernBrawl1PVsAI    BnetGameType = 17
	GameTypeTavernBrawl2PCoop    BnetGameType = 18
	GameTypeRankedWild           BnetGameType = 30
	GameTypeCasualWild           BnetGameType = 31
	GameTypeFSGBrawlVsFriend     BnetGameType = 40
)

var gameTypeNames = map[BnetGameType]string{
	GameTypeUnknown:              "BGT_UNKNOWN",
	GameTypeFriends:              "BGT_FRIENDS",
	GameTypeRankedStandard:       "BGT_RANKED_STANDARD",
	GameTypeArena:                "BGT_ARENA",
	GameTypeVsAI:                 "BGT_VS_AI",
	GameTypeTutorial:             "BGT_TUTORIAL",
	GameTypeAsync:                "BGT_ASYNC",
	GameTypeCasualStandardNewbie: "BGT_CASUAL_STANDARD_NEWBIE",
	GameTypeCasualStandard:       "BGT_CASUAL_STANDARD",
	GameTypeTest1:                "BGT_TEST1",
	GameTypeTest2:                "BGT_TEST2",
	GameTypeTest3:                "BGT_TEST3",
	GameTypeTavernBrawlPvP:       "BGT_TAVERNBRAWL_PVP",
	GameTypeTavernBrawl1PVsAI:    "BGT_TAVERNBRAWL_1P_VERSUS_AI",
	GameTypeTavernBrawl2PCoop:    "BGT_TAVERNBRAWL_2P_COOP",
	GameTypeRankedWild:           "BGT_RANKED_WILD",
	GameTypeCasualWild:           "BGT_CASUAL_WILD",
	GameTypeFSGBrawlVsFriend:     "BGT_FSG_BRAWL_VS_FRIEND",
}

func (t BnetGameType) String() string {
	if name, ok := gameTypeNames[t]; ok {
		return name
	}
	return "BGT_" + strconv.Itoa(int(t))
}

// Label is the short human name of the game type, as shown in listings.
func (t BnetGameType) Label() string {
	switch t {
	case GameTypeArena:
		return "Arena"
	case GameTypeRankedStandard, GameTypeRankedWild:
		return "Ranked"
	case GameTypeCasualStandard, GameTypeCasualStandardNewbie, GameTypeCasualWild:
		return "Casual"
	case GameTypeTavernBrawlPvP, GameTypeTavernBrawl1PVsAI, GameTypeTavernBrawl2PCoop, GameTypeFSGBrawlVsFriend:
		return "Brawl"
	case GameTypeFriends:
		return "Friendly"
	case GameTypeVsAI:
		return "Adventure"
	case GameTypeTutorial:
		return "Tutorial"
	default:
		return "Unknown"
	}
}

// FormatType is the card pool format of a match.
type FormatType int

const (
	FormatUnknown  FormatType = 0
	FormatWild     FormatType = 1
	FormatStandard FormatType = 2
)

func (f FormatType) String() string {
	switch f {
	case FormatWild:
		return "FT_WILD"
	case FormatStandard:
		return "FT_STANDARD"
	default:
		return "FT_UNKNOWN"
	}
}

// PlayState is a player's final state at the end of a match.
type PlayState int

const (
	PlayStateInvalid      PlayState = 0
	PlayStatePlaying      PlayState = 1
	PlayStateWinning      PlayState = 2
	PlayStateLosing       PlayState = 3
	PlayStateWon          PlayState = 4
	PlayStateLost         PlayState = 5
	PlayStateTied         PlayState = 6
	PlayStateDisconnected PlayState = 7
	PlayStateConceded     PlayState = 8
)

var playStateNames = [...]string{"INVALID", "PLAYING", "WINNING", "LOSING", "WON", "LOST", "TIED", "DISCONNECTED", "CONCEDED"}

func (s PlayState) String() string {
	if s >= 0 && int(s) < len(playStateNames) {
		return playStateNames[s]
	}
	return "INVALID"
}

// Visibility controls who can see a replay.
type Visibility int

const (
	VisibilityPublic   Visibility = 1
	VisibilityUnlisted Visibility = 2
	VisibilityPrivate  Visibility = 3
)

func (v Visibility) String() string {
	switch v {
	case VisibilityPublic:
		return "public"
	case VisibilityUnlisted:
		return "unlisted"
	case VisibilityPrivate:
		return "private"
	default:
		return fmt.Sprintf("visibility(%d)", int(v))
	}
}

// Valid reports whether v is one of the known visibilities.
func (v Visibility) Valid() bool {
	return v >= VisibilityPublic && v <= VisibilityPrivate
}

// ParseVisibility accepts a visibility name or its numeric value.
func ParseVisibility(s string) (Visibility, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "public", "1":
		return VisibilityPublic, nil
	case "unlisted", "2":
		return VisibilityUnlisted, nil
	case "private", "3":
		return VisibilityPrivate, nil
	}
	return 0, fmt.Errorf("unknown visibility %q", s)
}
