package filters

import "strings"

// HeroClass is a Hearthstone class derived from a hero card id.
type HeroClass string

const (
	Unknown HeroClass = ""
	Warrior HeroClass = "warrior"
	Shaman  HeroClass = "shaman"
	Rogue   HeroClass = "rogue"
	Paladin HeroClass = "paladin"
	Hunter  HeroClass = "hunter"
	Druid   HeroClass = "druid"
	Warlock HeroClass = "warlock"
	Mage    HeroClass = "mage"
	Priest  HeroClass = "priest"
)

// heroTokens maps hero card id tokens to classes, checked in order.
// The numbering follows the game's card ids, not the alphabet.
var heroTokens = []struct {
	token string
	class HeroClass
}{
	{"HERO_01", Warrior},
	{"HERO_02", Shaman},
	{"HERO_03", Rogue},
	{"HERO_04", Paladin},
	{"HERO_05", Hunter},
	{"HERO_06", Druid},
	{"HERO_07", Warlock},
	{"HERO_08", Mage},
	{"HERO_09", Priest},
}

// ClassifyHero returns the class whose token heroID contains, or Unknown.
// Alternate heroes such as "HERO_05a" classify like their base hero.
func ClassifyHero(heroID string) HeroClass {
	for _, h := range heroTokens {
		if strings.Contains(heroID, h.token) {
			return h.class
		}
	}
	return Unknown
}

// ParseHeroClass resolves a requested class name, case-insensitively.
func ParseHeroClass(name string) HeroClass {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, h := range heroTokens {
		if string(h.class) == name {
			return h.class
		}
	}
	return Unknown
}

// Classes lists the nine classes in alphabetical order.
func Classes() []HeroClass {
	return []HeroClass{Druid, Hunter, Mage, Paladin, Priest, Rogue, Shaman, Warlock, Warrior}
}

func (c HeroClass) String() string {
	if c == Unknown {
		return "unknown"
	}
	return string(c)
}

// Title is the display name of the class.
func (c HeroClass) Title() string {
	if c == Unknown {
		return "Unknown"
	}
	return strings.ToUpper(string(c[:1])) + string(c[1:])
}
