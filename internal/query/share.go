package query

import (
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// ShareOptions describes the replay state to embed in a share link.
//
// Turn counts half-turns from 1. Reveal and Swap are only emitted when
// PreservePerspective is set, and only when they are known (non-nil).
type ShareOptions struct {
	Turn                int
	LinkToTurn          bool
	PreservePerspective bool
	Reveal              *bool
	Swap                *bool
}

// BuildShareURL appends the share fragment to a replay URL.
//
// Turn t is written as ceil(t/2) followed by "a" for the first player's half
// and "b" for the second, e.g. 3 -> "2a".
func BuildShareURL(replayURL string, opts ShareOptions) string {
	var parts []string
	if opts.Turn > 0 && opts.LinkToTurn {
		parts = append(parts, "turn="+EncodeTurn(opts.Turn))
	}
	if opts.PreservePerspective {
		if opts.Reveal != nil {
			parts = append(parts, "reveal="+boolDigit(*opts.Reveal))
		}
		if opts.Swap != nil {
			parts = append(parts, "swap="+boolDigit(*opts.Swap))
		}
	}
	if len(parts) == 0 {
		return replayURL
	}
	return replayURL + "#" + strings.Join(parts, "&")
}

// EncodeTurn converts a half-turn counter into its "<n><a|b>" form.
func EncodeTurn(turn int) string {
	half := "b"
	if turn%2 == 1 {
		half = "a"
	}
	return strconv.Itoa(int(math.Ceil(float64(turn)/2))) + half
}

var (
	turnPattern   = regexp.MustCompile(`turn=(\d+)(a|b)`)
	revealPattern = regexp.MustCompile(`reveal=(0|1)`)
	swapPattern   = regexp.MustCompile(`swap=(0|1)`)
)

// ShareState is the replay state decoded from a share fragment.
type ShareState struct {
	Turn   int
	Reveal *bool
	Swap   *bool
}

// ParseShareFragment decodes "turn=<n><a|b>", "reveal=<0|1>" and
// "swap=<0|1>" from a fragment. Absent or malformed parts are left zero.
func ParseShareFragment(fragment string) ShareState {
	var state ShareState
	if m := turnPattern.FindStringSubmatch(fragment); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			state.Turn = n*2 - 1
			if m[2] == "b" {
				state.Turn++
			}
		}
	}
	if m := revealPattern.FindStringSubmatch(fragment); m != nil {
		v := m[1] == "1"
		state.Reveal = &v
	}
	if m := swapPattern.FindStringSubmatch(fragment); m != nil {
		v := m[1] == "1"
		state.Swap = &v
	}
	return state
}

// ShareLinks returns the submission URL of each external network for link.
func ShareLinks(link string) map[string]string {
	escaped := url.QueryEscape(link)
	return map[string]string{
		"reddit":   "https://www.reddit.com/submit?url=" + escaped,
		"twitter":  "https://twitter.com/intent/tweet?url=" + escaped,
		"facebook": "https://www.facebook.com/sharer/sharer.php?u=" + escaped,
	}
}

func boolDigit(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
