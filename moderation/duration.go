package moderation

import (
	"fmt"
	"regexp"
	"strconv"
)

// DefaultMuteMinutes is the fallback applied when a mute duration is absent
// or unparsable in lenient mode
const DefaultMuteMinutes = 60

var durationPattern = regexp.MustCompile(`(\d+)([mhd])`)

// ParseMinutes converts freeform duration text like "90m", "2h" or "3d" into
// minutes. Only the first matching token is honored. Absent or unparsable
// text yields def; this function never fails.
func ParseMinutes(text string, def int) int {
	minutes, err := parseMinutesStrict(text)
	if err != nil {
		return def
	}
	return minutes
}

// ParseMinutesStrict is the strict variant: unparsable non-empty text is an
// error instead of a silent default, so operator typos surface at request
// validation. Empty text still yields def (no duration requested).
func ParseMinutesStrict(text string, def int) (int, error) {
	if text == "" {
		return def, nil
	}
	return parseMinutesStrict(text)
}

func parseMinutesStrict(text string) (int, error) {
	m := durationPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, fmt.Errorf("unrecognized duration %q, expected <number><m|h|d>", text)
	}
	value, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("unrecognized duration %q: %v", text, err)
	}
	switch m[2] {
	case "m":
		return value, nil
	case "h":
		return value * 60, nil
	case "d":
		return value * 60 * 24, nil
	}
	return 0, fmt.Errorf("unrecognized duration unit in %q", text)
}
