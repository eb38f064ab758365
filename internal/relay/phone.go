package relay

import (
	"regexp"
	"strings"
)

var phoneDigitsRe = regexp.MustCompile(`[0-9]+`)

// NormalizeNumber reduces an arbitrary channel identifier such as
// "whatsapp:+1 (415) 555-2671" to the +-prefixed digit form used as the join
// key across channels. Input with no digits yields the empty string. No
// digit-count or country-code validation is performed; malformed input
// produces a syntactically plausible but unchecked number.
func NormalizeNumber(value string) string {
	digits := phoneDigitsRe.FindAllString(strings.TrimSpace(value), -1)
	if len(digits) == 0 {
		return ""
	}
	return "+" + strings.Join(digits, "")
}
