package followup

import "github.com/papercomputeco/thoughtstream/pkg/utils"

// MaxSourceChars is how much of a generated answer is sent back to the
// model when asking for follow-ups.
const MaxSourceChars = 800

// TruncateSource shortens content to MaxSourceChars characters, marking the
// cut with "...".
func TruncateSource(content string) string {
	return utils.Truncate(content, MaxSourceChars)
}
