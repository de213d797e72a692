package ai

import (
	"fmt"
	"strings"
)

const rewriteInstruction = `You turn informal student complaints into clear, formal reports for campus administrators.
Keep every fact and number, remove slang, profanity and personal attacks, and do not add details.
Reply with the rewritten complaint only.`

const severityInstruction = `You triage campus complaints by urgency.

HIGH: risk to health or safety, medical emergencies, violence or harassment, contamination,
loss of water, power or heating, or a problem affecting many students for a long time.
MEDIUM: a real service problem that disrupts daily life or study but is not dangerous,
such as slow Wi-Fi, broken furniture, poor food quality or repeated delays.
LOW: suggestions, cosmetic issues and minor inconveniences.

Reply with exactly one word: low, medium or high.`

func categoryInstruction(categories []string) string {
	return fmt.Sprintf(`You route campus complaints to the responsible department.
Pick exactly one of these categories and reply with its name only:
%s`, "- "+strings.Join(categories, "\n- "))
}

// Truncate cuts text to at most max runes.
func Truncate(text string, max int) string {
	if max <= 0 {
		return text
	}
	r := []rune(text)
	if len(r) <= max {
		return text
	}
	return string(r[:max])
}
