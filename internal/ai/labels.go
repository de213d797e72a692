package ai

import (
	"encoding/json"
	"strings"
	"unicode"

	"github.com/campusvoice/backend/internal/models"
)

// ParseSeverityReply extracts a severity label from a model reply. It
// accepts a bare label, a JSON object with a "severity" field, or prose that
// mentions exactly one distinct label. Anything else is rejected.
func ParseSeverityReply(reply string) (models.Severity, bool) {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", false
	}
	if s, ok := models.ParseSeverity(reply); ok {
		return s, true
	}

	body := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(reply, "```json"), "```"))
	if strings.HasPrefix(body, "{") {
		var obj struct {
			Severity string `json:"severity"`
		}
		if err := json.Unmarshal([]byte(body), &obj); err == nil {
			return models.ParseSeverity(obj.Severity)
		}
	}

	found := map[models.Severity]bool{}
	words := strings.FieldsFunc(reply, func(r rune) bool { return !unicode.IsLetter(r) })
	for _, w := range words {
		if s, ok := models.ParseSeverity(w); ok {
			found[s] = true
		}
	}
	if len(found) != 1 {
		return "", false
	}
	for s := range found {
		return s, true
	}
	return "", false
}
