package prompt

import (
	"regexp"
	"strings"

	"docqa/internal/models"
)

var thinkRe = regexp.MustCompile(models.ThinkTag)

// Postprocess strips template artifacts a generation backend may echo back
// and trims whitespace. Pure, idempotent, never fails: unexpected input is
// returned best-effort cleaned.
func Postprocess(raw string) string {
	cleaned := thinkRe.ReplaceAllString(raw, "")
	for {
		trimmed := strings.TrimSpace(cleaned)
		for _, token := range models.ControlTokens {
			trimmed = strings.TrimPrefix(trimmed, token)
			trimmed = strings.TrimSuffix(trimmed, token)
		}
		if trimmed == cleaned {
			return trimmed
		}
		cleaned = trimmed
	}
}
