package analyzer

import (
	"strings"

	"github.com/robalyx/scamguard/pkg/utils"
)

// keywordPattern is a parsed suspicious keyword.
// "^free" matches tokens starting with "free", "nitro$" tokens ending with "nitro",
// "^gift$" only the exact token and anything else matches as a substring.
type keywordPattern struct {
	value    string
	anchored bool
	terminal bool
}

func parseKeywordPatterns(keywords []string, normalizer *utils.TextNormalizer) []keywordPattern {
	patterns := make([]keywordPattern, 0, len(keywords))

	for _, keyword := range keywords {
		keyword = strings.TrimSpace(keyword)

		pattern := keywordPattern{
			anchored: strings.HasPrefix(keyword, "^"),
			terminal: strings.HasSuffix(keyword, "$") && len(keyword) > 1,
		}

		keyword = strings.TrimPrefix(keyword, "^")
		if pattern.terminal {
			keyword = strings.TrimSuffix(keyword, "$")
		}

		pattern.value = normalizer.Normalize(keyword)
		if pattern.value == "" {
			continue
		}

		patterns = append(patterns, pattern)
	}

	return patterns
}

// matches expects an already normalized token.
func (p keywordPattern) matches(token string) bool {
	switch {
	case p.anchored && p.terminal:
		return token == p.value
	case p.anchored:
		return strings.HasPrefix(token, p.value)
	case p.terminal:
		return strings.HasSuffix(token, p.value)
	default:
		return strings.Contains(token, p.value)
	}
}
