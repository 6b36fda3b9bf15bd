package research

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Antunnaki/workforce-democracy-project-sub003/internal/source"
)

var (
	citationPattern = regexp.MustCompile(`\[(\d+)\]`)
	// sourcesSection matches a trailing "Sources:"/"References:" block the
	// model sometimes appends with its own (often wrong) numbering.
	sourcesSection = regexp.MustCompile(`(?is)\n\s*(sources?|references?):\s*\n.*$`)
	spaceRun       = regexp.MustCompile(` {2,}`)
)

// StripInvalidCitations removes citation markers whose number exceeds the
// number of available sources. With zero sources every marker is removed.
// Models were observed citing [7] with two sources found; an out-of-range
// marker must never reach the caller.
func StripInvalidCitations(text string, sourceCount int) string {
	cleaned := citationPattern.ReplaceAllStringFunc(text, func(match string) string {
		n, err := strconv.Atoi(strings.Trim(match, "[]"))
		if err != nil || n < 1 || n > sourceCount {
			return ""
		}
		return match
	})
	// Collapse the space runs stripping leaves behind; adjacent markers can
	// leave more than two in a row.
	cleaned = spaceRun.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}

// RewriteSourcesSection drops any model-written trailing source list and,
// when sources exist, appends the authoritative numbered list.
func RewriteSourcesSection(text string, sources []source.Source) string {
	out := strings.TrimSpace(sourcesSection.ReplaceAllString(text, ""))
	if len(sources) == 0 {
		return out
	}

	var b strings.Builder
	b.WriteString(out)
	b.WriteString("\n\nSources:\n")
	for i, s := range sources {
		fmt.Fprintf(&b, "[%d] %s - %s\n", i+1, s.Title, s.URL)
	}
	return strings.TrimRight(b.String(), "\n")
}
