package research

import (
	"fmt"
	"strings"

	"github.com/Antunnaki/workforce-democracy-project-sub003/internal/query"
	"github.com/Antunnaki/workforce-democracy-project-sub003/internal/source"
)

const maxHistoryTurns = 6

// BuildPrompt assembles the completion prompt: instructions, the numbered
// source block, recent conversation history, and the user's question. Source
// numbering here is the citation space the answer must stay inside.
func BuildPrompt(q query.Query, sources []source.Source) string {
	var b strings.Builder

	b.WriteString("You are a civic research assistant. Answer the question using the numbered sources below. ")
	b.WriteString("Cite sources inline with their number, like [1]. ")
	if len(sources) > 0 {
		fmt.Fprintf(&b, "Only cite numbers 1 through %d. ", len(sources))
	} else {
		b.WriteString("No sources were found; answer from general knowledge and do not fabricate citations. ")
	}
	b.WriteString("Be factual and measured.\n")

	if q.Context.Representative != "" {
		fmt.Fprintf(&b, "\nThe question concerns %s.\n", q.Context.Representative)
	}

	if len(sources) > 0 {
		b.WriteString("\nSources:\n")
		for i, s := range sources {
			fmt.Fprintf(&b, "[%d] %s (%s)", i+1, s.Title, s.Origin)
			if s.Excerpt != "" {
				fmt.Fprintf(&b, ": %s", s.Excerpt)
			}
			b.WriteString("\n")
		}
	}

	history := q.History
	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}
	if len(history) > 0 {
		b.WriteString("\nConversation so far:\n")
		for _, turn := range history {
			fmt.Fprintf(&b, "%s: %s\n", turn.Role, turn.Content)
		}
	}

	fmt.Fprintf(&b, "\nQuestion: %s\n", q.Text)
	return b.String()
}
