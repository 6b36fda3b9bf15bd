package query

import (
	"strings"
	"unicode"
)

// Turn is one prior message in the conversation.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Context carries the subject flags the frontend attaches to a chat message.
type Context struct {
	ChatType       string `json:"chatType"`
	Representative string `json:"representative"`
	TopicArea      string `json:"topicArea"`
}

// HasRepresentative reports whether a named representative is resolved.
func (c Context) HasRepresentative() bool {
	return strings.TrimSpace(c.Representative) != ""
}

// Query is one user request for information. Immutable once handed to the
// orchestrator.
type Query struct {
	Text    string
	History []Turn
	Context Context
}

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "from": true, "is": true, "it": true, "its": true,
	"this": true, "that": true, "are": true, "was": true, "were": true, "be": true,
	"been": true, "have": true, "has": true, "had": true, "does": true, "did": true,
	"will": true, "would": true, "could": true, "should": true, "about": true,
	"into": true, "over": true, "their": true, "them": true, "they": true,
	"what": true, "when": true, "where": true, "which": true, "how": true,
	"why": true, "who": true,
}

// Tokenize lowercases text and returns words of at least four characters with
// punctuation and stop words stripped. These tokens are the unit of keyword
// matching everywhere in the pipeline.
func Tokenize(text string) []string {
	var tokens []string
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if len(word) < 4 || stopWords[word] {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}

// excludeWords are tokens that look like subjects but are really question or
// office words, never personal names.
var excludeWords = map[string]bool{
	"what": true, "when": true, "where": true, "which": true,
	"policy": true, "policies": true, "voting": true, "record": true,
	"campaign": true, "election": true, "candidate": true,
	"representative": true, "senator": true, "congressman": true,
	"congresswoman": true, "mayor": true, "governor": true, "president": true,
	"healthcare": true, "housing": true, "immigration": true,
}

// PersonNames extracts likely personal names from a query: capitalized words
// of four or more letters that are not question or office words, plus the
// resolved representative from context when present.
func PersonNames(q Query) []string {
	seen := map[string]bool{}
	var names []string

	add := func(name string) {
		name = strings.ToLower(strings.TrimFunc(name, func(r rune) bool {
			return !unicode.IsLetter(r)
		}))
		if len(name) < 4 || excludeWords[name] || seen[name] {
			return
		}
		seen[name] = true
		names = append(names, name)
	}

	for _, part := range strings.Fields(q.Context.Representative) {
		add(part)
	}

	for i, word := range strings.Fields(q.Text) {
		trimmed := strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r)
		})
		if trimmed == "" {
			continue
		}
		first := []rune(trimmed)[0]
		// Sentence-initial capitals are not name evidence.
		if i == 0 || !unicode.IsUpper(first) {
			continue
		}
		add(trimmed)
	}

	return names
}
