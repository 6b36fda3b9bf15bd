package score

import (
	"strings"

	"github.com/Antunnaki/workforce-democracy-project-sub003/internal/query"
	"github.com/Antunnaki/workforce-democracy-project-sub003/internal/source"
)

// Point values for each scoring rule. The rules are independent and additive;
// the total has no upper bound and is used only for relative ranking.
const (
	governmentDomainBonus = 50
	primarySourceBonus    = 30
	legislativeBillBonus  = 40
	titleMatchBonus       = 10
	excerptMatchBonus     = 5
	bodyMatchBonus        = 3
	nameInTitleBonus      = 200
	nameInExcerptBonus    = 100
	nameMissingPenalty    = -50
	passingMentionPenalty = -20
	trustedOriginBonus    = 20
)

// Config holds the scorer's only tunable: which outlets count as trusted.
type Config struct {
	TrustedOrigins []string
}

// Breakdown shows how each rule contributed to the final score.
type Breakdown struct {
	Government     float64
	Primary        float64
	Bill           float64
	TitleKeywords  float64
	ExcerptKeyword float64
	BodyKeywords   float64
	PersonName     float64
	TrustedOrigin  float64
	Final          float64
}

// Score computes the relevance of a source for a query. Pure function: no
// I/O, deterministic for identical inputs.
func Score(s source.Source, q query.Query, cfg Config) float64 {
	return ScoreWithBreakdown(s, q, cfg).Final
}

// ScoreWithBreakdown computes the relevance score with per-rule detail.
func ScoreWithBreakdown(s source.Source, q query.Query, cfg Config) Breakdown {
	var b Breakdown

	if source.HasGovernmentDomain(s.URL) {
		b.Government = governmentDomainBonus
	}
	if s.Metadata.IsPrimarySource || s.Metadata.IsGovernmentSource {
		b.Primary = primarySourceBonus
	}
	if s.Kind == source.LegislativeBill || s.Metadata.BillNumber != "" {
		b.Bill = legislativeBillBonus
	}

	tokens := query.Tokenize(q.Text)
	titleLower := strings.ToLower(s.Title)
	excerptLower := strings.ToLower(s.Excerpt)
	bodyLower := strings.ToLower(s.Body)

	titleMatches := countMatches(titleLower, tokens)
	excerptMatches := countMatches(excerptLower, tokens)
	b.TitleKeywords = float64(titleMatches * titleMatchBonus)
	b.ExcerptKeyword = float64(excerptMatches * excerptMatchBonus)
	if s.Body != "" {
		b.BodyKeywords = float64(countMatches(bodyLower, tokens) * bodyMatchBonus)
	}

	// A source that mentions the query terms only in its full text is about
	// something else entirely; knock it down so it cannot outrank sources
	// with real title or excerpt overlap.
	if titleMatches == 0 && excerptMatches == 0 {
		b.BodyKeywords += passingMentionPenalty
	}

	for _, name := range query.PersonNames(q) {
		switch {
		case strings.Contains(titleLower, name):
			b.PersonName += nameInTitleBonus
		case strings.Contains(excerptLower, name):
			b.PersonName += nameInExcerptBonus
		default:
			b.PersonName += nameMissingPenalty
		}
	}

	for _, origin := range cfg.TrustedOrigins {
		if strings.EqualFold(s.Origin, origin) {
			b.TrustedOrigin = trustedOriginBonus
			break
		}
	}

	b.Final = b.Government + b.Primary + b.Bill +
		b.TitleKeywords + b.ExcerptKeyword + b.BodyKeywords +
		b.PersonName + b.TrustedOrigin
	return b
}

func countMatches(haystack string, tokens []string) int {
	n := 0
	for _, t := range tokens {
		if strings.Contains(haystack, t) {
			n++
		}
	}
	return n
}
