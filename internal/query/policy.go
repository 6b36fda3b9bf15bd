package query

import "strings"

// PolicyArea is a broad legislative topic inferred from a query.
type PolicyArea string

const (
	Healthcare  PolicyArea = "healthcare"
	Economy     PolicyArea = "economy"
	Immigration PolicyArea = "immigration"
	Education   PolicyArea = "education"
	Environment PolicyArea = "environment"
	Defense     PolicyArea = "defense"
)

// AllPolicyAreas returns the policy areas in canonical order.
func AllPolicyAreas() []PolicyArea {
	return []PolicyArea{Healthcare, Economy, Immigration, Education, Environment, Defense}
}

var policyKeywords = map[PolicyArea][]string{
	Healthcare: {
		"healthcare", "health care", "medical", "insurance", "medicare",
		"medicaid", "prescription", "drug", "obamacare", "aca",
	},
	Economy: {
		"economy", "economic", "jobs", "employment", "tax", "budget",
		"deficit", "spending", "wages", "inflation",
	},
	Immigration: {
		"immigration", "border", "visa", "refugee", "asylum", "citizenship",
	},
	Education: {
		"education", "school", "student", "college", "university", "loan",
	},
	Environment: {
		"environment", "climate", "energy", "pollution", "renewable", "emissions",
	},
	Defense: {
		"defense", "military", "war", "veterans", "armed forces", "national security",
	},
}

// PolicyKeywords returns the search terms mentioned in the query text, grouped
// into policy areas, for use as legislative search keywords. The general area
// name is included alongside each matched term so bill searches cover the
// topic even when the query used a narrow synonym.
func PolicyKeywords(text string) []string {
	lower := strings.ToLower(text)
	seen := map[string]bool{}
	var keywords []string

	add := func(term string) {
		if !seen[term] {
			seen[term] = true
			keywords = append(keywords, term)
		}
	}

	for _, area := range AllPolicyAreas() {
		matched := false
		for _, term := range policyKeywords[area] {
			if strings.Contains(lower, term) {
				add(term)
				matched = true
			}
		}
		if matched {
			add(string(area))
		}
	}
	return keywords
}

// ClassifyPolicyArea picks the single best policy area for a query, or ""
// when nothing matches. Multi-word terms match as substrings; single words
// must appear as tokens.
func ClassifyPolicyArea(text string) PolicyArea {
	lower := strings.ToLower(text)
	tokens := map[string]bool{}
	for _, t := range Tokenize(text) {
		tokens[t] = true
	}

	var best PolicyArea
	bestScore := 0
	for _, area := range AllPolicyAreas() {
		score := 0
		for _, term := range policyKeywords[area] {
			if strings.Contains(term, " ") {
				if strings.Contains(lower, term) {
					score++
				}
			} else if tokens[term] || strings.Contains(lower, term) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			best = area
		}
	}
	return best
}
