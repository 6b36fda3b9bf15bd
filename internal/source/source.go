package source

import (
	"net/url"
	"strings"
	"time"
)

// Kind identifies where a source came from and how it is weighted downstream.
type Kind string

const (
	NewsArticle     Kind = "news_article"
	LegislativeBill Kind = "legislative_bill"
	WebResult       Kind = "web_result"
)

// Metadata carries provider-specific flags used by scoring and filtering.
type Metadata struct {
	IsGovernmentSource bool   `json:"isGovernmentSource,omitempty"`
	IsPrimarySource    bool   `json:"isPrimarySource,omitempty"`
	BillNumber         string `json:"billNumber,omitempty"`
	Congress           int    `json:"congress,omitempty"`
	Chamber            string `json:"chamber,omitempty"`
	AutoIndexed        bool   `json:"autoIndexed,omitempty"`
}

// Source is one citable piece of evidence (article, bill, web result).
type Source struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Kind    Kind   `json:"kind"`
	Excerpt string `json:"excerpt"`
	// Body is the full text when available. Used only for scoring, never
	// serialized into results.
	Body      string    `json:"-"`
	Origin    string    `json:"source"`
	Published time.Time `json:"date,omitempty"`
	Metadata  Metadata  `json:"metadata,omitempty"`

	// RelevanceScore is recomputed per query during aggregation and is
	// meaningless outside the aggregation that assigned it.
	RelevanceScore float64 `json:"relevanceScore"`
}

// IsGovernment reports whether the source should get the lower relevance
// threshold reserved for government and legislative material.
func (s Source) IsGovernment() bool {
	return s.Kind == LegislativeBill ||
		s.Metadata.IsGovernmentSource ||
		s.Metadata.BillNumber != "" ||
		HasGovernmentDomain(s.URL)
}

// HasGovernmentDomain reports whether rawURL points at a .gov host.
func HasGovernmentDomain(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		// Fall back to a substring check for malformed but recognizable URLs.
		return strings.Contains(strings.ToLower(rawURL), ".gov")
	}
	host := strings.ToLower(u.Hostname())
	return host == "gov" || strings.HasSuffix(host, ".gov")
}

// NormalizeURL produces the deduplication key for a source URL: lowercased
// scheme and host, trailing slash stripped, fragment dropped.
func NormalizeURL(rawURL string) string {
	trimmed := strings.TrimSpace(rawURL)
	u, err := url.Parse(trimmed)
	if err != nil {
		return strings.ToLower(strings.TrimSuffix(trimmed, "/"))
	}
	u.Fragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u.String()
}
