package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/Antunnaki/workforce-democracy-project-sub003/internal/config"
	"github.com/Antunnaki/workforce-democracy-project-sub003/internal/query"
	"github.com/Antunnaki/workforce-democracy-project-sub003/internal/source"
)

const webSearchUserAgent = "Mozilla/5.0 (compatible; CivicResearchBot/1.0)"

// WebSearch scrapes DuckDuckGo's HTML endpoint, scoped to the trusted outlet
// domains, as a last-resort source of evidence. Results are flagged
// AutoIndexed so their provenance survives into the article index.
type WebSearch struct {
	outlets    []config.Outlet
	maxResults int
	delay      time.Duration
	baseURL    string
	client     *http.Client
}

func NewWebSearch(outlets []config.Outlet, maxResults int, timeout time.Duration) *WebSearch {
	if maxResults <= 0 {
		maxResults = 10
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &WebSearch{
		outlets:    outlets,
		maxResults: maxResults,
		delay:      time.Second,
		baseURL:    "https://duckduckgo.com/html/",
		client:     &http.Client{Timeout: timeout},
	}
}

// SetBaseURL overrides the search endpoint. Used by tests.
func (p *WebSearch) SetBaseURL(u string) { p.baseURL = u; p.delay = 0 }

func (p *WebSearch) Name() string      { return "web-fallback" }
func (p *WebSearch) Kind() source.Kind { return source.WebResult }
func (p *WebSearch) Priority() int     { return PriorityWebFallback }

func (p *WebSearch) Search(ctx context.Context, q query.Query) ([]source.Source, error) {
	terms := append(query.PersonNames(q), query.PolicyKeywords(q.Text)...)
	if len(terms) == 0 {
		terms = query.Tokenize(q.Text)
	}
	if len(terms) == 0 {
		return nil, nil
	}
	searchQuery := strings.Join(terms, " ")

	var sources []source.Source
	var lastErr error

	for _, outlet := range p.outlets {
		if len(sources) >= p.maxResults {
			break
		}
		if len(sources) > 0 && p.delay > 0 {
			select {
			case <-ctx.Done():
				return sources, nil
			case <-time.After(p.delay):
			}
		}

		result, err := p.searchOutlet(ctx, outlet, searchQuery)
		if err != nil {
			lastErr = err
			continue
		}
		if result != nil {
			sources = append(sources, *result)
		}
	}

	if len(sources) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return sources, nil
}

func (p *WebSearch) searchOutlet(ctx context.Context, outlet config.Outlet, searchQuery string) (*source.Source, error) {
	u := p.baseURL + "?q=" + url.QueryEscape("site:"+outlet.Domain+" "+searchQuery)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", webSearchUserAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s search: %w", outlet.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s search: status %d", outlet.Name, resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s search: parsing results: %w", outlet.Name, err)
	}

	title, link, snippet := firstResult(doc)
	if title == "" || link == "" || strings.Contains(link, "/search?q=") {
		return nil, nil
	}
	if snippet == "" {
		snippet = title
	}

	return &source.Source{
		Title:     title,
		URL:       link,
		Kind:      source.WebResult,
		Excerpt:   snippet,
		Origin:    outlet.Name,
		Published: time.Now(),
		Metadata:  source.Metadata{AutoIndexed: true},
	}, nil
}

// firstResult walks the DuckDuckGo HTML response and extracts the first
// organic result's title, href and snippet.
func firstResult(doc *html.Node) (title, link, snippet string) {
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if title != "" && link != "" && snippet != "" {
			return
		}
		if n.Type == html.ElementNode {
			switch {
			case hasClass(n, "result__a"):
				if title == "" {
					title = strings.TrimSpace(textContent(n))
					link = resolveHref(attr(n, "href"))
				}
			case hasClass(n, "result__snippet"):
				if snippet == "" {
					snippet = strings.TrimSpace(textContent(n))
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return title, link, snippet
}

// resolveHref unwraps DuckDuckGo's /l/?uddg= redirect links.
func resolveHref(href string) string {
	if href == "" {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		if decoded, err := url.QueryUnescape(target); err == nil {
			return decoded
		}
		return target
	}
	return href
}

func hasClass(n *html.Node, class string) bool {
	for _, field := range strings.Fields(attr(n, "class")) {
		if field == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
