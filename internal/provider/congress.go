package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Antunnaki/workforce-democracy-project-sub003/internal/query"
	"github.com/Antunnaki/workforce-democracy-project-sub003/internal/source"
)

const defaultCongressBaseURL = "https://api.congress.gov/v3"

// Congress searches the Congress.gov bill API for legislation matching the
// policy keywords of a query. Requires an API key supplied out of band.
type Congress struct {
	apiKey  string
	baseURL string
	limit   int
	client  *http.Client
}

func NewCongress(apiKey string, timeout time.Duration) *Congress {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Congress{
		apiKey:  apiKey,
		baseURL: defaultCongressBaseURL,
		limit:   10,
		client:  &http.Client{Timeout: timeout},
	}
}

// SetBaseURL overrides the API endpoint. Used by tests.
func (p *Congress) SetBaseURL(u string) { p.baseURL = u }

func (p *Congress) Name() string      { return "congress.gov" }
func (p *Congress) Kind() source.Kind { return source.LegislativeBill }
func (p *Congress) Priority() int     { return PriorityLegislative }

type congressBill struct {
	Number        string `json:"number"`
	Title         string `json:"title"`
	Type          string `json:"type"`
	Congress      int    `json:"congress"`
	OriginChamber string `json:"originChamber"`
	URL           string `json:"url"`
	UpdateDate    string `json:"updateDate"`
}

type congressResponse struct {
	Bills []congressBill `json:"bills"`
}

func (p *Congress) Search(ctx context.Context, q query.Query) ([]source.Source, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("congress.gov API key not configured")
	}

	keywords := query.PolicyKeywords(q.Text)
	if len(keywords) == 0 {
		keywords = query.Tokenize(q.Text)
	}
	if len(keywords) == 0 {
		return nil, nil
	}

	params := url.Values{}
	params.Set("query", strings.Join(keywords, " OR "))
	params.Set("format", "json")
	params.Set("api_key", p.apiKey)
	params.Set("limit", fmt.Sprintf("%d", p.limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/bill?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("congress.gov request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("congress.gov API %d: %s", resp.StatusCode, string(b))
	}

	var cr congressResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("decoding congress.gov response: %w", err)
	}

	sources := make([]source.Source, 0, len(cr.Bills))
	for _, bill := range cr.Bills {
		sources = append(sources, p.billToSource(bill, keywords))
	}
	return sources, nil
}

func (p *Congress) billToSource(bill congressBill, keywords []string) source.Source {
	title := bill.Title
	if title == "" {
		title = fmt.Sprintf("%s %s", bill.Type, bill.Number)
	}

	billURL := bill.URL
	if billURL == "" {
		billURL = fmt.Sprintf("https://www.congress.gov/bill/%dth-congress/%s/%s",
			bill.Congress, strings.ToLower(bill.Type), bill.Number)
	}

	excerpt := bill.Title
	if excerpt == "" {
		excerpt = fmt.Sprintf("%s %s - legislative action on %s",
			bill.Type, bill.Number, strings.Join(keywords, ", "))
	}

	published, _ := time.Parse("2006-01-02", bill.UpdateDate)

	return source.Source{
		Title:   fmt.Sprintf("%s - %s", bill.Number, title),
		URL:     billURL,
		Kind:    source.LegislativeBill,
		Excerpt: excerpt,
		Body: fmt.Sprintf("%s %s: %s. Introduced in the %dth Congress. Origin: %s",
			bill.Type, bill.Number, title, bill.Congress, bill.OriginChamber),
		Origin:    "Congress.gov",
		Published: published,
		Metadata: source.Metadata{
			BillNumber:         bill.Number,
			Congress:           bill.Congress,
			Chamber:            bill.OriginChamber,
			IsGovernmentSource: true,
			IsPrimarySource:    true,
		},
	}
}
