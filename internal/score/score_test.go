package score

import (
	"testing"

	"github.com/Antunnaki/workforce-democracy-project-sub003/internal/query"
	"github.com/Antunnaki/workforce-democracy-project-sub003/internal/source"
)

func healthcareQuery() query.Query {
	return query.Query{Text: "what is the healthcare voting record"}
}

func TestGovernmentDomainBonus(t *testing.T) {
	s := source.Source{
		Title: "Healthcare vote",
		URL:   "https://www.congress.gov/bill/118th-congress/hr/1234",
	}
	b := ScoreWithBreakdown(s, healthcareQuery(), Config{})
	if b.Government != 50 {
		t.Errorf("expected +50 government bonus, got %.0f", b.Government)
	}

	s.URL = "https://example.com/article"
	b = ScoreWithBreakdown(s, healthcareQuery(), Config{})
	if b.Government != 0 {
		t.Errorf("expected no government bonus, got %.0f", b.Government)
	}
}

func TestLegislativeOutranksOtherwiseIdenticalArticle(t *testing.T) {
	q := healthcareQuery()
	bill := source.Source{
		Title:   "Healthcare Affordability Act",
		URL:     "https://example.org/bill",
		Kind:    source.LegislativeBill,
		Excerpt: "A bill on healthcare costs",
	}
	article := bill
	article.Kind = source.NewsArticle
	article.URL = "https://example.org/article"

	billScore := Score(bill, q, Config{})
	articleScore := Score(article, q, Config{})
	if billScore <= articleScore {
		t.Errorf("legislative source should outrank identical article: bill=%.0f article=%.0f",
			billScore, articleScore)
	}
}

func TestTitleKeywordsBeatExcerptKeywords(t *testing.T) {
	q := healthcareQuery()
	inTitle := source.Source{Title: "Healthcare voting analysis", URL: "https://a.example"}
	inExcerpt := source.Source{Title: "Weekly roundup", URL: "https://b.example", Excerpt: "healthcare voting analysis"}

	if Score(inTitle, q, Config{}) <= Score(inExcerpt, q, Config{}) {
		t.Error("title matches should score above excerpt-only matches")
	}
}

func TestPersonNameTitleVsExcerpt(t *testing.T) {
	q := query.Query{Text: "How has Representative Mamdani voted on healthcare?"}

	inTitle := source.Source{
		Title: "Mamdani pushes healthcare bill", URL: "https://a.example",
	}
	inExcerpt := source.Source{
		Title: "City healthcare update", URL: "https://b.example",
		Excerpt: "Includes remarks from Mamdani",
	}
	absent := source.Source{
		Title: "Healthcare voting roundup", URL: "https://c.example",
		Excerpt: "General healthcare voting news",
	}

	bTitle := ScoreWithBreakdown(inTitle, q, Config{})
	bExcerpt := ScoreWithBreakdown(inExcerpt, q, Config{})
	bAbsent := ScoreWithBreakdown(absent, q, Config{})

	if bTitle.PersonName != 200 {
		t.Errorf("name in title should add +200, got %.0f", bTitle.PersonName)
	}
	if bExcerpt.PersonName != 100 {
		t.Errorf("name in excerpt only should add +100, got %.0f", bExcerpt.PersonName)
	}
	if bAbsent.PersonName != -50 {
		t.Errorf("absent name should add -50, got %.0f", bAbsent.PersonName)
	}
	if bTitle.Final <= bExcerpt.Final || bExcerpt.Final <= bAbsent.Final {
		t.Errorf("expected title > excerpt > absent, got %.0f / %.0f / %.0f",
			bTitle.Final, bExcerpt.Final, bAbsent.Final)
	}
}

func TestPassingMentionPenalty(t *testing.T) {
	q := healthcareQuery()
	s := source.Source{
		Title:   "Quiet week in the city",
		URL:     "https://a.example",
		Excerpt: "Nothing much happened",
		Body:    "a long article that mentions healthcare voting once in passing",
	}
	b := ScoreWithBreakdown(s, q, Config{})
	// Two body matches (+6) minus the passing-mention penalty (-20).
	if b.BodyKeywords != -14 {
		t.Errorf("expected body component -14, got %.0f", b.BodyKeywords)
	}
}

func TestTrustedOriginBonus(t *testing.T) {
	cfg := Config{TrustedOrigins: []string{"Democracy Now", "ProPublica"}}
	s := source.Source{Title: "Healthcare voting", URL: "https://a.example", Origin: "ProPublica"}
	b := ScoreWithBreakdown(s, healthcareQuery(), cfg)
	if b.TrustedOrigin != 20 {
		t.Errorf("expected +20 trusted origin, got %.0f", b.TrustedOrigin)
	}

	s.Origin = "Random Blog"
	b = ScoreWithBreakdown(s, healthcareQuery(), cfg)
	if b.TrustedOrigin != 0 {
		t.Errorf("expected no trusted bonus, got %.0f", b.TrustedOrigin)
	}
}

func TestBillNumberMetadataCountsAsLegislative(t *testing.T) {
	s := source.Source{
		Title:    "Healthcare voting measure",
		URL:      "https://example.org/hr1234",
		Kind:     source.NewsArticle,
		Metadata: source.Metadata{BillNumber: "HR1234"},
	}
	b := ScoreWithBreakdown(s, healthcareQuery(), Config{})
	if b.Bill != 40 {
		t.Errorf("expected +40 bill bonus from metadata, got %.0f", b.Bill)
	}
}

func TestScoreDeterministic(t *testing.T) {
	q := query.Query{Text: "How has Chuck Schumer voted on healthcare and medicare?"}
	s := source.Source{
		Title:   "Schumer on medicare",
		URL:     "https://news.example/schumer",
		Excerpt: "Senate healthcare debate",
		Origin:  "Democracy Now",
	}
	cfg := Config{TrustedOrigins: []string{"Democracy Now"}}
	first := Score(s, q, cfg)
	for i := 0; i < 10; i++ {
		if got := Score(s, q, cfg); got != first {
			t.Fatalf("score not deterministic: %f vs %f", got, first)
		}
	}
}
