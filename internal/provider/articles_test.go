package provider

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Antunnaki/workforce-democracy-project-sub003/internal/query"
	"github.com/Antunnaki/workforce-democracy-project-sub003/internal/source"
	"github.com/Antunnaki/workforce-democracy-project-sub003/internal/store"
)

func seededIndex(t *testing.T) *store.Index {
	t.Helper()
	idx, err := store.Open(filepath.Join(t.TempDir(), "articles.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { idx.Close() })

	now := time.Now().UTC()
	err = idx.Upsert([]store.Article{
		{
			Origin: "Democracy Now", Title: "Healthcare vote analysis",
			URL:       "https://example.org/healthcare",
			Excerpt:   "Coverage of the healthcare vote",
			Published: now, FetchedAt: now,
		},
		{
			Origin: "ProPublica", Title: "Schumer statement",
			URL:       "https://example.org/schumer",
			Body:      "Long form coverage of the Schumer floor statement",
			Published: now.Add(-time.Hour), FetchedAt: now,
		},
		{
			Origin: "The Intercept", Title: "Unrelated tech story",
			URL:       "https://example.org/tech",
			Excerpt:   "Nothing civic here",
			Published: now, FetchedAt: now,
		},
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	return idx
}

func TestArticleIndexSearch(t *testing.T) {
	p := NewArticleIndex(seededIndex(t), 50)

	sources, err := p.Search(context.Background(), query.Query{Text: "the healthcare vote"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(sources) != 1 {
		t.Fatalf("got %d sources, want 1", len(sources))
	}
	s := sources[0]
	if s.Kind != source.NewsArticle {
		t.Errorf("kind = %s, want news_article", s.Kind)
	}
	if s.Origin != "Democracy Now" {
		t.Errorf("origin = %q", s.Origin)
	}
}

func TestArticleIndexSearchesPersonNames(t *testing.T) {
	p := NewArticleIndex(seededIndex(t), 50)

	// "Schumer" appears only in a body; the name still finds the article.
	sources, err := p.Search(context.Background(), query.Query{
		Text:    "what did they say",
		Context: query.Context{Representative: "Chuck Schumer"},
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	found := false
	for _, s := range sources {
		if s.URL == "https://example.org/schumer" {
			found = true
			if s.Excerpt == "" {
				t.Error("excerpt should fall back to the body text")
			}
		}
	}
	if !found {
		t.Errorf("representative-name search missed the article, got %+v", sources)
	}
}

func TestArticleIndexEmptyQuery(t *testing.T) {
	p := NewArticleIndex(seededIndex(t), 50)
	sources, err := p.Search(context.Background(), query.Query{Text: "a an of"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if sources != nil {
		t.Errorf("stop-word-only query should return nothing, got %d", len(sources))
	}
}
