package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/Antunnaki/workforce-democracy-project-sub003/internal/query"
	"github.com/Antunnaki/workforce-democracy-project-sub003/internal/source"
	"github.com/Antunnaki/workforce-democracy-project-sub003/internal/store"
)

// ArticleIndex serves news articles from the local sqlite index.
type ArticleIndex struct {
	index  *store.Index
	limit  int
	maxAge time.Duration
}

func NewArticleIndex(index *store.Index, limit int) *ArticleIndex {
	if limit <= 0 {
		limit = 100
	}
	return &ArticleIndex{index: index, limit: limit, maxAge: 6 * 365 * 24 * time.Hour}
}

func (p *ArticleIndex) Name() string      { return "article-index" }
func (p *ArticleIndex) Kind() source.Kind { return source.NewsArticle }
func (p *ArticleIndex) Priority() int     { return PriorityNewsIndex }

func (p *ArticleIndex) Search(ctx context.Context, q query.Query) ([]source.Source, error) {
	keywords := query.Tokenize(q.Text)
	keywords = append(keywords, query.PersonNames(q)...)
	if len(keywords) == 0 {
		return nil, nil
	}

	articles, err := p.index.Search(store.SearchOpts{
		Keywords: keywords,
		Since:    time.Now().Add(-p.maxAge),
		Limit:    p.limit,
	})
	if err != nil {
		return nil, fmt.Errorf("article index search: %w", err)
	}

	sources := make([]source.Source, 0, len(articles))
	for _, a := range articles {
		excerpt := a.Excerpt
		if excerpt == "" && len(a.Body) > 0 {
			if len(a.Body) > 200 {
				excerpt = a.Body[:200]
			} else {
				excerpt = a.Body
			}
		}
		sources = append(sources, source.Source{
			Title:     a.Title,
			URL:       a.URL,
			Kind:      source.NewsArticle,
			Excerpt:   excerpt,
			Body:      a.Body,
			Origin:    a.Origin,
			Published: a.Published,
			Metadata:  source.Metadata{AutoIndexed: a.AutoIndexed},
		})
	}
	return sources, nil
}
