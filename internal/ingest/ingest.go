package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"

	"github.com/Antunnaki/workforce-democracy-project-sub003/internal/config"
	"github.com/Antunnaki/workforce-democracy-project-sub003/internal/store"
)

// maxFeedConcurrency bounds simultaneous feed downloads.
const maxFeedConcurrency = 4

// Fetcher retrieves articles from a single configured feed.
type Fetcher interface {
	Fetch(ctx context.Context, feed config.Feed) ([]store.Article, error)
}

// RSSFetcher parses RSS/Atom feeds with gofeed.
type RSSFetcher struct {
	parser *gofeed.Parser
	maxAge time.Duration
}

func NewRSSFetcher(maxAge time.Duration) *RSSFetcher {
	if maxAge <= 0 {
		maxAge = 30 * 24 * time.Hour
	}
	return &RSSFetcher{parser: gofeed.NewParser(), maxAge: maxAge}
}

func (f *RSSFetcher) Fetch(ctx context.Context, feed config.Feed) ([]store.Article, error) {
	parsed, err := f.parser.ParseURLWithContext(feed.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", feed.Name, err)
	}

	now := time.Now()
	cutoff := now.Add(-f.maxAge)
	articles := make([]store.Article, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		pub := now
		if item.PublishedParsed != nil {
			pub = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			pub = *item.UpdatedParsed
		}

		if pub.Before(cutoff) {
			continue
		}

		desc := item.Description
		if desc == "" {
			desc = item.Content
		}
		excerpt := truncate(stripHTML(desc), 300)

		articles = append(articles, store.Article{
			ID:        store.ArticleID(item.Link),
			Origin:    feed.Name,
			Title:     item.Title,
			URL:       item.Link,
			Excerpt:   excerpt,
			Body:      stripHTML(item.Content),
			Published: pub,
			FetchedAt: now,
		})
	}
	return articles, nil
}

// Result reports the outcome of a full refresh.
type Result struct {
	Fetched int
	Errors  []error
}

// Refresher pulls every enabled feed into the article index.
type Refresher struct {
	fetcher Fetcher
	index   *store.Index
	log     *slog.Logger
}

func NewRefresher(fetcher Fetcher, index *store.Index, log *slog.Logger) *Refresher {
	if log == nil {
		log = slog.Default()
	}
	return &Refresher{fetcher: fetcher, index: index, log: log}
}

// Refresh fetches all feeds concurrently and upserts their articles. A feed
// failure is recorded and skipped; it never aborts the other feeds.
func (r *Refresher) Refresh(ctx context.Context, feeds []config.Feed) Result {
	var (
		mu     sync.Mutex
		result Result
	)

	g := &errgroup.Group{}
	g.SetLimit(maxFeedConcurrency)

	for _, feed := range feeds {
		g.Go(func() error {
			articles, err := r.fetcher.Fetch(ctx, feed)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				r.log.Warn("feed fetch failed", "feed", feed.Name, "error", err)
				result.Errors = append(result.Errors, err)
				return nil
			}
			if err := r.index.Upsert(articles); err != nil {
				r.log.Warn("feed upsert failed", "feed", feed.Name, "error", err)
				result.Errors = append(result.Errors, err)
				return nil
			}
			result.Fetched += len(articles)
			r.log.Info("feed refreshed", "feed", feed.Name, "articles", len(articles))
			return nil
		})
	}

	g.Wait()
	return result
}

// Run refreshes on a ticker until the context is cancelled. Used by the
// server so the index stays warm without a cron job.
func (r *Refresher) Run(ctx context.Context, feeds []config.Feed, interval time.Duration) {
	r.Refresh(ctx, feeds)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Refresh(ctx, feeds)
		}
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

func stripHTML(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
