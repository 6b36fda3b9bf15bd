// Package research orchestrates the source pipeline: it decides which
// providers a query warrants, runs the aggregation, renumbers the result for
// citation, and post-processes the completion text.
package research

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Antunnaki/workforce-democracy-project-sub003/internal/aggregate"
	"github.com/Antunnaki/workforce-democracy-project-sub003/internal/completion"
	"github.com/Antunnaki/workforce-democracy-project-sub003/internal/provider"
	"github.com/Antunnaki/workforce-democracy-project-sub003/internal/query"
	"github.com/Antunnaki/workforce-democracy-project-sub003/internal/source"
	"github.com/Antunnaki/workforce-democracy-project-sub003/internal/store"
)

// chatTypeRepresentatives gates the legislative provider: bill search is
// entity-bound and returns noise without a resolved representative.
const chatTypeRepresentatives = "representatives"

// FallbackMessage is the only completion-failure text callers ever see.
const FallbackMessage = "I wasn't able to generate a response right now. Please try again in a moment."

// ErrCompletionFailed wraps any completion backend failure. The wrapped
// detail is for logs only; callers surface FallbackMessage.
var ErrCompletionFailed = errors.New("completion failed")

// Result is the outcome of one research pass. Sources are ordered; their
// 1-based positions are the citation space for the completion text.
type Result struct {
	Sources           []source.Source
	ProviderBreakdown aggregate.Counts
}

// Indexer persists fallback results so the article corpus grows organically.
type Indexer interface {
	Upsert(articles []store.Article) error
	Has(url string) (bool, error)
}

// Config holds the orchestrator's provider-selection tunables.
type Config struct {
	// FallbackFloor triggers the web-search pass when the combined
	// news+legislative result count is below it.
	FallbackFloor int
}

// Orchestrator wires providers, aggregation and completion together.
type Orchestrator struct {
	cfg         Config
	agg         *aggregate.Aggregator
	newsIndex   provider.Provider
	legislative provider.Provider
	webFallback provider.Provider
	completer   completion.Completer
	indexer     Indexer
	log         *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

func WithLegislative(p provider.Provider) Option { return func(o *Orchestrator) { o.legislative = p } }
func WithWebFallback(p provider.Provider) Option { return func(o *Orchestrator) { o.webFallback = p } }
func WithCompleter(c completion.Completer) Option {
	return func(o *Orchestrator) { o.completer = c }
}
func WithIndexer(idx Indexer) Option { return func(o *Orchestrator) { o.indexer = idx } }

func New(cfg Config, agg *aggregate.Aggregator, newsIndex provider.Provider, log *slog.Logger, opts ...Option) *Orchestrator {
	if cfg.FallbackFloor <= 0 {
		cfg.FallbackFloor = 10
	}
	if log == nil {
		log = slog.Default()
	}
	o := &Orchestrator{cfg: cfg, agg: agg, newsIndex: newsIndex, log: log}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Research selects providers for the query, aggregates their results, and
// returns the renumbered source list. It never fails on provider errors; an
// empty source list is a valid outcome.
func (o *Orchestrator) Research(ctx context.Context, q query.Query) Result {
	providers := []provider.Provider{o.newsIndex}

	if o.legislative != nil && o.useLegislative(q) {
		providers = append(providers, o.legislative)
	}

	sources, counts := o.agg.Aggregate(ctx, q, providers)

	if o.webFallback != nil && len(sources) < o.cfg.FallbackFloor {
		o.log.Info("source count below fallback floor, invoking web search",
			"count", len(sources), "floor", o.cfg.FallbackFloor)
		sources, counts = o.withFallback(ctx, q, sources, counts, providers)
	}

	return Result{Sources: sources, ProviderBreakdown: counts}
}

func (o *Orchestrator) useLegislative(q query.Query) bool {
	return q.Context.ChatType == chatTypeRepresentatives && q.Context.HasRepresentative()
}

// withFallback reruns the aggregation with the web provider included, then
// auto-indexes any new web results.
func (o *Orchestrator) withFallback(ctx context.Context, q query.Query, prior []source.Source, priorCounts aggregate.Counts, providers []provider.Provider) ([]source.Source, aggregate.Counts) {
	sources, counts := o.agg.Aggregate(ctx, q, append(providers, o.webFallback))

	// If the fallback pass somehow did worse (a provider flaked on the
	// second call), keep the original result.
	if len(sources) < len(prior) {
		return prior, priorCounts
	}

	if o.indexer != nil {
		o.autoIndex(sources)
	}
	return sources, counts
}

// autoIndex writes auto-indexed web results into the article store so future
// searches find them locally.
func (o *Orchestrator) autoIndex(sources []source.Source) {
	var articles []store.Article
	now := time.Now()
	for _, s := range sources {
		if s.Kind != source.WebResult || !s.Metadata.AutoIndexed {
			continue
		}
		exists, err := o.indexer.Has(s.URL)
		if err != nil || exists {
			continue
		}
		articles = append(articles, store.Article{
			ID:          store.ArticleID(s.URL),
			Origin:      s.Origin,
			Title:       s.Title,
			URL:         s.URL,
			Excerpt:     s.Excerpt,
			Published:   s.Published,
			FetchedAt:   now,
			AutoIndexed: true,
		})
	}
	if len(articles) == 0 {
		return
	}
	if err := o.indexer.Upsert(articles); err != nil {
		o.log.Warn("auto-indexing fallback results failed", "error", err)
		return
	}
	o.log.Info("auto-indexed fallback results", "articles", len(articles))
}

// Complete runs the completion step against an already-computed research
// result and post-processes the text: out-of-range citation markers are
// stripped and any model-written trailing source list is replaced with the
// authoritative one. The research result stays authoritative: the completion
// may restate its own source list, but citation numbers always refer to
// res.Sources.
func (o *Orchestrator) Complete(ctx context.Context, q query.Query, res Result) (string, error) {
	if o.completer == nil {
		return "", ErrCompletionFailed
	}

	prompt := BuildPrompt(q, res.Sources)
	answer, err := o.completer.Complete(ctx, prompt, res.Sources)
	if err != nil {
		o.log.Error("completion failed", "error", err)
		return "", errors.Join(ErrCompletionFailed, err)
	}
	text := StripInvalidCitations(answer.Text, len(res.Sources))
	return RewriteSourcesSection(text, res.Sources), nil
}
