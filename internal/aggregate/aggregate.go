// Package aggregate merges candidate sources from several providers into one
// ranked, deduplicated list.
package aggregate

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Antunnaki/workforce-democracy-project-sub003/internal/provider"
	"github.com/Antunnaki/workforce-democracy-project-sub003/internal/query"
	"github.com/Antunnaki/workforce-democracy-project-sub003/internal/score"
	"github.com/Antunnaki/workforce-democracy-project-sub003/internal/source"
)

// Config holds the aggregation tunables.
type Config struct {
	// GovernmentThreshold is the minimum score for government/legislative
	// sources. Lower than GeneralThreshold: primary sources should not be
	// excluded merely for weak keyword overlap.
	GovernmentThreshold float64
	// GeneralThreshold is the minimum score for everything else.
	GeneralThreshold float64
	// MaxSources bounds the final list (and therefore the prompt size).
	MaxSources int
	// ProviderTimeout caps each provider call independently.
	ProviderTimeout time.Duration
	// Scoring configures the relevance scorer.
	Scoring score.Config
}

// Aggregator fans a query out to providers and ranks what comes back.
type Aggregator struct {
	cfg Config
	log *slog.Logger
}

func New(cfg Config, log *slog.Logger) *Aggregator {
	if cfg.MaxSources <= 0 {
		cfg.MaxSources = 20
	}
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = 10 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Aggregator{cfg: cfg, log: log}
}

// Counts maps provider name to how many sources it contributed after merge.
type Counts map[string]int

// Aggregate queries all providers concurrently, then merges, dedupes, scores,
// filters, sorts and truncates. Provider failures are logged and excluded;
// all providers failing yields an empty list, never an error.
func (a *Aggregator) Aggregate(ctx context.Context, q query.Query, providers []provider.Provider) ([]source.Source, Counts) {
	ordered := make([]provider.Provider, len(providers))
	copy(ordered, providers)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority() < ordered[j].Priority()
	})

	results := make([][]source.Source, len(ordered))
	var wg sync.WaitGroup
	for i, p := range ordered {
		wg.Add(1)
		go func(i int, p provider.Provider) {
			defer wg.Done()
			pctx, cancel := context.WithTimeout(ctx, a.cfg.ProviderTimeout)
			defer cancel()

			sources, err := p.Search(pctx, q)
			if err != nil {
				a.log.Warn("provider failed", "provider", p.Name(), "error", err)
				return
			}
			results[i] = sources
		}(i, p)
	}
	wg.Wait()

	// Merge in provider-priority order so first-wins dedup keeps the
	// higher-priority copy of a URL.
	merged := make([]source.Source, 0)
	byProvider := make([]string, 0)
	seen := map[string]bool{}
	counts := Counts{}
	for i, p := range ordered {
		for _, s := range results[i] {
			key := source.NormalizeURL(s.URL)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			merged = append(merged, s)
			byProvider = append(byProvider, p.Name())
		}
	}

	// Score everything, then filter with the per-kind threshold.
	filtered := merged[:0:0]
	filteredProviders := byProvider[:0:0]
	for i, s := range merged {
		s.RelevanceScore = score.Score(s, q, a.cfg.Scoring)
		threshold := a.cfg.GeneralThreshold
		if s.IsGovernment() {
			threshold = a.cfg.GovernmentThreshold
		}
		if s.RelevanceScore < threshold {
			continue
		}
		filtered = append(filtered, s)
		filteredProviders = append(filteredProviders, byProvider[i])
	}

	// Stable sort: ties keep the provider-priority merge order.
	idx := make([]int, len(filtered))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return filtered[idx[i]].RelevanceScore > filtered[idx[j]].RelevanceScore
	})

	limit := len(idx)
	if limit > a.cfg.MaxSources {
		limit = a.cfg.MaxSources
	}

	out := make([]source.Source, 0, limit)
	for _, i := range idx[:limit] {
		out = append(out, filtered[i])
		counts[filteredProviders[i]]++
	}

	a.log.Info("aggregation complete",
		"candidates", len(merged), "kept", len(out), "providers", len(ordered))
	return out, counts
}
