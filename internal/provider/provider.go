// Package provider defines the data suppliers queried during research:
// the local article index, the Congress.gov bill API, and the web-search
// fallback. Providers return raw candidate sources; scoring and filtering
// happen in the aggregator.
package provider

import (
	"context"

	"github.com/Antunnaki/workforce-democracy-project-sub003/internal/query"
	"github.com/Antunnaki/workforce-democracy-project-sub003/internal/source"
)

// Priority orders providers for dedup and tie-breaking: lower wins.
const (
	PriorityLegislative = 0
	PriorityNewsIndex   = 1
	PriorityWebFallback = 2
)

// Provider is an external data supplier for the aggregation pipeline.
type Provider interface {
	// Name identifies the provider in logs and breakdown counts.
	Name() string
	// Kind is the source kind this provider emits.
	Kind() source.Kind
	// Priority breaks score ties; see the Priority constants.
	Priority() int
	// Search returns candidate sources for the query. An error means the
	// provider contributed nothing; it never aborts the aggregation.
	Search(ctx context.Context, q query.Query) ([]source.Source, error)
}
