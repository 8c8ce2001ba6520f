package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/DeafMist/docsearch/internal/backend"
	"github.com/DeafMist/docsearch/internal/logger"
)

const (
	PromptMessage       = "Please enter a search term."
	SearchFailedMessage = "Search failed. Please try again."
	NoMatchesMessage    = "No matching documents."
)

// SummaryText is the line shown above the results for query.
func SummaryText(query string) string {
	return fmt.Sprintf("Showing results for '%s'", query)
}

// ResultsRegions are the regions of the results page.
type ResultsRegions struct {
	SearchInput TextField
	Summary     TextView
	Exact       ListView
	Semantic    ListView
}

// ResultsRenderer fills the results page from the "q" parameter.
type ResultsRenderer struct {
	searcher backend.HybridSearcher
	regions  ResultsRegions
	log      *slog.Logger
}

// NewResultsRenderer creates a renderer that fills regions from searcher.
func NewResultsRenderer(searcher backend.HybridSearcher, regions ResultsRegions, log *slog.Logger) *ResultsRenderer {
	if log == nil {
		log = logger.Discard()
	}
	return &ResultsRenderer{searcher: searcher, regions: regions, log: log}
}

// Load renders the page for ev. A missing or blank query shows the prompt
// and performs no search.
func (r *ResultsRenderer) Load(ctx context.Context, ev PageLoaded) error {
	query := ""
	if ev.URL != nil {
		query = strings.TrimSpace(ev.URL.Query().Get("q"))
	}
	if query == "" {
		r.regions.Summary.SetText(PromptMessage)
		return nil
	}

	r.regions.SearchInput.SetValue(query)
	r.regions.Summary.SetText(SummaryText(query))

	set, err := r.searcher.HybridSearch(ctx, query)
	if err != nil {
		r.log.Warn("search failed", slog.String("query", query), slog.Any("err", err))
		r.regions.Summary.SetText(SearchFailedMessage)
		r.regions.Exact.Replace(nil)
		r.regions.Semantic.Replace(nil)
		return fmt.Errorf("search %q: %w", query, err)
	}

	fill(r.regions.Exact, RenderList(set.ExactMatches))
	fill(r.regions.Semantic, RenderList(set.SemanticMatches))
	r.log.Debug("search rendered",
		slog.String("query", query),
		slog.Int("exact", len(set.ExactMatches)),
		slog.Int("semantic", len(set.SemanticMatches)),
	)
	return nil
}

func fill(list ListView, items []ListItem) {
	if len(items) == 0 {
		list.ShowEmpty(NoMatchesMessage)
		return
	}
	list.Replace(items)
}
