// Package search executes structured card searches with result caching.
// Provider-side ordering is part of the cached value: a hit returns the
// stored list verbatim, including cached empty results.
package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ramonehamilton/commandzone/internal/cache"
	"github.com/ramonehamilton/commandzone/internal/cards"
	"github.com/ramonehamilton/commandzone/internal/scryfall"
)

// Provider executes one search against the card data service.
type Provider interface {
	Search(ctx context.Context, query string) (*scryfall.SearchResult, error)
}

// Page is one cached search result: the ordered matches plus the provider's
// total match count (which may exceed the returned page).
type Page struct {
	Cards      []cards.Card
	TotalCards int
}

// Searcher serves structured queries from the search cache, falling through
// to the provider on a miss.
type Searcher struct {
	provider Provider
	cache    *cache.Store[Page]
	mode     ColorMode
	logger   *slog.Logger
}

// NewSearcher creates a Searcher.
func NewSearcher(provider Provider, searchCache *cache.Store[Page], mode ColorMode, logger *slog.Logger) *Searcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Searcher{
		provider: provider,
		cache:    searchCache,
		mode:     mode,
		logger:   logger,
	}
}

// Mode reports the color-identity matching mode queries run with.
func (s *Searcher) Mode() ColorMode {
	return s.mode
}

// Search validates the criteria and returns the ordered matching cards.
// Equivalent criteria collide on the same cache key; a hit returns the
// stored page without re-sorting.
func (s *Searcher) Search(ctx context.Context, criteria Criteria) (Page, error) {
	if err := criteria.Validate(); err != nil {
		return Page{}, err
	}

	key := criteria.Key(s.mode)
	if page, outcome := s.cache.Get(key); outcome == cache.Hit {
		return page, nil
	}

	query := criteria.Query(s.mode)
	result, err := s.provider.Search(ctx, query)
	if err != nil {
		// Transient: nothing cached, caller may retry.
		return Page{}, fmt.Errorf("search %q: %w", query, err)
	}

	page := Page{
		Cards:      make([]cards.Card, 0, len(result.Data)),
		TotalCards: result.TotalCards,
	}
	for _, raw := range result.Data {
		page.Cards = append(page.Cards, *cards.FromScryfall(raw))
	}

	// Empty results are cached too, so queries that legitimately match
	// nothing don't hit the provider again within the TTL.
	s.cache.PutPositive(key, page)
	s.logger.Debug("search executed", "query", query, "matches", len(page.Cards), "total", page.TotalCards)

	return page, nil
}
