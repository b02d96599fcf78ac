// Package resolver turns lists of requested card names into resolved card
// records. It deduplicates requests, serves what it can from the shared
// cache, batches the remainder against the provider's collection endpoint,
// and falls back to per-name fuzzy lookups for anything a batch could not
// match.
package resolver

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ramonehamilton/commandzone/internal/cache"
	"github.com/ramonehamilton/commandzone/internal/cards"
	"github.com/ramonehamilton/commandzone/internal/scryfall"
)

// fuzzyParallelism bounds concurrent fallback lookups so a decklist full of
// typos doesn't stampede the provider.
const fuzzyParallelism = 4

// Provider is the narrow card-data interface the resolver consumes.
type Provider interface {
	// Named fetches a single card by exact or fuzzy name.
	Named(ctx context.Context, name string, fuzzy bool) (*scryfall.Card, error)
	// Collection fetches one batch of cards by name. The second return
	// value lists requested names the provider could not match.
	Collection(ctx context.Context, names []string) ([]scryfall.Card, []string, error)
}

// CardStore is an optional persistent read-through layer under the cache.
type CardStore interface {
	Get(ctx context.Context, key string) (*cards.Card, error)
	Put(ctx context.Context, key string, card *cards.Card) error
}

// Result is the outcome for one requested name. Exactly one of Card and Err
// is set.
type Result struct {
	Requested string
	Card      *cards.Card
	Err       error
}

// Resolver resolves card names through cache, store and provider.
type Resolver struct {
	provider  Provider
	cache     *cache.Store[*cards.Card]
	store     CardStore // nil when persistence is disabled
	batchSize int
	logger    *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithStore attaches a persistent card store consulted on cache misses.
func WithStore(store CardStore) Option {
	return func(r *Resolver) { r.store = store }
}

// WithLogger sets the resolver's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

// New creates a Resolver. batchSize is clamped to the provider's limit.
func New(provider Provider, cardCache *cache.Store[*cards.Card], batchSize int, opts ...Option) *Resolver {
	if batchSize <= 0 || batchSize > scryfall.MaxBatchSize {
		batchSize = scryfall.MaxBatchSize
	}
	r := &Resolver{
		provider:  provider,
		cache:     cardCache,
		batchSize: batchSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveOne resolves a single name, with fuzzy matching.
func (r *Resolver) ResolveOne(ctx context.Context, name string) (*cards.Card, error) {
	results := r.ResolveMany(ctx, []string{name}, true)
	if results[0].Err != nil {
		return nil, results[0].Err
	}
	return results[0].Card, nil
}

// ResolveMany resolves the requested names, preserving input order and input
// duplicates: a name requested three times yields three result slots. Each
// distinct name is resolved once.
func (r *Resolver) ResolveMany(ctx context.Context, names []string, allowFuzzy bool) []Result {
	// Dedup into a unique working set, remembering original spellings.
	// Different spellings that normalize identically share one resolution.
	uniqueKeys := make([]string, 0, len(names))
	requestedBy := make(map[string]string, len(names))
	for _, name := range names {
		key := cache.NameKey(name)
		if _, seen := requestedBy[key]; !seen {
			requestedBy[key] = name
			uniqueKeys = append(uniqueKeys, key)
		}
	}

	resolved := make(map[string]*cards.Card, len(uniqueKeys))
	failed := make(map[string]*ResolutionError)

	// Serve what we can from cache, then the persistent store.
	var misses []string
	for _, key := range uniqueKeys {
		card, outcome := r.cache.Get(key)
		switch outcome {
		case cache.Hit:
			resolved[key] = card
		case cache.NegativeHit:
			failed[key] = &ResolutionError{Requested: requestedBy[key], Reason: ReasonNotFound}
		default:
			if r.store != nil {
				if stored, err := r.store.Get(ctx, key); err == nil && stored != nil {
					r.cache.PutPositive(key, stored)
					resolved[key] = stored
					continue
				}
			}
			misses = append(misses, key)
		}
	}

	// Batch the misses against the provider.
	var unmatched []string
	for start := 0; start < len(misses); start += r.batchSize {
		end := min(start+r.batchSize, len(misses))
		batch := misses[start:end]

		requested := make([]string, len(batch))
		for i, key := range batch {
			requested[i] = requestedBy[key]
		}

		found, notFound, err := r.provider.Collection(ctx, requested)
		if err != nil {
			// A failed batch is not a confirmed "not found": leave the cache
			// alone and let fuzzy fallback retry each name individually.
			r.logger.Warn("batch lookup failed", "size", len(batch), "error", err)
			if allowFuzzy {
				unmatched = append(unmatched, batch...)
			} else {
				for _, key := range batch {
					failed[key] = &ResolutionError{Requested: requestedBy[key], Reason: ReasonProviderFailure, Err: err}
				}
			}
			continue
		}

		notFoundSet := make(map[string]bool, len(notFound))
		for _, name := range notFound {
			notFoundSet[cache.NameKey(name)] = true
		}

		// Scryfall returns matched cards in identifier order, omitting the
		// not-found ones.
		di := 0
		for _, key := range batch {
			if notFoundSet[key] || di >= len(found) {
				unmatched = append(unmatched, key)
				continue
			}
			card := cards.FromScryfall(found[di])
			di++
			r.storePositive(ctx, key, card)
			resolved[key] = card
		}
	}

	// Fuzzy fallback, or direct errors when disabled.
	if allowFuzzy && len(unmatched) > 0 {
		r.fuzzyFallback(ctx, unmatched, requestedBy, resolved, failed)
	} else {
		for _, key := range unmatched {
			r.cache.PutNegative(key)
			failed[key] = &ResolutionError{Requested: requestedBy[key], Reason: ReasonNotFound}
		}
	}

	// Expand back to the original-order, original-duplicate list.
	results := make([]Result, len(names))
	for i, name := range names {
		key := cache.NameKey(name)
		res := Result{Requested: name}
		if card, ok := resolved[key]; ok {
			res.Card = card
		} else if ferr, ok := failed[key]; ok {
			res.Err = &ResolutionError{Requested: name, Reason: ferr.Reason, Err: ferr.Err}
		} else {
			res.Err = &ResolutionError{Requested: name, Reason: ReasonProviderFailure}
		}
		results[i] = res
	}
	return results
}

// fuzzyFallback issues one individual fuzzy lookup per unmatched name.
// Successful matches are cached under the originally requested key so
// repeated typos still hit the cache.
func (r *Resolver) fuzzyFallback(ctx context.Context, keys []string, requestedBy map[string]string, resolved map[string]*cards.Card, failed map[string]*ResolutionError) {
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fuzzyParallelism)

	for _, key := range keys {
		g.Go(func() error {
			requested := requestedBy[key]
			raw, err := r.provider.Named(gctx, requested, true)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				card := cards.FromScryfall(*raw)
				r.storePositive(gctx, key, card)
				resolved[key] = card
			case scryfall.IsNotFound(err):
				r.cache.PutNegative(key)
				failed[key] = &ResolutionError{Requested: requested, Reason: ReasonNotFound}
			default:
				// Transient failure must not poison the cache.
				r.logger.Warn("fuzzy lookup failed", "name", requested, "error", err)
				failed[key] = &ResolutionError{Requested: requested, Reason: ReasonProviderFailure, Err: err}
			}
			return nil
		})
	}
	_ = g.Wait()
}

// storePositive records a resolution in the cache (under both the requested
// key and the canonical name when they differ) and the persistent store.
func (r *Resolver) storePositive(ctx context.Context, key string, card *cards.Card) {
	r.cache.PutPositive(key, card)
	if canonical := cache.NameKey(card.Name); canonical != key {
		r.cache.PutPositive(canonical, card)
	}
	if r.store != nil {
		if err := r.store.Put(ctx, key, card); err != nil {
			r.logger.Warn("failed to persist card", "name", card.Name, "error", err)
		}
	}
}
