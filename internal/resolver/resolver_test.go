package resolver

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ramonehamilton/commandzone/internal/cache"
	"github.com/ramonehamilton/commandzone/internal/cards"
	"github.com/ramonehamilton/commandzone/internal/scryfall"
)

// fakeProvider serves a fixed card set and records call counts.
type fakeProvider struct {
	mu    sync.Mutex
	cards map[string]scryfall.Card // keyed by normalized name

	collectionCalls int
	collectionSizes []int
	namedCalls      int

	collectionErr error
	namedErr      error
}

func newFakeProvider(names ...string) *fakeProvider {
	p := &fakeProvider{cards: make(map[string]scryfall.Card)}
	for _, name := range names {
		p.cards[cache.NameKey(name)] = scryfall.Card{
			Name:     name,
			TypeLine: "Artifact",
		}
	}
	return p
}

func (p *fakeProvider) Named(ctx context.Context, name string, fuzzy bool) (*scryfall.Card, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.namedCalls++
	if p.namedErr != nil {
		return nil, p.namedErr
	}
	if c, ok := p.cards[cache.NameKey(name)]; ok {
		return &c, nil
	}
	if fuzzy {
		// Crude fuzzy matching: a unique prefix match resolves.
		var matches []scryfall.Card
		for key, c := range p.cards {
			if strings.HasPrefix(key, cache.NameKey(name)[:min(3, len(name))]) {
				matches = append(matches, c)
			}
		}
		if len(matches) == 1 {
			return &matches[0], nil
		}
	}
	return nil, &scryfall.NotFoundError{Name: name}
}

func (p *fakeProvider) Collection(ctx context.Context, names []string) ([]scryfall.Card, []string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.collectionCalls++
	p.collectionSizes = append(p.collectionSizes, len(names))
	if p.collectionErr != nil {
		return nil, nil, p.collectionErr
	}
	var found []scryfall.Card
	var notFound []string
	for _, name := range names {
		if c, ok := p.cards[cache.NameKey(name)]; ok {
			found = append(found, c)
		} else {
			notFound = append(notFound, name)
		}
	}
	return found, notFound, nil
}

func newTestResolver(t *testing.T, p Provider, batchSize int, opts ...Option) *Resolver {
	t.Helper()
	c, err := cache.New[*cards.Card](1000, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return New(p, c, batchSize, opts...)
}

func TestResolveManyPreservesOrderAndDuplicates(t *testing.T) {
	p := newFakeProvider("Sol Ring", "Arcane Signet")
	r := newTestResolver(t, p, 75)

	results := r.ResolveMany(context.Background(), []string{"Arcane Signet", "Sol Ring", "Arcane Signet"}, true)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, want := range []string{"Arcane Signet", "Sol Ring", "Arcane Signet"} {
		if results[i].Requested != want {
			t.Errorf("result[%d].Requested = %q, want %q", i, results[i].Requested, want)
		}
		if results[i].Err != nil {
			t.Errorf("result[%d] failed: %v", i, results[i].Err)
		}
	}
	if results[0].Card != results[2].Card {
		t.Error("duplicate requests should share one resolution")
	}
	if p.collectionCalls != 1 {
		t.Errorf("expected 1 batch call, got %d", p.collectionCalls)
	}
}

func TestResolveManySplitsBatches(t *testing.T) {
	var names []string
	for i := 0; i < 200; i++ {
		names = append(names, "Card "+strings.Repeat("x", i%7)+string(rune('a'+i%26))+strings.Repeat("y", i/26))
	}
	p := newFakeProvider(names...)
	r := newTestResolver(t, p, 75)

	results := r.ResolveMany(context.Background(), names, false)
	for _, res := range results {
		if res.Err != nil {
			t.Fatalf("%s failed: %v", res.Requested, res.Err)
		}
	}

	if p.collectionCalls != 3 {
		t.Errorf("expected 3 batch calls for 200 names, got %d", p.collectionCalls)
	}
	want := []int{75, 75, 50}
	for i, size := range p.collectionSizes {
		if size != want[i] {
			t.Errorf("batch %d size = %d, want %d", i, size, want[i])
		}
	}
}

func TestResolveManyIdempotent(t *testing.T) {
	p := newFakeProvider("Sol Ring")
	r := newTestResolver(t, p, 75)

	first := r.ResolveMany(context.Background(), []string{"Sol Ring"}, true)
	second := r.ResolveMany(context.Background(), []string{"Sol Ring"}, true)

	if first[0].Err != nil || second[0].Err != nil {
		t.Fatal("resolution failed")
	}
	if p.collectionCalls != 1 {
		t.Errorf("second resolve should hit the cache, got %d batch calls", p.collectionCalls)
	}
	if first[0].Card.Name != second[0].Card.Name {
		t.Error("repeated resolution returned a different card")
	}
}

func TestResolveManyCaseInsensitiveDedup(t *testing.T) {
	p := newFakeProvider("Sol Ring")
	r := newTestResolver(t, p, 75)

	results := r.ResolveMany(context.Background(), []string{"Sol Ring", "sol ring", "  SOL RING "}, true)
	for _, res := range results {
		if res.Err != nil {
			t.Fatalf("%q failed: %v", res.Requested, res.Err)
		}
	}
	if p.collectionCalls != 1 || p.collectionSizes[0] != 1 {
		t.Errorf("spellings of one name should resolve once, calls=%d sizes=%v", p.collectionCalls, p.collectionSizes)
	}
}

func TestFuzzyFallbackResolvesMisspelling(t *testing.T) {
	p := newFakeProvider("Lightning Bolt")
	r := newTestResolver(t, p, 75)

	results := r.ResolveMany(context.Background(), []string{"Lightnin Bolt"}, true)
	if results[0].Err != nil {
		t.Fatalf("fuzzy resolution failed: %v", results[0].Err)
	}
	if results[0].Card.Name != "Lightning Bolt" {
		t.Errorf("resolved to %q", results[0].Card.Name)
	}
	if results[0].Requested != "Lightnin Bolt" {
		t.Errorf("original spelling lost: %q", results[0].Requested)
	}

	// The fix is cached under the misspelled key: no further provider calls.
	before := p.namedCalls
	again := r.ResolveMany(context.Background(), []string{"Lightnin Bolt"}, true)
	if again[0].Err != nil {
		t.Fatalf("cached fuzzy resolution failed: %v", again[0].Err)
	}
	if p.namedCalls != before {
		t.Errorf("expected cache hit for repeated misspelling, namedCalls went %d -> %d", before, p.namedCalls)
	}
}

func TestNotFoundCachedNegatively(t *testing.T) {
	p := newFakeProvider("Sol Ring")
	r := newTestResolver(t, p, 75)

	first := r.ResolveMany(context.Background(), []string{"Zzyzx Unicorn"}, true)
	re, ok := AsResolutionError(first[0].Err)
	if !ok || re.Reason != ReasonNotFound {
		t.Fatalf("expected ReasonNotFound, got %v", first[0].Err)
	}
	if re.Retryable() {
		t.Error("not-found must not be retryable")
	}

	named := p.namedCalls
	collections := p.collectionCalls
	second := r.ResolveMany(context.Background(), []string{"Zzyzx Unicorn"}, true)
	if _, ok := AsResolutionError(second[0].Err); !ok {
		t.Fatal("expected error on repeated lookup")
	}
	if p.namedCalls != named || p.collectionCalls != collections {
		t.Error("negative entry should answer the repeat without provider calls")
	}
}

func TestTransientFailureNotCached(t *testing.T) {
	p := newFakeProvider("Sol Ring")
	p.collectionErr = errors.New("upstream 503")
	p.namedErr = errors.New("upstream 503")
	r := newTestResolver(t, p, 75)

	results := r.ResolveMany(context.Background(), []string{"Sol Ring"}, true)
	re, ok := AsResolutionError(results[0].Err)
	if !ok || re.Reason != ReasonProviderFailure {
		t.Fatalf("expected ReasonProviderFailure, got %v", results[0].Err)
	}
	if !re.Retryable() {
		t.Error("provider failure must be retryable")
	}

	// Provider recovers; the retry must reach it rather than a tombstone.
	p.collectionErr = nil
	p.namedErr = nil
	retry := r.ResolveMany(context.Background(), []string{"Sol Ring"}, true)
	if retry[0].Err != nil {
		t.Fatalf("retry after recovery failed: %v", retry[0].Err)
	}
}

func TestBatchFailureWithoutFuzzyFailsBatch(t *testing.T) {
	p := newFakeProvider("Sol Ring", "Arcane Signet")
	p.collectionErr = errors.New("upstream 500")
	r := newTestResolver(t, p, 75)

	results := r.ResolveMany(context.Background(), []string{"Sol Ring", "Arcane Signet"}, false)
	for _, res := range results {
		re, ok := AsResolutionError(res.Err)
		if !ok || re.Reason != ReasonProviderFailure {
			t.Errorf("%s: expected provider failure, got %v", res.Requested, res.Err)
		}
	}
	if p.namedCalls != 0 {
		t.Errorf("fuzzy disabled but provider.Named called %d times", p.namedCalls)
	}
}

func TestResolveManyConcurrent(t *testing.T) {
	known := []string{"Sol Ring", "Arcane Signet", "Command Tower", "Lightning Bolt"}
	p := newFakeProvider(known...)
	r := newTestResolver(t, p, 75)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				// Overlapping lookups mix cold misses, cache hits and
				// unresolvable names across goroutines.
				names := []string{
					known[(g+i)%len(known)],
					known[i%len(known)],
					"Zzyzx Unicorn",
				}
				results := r.ResolveMany(context.Background(), names, false)
				if len(results) != len(names) {
					t.Errorf("got %d results for %d names", len(results), len(names))
					return
				}
				for j, res := range results {
					if res.Requested != names[j] {
						t.Errorf("result[%d].Requested = %q, want %q", j, res.Requested, names[j])
					}
				}
				if results[0].Err != nil {
					t.Errorf("%q failed: %v", names[0], results[0].Err)
				}
				if results[2].Err == nil {
					t.Errorf("%q unexpectedly resolved", names[2])
				}
			}
		}(g)
	}
	wg.Wait()
}

func TestResolveOne(t *testing.T) {
	p := newFakeProvider("Sol Ring")
	r := newTestResolver(t, p, 75)

	card, err := r.ResolveOne(context.Background(), "Sol Ring")
	if err != nil {
		t.Fatal(err)
	}
	if card.Name != "Sol Ring" {
		t.Errorf("resolved %q", card.Name)
	}

	if _, err := r.ResolveOne(context.Background(), "No Such Card At All"); err == nil {
		t.Error("expected error for unknown card")
	}
}

// memoryStore is an in-memory CardStore for read-through tests.
type memoryStore struct {
	mu    sync.Mutex
	cards map[string]*cards.Card
	puts  int
}

func (m *memoryStore) Get(ctx context.Context, key string) (*cards.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cards[key], nil
}

func (m *memoryStore) Put(ctx context.Context, key string, card *cards.Card) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cards == nil {
		m.cards = make(map[string]*cards.Card)
	}
	m.cards[key] = card
	m.puts++
	return nil
}

func TestStoreReadThrough(t *testing.T) {
	store := &memoryStore{cards: map[string]*cards.Card{
		"sol ring": {Name: "Sol Ring", TypeLine: "Artifact"},
	}}
	p := newFakeProvider() // provider knows nothing
	r := newTestResolver(t, p, 75, WithStore(store))

	results := r.ResolveMany(context.Background(), []string{"Sol Ring"}, true)
	if results[0].Err != nil {
		t.Fatalf("store read-through failed: %v", results[0].Err)
	}
	if p.collectionCalls != 0 {
		t.Errorf("store hit should not reach the provider, %d batch calls", p.collectionCalls)
	}
}

func TestStoreWrittenOnResolution(t *testing.T) {
	store := &memoryStore{}
	p := newFakeProvider("Sol Ring")
	r := newTestResolver(t, p, 75, WithStore(store))

	results := r.ResolveMany(context.Background(), []string{"Sol Ring"}, true)
	if results[0].Err != nil {
		t.Fatal(results[0].Err)
	}
	if store.puts != 1 {
		t.Errorf("expected 1 store write, got %d", store.puts)
	}
	if store.cards["sol ring"] == nil {
		t.Error("card not persisted under its normalized key")
	}
}
