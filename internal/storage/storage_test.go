package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/ramonehamilton/commandzone/internal/cards"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	store, err := OpenDB(db)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestPutAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	card := &cards.Card{
		Name:          "Atraxa, Praetors' Voice",
		ManaCost:      "{G}{W}{U}{B}",
		CMC:           4,
		TypeLine:      "Legendary Creature — Phyrexian Angel Horror",
		OracleText:    "Flying, vigilance, deathtouch, lifelink",
		ColorIdentity: []string{"W", "U", "B", "G"},
		Power:         "4",
		Toughness:     "4",
		PriceUSD:      "18.50",
	}

	if err := store.Put(ctx, "atraxa, praetors' voice", card); err != nil {
		t.Fatal(err)
	}

	got, err := store.Get(ctx, "atraxa, praetors' voice")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("stored card not found")
	}
	if !reflect.DeepEqual(got, card) {
		t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", got, card)
	}
}

func TestGetMissingReturnsNil(t *testing.T) {
	store := newTestStore(t)

	got, err := store.Get(context.Background(), "nothing here")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("expected nil for missing key, got %+v", got)
	}
}

func TestPutUpserts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := &cards.Card{Name: "Sol Ring", TypeLine: "Artifact", PriceUSD: "1.00"}
	if err := store.Put(ctx, "sol ring", first); err != nil {
		t.Fatal(err)
	}

	second := &cards.Card{Name: "Sol Ring", TypeLine: "Artifact", PriceUSD: "2.50"}
	if err := store.Put(ctx, "sol ring", second); err != nil {
		t.Fatal(err)
	}

	got, err := store.Get(ctx, "sol ring")
	if err != nil {
		t.Fatal(err)
	}
	if got.PriceUSD != "2.50" {
		t.Errorf("price = %q, want refreshed 2.50", got.PriceUSD)
	}
}

func TestEmptyColorIdentityRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	card := &cards.Card{Name: "Sol Ring", TypeLine: "Artifact"}
	if err := store.Put(ctx, "sol ring", card); err != nil {
		t.Fatal(err)
	}
	got, err := store.Get(ctx, "sol ring")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.ColorIdentity) != 0 {
		t.Errorf("colorless identity = %v", got.ColorIdentity)
	}
}

func TestOpenCreatesAndMigrates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cards.db")

	store, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	if err := store.Put(ctx, "sol ring", &cards.Card{Name: "Sol Ring", TypeLine: "Artifact"}); err != nil {
		t.Fatal(err)
	}

	// Reopening runs migrations idempotently and sees the data.
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}
	reopened, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = reopened.Close() }()

	got, err := reopened.Get(ctx, "sol ring")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Name != "Sol Ring" {
		t.Errorf("persisted card lost across reopen: %+v", got)
	}
}
