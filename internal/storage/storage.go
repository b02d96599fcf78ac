// Package storage provides the optional persistent card store. It sits under
// the in-memory cache as a read-through layer so resolved cards survive
// process restarts when enabled.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/ramonehamilton/commandzone/internal/cards"
)

// Store persists resolved card records in a local SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the card database at path and applies
// pending schema migrations.
func Open(path string) (*Store, error) {
	if err := applyMigrations(path); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open card database: %w", err)
	}

	return &Store{db: db}, nil
}

// OpenDB wraps an existing database handle, applying the schema inline.
// Used by tests with in-memory databases.
func OpenDB(db *sql.DB) (*Store, error) {
	schema, err := migrationsFS.ReadFile("migrations/000001_create_cards.up.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}
	if _, err := db.Exec(string(schema)); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get retrieves a card by its normalized name key. Returns (nil, nil) when
// the key is not stored.
func (s *Store) Get(ctx context.Context, key string) (*cards.Card, error) {
	query := `
	SELECT name, mana_cost, cmc, type_line, oracle_text, color_identity,
	       power, toughness, price_usd
	FROM cards
	WHERE name_key = ?
	`

	var (
		card              cards.Card
		manaCost          sql.NullString
		oracleText        sql.NullString
		colorIdentityJSON sql.NullString
		power             sql.NullString
		toughness         sql.NullString
		priceUSD          sql.NullString
	)

	err := s.db.QueryRowContext(ctx, query, key).Scan(
		&card.Name,
		&manaCost,
		&card.CMC,
		&card.TypeLine,
		&oracleText,
		&colorIdentityJSON,
		&power,
		&toughness,
		&priceUSD,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get card: %w", err)
	}

	card.ManaCost = manaCost.String
	card.OracleText = oracleText.String
	card.Power = power.String
	card.Toughness = toughness.String
	card.PriceUSD = priceUSD.String
	if colorIdentityJSON.Valid && colorIdentityJSON.String != "" {
		_ = json.Unmarshal([]byte(colorIdentityJSON.String), &card.ColorIdentity)
	}

	return &card, nil
}

// Put saves or refreshes a card under its normalized name key.
func (s *Store) Put(ctx context.Context, key string, card *cards.Card) error {
	colorIdentityJSON, _ := json.Marshal(card.ColorIdentity)

	query := `
	INSERT INTO cards (
		name_key, name, mana_cost, cmc, type_line, oracle_text,
		color_identity, power, toughness, price_usd
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(name_key) DO UPDATE SET
		name = excluded.name,
		mana_cost = excluded.mana_cost,
		cmc = excluded.cmc,
		type_line = excluded.type_line,
		oracle_text = excluded.oracle_text,
		color_identity = excluded.color_identity,
		power = excluded.power,
		toughness = excluded.toughness,
		price_usd = excluded.price_usd,
		updated_at = CURRENT_TIMESTAMP
	`

	_, err := s.db.ExecContext(ctx, query,
		key,
		card.Name,
		card.ManaCost,
		card.CMC,
		card.TypeLine,
		card.OracleText,
		string(colorIdentityJSON),
		card.Power,
		card.Toughness,
		card.PriceUSD,
	)
	if err != nil {
		return fmt.Errorf("failed to save card: %w", err)
	}

	return nil
}
