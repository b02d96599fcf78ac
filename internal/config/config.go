package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration. It is loaded once at
// startup and treated as immutable afterwards.
type Config struct {
	// Scryfall API settings
	Scryfall ScryfallConfig `toml:"scryfall"`

	// Cache configuration
	Cache CacheConfig `toml:"cache"`

	// Command Zone template targets and scoring weights
	Template TemplateConfig `toml:"template"`

	// Decklist validation limits
	Validation ValidationConfig `toml:"validation"`

	// Optional persistent card store
	Storage StorageConfig `toml:"storage"`
}

// ScryfallConfig contains card data provider settings.
type ScryfallConfig struct {
	APIBase        string `toml:"api_base"`        // Provider base URL
	BatchSize      int    `toml:"batch_size"`      // Max names per collection request
	RequestTimeout string `toml:"request_timeout"` // Per-request timeout (e.g. "30s")
	MaxRetries     int    `toml:"max_retries"`     // Retries per provider call
}

// CacheConfig contains caching settings.
type CacheConfig struct {
	CardMaxSize   int    `toml:"card_max_size"`   // Max resolved-card entries
	SearchMaxSize int    `toml:"search_max_size"` // Max cached search results
	TTL           string `toml:"ttl"`             // Entry time-to-live (e.g. "1h")
}

// CategoryTarget is a (minimum, optimal) pair for one evaluation category.
type CategoryTarget struct {
	Minimum int     `toml:"minimum"`
	Optimal int     `toml:"optimal"`
	Weight  float64 `toml:"weight"`
}

// TemplateConfig contains the Command Zone deckbuilding targets.
type TemplateConfig struct {
	Ramp               CategoryTarget `toml:"ramp"`
	CardAdvantage      CategoryTarget `toml:"card_advantage"`
	TargetedDisruption CategoryTarget `toml:"targeted_disruption"`
	MassDisruption     CategoryTarget `toml:"mass_disruption"`
	PlanCards          CategoryTarget `toml:"plan_cards"`
	LandsTarget        int            `toml:"lands_target"`
	LandsTolerance     int            `toml:"lands_tolerance"`
	LandsWeight        float64        `toml:"lands_weight"`
}

// ValidationConfig contains decklist parsing and validation limits.
type ValidationConfig struct {
	MaxCardQuantity   int `toml:"max_card_quantity"`
	MaxCardNameLength int `toml:"max_card_name_length"`
	MinDeckSize       int `toml:"min_deck_size"`
}

// StorageConfig contains persistent card store settings.
type StorageConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"` // SQLite database path; defaults under the config dir
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Scryfall: ScryfallConfig{
			APIBase:        "https://api.scryfall.com",
			BatchSize:      75,
			RequestTimeout: "30s",
			MaxRetries:     3,
		},
		Cache: CacheConfig{
			CardMaxSize:   10000,
			SearchMaxSize: 1000,
			TTL:           "1h",
		},
		Template: TemplateConfig{
			Ramp:               CategoryTarget{Minimum: 10, Optimal: 12, Weight: 1},
			CardAdvantage:      CategoryTarget{Minimum: 12, Optimal: 15, Weight: 1},
			TargetedDisruption: CategoryTarget{Minimum: 12, Optimal: 12, Weight: 1},
			MassDisruption:     CategoryTarget{Minimum: 6, Optimal: 6, Weight: 1},
			PlanCards:          CategoryTarget{Minimum: 25, Optimal: 30, Weight: 1},
			LandsTarget:        38,
			LandsTolerance:     2,
			LandsWeight:        1,
		},
		Validation: ValidationConfig{
			MaxCardQuantity:   100,
			MaxCardNameLength: 200,
			MinDeckSize:       10,
		},
		Storage: StorageConfig{
			Enabled: false,
			Path:    "",
		},
	}
}

// configPath returns the path to the configuration file.
func configPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".commandzone")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}

	return filepath.Join(configDir, "config.toml"), nil
}

// Load loads the configuration from disk. Returns the default config if the
// file doesn't exist.
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom loads the configuration from an explicit path, applying defaults
// for absent fields.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks configuration bounds. Violations are fatal at startup, not
// per-call conditions.
func (c *Config) Validate() error {
	var errs []error

	if c.Scryfall.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("scryfall.batch_size must be positive, got %d", c.Scryfall.BatchSize))
	}
	if c.Scryfall.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("scryfall.max_retries must be non-negative, got %d", c.Scryfall.MaxRetries))
	}
	if _, err := time.ParseDuration(c.Scryfall.RequestTimeout); err != nil {
		errs = append(errs, fmt.Errorf("scryfall.request_timeout: %w", err))
	}
	if c.Cache.CardMaxSize <= 0 {
		errs = append(errs, fmt.Errorf("cache.card_max_size must be positive, got %d", c.Cache.CardMaxSize))
	}
	if c.Cache.SearchMaxSize <= 0 {
		errs = append(errs, fmt.Errorf("cache.search_max_size must be positive, got %d", c.Cache.SearchMaxSize))
	}
	if d, err := time.ParseDuration(c.Cache.TTL); err != nil {
		errs = append(errs, fmt.Errorf("cache.ttl: %w", err))
	} else if d <= 0 {
		errs = append(errs, fmt.Errorf("cache.ttl must be positive, got %q", c.Cache.TTL))
	}
	if c.Template.LandsTarget <= 0 {
		errs = append(errs, fmt.Errorf("template.lands_target must be positive, got %d", c.Template.LandsTarget))
	}

	return errors.Join(errs...)
}

// Timeout returns the parsed provider request timeout.
func (c *ScryfallConfig) Timeout() time.Duration {
	d, err := time.ParseDuration(c.RequestTimeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// CacheTTL returns the parsed cache entry time-to-live.
func (c *CacheConfig) CacheTTL() time.Duration {
	d, err := time.ParseDuration(c.TTL)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}

// StoragePath resolves the sqlite database path, defaulting under the config
// directory.
func (c *StorageConfig) StoragePath() (string, error) {
	if c.Path != "" {
		return c.Path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".commandzone", "cards.db"), nil
}
