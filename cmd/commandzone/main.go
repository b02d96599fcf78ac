package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/commandzone/internal/cache"
	"github.com/ramonehamilton/commandzone/internal/cards"
	"github.com/ramonehamilton/commandzone/internal/config"
	"github.com/ramonehamilton/commandzone/internal/deck"
	czmcp "github.com/ramonehamilton/commandzone/internal/mcp"
	"github.com/ramonehamilton/commandzone/internal/resolver"
	"github.com/ramonehamilton/commandzone/internal/scryfall"
	"github.com/ramonehamilton/commandzone/internal/search"
	"github.com/ramonehamilton/commandzone/internal/storage"
)

// Set via ldflags at build time
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func buildVersion() string {
	if commit == "none" {
		return version
	}
	return fmt.Sprintf("%s (%s, %s)", version, commit, date)
}

func main() {
	var configFile string
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "commandzone",
		Short: "Commander deck analysis against the Command Zone template",
		Long: "commandzone resolves Magic card names through Scryfall and evaluates Commander decks " +
			"against the Command Zone deckbuilding template. Run it as an MCP server for use from " +
			"MCP-compatible assistants, or use the subcommands directly.",
	}

	rootCmd.Version = buildVersion()
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file path (default ~/.commandzone/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(serveCmd(&configFile, &verbose))
	rootCmd.AddCommand(lookupCmd(&configFile, &verbose))
	rootCmd.AddCommand(searchCmd(&configFile, &verbose))
	rootCmd.AddCommand(analyzeCmd(&configFile, &verbose))
	rootCmd.AddCommand(validateCmd(&configFile, &verbose))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// app bundles the wired components shared by every subcommand.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	resolver *resolver.Resolver
	searcher *search.Searcher
	store    *storage.Store
}

func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("closing card store", "error", err)
		}
	}
}

// buildApp loads configuration and wires the client, caches, resolver and
// searcher. Logs go to stderr; stdout stays free for MCP framing and command
// output.
func buildApp(configFile string, verbose bool) (*app, error) {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return nil, err
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	client := scryfall.NewClient(scryfall.Config{
		BaseURL:        cfg.Scryfall.APIBase,
		RequestTimeout: cfg.Scryfall.Timeout(),
		MaxRetries:     cfg.Scryfall.MaxRetries,
		UserAgent:      "commandzone/" + version,
	})

	ttl := cfg.Cache.CacheTTL()
	cardCache, err := cache.New[*cards.Card](cfg.Cache.CardMaxSize, ttl)
	if err != nil {
		return nil, fmt.Errorf("card cache: %w", err)
	}
	searchCache, err := cache.New[search.Page](cfg.Cache.SearchMaxSize, ttl)
	if err != nil {
		return nil, fmt.Errorf("search cache: %w", err)
	}

	opts := []resolver.Option{resolver.WithLogger(logger)}

	var store *storage.Store
	if cfg.Storage.Enabled {
		path, err := cfg.Storage.StoragePath()
		if err != nil {
			return nil, err
		}
		store, err = storage.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open card store: %w", err)
		}
		opts = append(opts, resolver.WithStore(store))
	}

	res := resolver.New(client, cardCache, cfg.Scryfall.BatchSize, opts...)
	searcher := search.NewSearcher(client, searchCache, search.ColorSubset, logger)

	return &app{
		cfg:      cfg,
		logger:   logger,
		resolver: res,
		searcher: searcher,
		store:    store,
	}, nil
}

func loadConfig(configFile string) (*config.Config, error) {
	if configFile != "" {
		return config.LoadFrom(configFile)
	}
	return config.Load()
}

func serveCmd(configFile *string, verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the deck-analysis MCP server over stdio",
		Long: "Start the Model Context Protocol server on stdin/stdout. MCP-compatible assistants " +
			"can then look up cards, search the card database, and analyze Commander decks.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(*configFile, *verbose)
			if err != nil {
				return err
			}
			defer a.close()

			a.logger.Info("starting MCP server", "version", buildVersion())
			server := czmcp.NewServer(a.resolver, a.searcher, a.cfg, a.logger, version)
			return server.Run(context.Background())
		},
	}
}

func lookupCmd(configFile *string, verbose *bool) *cobra.Command {
	var exact bool
	cmd := &cobra.Command{
		Use:     "lookup <name>...",
		Short:   "Look up cards by name",
		Example: "  commandzone lookup \"Sol Ring\" \"Rhystic Study\"\n  commandzone lookup --exact \"Lightning Bolt\"",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(*configFile, *verbose)
			if err != nil {
				return err
			}
			defer a.close()

			results := a.resolver.ResolveMany(cmd.Context(), args, !exact)
			for _, r := range results {
				if r.Err != nil {
					fmt.Fprintf(os.Stderr, "%s: %v\n", r.Requested, r.Err)
					continue
				}
				fmt.Println(r.Card.Describe())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&exact, "exact", false, "Disable fuzzy matching")
	return cmd
}

func searchCmd(configFile *string, verbose *bool) *cobra.Command {
	var name, types, colors, cmcOp string
	var cmcValue float64
	var limit int

	cmd := &cobra.Command{
		Use:     "search",
		Short:   "Search cards by name, colors, type, or mana cost",
		Example: "  commandzone search --name dragon --colors R\n  commandzone search --types instant --cmc-op '<=' --cmc 2",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(*configFile, *verbose)
			if err != nil {
				return err
			}
			defer a.close()

			criteria := search.Criteria{
				Name:  name,
				Types: types,
			}
			if colors != "" {
				for _, sym := range strings.Split(colors, ",") {
					criteria.Colors = append(criteria.Colors, strings.TrimSpace(sym))
				}
			}
			if cmd.Flags().Changed("cmc") {
				op := cmcOp
				if op == "" {
					op = "="
				}
				criteria.CMC = &search.CMCFilter{Op: search.Comparator(op), Value: cmcValue}
			}

			page, err := a.searcher.Search(cmd.Context(), criteria)
			if err != nil {
				return err
			}

			shown := page.Cards
			if limit > 0 && len(shown) > limit {
				shown = shown[:limit]
			}
			for _, c := range shown {
				fmt.Printf("%-40s %-8s %s\n", c.Name, c.ManaCost, c.TypeLine)
			}
			fmt.Printf("\n%d of %d matches shown\n", len(shown), page.TotalCards)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Partial card name")
	cmd.Flags().StringVar(&types, "types", "", "Card type (e.g. creature)")
	cmd.Flags().StringVar(&colors, "colors", "", "Comma-separated color symbols (W,U,B,R,G)")
	cmd.Flags().StringVar(&cmcOp, "cmc-op", "", "CMC comparator: = < <= > >=")
	cmd.Flags().Float64Var(&cmcValue, "cmc", 0, "CMC value")
	cmd.Flags().IntVar(&limit, "limit", 20, "Max results to show")
	return cmd
}

func analyzeCmd(configFile *string, verbose *bool) *cobra.Command {
	var commander string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:     "analyze <decklist-file>",
		Short:   "Analyze a Commander deck against the Command Zone template",
		Long:    "Read a decklist file (one card per line, quantities like '4 Forest' allowed) and score it against the Command Zone category targets.",
		Example: "  commandzone analyze deck.txt --commander \"Atraxa, Praetors' Voice\"",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if commander == "" {
				return fmt.Errorf("--commander is required")
			}

			entries, err := readDecklist(args[0])
			if err != nil {
				return err
			}

			a, err := buildApp(*configFile, *verbose)
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			commanderCard, err := a.resolver.ResolveOne(ctx, commander)
			if err != nil {
				return fmt.Errorf("resolve commander %q: %w", commander, err)
			}

			lines, validation := deck.ValidateDeck(commander, entries, a.cfg.Validation)

			names := make([]string, len(lines))
			for i, l := range lines {
				names[i] = l.Name
			}
			results := a.resolver.ResolveMany(ctx, names, true)

			deckEntries := make([]deck.Entry, 0, len(lines))
			for i, r := range results {
				if r.Err != nil {
					fmt.Fprintf(os.Stderr, "skipping %s: %v\n", r.Requested, r.Err)
					continue
				}
				deckEntries = append(deckEntries, deck.Entry{Card: r.Card, Quantity: lines[i].Quantity})
			}

			categorized := deck.Categorize(deckEntries, deck.DefaultCategoryRules())
			evaluation := deck.Evaluate(commanderCard, categorized, a.cfg.Template)

			if jsonOut {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					Evaluation deck.EvaluationResult `json:"evaluation"`
					Validation deck.ValidationResult `json:"validation"`
				}{evaluation, validation})
			}

			printEvaluation(evaluation, validation)
			return nil
		},
	}
	cmd.Flags().StringVar(&commander, "commander", "", "Commander card name")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of text")
	_ = cmd.MarkFlagRequired("commander")
	return cmd
}

func validateCmd(configFile *string, verbose *bool) *cobra.Command {
	var commander string

	cmd := &cobra.Command{
		Use:   "validate <decklist-file>",
		Short: "Validate a decklist without analyzing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := readDecklist(args[0])
			if err != nil {
				return err
			}

			cfg, err := loadConfig(*configFile)
			if err != nil {
				return err
			}

			_, validation := deck.ValidateDeck(commander, entries, cfg.Validation)
			for _, e := range validation.Errors {
				fmt.Println("error:", e)
			}
			for _, w := range validation.Warnings {
				fmt.Println("warning:", w)
			}
			if validation.Valid {
				fmt.Println("decklist is valid")
				return nil
			}
			return fmt.Errorf("decklist has %d error(s)", len(validation.Errors))
		},
	}
	cmd.Flags().StringVar(&commander, "commander", "", "Commander card name (counts toward the 100-card total)")
	return cmd
}

// readDecklist reads one card entry per line, skipping blanks and comments.
func readDecklist(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read decklist: %w", err)
	}
	var entries []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}
		entries = append(entries, line)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("decklist %s is empty", path)
	}
	return entries, nil
}

func printEvaluation(ev deck.EvaluationResult, validation deck.ValidationResult) {
	fmt.Printf("Commander: %s (%s)\n", ev.Commander.Name, strings.Join(ev.Commander.ColorIdentity, ""))
	fmt.Printf("Balance score: %.2f\n\n", ev.BalanceScore)

	fmt.Printf("%-22s %8s %8s %8s  %s\n", "CATEGORY", "COUNT", "MIN", "OPTIMAL", "STATUS")
	for _, cat := range ev.Categories {
		fmt.Printf("%-22s %8d %8d %8d  %s\n", cat.DisplayName, cat.Count, cat.MinTarget, cat.OptimalTarget, cat.Status)
	}

	if len(ev.Recommendations) > 0 {
		fmt.Println("\nRecommendations:")
		for _, rec := range ev.Recommendations {
			fmt.Printf("  - %s\n", rec.Message)
		}
	}

	if len(ev.Excluded) > 0 {
		fmt.Println("\nExcluded from scoring:")
		for _, ex := range ev.Excluded {
			fmt.Printf("  - %s: %s\n", ex.Name, ex.Reason)
		}
	}

	if len(validation.Errors) > 0 || len(validation.Warnings) > 0 {
		fmt.Println("\nValidation:")
		for _, e := range validation.Errors {
			fmt.Println("  error:", e)
		}
		for _, w := range validation.Warnings {
			fmt.Println("  warning:", w)
		}
	}
}
