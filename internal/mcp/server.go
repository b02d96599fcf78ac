// Package mcp exposes the card lookup, search and deck analysis operations
// as Model Context Protocol tools over stdio.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ramonehamilton/commandzone/internal/cards"
	"github.com/ramonehamilton/commandzone/internal/config"
	"github.com/ramonehamilton/commandzone/internal/deck"
	"github.com/ramonehamilton/commandzone/internal/resolver"
	"github.com/ramonehamilton/commandzone/internal/search"
)

// Server wraps the MCP server with the resolution and analysis components.
type Server struct {
	resolver *resolver.Resolver
	searcher *search.Searcher
	cfg      *config.Config
	logger   *slog.Logger
	server   *mcp.Server
}

// NewServer creates the deck-analysis MCP server.
func NewServer(res *resolver.Resolver, searcher *search.Searcher, cfg *config.Config, logger *slog.Logger, version string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		resolver: res,
		searcher: searcher,
		cfg:      cfg,
		logger:   logger,
	}

	impl := &mcp.Implementation{
		Name:    "commandzone",
		Version: version,
	}

	s.server = mcp.NewServer(impl, nil)
	s.registerTools()
	s.registerResources()

	return s
}

// Run starts the MCP server on stdio.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// registerTools adds all deck-analysis tools to the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name: "lookup_cards",
		Description: "Look up Magic cards by name with fuzzy matching - ESSENTIAL FIRST STEP for deck analysis. " +
			"Uses batch operations (up to 75 cards per request) for efficient API usage. " +
			"Every name that cannot be resolved is reported individually with its original spelling so it can be corrected.",
	}, s.handleLookupCards)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "search_cards",
		Description: "Search the Magic card database by name, color identity, type line, or converted mana cost. " +
			"Use when users want cards matching specific criteria or need recommendations " +
			"(e.g. 'find red dragons', 'show me 3-mana artifacts', 'search for counterspells').",
	}, s.handleSearchCards)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "analyze_commander_deck",
		Description: "Analyze a Commander deck against the Command Zone template. " +
			"Resolves every card, validates format compliance, sorts cards into the six template categories " +
			"(ramp, card advantage, targeted disruption, mass disruption, lands, plan cards), and returns a balance " +
			"score with prioritized improvement recommendations. Pass pre-categorized lists in 'categories' to " +
			"override the automatic categorisation.",
	}, s.handleAnalyzeCommanderDeck)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "validate_deck",
		Description: "Validate a Commander decklist without analyzing it: quantity parsing ('4 Forest', '4x Forest'), " +
			"100-card total, and the singleton rule with basic-land exemption. Returns per-line errors and warnings.",
	}, s.handleValidateDeck)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "calculate_mana_curve",
		Description: "Calculate the mana curve for a list of cards - the converted mana cost distribution excluding lands. " +
			"Use for deck speed questions and mana base optimization.",
	}, s.handleManaCurve)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "analyze_lands",
		Description: "Analyze the land base: total land count and colored mana sources per color. " +
			"Use for mana base evaluation and color fixing questions.",
	}, s.handleAnalyzeLands)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "analyze_card_types",
		Description: "Analyze card type distribution (creatures, instants, artifacts, ...) across a list of cards.",
	}, s.handleCardTypes)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "analyze_color_identity",
		Description: "Analyze color identity distribution: color combinations, colorless count, and per-color presence.",
	}, s.handleColorIdentity)
}

// registerResources adds the Command Zone template resource.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         "commandzone://template",
		Name:        "command-zone-template",
		Description: "The Command Zone deckbuilding template: category targets and principles for balanced Commander decks.",
		MIMEType:    "text/markdown",
	}, s.handleTemplateResource)
}

func (s *Server) handleTemplateResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      "commandzone://template",
			MIMEType: "text/markdown",
			Text:     templateText(s.cfg.Template),
		}},
	}, nil
}

// LookupCardsArgs defines the input for lookup_cards.
type LookupCardsArgs struct {
	Names []string `json:"names" jsonschema:"Card names to look up (fuzzy matching tolerates minor misspellings)"`
	Exact bool     `json:"exact,omitempty" jsonschema:"Disable fuzzy fallback; unmatched names fail instead of being matched approximately"`
}

// CardResult is one resolved card in a lookup result.
type CardResult struct {
	Requested string      `json:"requested"`
	Card      *cards.Card `json:"card,omitempty"`
	Error     string      `json:"error,omitempty"`
	Retryable bool        `json:"retryable,omitempty"`
}

// LookupCardsResult is the output of lookup_cards.
type LookupCardsResult struct {
	Results  []CardResult `json:"results"`
	Found    int          `json:"found"`
	NotFound []string     `json:"not_found,omitempty"`
}

func (s *Server) handleLookupCards(ctx context.Context, req *mcp.CallToolRequest, args LookupCardsArgs) (*mcp.CallToolResult, any, error) {
	if len(args.Names) == 0 {
		return nil, nil, fmt.Errorf("no card names provided")
	}

	results := s.resolver.ResolveMany(ctx, args.Names, !args.Exact)

	out := LookupCardsResult{Results: make([]CardResult, 0, len(results))}
	for _, r := range results {
		cr := CardResult{Requested: r.Requested}
		if r.Err != nil {
			cr.Error = r.Err.Error()
			if re, ok := resolver.AsResolutionError(r.Err); ok {
				cr.Retryable = re.Retryable()
			}
			out.NotFound = append(out.NotFound, r.Requested)
		} else {
			cr.Card = r.Card
			out.Found++
		}
		out.Results = append(out.Results, cr)
	}

	return nil, out, nil
}

// SearchCardsArgs defines the input for search_cards.
type SearchCardsArgs struct {
	Name     string   `json:"name,omitempty" jsonschema:"Partial card name (e.g. dragon, bolt)"`
	Colors   []string `json:"colors,omitempty" jsonschema:"Color identity symbols from W U B R G"`
	Types    string   `json:"types,omitempty" jsonschema:"Card type filter matched against the type line (e.g. creature, instant)"`
	CmcOp    string   `json:"cmc_op,omitempty" jsonschema:"CMC comparator: one of = < <= > >="`
	CmcValue *float64 `json:"cmc_value,omitempty" jsonschema:"CMC value to compare against"`
	Limit    int      `json:"limit,omitempty" jsonschema:"Max results (1-25, default 10)"`
}

// SearchCardsResult is the output of search_cards.
type SearchCardsResult struct {
	Query      string       `json:"query"`
	Cards      []cards.Card `json:"cards"`
	TotalCards int          `json:"total_cards"`
	Truncated  bool         `json:"truncated"`
}

func (s *Server) handleSearchCards(ctx context.Context, req *mcp.CallToolRequest, args SearchCardsArgs) (*mcp.CallToolResult, any, error) {
	criteria := search.Criteria{
		Name:   args.Name,
		Colors: args.Colors,
		Types:  args.Types,
	}
	if args.CmcOp != "" || args.CmcValue != nil {
		if args.CmcOp == "" || args.CmcValue == nil {
			return nil, nil, fmt.Errorf("cmc_op and cmc_value must be provided together")
		}
		criteria.CMC = &search.CMCFilter{Op: search.Comparator(args.CmcOp), Value: *args.CmcValue}
	}

	limit := args.Limit
	if limit < 1 {
		limit = 10
	}
	if limit > 25 {
		limit = 25
	}

	page, err := s.searcher.Search(ctx, criteria)
	if err != nil {
		return nil, nil, err
	}

	out := SearchCardsResult{
		Query:      criteria.Query(s.searcher.Mode()),
		Cards:      page.Cards,
		TotalCards: page.TotalCards,
	}
	if len(out.Cards) > limit {
		out.Cards = out.Cards[:limit]
		out.Truncated = true
	}

	return nil, out, nil
}

// AnalyzeDeckArgs defines the input for analyze_commander_deck.
type AnalyzeDeckArgs struct {
	Commander  string              `json:"commander" jsonschema:"The commander card name (e.g. Atraxa, Praetors' Voice)"`
	Decklist   []string            `json:"decklist" jsonschema:"The 99 deck cards excluding the commander; lines may carry quantities like '4 Forest' or '4x Forest'"`
	Categories map[string][]string `json:"categories,omitempty" jsonschema:"Optional pre-categorized lists keyed by ramp, card_advantage, targeted_disruption, mass_disruption, lands, plan_cards; overrides automatic categorisation"`
}

// AnalyzeDeckResult is the output of analyze_commander_deck.
type AnalyzeDeckResult struct {
	Evaluation deck.EvaluationResult `json:"evaluation"`
	Validation deck.ValidationResult `json:"validation"`
	Unresolved []CardResult          `json:"unresolved,omitempty"`
}

func (s *Server) handleAnalyzeCommanderDeck(ctx context.Context, req *mcp.CallToolRequest, args AnalyzeDeckArgs) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(args.Commander) == "" || len(args.Decklist) == 0 {
		return nil, nil, fmt.Errorf("both commander and decklist are required")
	}

	commander, err := s.resolver.ResolveOne(ctx, args.Commander)
	if err != nil {
		return nil, nil, fmt.Errorf("could not find commander %q, please check the spelling: %w", args.Commander, err)
	}

	lines, validation := deck.ValidateDeck(args.Commander, args.Decklist, s.cfg.Validation)

	entries, unresolved := s.resolveLines(ctx, lines)

	var categorized deck.CategorizedDeck
	if len(args.Categories) > 0 {
		categorized, err = s.resolveCategorized(ctx, args.Categories, &unresolved)
		if err != nil {
			return nil, nil, err
		}
	} else {
		categorized = deck.Categorize(entries, deck.DefaultCategoryRules())
	}

	evaluation := deck.Evaluate(commander, categorized, s.cfg.Template)

	// Unresolved cards are excluded from scoring, never silently dropped.
	for _, u := range unresolved {
		evaluation.Excluded = append(evaluation.Excluded, deck.ExcludedEntry{
			Name:   u.Requested,
			Reason: u.Error,
		})
	}

	return nil, AnalyzeDeckResult{
		Evaluation: evaluation,
		Validation: validation,
		Unresolved: unresolved,
	}, nil
}

// resolveLines resolves parsed decklist lines into deck entries, collecting
// per-name failures.
func (s *Server) resolveLines(ctx context.Context, lines []deck.Line) ([]deck.Entry, []CardResult) {
	names := make([]string, len(lines))
	for i, line := range lines {
		names[i] = line.Name
	}

	results := s.resolver.ResolveMany(ctx, names, true)

	entries := make([]deck.Entry, 0, len(lines))
	var unresolved []CardResult
	for i, r := range results {
		if r.Err != nil {
			cr := CardResult{Requested: r.Requested, Error: r.Err.Error()}
			if re, ok := resolver.AsResolutionError(r.Err); ok {
				cr.Retryable = re.Retryable()
			}
			unresolved = append(unresolved, cr)
			continue
		}
		entries = append(entries, deck.Entry{Card: r.Card, Quantity: lines[i].Quantity})
	}
	return entries, unresolved
}

// resolveCategorized resolves caller-supplied category lists.
func (s *Server) resolveCategorized(ctx context.Context, categories map[string][]string, unresolved *[]CardResult) (deck.CategorizedDeck, error) {
	categorized := make(deck.CategorizedDeck, len(categories))
	for name, list := range categories {
		cat := deck.Category(strings.ToLower(strings.TrimSpace(name)))
		if !validCategory(cat) {
			return nil, fmt.Errorf("unknown category %q", name)
		}
		lines, _ := deck.ParseDecklist(list, s.cfg.Validation)
		entries, failed := s.resolveLines(ctx, lines)
		categorized[cat] = entries
		*unresolved = append(*unresolved, failed...)
	}
	return categorized, nil
}

func validCategory(cat deck.Category) bool {
	for _, c := range deck.AllCategories {
		if c == cat {
			return true
		}
	}
	return false
}

// ValidateDeckArgs defines the input for validate_deck.
type ValidateDeckArgs struct {
	Commander string   `json:"commander" jsonschema:"The commander card name"`
	Decklist  []string `json:"decklist" jsonschema:"Deck card entries with optional quantities"`
}

// ValidateDeckResult is the output of validate_deck.
type ValidateDeckResult struct {
	Lines      []deck.Line           `json:"lines"`
	Validation deck.ValidationResult `json:"validation"`
}

func (s *Server) handleValidateDeck(ctx context.Context, req *mcp.CallToolRequest, args ValidateDeckArgs) (*mcp.CallToolResult, any, error) {
	lines, validation := deck.ValidateDeck(args.Commander, args.Decklist, s.cfg.Validation)
	return nil, ValidateDeckResult{Lines: lines, Validation: validation}, nil
}

// CardListArgs is the shared input for the list-based analysis tools.
type CardListArgs struct {
	CardNames []string `json:"card_names" jsonschema:"Card names to analyze; lines may carry quantities like '4 Forest'"`
}

// resolveList parses and resolves a flat card list for the analysis tools.
func (s *Server) resolveList(ctx context.Context, names []string) ([]deck.Entry, []CardResult, error) {
	if len(names) == 0 {
		return nil, nil, fmt.Errorf("no card names provided")
	}
	lines, _ := deck.ParseDecklist(names, s.cfg.Validation)
	entries, unresolved := s.resolveLines(ctx, lines)
	return entries, unresolved, nil
}

// ManaCurveResult is the output of calculate_mana_curve.
type ManaCurveResult struct {
	Curve    []deck.CurvePoint `json:"curve"`
	NotFound []CardResult      `json:"not_found,omitempty"`
}

func (s *Server) handleManaCurve(ctx context.Context, req *mcp.CallToolRequest, args CardListArgs) (*mcp.CallToolResult, any, error) {
	entries, unresolved, err := s.resolveList(ctx, args.CardNames)
	if err != nil {
		return nil, nil, err
	}
	return nil, ManaCurveResult{Curve: deck.ManaCurve(entries), NotFound: unresolved}, nil
}

// LandAnalysisResult is the output of analyze_lands.
type LandAnalysisResult struct {
	Analysis deck.LandAnalysis `json:"analysis"`
	NotFound []CardResult      `json:"not_found,omitempty"`
}

func (s *Server) handleAnalyzeLands(ctx context.Context, req *mcp.CallToolRequest, args CardListArgs) (*mcp.CallToolResult, any, error) {
	entries, unresolved, err := s.resolveList(ctx, args.CardNames)
	if err != nil {
		return nil, nil, err
	}
	return nil, LandAnalysisResult{Analysis: deck.AnalyzeLands(entries), NotFound: unresolved}, nil
}

// CardTypesResult is the output of analyze_card_types.
type CardTypesResult struct {
	Types    []deck.TypeCount `json:"types"`
	NotFound []CardResult     `json:"not_found,omitempty"`
}

func (s *Server) handleCardTypes(ctx context.Context, req *mcp.CallToolRequest, args CardListArgs) (*mcp.CallToolResult, any, error) {
	entries, unresolved, err := s.resolveList(ctx, args.CardNames)
	if err != nil {
		return nil, nil, err
	}
	return nil, CardTypesResult{Types: deck.CardTypes(entries), NotFound: unresolved}, nil
}

// ColorIdentityResult is the output of analyze_color_identity.
type ColorIdentityResult struct {
	Summary  deck.ColorSummary `json:"summary"`
	NotFound []CardResult      `json:"not_found,omitempty"`
}

func (s *Server) handleColorIdentity(ctx context.Context, req *mcp.CallToolRequest, args CardListArgs) (*mcp.CallToolResult, any, error) {
	entries, unresolved, err := s.resolveList(ctx, args.CardNames)
	if err != nil {
		return nil, nil, err
	}
	return nil, ColorIdentityResult{Summary: deck.ColorIdentity(entries), NotFound: unresolved}, nil
}
