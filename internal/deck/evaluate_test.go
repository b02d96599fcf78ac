package deck

import (
	"fmt"
	"testing"

	"github.com/ramonehamilton/commandzone/internal/cards"
	"github.com/ramonehamilton/commandzone/internal/config"
)

// entryList builds n distinct single-copy entries with a name prefix.
func entryList(prefix string, n int) []Entry {
	out := make([]Entry, n)
	for i := range out {
		out[i] = Entry{
			Card:     &cards.Card{Name: fmt.Sprintf("%s %d", prefix, i+1), TypeLine: "Artifact"},
			Quantity: 1,
		}
	}
	return out
}

func balancedDeck() CategorizedDeck {
	return CategorizedDeck{
		Ramp:               entryList("Ramp", 12),
		CardAdvantage:      entryList("Draw", 15),
		TargetedDisruption: entryList("Removal", 12),
		MassDisruption:     entryList("Wipe", 6),
		Lands:              entryList("Land", 38),
		PlanCards:          entryList("Plan", 30),
	}
}

func testCommander() *cards.Card {
	return &cards.Card{
		Name:          "Atraxa, Praetors' Voice",
		TypeLine:      "Legendary Creature — Phyrexian Angel Horror",
		ColorIdentity: []string{"W", "U", "B", "G"},
	}
}

func TestEvaluateBalancedDeck(t *testing.T) {
	result := Evaluate(testCommander(), balancedDeck(), config.Default().Template)

	if result.BalanceScore != 1.0 {
		t.Errorf("balanced deck score = %v, want 1.0", result.BalanceScore)
	}
	if len(result.Recommendations) != 0 {
		t.Errorf("balanced deck produced %d recommendations: %v", len(result.Recommendations), result.Recommendations)
	}
	for _, cat := range result.Categories {
		if cat.Status != StatusOptimal {
			t.Errorf("%s status = %s, want %s", cat.DisplayName, cat.Status, StatusOptimal)
		}
	}
	if result.Commander.Name != "Atraxa, Praetors' Voice" {
		t.Errorf("commander name = %q", result.Commander.Name)
	}
}

func TestEvaluateRampStarvedDeck(t *testing.T) {
	deck := balancedDeck()
	deck[Ramp] = entryList("Ramp", 4)

	result := Evaluate(testCommander(), deck, config.Default().Template)

	if result.BalanceScore >= 1.0 {
		t.Errorf("score = %v, want < 1.0", result.BalanceScore)
	}
	if len(result.Recommendations) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(result.Recommendations))
	}
	rec := result.Recommendations[0]
	if rec.Category != Ramp {
		t.Errorf("recommendation category = %s, want ramp", rec.Category)
	}
	if rec.Count != 4 || rec.Target != 10 {
		t.Errorf("recommendation %d of %d, want 4 of 10", rec.Count, rec.Target)
	}
}

func TestEvaluateRecommendationsOrderedByShortfall(t *testing.T) {
	deck := balancedDeck()
	deck[Ramp] = entryList("Ramp", 8)           // 2 short of 10: shortfall 0.2
	deck[MassDisruption] = entryList("Wipe", 1) // 5 short of 6: shortfall ~0.83

	result := Evaluate(testCommander(), deck, config.Default().Template)

	if len(result.Recommendations) != 2 {
		t.Fatalf("expected 2 recommendations, got %d", len(result.Recommendations))
	}
	if result.Recommendations[0].Category != MassDisruption {
		t.Errorf("largest shortfall should come first, got %s", result.Recommendations[0].Category)
	}
	if result.Recommendations[1].Category != Ramp {
		t.Errorf("second recommendation = %s, want ramp", result.Recommendations[1].Category)
	}
}

func TestEvaluateQuantityWeighting(t *testing.T) {
	deck := CategorizedDeck{
		Ramp: []Entry{
			{Card: &cards.Card{Name: "Sol Ring", TypeLine: "Artifact"}, Quantity: 4},
		},
	}

	result := Evaluate(testCommander(), deck, config.Default().Template)
	if result.Counts[Ramp] != 4 {
		t.Errorf("quantity 4 should contribute 4, got %d", result.Counts[Ramp])
	}
	if result.UniqueCards != 1 {
		t.Errorf("unique cards = %d, want 1", result.UniqueCards)
	}
}

func TestEvaluateLandsToleranceBand(t *testing.T) {
	cfg := config.Default().Template

	for _, tt := range []struct {
		lands      int
		wantScore  float64
		wantStatus string
	}{
		{38, 1.0, StatusOptimal},
		{36, 1.0, StatusAdequate},
		{40, 1.0, StatusOptimal},
		{30, 30.0 / 38.0, StatusInsufficient},
	} {
		deck := balancedDeck()
		deck[Lands] = entryList("Land", tt.lands)
		result := Evaluate(testCommander(), deck, cfg)

		var landsReport *CategoryReport
		for i := range result.Categories {
			if result.Categories[i].Category == Lands {
				landsReport = &result.Categories[i]
			}
		}
		if landsReport == nil {
			t.Fatal("no lands report")
		}
		if landsReport.Score != tt.wantScore {
			t.Errorf("%d lands: score = %v, want %v", tt.lands, landsReport.Score, tt.wantScore)
		}
		if landsReport.Status != tt.wantStatus {
			t.Errorf("%d lands: status = %s, want %s", tt.lands, landsReport.Status, tt.wantStatus)
		}
	}
}

func TestEvaluateExcludesInvalidEntries(t *testing.T) {
	deck := CategorizedDeck{
		Ramp: []Entry{
			{Card: &cards.Card{Name: "Sol Ring", TypeLine: "Artifact"}, Quantity: 1},
			{Card: nil, Quantity: 1},
			{Card: &cards.Card{Name: "Arcane Signet", TypeLine: "Artifact"}, Quantity: 0},
		},
	}

	result := Evaluate(testCommander(), deck, config.Default().Template)

	if result.Counts[Ramp] != 1 {
		t.Errorf("ramp count = %d, want 1 (invalid entries excluded)", result.Counts[Ramp])
	}
	if len(result.Excluded) != 2 {
		t.Fatalf("expected 2 excluded entries, got %d", len(result.Excluded))
	}
	reasons := map[string]bool{}
	for _, ex := range result.Excluded {
		reasons[ex.Reason] = true
	}
	if !reasons["unresolved card"] || !reasons["non-positive quantity"] {
		t.Errorf("unexpected exclusion reasons: %v", result.Excluded)
	}
}

func TestEvaluateOverlapStatus(t *testing.T) {
	// A card in several categories raises the categorized total above the
	// physical card count.
	multiRole := Entry{Card: &cards.Card{Name: "Multi Role", TypeLine: "Artifact"}, Quantity: 1}
	deck := CategorizedDeck{
		Ramp:           {multiRole},
		CardAdvantage:  {multiRole},
		MassDisruption: {multiRole},
	}

	result := Evaluate(testCommander(), deck, config.Default().Template)
	if result.DeckCards != 1 {
		t.Errorf("deck cards = %d, want 1", result.DeckCards)
	}
	if result.OverlapStatus != "good" {
		t.Errorf("overlap status = %s, want good", result.OverlapStatus)
	}

	noOverlap := CategorizedDeck{Ramp: entryList("Ramp", 10)}
	result = Evaluate(testCommander(), noOverlap, config.Default().Template)
	if result.OverlapStatus != "low" {
		t.Errorf("overlap status = %s, want low", result.OverlapStatus)
	}
}

func TestEvaluateFormatValid(t *testing.T) {
	// 99 distinct cards across the categories, no overlap.
	deck := CategorizedDeck{
		Ramp:               entryList("Ramp", 10),
		CardAdvantage:      entryList("Draw", 13),
		TargetedDisruption: entryList("Removal", 12),
		MassDisruption:     entryList("Wipe", 6),
		Lands:              entryList("Land", 38),
		PlanCards:          entryList("Plan", 20),
	}

	result := Evaluate(testCommander(), deck, config.Default().Template)
	if result.DeckCards != 99 {
		t.Fatalf("deck cards = %d, want 99", result.DeckCards)
	}
	if !result.FormatValid {
		t.Error("99-card deck should be format valid")
	}

	deck[PlanCards] = entryList("Plan", 19)
	result = Evaluate(testCommander(), deck, config.Default().Template)
	if result.FormatValid {
		t.Error("98-card deck should not be format valid")
	}
}

func TestEvaluateNilCommander(t *testing.T) {
	result := Evaluate(nil, balancedDeck(), config.Default().Template)
	if result.Commander.Name != "" {
		t.Errorf("nil commander produced name %q", result.Commander.Name)
	}
	if result.BalanceScore != 1.0 {
		t.Errorf("score = %v, want 1.0", result.BalanceScore)
	}
}
