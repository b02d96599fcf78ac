package deck

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ramonehamilton/commandzone/internal/cards"
	"github.com/ramonehamilton/commandzone/internal/config"
)

// Category status labels.
const (
	StatusOptimal      = "optimal"
	StatusAdequate     = "adequate"
	StatusInsufficient = "insufficient"
)

// CommanderInfo summarizes the commander for the evaluation result.
type CommanderInfo struct {
	Name          string   `json:"name"`
	Colors        []string `json:"colors"`
	ColorIdentity []string `json:"color_identity"`
}

// CategoryReport holds the per-category evaluation.
type CategoryReport struct {
	Category      Category `json:"category"`
	DisplayName   string   `json:"display_name"`
	Count         int      `json:"count"`
	MinTarget     int      `json:"min_target"`
	OptimalTarget int      `json:"optimal_target"`
	Status        string   `json:"status"`
	Score         float64  `json:"score"`
	Cards         []string `json:"cards"`
}

// Recommendation suggests an improvement for a category below target.
type Recommendation struct {
	Category    Category `json:"category"`
	DisplayName string   `json:"display_name"`
	Count       int      `json:"count"`
	Target      int      `json:"target"`
	Shortfall   float64  `json:"shortfall"`
	Message     string   `json:"message"`
}

// ExcludedEntry records a decklist entry the evaluator could not score.
// Excluded entries are reported, never silently dropped.
type ExcludedEntry struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Reason   string `json:"reason"`
}

// EvaluationResult is the structured output of a Command Zone evaluation.
type EvaluationResult struct {
	Commander       CommanderInfo        `json:"commander"`
	Categories      []CategoryReport     `json:"categories"`
	Counts          map[Category]int     `json:"counts"`
	BalanceScore    float64              `json:"balance_score"`
	Recommendations []Recommendation     `json:"recommendations"`
	Excluded        []ExcludedEntry      `json:"excluded,omitempty"`
	UniqueCards     int                  `json:"unique_cards"`
	DeckCards       int                  `json:"deck_cards"`
	FormatValid     bool                 `json:"format_valid"`
	OverlapStatus   string               `json:"overlap_status"`
}

// targetFor resolves the configured (minimum, optimal, weight) for a category.
func targetFor(cfg config.TemplateConfig, cat Category) (int, int, float64) {
	switch cat {
	case Ramp:
		return cfg.Ramp.Minimum, cfg.Ramp.Optimal, cfg.Ramp.Weight
	case CardAdvantage:
		return cfg.CardAdvantage.Minimum, cfg.CardAdvantage.Optimal, cfg.CardAdvantage.Weight
	case TargetedDisruption:
		return cfg.TargetedDisruption.Minimum, cfg.TargetedDisruption.Optimal, cfg.TargetedDisruption.Weight
	case MassDisruption:
		return cfg.MassDisruption.Minimum, cfg.MassDisruption.Optimal, cfg.MassDisruption.Weight
	case Lands:
		// Lands score 1.0 once the target is met within the tolerance band.
		return cfg.LandsTarget - cfg.LandsTolerance, cfg.LandsTarget, cfg.LandsWeight
	case PlanCards:
		return cfg.PlanCards.Minimum, cfg.PlanCards.Optimal, cfg.PlanCards.Weight
	default:
		return 0, 0, 0
	}
}

// Evaluate scores a categorized deck against the Command Zone template.
// The caller-supplied category lists are trusted; the evaluator computes
// counts, overlap and scoring. Invalid entries are excluded and reported,
// the remaining entries still score.
func Evaluate(commander *cards.Card, categorized CategorizedDeck, cfg config.TemplateConfig) EvaluationResult {
	result := EvaluationResult{
		Counts: make(map[Category]int, len(AllCategories)),
	}

	if commander != nil {
		result.Commander = CommanderInfo{
			Name:          commander.Name,
			Colors:        commander.ColorNames(),
			ColorIdentity: commander.ColorIdentity,
		}
	}

	// Per-category counts, with invalid entries excluded but reported.
	// Quantities contribute fully: a card with quantity 4 adds 4 to its
	// category's count.
	quantityByName := make(map[string]int)
	totalCategorized := 0
	var totalWeight, weightedScore float64

	for _, cat := range AllCategories {
		minTarget, optimalTarget, weight := targetFor(cfg, cat)

		count := 0
		var names []string
		for _, e := range categorized[cat] {
			if e.Card == nil || strings.TrimSpace(e.Card.Name) == "" {
				result.Excluded = append(result.Excluded, ExcludedEntry{
					Quantity: e.Quantity,
					Reason:   "unresolved card",
				})
				continue
			}
			if e.Quantity <= 0 {
				result.Excluded = append(result.Excluded, ExcludedEntry{
					Name:     e.Card.Name,
					Quantity: e.Quantity,
					Reason:   "non-positive quantity",
				})
				continue
			}
			count += e.Quantity
			names = append(names, e.Card.Name)
			if e.Quantity > quantityByName[e.Card.Name] {
				quantityByName[e.Card.Name] = e.Quantity
			}
		}
		totalCategorized += count
		result.Counts[cat] = count

		score := categoryScore(count, minTarget, optimalTarget, cat == Lands)
		weightedScore += score * weight
		totalWeight += weight

		status := StatusInsufficient
		switch {
		case count >= optimalTarget:
			status = StatusOptimal
		case count >= minTarget:
			status = StatusAdequate
		}

		result.Categories = append(result.Categories, CategoryReport{
			Category:      cat,
			DisplayName:   cat.DisplayName(),
			Count:         count,
			MinTarget:     minTarget,
			OptimalTarget: optimalTarget,
			Status:        status,
			Score:         score,
			Cards:         names,
		})

		if count < minTarget {
			shortfall := float64(minTarget-count) / float64(minTarget)
			result.Recommendations = append(result.Recommendations, Recommendation{
				Category:    cat,
				DisplayName: cat.DisplayName(),
				Count:       count,
				Target:      minTarget,
				Shortfall:   shortfall,
				Message: fmt.Sprintf("%s: %d of %d minimum (optimal %d) — add at least %d more",
					cat.DisplayName(), count, minTarget, optimalTarget, minTarget-count),
			})
		}
	}

	if totalWeight > 0 {
		result.BalanceScore = weightedScore / totalWeight
	}

	// Largest relative shortfall first; template order breaks ties.
	sort.SliceStable(result.Recommendations, func(i, j int) bool {
		return result.Recommendations[i].Shortfall > result.Recommendations[j].Shortfall
	})

	result.UniqueCards = len(quantityByName)
	for _, qty := range quantityByName {
		result.DeckCards += qty
	}
	result.FormatValid = result.DeckCards == 99

	// Overlap: cards serving multiple roles are recommended.
	switch {
	case result.DeckCards == 0:
		result.OverlapStatus = "unknown"
	case float64(totalCategorized) > float64(result.DeckCards)*1.2:
		result.OverlapStatus = "good"
	case float64(totalCategorized) < float64(result.DeckCards)*1.1:
		result.OverlapStatus = "low"
	default:
		result.OverlapStatus = "moderate"
	}

	return result
}

// categoryScore is achieved/optimal capped at 1.0; no bonus credit past the
// target. Lands score 1.0 anywhere inside the tolerance band around the
// land target.
func categoryScore(count, minTarget, optimalTarget int, landsBand bool) float64 {
	if optimalTarget <= 0 {
		return 1
	}
	if count >= optimalTarget {
		return 1
	}
	if landsBand && count >= minTarget {
		return 1
	}
	return float64(count) / float64(optimalTarget)
}
