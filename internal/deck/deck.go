// Package deck implements the Command Zone deck evaluation: categorisation
// of resolved cards into the six-category template, balance scoring against
// configured targets, and improvement recommendations.
package deck

import (
	"github.com/ramonehamilton/commandzone/internal/cards"
)

// Category is one of the six Command Zone evaluation categories.
type Category string

// The Command Zone template categories. A card may belong to several at
// once; overlap is expected and meaningful.
const (
	Ramp               Category = "ramp"
	CardAdvantage      Category = "card_advantage"
	TargetedDisruption Category = "targeted_disruption"
	MassDisruption     Category = "mass_disruption"
	Lands              Category = "lands"
	PlanCards          Category = "plan_cards"
)

// AllCategories lists the categories in template order.
var AllCategories = []Category{Ramp, CardAdvantage, TargetedDisruption, MassDisruption, Lands, PlanCards}

// DisplayName returns the human-readable category name.
func (c Category) DisplayName() string {
	switch c {
	case Ramp:
		return "Ramp"
	case CardAdvantage:
		return "Card Advantage"
	case TargetedDisruption:
		return "Targeted Disruption"
	case MassDisruption:
		return "Mass Disruption"
	case Lands:
		return "Lands"
	case PlanCards:
		return "Plan Cards"
	default:
		return string(c)
	}
}

// Entry is one decklist line: a resolved card with its quantity.
type Entry struct {
	Card     *cards.Card
	Quantity int
}

// CategorizedDeck maps each category to its entries. This is the evaluator's
// primary input: the caller supplies the lists, the evaluator computes
// counts, overlap and scoring.
type CategorizedDeck map[Category][]Entry
