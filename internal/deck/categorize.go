package deck

import (
	"strings"
)

// CategoryRules holds the keyword sets driving automatic categorisation.
// The rule shapes are fixed; the keyword lists are a configuration surface.
type CategoryRules struct {
	// RampManaPhrases mark mana acceleration on artifacts, creatures and
	// enchantments (produces mana beyond land drops, or reduces costs).
	RampManaPhrases []string
	// RampSpellPhrases mark dedicated ramp spells (land tutoring).
	RampSpellPhrases []string
	// RampExcludePhrases drop one-shot burst effects from ramp by policy.
	RampExcludePhrases []string

	// DrawPhrases mark recurring draw, impulse draw and selection framed as
	// advantage. A lone one-time "draw a card" does not count.
	DrawPhrases []string

	// TargetedPhrases mark single-target interaction.
	TargetedPhrases []string

	// MassPhrases mark symmetric or board-wide effects.
	MassPhrases []string
	// MassDisruptionNames lists cards treated as mass disruption by
	// convention regardless of their text (e.g. blanket protection effects).
	MassDisruptionNames []string
}

// DefaultCategoryRules returns the stock Command Zone keyword sets.
func DefaultCategoryRules() CategoryRules {
	return CategoryRules{
		RampManaPhrases: []string{
			"add {", "add one mana", "add two mana", "add three mana",
			"spells you cast cost {1} less", "costs {1} less to cast",
		},
		RampSpellPhrases: []string{
			"search your library for a basic land",
			"search your library for a land",
			"search your library for up to two basic land",
			"put it onto the battlefield",
		},
		RampExcludePhrases: []string{
			"until end of turn",
		},
		DrawPhrases: []string{
			"draw two cards", "draw three cards", "draw x cards",
			"draws a card", "draw a card for each",
			"whenever you draw a card",
			"you may play the top card of your library",
			"exile the top card of your library",
			"look at the top",
		},
		TargetedPhrases: []string{
			"destroy target", "exile target", "counter target",
			"return target", "fight target",
			"deals damage to any target",
		},
		MassPhrases: []string{
			"destroy all", "exile all", "return all",
			"each player sacrifices", "each opponent sacrifices",
			"deals damage to each creature",
			"all creatures get -",
		},
		MassDisruptionNames: []string{
			"Teferi's Protection", "Cyclonic Rift", "Heroic Intervention",
		},
	}
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

// categoriesFor classifies one card. Multi-label: a card may land in several
// categories, and anything that isn't exclusively a land also counts as a
// plan card when no other category claimed it.
func (r CategoryRules) categoriesFor(e Entry) []Category {
	card := e.Card
	typeLine := strings.ToLower(card.TypeLine)
	oracle := strings.ToLower(card.OracleText)

	var out []Category

	isLand := strings.Contains(typeLine, "land")
	if isLand {
		out = append(out, Lands)
	}

	isPermanentRampSource := strings.Contains(typeLine, "artifact") ||
		strings.Contains(typeLine, "creature") ||
		strings.Contains(typeLine, "enchantment")
	switch {
	case isLand:
		// Lands producing mana are counted once, under Lands.
	case isPermanentRampSource && containsAny(oracle, r.RampManaPhrases) && !containsAny(oracle, r.RampExcludePhrases):
		out = append(out, Ramp)
	case containsAny(oracle, r.RampSpellPhrases) && !containsAny(oracle, r.RampExcludePhrases):
		out = append(out, Ramp)
	}

	if containsAny(oracle, r.DrawPhrases) {
		out = append(out, CardAdvantage)
	}

	if containsAny(oracle, r.TargetedPhrases) {
		out = append(out, TargetedDisruption)
	}

	if containsAny(oracle, r.MassPhrases) || containsName(card.Name, r.MassDisruptionNames) {
		out = append(out, MassDisruption)
	}

	// Plan cards: everything that isn't a land and didn't fit any category
	// above contributes to the deck's named strategy.
	if !isLand && len(out) == 0 {
		out = append(out, PlanCards)
	}

	return out
}

func containsName(name string, names []string) bool {
	for _, n := range names {
		if strings.EqualFold(name, n) {
			return true
		}
	}
	return false
}

// Categorize automatically sorts resolved entries into the Command Zone
// categories using the rule set. Used when the caller supplies a flat
// decklist instead of pre-categorised lists.
func Categorize(entries []Entry, rules CategoryRules) CategorizedDeck {
	out := make(CategorizedDeck, len(AllCategories))
	for _, cat := range AllCategories {
		out[cat] = nil
	}
	for _, e := range entries {
		if e.Card == nil {
			continue
		}
		for _, cat := range rules.categoriesFor(e) {
			out[cat] = append(out[cat], e)
		}
	}
	return out
}
