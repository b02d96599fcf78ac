package mcp

import (
	"fmt"
	"strings"

	"github.com/ramonehamilton/commandzone/internal/config"
)

// templateText renders the Command Zone template with the configured targets.
func templateText(cfg config.TemplateConfig) string {
	var b strings.Builder

	b.WriteString("# The Command Zone Deckbuilding Template\n\n")
	b.WriteString("A framework for building balanced Commander decks, popularized by The Command Zone podcast.\n")
	b.WriteString("Cards can count toward more than one category, so the targets sum past 99.\n\n")

	b.WriteString("## Category Targets\n\n")
	fmt.Fprintf(&b, "- **Ramp**: %d-%d cards. Mana acceleration: mana rocks, mana dorks, land ramp spells, cost reducers.\n",
		cfg.Ramp.Minimum, cfg.Ramp.Optimal)
	fmt.Fprintf(&b, "- **Card Advantage**: %d-%d cards. Ways to draw or generate extra cards each turn.\n",
		cfg.CardAdvantage.Minimum, cfg.CardAdvantage.Optimal)
	fmt.Fprintf(&b, "- **Targeted Disruption**: %d cards. Single-target removal and counterspells.\n",
		cfg.TargetedDisruption.Minimum)
	fmt.Fprintf(&b, "- **Mass Disruption**: %d cards. Board wipes and other symmetric resets.\n",
		cfg.MassDisruption.Minimum)
	fmt.Fprintf(&b, "- **Lands**: %d (within %d either way). Adjust down with a low curve and plenty of cheap ramp.\n",
		cfg.LandsTarget, cfg.LandsTolerance)
	fmt.Fprintf(&b, "- **Plan Cards**: %d-%d cards. The cards that actually advance your game plan: win conditions, synergy pieces, theme cards.\n\n",
		cfg.PlanCards.Minimum, cfg.PlanCards.Optimal)

	b.WriteString("## Principles\n\n")
	b.WriteString("- Count every card honestly: a draw spell stapled to a creature counts for both categories.\n")
	b.WriteString("- One-shot mana bursts that last only until end of turn are not ramp.\n")
	b.WriteString("- A deck short on card advantage runs out of gas; a deck short on disruption loses to the best deck at the table.\n")
	b.WriteString("- Fill remaining slots with plan cards that push toward how the deck wins.\n")

	return b.String()
}
