package deck

import (
	"sort"
	"strings"
)

// CurvePoint is one step of a mana curve.
type CurvePoint struct {
	CMC   float64 `json:"cmc"`
	Count int     `json:"count"`
}

// ManaCurve computes the quantity-weighted converted-mana-cost distribution
// of the entries, excluding lands.
func ManaCurve(entries []Entry) []CurvePoint {
	counts := make(map[float64]int)
	for _, e := range entries {
		if e.Card == nil || e.Quantity <= 0 || e.Card.IsLand() {
			continue
		}
		counts[e.Card.CMC] += e.Quantity
	}

	curve := make([]CurvePoint, 0, len(counts))
	for cmc, count := range counts {
		curve = append(curve, CurvePoint{CMC: cmc, Count: count})
	}
	sort.Slice(curve, func(i, j int) bool { return curve[i].CMC < curve[j].CMC })
	return curve
}

// LandAnalysis summarizes the mana base.
type LandAnalysis struct {
	TotalLands int            `json:"total_lands"`
	Sources    map[string]int `json:"sources"` // color name -> producing lands
}

// AnalyzeLands counts lands and the colored sources they provide.
func AnalyzeLands(entries []Entry) LandAnalysis {
	analysis := LandAnalysis{Sources: make(map[string]int, 5)}
	for _, e := range entries {
		if e.Card == nil || e.Quantity <= 0 || !e.Card.IsLand() {
			continue
		}
		analysis.TotalLands += e.Quantity
		for _, sym := range []string{"W", "U", "B", "R", "G"} {
			if strings.Contains(e.Card.OracleText, "{"+sym+"}") ||
				strings.Contains(strings.ToLower(e.Card.OracleText), "any color") {
				analysis.Sources[colorDisplayName(sym)] += e.Quantity
			}
		}
	}
	return analysis
}

func colorDisplayName(sym string) string {
	switch sym {
	case "W":
		return "White"
	case "U":
		return "Blue"
	case "B":
		return "Black"
	case "R":
		return "Red"
	case "G":
		return "Green"
	}
	return sym
}

// TypeCount is one card type with its quantity-weighted count.
type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// CardTypes computes the distribution of primary card types. Cards with
// multiple types (e.g. "Artifact Creature") count once per type.
func CardTypes(entries []Entry) []TypeCount {
	counts := make(map[string]int)
	for _, e := range entries {
		if e.Card == nil || e.Quantity <= 0 {
			continue
		}
		// Primary types precede the em-dash subtype separator.
		primary := e.Card.TypeLine
		if idx := strings.Index(primary, "—"); idx >= 0 {
			primary = primary[:idx]
		}
		for _, t := range strings.Fields(primary) {
			t = strings.TrimRight(t, ",")
			if t != "" && t != "//" {
				counts[t] += e.Quantity
			}
		}
	}

	out := make([]TypeCount, 0, len(counts))
	for t, count := range counts {
		out = append(out, TypeCount{Type: t, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Type < out[j].Type
	})
	return out
}

// ColorSummary is the color-identity breakdown of a deck.
type ColorSummary struct {
	TotalCards   int            `json:"total_cards"`
	Colorless    int            `json:"colorless"`
	Combinations map[string]int `json:"combinations"` // e.g. "UR" -> count
	Individual   map[string]int `json:"individual"`   // color name -> cards containing it
}

// ColorIdentity summarizes color combinations and per-color presence.
func ColorIdentity(entries []Entry) ColorSummary {
	summary := ColorSummary{
		Combinations: make(map[string]int),
		Individual:   make(map[string]int, 5),
	}
	for _, e := range entries {
		if e.Card == nil || e.Quantity <= 0 {
			continue
		}
		summary.TotalCards += e.Quantity
		identity := e.Card.ColorIdentity
		if len(identity) == 0 {
			summary.Colorless += e.Quantity
			continue
		}
		summary.Combinations[strings.Join(identity, "")] += e.Quantity
		for _, sym := range identity {
			summary.Individual[colorDisplayName(sym)] += e.Quantity
		}
	}
	return summary
}
