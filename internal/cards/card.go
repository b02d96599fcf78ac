package cards

import (
	"fmt"
	"strings"

	"github.com/ramonehamilton/commandzone/internal/scryfall"
)

// colorOrder is the canonical WUBRG ordering for color symbols.
var colorOrder = []string{"W", "U", "B", "R", "G"}

var colorNames = map[string]string{
	"W": "White",
	"U": "Blue",
	"B": "Black",
	"R": "Red",
	"G": "Green",
}

// Card is the fixed analysis snapshot of a Magic card. It is populated by
// FromScryfall and never mutated afterwards.
type Card struct {
	Name          string   `json:"name"`
	ManaCost      string   `json:"mana_cost,omitempty"`
	CMC           float64  `json:"cmc"`
	TypeLine      string   `json:"type_line"`
	OracleText    string   `json:"oracle_text,omitempty"`
	ColorIdentity []string `json:"color_identity"`
	Power         string   `json:"power,omitempty"`
	Toughness     string   `json:"toughness,omitempty"`
	PriceUSD      string   `json:"price_usd,omitempty"`
}

// FromScryfall maps a raw Scryfall card onto the analysis record.
// Missing fields default rather than propagating untyped data; multi-face
// cards get their face texts merged so categorisation sees both halves.
func FromScryfall(sc scryfall.Card) *Card {
	card := &Card{
		Name:          sc.Name,
		ManaCost:      sc.ManaCost,
		CMC:           sc.CMC,
		TypeLine:      sc.TypeLine,
		OracleText:    sc.OracleText,
		ColorIdentity: normalizeColors(sc.ColorIdentity),
		Power:         sc.Power,
		Toughness:     sc.Toughness,
	}

	if card.CMC < 0 {
		card.CMC = 0
	}

	if len(sc.CardFaces) > 0 {
		if card.OracleText == "" {
			texts := make([]string, 0, len(sc.CardFaces))
			for _, face := range sc.CardFaces {
				if face.OracleText != "" {
					texts = append(texts, face.OracleText)
				}
			}
			card.OracleText = strings.Join(texts, "\n//\n")
		}
		if card.ManaCost == "" {
			card.ManaCost = sc.CardFaces[0].ManaCost
		}
		if card.TypeLine == "" {
			lines := make([]string, 0, len(sc.CardFaces))
			for _, face := range sc.CardFaces {
				lines = append(lines, face.TypeLine)
			}
			card.TypeLine = strings.Join(lines, " // ")
		}
	}

	if sc.Prices.USD != nil {
		card.PriceUSD = *sc.Prices.USD
	}

	return card
}

// normalizeColors filters a color identity to the WUBRG alphabet in
// canonical order.
func normalizeColors(identity []string) []string {
	present := make(map[string]bool, len(identity))
	for _, c := range identity {
		present[strings.ToUpper(c)] = true
	}

	out := make([]string, 0, len(identity))
	for _, c := range colorOrder {
		if present[c] {
			out = append(out, c)
		}
	}
	return out
}

// IsLand reports whether the card's type line contains the Land type.
func (c *Card) IsLand() bool {
	return strings.Contains(strings.ToLower(c.TypeLine), "land")
}

// ProducedMana returns the colors of mana the card's rules text can add,
// derived from {W}-style symbols following "add" phrasing or appearing in a
// mana ability.
func (c *Card) ProducedMana() []string {
	text := c.OracleText
	if text == "" {
		return nil
	}

	produced := make([]string, 0, len(colorOrder))
	for _, color := range colorOrder {
		if strings.Contains(text, "{"+color+"}") && strings.Contains(strings.ToLower(text), "add") {
			produced = append(produced, color)
		}
	}
	if strings.Contains(strings.ToLower(text), "add one mana of any color") {
		return append([]string{}, colorOrder...)
	}
	return produced
}

// ColorNames returns the card's color identity as display names in WUBRG order.
func (c *Card) ColorNames() []string {
	names := make([]string, 0, len(c.ColorIdentity))
	for _, sym := range c.ColorIdentity {
		if n, ok := colorNames[sym]; ok {
			names = append(names, n)
		}
	}
	return names
}

// ColorName returns the display name of a single color symbol, or the symbol
// itself if unknown.
func ColorName(symbol string) string {
	if n, ok := colorNames[symbol]; ok {
		return n
	}
	return symbol
}

// Describe formats the card as a compact human-readable block.
func (c *Card) Describe() string {
	var b strings.Builder
	b.WriteString("**" + c.Name + "**")
	if c.ManaCost != "" {
		b.WriteString(" " + c.ManaCost)
	}
	b.WriteString("\n" + c.TypeLine)
	if c.Power != "" && c.Toughness != "" {
		b.WriteString(fmt.Sprintf(" %s/%s", c.Power, c.Toughness))
	}
	if c.OracleText != "" {
		b.WriteString("\n\n" + c.OracleText)
	}
	if c.PriceUSD != "" {
		b.WriteString("\n\nPrice (USD): $" + c.PriceUSD)
	}
	return b.String()
}
