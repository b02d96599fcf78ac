package search

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Comparator is a CMC comparison operator.
type Comparator string

// Supported CMC comparators.
const (
	OpEq Comparator = "="
	OpLt Comparator = "<"
	OpLe Comparator = "<="
	OpGt Comparator = ">"
	OpGe Comparator = ">="
)

// ColorMode selects how the colors filter matches a card's color identity.
type ColorMode int

const (
	// ColorSubset matches cards whose identity fits within the given colors.
	ColorSubset ColorMode = iota
	// ColorExact matches cards whose identity equals the given colors.
	ColorExact
)

var validColors = map[string]bool{"W": true, "U": true, "B": true, "R": true, "G": true}

// CMCFilter constrains converted mana cost.
type CMCFilter struct {
	Op    Comparator `json:"op"`
	Value float64    `json:"value"`
}

// Criteria is the fixed set of optional search filters. Absent filters
// impose no constraint.
type Criteria struct {
	Name   string     `json:"name,omitempty"`   // substring match on card name
	Colors []string   `json:"colors,omitempty"` // color identity symbols
	Types  string     `json:"types,omitempty"`  // substring match on type line
	CMC    *CMCFilter `json:"cmc,omitempty"`
}

// InvalidQueryError reports malformed criteria. Such queries fail fast and
// are never sent to the provider.
type InvalidQueryError struct {
	Reason string
}

// Error implements the error interface.
func (e *InvalidQueryError) Error() string {
	return "invalid search query: " + e.Reason
}

// Validate checks the criteria for well-formedness.
func (c Criteria) Validate() error {
	if c.Name == "" && len(c.Colors) == 0 && c.Types == "" && c.CMC == nil {
		return &InvalidQueryError{Reason: "no search criteria provided"}
	}
	for _, color := range c.Colors {
		if !validColors[strings.ToUpper(color)] {
			return &InvalidQueryError{Reason: fmt.Sprintf("unknown color symbol %q", color)}
		}
	}
	if c.CMC != nil {
		switch c.CMC.Op {
		case OpEq, OpLt, OpLe, OpGt, OpGe:
		default:
			return &InvalidQueryError{Reason: fmt.Sprintf("unknown CMC comparator %q", c.CMC.Op)}
		}
		if c.CMC.Value < 0 {
			return &InvalidQueryError{Reason: "CMC value must be non-negative"}
		}
	}
	return nil
}

// normalizedColors returns the colors uppercased, deduplicated and in WUBRG
// order.
func (c Criteria) normalizedColors() []string {
	seen := make(map[string]bool, len(c.Colors))
	for _, color := range c.Colors {
		seen[strings.ToUpper(color)] = true
	}
	out := make([]string, 0, len(seen))
	for _, sym := range []string{"W", "U", "B", "R", "G"} {
		if seen[sym] {
			out = append(out, sym)
		}
	}
	return out
}

// Key returns a stable serialization of the normalized criteria so that
// equivalent queries collide in the search cache.
func (c Criteria) Key(mode ColorMode) string {
	parts := []string{
		"name=" + strings.ToLower(strings.TrimSpace(c.Name)),
		"colors=" + strings.Join(c.normalizedColors(), ""),
		"types=" + strings.ToLower(strings.TrimSpace(c.Types)),
	}
	if c.CMC != nil {
		parts = append(parts, "cmc="+string(c.CMC.Op)+strconv.FormatFloat(c.CMC.Value, 'f', -1, 64))
	} else {
		parts = append(parts, "cmc=")
	}
	parts = append(parts, "mode="+strconv.Itoa(int(mode)))
	sort.Strings(parts)
	return strings.Join(parts, "|")
}

// Query renders the criteria as a Scryfall search query string.
func (c Criteria) Query(mode ColorMode) string {
	var parts []string
	if name := strings.TrimSpace(c.Name); name != "" {
		parts = append(parts, fmt.Sprintf("name:%q", name))
	}
	if colors := c.normalizedColors(); len(colors) > 0 {
		op := "<="
		if mode == ColorExact {
			op = "="
		}
		parts = append(parts, "id"+op+strings.Join(colors, ""))
	}
	if types := strings.TrimSpace(c.Types); types != "" {
		parts = append(parts, "type:"+strings.ToLower(types))
	}
	if c.CMC != nil {
		parts = append(parts, "cmc"+string(c.CMC.Op)+strconv.FormatFloat(c.CMC.Value, 'f', -1, 64))
	}
	return strings.Join(parts, " ")
}
