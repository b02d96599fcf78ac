package deck

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ramonehamilton/commandzone/internal/config"
)

// quantityPattern matches decklist quantity prefixes: "4 Card Name",
// "4x Card Name", including negative numbers so they can be rejected.
var quantityPattern = regexp.MustCompile(`(?i)^(-?\d+)\s*x?\s+(.+)$`)

// basicLands are exempt from the Commander singleton rule.
var basicLands = map[string]bool{
	"plains":   true,
	"island":   true,
	"swamp":    true,
	"mountain": true,
	"forest":   true,
	"wastes":   true,
}

// ValidationResult collects errors and warnings from decklist validation.
// Errors mark entries that cannot be scored; warnings are advisory.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// AddError records an error and marks the result invalid.
func (v *ValidationResult) AddError(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
	v.Valid = false
}

// AddWarning records an advisory message.
func (v *ValidationResult) AddWarning(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}

// merge folds another result into this one.
func (v *ValidationResult) merge(other ValidationResult) {
	v.Errors = append(v.Errors, other.Errors...)
	v.Warnings = append(v.Warnings, other.Warnings...)
	if !other.Valid {
		v.Valid = false
	}
}

// Line is one parsed decklist line after quantity extraction and duplicate
// merging.
type Line struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// ParseDecklist parses raw decklist entries ("4 Forest", "4x Forest",
// "Sol Ring") into named quantities, merging duplicate names and preserving
// first-occurrence order. Offending entries are reported per line; the rest
// still parse.
func ParseDecklist(entries []string, cfg config.ValidationConfig) ([]Line, ValidationResult) {
	result := ValidationResult{Valid: true}

	if len(entries) == 0 {
		result.AddError("decklist cannot be empty")
		return nil, result
	}

	maxNameLen := cfg.MaxCardNameLength
	if maxNameLen <= 0 {
		maxNameLen = 200
	}
	maxQty := cfg.MaxCardQuantity
	if maxQty <= 0 {
		maxQty = 100
	}

	var order []string
	quantities := make(map[string]int)

	for i, raw := range entries {
		entry := strings.TrimSpace(raw)
		if entry == "" {
			result.AddWarning("empty entry at position %d, skipping", i+1)
			continue
		}
		if len(entry) > maxNameLen {
			result.AddError("card name too long at position %d: %q (max %d characters)", i+1, entry[:50]+"...", maxNameLen)
			continue
		}

		quantity := 1
		name := entry
		if m := quantityPattern.FindStringSubmatch(entry); m != nil {
			parsed, err := strconv.Atoi(m[1])
			if err != nil {
				result.AddError("invalid quantity format at position %d: %q", i+1, entry)
				continue
			}
			if parsed <= 0 {
				result.AddError("invalid quantity %d for %q at position %d (must be positive)", parsed, strings.TrimSpace(m[2]), i+1)
				continue
			}
			if parsed > maxQty {
				result.AddWarning("very high quantity %d for %q at position %d", parsed, strings.TrimSpace(m[2]), i+1)
			}
			quantity = parsed
			name = strings.TrimSpace(m[2])
		}

		if name == "" {
			result.AddError("empty card name at position %d", i+1)
			continue
		}

		if _, seen := quantities[name]; seen {
			result.AddWarning("duplicate card %q found, quantities will be combined", name)
		} else {
			order = append(order, name)
		}
		quantities[name] += quantity
	}

	lines := make([]Line, 0, len(order))
	for _, name := range order {
		lines = append(lines, Line{Name: name, Quantity: quantities[name]})
	}
	return lines, result
}

// ValidateCommander checks Commander format compliance: a commander plus
// exactly 99 cards, singleton except basic lands. Copies of the commander
// found in the list belong in the command zone, not among the 99; they are
// removed with a warning, and the returned lines exclude them.
func ValidateCommander(commander string, lines []Line) ([]Line, ValidationResult) {
	result := ValidationResult{Valid: true}

	if strings.TrimSpace(commander) == "" {
		result.AddError("commander is required for Commander format")
		return lines, result
	}

	commanderKey := strings.ToLower(strings.TrimSpace(commander))
	removed := 0
	remaining := make([]Line, 0, len(lines))
	for _, line := range lines {
		if strings.ToLower(line.Name) == commanderKey {
			removed += line.Quantity
			continue
		}
		remaining = append(remaining, line)
	}
	if removed > 0 {
		result.AddWarning("removed %d copies of commander %q from the deck list", removed, commander)
		lines = remaining
	}

	total := 0
	for _, line := range lines {
		total += line.Quantity
		if line.Quantity > 1 && !basicLands[strings.ToLower(line.Name)] {
			result.AddError("%q appears %d times (Commander format allows only 1 copy of non-basic cards)", line.Name, line.Quantity)
		}
	}

	withCommander := total + 1
	if withCommander != 100 {
		result.AddError("deck has %d cards including the commander (need exactly 100 for Commander format)", withCommander)
	}
	if total < 90 {
		result.AddWarning("deck has fewer than 90 cards excluding the commander, consider adding more")
	}

	return lines, result
}

// ValidateDeck runs decklist parsing and format validation in one pass,
// returning the parsed lines (commander copies removed) and the combined
// result.
func ValidateDeck(commander string, entries []string, cfg config.ValidationConfig) ([]Line, ValidationResult) {
	lines, result := ParseDecklist(entries, cfg)
	if len(lines) > 0 {
		var format ValidationResult
		lines, format = ValidateCommander(commander, lines)
		result.merge(format)
	}
	return lines, result
}
