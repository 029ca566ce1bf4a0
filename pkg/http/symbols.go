package http

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

const (
	MinComparisonSymbols = 2
	MaxComparisonSymbols = 5
)

var symbolPattern = regexp.MustCompile(`^[A-Z]{1,5}$`)

// IsValidSymbol reports whether s is 1-5 uppercase Latin letters.
func IsValidSymbol(s string) bool {
	return symbolPattern.MatchString(s)
}

// NormalizeSymbol trims and uppercases s.
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// ParseSymbolList splits input on commas and whitespace and normalises each
// entry. Malformed entries are kept so ValidateSymbolList can name them.
func ParseSymbolList(input string) []string {
	parts := strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, NormalizeSymbol(p))
	}
	return out
}

// ValidateSymbol rejects a single malformed symbol.
func ValidateSymbol(symbol string) error {
	if symbol == "" {
		return NewValidationError("symbol", "Symbol is required")
	}
	if !IsValidSymbol(symbol) {
		return NewValidationError("symbol", fmt.Sprintf("Invalid symbol format: %s (expected 1-5 letters)", symbol)).
			WithParam("invalid", []string{symbol})
	}
	return nil
}

// ValidateSymbolList checks a comparison list: every member must be a valid
// symbol and there must be between 2 and 5 of them.
func ValidateSymbolList(symbols []string) error {
	var invalid []string
	for _, s := range symbols {
		if !IsValidSymbol(s) {
			invalid = append(invalid, s)
		}
	}
	if len(invalid) > 0 {
		return NewValidationError("symbols", "Invalid symbols: "+strings.Join(invalid, ", ")).
			WithParam("invalid", invalid)
	}

	switch {
	case len(symbols) < MinComparisonSymbols:
		return NewValidationError("symbols", "At least 2 symbols required for comparison").
			WithParam("min", MinComparisonSymbols)
	case len(symbols) > MaxComparisonSymbols:
		return NewValidationError("symbols", "Maximum 5 symbols allowed for comparison").
			WithParam("max", MaxComparisonSymbols)
	}
	return nil
}
