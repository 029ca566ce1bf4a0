package util

import (
	"strconv"
	"strings"
)

// ParseIntDefault parses string to int or returns default if empty/invalid.
func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// SplitCSV splits a comma separated list, trimming blanks and dropping empty items.
func SplitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Humanize turns a snake_case or dotted key into a title: "financial_analysis" -> "Financial Analysis".
func Humanize(key string) string {
	key = strings.NewReplacer("_", " ", ".", " / ", "-", " ").Replace(key)
	words := strings.Fields(key)
	for i, w := range words {
		if w == "/" {
			continue
		}
		if strings.ToUpper(w) == w {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
