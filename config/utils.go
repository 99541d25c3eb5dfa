package config

import (
	"fmt"
	"strings"
)

// parseAliases parses a comma-separated list of `from=to` pairs,
// e.g. "slack=electron,teams=electron". Names are lowercased since
// normalization operates on lowercased paths.
func parseAliases(s string) ([]Alias, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	var aliases []Alias
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		from, to, ok := strings.Cut(pair, "=")
		from = strings.ToLower(strings.TrimSpace(from))
		to = strings.ToLower(strings.TrimSpace(to))
		if !ok || from == "" || to == "" {
			return nil, fmt.Errorf("invalid alias %q; expected `from=to`", pair)
		}
		aliases = append(aliases, Alias{From: from, To: to})
	}
	return aliases, nil
}

func formatAliases(aliases []Alias) string {
	pairs := make([]string, 0, len(aliases))
	for _, a := range aliases {
		pairs = append(pairs, a.From+"="+a.To)
	}
	return strings.Join(pairs, ",")
}
