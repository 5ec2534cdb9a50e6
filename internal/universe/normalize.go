package universe

import "strings"

// Normalize trims, upper-cases and deduplicates symbols, keeping first-seen order
func Normalize(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// WithSuffix appends an exchange suffix (e.g. ".NS") to bare tickers
func WithSuffix(symbols []string, suffix string) []string {
	if suffix == "" {
		return symbols
	}
	out := make([]string, len(symbols))
	for i, s := range symbols {
		if strings.Contains(s, ".") {
			out[i] = s
			continue
		}
		out[i] = s + suffix
	}
	return out
}

// ParseList splits a comma separated symbol list (CLI flags, query params)
func ParseList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return Normalize(strings.Split(raw, ","))
}
