package parser

import "strings"

// SplitFilters splits a comma-joined filter list on top-level commas. Commas inside [...]
// belong to the value. Empty input yields nil.
func SplitFilters(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var (
		result []string
		depth  int
		start  int
	)
	for i, r := range s {
		switch r {
		case '[':
			depth++
		case ']':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				result = appendPart(result, s[start:i])
				start = i + 1
			}
		}
	}
	return appendPart(result, s[start:])
}

// SplitOrders splits a comma-joined order list.
func SplitOrders(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		result = appendPart(result, part)
	}
	return result
}

func appendPart(parts []string, part string) []string {
	part = strings.TrimSpace(part)
	if part == "" {
		return parts
	}
	return append(parts, part)
}
