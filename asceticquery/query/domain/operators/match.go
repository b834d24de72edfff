package operators

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MatchMode is the substring strategy of Like and Token.
type MatchMode int

const (
	Anywhere MatchMode = iota
	Start
	End
	Exact
)

func (m MatchMode) String() string {
	switch m {
	case Anywhere:
		return "ANYWHERE"
	case Start:
		return "START"
	case End:
		return "END"
	case Exact:
		return "EXACT"
	}
	return "UNKNOWN"
}

func (m MatchMode) matches(candidate, term string) bool {
	switch m {
	case Start:
		return strings.HasPrefix(candidate, term)
	case End:
		return strings.HasSuffix(candidate, term)
	case Exact:
		return candidate == term
	default:
		return strings.Contains(candidate, term)
	}
}

// Fold normalizes text for case-insensitive matching the way SQL lower() does.
// A Caser is stateful, so one is made per call.
func Fold(s string) string {
	return cases.Lower(language.Und).String(s)
}

func like(candidate, value string, caseSensitive bool, mode MatchMode) bool {
	if !caseSensitive {
		candidate, value = Fold(candidate), Fold(value)
	}
	return mode.matches(candidate, value)
}

// Tokenize splits text on every rune that is neither a letter nor a digit.
func Tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// token requires every search term to match at least one candidate token.
func token(candidate, value string, caseSensitive bool, mode MatchMode) bool {
	if !caseSensitive {
		candidate, value = Fold(candidate), Fold(value)
	}
	tokens := Tokenize(candidate)
	for _, term := range Tokenize(value) {
		found := false
		for _, t := range tokens {
			if mode.matches(t, term) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
