package parser

import (
	"regexp"
	"sort"
	"strings"

	"github.com/krew-solutions/ascetic-query-go/asceticquery/query/domain/operators"
)

type arity int

const (
	noValue arity = iota
	oneValue
	valueList
)

type keyword struct {
	kind  operators.Kind
	arity arity
	build func(args []any) operators.Operator
}

func compare(kind operators.Kind, fn func(any) operators.Operator) keyword {
	return keyword{kind: kind, arity: oneValue, build: func(args []any) operators.Operator { return fn(args[0]) }}
}

func text(kind operators.Kind, caseSensitive bool, mode operators.MatchMode) keyword {
	return keyword{kind: kind, arity: oneValue, build: func(args []any) operators.Operator {
		value, _ := args[0].(string)
		switch kind {
		case operators.NotLike:
			return operators.NewNotLike(value, caseSensitive, mode)
		case operators.Token:
			return operators.NewToken(value, caseSensitive, mode)
		case operators.NotToken:
			return operators.NewNotToken(value, caseSensitive, mode)
		}
		return operators.NewLike(value, caseSensitive, mode)
	}}
}

// Keys are lower case; lookup folds the operator name.
var keywords = map[string]keyword{
	"eq":  compare(operators.Equal, operators.Eq),
	"!eq": compare(operators.NotEqual, operators.Ne),
	"neq": compare(operators.NotEqual, operators.Ne),
	"ne":  compare(operators.NotEqual, operators.Ne),
	"gt":  compare(operators.GreaterThan, operators.Gt),
	"gte": compare(operators.GreaterEqual, operators.Ge),
	"ge":  compare(operators.GreaterEqual, operators.Ge),
	"lt":  compare(operators.LessThan, operators.Lt),
	"lte": compare(operators.LessEqual, operators.Le),
	"le":  compare(operators.LessEqual, operators.Le),

	"ieq": text(operators.Like, false, operators.Exact),

	"like":    text(operators.Like, true, operators.Anywhere),
	"!like":   text(operators.NotLike, true, operators.Anywhere),
	"$like":   text(operators.Like, true, operators.Start),
	"!$like":  text(operators.NotLike, true, operators.Start),
	"like$":   text(operators.Like, true, operators.End),
	"!like$":  text(operators.NotLike, true, operators.End),
	"ilike":   text(operators.Like, false, operators.Anywhere),
	"!ilike":  text(operators.NotLike, false, operators.Anywhere),
	"$ilike":  text(operators.Like, false, operators.Start),
	"!$ilike": text(operators.NotLike, false, operators.Start),
	"ilike$":  text(operators.Like, false, operators.End),
	"!ilike$": text(operators.NotLike, false, operators.End),
	// legacy misspelling still sent by old clients
	"ilkike$":    text(operators.Like, false, operators.End),
	"startswith": text(operators.Like, false, operators.Start),
	"endswith":   text(operators.Like, false, operators.End),

	"token":  text(operators.Token, false, operators.Start),
	"!token": text(operators.NotToken, false, operators.Start),

	"in":  {kind: operators.In, arity: valueList, build: func(args []any) operators.Operator { return operators.NewIn(args...) }},
	"!in": {kind: operators.NotIn, arity: valueList, build: func(args []any) operators.Operator { return operators.NewNotIn(args...) }},

	"null":  {kind: operators.Null, arity: noValue, build: func([]any) operators.Operator { return operators.IsNull() }},
	"!null": {kind: operators.NotNull, arity: noValue, build: func([]any) operators.Operator { return operators.IsNotNull() }},
	"empty": {kind: operators.Empty, arity: noValue, build: func([]any) operators.Operator { return operators.IsEmpty() }},
}

func lookupKeyword(name string) (keyword, bool) {
	k, ok := keywords[strings.ToLower(name)]
	return k, ok
}

// isTextual reports whether the operator takes its value verbatim.
func (k keyword) isTextual() bool {
	switch k.kind {
	case operators.Like, operators.NotLike, operators.Token, operators.NotToken:
		return true
	}
	return false
}

var (
	// multiPattern matches chained range filters such as gte:2020:lte:2023. Values cannot hold ':'.
	multiPattern *regexp.Regexp
	pairPattern  *regexp.Regexp
	// singlePattern matches one operator whose value runs to the end of the token.
	singlePattern *regexp.Regexp
)

func init() {
	names := make([]string, 0, len(keywords))
	for name := range keywords {
		names = append(names, regexp.QuoteMeta(name))
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	ops := "(?:" + strings.Join(names, "|") + ")"
	multiPattern = regexp.MustCompile(`^(?i)(` + ops + `):([^:]+)((?::` + ops + `:[^:]+)+)$`)
	pairPattern = regexp.MustCompile(`(?i):(` + ops + `):([^:]+)`)
	singlePattern = regexp.MustCompile(`^(?i)(` + ops + `)(?::(.*))?$`)
}

type operand struct {
	name  string
	value string
	// hasValue separates "null" from "eq:" (an empty literal).
	hasValue bool
}

// scanOperands applies the multi-operand grammar first and the single operand grammar second.
func scanOperands(remainder string) ([]operand, bool) {
	if m := multiPattern.FindStringSubmatch(remainder); m != nil {
		result := []operand{{name: m[1], value: m[2], hasValue: true}}
		for _, pair := range pairPattern.FindAllStringSubmatch(m[3], -1) {
			result = append(result, operand{name: pair[1], value: pair[2], hasValue: true})
		}
		return result, true
	}
	if m := singlePattern.FindStringSubmatchIndex(remainder); m != nil {
		op := operand{name: remainder[m[2]:m[3]]}
		if m[4] >= 0 {
			op.value = remainder[m[4]:m[5]]
			op.hasValue = true
		}
		return []operand{op}, true
	}
	return nil, false
}
