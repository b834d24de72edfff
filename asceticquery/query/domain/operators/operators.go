package operators

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/krew-solutions/ascetic-query-go/asceticquery/schema"
)

// ErrOperatorTypeMismatch is returned when an operator is tested against a value it declared invalid.
var ErrOperatorTypeMismatch = errors.New("operator is not valid for value type")

type Kind int

const (
	Equal Kind = iota + 1
	NotEqual
	GreaterThan
	GreaterEqual
	LessThan
	LessEqual
	Between
	Like
	NotLike
	Token
	NotToken
	In
	NotIn
	Null
	NotNull
	Empty
)

var kindNames = map[Kind]string{
	Equal:        "eq",
	NotEqual:     "ne",
	GreaterThan:  "gt",
	GreaterEqual: "ge",
	LessThan:     "lt",
	LessEqual:    "le",
	Between:      "between",
	Like:         "like",
	NotLike:      "!like",
	Token:        "token",
	NotToken:     "!token",
	In:           "in",
	NotIn:        "!in",
	Null:         "null",
	NotNull:      "!null",
	Empty:        "empty",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Operator is a predicate with its comparison arguments. The zero value is not usable.
type Operator struct {
	kind          Kind
	args          []any
	caseSensitive bool
	mode          MatchMode
}

func Eq(value any) Operator {
	return Operator{kind: Equal, args: []any{value}}
}

func Ne(value any) Operator {
	return Operator{kind: NotEqual, args: []any{value}}
}

func Gt(value any) Operator {
	return Operator{kind: GreaterThan, args: []any{value}}
}

func Ge(value any) Operator {
	return Operator{kind: GreaterEqual, args: []any{value}}
}

func Lt(value any) Operator {
	return Operator{kind: LessThan, args: []any{value}}
}

func Le(value any) Operator {
	return Operator{kind: LessEqual, args: []any{value}}
}

// NewBetween is inclusive on both bounds.
func NewBetween(lo, hi any) Operator {
	return Operator{kind: Between, args: []any{lo, hi}}
}

func NewLike(value string, caseSensitive bool, mode MatchMode) Operator {
	return Operator{kind: Like, args: []any{value}, caseSensitive: caseSensitive, mode: mode}
}

func NewNotLike(value string, caseSensitive bool, mode MatchMode) Operator {
	return Operator{kind: NotLike, args: []any{value}, caseSensitive: caseSensitive, mode: mode}
}

func NewToken(value string, caseSensitive bool, mode MatchMode) Operator {
	return Operator{kind: Token, args: []any{value}, caseSensitive: caseSensitive, mode: mode}
}

func NewNotToken(value string, caseSensitive bool, mode MatchMode) Operator {
	return Operator{kind: NotToken, args: []any{value}, caseSensitive: caseSensitive, mode: mode}
}

func NewIn(values ...any) Operator {
	return Operator{kind: In, args: values}
}

func NewNotIn(values ...any) Operator {
	return Operator{kind: NotIn, args: values}
}

func IsNull() Operator {
	return Operator{kind: Null}
}

func IsNotNull() Operator {
	return Operator{kind: NotNull}
}

func IsEmpty() Operator {
	return Operator{kind: Empty}
}

func (o Operator) Kind() Kind {
	return o.kind
}

// Args returns a copy of the comparison arguments.
func (o Operator) Args() []any {
	result := make([]any, len(o.args))
	copy(result, o.args)
	return result
}

// Value returns the single argument of one-value operators.
func (o Operator) Value() any {
	if len(o.args) == 0 {
		return nil
	}
	return o.args[0]
}

func (o Operator) CaseSensitive() bool {
	return o.caseSensitive
}

func (o Operator) Mode() MatchMode {
	return o.mode
}

func (o Operator) IsNegated() bool {
	switch o.kind {
	case NotEqual, NotLike, NotToken, NotIn, NotNull:
		return true
	}
	return false
}

// AppliesToSize reports whether the operator is legal on a collection, where it compares the size.
func (o Operator) AppliesToSize() bool {
	switch o.kind {
	case Between, In, NotIn, Empty:
		return true
	}
	return false
}

// IsValid reports whether the operator may be evaluated against values of the declared type.
func (o Operator) IsValid(t schema.Type) bool {
	switch o.kind {
	case Null, NotNull:
		return true
	case Empty:
		return t == schema.TypeCollection
	case Equal, NotEqual:
		return t.IsSimple()
	case GreaterThan, GreaterEqual, LessThan, LessEqual:
		return t.IsOrdered()
	case Between:
		return t.IsOrdered() || t == schema.TypeCollection
	case Like, NotLike, Token, NotToken:
		return t.IsTextual()
	case In, NotIn:
		return t != schema.TypeReference
	}
	return false
}

// ExpectsValue reports whether the operator carries comparison arguments.
func (k Kind) ExpectsValue() bool {
	switch k {
	case Null, NotNull, Empty:
		return false
	}
	return true
}

// TestType evaluates the operator after checking it against the declared type.
func (o Operator) TestType(t schema.Type, candidate any) (bool, error) {
	if !o.IsValid(t) {
		return false, fmt.Errorf("%w: %s on %s", ErrOperatorTypeMismatch, o.kind, t)
	}
	return o.Test(candidate)
}

// Test evaluates the operator against a candidate value. Arguments are coerced to the
// candidate's runtime type. A collection candidate is evaluated by its size, which only
// Between, In, NotIn and Empty accept.
func (o Operator) Test(candidate any) (bool, error) {
	switch o.kind {
	case Null:
		return isNil(candidate), nil
	case NotNull:
		return !isNil(candidate), nil
	}
	if size, ok := collectionSize(candidate); ok {
		if !o.AppliesToSize() {
			return false, fmt.Errorf("%w: %s on collection", ErrOperatorTypeMismatch, o.kind)
		}
		if o.kind == Empty {
			return size == 0, nil
		}
		candidate = size
	} else if o.kind == Empty {
		if candidate == nil {
			return true, nil
		}
		return false, fmt.Errorf("%w: %s on %T", ErrOperatorTypeMismatch, o.kind, candidate)
	}
	if isNil(candidate) {
		return false, nil
	}

	switch o.kind {
	case Equal:
		return o.equals(o.args[0], candidate)
	case NotEqual:
		eq, err := o.equals(o.args[0], candidate)
		return !eq, err
	case GreaterThan:
		c, err := compareArg(o.args[0], candidate)
		return c > 0, err
	case GreaterEqual:
		c, err := compareArg(o.args[0], candidate)
		return c >= 0, err
	case LessThan:
		c, err := compareArg(o.args[0], candidate)
		return c < 0, err
	case LessEqual:
		c, err := compareArg(o.args[0], candidate)
		return c <= 0, err
	case Between:
		lo, err := compareArg(o.args[0], candidate)
		if err != nil {
			return false, err
		}
		hi, err := compareArg(o.args[1], candidate)
		if err != nil {
			return false, err
		}
		return lo >= 0 && hi <= 0, nil
	case In:
		return o.contains(candidate)
	case NotIn:
		found, err := o.contains(candidate)
		return !found, err
	case Like, NotLike, Token, NotToken:
		return o.matchText(candidate)
	}
	return false, fmt.Errorf("unsupported operator %s", o.kind)
}

func (o Operator) equals(arg, candidate any) (bool, error) {
	coerced, err := Coerce(arg, candidate)
	if err != nil {
		return false, err
	}
	if defaultRegistry.Supports(candidate) {
		c, err := defaultRegistry.Compare(candidate, coerced)
		if err != nil {
			return false, err
		}
		return c == 0, nil
	}
	return reflect.DeepEqual(candidate, coerced), nil
}

func (o Operator) contains(candidate any) (bool, error) {
	for _, arg := range o.args {
		eq, err := o.equals(arg, candidate)
		if err != nil {
			return false, err
		}
		if eq {
			return true, nil
		}
	}
	return false, nil
}

func (o Operator) matchText(candidate any) (bool, error) {
	text, ok := candidate.(string)
	if !ok {
		s, isStringer := candidate.(fmt.Stringer)
		if !isStringer {
			return false, fmt.Errorf("%w: %s on %T", ErrOperatorTypeMismatch, o.kind, candidate)
		}
		text = s.String()
	}
	value, _ := o.args[0].(string)
	switch o.kind {
	case Like:
		return like(text, value, o.caseSensitive, o.mode), nil
	case NotLike:
		return !like(text, value, o.caseSensitive, o.mode), nil
	case Token:
		return token(text, value, o.caseSensitive, o.mode), nil
	default:
		return !token(text, value, o.caseSensitive, o.mode), nil
	}
}

// compareArg orders the candidate against an argument coerced to the candidate's type.
func compareArg(arg, candidate any) (int, error) {
	coerced, err := Coerce(arg, candidate)
	if err != nil {
		return 0, err
	}
	return defaultRegistry.Compare(candidate, coerced)
}

func (o Operator) String() string {
	var b strings.Builder
	b.WriteString(o.kind.String())
	for _, arg := range o.args {
		fmt.Fprintf(&b, ":%v", arg)
	}
	switch o.kind {
	case Like, NotLike, Token, NotToken:
		if !o.caseSensitive {
			b.WriteString(" (ignore case)")
		}
		fmt.Fprintf(&b, " %s", o.mode)
	}
	return b.String()
}
