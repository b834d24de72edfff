package query

import (
	"fmt"
	"strings"

	"github.com/krew-solutions/ascetic-query-go/asceticquery/query/domain/operators"
)

// Criterion is a node of the expression tree: Restriction, Conjunction or Disjunction.
type Criterion interface {
	isCriterion()
	String() string
}

// Restriction pairs a property path with an operator. The path is resolved at parse or plan time.
type Restriction struct {
	Path     string
	Operator operators.Operator
}

func (Restriction) isCriterion() {}

func (r Restriction) String() string {
	return fmt.Sprintf("%s:%s", r.Path, r.Operator)
}

func NewRestriction(path string, op operators.Operator) Restriction {
	return Restriction{Path: path, Operator: op}
}

type JunctionType int

const (
	JunctionAnd JunctionType = iota
	JunctionOr
)

func (t JunctionType) String() string {
	if t == JunctionOr {
		return "OR"
	}
	return "AND"
}

func ParseJunctionType(s string) (JunctionType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "AND":
		return JunctionAnd, nil
	case "OR":
		return JunctionOr, nil
	}
	return JunctionAnd, fmt.Errorf("unknown junction type %q", s)
}

// Junction is a boolean combinator over ordered child criteria.
type Junction interface {
	Criterion
	Type() JunctionType
	Criteria() []Criterion
}

type Conjunction struct {
	criteria []Criterion
}

func And(criteria ...Criterion) Conjunction {
	return Conjunction{criteria: cloneCriteria(criteria)}
}

func (Conjunction) isCriterion() {}

func (c Conjunction) Type() JunctionType {
	return JunctionAnd
}

func (c Conjunction) Criteria() []Criterion {
	return cloneCriteria(c.criteria)
}

func (c Conjunction) String() string {
	return junctionString("AND", c.criteria)
}

type Disjunction struct {
	criteria []Criterion
}

func Or(criteria ...Criterion) Disjunction {
	return Disjunction{criteria: cloneCriteria(criteria)}
}

func (Disjunction) isCriterion() {}

func (d Disjunction) Type() JunctionType {
	return JunctionOr
}

func (d Disjunction) Criteria() []Criterion {
	return cloneCriteria(d.criteria)
}

func (d Disjunction) String() string {
	return junctionString("OR", d.criteria)
}

// NewJunction builds the junction of the given type.
func NewJunction(t JunctionType, criteria ...Criterion) Junction {
	if t == JunctionOr {
		return Or(criteria...)
	}
	return And(criteria...)
}

func junctionString(op string, criteria []Criterion) string {
	parts := make([]string, len(criteria))
	for i, c := range criteria {
		parts[i] = c.String()
	}
	return fmt.Sprintf("%s(%s)", op, strings.Join(parts, ", "))
}

func cloneCriteria(criteria []Criterion) []Criterion {
	if len(criteria) == 0 {
		return nil
	}
	result := make([]Criterion, len(criteria))
	copy(result, criteria)
	return result
}

// Leaves returns every Restriction below c in declaration order.
func Leaves(c Criterion) []Restriction {
	switch n := c.(type) {
	case Restriction:
		return []Restriction{n}
	case Junction:
		var result []Restriction
		for _, child := range n.Criteria() {
			result = append(result, Leaves(child)...)
		}
		return result
	}
	return nil
}

// CountLeaves counts the restrictions of a criteria list.
func CountLeaves(criteria []Criterion) int {
	n := 0
	for _, c := range criteria {
		n += len(Leaves(c))
	}
	return n
}
