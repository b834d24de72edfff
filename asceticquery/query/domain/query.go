package query

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/krew-solutions/ascetic-query-go/asceticquery/schema"
)

// Query describes what to fetch. It is immutable once built and safe to share between goroutines.
type Query struct {
	schema      *schema.Schema
	criteria    []Criterion
	junction    JunctionType
	orders      []Order
	firstResult int
	maxResults  Bound
}

func (q Query) Schema() *schema.Schema {
	return q.schema
}

// Criteria returns the top-level criteria, combined with RootJunctionType.
func (q Query) Criteria() []Criterion {
	return cloneCriteria(q.criteria)
}

func (q Query) RootJunctionType() JunctionType {
	return q.junction
}

// Root returns the top-level criteria as one junction.
func (q Query) Root() Junction {
	return NewJunction(q.junction, q.criteria...)
}

func (q Query) HasCriteria() bool {
	return len(q.criteria) > 0
}

func (q Query) Orders() []Order {
	if len(q.orders) == 0 {
		return nil
	}
	result := make([]Order, len(q.orders))
	copy(result, q.orders)
	return result
}

func (q Query) FirstResult() int {
	return q.firstResult
}

func (q Query) MaxResults() Bound {
	return q.maxResults
}

func (q Query) IsPaginated() bool {
	return q.firstResult > 0 || q.maxResults.IsSet()
}

func (q Query) WithoutPagination() Query {
	q.firstResult = 0
	q.maxResults = Unbounded()
	return q
}

func (q Query) WithPagination(firstResult int, maxResults Bound) Query {
	q.firstResult = firstResult
	q.maxResults = maxResults
	return q
}

func (q Query) WithCriteria(junction JunctionType, criteria ...Criterion) Query {
	q.junction = junction
	q.criteria = cloneCriteria(criteria)
	return q
}

func (q Query) WithOrders(orders ...Order) Query {
	q.orders = nil
	if len(orders) > 0 {
		q.orders = make([]Order, len(orders))
		copy(q.orders, orders)
	}
	return q
}

func (q Query) String() string {
	var b strings.Builder
	name := "<nil>"
	if q.schema != nil {
		name = q.schema.Name()
	}
	fmt.Fprintf(&b, "%s WHERE %s", name, q.Root())
	if len(q.orders) > 0 {
		parts := make([]string, len(q.orders))
		for i, o := range q.orders {
			parts[i] = o.String()
		}
		fmt.Fprintf(&b, " ORDER BY %s", strings.Join(parts, ", "))
	}
	if q.IsPaginated() {
		fmt.Fprintf(&b, " FIRST %d MAX %s", q.firstResult, q.maxResults)
	}
	return b.String()
}

// Builder assembles a Query. A Builder must not be shared between goroutines.
type Builder struct {
	schema      *schema.Schema
	criteria    []Criterion
	junction    JunctionType
	orders      []Order
	firstResult int
	maxResults  Bound
}

func From(s *schema.Schema) *Builder {
	return &Builder{schema: s}
}

func (b *Builder) Add(criteria ...Criterion) *Builder {
	b.criteria = append(b.criteria, criteria...)
	return b
}

func (b *Builder) AddOrder(orders ...Order) *Builder {
	b.orders = append(b.orders, orders...)
	return b
}

func (b *Builder) SetRootJunctionType(t JunctionType) *Builder {
	b.junction = t
	return b
}

func (b *Builder) SetFirstResult(n int) *Builder {
	b.firstResult = n
	return b
}

func (b *Builder) SetMaxResults(n int) *Builder {
	b.maxResults = Limit(n)
	return b
}

func (b *Builder) SetPage(p Pager) *Builder {
	b.firstResult = p.FirstResult()
	b.maxResults = Limit(p.PageSize)
	return b
}

// Build validates pagination bounds and every restriction against the schema.
func (b *Builder) Build() (Query, error) {
	if b.schema == nil {
		return Query{}, fmt.Errorf("query has no schema")
	}
	var result error
	if b.firstResult < 0 {
		result = multierror.Append(result, fmt.Errorf("firstResult must not be negative, got %d", b.firstResult))
	}
	if b.maxResults.IsSet() && b.maxResults.Get() < 0 {
		result = multierror.Append(result, fmt.Errorf("maxResults must not be negative, got %d", b.maxResults.Get()))
	}
	for _, c := range b.criteria {
		if err := Validate(b.schema, c); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if result != nil {
		return Query{}, result
	}
	q := Query{
		schema:      b.schema,
		junction:    b.junction,
		firstResult: b.firstResult,
		maxResults:  b.maxResults,
	}
	return q.WithCriteria(b.junction, b.criteria...).WithOrders(b.orders...), nil
}

// Validate resolves every restriction path and checks its operator against the terminal type.
func Validate(s *schema.Schema, c Criterion) error {
	var result error
	for _, r := range Leaves(c) {
		path, err := s.ResolvePath(r.Path)
		if err != nil {
			result = multierror.Append(result, NewParseError(r.Path, "unknown property path", err))
			continue
		}
		terminal := schema.Terminal(path)
		if !r.Operator.IsValid(terminal.Type) {
			result = multierror.Append(result, NewParseError(
				r.String(),
				fmt.Sprintf("operator %s is not valid for %s property %q", r.Operator.Kind(), terminal.Type, terminal.Name),
				nil,
			))
		}
	}
	return result
}
