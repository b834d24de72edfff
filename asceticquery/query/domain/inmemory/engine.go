package inmemory

import (
	"fmt"
	"reflect"
	"slices"

	query "github.com/krew-solutions/ascetic-query-go/asceticquery/query/domain"
	"github.com/krew-solutions/ascetic-query-go/asceticquery/schema"
)

// Engine evaluates criteria against materialized objects through the schema getters.
// It holds no state and is safe for concurrent use.
type Engine struct{}

func New() *Engine {
	return &Engine{}
}

// Execute filters, sorts and, when paginate is set, slices entities according to q.
// The input slice is not modified.
func (e *Engine) Execute(entities []any, q query.Query, paginate bool) ([]any, error) {
	result, err := e.Filter(q.Schema(), entities, q.Root())
	if err != nil {
		return nil, err
	}
	if err := e.Sort(result, q.Orders()); err != nil {
		return nil, err
	}
	if paginate {
		result = e.Paginate(result, q.FirstResult(), q.MaxResults())
	}
	return result, nil
}

// Filter keeps the entities matching c, preserving their order.
func (e *Engine) Filter(sch *schema.Schema, entities []any, c query.Criterion) ([]any, error) {
	result := make([]any, 0, len(entities))
	for _, entity := range entities {
		ok, err := e.Matches(sch, entity, c)
		if err != nil {
			return nil, err
		}
		if ok {
			result = append(result, entity)
		}
	}
	return result, nil
}

// Matches evaluates c in declaration order. AND stops at the first false child, OR at the
// first true one, and an empty junction matches everything.
func (e *Engine) Matches(sch *schema.Schema, entity any, c query.Criterion) (bool, error) {
	switch n := c.(type) {
	case query.Restriction:
		return e.matchRestriction(sch, entity, n)
	case query.Conjunction:
		for _, child := range n.Criteria() {
			ok, err := e.Matches(sch, entity, child)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case query.Disjunction:
		children := n.Criteria()
		if len(children) == 0 {
			return true, nil
		}
		for _, child := range children {
			ok, err := e.Matches(sch, entity, child)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	}
	return false, fmt.Errorf("unexpected criterion %T", c)
}

func (e *Engine) matchRestriction(sch *schema.Schema, entity any, r query.Restriction) (bool, error) {
	path, err := sch.ResolvePath(r.Path)
	if err != nil {
		return false, query.NewParseError(r.Path, "unknown property path", err)
	}
	terminal := schema.Terminal(path)
	for _, v := range resolve(entity, path) {
		ok, err := r.Operator.TestType(terminal.Type, v)
		if err != nil {
			return false, fmt.Errorf("%s: %w", r, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// resolve follows path from entity and returns the candidate values of the last segment.
// A nil intermediate yields nothing; an intermediate collection fans out to its elements, so
// a nested restriction holds when any element satisfies it.
func resolve(entity any, path []schema.Property) []any {
	current := []any{entity}
	last := len(path) - 1
	for i, p := range path {
		var next []any
		for _, item := range current {
			v := p.Value(item)
			if i == last {
				next = append(next, v)
				continue
			}
			if v == nil {
				continue
			}
			if p.IsCollection() {
				next = append(next, elements(v)...)
				continue
			}
			next = append(next, v)
		}
		current = next
	}
	return current
}

func elements(v any) []any {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		result := make([]any, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			item := rv.Index(i)
			if item.Kind() == reflect.Pointer && item.IsNil() {
				continue
			}
			result = append(result, item.Interface())
		}
		return result
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
	}
	return []any{v}
}

// Sort orders entities in place by orders, left to right. Ties keep their incoming order.
func (e *Engine) Sort(entities []any, orders []query.Order) error {
	if len(orders) == 0 || len(entities) < 2 {
		return nil
	}
	var sortErr error
	slices.SortStableFunc(entities, func(a, b any) int {
		for _, o := range orders {
			c, err := o.Compare(a, b)
			if err != nil {
				if sortErr == nil {
					sortErr = fmt.Errorf("order %s: %w", o, err)
				}
				return 0
			}
			if c != 0 {
				return c
			}
		}
		return 0
	})
	return sortErr
}

// Paginate returns the window [first, first+max) of entities.
func (e *Engine) Paginate(entities []any, first int, max query.Bound) []any {
	if first < 0 {
		first = 0
	}
	if first >= len(entities) {
		return []any{}
	}
	end := len(entities)
	if max.IsSet() && max.Get() < end-first {
		end = first + max.Get()
	}
	return entities[first:end]
}
