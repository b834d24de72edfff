package planner

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	query "github.com/krew-solutions/ascetic-query-go/asceticquery/query/domain"
	"github.com/krew-solutions/ascetic-query-go/asceticquery/query/domain/operators"
	"github.com/krew-solutions/ascetic-query-go/asceticquery/schema"
)

// Capability reports whether the store can evaluate op on a resolved path.
type Capability func(op operators.Operator, path []schema.Property) bool

// SupportsAll is the capability of a store that can evaluate every operator.
func SupportsAll(operators.Operator, []schema.Property) bool {
	return true
}

// Plan is the split of one query between the store and the in-memory engine.
// Store and Memory share the schema and the root junction type.
type Plan struct {
	Store  query.Query
	Memory query.Query
	// MemoryCriteria is set when some criteria must be evaluated on materialized objects.
	MemoryCriteria bool
	// MemoryOrders is set when sorting is deferred to memory.
	MemoryOrders bool
	// PaginateInMemory is set when firstResult/maxResults apply after in-memory evaluation.
	PaginateInMemory bool
}

// NeedsMemory reports whether the in-memory engine has any work to do.
func (p Plan) NeedsMemory() bool {
	return p.MemoryCriteria || p.MemoryOrders || p.PaginateInMemory
}

func (p Plan) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "store:  %s\n", p.Store)
	if p.NeedsMemory() {
		fmt.Fprintf(&b, "memory: %s", p.Memory)
		var flags []string
		if p.MemoryCriteria {
			flags = append(flags, "criteria")
		}
		if p.MemoryOrders {
			flags = append(flags, "orders")
		}
		if p.PaginateInMemory {
			flags = append(flags, "pagination")
		}
		fmt.Fprintf(&b, " [%s]\n", strings.Join(flags, ", "))
	} else {
		b.WriteString("memory: skipped\n")
	}
	return b.String()
}

type Planner struct {
	capability Capability
}

// New returns a planner for a store with the given capability. A nil capability supports everything.
func New(capability Capability) *Planner {
	if capability == nil {
		capability = SupportsAll
	}
	return &Planner{capability: capability}
}

// Plan splits q. Every restriction lands in exactly one of Store and Memory.
func (p *Planner) Plan(q query.Query) (Plan, error) {
	sch := q.Schema()
	if sch == nil {
		return Plan{}, errors.New("cannot plan a query without schema")
	}
	criteria := q.Criteria()

	var storeCriteria, memoryCriteria []query.Criterion
	if q.RootJunctionType() == query.JunctionOr {
		storeable, err := p.isStoreable(sch, query.Or(criteria...))
		if err != nil {
			return Plan{}, err
		}
		if storeable {
			storeCriteria = criteria
		} else {
			memoryCriteria = criteria
		}
	} else {
		for _, c := range criteria {
			store, memory, err := p.split(sch, c)
			if err != nil {
				return Plan{}, err
			}
			if store != nil {
				storeCriteria = append(storeCriteria, store)
			}
			if memory != nil {
				memoryCriteria = append(memoryCriteria, memory)
			}
		}
	}

	orders := q.Orders()
	storeOrders, memoryOrders := orders, []query.Order(nil)
	for _, o := range orders {
		if !o.IsPersisted() {
			storeOrders, memoryOrders = nil, orders
			break
		}
	}

	plan := Plan{
		MemoryCriteria: len(memoryCriteria) > 0,
		MemoryOrders:   len(memoryOrders) > 0,
	}
	junction := q.RootJunctionType()
	plan.Store = q.WithCriteria(junction, storeCriteria...).WithOrders(storeOrders...)
	plan.Memory = q.WithCriteria(junction, memoryCriteria...).WithOrders(memoryOrders...)
	if plan.MemoryCriteria || plan.MemoryOrders {
		plan.Store = plan.Store.WithoutPagination()
		plan.PaginateInMemory = q.IsPaginated()
	} else {
		plan.Memory = plan.Memory.WithoutPagination()
	}

	if err := checkAccounting(q, plan); err != nil {
		return Plan{}, err
	}
	return plan, nil
}

// split returns the storeable and the deferred part of c. A Conjunction splits child by child;
// a Disjunction moves as a whole because the store cannot evaluate half of it.
func (p *Planner) split(sch *schema.Schema, c query.Criterion) (query.Criterion, query.Criterion, error) {
	switch n := c.(type) {
	case query.Restriction:
		storeable, err := p.isStoreable(sch, n)
		if err != nil {
			return nil, nil, err
		}
		if storeable {
			return n, nil, nil
		}
		return nil, n, nil
	case query.Conjunction:
		var storeParts, memoryParts []query.Criterion
		for _, child := range n.Criteria() {
			store, memory, err := p.split(sch, child)
			if err != nil {
				return nil, nil, err
			}
			if store != nil {
				storeParts = append(storeParts, store)
			}
			if memory != nil {
				memoryParts = append(memoryParts, memory)
			}
		}
		var store, memory query.Criterion
		if len(storeParts) > 0 {
			store = query.And(storeParts...)
		}
		if len(memoryParts) > 0 {
			memory = query.And(memoryParts...)
		}
		return store, memory, nil
	case query.Disjunction:
		storeable, err := p.isStoreable(sch, n)
		if err != nil {
			return nil, nil, err
		}
		if storeable {
			return n, nil, nil
		}
		return nil, n, nil
	}
	return nil, nil, errors.Wrapf(query.ErrPlanningInconsistency, "unexpected criterion %T", c)
}

func (p *Planner) isStoreable(sch *schema.Schema, c query.Criterion) (bool, error) {
	for _, r := range query.Leaves(c) {
		path, err := sch.ResolvePath(r.Path)
		if err != nil {
			return false, query.NewParseError(r.Path, "unknown property path", err)
		}
		if !schema.IsPersistedPath(path) || !p.capability(r.Operator, path) {
			return false, nil
		}
	}
	return true, nil
}

func checkAccounting(q query.Query, plan Plan) error {
	want := query.CountLeaves(q.Criteria())
	got := query.CountLeaves(plan.Store.Criteria()) + query.CountLeaves(plan.Memory.Criteria())
	if want != got {
		return errors.Wrapf(query.ErrPlanningInconsistency, "%d restrictions planned, %d given", got, want)
	}
	if len(plan.Store.Orders())+len(plan.Memory.Orders()) != len(q.Orders()) {
		return errors.Wrap(query.ErrPlanningInconsistency, "orders lost while planning")
	}
	return nil
}
