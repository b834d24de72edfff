package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	query "github.com/krew-solutions/ascetic-query-go/asceticquery/query/domain"
	"github.com/krew-solutions/ascetic-query-go/asceticquery/query/domain/operators"
	"github.com/krew-solutions/ascetic-query-go/asceticquery/query/infrastructure/sqlstore"
	"github.com/krew-solutions/ascetic-query-go/asceticquery/schema"
	"github.com/krew-solutions/ascetic-query-go/examples/dataelement"
)

func newSchema() *schema.Schema {
	return dataelement.NewSchema(sqlstore.Postgres)
}

func build(t *testing.T, b *query.Builder) query.Query {
	t.Helper()
	q, err := b.Build()
	require.NoError(t, err)
	return q
}

func property(s *schema.Schema, name string) schema.Property {
	p, _ := s.Property(name)
	return p
}

// =============================================================================
// Criteria
// =============================================================================

func TestPersistedQueryRunsInStore(t *testing.T) {
	s := newSchema()
	q := build(t, query.From(s).
		Add(query.Eq("name", "DataElementA"), query.IsNotNull("categoryCombo"), query.Eq("categoryCombo.name", "default")).
		AddOrder(query.Desc(property(s, "created"))).
		SetFirstResult(1).SetMaxResults(2))

	plan, err := New(SupportsAll).Plan(q)
	require.NoError(t, err)

	assert.False(t, plan.NeedsMemory())
	assert.Equal(t, q.Criteria(), plan.Store.Criteria())
	assert.Equal(t, q.Orders(), plan.Store.Orders())
	assert.Equal(t, 1, plan.Store.FirstResult())
	assert.Equal(t, query.Limit(2), plan.Store.MaxResults())
	assert.False(t, plan.Memory.HasCriteria())
	assert.False(t, plan.Memory.IsPaginated())
	assert.Contains(t, plan.String(), "memory: skipped")
}

func TestVirtualPropertyIsDeferred(t *testing.T) {
	s := newSchema()
	q := build(t, query.From(s).
		Add(query.Eq("name", "DataElementB"), query.Like("displayName", "Short", operators.Start)).
		SetMaxResults(10))

	plan, err := New(SupportsAll).Plan(q)
	require.NoError(t, err)

	assert.Equal(t, []query.Criterion{query.Eq("name", "DataElementB")}, plan.Store.Criteria())
	assert.Equal(t, []query.Criterion{query.Like("displayName", "Short", operators.Start)}, plan.Memory.Criteria())
	assert.True(t, plan.MemoryCriteria)
	assert.False(t, plan.Store.IsPaginated())
	assert.True(t, plan.PaginateInMemory)
	assert.Equal(t, query.Limit(10), plan.Memory.MaxResults())
	assert.Contains(t, plan.String(), "[criteria, pagination]")
}

func TestNestedConjunctionSplitsChildWise(t *testing.T) {
	s := newSchema()
	q := build(t, query.From(s).Add(
		query.And(query.Gt("created", 2002), query.IsNotNull("displayName"), query.IsNull("code")),
	))

	plan, err := New(SupportsAll).Plan(q)
	require.NoError(t, err)

	assert.Equal(t, []query.Criterion{query.And(query.Gt("created", 2002), query.IsNull("code"))}, plan.Store.Criteria())
	assert.Equal(t, []query.Criterion{query.And(query.IsNotNull("displayName"))}, plan.Memory.Criteria())
	assert.False(t, plan.PaginateInMemory)
}

func TestDisjunctionMovesWhole(t *testing.T) {
	s := newSchema()
	or := query.Or(query.Eq("name", "DataElementA"), query.Eq("displayName", "Short B"))
	q := build(t, query.From(s).Add(query.IsNotNull("code"), or))

	plan, err := New(SupportsAll).Plan(q)
	require.NoError(t, err)

	assert.Equal(t, []query.Criterion{query.IsNotNull("code")}, plan.Store.Criteria())
	assert.Equal(t, []query.Criterion{or}, plan.Memory.Criteria())
}

func TestRootDisjunction(t *testing.T) {
	s := newSchema()

	persisted := build(t, query.From(s).SetRootJunctionType(query.JunctionOr).
		Add(query.Eq("name", "DataElementA"), query.IsNull("code")))
	plan, err := New(SupportsAll).Plan(persisted)
	require.NoError(t, err)
	assert.False(t, plan.NeedsMemory())
	assert.Equal(t, query.JunctionOr, plan.Store.RootJunctionType())
	assert.Len(t, plan.Store.Criteria(), 2)

	mixed := build(t, query.From(s).SetRootJunctionType(query.JunctionOr).
		Add(query.Eq("name", "DataElementA"), query.Eq("displayName", "Short B")))
	plan, err = New(SupportsAll).Plan(mixed)
	require.NoError(t, err)
	assert.False(t, plan.Store.HasCriteria())
	assert.Equal(t, query.JunctionOr, plan.Memory.RootJunctionType())
	assert.Len(t, plan.Memory.Criteria(), 2)
}

func TestCapabilityDefersUnsupportedOperators(t *testing.T) {
	s := newSchema()
	q := build(t, query.From(s).Add(query.Token("name", "data elem", operators.Start), query.Eq("dbId", 1)))

	plan, err := New(sqlstore.NewEngine(sqlstore.SQLite).Supports).Plan(q)
	require.NoError(t, err)
	assert.Equal(t, []query.Criterion{query.Eq("dbId", 1)}, plan.Store.Criteria())
	assert.Equal(t, []query.Criterion{query.Token("name", "data elem", operators.Start)}, plan.Memory.Criteria())

	plan, err = New(sqlstore.NewEngine(sqlstore.Postgres).Supports).Plan(q)
	require.NoError(t, err)
	assert.False(t, plan.NeedsMemory())
}

func TestCapabilitySeesResolvedPath(t *testing.T) {
	s := newSchema()
	q := build(t, query.From(s).Add(query.Eq("categoryCombo.name", "default"), query.Eq("name", "x")))

	var seen [][]schema.Property
	noNested := func(op operators.Operator, path []schema.Property) bool {
		seen = append(seen, path)
		return len(path) == 1
	}
	plan, err := New(noNested).Plan(q)
	require.NoError(t, err)

	require.Len(t, seen, 2)
	assert.Equal(t, "categoryCombo", seen[0][0].Name)
	assert.Equal(t, "name", seen[0][1].Name)
	assert.Equal(t, []query.Criterion{query.Eq("categoryCombo.name", "default")}, plan.Memory.Criteria())
}

func TestNilCapabilitySupportsAll(t *testing.T) {
	s := newSchema()
	q := build(t, query.From(s).Add(query.Token("name", "x", operators.Start)))

	plan, err := New(nil).Plan(q)
	require.NoError(t, err)
	assert.False(t, plan.NeedsMemory())
}

func TestUnresolvablePathIsParseError(t *testing.T) {
	s := newSchema()
	q := build(t, query.From(s)).WithCriteria(query.JunctionAnd, query.Eq("nope", 1))

	_, err := New(SupportsAll).Plan(q)
	assert.True(t, query.IsParseError(err))
}

func TestPlanWithoutSchema(t *testing.T) {
	_, err := New(SupportsAll).Plan(query.Query{})
	assert.Error(t, err)
}

// =============================================================================
// Orders and pagination
// =============================================================================

func TestVirtualOrderDefersAllOrders(t *testing.T) {
	s := newSchema()
	q := build(t, query.From(s).
		Add(query.IsNotNull("code")).
		AddOrder(query.Asc(property(s, "valueType")), query.Desc(property(s, "displayName"))).
		SetFirstResult(2).SetMaxResults(2))

	plan, err := New(SupportsAll).Plan(q)
	require.NoError(t, err)

	assert.False(t, plan.MemoryCriteria)
	assert.True(t, plan.MemoryOrders)
	assert.Empty(t, plan.Store.Orders())
	assert.Equal(t, q.Orders(), plan.Memory.Orders())
	assert.Equal(t, q.Criteria(), plan.Store.Criteria())
	assert.False(t, plan.Store.IsPaginated())
	assert.True(t, plan.PaginateInMemory)
	assert.Equal(t, 2, plan.Memory.FirstResult())
}

func TestUnpaginatedMemoryPlan(t *testing.T) {
	s := newSchema()
	q := build(t, query.From(s).Add(query.IsNotNull("displayName")))

	plan, err := New(SupportsAll).Plan(q)
	require.NoError(t, err)
	assert.True(t, plan.NeedsMemory())
	assert.False(t, plan.PaginateInMemory)
}

func TestPlanKeepsEveryRestriction(t *testing.T) {
	s := newSchema()
	q := build(t, query.From(s).Add(
		query.Eq("name", "a"),
		query.And(query.IsNull("code"), query.Or(query.IsNull("displayName"), query.Eq("dbId", 1)), query.IsNotNull("displayName")),
		query.Or(query.Eq("name", "b"), query.IsEmpty("dataElementGroups")),
	))

	plan, err := New(SupportsAll).Plan(q)
	require.NoError(t, err)
	assert.Equal(t, query.CountLeaves(q.Criteria()),
		query.CountLeaves(plan.Store.Criteria())+query.CountLeaves(plan.Memory.Criteria()))
	assert.Equal(t, 4, query.CountLeaves(plan.Store.Criteria()))
	assert.Equal(t, 3, query.CountLeaves(plan.Memory.Criteria()))
}
