package inmemory

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	query "github.com/krew-solutions/ascetic-query-go/asceticquery/query/domain"
	"github.com/krew-solutions/ascetic-query-go/asceticquery/query/domain/operators"
	"github.com/krew-solutions/ascetic-query-go/asceticquery/query/infrastructure/sqlstore"
	"github.com/krew-solutions/ascetic-query-go/asceticquery/schema"
	"github.com/krew-solutions/ascetic-query-go/examples/dataelement"
)

func year(y int) time.Time {
	return time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC)
}

func fixtures() (*schema.Schema, []any) {
	return dataelement.NewSchema(sqlstore.Postgres), dataelement.Entities(dataelement.Fixtures())
}

func uids(entities []any) []string {
	result := make([]string, len(entities))
	for i, e := range entities {
		result[i] = e.(*dataelement.DataElement).UID
	}
	return result
}

func ids(suffixes ...string) []string {
	result := make([]string, len(suffixes))
	for i, s := range suffixes {
		result[i] = "deabcdefgh" + s
	}
	return result
}

func filter(t *testing.T, c query.Criterion) []string {
	t.Helper()
	sch, entities := fixtures()
	result, err := New().Filter(sch, entities, c)
	require.NoError(t, err)
	return uids(result)
}

func property(s *schema.Schema, name string) schema.Property {
	p, _ := s.Property(name)
	return p
}

// =============================================================================
// Scenario
// =============================================================================

func TestBetweenCreated(t *testing.T) {
	assert.Equal(t, ids("C", "D", "E"), filter(t, query.Between("created", year(2003), year(2005))))
}

func TestInIds(t *testing.T) {
	assert.Equal(t, ids("D", "F"), filter(t, query.In("id", "deabcdefghD", "deabcdefghF")))
}

func TestOrderByNameDescending(t *testing.T) {
	sch, entities := fixtures()
	q, err := query.From(sch).AddOrder(query.Desc(property(sch, "name"))).Build()
	require.NoError(t, err)

	result, err := New().Execute(entities, q, true)
	require.NoError(t, err)
	assert.Equal(t, ids("F", "E", "D", "C", "B", "A"), uids(result))
}

// =============================================================================
// Criteria
// =============================================================================

func TestJunctions(t *testing.T) {
	assert.Equal(t, ids("A", "B", "C", "D", "E", "F"), filter(t, query.And()))
	assert.Equal(t, ids("A", "B", "C", "D", "E", "F"), filter(t, query.Or()))
	assert.Equal(t, ids("D"), filter(t, query.And(query.Ge("created", year(2003)), query.IsNull("code"))))
	assert.Equal(t, ids("A", "D", "F"), filter(t, query.Or(query.IsNull("code"), query.Eq("valueType", "DATE"))))
}

func TestNullSemantics(t *testing.T) {
	assert.Equal(t, ids("A", "D"), filter(t, query.IsNull("code")))
	assert.Equal(t, ids("B", "C", "E", "F"), filter(t, query.IsNotNull("code")))
	assert.Equal(t, ids("C", "E", "F"), filter(t, query.Ne("code", "CODE_B")))
	assert.Equal(t, ids("F"), filter(t, query.IsNull("categoryCombo")))
}

func TestNestedReference(t *testing.T) {
	assert.Equal(t, ids("D", "E"), filter(t, query.Eq("categoryCombo.name", "gender")))
	assert.Equal(t, ids("A", "B", "C"), filter(t, query.Ne("categoryCombo.name", "gender")))
}

func TestNestedCollectionMatchesAnyElement(t *testing.T) {
	assert.Equal(t, ids("C", "D"), filter(t, query.Eq("dataElementGroups.name", "Beta")))
	assert.Equal(t, ids("A", "B", "C"), filter(t, query.ILike("dataElementGroups.name", "alp", operators.Start)))
}

// Between and In on a collection compare its size, not its elements.
func TestCollectionSize(t *testing.T) {
	assert.Equal(t, ids("C"), filter(t, query.Between("dataElementGroups", 2, 2)))
	assert.Equal(t, ids("A", "B", "D"), filter(t, query.Between("dataElementGroups", 1, 1)))
	assert.Equal(t, ids("E", "F"), filter(t, query.In("dataElementGroups", 0)))
	assert.Equal(t, ids("A", "B", "C", "D"), filter(t, query.NotIn("dataElementGroups", 0)))
	assert.Equal(t, ids("E", "F"), filter(t, query.IsEmpty("dataElementGroups")))
}

func TestTextMatching(t *testing.T) {
	assert.Equal(t, ids("B", "D", "F"), filter(t, query.Like("displayName", "Short", operators.Start)))
	assert.Equal(t, ids("A", "C", "E"), filter(t, query.NotLike("displayName", "Short", operators.Start)))
	assert.Equal(t, ids("C"), filter(t, query.ILike("name", "DATAELEMENTC", operators.Exact)))
	assert.Empty(t, filter(t, query.Like("name", "dataelement", operators.Start)))
	assert.Equal(t, ids("F"), filter(t, query.Token("displayName", "f", operators.Exact)))
}

func TestIgnoreCaseLikeIsCaseInvariant(t *testing.T) {
	lower := filter(t, query.ILike("name", "element", operators.Anywhere))
	upper := filter(t, query.ILike("name", "ELEMENT", operators.Anywhere))
	assert.Equal(t, lower, upper)
	assert.Len(t, lower, 6)
}

func TestInvalidOperatorIsRejected(t *testing.T) {
	sch, entities := fixtures()
	_, err := New().Filter(sch, entities, query.Eq("dataElementGroups", 1))
	assert.ErrorIs(t, err, operators.ErrOperatorTypeMismatch)
}

func TestUnknownPath(t *testing.T) {
	sch, entities := fixtures()
	_, err := New().Filter(sch, entities, query.Eq("nope", 1))
	assert.True(t, query.IsParseError(err))
}

// =============================================================================
// Sorting and pagination
// =============================================================================

func TestNullsSortFirstAscendingLastDescending(t *testing.T) {
	sch, entities := fixtures()
	code := property(sch, "code")

	require.NoError(t, New().Sort(entities, []query.Order{query.Asc(code)}))
	assert.Equal(t, ids("A", "D", "B", "C", "E", "F"), uids(entities))

	require.NoError(t, New().Sort(entities, []query.Order{query.Desc(code)}))
	assert.Equal(t, ids("F", "E", "C", "B", "A", "D"), uids(entities))
}

func TestSortIsStableAcrossOrders(t *testing.T) {
	sch, entities := fixtures()
	orders := []query.Order{query.Asc(property(sch, "valueType")), query.Desc(property(sch, "name"))}

	require.NoError(t, New().Sort(entities, orders))
	assert.Equal(t, ids("E", "F", "B", "D", "A", "C"), uids(entities))

	_, entities = fixtures()
	require.NoError(t, New().Sort(entities, orders[:1]))
	assert.Equal(t, ids("E", "F", "B", "A", "D", "C"), uids(entities))
}

func TestSortReportsIncomparableValues(t *testing.T) {
	sch, entities := fixtures()
	err := New().Sort(entities, []query.Order{query.Asc(property(sch, "categoryCombo"))})
	assert.Error(t, err)
}

func TestPaginate(t *testing.T) {
	_, entities := fixtures()
	e := New()

	assert.Equal(t, ids("E", "F"), uids(e.Paginate(entities, 4, query.Limit(5))))
	assert.Equal(t, ids("B", "C"), uids(e.Paginate(entities, 1, query.Limit(2))))
	assert.Empty(t, e.Paginate(entities, 10, query.Unbounded()))
	assert.Empty(t, e.Paginate(entities, 0, query.Limit(0)))
	assert.Len(t, e.Paginate(entities, 0, query.Unbounded()), 6)
}

func TestPaginateLimitPastEnd(t *testing.T) {
	_, entities := fixtures()
	e := New()

	assert.Equal(t, ids("B", "C", "D", "E", "F"), uids(e.Paginate(entities, 1, query.Limit(math.MaxInt))))
	assert.Len(t, e.Paginate(entities, 0, query.Limit(math.MaxInt)), 6)
	assert.Equal(t, ids("F"), uids(e.Paginate(entities, 5, query.Limit(math.MaxInt-1))))
}

func TestExecutePaginatesOnlyWhenAsked(t *testing.T) {
	sch, entities := fixtures()
	q, err := query.From(sch).
		Add(query.IsNotNull("code")).
		AddOrder(query.Desc(property(sch, "created"))).
		SetFirstResult(1).SetMaxResults(2).
		Build()
	require.NoError(t, err)

	result, err := New().Execute(entities, q, true)
	require.NoError(t, err)
	assert.Equal(t, ids("E", "C"), uids(result))

	result, err = New().Execute(entities, q, false)
	require.NoError(t, err)
	assert.Equal(t, ids("F", "E", "C", "B"), uids(result))
	assert.Equal(t, ids("A", "B", "C", "D", "E", "F"), uids(entities))
}
