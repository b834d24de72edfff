package operators

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krew-solutions/ascetic-query-go/asceticquery/schema"
)

// =============================================================================
// Validity
// =============================================================================

func TestIsValid(t *testing.T) {
	cases := []struct {
		name string
		op   Operator
		typ  schema.Type
		want bool
	}{
		{"eq on string", Eq("x"), schema.TypeString, true},
		{"eq on boolean", Eq(true), schema.TypeBoolean, true},
		{"eq on reference", Eq("x"), schema.TypeReference, false},
		{"eq on collection", Eq(1), schema.TypeCollection, false},
		{"gt on date", Gt(time.Now()), schema.TypeDate, true},
		{"gt on boolean", Gt(true), schema.TypeBoolean, false},
		{"between on collection", NewBetween(1, 2), schema.TypeCollection, true},
		{"between on boolean", NewBetween(false, true), schema.TypeBoolean, false},
		{"like on enum", NewLike("x", true, Anywhere), schema.TypeEnum, true},
		{"like on integer", NewLike("1", true, Anywhere), schema.TypeInteger, false},
		{"token on text", NewToken("x", false, Start), schema.TypeText, true},
		{"in on collection", NewIn(1), schema.TypeCollection, true},
		{"in on reference", NewIn("x"), schema.TypeReference, false},
		{"null on reference", IsNull(), schema.TypeReference, true},
		{"not null on collection", IsNotNull(), schema.TypeCollection, true},
		{"empty on collection", IsEmpty(), schema.TypeCollection, true},
		{"empty on string", IsEmpty(), schema.TypeString, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, c.op.IsValid(c.typ))
		})
	}
}

func TestTestTypeRejectsInvalidOperator(t *testing.T) {
	_, err := NewLike("1", true, Anywhere).TestType(schema.TypeInteger, int64(1))
	assert.ErrorIs(t, err, ErrOperatorTypeMismatch)
}

func TestExpectsValue(t *testing.T) {
	assert.True(t, Equal.ExpectsValue())
	assert.True(t, In.ExpectsValue())
	assert.False(t, Null.ExpectsValue())
	assert.False(t, NotNull.ExpectsValue())
	assert.False(t, Empty.ExpectsValue())
}

// =============================================================================
// Comparison
// =============================================================================

func TestEqualCoercesArgument(t *testing.T) {
	ok, err := Eq(1).Test(int64(1))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Eq("42").Test(42)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Ne("a").Test("b")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEqualReportsUncoercibleArgument(t *testing.T) {
	_, err := Eq("abc").Test(int64(1))
	assert.Error(t, err)
}

func TestNullCandidateFailsComparisons(t *testing.T) {
	var missing *string
	for _, op := range []Operator{Eq("x"), Ne("x"), Gt("x"), NewIn("x"), NewLike("x", true, Anywhere)} {
		ok, err := op.Test(missing)
		require.NoError(t, err)
		assert.False(t, ok, op.String())
	}
}

func TestOrderedComparisons(t *testing.T) {
	d2003 := time.Date(2003, time.January, 1, 0, 0, 0, 0, time.UTC)
	d2004 := time.Date(2004, time.January, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		op        Operator
		candidate any
		want      bool
	}{
		{Gt(d2003), d2004, true},
		{Gt(d2004), d2004, false},
		{Ge(d2004), d2004, true},
		{Lt(10), 9, true},
		{Le(9), 9, true},
		{Lt("b"), "a", true},
		{NewBetween(d2003, d2004), d2004, true},
		{NewBetween(d2003, d2004), d2003, true},
		{NewBetween(1.5, 2.5), 3.0, false},
	}
	for _, c := range cases {
		ok, err := c.op.Test(c.candidate)
		require.NoError(t, err, c.op.String())
		assert.Equal(t, c.want, ok, "%s on %v", c.op, c.candidate)
	}
}

func TestInAndNotIn(t *testing.T) {
	ok, err := NewIn("a", "b").Test("b")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = NewNotIn("a", "b").Test("c")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = NewIn().Test("a")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = NewNotIn().Test("a")
	require.NoError(t, err)
	assert.True(t, ok)
}

// =============================================================================
// Collections
// =============================================================================

func TestCollectionsCompareBySize(t *testing.T) {
	two := []string{"a", "b"}

	ok, err := NewBetween(1, 2).Test(two)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = NewIn(0, 3).Test(two)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = NewNotIn(0).Test(two)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = IsEmpty().Test([]string{})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = IsEmpty().Test(two)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNilSliceIsEmptyNotNull(t *testing.T) {
	var none []string

	ok, err := IsEmpty().Test(none)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = IsNull().Test(none)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestScalarOperatorOnCollectionFails(t *testing.T) {
	_, err := Eq(2).Test([]int{1, 2})
	assert.ErrorIs(t, err, ErrOperatorTypeMismatch)

	_, err = IsEmpty().Test("text")
	assert.ErrorIs(t, err, ErrOperatorTypeMismatch)
}

// =============================================================================
// Text
// =============================================================================

func TestLikeModes(t *testing.T) {
	cases := []struct {
		op   Operator
		text string
		want bool
	}{
		{NewLike("Elem", true, Anywhere), "DataElementA", true},
		{NewLike("elem", true, Anywhere), "DataElementA", false},
		{NewLike("elem", false, Anywhere), "DataElementA", true},
		{NewLike("data", false, Start), "DataElementA", true},
		{NewLike("Element", true, Start), "DataElementA", false},
		{NewLike("tA", true, End), "DataElementA", true},
		{NewLike("dataelementa", false, Exact), "DataElementA", true},
		{NewLike("dataelement", false, Exact), "DataElementA", false},
		{NewNotLike("B", true, End), "DataElementA", true},
	}
	for _, c := range cases {
		ok, err := c.op.Test(c.text)
		require.NoError(t, err)
		assert.Equal(t, c.want, ok, "%s on %q", c.op, c.text)
	}
}

func TestTokenRequiresEveryTerm(t *testing.T) {
	ok, err := NewToken("data elem", false, Start).Test("Data Element A")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = NewToken("data ment", false, Start).Test("Data Element A")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = NewNotToken("gender", false, Start).Test("Data Element A")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"Hello", "wörld", "42"}, Tokenize("Hello, wörld-42"))
	assert.Empty(t, Tokenize(" ,.; "))
}

func TestFold(t *testing.T) {
	assert.Equal(t, "äbc", Fold("ÄBC"))
}

func TestOperatorString(t *testing.T) {
	assert.Equal(t, "between:1:5", NewBetween(1, 5).String())
	assert.Equal(t, "like:abc (ignore case) START", NewLike("abc", false, Start).String())
	assert.Equal(t, "!null", IsNotNull().String())
}
