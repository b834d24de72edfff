package sqlstore

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jinzhu/inflection"

	query "github.com/krew-solutions/ascetic-query-go/asceticquery/query/domain"
	"github.com/krew-solutions/ascetic-query-go/asceticquery/query/domain/operators"
	"github.com/krew-solutions/ascetic-query-go/asceticquery/schema"
)

const (
	alwaysTrue  = "1 = 1"
	alwaysFalse = "1 = 0"
	likeEscape  = `\`
)

var comparisonOps = map[operators.Kind]string{
	operators.Equal:        "=",
	operators.NotEqual:     "<>",
	operators.GreaterThan:  ">",
	operators.GreaterEqual: ">=",
	operators.LessThan:     "<",
	operators.LessEqual:    "<=",
}

// Fragment is a piece of SQL with ? markers and its parameters.
type Fragment struct {
	SQL    string
	Params []any
}

func (f Fragment) IsEmpty() bool {
	return f.SQL == ""
}

// Compiler translates criteria into a WHERE fragment. Nested paths become EXISTS sub-selects
// correlated with the enclosing alias. A Compiler is not safe for concurrent use.
type Compiler struct {
	dialect  Dialect
	aliasSeq int
	params   []any
}

func NewCompiler(dialect Dialect) *Compiler {
	return &Compiler{dialect: dialect}
}

// RootAlias is the alias of the schema table in the outer select.
func RootAlias(sch *schema.Schema) string {
	return strings.ToLower(inflection.Singular(sch.Name()))
}

// Compile returns c as a predicate over the table of sch referenced by alias.
func (c *Compiler) Compile(sch *schema.Schema, alias string, criterion query.Criterion) (Fragment, error) {
	c.params = nil
	sql, err := c.compile(sch, alias, criterion)
	if err != nil {
		return Fragment{}, err
	}
	return Fragment{SQL: sql, Params: c.params}, nil
}

func (c *Compiler) compile(sch *schema.Schema, alias string, criterion query.Criterion) (string, error) {
	switch n := criterion.(type) {
	case query.Restriction:
		path, err := sch.ResolvePath(n.Path)
		if err != nil {
			return "", &query.TranslationError{Criterion: n.String(), Reason: err.Error()}
		}
		return c.compilePath(alias, path, n)
	case query.Conjunction:
		return c.compileJunction(sch, alias, "AND", n.Criteria())
	case query.Disjunction:
		return c.compileJunction(sch, alias, "OR", n.Criteria())
	}
	return "", &query.TranslationError{Criterion: fmt.Sprintf("%v", criterion), Reason: "unexpected criterion"}
}

func (c *Compiler) compileJunction(sch *schema.Schema, alias, op string, criteria []query.Criterion) (string, error) {
	if len(criteria) == 0 {
		return alwaysTrue, nil
	}
	parts := make([]string, 0, len(criteria))
	for _, child := range criteria {
		sql, err := c.compile(sch, alias, child)
		if err != nil {
			return "", err
		}
		parts = append(parts, sql)
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return "(" + strings.Join(parts, " "+op+" ") + ")", nil
}

// compilePath walks the path one relation at a time, opening a sub-select for every hop.
func (c *Compiler) compilePath(alias string, path []schema.Property, r query.Restriction) (string, error) {
	head := path[0]
	if len(path) == 1 {
		return c.compileTerminal(alias, head, r)
	}
	if head.Relation == nil {
		return "", &query.TranslationError{Criterion: r.String(), Reason: fmt.Sprintf("%q has no relation mapping", head.Name)}
	}
	from, inner, join := c.relationSource(alias, head)
	predicate, err := c.compilePath(inner, path[1:], r)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("EXISTS (SELECT 1 FROM %s WHERE %s AND %s)", from, join, predicate), nil
}

// relationSource returns the FROM list, the alias of the related table and the correlation
// with the outer alias.
func (c *Compiler) relationSource(outer string, p schema.Property) (string, string, string) {
	rel := p.Relation
	alias := c.nextAlias(p.Name)
	if rel.Through == nil {
		return fmt.Sprintf("%s AS %s", rel.Table, alias), alias, joinOn(alias, outer, rel.Join)
	}
	link := c.nextAlias(rel.Through.Table)
	from := fmt.Sprintf("%s AS %s JOIN %s AS %s ON %s",
		rel.Through.Table, link, rel.Table, alias, joinOn(link, alias, rel.Through.Inner))
	return from, alias, joinOn(link, outer, rel.Through.Outer)
}

// sizeSource is relationSource without the related table when a link table alone can be counted.
func (c *Compiler) sizeSource(outer string, p schema.Property) (string, string) {
	rel := p.Relation
	if rel.Through == nil {
		alias := c.nextAlias(p.Name)
		return fmt.Sprintf("%s AS %s", rel.Table, alias), joinOn(alias, outer, rel.Join)
	}
	link := c.nextAlias(rel.Through.Table)
	return fmt.Sprintf("%s AS %s", rel.Through.Table, link), joinOn(link, outer, rel.Through.Outer)
}

func (c *Compiler) nextAlias(name string) string {
	c.aliasSeq++
	return fmt.Sprintf("%s_%d", strings.ToLower(inflection.Singular(name)), c.aliasSeq)
}

func joinOn(childAlias, parentAlias string, pairs []schema.ForeignKeyPair) string {
	parts := make([]string, len(pairs))
	for i, fk := range pairs {
		parts[i] = fmt.Sprintf("%s.%s = %s.%s", childAlias, fk.ChildColumn, parentAlias, fk.ParentColumn)
	}
	return strings.Join(parts, " AND ")
}

func (c *Compiler) compileTerminal(alias string, p schema.Property, r query.Restriction) (string, error) {
	op := r.Operator
	switch {
	case p.IsCollection():
		return c.compileSize(alias, p, r)
	case p.Type == schema.TypeReference:
		if p.Column == "" {
			break
		}
		switch op.Kind() {
		case operators.Null:
			return fmt.Sprintf("%s.%s IS NULL", alias, p.Column), nil
		case operators.NotNull:
			return fmt.Sprintf("%s.%s IS NOT NULL", alias, p.Column), nil
		}
	case p.Column != "":
		return c.compileColumn(alias+"."+p.Column, r)
	}
	return "", &query.TranslationError{Criterion: r.String(), Reason: fmt.Sprintf("no column for %s on %q", op.Kind(), p.Name)}
}

// compileSize evaluates Between, In and NotIn against the number of related rows.
func (c *Compiler) compileSize(alias string, p schema.Property, r query.Restriction) (string, error) {
	if p.Relation == nil {
		return "", &query.TranslationError{Criterion: r.String(), Reason: fmt.Sprintf("%q has no relation mapping", p.Name)}
	}
	op := r.Operator
	from, join := c.sizeSource(alias, p)
	if op.Kind() == operators.Empty {
		return fmt.Sprintf("NOT EXISTS (SELECT 1 FROM %s WHERE %s)", from, join), nil
	}
	size := fmt.Sprintf("(SELECT count(*) FROM %s WHERE %s)", from, join)
	switch op.Kind() {
	case operators.Between, operators.In, operators.NotIn:
		return c.compileColumn(size, r)
	}
	return "", &query.TranslationError{Criterion: r.String(), Reason: "only between, in, !in and empty apply to collections"}
}

func (c *Compiler) compileColumn(expr string, r query.Restriction) (string, error) {
	op := r.Operator
	args := op.Args()
	switch op.Kind() {
	case operators.Equal, operators.NotEqual, operators.GreaterThan, operators.GreaterEqual,
		operators.LessThan, operators.LessEqual:
		c.params = append(c.params, args[0])
		return fmt.Sprintf("%s %s ?", expr, comparisonOps[op.Kind()]), nil
	case operators.Between:
		c.params = append(c.params, args[0], args[1])
		return fmt.Sprintf("%s BETWEEN ? AND ?", expr), nil
	case operators.In, operators.NotIn:
		if len(args) == 0 {
			if op.Kind() == operators.In {
				return alwaysFalse, nil
			}
			return fmt.Sprintf("%s IS NOT NULL", expr), nil
		}
		markers := make([]string, len(args))
		for i := range args {
			markers[i] = "?"
		}
		c.params = append(c.params, args...)
		keyword := "IN"
		if op.Kind() == operators.NotIn {
			keyword = "NOT IN"
		}
		return fmt.Sprintf("%s %s (%s)", expr, keyword, strings.Join(markers, ", ")), nil
	case operators.Null:
		return expr + " IS NULL", nil
	case operators.NotNull:
		return expr + " IS NOT NULL", nil
	case operators.Like, operators.NotLike:
		return c.compileLike(expr, op), nil
	case operators.Token, operators.NotToken:
		return c.compileToken(expr, r)
	}
	return "", &query.TranslationError{Criterion: r.String(), Reason: fmt.Sprintf("operator %s has no SQL form", op.Kind())}
}

func (c *Compiler) compileLike(expr string, op operators.Operator) string {
	value, _ := op.Value().(string)
	if !op.CaseSensitive() {
		expr = "lower(" + expr + ")"
		value = operators.Fold(value)
	}
	keyword := "LIKE"
	if op.Kind() == operators.NotLike {
		keyword = "NOT LIKE"
	}
	c.params = append(c.params, likePattern(value, op.Mode()))
	return fmt.Sprintf("%s %s ? ESCAPE '%s'", expr, keyword, likeEscape)
}

var likeEscaper = strings.NewReplacer(likeEscape, likeEscape+likeEscape, "%", likeEscape+"%", "_", likeEscape+"_")

func likePattern(value string, mode operators.MatchMode) string {
	value = likeEscaper.Replace(value)
	switch mode {
	case operators.Start:
		return value + "%"
	case operators.End:
		return "%" + value
	case operators.Exact:
		return value
	}
	return "%" + value + "%"
}

// compileToken requires one regular expression match per search term.
func (c *Compiler) compileToken(expr string, r query.Restriction) (string, error) {
	op := r.Operator
	if !c.dialect.SupportsToken() {
		return "", &query.TranslationError{Criterion: r.String(), Reason: c.dialect.Name() + " cannot match tokens"}
	}
	value, _ := op.Value().(string)
	terms := operators.Tokenize(value)
	if len(terms) == 0 {
		if op.Kind() == operators.NotToken {
			return alwaysFalse, nil
		}
		return expr + " IS NOT NULL", nil
	}
	match := "~*"
	if op.CaseSensitive() {
		match = "~"
	}
	parts := make([]string, len(terms))
	for i, term := range terms {
		parts[i] = fmt.Sprintf("%s %s ?", expr, match)
		c.params = append(c.params, tokenPattern(term, op.Mode()))
	}
	sql := strings.Join(parts, " AND ")
	if op.Kind() == operators.NotToken {
		return "NOT (" + sql + ")", nil
	}
	if len(parts) > 1 {
		sql = "(" + sql + ")"
	}
	return sql, nil
}

const (
	tokenStart = `(^|[^[:alnum:]])`
	tokenEnd   = `([^[:alnum:]]|$)`
)

func tokenPattern(term string, mode operators.MatchMode) string {
	term = regexp.QuoteMeta(term)
	switch mode {
	case operators.Start:
		return tokenStart + term
	case operators.End:
		return term + tokenEnd
	case operators.Exact:
		return tokenStart + term + tokenEnd
	}
	return term
}
