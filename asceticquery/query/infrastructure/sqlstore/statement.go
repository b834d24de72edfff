package sqlstore

import (
	"context"
	"fmt"
	"strings"

	query "github.com/krew-solutions/ascetic-query-go/asceticquery/query/domain"
)

// Statement is a complete SQL statement with dialect placeholders.
type Statement struct {
	SQL    string
	Params []any
}

func (s Statement) String() string {
	return fmt.Sprintf("%s %v", s.SQL, s.Params)
}

// SelectStatement renders q with ordering and pagination. LIMIT and OFFSET only ever
// apply to the outer select.
func SelectStatement(ctx context.Context, dialect Dialect, access AccessPolicy, q query.Query) (Statement, error) {
	sch := q.Schema()
	alias := RootAlias(sch)
	columns := sch.Columns()
	if len(columns) == 0 {
		return Statement{}, fmt.Errorf("schema %q has no persisted columns", sch.Name())
	}
	selectList := make([]string, len(columns))
	for i, column := range columns {
		selectList[i] = alias + "." + column
	}

	where, params, err := whereClause(ctx, dialect, access, q, alias)
	if err != nil {
		return Statement{}, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s AS %s", strings.Join(selectList, ", "), sch.Table(), alias)
	if where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(where)
	}
	if orderBy := orderByClause(alias, q.Orders()); orderBy != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(orderBy)
	}
	if page, pageParams := dialect.Paginate(q.FirstResult(), q.MaxResults()); page != "" {
		b.WriteString(" ")
		b.WriteString(page)
		params = append(params, pageParams...)
	}
	return Statement{SQL: dialect.Placeholders(b.String()), Params: params}, nil
}

// CountStatement counts every row matching q, ignoring ordering and pagination.
func CountStatement(ctx context.Context, dialect Dialect, access AccessPolicy, q query.Query) (Statement, error) {
	sch := q.Schema()
	alias := RootAlias(sch)
	where, params, err := whereClause(ctx, dialect, access, q, alias)
	if err != nil {
		return Statement{}, err
	}
	sql := fmt.Sprintf("SELECT count(*) FROM %s AS %s", sch.Table(), alias)
	if where != "" {
		sql += " WHERE " + where
	}
	return Statement{SQL: dialect.Placeholders(sql), Params: params}, nil
}

// whereClause ANDs the access predicate to the caller's criteria whatever their junction type.
func whereClause(
	ctx context.Context, dialect Dialect, access AccessPolicy, q query.Query, alias string,
) (string, []any, error) {
	var (
		parts  []string
		params []any
	)
	if q.HasCriteria() {
		fragment, err := NewCompiler(dialect).Compile(q.Schema(), alias, q.Root())
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, fragment.SQL)
		params = append(params, fragment.Params...)
	}
	if access != nil {
		fragment, err := access.ReadPredicate(ctx, q.Schema(), alias)
		if err != nil {
			return "", nil, err
		}
		if !fragment.IsEmpty() {
			parts = append(parts, fragment.SQL)
			params = append(params, fragment.Params...)
		}
	}
	if len(parts) > 1 {
		for i := range parts {
			parts[i] = "(" + parts[i] + ")"
		}
	}
	return strings.Join(parts, " AND "), params, nil
}

// Null keys sort first ascending and last descending.
func orderByClause(alias string, orders []query.Order) string {
	parts := make([]string, 0, len(orders))
	for _, o := range orders {
		expr := alias + "." + o.Property.Column
		if o.IgnoreCase {
			expr = "lower(" + expr + ")"
		}
		if o.Direction == query.Descending {
			parts = append(parts, expr+" DESC NULLS LAST")
		} else {
			parts = append(parts, expr+" ASC NULLS FIRST")
		}
	}
	return strings.Join(parts, ", ")
}
