package sqlstore

import (
	"fmt"
	"strings"

	query "github.com/krew-solutions/ascetic-query-go/asceticquery/query/domain"
)

// Dialect covers what differs between the supported SQL databases.
type Dialect interface {
	Name() string
	// Placeholders rewrites the ? markers produced by the compiler.
	Placeholders(sql string) string
	// SupportsToken reports whether word-token matching can run in the database.
	SupportsToken() bool
	// Paginate returns the LIMIT/OFFSET clause, or "" when the query is not paginated.
	Paginate(firstResult int, maxResults query.Bound) (string, []any)
}

type postgres struct{}

// Postgres numbers placeholders and matches tokens with POSIX regular expressions.
var Postgres Dialect = postgres{}

func (postgres) Name() string {
	return "postgres"
}

func (postgres) Placeholders(sql string) string {
	return replaceParamMarkers(sql)
}

func (postgres) SupportsToken() bool {
	return true
}

func (postgres) Paginate(firstResult int, maxResults query.Bound) (string, []any) {
	var (
		parts  []string
		params []any
	)
	if maxResults.IsSet() {
		parts = append(parts, "LIMIT ?")
		params = append(params, maxResults.Get())
	}
	if firstResult > 0 {
		parts = append(parts, "OFFSET ?")
		params = append(params, firstResult)
	}
	return strings.Join(parts, " "), params
}

type sqlite struct{}

// SQLite keeps ? placeholders and has no regular expressions, so tokens stay in memory.
// Case-insensitive matching relies on the Unicode lower() installed by sql.OpenSQLite.
var SQLite Dialect = sqlite{}

func (sqlite) Name() string {
	return "sqlite"
}

func (sqlite) Placeholders(sql string) string {
	return sql
}

func (sqlite) SupportsToken() bool {
	return false
}

// Paginate always emits LIMIT because SQLite does not accept a bare OFFSET.
func (sqlite) Paginate(firstResult int, maxResults query.Bound) (string, []any) {
	if !maxResults.IsSet() && firstResult == 0 {
		return "", nil
	}
	return "LIMIT ? OFFSET ?", []any{maxResults.GetOr(-1), firstResult}
}

// DialectByName resolves a configured driver name.
func DialectByName(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	}
	return nil, fmt.Errorf("unknown sql dialect %q", name)
}

// replaceParamMarkers turns ? into $1, $2... outside of string literals.
func replaceParamMarkers(sql string) string {
	var b strings.Builder
	idx := 1
	quoted := false
	for i := 0; i < len(sql); i++ {
		switch {
		case sql[i] == '\'':
			quoted = !quoted
			b.WriteByte(sql[i])
		case sql[i] == '?' && !quoted:
			b.WriteString(fmt.Sprintf("$%d", idx))
			idx++
		default:
			b.WriteByte(sql[i])
		}
	}
	return b.String()
}
