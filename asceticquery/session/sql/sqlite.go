package sql

import (
	"database/sql"
	"database/sql/driver"
	"sync"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"modernc.org/sqlite"
)

var registerFunctions = sync.OnceValue(func() error {
	return sqlite.RegisterDeterministicScalarFunction("lower", 1, unicodeLower)
})

// unicodeLower replaces SQLite's built-in lower(), which folds ASCII letters only.
func unicodeLower(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return cases.Lower(language.Und).String(v), nil
	case []byte:
		return cases.Lower(language.Und).String(string(v)), nil
	default:
		return cast.ToStringE(v)
	}
}

// OpenSQLite opens a modernc.org/sqlite database whose lower() folds case the way the
// in-memory engine does.
func OpenSQLite(dsn string) (*sql.DB, error) {
	if err := registerFunctions(); err != nil {
		return nil, errors.Wrap(err, "register sqlite functions")
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	return db, nil
}
