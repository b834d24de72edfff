package testutils

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/krew-solutions/ascetic-query-go/asceticquery/config"
	pgxsession "github.com/krew-solutions/ascetic-query-go/asceticquery/session/pgx"
	sqlsession "github.com/krew-solutions/ascetic-query-go/asceticquery/session/sql"
)

// NewPgSessionPool connects with ASCETICQUERY_DATABASE_* settings.
func NewPgSessionPool(ctx context.Context) (*pgxsession.SessionPool, error) {
	cfg, err := config.LoadConfig("")
	if err != nil {
		return nil, err
	}
	return pgxsession.Connect(ctx, cfg.Database.DSN())
}

var sqliteSeq atomic.Int64

// NewSQLiteSessionPool opens a private in-memory database. The pool keeps one connection so
// the database lives as long as the pool.
func NewSQLiteSessionPool() (*sqlsession.SessionPool, error) {
	name := fmt.Sprintf("file:%s-%d?mode=memory&cache=shared&_pragma=case_sensitive_like(1)&_time_format=sqlite",
		uuid.NewString(), sqliteSeq.Add(1))
	db, err := sqlsession.OpenSQLite(name)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return sqlsession.NewSessionPool(db), nil
}
