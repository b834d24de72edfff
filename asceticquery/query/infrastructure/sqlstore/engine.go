package sqlstore

import (
	"context"
	"log/slog"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/krew-solutions/ascetic-query-go/asceticquery/logger"
	query "github.com/krew-solutions/ascetic-query-go/asceticquery/query/domain"
	"github.com/krew-solutions/ascetic-query-go/asceticquery/query/domain/operators"
	"github.com/krew-solutions/ascetic-query-go/asceticquery/schema"
	"github.com/krew-solutions/ascetic-query-go/asceticquery/session"
)

type Option func(*Engine)

func WithAccessPolicy(access AccessPolicy) Option {
	return func(e *Engine) {
		e.access = access
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// Engine runs queries against a SQL database through a DbSession.
type Engine struct {
	dialect Dialect
	access  AccessPolicy
	logger  *slog.Logger
}

func NewEngine(dialect Dialect, opts ...Option) *Engine {
	e := &Engine{
		dialect: dialect,
		access:  NoAccessRestriction,
	}
	for i := range opts {
		opts[i](e)
	}
	if e.logger == nil {
		e.logger = logger.Get()
	}
	return e
}

func (e *Engine) Dialect() Dialect {
	return e.dialect
}

// Supports reports whether the restriction op on path can be compiled. Planners use it as
// their capability.
func (e *Engine) Supports(op operators.Operator, path []schema.Property) bool {
	for _, p := range path[:len(path)-1] {
		if p.Relation == nil || p.Relation.Table == "" {
			return false
		}
	}
	terminal := schema.Terminal(path)
	switch {
	case terminal.IsCollection():
		if terminal.Relation == nil {
			return false
		}
		switch op.Kind() {
		case operators.Between, operators.In, operators.NotIn, operators.Empty:
			return true
		}
		return false
	case terminal.Type == schema.TypeReference:
		return terminal.Column != "" && (op.Kind() == operators.Null || op.Kind() == operators.NotNull)
	case terminal.Column == "":
		return false
	}
	switch op.Kind() {
	case operators.Token, operators.NotToken:
		return e.dialect.SupportsToken()
	}
	return true
}

// Explain renders the select statement without running it.
func (e *Engine) Explain(ctx context.Context, q query.Query) (Statement, error) {
	return SelectStatement(ctx, e.dialect, e.access, q)
}

// Query returns the materialized rows of q in store order.
func (e *Engine) Query(s session.Session, q query.Query) ([]any, error) {
	stmt, err := SelectStatement(s.Context(), e.dialect, e.access, q)
	if err != nil {
		return nil, err
	}
	dbSession, err := session.AsDbSession(s)
	if err != nil {
		return nil, err
	}
	started := time.Now()
	rows, err := dbSession.Connection().Query(stmt.SQL, stmt.Params...)
	if err != nil {
		return nil, errors.Wrapf(err, "query %s", q.Schema().Name())
	}
	result, err := e.scan(q.Schema(), rows)
	e.logger.Debug("store query",
		"schema", q.Schema().Name(),
		"sql", stmt.SQL,
		"params", len(stmt.Params),
		"rows", len(result),
		"elapsed", time.Since(started),
	)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (e *Engine) scan(sch *schema.Schema, rows session.Rows) (result []any, err error) {
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = multierror.Append(err, closeErr)
		}
	}()
	for rows.Next() {
		entity, err := sch.Scan(rows)
		if err != nil {
			return nil, errors.Wrapf(err, "scan %s", sch.Name())
		}
		result = append(result, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "iterate %s", sch.Name())
	}
	return result, nil
}

// Count returns the number of rows matching q, ignoring pagination.
func (e *Engine) Count(s session.Session, q query.Query) (int64, error) {
	stmt, err := CountStatement(s.Context(), e.dialect, e.access, q)
	if err != nil {
		return 0, err
	}
	dbSession, err := session.AsDbSession(s)
	if err != nil {
		return 0, err
	}
	var count int64
	if err := dbSession.Connection().QueryRow(stmt.SQL, stmt.Params...).Scan(&count); err != nil {
		return 0, errors.Wrapf(err, "count %s", q.Schema().Name())
	}
	e.logger.Debug("store count", "schema", q.Schema().Name(), "sql", stmt.SQL, "count", count)
	return count, nil
}
