package testutils

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cast"

	"github.com/krew-solutions/ascetic-query-go/asceticquery/session"
)

// NewDbSessionStub records the statements it receives and answers them with rows.
func NewDbSessionStub(rows *RowsStub) *DbSessionStub {
	stub := &DbSessionStub{
		Rows: rows,
		ctx:  context.Background(),
	}
	stub.conn = &connectionStub{session: stub}
	return stub
}

type DbSessionStub struct {
	Rows         *RowsStub
	ActualQuery  string
	ActualParams []any
	// Queries keeps every statement in arrival order.
	Queries []string
	ctx     context.Context
	conn    *connectionStub
}

// WithContext returns the stub bound to ctx, sharing recorded statements.
func (s *DbSessionStub) WithContext(ctx context.Context) *DbSessionStub {
	s.ctx = ctx
	return s
}

func (s *DbSessionStub) Context() context.Context {
	return s.ctx
}

func (s *DbSessionStub) Atomic(callback session.SessionCallback) error {
	return callback(s)
}

func (s *DbSessionStub) Connection() session.DbConnection {
	return s.conn
}

type connectionStub struct {
	session *DbSessionStub
}

func (c *connectionStub) record(query string, args []any) {
	c.session.ActualQuery = query
	c.session.ActualParams = args
	c.session.Queries = append(c.session.Queries, query)
}

func (c *connectionStub) Query(query string, args ...any) (session.Rows, error) {
	c.record(query, args)
	return c.session.Rows, nil
}

func (c *connectionStub) QueryRow(query string, args ...any) session.Row {
	c.record(query, args)
	return &RowStub{rows: c.session.Rows}
}

func NewRowsStub(rows ...[]any) *RowsStub {
	return &RowsStub{
		rows: rows,
		idx:  -1,
	}
}

type RowsStub struct {
	rows   [][]any
	idx    int
	Closed bool
}

func (r *RowsStub) Close() error {
	r.Closed = true
	return nil
}

func (r *RowsStub) Err() error {
	return nil
}

func (r *RowsStub) Next() bool {
	r.idx++
	return r.idx < len(r.rows)
}

func (r *RowsStub) Scan(dest ...any) error {
	if r.idx < 0 || r.idx >= len(r.rows) {
		return errors.New("no current row")
	}
	row := r.rows[r.idx]
	for i, val := range row {
		if i >= len(dest) {
			break
		}
		if err := assign(dest[i], val); err != nil {
			return fmt.Errorf("column %d: %w", i, err)
		}
	}
	return nil
}

func assign(dest, val any) error {
	var err error
	switch d := dest.(type) {
	case sql.Scanner:
		return d.Scan(val)
	case *any:
		*d = val
	case *int:
		*d, err = cast.ToIntE(val)
	case *int64:
		*d, err = cast.ToInt64E(val)
	case *int32:
		*d, err = cast.ToInt32E(val)
	case *string:
		*d, err = cast.ToStringE(val)
	case *bool:
		*d, err = cast.ToBoolE(val)
	case *float64:
		*d, err = cast.ToFloat64E(val)
	case *time.Time:
		*d, err = cast.ToTimeE(val)
	case *[]byte:
		b, ok := val.([]byte)
		if !ok {
			return fmt.Errorf("cannot scan %T into []byte", val)
		}
		*d = b
	default:
		return fmt.Errorf("unsupported scan type %T", dest)
	}
	return err
}

type RowStub struct {
	rows *RowsStub
}

// Scan reads the first unread row, like database/sql QueryRow.
func (r *RowStub) Scan(dest ...any) error {
	if !r.rows.Next() {
		return sql.ErrNoRows
	}
	return r.rows.Scan(dest...)
}
