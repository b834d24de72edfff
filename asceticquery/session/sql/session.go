package sql

import (
	"context"
	"database/sql"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/krew-solutions/ascetic-query-go/asceticquery/session"
)

// Session runs statements on a database/sql handle, or on the transaction opened by Atomic.
type Session struct {
	ctx context.Context
	db  *sql.DB
	tx  *sql.Tx
}

func NewSession(ctx context.Context, db *sql.DB) *Session {
	return &Session{
		ctx: ctx,
		db:  db,
	}
}

func (s *Session) Context() context.Context {
	return s.ctx
}

func (s *Session) Connection() session.DbConnection {
	if s.tx != nil {
		return &connection{ctx: s.ctx, exec: s.tx}
	}
	return &connection{ctx: s.ctx, exec: s.db}
}

// Atomic runs callback in one transaction, which is rolled back afterwards since sessions
// only read. Nested calls share it.
func (s *Session) Atomic(callback session.SessionCallback) (err error) {
	if s.tx != nil {
		return callback(s)
	}
	tx, err := s.db.BeginTx(s.ctx, nil)
	if err != nil {
		return errors.Wrap(err, "unable to start transaction")
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			err = multierror.Append(err, rbErr)
		}
	}()
	return callback(&Session{ctx: s.ctx, db: s.db, tx: tx})
}

type executor interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type connection struct {
	ctx  context.Context
	exec executor
}

func (c *connection) Query(query string, args ...any) (session.Rows, error) {
	rows, err := c.exec.QueryContext(c.ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *connection) QueryRow(query string, args ...any) session.Row {
	return c.exec.QueryRowContext(c.ctx, query, args...)
}

// SessionPool shares one *sql.DB, which pools connections itself.
type SessionPool struct {
	db *sql.DB
}

func NewSessionPool(db *sql.DB) *SessionPool {
	return &SessionPool{db: db}
}

func (p *SessionPool) DB() *sql.DB {
	return p.db
}

func (p *SessionPool) Close() error {
	return p.db.Close()
}

func (p *SessionPool) Session(ctx context.Context, callback session.SessionCallback) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return callback(NewSession(ctx, p.db))
}
