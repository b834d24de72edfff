package pgx

import (
	"context"

	"github.com/hashicorp/go-multierror"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/krew-solutions/ascetic-query-go/asceticquery/session"
)

var readSnapshot = pgx.TxOptions{
	IsoLevel:   pgx.RepeatableRead,
	AccessMode: pgx.ReadOnly,
}

// Session runs statements on a pooled connection, or on the read snapshot opened by Atomic.
type Session struct {
	ctx      context.Context
	conn     *pgxpool.Conn
	snapshot pgx.Tx
}

func NewSession(ctx context.Context, conn *pgxpool.Conn) *Session {
	return &Session{
		ctx:  ctx,
		conn: conn,
	}
}

func (s *Session) Context() context.Context {
	return s.ctx
}

func (s *Session) Connection() session.DbConnection {
	if s.snapshot != nil {
		return &connection{ctx: s.ctx, exec: s.snapshot}
	}
	return &connection{ctx: s.ctx, exec: s.conn}
}

// Atomic runs callback in a read-only repeatable read transaction. Nested calls share it.
// The snapshot is always rolled back.
func (s *Session) Atomic(callback session.SessionCallback) (err error) {
	if s.snapshot != nil {
		return callback(s)
	}
	tx, err := s.conn.BeginTx(s.ctx, readSnapshot)
	if err != nil {
		return errors.Wrap(err, "unable to open read snapshot")
	}
	defer func() {
		if rbErr := tx.Rollback(s.ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			err = multierror.Append(err, rbErr)
		}
	}()
	return callback(&Session{ctx: s.ctx, conn: s.conn, snapshot: tx})
}

// executor is satisfied by *pgxpool.Conn and pgx.Tx.
type executor interface {
	Query(ctx context.Context, query string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) pgx.Row
}

type connection struct {
	ctx  context.Context
	exec executor
}

func (c *connection) Query(query string, args ...any) (session.Rows, error) {
	r, err := c.exec.Query(c.ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return &rows{Rows: r}, nil
}

func (c *connection) QueryRow(query string, args ...any) session.Row {
	return c.exec.QueryRow(c.ctx, query, args...)
}

// rows adapts pgx.Rows, whose Close reports failures through Err.
type rows struct {
	pgx.Rows
}

func (r *rows) Close() error {
	r.Rows.Close()
	return r.Rows.Err()
}
