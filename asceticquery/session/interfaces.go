// Package session is what the store engine needs from persistence: a read session bound to
// the context of one query, optionally narrowed to a session that can run SQL.
package session

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

var ErrNotDbSession = errors.New("session does not expose a database connection")

type SessionCallback func(Session) error

// Session carries the context of a query execution. Atomic runs callback inside a read
// snapshot, so a count and a page taken in the same callback observe the same rows.
type Session interface {
	Context() context.Context
	Atomic(callback SessionCallback) error
}

// SessionPool hands out sessions bound to ctx for the duration of callback.
type SessionPool interface {
	Session(ctx context.Context, callback SessionCallback) error
}

type Row interface {
	Scan(dest ...any) error
}

// Rows is a statement cursor. Scan follows the order of the select list.
type Rows interface {
	Row
	Next() bool
	Err() error
	Close() error
}

// DbConnection runs statements written with the placeholders of its dialect.
type DbConnection interface {
	Query(query string, args ...any) (Rows, error)
	QueryRow(query string, args ...any) Row
}

type DbSession interface {
	Session
	Connection() DbConnection
}

// AsDbSession narrows s to a session that can run SQL.
func AsDbSession(s Session) (DbSession, error) {
	dbs, ok := s.(DbSession)
	if !ok {
		return nil, errors.Wrap(ErrNotDbSession, fmt.Sprintf("%T", s))
	}
	return dbs, nil
}
