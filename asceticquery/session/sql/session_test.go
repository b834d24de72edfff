package sql_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krew-solutions/ascetic-query-go/asceticquery/session"
	"github.com/krew-solutions/ascetic-query-go/asceticquery/utils/testutils"
)

func count(t *testing.T, s session.Session) int64 {
	t.Helper()
	dbSession, err := session.AsDbSession(s)
	require.NoError(t, err)
	var n int64
	require.NoError(t, dbSession.Connection().QueryRow("SELECT count(*) FROM item").Scan(&n))
	return n
}

func TestSessionReadsInsideAtomic(t *testing.T) {
	pool, err := testutils.NewSQLiteSessionPool()
	require.NoError(t, err)
	defer pool.Close()

	_, err = pool.DB().Exec("CREATE TABLE item (name TEXT)")
	require.NoError(t, err)
	_, err = pool.DB().Exec("INSERT INTO item VALUES ('a'), ('b')")
	require.NoError(t, err)

	err = pool.Session(context.Background(), func(s session.Session) error {
		assert.Equal(t, int64(2), count(t, s))
		return s.Atomic(func(tx session.Session) error {
			assert.NotSame(t, s, tx)
			assert.Equal(t, int64(2), count(t, tx))
			return tx.Atomic(func(nested session.Session) error {
				assert.Same(t, tx, nested)
				return nil
			})
		})
	})
	require.NoError(t, err)
}

func TestAtomicReturnsCallbackError(t *testing.T) {
	pool, err := testutils.NewSQLiteSessionPool()
	require.NoError(t, err)
	defer pool.Close()

	failure := errors.New("boom")
	err = pool.Session(context.Background(), func(s session.Session) error {
		return s.Atomic(func(session.Session) error {
			return failure
		})
	})
	assert.ErrorIs(t, err, failure)
}

func TestSessionRefusesCancelledContext(t *testing.T) {
	pool, err := testutils.NewSQLiteSessionPool()
	require.NoError(t, err)
	defer pool.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err = pool.Session(ctx, func(session.Session) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestSQLiteLowerFoldsUnicode(t *testing.T) {
	pool, err := testutils.NewSQLiteSessionPool()
	require.NoError(t, err)
	defer pool.Close()

	var folded string
	require.NoError(t, pool.DB().QueryRow("SELECT lower('ÀÉÎ Straße ABC')").Scan(&folded))
	assert.Equal(t, "àéî straße abc", folded)

	var number string
	require.NoError(t, pool.DB().QueryRow("SELECT lower(12)").Scan(&number))
	assert.Equal(t, "12", number)

	var missing *string
	require.NoError(t, pool.DB().QueryRow("SELECT lower(NULL)").Scan(&missing))
	assert.Nil(t, missing)
}
