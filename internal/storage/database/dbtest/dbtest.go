// Package dbtest checks that a database.DB implementation behaves like the
// others. Every backend runs it from its own tests.
package dbtest

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/gorebase/internal/storage/database"
)

// Run exercises db. It expects an empty database and closes it when done.
func Run(t *testing.T, db database.DB) {
	t.Helper()
	ctx := context.Background()

	t.Run("read missing", func(t *testing.T) {
		_, err := db.Read(ctx, []byte("missing"))
		assert.ErrorIs(t, err, database.ErrKeyNotFound)
	})

	t.Run("write read delete", func(t *testing.T) {
		key, value := []byte("k"), []byte("v1")
		require.NoError(t, db.Write(ctx, key, value))

		got, err := db.Read(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, value, got)

		require.NoError(t, db.Write(ctx, key, []byte("v2")))
		got, err = db.Read(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, []byte("v2"), got)

		require.NoError(t, db.Delete(ctx, key))
		_, err = db.Read(ctx, key)
		assert.ErrorIs(t, err, database.ErrKeyNotFound)

		require.NoError(t, db.Delete(ctx, key), "deleting a missing key is not an error")
	})

	t.Run("returned values are copies", func(t *testing.T) {
		value := []byte("abc")
		require.NoError(t, db.Write(ctx, []byte("copy"), value))
		value[0] = 'x'

		got, err := db.Read(ctx, []byte("copy"))
		require.NoError(t, err)
		assert.Equal(t, []byte("abc"), got)

		got[0] = 'y'
		again, err := db.Read(ctx, []byte("copy"))
		require.NoError(t, err)
		assert.Equal(t, []byte("abc"), again)
		require.NoError(t, db.Delete(ctx, []byte("copy")))
	})

	t.Run("batch", func(t *testing.T) {
		require.NoError(t, db.Write(ctx, []byte("b/gone"), []byte("x")))

		ops := []database.BatchOperation{
			database.Put([]byte("b/1"), []byte("one")),
			database.Put([]byte("b/2"), []byte("two")),
			database.Del([]byte("b/gone")),
		}
		require.NoError(t, db.Batch(ctx, ops))

		got, err := db.Read(ctx, []byte("b/2"))
		require.NoError(t, err)
		assert.Equal(t, []byte("two"), got)
		_, err = db.Read(ctx, []byte("b/gone"))
		assert.ErrorIs(t, err, database.ErrKeyNotFound)

		err = db.Batch(ctx, []database.BatchOperation{{Type: database.BatchOpType(9), Key: []byte("b/3")}})
		assert.Error(t, err)
		_, err = db.Read(ctx, []byte("b/3"))
		assert.ErrorIs(t, err, database.ErrKeyNotFound)
	})

	t.Run("iterator", func(t *testing.T) {
		for i := 0; i < 5; i++ {
			require.NoError(t, db.Write(ctx, []byte(fmt.Sprintf("it/%d", i)), []byte{byte(i)}))
		}
		require.NoError(t, db.Write(ctx, []byte("iu"), []byte("outside")))

		prefix := []byte("it/")
		assert.Equal(t, []string{"it/0", "it/1", "it/2", "it/3", "it/4"}, keys(t, db, prefix, database.PrefixEnd(prefix)))
		assert.Equal(t, []string{"it/1", "it/2"}, keys(t, db, []byte("it/1"), []byte("it/3")), "end is exclusive")
		assert.Equal(t, []string{"iu"}, keys(t, db, []byte("iu"), nil), "nil end is open")

		all := keys(t, db, nil, nil)
		assert.Contains(t, all, "it/0")
		assert.Contains(t, all, "iu")
		assert.Empty(t, keys(t, db, []byte("zz"), nil))
	})

	t.Run("close", func(t *testing.T) {
		require.NoError(t, db.Close())
		_, err := db.Read(ctx, []byte("k"))
		assert.ErrorIs(t, err, database.ErrDBClosed)
		assert.ErrorIs(t, db.Write(ctx, []byte("k"), nil), database.ErrDBClosed)
	})
}

func keys(t *testing.T, db database.DB, start, end []byte) []string {
	t.Helper()
	it, err := db.Iterator(context.Background(), start, end)
	require.NoError(t, err)
	defer it.Close()

	var out []string
	for it.Next() {
		out = append(out, string(it.Key()))
		require.NotNil(t, it.Value())
	}
	require.NoError(t, it.Error())
	return out
}
