package leveldb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/gorebase/internal/storage/database"
	"github.com/LeJamon/gorebase/internal/storage/database/dbtest"
)

func TestConformance(t *testing.T) {
	db, err := Open(t.TempDir())
	require.NoError(t, err)
	dbtest.Run(t, db)
}

func TestReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	db, err := database.Open("leveldb", dir)
	require.NoError(t, err)
	require.NoError(t, db.Batch(ctx, []database.BatchOperation{database.Put([]byte("a"), []byte("1"))}))
	require.NoError(t, db.Close())

	db, err = database.Open("leveldb", dir)
	require.NoError(t, err)
	defer db.Close()

	got, err := db.Read(ctx, []byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), got)
}
