package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/gorebase/internal/storage/database"
	"github.com/LeJamon/gorebase/internal/storage/database/dbtest"
)

func TestConformance(t *testing.T) {
	db, err := Open("")
	require.NoError(t, err)
	dbtest.Run(t, db)
}

func TestReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	db, err := database.Open("badger", dir)
	require.NoError(t, err)
	require.NoError(t, db.Write(ctx, []byte("persist"), []byte("yes")))
	require.NoError(t, db.Close())

	db, err = database.Open("badger", dir)
	require.NoError(t, err)
	defer db.Close()

	got, err := db.Read(ctx, []byte("persist"))
	require.NoError(t, err)
	assert.Equal(t, []byte("yes"), got)
}
