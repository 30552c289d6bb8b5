package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/gorebase/internal/storage/database"
	"github.com/LeJamon/gorebase/internal/storage/database/dbtest"
)

func TestConformance(t *testing.T) {
	dbtest.Run(t, New())
}

func TestRegistered(t *testing.T) {
	db, err := database.Open("memory", "")
	require.NoError(t, err)
	defer db.Close()

	assert.IsType(t, &DB{}, db)
}
