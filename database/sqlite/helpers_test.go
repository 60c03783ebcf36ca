package sqlite_test

import (
	"context"
	"testing"

	"github.com/apollo-music/songvault"
	"github.com/apollo-music/songvault/database/sqlite"
	"github.com/stretchr/testify/require"
)

// setupTestRepo returns a repo over its own in-memory database.
func setupTestRepo(t *testing.T) songvault.SongRepo {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.Connect(ctx, ":memory:", songvault.Tables{Songs: "songs"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate(ctx))
	return db.GetRepo()
}
