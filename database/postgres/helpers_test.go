package postgres_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/apollo-music/songvault"
	"github.com/apollo-music/songvault/database/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
)

// shared is one postgres container for the whole test binary.
var shared struct {
	once sync.Once
	dsn  string
	pool *pgxpool.Pool
	err  error
}

func startPostgres(ctx context.Context) (string, error) {
	container, err := pgcontainer.Run(ctx,
		"postgres:18-alpine",
		pgcontainer.WithDatabase("songvault"),
		pgcontainer.WithUsername("songvault"),
		pgcontainer.WithPassword("songvault"),
		pgcontainer.BasicWaitStrategies(),
	)
	if err != nil {
		return "", err
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = testcontainers.TerminateContainer(container)
		return "", err
	}
	return dsn, nil
}

// testPool returns the shared pool and its DSN, skipping in -short mode.
func testPool(t *testing.T) (*pgxpool.Pool, string) {
	t.Helper()

	if testing.Short() {
		t.Skip("postgres container tests are skipped with -short")
	}

	shared.once.Do(func() {
		ctx := context.Background()
		if shared.dsn, shared.err = startPostgres(ctx); shared.err != nil {
			return
		}
		shared.pool, shared.err = pgxpool.New(ctx, shared.dsn)
	})

	require.NoError(t, shared.err, "start postgres")
	return shared.pool, shared.dsn
}

// freshTables returns table names no other test uses. They are dropped when
// the test ends.
func freshTables(t *testing.T, pool *pgxpool.Pool) songvault.Tables {
	t.Helper()

	tables := songvault.Tables{Songs: "songs_" + strings.ReplaceAll(uuid.NewString(), "-", "")}
	t.Cleanup(func() { _ = postgres.DropTables(context.Background(), pool, tables) })
	return tables
}

// setupTestRepo returns a repo over a migrated table private to t.
func setupTestRepo(t *testing.T) songvault.SongRepo {
	t.Helper()

	pool, dsn := testPool(t)
	ctx := context.Background()

	db, err := postgres.Connect(ctx, dsn, freshTables(t, pool))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate(ctx))
	return db.GetRepo()
}
