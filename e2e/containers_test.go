package e2e_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcminio "github.com/testcontainers/testcontainers-go/modules/minio"
	mongocontainer "github.com/testcontainers/testcontainers-go/modules/mongodb"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
)

var (
	containersMu sync.Mutex
	containers   []testcontainers.Container

	pgOnce sync.Once
	pgDSN  string
	pgErr  error

	mongoOnce sync.Once
	mongoURI  string
	mongoErr  error

	minioOnce sync.Once
	minioCfg  MinioConfig
	minioErr  error
)

func track(c testcontainers.Container) {
	containersMu.Lock()
	defer containersMu.Unlock()
	containers = append(containers, c)
}

func terminateContainers() {
	containersMu.Lock()
	defer containersMu.Unlock()
	for _, c := range containers {
		_ = testcontainers.TerminateContainer(c)
	}
}

func skipContainers(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
}

// getSharedPostgres returns the DSN of a PostgreSQL container shared by all tests.
func getSharedPostgres(t *testing.T) string {
	t.Helper()
	skipContainers(t)

	pgOnce.Do(func() {
		ctx := context.Background()

		c, err := pgcontainer.Run(ctx,
			"postgres:18-alpine",
			pgcontainer.WithDatabase("testdb"),
			pgcontainer.WithUsername("testuser"),
			pgcontainer.WithPassword("testpass"),
			pgcontainer.BasicWaitStrategies(),
		)
		if err != nil {
			pgErr = err
			return
		}
		track(c)

		pgDSN, pgErr = c.ConnectionString(ctx, "sslmode=disable")
	})

	require.NoError(t, pgErr, "postgres container")
	return pgDSN
}

// getSharedMongo returns the URI of a MongoDB container shared by all tests.
func getSharedMongo(t *testing.T) string {
	t.Helper()
	skipContainers(t)

	mongoOnce.Do(func() {
		ctx := context.Background()

		c, err := mongocontainer.Run(ctx, "mongo:7")
		if err != nil {
			mongoErr = err
			return
		}
		track(c)

		mongoURI, mongoErr = c.ConnectionString(ctx)
	})

	require.NoError(t, mongoErr, "mongodb container")
	return mongoURI
}

// getSharedMinio returns credentials for a minio container shared by all tests.
func getSharedMinio(t *testing.T) MinioConfig {
	t.Helper()
	skipContainers(t)

	minioOnce.Do(func() {
		ctx := context.Background()

		c, err := tcminio.Run(ctx, "minio/minio:RELEASE.2024-01-16T16-07-38Z")
		if err != nil {
			minioErr = err
			return
		}
		track(c)

		endpoint, err := c.ConnectionString(ctx)
		if err != nil {
			minioErr = err
			return
		}

		minioCfg = MinioConfig{
			Endpoint:  endpoint,
			AccessKey: c.Username,
			SecretKey: c.Password,
		}
	})

	require.NoError(t, minioErr, "minio container")
	return minioCfg
}
