package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/pushpak01/pushtoys-render/internal/catalog/domain"
	"github.com/pushpak01/pushtoys-render/internal/storage"
)

// Runs the repository against a real postgres; needs a local docker daemon.
func setupPostgres(t *testing.T) *Repository {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	cred := &storage.Credentials{
		Driver:            storage.DriverPostgres,
		Host:              host,
		Port:              port.Int(),
		User:              "testuser",
		Password:          "testpass",
		DBName:            "testdb",
		MigrationsDirPath: "../../storage/migrations",
	}

	db, err := storage.Open(cred)
	require.NoError(t, err)
	require.NoError(t, storage.RunMigrations(db, storage.DriverPostgres, cred.MigrationsDirPath))
	t.Cleanup(func() { db.Close() })

	return NewRepository(db)
}

func TestPostgres_CreateReportsGeneratedIDs(t *testing.T) {
	repo := setupPostgres(t)
	ctx := context.Background()

	toys := &domain.Category{Name: "Wooden Toys"}
	require.NoError(t, repo.CreateCategory(ctx, toys))
	require.NotZero(t, toys.ID, "insert must report the generated id")

	p := &domain.Product{
		Name:       "Wooden Train",
		CategoryID: toys.ID,
		Price:      decimal.RequireFromString("10.00"),
		Stock:      5,
		Available:  true,
	}
	require.NoError(t, repo.CreateProduct(ctx, p))
	require.NotZero(t, p.ID, "insert must report the generated id")

	got, err := repo.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Wooden Train", got.Name)
	assert.Equal(t, toys.ID, got.CategoryID)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("10.00")))

	dup := &domain.Product{Name: "Wooden Train", Price: decimal.RequireFromString("11.00"), Available: true}
	assert.ErrorIs(t, repo.CreateProduct(ctx, dup), ErrDuplicateSlug)
}
