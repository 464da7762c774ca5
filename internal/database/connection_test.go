package database

import (
	"context"
	"io/fs"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/neurocalc-mcp-server/internal/domain"
	"github.com/neurocalc-mcp-server/internal/feedback"
)

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := fs.ReadDir(migrationFiles, "migrations")
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Contains(t, names, "000001_create_calculation_feedback.up.sql")
	assert.Contains(t, names, "000001_create_calculation_feedback.down.sql")
}

func TestNewConnection_InvalidURL(t *testing.T) {
	logger, _ := test.NewNullLogger()

	_, err := NewConnection(context.Background(), "postgres://%zz", domain.DatabaseConfig{}, logger)
	assert.Error(t, err)
}

func TestDatabaseConnection(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Skipf("PostgreSQL container unavailable: %v", err)
	}
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate PostgreSQL container: %v", err)
		}
	}()

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	runner, err := NewMigrationRunner(dsn, logger)
	require.NoError(t, err)
	require.NoError(t, runner.Up(ctx))
	version, dirty, err := runner.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	// Running again is a no-op.
	require.NoError(t, runner.Up(ctx))
	require.NoError(t, runner.Close())

	db, err := NewConnection(ctx, dsn, domain.DatabaseConfig{
		MaxConns:        5,
		MinConns:        1,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
	}, logger)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Health(ctx))
	assert.NotZero(t, db.Stats().TotalConns())

	store, err := feedback.NewPostgresStore(db.SQL())
	require.NoError(t, err)

	fb := &feedback.Feedback{
		CalculatorID:            "gcs",
		Answers:                 domain.AnswerSet{"eye": domain.Number(4), "verbal": domain.Number(5), "motor": domain.Number(6)},
		SuggestedInterpretation: "Minor brain injury (GCS 13-15)",
		Agreed:                  true,
	}
	require.NoError(t, store.Save(ctx, fb))
	assert.NotZero(t, fb.ID)

	got, err := store.Get(ctx, "gcs", fb.AnswersFingerprint)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Answers["motor"].Equal(domain.Number(6)))
}
