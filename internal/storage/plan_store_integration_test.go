package storage

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/fletcher-oaas/fletcher/internal/domain"
)

// setupPlanTestDatabase creates a PostgreSQL testcontainer and runs migrations.
func setupPlanTestDatabase(ctx context.Context, t *testing.T) (*pgcontainer.PostgresContainer, *Connection) {
	t.Helper()

	postgresContainer, err := pgcontainer.Run(ctx,
		"postgres:16-alpine",
		pgcontainer.WithDatabase("fletcher_test"),
		pgcontainer.WithUsername("test"),
		pgcontainer.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(120*time.Second),
		),
	)
	require.NoError(t, err)
	require.NotNil(t, postgresContainer)

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	config := &Config{
		databaseURL:     connStr,
		MaxOpenConns:    defaultMaxOpenConns,
		MaxIdleConns:    defaultMaxIdleConns,
		ConnMaxLifetime: defaultConnMaxLifetime,
		ConnMaxIdleTime: defaultConnMaxIdleTime,
	}

	conn, err := NewConnection(config) //nolint:contextcheck
	if err != nil {
		_ = postgresContainer.Terminate(ctx)
		require.NoError(t, err)
	}

	if err := runPlanTestMigrations(conn.DB); err != nil {
		_ = conn.Close()
		_ = postgresContainer.Terminate(ctx)
		require.NoError(t, err)
	}

	return postgresContainer, conn
}

func runPlanTestMigrations(db *sql.DB) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://../../migrations", postgresDriver, driver)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	return nil
}

func TestDatasetUpsertInsertThenUpdate(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	container, conn := setupPlanTestDatabase(ctx, t)

	t.Cleanup(func() {
		_ = conn.Close()
		_ = testcontainers.TerminateContainer(container)
	})

	tx, err := conn.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback() //nolint:errcheck

	param := domain.DatasetParam{Id: uuid.New(), Paused: false}
	ts := time.Now()

	inserted, err := DatasetUpsert(ctx, tx, param, "alice", ts)
	require.NoError(t, err)
	require.Equal(t, param.Id, inserted.Id)
	require.False(t, inserted.Paused)

	param.Paused = true
	ts2 := time.Now()

	updated, err := DatasetUpsert(ctx, tx, param, "bob", ts2)
	require.NoError(t, err)
	require.True(t, updated.Paused)
	require.Equal(t, "bob", updated.ModifiedBy)

	fetched, err := DatasetSelect(ctx, tx, param.Id)
	require.NoError(t, err)
	require.Equal(t, updated, fetched)
}

func TestDatasetSelectNotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	container, conn := setupPlanTestDatabase(ctx, t)

	t.Cleanup(func() {
		_ = conn.Close()
		_ = testcontainers.TerminateContainer(container)
	})

	tx, err := conn.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback() //nolint:errcheck

	_, err = DatasetSelect(ctx, tx, uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDataProductUpsertNeverOverwritesStateOnUpdate(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	container, conn := setupPlanTestDatabase(ctx, t)

	t.Cleanup(func() {
		_ = conn.Close()
		_ = testcontainers.TerminateContainer(container)
	})

	tx, err := conn.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback() //nolint:errcheck

	datasetID := uuid.New()
	ts := time.Now()

	_, err = DatasetUpsert(ctx, tx, domain.DatasetParam{Id: datasetID}, "alice", ts)
	require.NoError(t, err)

	dpParam := domain.DataProductParam{Id: "p1", Compute: domain.ComputeCams, Name: "n", Version: "1"}

	dp, err := DataProductUpsert(ctx, tx, datasetID, dpParam, "alice", ts)
	require.NoError(t, err)
	require.Equal(t, domain.StateWaiting, dp.State)
	require.Nil(t, dp.RunId)

	runID := uuid.New()
	link := "http://runs/run-123"

	withState, err := DataProductStateUpdate(ctx, tx, datasetID, domain.StateParam{
		DataProductId: "p1",
		State:         domain.StateQueued,
		RunId:         &runID,
		Link:          &link,
	}, "alice", time.Now())
	require.NoError(t, err)
	require.Equal(t, domain.StateQueued, withState.State)

	dpParam.Version = "2"

	redefined, err := DataProductUpsert(ctx, tx, datasetID, dpParam, "alice", time.Now())
	require.NoError(t, err)
	require.Equal(t, "2", redefined.Version)
	require.Equal(t, domain.StateQueued, redefined.State, "definition upsert must not reset state")
	require.NotNil(t, redefined.RunId)
	require.Equal(t, runID, *redefined.RunId)
}

func TestDependencyUpsertEnforcesForeignKey(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	container, conn := setupPlanTestDatabase(ctx, t)

	t.Cleanup(func() {
		_ = conn.Close()
		_ = testcontainers.TerminateContainer(container)
	})

	tx, err := conn.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback() //nolint:errcheck

	datasetID := uuid.New()
	ts := time.Now()

	_, err = DatasetUpsert(ctx, tx, domain.DatasetParam{Id: datasetID}, "alice", ts)
	require.NoError(t, err)

	_, err = DependencyUpsert(ctx, tx, datasetID, domain.DependencyParam{ParentId: "missing", ChildId: "also-missing"}, "alice", ts)
	require.Error(t, err)

	var constraintErr *ConstraintError
	require.ErrorAs(t, err, &constraintErr)
}

func TestPlanUpsertAndSelectRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	container, conn := setupPlanTestDatabase(ctx, t)

	t.Cleanup(func() {
		_ = conn.Close()
		_ = testcontainers.TerminateContainer(container)
	})

	tx, err := conn.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback() //nolint:errcheck

	datasetID := uuid.New()
	param := domain.PlanParam{
		Dataset: domain.DatasetParam{Id: datasetID},
		DataProducts: []domain.DataProductParam{
			{Id: "a", Compute: domain.ComputeCams, Name: "alpha", Version: "1"},
			{Id: "b", Compute: domain.ComputeDbxaas, Name: "beta", Version: "1"},
		},
		Dependencies: []domain.DependencyParam{
			{ParentId: "a", ChildId: "b"},
		},
	}

	plan, err := PlanUpsert(ctx, tx, param, "alice", time.Now())
	require.NoError(t, err)
	require.Len(t, plan.DataProducts, 2)
	require.Len(t, plan.Dependencies, 1)

	reread, err := PlanSelect(ctx, tx, datasetID)
	require.NoError(t, err)
	require.ElementsMatch(t, plan.DataProductIDs(), reread.DataProductIDs())
	require.ElementsMatch(t, plan.DependencyEdges(), reread.DependencyEdges())

	incremental := domain.PlanParam{
		Dataset: domain.DatasetParam{Id: datasetID},
		DataProducts: []domain.DataProductParam{
			{Id: "c", Compute: domain.ComputeCams, Name: "gamma", Version: "1"},
		},
		Dependencies: []domain.DependencyParam{
			{ParentId: "b", ChildId: "c"},
		},
	}

	grown, err := PlanUpsert(ctx, tx, incremental, "alice", time.Now())
	require.NoError(t, err)
	require.Len(t, grown.DataProducts, 3, "incremental submission keeps previously persisted products")
	require.Len(t, grown.Dependencies, 2)
}
