package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"wagerengine/database"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

const defaultPostgresImage = "postgres:16-alpine"

// TestDatabase is a migrated Postgres container and a pool connected to it
type TestDatabase struct {
	Container *postgres.PostgresContainer
	DB        *database.DB
	URL       string
}

// SetupTestDatabase starts a container, applies every migration and opens a
// pool. Teardown is registered on t. TEST_POSTGRES_IMAGE overrides the image.
func SetupTestDatabase(t *testing.T) *TestDatabase {
	t.Helper()
	ctx := context.Background()

	image := os.Getenv("TEST_POSTGRES_IMAGE")
	if image == "" {
		image = defaultPostgresImage
	}

	container, err := postgres.Run(ctx,
		image,
		postgres.WithDatabase("wagerengine_test"),
		postgres.WithUsername("test_user"),
		postgres.WithPassword("test_password"),
		postgres.BasicWaitStrategies(),
		testcontainers.WithLabels(map[string]string{
			"test":      "wagerengine",
			"test-name": t.Name(),
			"started":   time.Now().Format("20060102-150405"),
		}),
	)
	require.NoError(t, err)

	testDB := &TestDatabase{Container: container}
	t.Cleanup(func() { testDB.teardown(t) })

	testDB.URL, err = container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, database.RunMigrationsWithURL(testDB.URL))

	testDB.DB, err = database.NewConnection(ctx, testDB.URL)
	require.NoError(t, err)

	return testDB
}

// Exec runs raw SQL outside any unit of work, for tests that corrupt or age rows
func (td *TestDatabase) Exec(t *testing.T, sql string, args ...any) {
	t.Helper()
	_, err := td.DB.Exec(context.Background(), sql, args...)
	require.NoError(t, err)
}

func (td *TestDatabase) teardown(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Logf("Panic during container cleanup (recovered): %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if td.DB != nil {
		td.DB.Close()
	}
	if td.Container != nil {
		if err := td.Container.Terminate(ctx); err != nil {
			t.Logf("Warning: failed to terminate test container: %v", err)
		}
	}
}
