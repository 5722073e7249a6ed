package testutil_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/placebook/migrations"
	"github.com/pkordes/placebook/testutil"
)

var tables = []string{"places", "ratings", "user_hearts"}

// TestMigrations verifies the full migration round-trip against a real
// PostGIS database: reset, apply, check tables and the slug constraint,
// roll back, check tables are gone. Skipped without TEST_DATABASE_URL.
func TestMigrations(t *testing.T) {
	db := testutil.NewSQLDB(t)

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	require.NoError(t, err, "create goose provider")

	ctx := context.Background()

	// Another package's TestMain may already have migrated this shared DB.
	if _, err := provider.DownTo(ctx, 0); err != nil {
		t.Fatalf("TestMigrations: initial reset: %v", err)
	}

	versions, err := migrations.Up(ctx, db)
	require.NoError(t, err, "migrations.Up")
	assert.Equal(t, []int64{1}, versions)

	for _, table := range tables {
		assertTablePresence(t, db, table, true)
	}
	assertSlugConstraint(t, db)

	again, err := migrations.Up(ctx, db)
	require.NoError(t, err)
	assert.Empty(t, again, "second run applies nothing")

	_, err = provider.DownTo(ctx, 0)
	require.NoError(t, err, "goose down-to 0")

	for _, table := range tables {
		assertTablePresence(t, db, table, false)
	}
}

func assertSlugConstraint(t *testing.T, db *sql.DB) {
	t.Helper()

	const q = `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.table_constraints
			WHERE table_name = 'places'
			AND   constraint_name = 'places_slug_key'
			AND   constraint_type = 'UNIQUE'
		)`
	var exists bool
	require.NoError(t, db.QueryRowContext(context.Background(), q).Scan(&exists))
	assert.True(t, exists, "expected unique constraint places_slug_key")
}

func assertTablePresence(t *testing.T, db *sql.DB, table string, shouldExist bool) {
	t.Helper()

	const q = `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = 'public'
			AND   table_name   = $1
		)`
	var exists bool
	err := db.QueryRowContext(context.Background(), q, table).Scan(&exists)
	require.NoError(t, err, "check table existence for %q", table)

	if shouldExist {
		assert.True(t, exists, "expected table %q to exist", table)
	} else {
		assert.False(t, exists, "expected table %q to not exist", table)
	}
}
