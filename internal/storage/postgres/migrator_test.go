package postgres

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func testMigrationsFS() fstest.MapFS {
	return fstest.MapFS{
		"sql/migrations/0001_init.up.sql":   {Data: []byte("CREATE TABLE test_a (id INT);")},
		"sql/migrations/0001_init.down.sql": {Data: []byte("DROP TABLE IF EXISTS test_a;")},
		"sql/migrations/0002_more.up.sql":   {Data: []byte("CREATE TABLE test_b (id INT);")},
		"sql/migrations/0002_more.down.sql": {Data: []byte("DROP TABLE IF EXISTS test_b;")},
	}
}

func TestLoadMigrations_Success(t *testing.T) {
	t.Parallel()

	migrations, err := loadMigrations(testMigrationsFS())
	require.NoError(t, err)
	require.Len(t, migrations, 2)
	require.Equal(t, "0001_init", migrations[0].String())
	require.Equal(t, "0002_more", migrations[1].String())
	require.Equal(t, "DROP TABLE IF EXISTS test_b;", migrations[1].DownSQL)
}

func TestLoadMigrations_Embedded(t *testing.T) {
	t.Parallel()

	migrations, err := loadMigrations(migrationsFS)
	require.NoError(t, err)

	names := make([]string, 0, len(migrations))
	for _, m := range migrations {
		names = append(names, m.String())
	}
	require.Equal(t, []string{"0001_catalog", "0002_orders", "0003_outbox", "0004_idempotency"}, names)
}

func TestLoadMigrations_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		fsys    fstest.MapFS
		wantErr string
	}{
		{
			name:    "missing down",
			fsys:    fstest.MapFS{"sql/migrations/0001_init.up.sql": {Data: []byte("SELECT 1;")}},
			wantErr: "both up and down",
		},
		{
			name:    "invalid file name",
			fsys:    fstest.MapFS{"sql/migrations/not_a_migration.sql": {Data: []byte("SELECT 1;")}},
			wantErr: "invalid migration file name",
		},
		{
			name: "empty body",
			fsys: fstest.MapFS{
				"sql/migrations/0001_init.up.sql":   {Data: []byte("   \n")},
				"sql/migrations/0001_init.down.sql": {Data: []byte("SELECT 1;")},
			},
			wantErr: "empty",
		},
		{
			name: "name mismatch",
			fsys: fstest.MapFS{
				"sql/migrations/0001_init.up.sql":    {Data: []byte("SELECT 1;")},
				"sql/migrations/0001_other.down.sql": {Data: []byte("SELECT 1;")},
			},
			wantErr: "name mismatch",
		},
		{
			name:    "no files",
			fsys:    fstest.MapFS{},
			wantErr: "no migration files",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadMigrations(tt.fsys)
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestPlanUp(t *testing.T) {
	t.Parallel()

	migrations, err := loadMigrations(testMigrationsFS())
	require.NoError(t, err)

	require.Len(t, planUp(migrations, map[int64]bool{}, 0), 2)
	require.Len(t, planUp(migrations, map[int64]bool{}, 1), 1)

	plan := planUp(migrations, map[int64]bool{1: true}, 0)
	require.Len(t, plan, 1)
	require.Equal(t, int64(2), plan[0].Version)

	require.Empty(t, planUp(migrations, map[int64]bool{1: true, 2: true}, 0))
}

func TestPlanDown(t *testing.T) {
	t.Parallel()

	migrations, err := loadMigrations(testMigrationsFS())
	require.NoError(t, err)

	plan, err := planDown(migrations, map[int64]bool{1: true, 2: true}, 1)
	require.NoError(t, err)
	require.Len(t, plan, 1)
	require.Equal(t, int64(2), plan[0].Version)

	plan, err = planDown(migrations, map[int64]bool{1: true, 2: true}, 5)
	require.NoError(t, err)
	require.Equal(t, []int64{2, 1}, []int64{plan[0].Version, plan[1].Version})

	_, err = planDown(migrations, map[int64]bool{9: true}, 1)
	require.ErrorContains(t, err, "unknown migration version 9")
}

func TestParseMigrationFileName(t *testing.T) {
	t.Parallel()

	version, name, direction, err := parseMigrationFileName("0003_outbox.up.sql")
	require.NoError(t, err)
	require.Equal(t, int64(3), version)
	require.Equal(t, "outbox", name)
	require.Equal(t, "up", direction)
}
