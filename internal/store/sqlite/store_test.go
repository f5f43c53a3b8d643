// internal/store/sqlite/store_test.go
package sqlite

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/dagbok/internal/store"
	"github.com/shrimpsizemoose/dagbok/internal/store/storetest"
)

// setupTestDB creates an in-memory SQLite database with the real migrations applied
func setupTestDB(t *testing.T) (*SQLiteStore, func()) {
	s, err := NewSQLiteStore(&store.DBConfig{
		DSN:           ":memory:",
		Type:          store.DBTypeSQLite,
		MigrationsDir: "../../../migrations",
	})
	require.NoError(t, err, "Failed to create store")

	cleanup := func() {
		err := s.Close()
		require.NoError(t, err, "Failed to close database")
	}

	return s, cleanup
}

func TestSQLiteStore(t *testing.T) {
	s, cleanup := setupTestDB(t)
	defer cleanup()

	storetest.Run(t, s)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	s, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, s.ApplyMigrations("../../../migrations"))
}

func TestForeignKeysEnforced(t *testing.T) {
	s, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := s.DB.Exec(`
		INSERT INTO assignments (lesson_id, subject_id, class_id, teacher_id, assignment_type, max_score, created_at)
		VALUES (999, 1, 1, 1, 'test', 10, 0)`)
	assert.Error(t, err)
}

func TestTranslateToSQLite(t *testing.T) {
	in := `CREATE TABLE x (id BIGSERIAL PRIMARY KEY, n BIGINT, v DOUBLE PRECISION, f BOOLEAN DEFAULT FALSE);`
	out := translateToSQLite(in)

	assert.True(t, strings.Contains(out, "id INTEGER PRIMARY KEY AUTOINCREMENT"))
	assert.True(t, strings.Contains(out, "n INTEGER"))
	assert.True(t, strings.Contains(out, "v REAL"))
	assert.True(t, strings.Contains(out, "DEFAULT 0"))
	assert.False(t, strings.Contains(out, "BIGSERIAL"))
}
