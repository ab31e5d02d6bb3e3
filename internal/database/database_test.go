package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRebind(t *testing.T) {
	tests := []struct {
		dialect Dialect
		in      string
		want    string
	}{
		{Postgres, "SELECT * FROM t WHERE a = ? AND b = ?", "SELECT * FROM t WHERE a = $1 AND b = $2"},
		{Postgres, "SELECT 1", "SELECT 1"},
		{SQLite, "SELECT * FROM t WHERE a = ?", "SELECT * FROM t WHERE a = ?"},
	}

	for _, tt := range tests {
		db := &DB{Dialect: tt.dialect}
		if got := db.Rebind(tt.in); got != tt.want {
			t.Errorf("Rebind[%s](%q) = %q, want %q", tt.dialect, tt.in, got, tt.want)
		}
	}
}

func TestMigrateSQLite(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "engine.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Migrate(db))
	// Running again is a no-op.
	require.NoError(t, Migrate(db))

	ctx := context.Background()
	for _, table := range []string{"learners", "learner_mastery", "xp_ledger"} {
		var name string
		err := db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
		require.NoError(t, err, "table %s", table)
		assert.Equal(t, table, name)
	}
}

func TestMasteryStreakCheckConstraint(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "engine.db"))
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, Migrate(db))

	_, err = db.ExecContext(context.Background(),
		`INSERT INTO learner_mastery (child_id, subject, grade_level, consecutive_correct, consecutive_wrong)
		 VALUES (?, ?, ?, ?, ?)`, 1, "math", 3, 2, 1)
	assert.Error(t, err)
}
