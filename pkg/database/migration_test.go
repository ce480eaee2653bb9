package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatestMigrationVersion(t *testing.T) {
	t.Run("bundled migrations", func(t *testing.T) {
		version, err := LatestMigrationVersion(filepath.Join("..", "..", "db", "pg"))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, version, 1)
	})

	t.Run("highest up migration wins", func(t *testing.T) {
		dir := t.TempDir()
		for _, name := range []string{
			"000003_nodes.up.sql",
			"000010_relations.up.sql",
			"000010_relations.down.sql",
			"000011_drafts.down.sql",
			"README.md",
		} {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o600))
		}
		require.NoError(t, os.Mkdir(filepath.Join(dir, "000099_dir.up.sql"), 0o700))

		version, err := LatestMigrationVersion(dir)
		require.NoError(t, err)
		assert.Equal(t, 10, version)
	})

	t.Run("no migrations", func(t *testing.T) {
		_, err := LatestMigrationVersion(t.TempDir())
		assert.ErrorContains(t, err, "no migration files found")
	})

	t.Run("missing folder", func(t *testing.T) {
		_, err := LatestMigrationVersion(filepath.Join(t.TempDir(), "missing"))
		assert.Error(t, err)
	})
}

func TestResolveMigrationFolder(t *testing.T) {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})

	dir := t.TempDir()
	ms := NewMigrationService(logger, &MigrationConfig{MigrationFolderPath: dir})
	assert.Equal(t, dir, ms.resolveMigrationFolder())

	t.Chdir(dir)
	ms = NewMigrationService(logger, &MigrationConfig{MigrationFolderPath: "db/pg"})
	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "db/pg"), ms.resolveMigrationFolder())
}
