package database

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/pkg/errors"
)

// MigrationLogger adapts an ectologger.Logger to migrate.Logger.
type MigrationLogger struct {
	ectologger.Logger
}

func (l MigrationLogger) Verbose() bool {
	return true
}

func (l MigrationLogger) Printf(format string, v ...any) {
	l.Infof(strings.TrimSuffix(format, "\n"), v...)
}

type MigrationConfig struct {
	MigrationFolderPath string
	// Version pins the target version. Zero migrates all the way up.
	Version uint
	// Force marks the database clean at this version before migrating.
	Force        int
	AutoRollback bool // roll a dirty database back to the previous version on failure
}

// MigrationResult describes what a migration run did to the schema.
type MigrationResult struct {
	From     uint
	To       uint
	Changed  bool
	Duration time.Duration
}

// MigrationService applies the element schema migrations under db/pg.
type MigrationService struct {
	config *MigrationConfig
	logger ectologger.Logger
}

func NewMigrationService(logger ectologger.Logger, config *MigrationConfig) *MigrationService {
	return &MigrationService{
		config: config,
		logger: logger,
	}
}

func (ms *MigrationService) resolveMigrationFolder() string {
	folder := ms.config.MigrationFolderPath
	if _, err := os.Stat(folder); err == nil || filepath.IsAbs(folder) {
		return folder
	}
	workingDirectory, _ := os.Getwd()
	return filepath.Join(workingDirectory, folder)
}

// MigratePostgres runs the migrations against an open PostgreSQL connection.
func (ms *MigrationService) MigratePostgres(db *DatabaseInstance, databaseName string) (*MigrationResult, error) {
	folder := ms.resolveMigrationFolder()
	if _, err := os.Stat(folder); err != nil {
		return nil, errors.Wrapf(err, "migration folder %s does not exist", folder)
	}

	driver, err := postgres.WithInstance(db.DB.DB, &postgres.Config{DatabaseName: databaseName})
	if err != nil {
		ms.logger.WithError(err).Error("Failed to create postgres migration driver")
		return nil, errors.Wrap(err, "failed to create postgres migration driver")
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+folder, databaseName, driver)
	if err != nil {
		ms.logger.WithError(err).Error("Failed to create migrate instance")
		return nil, errors.Wrap(err, "failed to create migrate instance")
	}
	m.Log = MigrationLogger{Logger: ms.logger}

	return ms.apply(m, folder)
}

func (ms *MigrationService) apply(m *migrate.Migrate, folder string) (*MigrationResult, error) {
	if ms.config.Force != 0 {
		if err := m.Force(ms.config.Force); err != nil {
			return nil, errors.Wrapf(err, "failed to force schema version %d", ms.config.Force)
		}
	}

	result := &MigrationResult{}
	from, _, err := m.Version()
	if err != nil && !stderrors.Is(err, migrate.ErrNilVersion) {
		return nil, errors.Wrap(err, "failed to read schema version")
	}
	result.From = from

	started := time.Now()
	if ms.config.Version != 0 {
		err = m.Migrate(ms.config.Version)
	} else {
		err = m.Up()
	}
	result.Duration = time.Since(started)

	switch {
	case err == nil:
		result.Changed = true
	case stderrors.Is(err, migrate.ErrNoChange):
	case strings.Contains(err.Error(), "no migration found for version"):
		// The database is ahead of the folder, usually after a rollback deploy.
		if err := ms.forceLatest(m, folder, from); err != nil {
			return nil, err
		}
	default:
		return nil, ms.recoverDirty(m, err, from)
	}

	result.To, _, _ = m.Version()
	ms.logger.WithFields(map[string]any{
		"from":     result.From,
		"to":       result.To,
		"changed":  result.Changed,
		"duration": result.Duration.String(),
	}).Info("Element schema migrations finished")
	return result, nil
}

func (ms *MigrationService) forceLatest(m *migrate.Migrate, folder string, current uint) error {
	latest, err := LatestMigrationVersion(folder)
	if err != nil {
		return errors.Wrap(err, "failed to find latest migration version")
	}
	ms.logger.Warnf("No migration found for version %d. Forcing latest version %d", current, latest)
	if err := m.Force(latest); err != nil {
		return errors.Wrapf(err, "failed to force schema version %d", latest)
	}
	return nil
}

// recoverDirty reports a failed run, first rolling a dirty schema back to
// previous when AutoRollback is set.
func (ms *MigrationService) recoverDirty(m *migrate.Migrate, cause error, previous uint) error {
	ms.logger.WithError(cause).Error("Element schema migration failed")

	version, dirty, err := m.Version()
	if err != nil && !stderrors.Is(err, migrate.ErrNilVersion) {
		return errors.Wrap(cause, "failed to apply migrations")
	}

	if ms.config.AutoRollback && dirty {
		if previous == 0 && version > 0 {
			previous = version - 1
		}
		ms.logger.Warnf("Schema is dirty at version %d. Reverting to version %d", version, previous)
		if err := m.Force(int(previous)); err != nil {
			return errors.Wrapf(err, "failed to force schema version %d", previous)
		}
	}

	return errors.Wrapf(cause, "failed to apply migrations (dirty=%t, version=%d)", dirty, version)
}

var migrationFilePattern = regexp.MustCompile(`^(\d+)_.*\.up\.sql$`)

// LatestMigrationVersion returns the highest up-migration version in folderPath.
func LatestMigrationVersion(folderPath string) (int, error) {
	entries, err := os.ReadDir(folderPath)
	if err != nil {
		return 0, err
	}

	versions := make([]int, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		match := migrationFilePattern.FindStringSubmatch(entry.Name())
		if match == nil {
			continue
		}
		version, err := strconv.Atoi(match[1])
		if err != nil {
			return 0, err
		}
		versions = append(versions, version)
	}

	if len(versions) == 0 {
		return 0, fmt.Errorf("no migration files found in %s", folderPath)
	}
	return slices.Max(versions), nil
}
