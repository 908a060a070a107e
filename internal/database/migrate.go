package database

import (
	"context"
	"fmt"

	"github.com/robalyx/scamguard/internal/database/migrations"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"
)

// MigrationStatus summarises the schema state of the scam history database.
type MigrationStatus struct {
	Applied   []string
	Pending   []string
	LastGroup string
}

// UpToDate reports whether no migration is pending.
func (s *MigrationStatus) UpToDate() bool {
	return len(s.Pending) == 0
}

// Migrator applies the scam history migrations under the migration lock.
type Migrator struct {
	migrator *migrate.Migrator
	logger   *zap.Logger
}

// NewMigrator creates a migrator for the registered migrations.
func NewMigrator(db *bun.DB, logger *zap.Logger) *Migrator {
	return &Migrator{
		migrator: migrate.NewMigrator(db, migrations.Migrations),
		logger:   logger.Named("db_migrator"),
	}
}

// Init creates the migration bookkeeping tables. It is safe to call repeatedly.
func (m *Migrator) Init(ctx context.Context) error {
	if err := m.migrator.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}

	return nil
}

// Migrate applies every pending migration as one group.
func (m *Migrator) Migrate(ctx context.Context) (*migrate.MigrationGroup, error) {
	if err := m.Init(ctx); err != nil {
		return nil, err
	}

	var group *migrate.MigrationGroup

	err := m.withLock(ctx, func() error {
		var err error
		group, err = m.migrator.Migrate(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if group.IsZero() {
		m.logger.Info("No new migrations to run (database is up to date)")
	} else {
		m.logger.Info("Successfully migrated", zap.String("group", group.String()))
	}

	return group, nil
}

// Rollback reverts the last applied migration group.
func (m *Migrator) Rollback(ctx context.Context) (*migrate.MigrationGroup, error) {
	var group *migrate.MigrationGroup

	err := m.withLock(ctx, func() error {
		var err error
		group, err = m.migrator.Rollback(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to roll back migrations: %w", err)
	}

	if group.IsZero() {
		m.logger.Info("No groups to roll back")
	} else {
		m.logger.Info("Successfully rolled back", zap.String("group", group.String()))
	}

	return group, nil
}

// Status lists applied and pending migrations.
func (m *Migrator) Status(ctx context.Context) (*MigrationStatus, error) {
	ms, err := m.migrator.MigrationsWithStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check migration status: %w", err)
	}

	return newMigrationStatus(ms), nil
}

func (m *Migrator) withLock(ctx context.Context, fn func() error) error {
	if err := m.migrator.Lock(ctx); err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	defer func() {
		if err := m.migrator.Unlock(ctx); err != nil {
			m.logger.Warn("Failed to release migration lock", zap.Error(err))
		}
	}()

	return fn()
}

// newMigrationStatus splits migrations into applied and pending names.
func newMigrationStatus(ms migrate.MigrationSlice) *MigrationStatus {
	status := &MigrationStatus{
		Applied: make([]string, 0, len(ms)),
		Pending: make([]string, 0, len(ms)),
	}

	for _, migration := range ms {
		if migration.IsApplied() {
			status.Applied = append(status.Applied, migration.Name)
		} else {
			status.Pending = append(status.Pending, migration.Name)
		}
	}

	if last := ms.LastGroup(); !last.IsZero() {
		status.LastGroup = last.String()
	}

	return status
}
