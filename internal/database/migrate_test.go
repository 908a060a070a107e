package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/uptrace/bun/migrate"
)

func TestNewMigrationStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		migrations migrate.MigrationSlice
		applied    []string
		pending    []string
		upToDate   bool
		lastGroup  bool
	}{
		{
			name: "fresh database",
			migrations: migrate.MigrationSlice{
				{Name: "20250301000000"},
			},
			applied: []string{},
			pending: []string{"20250301000000"},
		},
		{
			name: "partially applied",
			migrations: migrate.MigrationSlice{
				{Name: "20250301000000", ID: 1, GroupID: 1, MigratedAt: time.Now()},
				{Name: "20250401000000"},
			},
			applied:   []string{"20250301000000"},
			pending:   []string{"20250401000000"},
			lastGroup: true,
		},
		{
			name: "up to date",
			migrations: migrate.MigrationSlice{
				{Name: "20250301000000", ID: 1, GroupID: 1, MigratedAt: time.Now()},
			},
			applied:   []string{"20250301000000"},
			pending:   []string{},
			upToDate:  true,
			lastGroup: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			status := newMigrationStatus(tt.migrations)
			assert.Equal(t, tt.applied, status.Applied)
			assert.Equal(t, tt.pending, status.Pending)
			assert.Equal(t, tt.upToDate, status.UpToDate())
			assert.Equal(t, tt.lastGroup, status.LastGroup != "")
		})
	}
}
