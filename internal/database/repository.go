package database

import (
	"github.com/robalyx/scamguard/internal/database/models"
	"github.com/robalyx/scamguard/internal/scam/history"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// Repository provides access to all database models.
type Repository struct {
	scamHistory *models.ScamHistoryModel
}

// NewRepository creates a new repository instance with all models.
func NewRepository(db *bun.DB, opts history.Options, logger *zap.Logger) *Repository {
	return &Repository{
		scamHistory: models.NewScamHistory(db, opts, logger),
	}
}

// ScamHistory returns the scam history model repository.
func (r *Repository) ScamHistory() *models.ScamHistoryModel {
	return r.scamHistory
}
