package models

import (
	"context"
	"fmt"
	"time"

	"github.com/robalyx/scamguard/internal/database/dbretry"
	"github.com/robalyx/scamguard/internal/database/types"
	"github.com/robalyx/scamguard/internal/scam/history"
	scamtypes "github.com/robalyx/scamguard/internal/scam/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// ScamHistoryModel handles database operations for detected scam messages.
// It implements history.Store.
type ScamHistoryModel struct {
	db     *bun.DB
	opts   history.Options
	logger *zap.Logger
}

// NewScamHistory creates a new scam history model instance.
func NewScamHistory(db *bun.DB, opts history.Options, logger *zap.Logger) *ScamHistoryModel {
	return &ScamHistoryModel{
		db:     db,
		opts:   opts.WithDefaults(),
		logger: logger.Named("db_scam_history"),
	}
}

// AddScam stores a detected scam message.
func (m *ScamHistoryModel) AddScam(ctx context.Context, msg *scamtypes.Message, isDeleted bool) error {
	sentAt := msg.CreatedAt
	if sentAt.IsZero() {
		sentAt = m.opts.Now()
	}

	entry := &types.ScamHistoryEntry{
		GuildID:     msg.GuildID,
		ChannelID:   msg.ChannelID,
		MessageID:   msg.ID,
		AuthorID:    msg.AuthorID,
		ContentHash: msg.ContentHash(),
		SentAt:      sentAt,
		IsDeleted:   isDeleted,
	}

	err := dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := m.db.NewInsert().Model(entry).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to insert scam history entry: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	m.logger.Debug("Recorded scam message",
		zap.Uint64("guildID", entry.GuildID),
		zap.Uint64("messageID", entry.MessageID),
		zap.Bool("isDeleted", isDeleted))

	return nil
}

// HasRecentDuplicate checks whether the author posted the same content in the
// guild within the duplicate window.
func (m *ScamHistoryModel) HasRecentDuplicate(ctx context.Context, msg *scamtypes.Message) (bool, error) {
	since := m.opts.Now().Add(-m.opts.DuplicateWindow)

	return dbretry.Operation(ctx, func(ctx context.Context) (bool, error) {
		exists, err := m.db.NewSelect().
			Model((*types.ScamHistoryEntry)(nil)).
			Where("guild_id = ?", msg.GuildID).
			Where("author_id = ?", msg.AuthorID).
			Where("content_hash = ?", msg.ContentHash()).
			Where("sent_at >= ?", since).
			Exists(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to check recent duplicates: %w", err)
		}

		return exists, nil
	})
}

// MarkDuplicatesDeleted flips the deletion flag of every matching entry that is
// not yet deleted and returns the entries it flipped. Concurrent updates of the
// same row block on the row lock and then fail the is_deleted predicate, so a
// row is only ever returned once.
func (m *ScamHistoryModel) MarkDuplicatesDeleted(
	ctx context.Context, guildID, authorID uint64, contentHash string,
) ([]history.Identification, error) {
	var entries []types.ScamHistoryEntry

	err := dbretry.Transaction(ctx, m.db, func(ctx context.Context, tx bun.Tx) error {
		entries = entries[:0]

		_, err := tx.NewUpdate().
			Model((*types.ScamHistoryEntry)(nil)).
			Set("is_deleted = TRUE").
			Where("guild_id = ?", guildID).
			Where("author_id = ?", authorID).
			Where("content_hash = ?", contentHash).
			Where("is_deleted = FALSE").
			Returning("guild_id, channel_id, message_id, author_id, content_hash").
			Exec(ctx, &entries)
		if err != nil {
			return fmt.Errorf("failed to mark duplicates deleted: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	identifications := make([]history.Identification, 0, len(entries))
	for _, entry := range entries {
		identifications = append(identifications, history.Identification{
			GuildID:     entry.GuildID,
			ChannelID:   entry.ChannelID,
			MessageID:   entry.MessageID,
			AuthorID:    entry.AuthorID,
			ContentHash: entry.ContentHash,
		})
	}

	m.logger.Debug("Marked duplicates deleted",
		zap.Uint64("guildID", guildID),
		zap.Uint64("authorID", authorID),
		zap.Int("count", len(identifications)))

	return identifications, nil
}

// PurgeOlderThan removes entries sent at or before the cutoff.
func (m *ScamHistoryModel) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	removed, err := dbretry.Operation(ctx, func(ctx context.Context) (int64, error) {
		result, err := m.db.NewDelete().
			Model((*types.ScamHistoryEntry)(nil)).
			Where("sent_at <= ?", cutoff).
			Exec(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to purge scam history: %w", err)
		}

		return result.RowsAffected()
	})
	if err != nil {
		return 0, err
	}

	m.logger.Debug("Purged scam history",
		zap.Time("cutoff", cutoff),
		zap.Int64("removed", removed))

	return int(removed), nil
}
