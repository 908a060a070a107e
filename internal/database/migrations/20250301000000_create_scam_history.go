package migrations

import (
	"context"
	"fmt"

	"github.com/robalyx/scamguard/internal/database/types"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewCreateTable().
			Model((*types.ScamHistoryEntry)(nil)).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create scam_history table: %w", err)
		}

		_, err = db.NewRaw(`
			CREATE INDEX IF NOT EXISTS idx_scam_history_key
			ON scam_history (guild_id, author_id, content_hash, sent_at DESC);

			CREATE INDEX IF NOT EXISTS idx_scam_history_pending
			ON scam_history (guild_id, author_id, content_hash)
			WHERE is_deleted = FALSE;

			CREATE INDEX IF NOT EXISTS idx_scam_history_sent_at
			ON scam_history (sent_at);
		`).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create scam_history indexes: %w", err)
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewDropTable().
			Model((*types.ScamHistoryEntry)(nil)).
			IfExists().
			Cascade().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to drop scam_history table: %w", err)
		}

		return nil
	})
}
