// Package sqlite implements the scam history store on an embedded SQLite database.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robalyx/scamguard/internal/scam/history"
	"github.com/robalyx/scamguard/internal/scam/types"
	"go.uber.org/zap"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// ErrClosed is returned when the store is used after Close.
var ErrClosed = errors.New("scam history store is closed")

const schema = `
CREATE TABLE IF NOT EXISTS scam_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	guild_id INTEGER NOT NULL,
	channel_id INTEGER NOT NULL,
	message_id INTEGER NOT NULL,
	author_id INTEGER NOT NULL,
	content_hash TEXT NOT NULL,
	sent_at INTEGER NOT NULL,
	is_deleted INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_scam_history_key ON scam_history (guild_id, author_id, content_hash);
CREATE INDEX IF NOT EXISTS idx_scam_history_sent_at ON scam_history (sent_at);
`

// Store is a history.Store backed by a single SQLite connection.
// All access is serialized through the connection mutex.
type Store struct {
	mu     sync.Mutex
	conn   *sqlite.Conn
	opts   history.Options
	logger *zap.Logger
}

// New opens the database at path, creating the schema if needed.
func New(path string, opts history.Options, logger *zap.Logger) (*Store, error) {
	conn, err := sqlite.OpenConn(path, sqlite.OpenCreate|sqlite.OpenReadWrite|sqlite.OpenURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{
		conn:   conn,
		opts:   opts.WithDefaults(),
		logger: logger.Named("sqlite_scam_history"),
	}, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}

	err := s.conn.Close()
	s.conn = nil

	return err
}

// withConn runs fn with exclusive access to the connection, interrupting
// long running statements when ctx is done.
func (s *Store) withConn(ctx context.Context, fn func(conn *sqlite.Conn) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return ErrClosed
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	s.conn.SetInterrupt(ctx.Done())
	defer s.conn.SetInterrupt(nil)

	return fn(s.conn)
}

// AddScam implements history.Store.
func (s *Store) AddScam(ctx context.Context, msg *types.Message, isDeleted bool) error {
	sentAt := msg.CreatedAt
	if sentAt.IsZero() {
		sentAt = s.opts.Now()
	}

	err := s.withConn(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, `
			INSERT INTO scam_history (guild_id, channel_id, message_id, author_id, content_hash, sent_at, is_deleted)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, &sqlitex.ExecOptions{
			Args: []any{
				int64(msg.GuildID), int64(msg.ChannelID), int64(msg.ID), int64(msg.AuthorID),
				msg.ContentHash(), sentAt.UnixMilli(), isDeleted,
			},
		})
	})
	if err != nil {
		return fmt.Errorf("failed to add scam entry: %w", err)
	}

	s.logger.Debug("Recorded scam message",
		zap.Uint64("guildID", msg.GuildID),
		zap.Uint64("messageID", msg.ID),
		zap.Bool("isDeleted", isDeleted))

	return nil
}

// HasRecentDuplicate implements history.Store.
func (s *Store) HasRecentDuplicate(ctx context.Context, msg *types.Message) (bool, error) {
	since := s.opts.Now().Add(-s.opts.DuplicateWindow)

	var found bool
	err := s.withConn(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, `
			SELECT 1 FROM scam_history
			WHERE guild_id = ? AND author_id = ? AND content_hash = ? AND sent_at >= ?
			LIMIT 1
		`, &sqlitex.ExecOptions{
			Args: []any{int64(msg.GuildID), int64(msg.AuthorID), msg.ContentHash(), since.UnixMilli()},
			ResultFunc: func(_ *sqlite.Stmt) error {
				found = true
				return nil
			},
		})
	})
	if err != nil {
		return false, fmt.Errorf("failed to check recent duplicates: %w", err)
	}

	return found, nil
}

// MarkDuplicatesDeleted implements history.Store. The update and the returned
// rows come from one statement inside a savepoint.
func (s *Store) MarkDuplicatesDeleted(
	ctx context.Context, guildID, authorID uint64, contentHash string,
) ([]history.Identification, error) {
	var identifications []history.Identification

	err := s.withConn(ctx, func(conn *sqlite.Conn) (err error) {
		defer sqlitex.Save(conn)(&err)

		return sqlitex.Execute(conn, `
			UPDATE scam_history SET is_deleted = 1
			WHERE guild_id = ? AND author_id = ? AND content_hash = ? AND is_deleted = 0
			RETURNING guild_id, channel_id, message_id, author_id, content_hash
		`, &sqlitex.ExecOptions{
			Args: []any{int64(guildID), int64(authorID), contentHash},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				identifications = append(identifications, history.Identification{
					GuildID:     uint64(stmt.ColumnInt64(0)),
					ChannelID:   uint64(stmt.ColumnInt64(1)),
					MessageID:   uint64(stmt.ColumnInt64(2)),
					AuthorID:    uint64(stmt.ColumnInt64(3)),
					ContentHash: stmt.ColumnText(4),
				})
				return nil
			},
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to mark duplicates deleted: %w", err)
	}

	return identifications, nil
}

// PurgeOlderThan implements history.Store.
func (s *Store) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	var removed int

	err := s.withConn(ctx, func(conn *sqlite.Conn) error {
		if err := sqlitex.Execute(conn, "DELETE FROM scam_history WHERE sent_at <= ?", &sqlitex.ExecOptions{
			Args: []any{cutoff.UnixMilli()},
		}); err != nil {
			return err
		}

		removed = conn.Changes()

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to purge scam history: %w", err)
	}

	return removed, nil
}

// IsDeleted reports the deletion flag of a recorded message.
func (s *Store) IsDeleted(ctx context.Context, guildID, messageID uint64) (bool, error) {
	var deleted bool

	err := s.withConn(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, `
			SELECT is_deleted FROM scam_history WHERE guild_id = ? AND message_id = ? LIMIT 1
		`, &sqlitex.ExecOptions{
			Args: []any{int64(guildID), int64(messageID)},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				deleted = stmt.ColumnBool(0)
				return nil
			},
		})
	})
	if err != nil {
		return false, fmt.Errorf("failed to read deletion flag: %w", err)
	}

	return deleted, nil
}

// Count returns the number of recorded entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int

	err := s.withConn(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, "SELECT COUNT(*) FROM scam_history", &sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				count = stmt.ColumnInt(0)
				return nil
			},
		})
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count scam history: %w", err)
	}

	return count, nil
}
