// Package history defines the durable record of detected scam messages.
package history

import (
	"context"
	"time"

	"github.com/robalyx/scamguard/internal/scam/types"
)

const (
	// DefaultDuplicateWindow is how far back a repost by the same author counts as a duplicate.
	DefaultDuplicateWindow = 15 * time.Minute
	// DefaultRetention is how long history entries are kept before purging.
	DefaultRetention = 14 * 24 * time.Hour
)

// Identification locates one recorded scam message.
type Identification struct {
	GuildID     uint64
	ChannelID   uint64
	MessageID   uint64
	AuthorID    uint64
	ContentHash string
}

// Store records detected scams. Implementations must be safe for concurrent use.
type Store interface {
	// AddScam records a detected scam message.
	AddScam(ctx context.Context, msg *types.Message, isDeleted bool) error
	// HasRecentDuplicate reports whether the same author already posted the same
	// content in the guild within the duplicate window.
	HasRecentDuplicate(ctx context.Context, msg *types.Message) (bool, error)
	// MarkDuplicatesDeleted flips every not yet deleted entry matching the key and
	// returns exactly the entries it flipped. Concurrent calls never return the same entry twice.
	MarkDuplicatesDeleted(ctx context.Context, guildID, authorID uint64, contentHash string) ([]Identification, error)
	// PurgeOlderThan removes entries sent at or before the cutoff and returns how many were removed.
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// Options tunes a store.
type Options struct {
	// DuplicateWindow defaults to DefaultDuplicateWindow.
	DuplicateWindow time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

// WithDefaults fills zero values.
func (o Options) WithDefaults() Options {
	if o.DuplicateWindow <= 0 {
		o.DuplicateWindow = DefaultDuplicateWindow
	}

	if o.Now == nil {
		o.Now = time.Now
	}

	return o
}
