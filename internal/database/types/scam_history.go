package types

import (
	"time"

	"github.com/uptrace/bun"
)

// ScamHistoryEntry is one detected scam message.
type ScamHistoryEntry struct {
	bun.BaseModel `bun:"table:scam_history,alias:sh"`

	ID          int64     `bun:",pk,autoincrement"`
	GuildID     uint64    `bun:",notnull"`               // Discord guild ID
	ChannelID   uint64    `bun:",notnull"`               // Discord channel the message was posted in
	MessageID   uint64    `bun:",notnull"`               // Discord message ID
	AuthorID    uint64    `bun:",notnull"`               // Discord user ID of the author
	ContentHash string    `bun:",notnull,type:text"`     // SHA-256 of the raw message text
	SentAt      time.Time `bun:",notnull"`               // When the message was posted
	IsDeleted   bool      `bun:",notnull,default:false"` // Whether the message was removed
}
