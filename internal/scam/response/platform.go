package response

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Platform lookups when the member or channel no longer exists.
var ErrNotFound = errors.New("not found")

// Member is a guild member as seen by the platform.
type Member struct {
	UserID uint64
	Roles  []uint64
}

// Channel is a guild channel as seen by the platform.
type Channel struct {
	ID      uint64
	GuildID uint64
	Name    string
}

// Platform performs side effects on the chat platform.
type Platform interface {
	// DeleteMessage removes a message.
	DeleteMessage(ctx context.Context, channelID, messageID uint64, reason string) error
	// AddRole gives a member a role. The reason is recorded in the guild audit log.
	AddRole(ctx context.Context, guildID, userID, roleID uint64, reason string) error
	// SendDirectMessage opens a private channel with the user and sends the content.
	SendDirectMessage(ctx context.Context, userID uint64, content string) error
	// SendReport posts a report to the moderator channel of the guild.
	SendReport(ctx context.Context, guildID uint64, report *Report) error
	// DisableControls disables the interactive controls of a sent report.
	DisableControls(ctx context.Context, channelID, messageID uint64) error
	// LookupMember returns ErrNotFound when the user is not in the guild.
	LookupMember(ctx context.Context, guildID, userID uint64) (*Member, error)
	// LookupChannel returns ErrNotFound when the channel no longer exists.
	LookupChannel(ctx context.Context, channelID uint64) (*Channel, error)
}
