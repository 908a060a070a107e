package bot

import (
	"testing"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/scamguard/internal/scam/types"
	"github.com/stretchr/testify/assert"
)

func TestToMessage(t *testing.T) {
	t.Parallel()

	guildID := snowflake.ID(100)
	webhookID := snowflake.ID(5)
	createdAt := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	base := func() discord.Message {
		return discord.Message{
			ID:        1,
			ChannelID: 10,
			Author:    discord.User{ID: 42, Username: "member"},
			Content:   "free nitro",
			CreatedAt: createdAt,
			Type:      discord.MessageTypeDefault,
		}
	}

	tests := []struct {
		name    string
		guildID *snowflake.ID
		modify  func(msg *discord.Message)
		check   func(t *testing.T, msg *types.Message)
	}{
		{
			name:    "plain message",
			guildID: &guildID,
			check: func(t *testing.T, msg *types.Message) {
				assert.Equal(t, uint64(1), msg.ID)
				assert.Equal(t, uint64(100), msg.GuildID)
				assert.Equal(t, uint64(10), msg.ChannelID)
				assert.Equal(t, uint64(42), msg.AuthorID)
				assert.Equal(t, "member", msg.AuthorName)
				assert.Equal(t, "free nitro", msg.Content)
				assert.Equal(t, createdAt, msg.CreatedAt)
				assert.False(t, msg.IsBot)
				assert.False(t, msg.IsWebhook)
				assert.False(t, msg.IsSystem)
				assert.Empty(t, msg.AuthorRoles)
				assert.Empty(t, msg.Attachments)
			},
		},
		{
			name:    "bot author",
			guildID: &guildID,
			modify:  func(msg *discord.Message) { msg.Author.Bot = true },
			check:   func(t *testing.T, msg *types.Message) { assert.True(t, msg.IsBot) },
		},
		{
			name:    "webhook",
			guildID: &guildID,
			modify:  func(msg *discord.Message) { msg.WebhookID = &webhookID },
			check:   func(t *testing.T, msg *types.Message) { assert.True(t, msg.IsWebhook) },
		},
		{
			name:    "system author",
			guildID: &guildID,
			modify:  func(msg *discord.Message) { msg.Author.System = true },
			check:   func(t *testing.T, msg *types.Message) { assert.True(t, msg.IsSystem) },
		},
		{
			name:    "member join notice",
			guildID: &guildID,
			modify:  func(msg *discord.Message) { msg.Type = discord.MessageTypeUserJoin },
			check:   func(t *testing.T, msg *types.Message) { assert.True(t, msg.IsSystem) },
		},
		{
			name:    "reply",
			guildID: &guildID,
			modify:  func(msg *discord.Message) { msg.Type = discord.MessageTypeReply },
			check:   func(t *testing.T, msg *types.Message) { assert.False(t, msg.IsSystem) },
		},
		{
			name:    "member roles",
			guildID: &guildID,
			modify: func(msg *discord.Message) {
				msg.Member = &discord.Member{RoleIDs: []snowflake.ID{7, 8}}
			},
			check: func(t *testing.T, msg *types.Message) {
				assert.Equal(t, []uint64{7, 8}, msg.AuthorRoles)
			},
		},
		{
			name:    "attachments",
			guildID: &guildID,
			modify: func(msg *discord.Message) {
				msg.Attachments = []discord.Attachment{{Filename: "a.png"}, {Filename: "notes.txt"}}
			},
			check: func(t *testing.T, msg *types.Message) {
				assert.Equal(t, []types.Attachment{{FileName: "a.png"}, {FileName: "notes.txt"}}, msg.Attachments)
			},
		},
		{
			name:  "outside a guild",
			check: func(t *testing.T, msg *types.Message) { assert.Zero(t, msg.GuildID) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			msg := base()
			if tt.modify != nil {
				tt.modify(&msg)
			}

			tt.check(t, toMessage(tt.guildID, msg))
		})
	}
}
