package bot

import (
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/scamguard/internal/scam/types"
)

// toMessage converts a gateway message into the pipeline representation.
func toMessage(guildID *snowflake.ID, msg discord.Message) *types.Message {
	out := &types.Message{
		ID:         uint64(msg.ID),
		ChannelID:  uint64(msg.ChannelID),
		AuthorID:   uint64(msg.Author.ID),
		AuthorName: msg.Author.Username,
		Content:    msg.Content,
		CreatedAt:  msg.CreatedAt,
		IsBot:      msg.Author.Bot,
		IsWebhook:  msg.WebhookID != nil,
		IsSystem:   msg.Author.System || !isUserMessage(msg.Type),
	}

	if guildID != nil {
		out.GuildID = uint64(*guildID)
	}

	if msg.Member != nil {
		out.AuthorRoles = make([]uint64, 0, len(msg.Member.RoleIDs))
		for _, roleID := range msg.Member.RoleIDs {
			out.AuthorRoles = append(out.AuthorRoles, uint64(roleID))
		}
	}

	if len(msg.Attachments) > 0 {
		out.Attachments = make([]types.Attachment, 0, len(msg.Attachments))
		for _, attachment := range msg.Attachments {
			out.Attachments = append(out.Attachments, types.Attachment{FileName: attachment.Filename})
		}
	}

	return out
}

// isUserMessage reports whether the message type is written by a member.
func isUserMessage(t discord.MessageType) bool {
	return t == discord.MessageTypeDefault || t == discord.MessageTypeReply
}
