package types

import (
	"crypto/sha256"
	"encoding/hex"
	"path"
	"slices"
	"strings"
	"time"
)

// imageExtensions lists the file extensions recognized as images.
var imageExtensions = []string{"jpg", "jpeg", "png", "gif", "webp", "tiff", "svg", "apng"}

// Attachment is a file attached to a message or referenced by an attachment URL.
type Attachment struct {
	FileName string
}

// IsImage reports whether the file name carries a known image extension.
func (a Attachment) IsImage() bool {
	ext := strings.TrimPrefix(path.Ext(a.FileName), ".")
	if ext == "" {
		return false
	}

	return slices.Contains(imageExtensions, strings.ToLower(ext))
}

// Message is an inbound guild message as delivered by the chat platform.
// It is never modified by the pipeline.
type Message struct {
	ID          uint64
	GuildID     uint64
	ChannelID   uint64
	AuthorID    uint64
	AuthorName  string
	AuthorRoles []uint64
	Content     string
	Attachments []Attachment
	CreatedAt   time.Time
	IsBot       bool
	IsWebhook   bool
	IsSystem    bool
}

// ContentHash returns the hex encoded SHA-256 digest of the raw message text.
func (m *Message) ContentHash() string {
	return ContentHash(m.Content)
}

// HasAnyRole reports whether the author holds at least one of the given roles.
func (m *Message) HasAnyRole(roleIDs []uint64) bool {
	for _, roleID := range m.AuthorRoles {
		if slices.Contains(roleIDs, roleID) {
			return true
		}
	}

	return false
}

// ContentHash returns the hex encoded SHA-256 digest of the given text.
func ContentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
