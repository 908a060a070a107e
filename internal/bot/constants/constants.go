package constants

import "time"

const (
	// ReportEmbedColor marks reports still waiting for a moderator.
	ReportEmbedColor = 0xE67E22
	// ActionEmbedColor marks reports where action was already taken.
	ActionEmbedColor = 0xC0392B
	// DefaultEmbedColor is used for informational reports.
	DefaultEmbedColor = 0x312D2B

	// MaxEmbedFieldLength is the platform limit for an embed field value.
	MaxEmbedFieldLength = 1024

	// ReportChannelCacheTTL is how long a resolved report channel is remembered.
	ReportChannelCacheTTL = 10 * time.Minute
	// ReportChannelRetryTTL is how long a failed report channel lookup is remembered.
	ReportChannelRetryTTL = 30 * time.Second

	// ConfirmButtonLabel and DenyButtonLabel label the report controls.
	ConfirmButtonLabel = "Confirm scam"
	DenyButtonLabel    = "Not a scam"

	// NotModeratorMessage is shown to members answering a report without permission.
	NotModeratorMessage = "You need the moderator role to answer scam reports."
	// DecisionFailedMessage is shown when a decision could not be applied.
	DecisionFailedMessage = "Failed to apply the decision. Please try again."
)
