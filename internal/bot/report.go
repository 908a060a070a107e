package bot

import (
	"fmt"

	"github.com/disgoorg/disgo/discord"
	"github.com/robalyx/scamguard/internal/bot/constants"
	"github.com/robalyx/scamguard/internal/scam/response"
	"github.com/robalyx/scamguard/pkg/utils"
)

// buildReport renders a scam report with its controls.
func buildReport(report *response.Report) discord.MessageCreate {
	msg := report.Message

	color := constants.DefaultEmbedColor
	switch {
	case report.Deleted || report.Quarantined:
		color = constants.ActionEmbedColor
	case report.Interactive():
		color = constants.ReportEmbedColor
	}

	content := utils.CodeBlock(utils.Truncate(msg.Content, constants.MaxEmbedFieldLength-16))

	embed := discord.NewEmbedBuilder().
		SetTitle(report.Title()).
		SetColor(color).
		AddField("Author", fmt.Sprintf("<@%d> (`%d`)", msg.AuthorID, msg.AuthorID), true).
		AddField("Channel", fmt.Sprintf("<#%d>", msg.ChannelID), true).
		AddField("Detected by", string(report.Source), true).
		AddField("Mode", fmt.Sprintf("`%s`", report.Mode), true).
		AddField("Deleted", yesNo(report.Deleted), true).
		AddField("Quarantined", yesNo(report.Quarantined), true).
		AddField("Content", content, false).
		SetTimestamp(msg.CreatedAt).
		Build()

	builder := discord.NewMessageCreateBuilder().
		AddEmbeds(embed).
		SetAllowedMentions(&discord.AllowedMentions{})

	if report.Interactive() {
		builder.AddActionRow(
			discord.NewDangerButton(constants.ConfirmButtonLabel, report.ConfirmID),
			discord.NewSecondaryButton(constants.DenyButtonLabel, report.DenyID),
		)
	}

	return builder.Build()
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}

	return "No"
}
