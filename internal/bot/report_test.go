package bot

import (
	"strings"
	"testing"
	"time"

	"github.com/robalyx/scamguard/internal/bot/constants"
	"github.com/robalyx/scamguard/internal/scam/response"
	"github.com/robalyx/scamguard/internal/scam/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testReport(interactive bool) *response.Report {
	report := &response.Report{
		Mode:   types.ResponseModeApproveFirst,
		Source: response.SourceAnalyzer,
		Message: &types.Message{
			ID:        1,
			GuildID:   100,
			ChannelID: 10,
			AuthorID:  42,
			Content:   "@everyone free nitro ```http://paypa1-gift.com```",
			CreatedAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		},
	}

	if interactive {
		report.ConfirmID = "sb:y:2:a:1:16:aa"
		report.DenyID = "sb:n:2:a:1:16:aa"
	}

	return report
}

func TestBuildReport_Interactive(t *testing.T) {
	t.Parallel()

	msg := buildReport(testReport(true))

	require.Len(t, msg.Embeds, 1)
	embed := msg.Embeds[0]
	assert.Equal(t, "Possible scam, remove and quarantine?", embed.Title)
	assert.Equal(t, constants.ReportEmbedColor, embed.Color)

	fields := make(map[string]string, len(embed.Fields))
	for _, field := range embed.Fields {
		fields[field.Name] = field.Value
	}

	assert.Equal(t, "<@42> (`42`)", fields["Author"])
	assert.Equal(t, "<#10>", fields["Channel"])
	assert.Equal(t, "analyzer", fields["Detected by"])
	assert.Equal(t, "`APPROVE_FIRST`", fields["Mode"])
	assert.Equal(t, "No", fields["Deleted"])
	assert.Equal(t, 2, strings.Count(fields["Content"], "```"))

	require.NotNil(t, msg.AllowedMentions)
	assert.Empty(t, msg.AllowedMentions.Parse)
	assert.Len(t, msg.Components, 1)
}

func TestBuildReport_Informational(t *testing.T) {
	t.Parallel()

	report := testReport(false)
	report.Mode = types.ResponseModeAutoDeleteAndQuarantine
	report.Deleted = true
	report.Quarantined = true

	msg := buildReport(report)

	require.Len(t, msg.Embeds, 1)
	assert.Equal(t, "Scam removed and author quarantined", msg.Embeds[0].Title)
	assert.Equal(t, constants.ActionEmbedColor, msg.Embeds[0].Color)
	assert.Empty(t, msg.Components)
}

func TestBuildReport_TruncatesContent(t *testing.T) {
	t.Parallel()

	report := testReport(false)
	report.Message.Content = strings.Repeat("a", 4000)

	msg := buildReport(report)

	for _, field := range msg.Embeds[0].Fields {
		assert.LessOrEqual(t, len([]rune(field.Value)), constants.MaxEmbedFieldLength, field.Name)
	}
}
