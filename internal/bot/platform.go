package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/scamguard/internal/bot/constants"
	"github.com/robalyx/scamguard/internal/scam/response"
	"github.com/robalyx/scamguard/pkg/utils"
	"go.uber.org/zap"
)

// Discord JSON error codes for targets that no longer exist.
const (
	codeUnknownChannel = 10003
	codeUnknownMember  = 10007
	codeUnknownMessage = 10008
	codeUnknownUser    = 10013
)

// closedControlIDs replace the report controls once a decision was made.
const (
	closedConfirmID = "scam_report_closed_confirm"
	closedDenyID    = "scam_report_closed_deny"
)

// Platform implements response.Platform on the Discord REST API.
type Platform struct {
	rest           rest.Rest
	channelPattern string
	reportChannels *utils.TTLMap[uint64, uint64]
	failedLookups  *utils.TTLMap[uint64, error]
	logger         *zap.Logger
}

// NewPlatform creates a platform that reports to the first guild text channel
// whose name contains channelPattern.
func NewPlatform(client rest.Rest, channelPattern string, logger *zap.Logger) *Platform {
	return &Platform{
		rest:           client,
		channelPattern: strings.ToLower(channelPattern),
		reportChannels: utils.NewTTLMap[uint64, uint64](constants.ReportChannelCacheTTL),
		failedLookups:  utils.NewTTLMap[uint64, error](constants.ReportChannelRetryTTL),
		logger:         logger.Named("discord_platform"),
	}
}

// Close stops the report channel caches.
func (p *Platform) Close() {
	p.reportChannels.Stop()
	p.failedLookups.Stop()
}

// DeleteMessage implements response.Platform.
func (p *Platform) DeleteMessage(ctx context.Context, channelID, messageID uint64, reason string) error {
	err := p.rest.DeleteMessage(snowflake.ID(channelID), snowflake.ID(messageID),
		rest.WithCtx(ctx), rest.WithReason(reason))

	return mapError(err)
}

// AddRole implements response.Platform.
func (p *Platform) AddRole(ctx context.Context, guildID, userID, roleID uint64, reason string) error {
	err := p.rest.AddMemberRole(snowflake.ID(guildID), snowflake.ID(userID), snowflake.ID(roleID),
		rest.WithCtx(ctx), rest.WithReason(reason))

	return mapError(err)
}

// SendDirectMessage implements response.Platform.
func (p *Platform) SendDirectMessage(ctx context.Context, userID uint64, content string) error {
	channel, err := p.rest.CreateDMChannel(snowflake.ID(userID), rest.WithCtx(ctx))
	if err != nil {
		return fmt.Errorf("failed to open direct message channel: %w", mapError(err))
	}

	_, err = p.rest.CreateMessage(channel.ID(), discord.NewMessageCreateBuilder().
		SetContent(content).
		Build(), rest.WithCtx(ctx))

	return mapError(err)
}

// SendReport implements response.Platform.
func (p *Platform) SendReport(ctx context.Context, guildID uint64, report *response.Report) error {
	channelID, err := p.reportChannel(ctx, guildID)
	if err != nil {
		return err
	}

	_, err = p.rest.CreateMessage(snowflake.ID(channelID), buildReport(report), rest.WithCtx(ctx))
	if err != nil {
		// The cached channel may have been removed
		p.reportChannels.Delete(guildID)
		return mapError(err)
	}

	return nil
}

// DisableControls implements response.Platform.
func (p *Platform) DisableControls(ctx context.Context, channelID, messageID uint64) error {
	update := discord.NewMessageUpdateBuilder().
		AddActionRow(
			discord.NewDangerButton(constants.ConfirmButtonLabel, closedConfirmID).WithDisabled(true),
			discord.NewSecondaryButton(constants.DenyButtonLabel, closedDenyID).WithDisabled(true),
		).
		Build()

	_, err := p.rest.UpdateMessage(snowflake.ID(channelID), snowflake.ID(messageID), update, rest.WithCtx(ctx))

	return mapError(err)
}

// LookupMember implements response.Platform.
func (p *Platform) LookupMember(ctx context.Context, guildID, userID uint64) (*response.Member, error) {
	member, err := p.rest.GetMember(snowflake.ID(guildID), snowflake.ID(userID), rest.WithCtx(ctx))
	if err != nil {
		return nil, mapError(err)
	}

	roles := make([]uint64, 0, len(member.RoleIDs))
	for _, roleID := range member.RoleIDs {
		roles = append(roles, uint64(roleID))
	}

	return &response.Member{UserID: userID, Roles: roles}, nil
}

// LookupChannel implements response.Platform.
func (p *Platform) LookupChannel(ctx context.Context, channelID uint64) (*response.Channel, error) {
	channel, err := p.rest.GetChannel(snowflake.ID(channelID), rest.WithCtx(ctx))
	if err != nil {
		return nil, mapError(err)
	}

	out := &response.Channel{ID: channelID, Name: channel.Name()}
	if guildChannel, ok := channel.(discord.GuildChannel); ok {
		out.GuildID = uint64(guildChannel.GuildID())
	}

	return out, nil
}

// IsReportChannel reports whether the channel receives the guild's scam reports.
func (p *Platform) IsReportChannel(ctx context.Context, guildID, channelID uint64) bool {
	reportChannelID, err := p.reportChannel(ctx, guildID)
	return err == nil && reportChannelID == channelID
}

// reportChannel resolves the report channel of a guild through the cache.
// A guild without a matching channel is cached as 0 so it is not listed on
// every message. Failed lookups are retried after ReportChannelRetryTTL.
func (p *Platform) reportChannel(ctx context.Context, guildID uint64) (uint64, error) {
	if channelID, ok := p.reportChannels.Get(guildID); ok {
		if channelID == 0 {
			return 0, fmt.Errorf("%w: report channel for guild %d", response.ErrNotFound, guildID)
		}

		return channelID, nil
	}

	if err, ok := p.failedLookups.Get(guildID); ok {
		return 0, err
	}

	channels, err := p.rest.GetGuildChannels(snowflake.ID(guildID), rest.WithCtx(ctx))
	if err != nil {
		err = fmt.Errorf("failed to list guild channels: %w", mapError(err))
		p.failedLookups.Set(guildID, err)

		return 0, err
	}

	channelID, ok := findReportChannel(channels, p.channelPattern)
	p.reportChannels.Set(guildID, channelID)

	if !ok {
		p.logger.Warn("No report channel found",
			zap.Uint64("guildID", guildID),
			zap.String("pattern", p.channelPattern))

		return 0, fmt.Errorf("%w: report channel for guild %d", response.ErrNotFound, guildID)
	}

	return channelID, nil
}

// findReportChannel returns the first text channel whose lowercased name
// contains pattern.
func findReportChannel(channels []discord.GuildChannel, pattern string) (uint64, bool) {
	if pattern == "" {
		return 0, false
	}

	for _, channel := range channels {
		if channel.Type() != discord.ChannelTypeGuildText {
			continue
		}

		if strings.Contains(strings.ToLower(channel.Name()), pattern) {
			return uint64(channel.ID()), true
		}
	}

	return 0, false
}

// mapError turns "unknown entity" REST errors into response.ErrNotFound.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var restErr *rest.Error
	if !errors.As(err, &restErr) {
		return err
	}

	switch int(restErr.Code) {
	case codeUnknownChannel, codeUnknownMember, codeUnknownMessage, codeUnknownUser:
		return fmt.Errorf("%w: %s", response.ErrNotFound, restErr.Message)
	}

	if restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", response.ErrNotFound, restErr.Message)
	}

	return err
}
