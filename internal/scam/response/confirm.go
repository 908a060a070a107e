package response

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/robalyx/scamguard/internal/metrics"
	"github.com/robalyx/scamguard/internal/scam/history"
	"github.com/robalyx/scamguard/internal/scam/types"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// ErrNotModerator is returned when the clicking member lacks the moderator role.
var ErrNotModerator = errors.New("member is not a moderator")

// Decision is a moderator's answer to an interactive report.
type Decision struct {
	Approve     bool
	Mode        types.ResponseMode
	GuildID     uint64
	ChannelID   uint64
	MessageID   uint64
	AuthorID    uint64
	ContentHash string
	// ModeratorID is the member who answered.
	ModeratorID uint64
	// ReportChannelID and ReportMessageID locate the report holding the controls.
	ReportChannelID uint64
	ReportMessageID uint64
}

// Confirm applies a moderator's answer to a report. Approval quarantines the
// author and removes every recorded copy of the message that is not yet removed.
func (o *Orchestrator) Confirm(ctx context.Context, decision Decision) error {
	if err := o.verifyModerator(ctx, decision.GuildID, decision.ModeratorID); err != nil {
		return err
	}

	o.disableControls(ctx, decision.ReportChannelID, decision.ReportMessageID)

	fields := []zap.Field{
		zap.Uint64("guildID", decision.GuildID),
		zap.Uint64("messageID", decision.MessageID),
		zap.Uint64("authorID", decision.AuthorID),
		zap.Uint64("moderatorID", decision.ModeratorID),
		zap.String("mode", decision.Mode.String()),
	}

	if !decision.Approve {
		metrics.ModeratorDecisions.WithLabelValues("deny").Inc()
		o.logger.Info("Moderator marked scam report as false positive", fields...)

		return nil
	}

	metrics.ModeratorDecisions.WithLabelValues("approve").Inc()
	o.logger.Info("Moderator confirmed scam report", fields...)

	if o.quarantine(ctx, decision.GuildID, decision.AuthorID) {
		o.notifyAuthor(ctx, decision.AuthorID)
	}

	duplicates, err := o.store.MarkDuplicatesDeleted(ctx, decision.GuildID, decision.AuthorID, decision.ContentHash)
	if err != nil {
		return fmt.Errorf("failed to mark duplicates deleted: %w", err)
	}

	p := pool.New().WithMaxGoroutines(o.cfg.MaxConcurrentDeletes)
	for _, duplicate := range duplicates {
		p.Go(func() {
			o.deleteDuplicate(ctx, duplicate)
		})
	}
	p.Wait()

	o.logger.Info("Removed scam duplicates",
		zap.Uint64("guildID", decision.GuildID),
		zap.Uint64("authorID", decision.AuthorID),
		zap.Int("count", len(duplicates)))

	return nil
}

// verifyModerator looks the member up again instead of trusting the interaction payload.
func (o *Orchestrator) verifyModerator(ctx context.Context, guildID, userID uint64) error {
	var member *Member

	err := o.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		member, err = o.platform.LookupMember(ctx, guildID, userID)
		return err
	})
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: %d", ErrNotModerator, userID)
	}

	if err != nil {
		return fmt.Errorf("failed to look up moderator: %w", err)
	}

	if !slices.Contains(member.Roles, o.cfg.ModeratorRoleID) {
		return fmt.Errorf("%w: %d", ErrNotModerator, userID)
	}

	return nil
}

func (o *Orchestrator) disableControls(ctx context.Context, channelID, messageID uint64) {
	err := o.withTimeout(ctx, func(ctx context.Context) error {
		return o.platform.DisableControls(ctx, channelID, messageID)
	})
	if err != nil {
		o.sideEffectFailed(metrics.ActionDisable, err,
			zap.Uint64("channelID", channelID),
			zap.Uint64("messageID", messageID))
	}
}

// deleteDuplicate removes one recorded copy, skipping channels that are gone.
func (o *Orchestrator) deleteDuplicate(ctx context.Context, duplicate history.Identification) {
	err := o.withTimeout(ctx, func(ctx context.Context) error {
		_, err := o.platform.LookupChannel(ctx, duplicate.ChannelID)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			o.logger.Info("Skipping duplicate in removed channel",
				zap.Uint64("channelID", duplicate.ChannelID),
				zap.Uint64("messageID", duplicate.MessageID))

			return
		}

		o.logger.Warn("Failed to look up duplicate channel",
			zap.Uint64("channelID", duplicate.ChannelID),
			zap.Error(err))

		return
	}

	o.deleteMessage(ctx, duplicate.GuildID, duplicate.ChannelID, duplicate.MessageID)
}
