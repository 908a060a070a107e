// Package response reacts to detected scam messages according to the configured mode.
package response

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robalyx/scamguard/internal/metrics"
	"github.com/robalyx/scamguard/internal/scam/history"
	"github.com/robalyx/scamguard/internal/scam/types"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"
)

const (
	// DefaultRequestTimeout bounds every platform call.
	DefaultRequestTimeout = 5 * time.Second

	quarantineReason = "Posted a message detected as a scam"
	deleteReason     = "Scam message"
	quarantineNotice = "A message you posted was detected as a scam and removed. " +
		"Your account has been restricted in that server until a moderator reviews it. " +
		"If your account was compromised, change your password and enable two-factor authentication."
)

// Config holds the platform specific identifiers used by the orchestrator.
type Config struct {
	// Role required to answer reports.
	ModeratorRoleID uint64
	// Role given to quarantined users.
	QuarantineRoleID uint64
	// Bound for each platform call, defaults to DefaultRequestTimeout.
	RequestTimeout time.Duration
	// Maximum concurrent deletions when removing duplicates.
	MaxConcurrentDeletes int
}

// Orchestrator carries out the response to detected scams.
type Orchestrator struct {
	mode     types.ResponseMode
	store    history.Store
	platform Platform
	cfg      Config
	logger   *zap.Logger
}

// New creates an orchestrator for the given mode.
func New(mode types.ResponseMode, store history.Store, platform Platform, cfg Config, logger *zap.Logger) *Orchestrator {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}

	if cfg.MaxConcurrentDeletes <= 0 {
		cfg.MaxConcurrentDeletes = 4
	}

	return &Orchestrator{
		mode:     mode,
		store:    store,
		platform: platform,
		cfg:      cfg,
		logger:   logger.Named("scam_orchestrator"),
	}
}

// Mode returns the active response mode.
func (o *Orchestrator) Mode() types.ResponseMode {
	return o.mode
}

// Handle responds to a newly detected scam message. History errors abort the
// response and are returned, platform failures are logged and skipped.
func (o *Orchestrator) Handle(ctx context.Context, msg *types.Message, source Source) error {
	duplicate, err := o.store.HasRecentDuplicate(ctx, msg)
	if err != nil {
		return fmt.Errorf("failed to check scam history: %w", err)
	}

	if duplicate {
		return o.handleDuplicate(ctx, msg)
	}

	metrics.ScamsDetected.WithLabelValues(o.mode.String(), string(source)).Inc()

	switch o.mode {
	case types.ResponseModeOff:
		return nil

	case types.ResponseModeOnlyLog:
		return o.record(ctx, msg, source, false)

	case types.ResponseModeApproveFirst:
		if err := o.record(ctx, msg, source, false); err != nil {
			return err
		}

		o.sendInteractiveReport(ctx, msg, source, false)

		return nil

	case types.ResponseModeAutoDeleteButApproveQuarantine:
		if err := o.record(ctx, msg, source, true); err != nil {
			return err
		}

		o.deleteMessage(ctx, msg.GuildID, msg.ChannelID, msg.ID)
		o.sendInteractiveReport(ctx, msg, source, true)

		return nil

	case types.ResponseModeAutoDeleteAndQuarantine:
		if err := o.record(ctx, msg, source, true); err != nil {
			return err
		}

		var quarantined bool

		var wg conc.WaitGroup
		wg.Go(func() { o.deleteMessage(ctx, msg.GuildID, msg.ChannelID, msg.ID) })
		wg.Go(func() {
			// The author is only told about a restriction that was applied
			if quarantined = o.quarantine(ctx, msg.GuildID, msg.AuthorID); quarantined {
				o.notifyAuthor(ctx, msg.AuthorID)
			}
		})
		wg.Wait()

		o.sendReport(ctx, msg.GuildID, &Report{
			Mode:        o.mode,
			Source:      source,
			Message:     msg,
			Deleted:     true,
			Quarantined: quarantined,
		})

		return nil

	default:
		return fmt.Errorf("%w: %s", types.ErrUnknownMode, o.mode)
	}
}

// handleDuplicate records a repost of an already handled scam and removes it
// when the mode deletes without approval.
func (o *Orchestrator) handleDuplicate(ctx context.Context, msg *types.Message) error {
	metrics.DuplicateScams.Inc()

	deletes := o.mode.DeletesImmediately()
	if err := o.store.AddScam(ctx, msg, deletes); err != nil {
		return fmt.Errorf("failed to record duplicate scam: %w", err)
	}

	o.logger.Info("Duplicate scam message",
		zap.Uint64("guildID", msg.GuildID),
		zap.Uint64("channelID", msg.ChannelID),
		zap.Uint64("messageID", msg.ID),
		zap.Uint64("authorID", msg.AuthorID))

	if deletes {
		o.deleteMessage(ctx, msg.GuildID, msg.ChannelID, msg.ID)
	}

	return nil
}

// record stores the detection and writes the audit log entry.
func (o *Orchestrator) record(ctx context.Context, msg *types.Message, source Source, deleted bool) error {
	if err := o.store.AddScam(ctx, msg, deleted); err != nil {
		return fmt.Errorf("failed to record scam: %w", err)
	}

	o.logger.Info("Scam message detected",
		zap.String("mode", o.mode.String()),
		zap.String("source", string(source)),
		zap.Uint64("guildID", msg.GuildID),
		zap.Uint64("channelID", msg.ChannelID),
		zap.Uint64("messageID", msg.ID),
		zap.Uint64("authorID", msg.AuthorID),
		zap.String("authorName", msg.AuthorName),
		zap.String("content", msg.Content))

	return nil
}

func (o *Orchestrator) sendInteractiveReport(ctx context.Context, msg *types.Message, source Source, deleted bool) {
	hash := msg.ContentHash()

	confirmID, err := EncodeCustomID(true, o.mode, msg.ChannelID, msg.ID, msg.AuthorID, hash)
	if err != nil {
		o.logger.Error("Failed to encode report controls", zap.Error(err))
		return
	}

	denyID, err := EncodeCustomID(false, o.mode, msg.ChannelID, msg.ID, msg.AuthorID, hash)
	if err != nil {
		o.logger.Error("Failed to encode report controls", zap.Error(err))
		return
	}

	o.sendReport(ctx, msg.GuildID, &Report{
		Mode:      o.mode,
		Source:    source,
		Message:   msg,
		Deleted:   deleted,
		ConfirmID: confirmID,
		DenyID:    denyID,
	})
}

// withTimeout runs a platform call with the request timeout applied.
func (o *Orchestrator) withTimeout(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.RequestTimeout)
	defer cancel()

	return fn(ctx)
}

func (o *Orchestrator) deleteMessage(ctx context.Context, guildID, channelID, messageID uint64) {
	err := o.withTimeout(ctx, func(ctx context.Context) error {
		return o.platform.DeleteMessage(ctx, channelID, messageID, deleteReason)
	})
	if err != nil {
		o.sideEffectFailed(metrics.ActionDelete, err,
			zap.Uint64("guildID", guildID),
			zap.Uint64("channelID", channelID),
			zap.Uint64("messageID", messageID))
	}
}

// quarantine gives the author the quarantine role.
func (o *Orchestrator) quarantine(ctx context.Context, guildID, userID uint64) bool {
	err := o.withTimeout(ctx, func(ctx context.Context) error {
		return o.platform.AddRole(ctx, guildID, userID, o.cfg.QuarantineRoleID, quarantineReason)
	})
	if err != nil {
		o.sideEffectFailed(metrics.ActionQuarantine, err,
			zap.Uint64("guildID", guildID),
			zap.Uint64("userID", userID))

		return false
	}

	o.logger.Info("Quarantined user",
		zap.Uint64("guildID", guildID),
		zap.Uint64("userID", userID),
		zap.Uint64("roleID", o.cfg.QuarantineRoleID),
		zap.String("reason", quarantineReason))

	return true
}

func (o *Orchestrator) notifyAuthor(ctx context.Context, userID uint64) {
	err := o.withTimeout(ctx, func(ctx context.Context) error {
		return o.platform.SendDirectMessage(ctx, userID, quarantineNotice)
	})
	if err != nil {
		o.sideEffectFailed(metrics.ActionNotify, err, zap.Uint64("userID", userID))
	}
}

func (o *Orchestrator) sendReport(ctx context.Context, guildID uint64, report *Report) {
	err := o.withTimeout(ctx, func(ctx context.Context) error {
		return o.platform.SendReport(ctx, guildID, report)
	})
	if err != nil {
		o.sideEffectFailed(metrics.ActionReport, err,
			zap.Uint64("guildID", guildID),
			zap.Uint64("messageID", report.Message.ID))
	}
}

// sideEffectFailed logs a failed platform action. Missing targets are expected
// and logged at info level.
func (o *Orchestrator) sideEffectFailed(action string, err error, fields ...zap.Field) {
	metrics.SideEffectFailures.WithLabelValues(action).Inc()

	fields = append(fields, zap.String("action", action), zap.Error(err))
	if errors.Is(err, ErrNotFound) {
		o.logger.Info("Platform action target no longer exists", fields...)
		return
	}

	o.logger.Warn("Platform action failed", fields...)
}
