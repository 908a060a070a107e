// Package pipeline classifies inbound guild messages and hands detected scams
// to the response orchestrator.
package pipeline

import (
	"context"

	"github.com/robalyx/scamguard/internal/metrics"
	"github.com/robalyx/scamguard/internal/scam/analyzer"
	"github.com/robalyx/scamguard/internal/scam/flood"
	"github.com/robalyx/scamguard/internal/scam/response"
	"github.com/robalyx/scamguard/internal/scam/types"
	"go.uber.org/zap"
)

// ReportChannels tells whether a channel is the guild's report channel.
type ReportChannels interface {
	IsReportChannel(ctx context.Context, guildID, channelID uint64) bool
}

// Config holds the upstream filters.
type Config struct {
	// Members holding any of these roles are never checked.
	TrustedRoleIDs []uint64
	// Optional, messages in the report channel are skipped when set.
	ReportChannels ReportChannels
}

// Pipeline runs the flood detector, the analyzer and the decision rule over
// each message.
type Pipeline struct {
	cfg          Config
	analyzer     *analyzer.Analyzer
	flood        *flood.Detector
	orchestrator *response.Orchestrator
	logger       *zap.Logger
}

// New creates a pipeline.
func New(
	cfg Config,
	analyzer *analyzer.Analyzer,
	flood *flood.Detector,
	orchestrator *response.Orchestrator,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		cfg:          cfg,
		analyzer:     analyzer,
		flood:        flood,
		orchestrator: orchestrator,
		logger:       logger.Named("scam_pipeline"),
	}
}

// Handle classifies the message and responds to it when it is a scam.
// It reports whether the message was treated as a scam.
func (p *Pipeline) Handle(ctx context.Context, msg *types.Message) (bool, error) {
	if reason := p.skipReason(ctx, msg); reason != "" {
		p.logger.Debug("Skipping message",
			zap.Uint64("messageID", msg.ID),
			zap.String("reason", reason))

		return false, nil
	}

	metrics.MessagesChecked.Inc()

	// Flooding messages skip token analysis.
	if p.flood.Check(msg) {
		return true, p.orchestrator.Handle(ctx, msg, response.SourceFlood)
	}

	result := p.analyzer.Analyze(msg.Content)
	if !p.analyzer.IsScam(result) {
		return false, nil
	}

	return true, p.orchestrator.Handle(ctx, msg, response.SourceAnalyzer)
}

// skipReason returns why the message is not checked, or an empty string.
func (p *Pipeline) skipReason(ctx context.Context, msg *types.Message) string {
	switch {
	case p.orchestrator.Mode() == types.ResponseModeOff:
		return "disabled"
	case msg.IsBot || msg.IsWebhook || msg.IsSystem:
		return "automated author"
	case msg.GuildID == 0:
		return "not in a guild"
	case msg.HasAnyRole(p.cfg.TrustedRoleIDs):
		return "trusted member"
	case p.cfg.ReportChannels != nil && p.cfg.ReportChannels.IsReportChannel(ctx, msg.GuildID, msg.ChannelID):
		return "report channel"
	}

	return ""
}
