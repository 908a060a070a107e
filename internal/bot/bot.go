// Package bot connects the scam pipeline to the Discord gateway.
package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/disgoorg/disgo"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/gateway"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/scamguard/internal/bot/constants"
	"github.com/robalyx/scamguard/internal/scam/response"
	"github.com/robalyx/scamguard/internal/scam/types"
	"go.uber.org/zap"
)

const (
	// handleTimeout bounds the processing of a single gateway event.
	handleTimeout = 30 * time.Second
	// shutdownTimeout bounds closing the gateway.
	shutdownTimeout = 10 * time.Second
)

// MessageHandler classifies guild messages.
type MessageHandler interface {
	Handle(ctx context.Context, msg *types.Message) (bool, error)
}

// DecisionHandler applies moderator answers to scam reports.
type DecisionHandler interface {
	Confirm(ctx context.Context, decision response.Decision) error
}

// Bot routes gateway events to the scam pipeline.
type Bot struct {
	client    bot.Client
	messages  MessageHandler
	decisions DecisionHandler
	logger    *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates the gateway client. restClient is shared with the Platform so
// both use the same rate limiter.
func New(
	token string, restClient rest.Client, messages MessageHandler, decisions DecisionHandler, logger *zap.Logger,
) (*Bot, error) {
	ctx, cancel := context.WithCancel(context.Background())

	b := &Bot{
		messages:  messages,
		decisions: decisions,
		logger:    logger.Named("bot"),
		ctx:       ctx,
		cancel:    cancel,
	}

	client, err := disgo.New(token,
		bot.WithRestClient(restClient),
		bot.WithGatewayConfigOpts(
			gateway.WithIntents(
				gateway.IntentGuilds,
				gateway.IntentGuildMessages,
				gateway.IntentMessageContent,
			),
		),
		bot.WithEventListeners(&events.ListenerAdapter{
			OnGuildMessageCreate:   b.handleGuildMessageCreate,
			OnComponentInteraction: b.handleComponentInteraction,
		}),
	)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create discord client: %w", err)
	}

	b.client = client

	return b, nil
}

// Start opens the gateway and blocks until the context is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("Starting bot")

	if err := b.client.OpenGateway(ctx); err != nil {
		return fmt.Errorf("failed to open gateway: %w", err)
	}

	<-ctx.Done()
	b.Close()

	return nil
}

// Close shuts the gateway down and waits for in-flight events.
func (b *Bot) Close() {
	b.logger.Info("Closing bot")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	b.client.Close(ctx)
	b.wg.Wait()
	b.cancel()
}

// handleGuildMessageCreate runs every message through the pipeline in its own goroutine.
func (b *Bot) handleGuildMessageCreate(event *events.GuildMessageCreate) {
	msg := toMessage(&event.GuildID, event.Message)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.processMessage(msg)
	}()
}

func (b *Bot) processMessage(msg *types.Message) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Panic in message handler",
				zap.Any("panic", r),
				zap.Uint64("messageID", msg.ID))
		}
	}()

	ctx, cancel := context.WithTimeout(b.ctx, handleTimeout)
	defer cancel()

	if _, err := b.messages.Handle(ctx, msg); err != nil {
		b.logger.Error("Failed to handle message",
			zap.Uint64("guildID", msg.GuildID),
			zap.Uint64("channelID", msg.ChannelID),
			zap.Uint64("messageID", msg.ID),
			zap.Error(err))
	}
}

// handleComponentInteraction handles clicks on scam report controls.
func (b *Bot) handleComponentInteraction(event *events.ComponentInteractionCreate) {
	customID := event.Data.CustomID()
	if !response.IsDecisionCustomID(customID) {
		return
	}

	decision, err := decisionFromInteraction(
		customID, event.GuildID(), event.User().ID, event.Message.ChannelID, event.Message.ID,
	)
	if err != nil {
		b.logger.Warn("Ignoring invalid report control", zap.String("customID", customID), zap.Error(err))
		return
	}

	// Acknowledge first so the interaction does not time out
	if err := event.DeferUpdateMessage(); err != nil {
		b.logger.Error("Failed to defer update message", zap.Error(err))
		return
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.processDecision(event, decision)
	}()
}

func (b *Bot) processDecision(event *events.ComponentInteractionCreate, decision response.Decision) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Panic in report control handler", zap.Any("panic", r))
			b.followup(event, constants.DecisionFailedMessage)
		}
	}()

	ctx, cancel := context.WithTimeout(b.ctx, handleTimeout)
	defer cancel()

	err := b.decisions.Confirm(ctx, decision)
	switch {
	case errors.Is(err, response.ErrNotModerator):
		b.followup(event, constants.NotModeratorMessage)
	case err != nil:
		b.logger.Error("Failed to apply moderator decision",
			zap.Uint64("guildID", decision.GuildID),
			zap.Uint64("messageID", decision.MessageID),
			zap.Error(err))
		b.followup(event, constants.DecisionFailedMessage)
	}
}

// followup sends an ephemeral message to the member who clicked.
func (b *Bot) followup(event *events.ComponentInteractionCreate, content string) {
	_, err := event.Client().Rest().CreateFollowupMessage(event.ApplicationID(), event.Token(),
		discord.NewMessageCreateBuilder().
			SetContent(content).
			SetEphemeral(true).
			Build())
	if err != nil {
		b.logger.Warn("Failed to send followup message", zap.Error(err))
	}
}

// decisionFromInteraction decodes a report control and fills in the
// interaction context.
func decisionFromInteraction(
	customID string, guildID *snowflake.ID, userID, channelID, messageID snowflake.ID,
) (response.Decision, error) {
	if guildID == nil {
		return response.Decision{}, fmt.Errorf("%w: interaction outside a guild", response.ErrInvalidCustomID)
	}

	decision, err := response.DecodeCustomID(customID)
	if err != nil {
		return response.Decision{}, err
	}

	decision.GuildID = uint64(*guildID)
	decision.ModeratorID = uint64(userID)
	decision.ReportChannelID = uint64(channelID)
	decision.ReportMessageID = uint64(messageID)

	return decision, nil
}
