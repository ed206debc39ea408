package telegram

import (
	"context"
	"errors"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-subscription-payments/internal/config"
	"telegram-subscription-payments/internal/domain/ports/adapter"
)

var (
	_ adapter.Notifier    = (*RealBotAdapter)(nil)
	_ adapter.ChannelGate = (*RealBotAdapter)(nil)
)

// RealBotAdapter sends user notifications and manages paid-channel
// membership through the Bot API.
type RealBotAdapter struct {
	bot       *tgbotapi.BotAPI
	channelID int64
	log       *zerolog.Logger
}

func NewRealBotAdapter(cfg *config.BotConfig, logger *zerolog.Logger) (*RealBotAdapter, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	if cfg.ChannelID == 0 {
		return nil, errors.New("bot.channel_id is required")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}

	l := logger.With().Str("component", "TelegramBot").Logger()
	return &RealBotAdapter{
		bot:       bot,
		channelID: cfg.ChannelID,
		log:       &l,
	}, nil
}

func (r *RealBotAdapter) send(ctx context.Context, tgID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(tgID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := r.bot.Send(msg)
	return err
}

func (r *RealBotAdapter) PaymentSucceeded(ctx context.Context, tgID int64, planName, subscriptionEnd string) error {
	text := fmt.Sprintf(
		"✅ Payment received!\n\nYour <b>%s</b> subscription is active until <b>%s</b>.",
		planName, subscriptionEnd,
	)
	return r.send(ctx, tgID, text)
}

func (r *RealBotAdapter) SubscriptionExpiring(ctx context.Context, tgID int64, daysLeft int) error {
	text := fmt.Sprintf(
		"⏳ Your subscription expires in <b>%d day(s)</b>. Renew to keep access to the channel.",
		daysLeft,
	)
	return r.send(ctx, tgID, text)
}

func (r *RealBotAdapter) SubscriptionExpired(ctx context.Context, tgID int64) error {
	return r.send(ctx, tgID,
		"❌ Your subscription has expired and you were removed from the channel. Pay again to rejoin.")
}

// Readmit lifts the ban so a returning subscriber can use an invite link
// again. OnlyIfBanned keeps the call from failing on members in good
// standing.
func (r *RealBotAdapter) Readmit(ctx context.Context, tgID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cfg := tgbotapi.UnbanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{
			ChatID: r.channelID,
			UserID: tgID,
		},
		OnlyIfBanned: true,
	}
	if _, err := r.bot.Request(cfg); err != nil {
		return err
	}
	r.log.Info().Int64("tg_id", tgID).Msg("user readmitted to channel")
	return nil
}

// Remove kicks a lapsed subscriber. The one-minute until-date makes it a
// kick rather than a permanent ban: Telegram auto-lifts the ban, but the
// user stays out until they follow a fresh invite link.
func (r *RealBotAdapter) Remove(ctx context.Context, tgID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cfg := tgbotapi.BanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{
			ChatID: r.channelID,
			UserID: tgID,
		},
		UntilDate: time.Now().Add(time.Minute).Unix(),
	}
	if _, err := r.bot.Request(cfg); err != nil {
		return err
	}
	r.log.Info().Int64("tg_id", tgID).Msg("user removed from channel")
	return nil
}
