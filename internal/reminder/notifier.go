package reminder

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Notifier delivers a fired reminder somewhere the user will see it
type Notifier interface {
	Name() string
	Notify(ctx context.Context, p Payload) error
}

// LogNotifier writes reminders to the application log
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Name() string { return "log" }

func (n *LogNotifier) Notify(_ context.Context, p Payload) error {
	n.logger.Info("Medication reminder",
		zap.Uint("medication_id", p.MedicationID),
		zap.String("title", p.Title),
		zap.String("body", p.Body),
	)
	return nil
}

// telegramSender is the part of tgbotapi.BotAPI used for delivery
type telegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier sends reminders to a single Telegram chat
type TelegramNotifier struct {
	api    telegramSender
	chatID int64
}

// NewTelegramNotifier authorizes the bot token against the Telegram API
func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	api.Debug = false
	return &TelegramNotifier{api: api, chatID: chatID}, nil
}

func (n *TelegramNotifier) Name() string { return "telegram" }

func (n *TelegramNotifier) Notify(_ context.Context, p Payload) error {
	msg := tgbotapi.NewMessage(n.chatID, fmt.Sprintf("*%s*\n%s", tgbotapi.EscapeText(tgbotapi.ModeMarkdown, p.Title), tgbotapi.EscapeText(tgbotapi.ModeMarkdown, p.Body)))
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("telegram send failed: %w", err)
	}
	return nil
}

// discordSender is the part of discordgo.Session used for delivery
type discordSender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordNotifier posts reminders to a Discord channel
type DiscordNotifier struct {
	session   discordSender
	channelID string
}

// NewDiscordNotifier creates a REST-only session; no gateway connection is opened
func NewDiscordNotifier(token, channelID string) (*DiscordNotifier, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	return &DiscordNotifier{session: session, channelID: channelID}, nil
}

func (n *DiscordNotifier) Name() string { return "discord" }

func (n *DiscordNotifier) Notify(_ context.Context, p Payload) error {
	if _, err := n.session.ChannelMessageSend(n.channelID, fmt.Sprintf("**%s**\n%s", p.Title, p.Body)); err != nil {
		return fmt.Errorf("discord send failed: %w", err)
	}
	return nil
}
