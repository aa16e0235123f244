package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/set-night/mindguide/internal/config"
	"github.com/set-night/mindguide/internal/domain"
)

// TelegramLogger mirrors notable events into topics of the admin log chat.
type TelegramLogger struct {
	m   Messenger
	cfg *config.Config
}

func NewTelegramLogger(m Messenger, cfg *config.Config) *TelegramLogger {
	return &TelegramLogger{m: m, cfg: cfg}
}

type LogType string

const (
	LogTypeError           LogType = "error"
	LogTypeRegistration    LogType = "registration"
	LogTypePremiumPurchase LogType = "premiumPurchase"
)

func (l *TelegramLogger) Log(logType LogType, message string) {
	if l.cfg.LogTelegramChatID == 0 {
		return
	}

	topicID := l.getTopicID(logType)
	if topicID == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := l.m.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:          l.cfg.LogTelegramChatID,
		Text:            TruncateRunes(message, MaxMessageLen),
		ParseMode:       "Markdown",
		MessageThreadID: topicID,
	})
	if err != nil {
		slog.Error("failed to send telegram log", "type", logType, "error", err)
	}
}

func (l *TelegramLogger) LogError(err error, where string) {
	msg := fmt.Sprintf("❌ *Error*\n\n*Context:* %s\n*Error:* `%s`\n*Time:* %s",
		where, err.Error(), time.Now().Format(time.DateTime))
	l.Log(LogTypeError, msg)
}

func (l *TelegramLogger) LogRegistration(user *domain.User) {
	msg := fmt.Sprintf("👤 *New Registration*\n\n*ID:* `%d`\n*Name:* %s",
		user.TelegramID, user.FirstName)
	if user.Username != "" {
		msg += fmt.Sprintf("\n*Username:* @%s", user.Username)
	}
	l.Log(LogTypeRegistration, msg)
}

func (l *TelegramLogger) LogPremiumPurchase(telegramID int64, p *domain.PremiumPurchase) {
	msg := fmt.Sprintf("⭐ *Premium Purchase*\n\n*User:* `%d`\n*Plan:* %d days\n*Price:* $%s (%d XTR)\n*Until:* %s",
		telegramID, p.PlanDays, p.PriceUSD.StringFixed(2), p.Stars, p.PremiumUntil.Format(time.DateOnly))
	l.Log(LogTypePremiumPurchase, msg)
}

func (l *TelegramLogger) getTopicID(logType LogType) int {
	switch logType {
	case LogTypeError:
		return l.cfg.LogTopicError
	case LogTypeRegistration:
		return l.cfg.LogTopicRegistration
	case LogTypePremiumPurchase:
		return l.cfg.LogTopicPremiumPurchase
	default:
		return 0
	}
}
