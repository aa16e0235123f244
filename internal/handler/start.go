package handler

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/mindguide/internal/domain"
	"github.com/set-night/mindguide/internal/middleware"
	tg "github.com/set-night/mindguide/internal/telegram"
)

const helpText = "📋 *Commands:*\n" +
	"/categories — Choose a guidance topic\n" +
	"/status — Conversation status\n" +
	"/clear — Start the conversation over\n" +
	"/premium — Premium subscription\n" +
	"/help — This message\n\n" +
	"Just write a message to talk to your guide."

func welcomeText(user *domain.User) string {
	topic := "general guidance"
	if user.Category != domain.CategoryNone {
		topic = user.Category.Title()
	}
	return fmt.Sprintf("👋 Hi, *%s*!\n\nI'm your personal guide. Current topic: *%s*.\n\n%s",
		user.FirstName, topic, helpText)
}

func (h *Handler) handleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Chat.Type != "private" {
		return
	}
	user := middleware.GetUser(ctx)
	if user == nil {
		return
	}

	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      update.Message.Chat.ID,
		Text:        welcomeText(user),
		ParseMode:   models.ParseModeMarkdownV1,
		ReplyMarkup: tg.CategoryKeyboard(user.Category, user.IsPremium()),
	})
	if err != nil {
		h.logSendError(update.Message.Chat.ID, err)
	}
}

func (h *Handler) handleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.reply(ctx, b, update.Message.Chat.ID, helpText)
}
