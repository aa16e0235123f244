package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/mindguide/internal/domain"
	"github.com/set-night/mindguide/internal/middleware"
	tg "github.com/set-night/mindguide/internal/telegram"
)

func (h *Handler) handleCategories(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	user := middleware.GetUser(ctx)
	if user == nil {
		return
	}

	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      update.Message.Chat.ID,
		Text:        "🧭 Choose what you would like guidance on. ⭐ topics are part of /premium.",
		ReplyMarkup: tg.CategoryKeyboard(user.Category, user.IsPremium()),
	})
	if err != nil {
		h.logSendError(update.Message.Chat.ID, err)
	}
}

// handleCategorySelect stores the chosen topic and shows its tile.
func (h *Handler) handleCategorySelect(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}
	user := middleware.GetUser(ctx)
	if user == nil {
		return
	}

	raw, _ := tg.TrimCallback(update.CallbackQuery.Data, tg.CallbackCategory)
	category, err := domain.ParseCategory(raw)
	if err != nil {
		b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: update.CallbackQuery.ID})
		return
	}

	if err := h.userService.SetCategory(ctx, user, category); err != nil {
		text := "❌ Could not change the topic."
		if errors.Is(err, domain.ErrPremiumRequired) {
			text = "⭐ This topic is part of Premium. See /premium."
		} else {
			slog.Error("set category", "error", err, "user_id", user.ID)
		}
		b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
			CallbackQueryID: update.CallbackQuery.ID,
			Text:            text,
			ShowAlert:       true,
		})
		return
	}
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: update.CallbackQuery.ID,
		Text:            "Topic: " + category.Title(),
	})

	chatID, messageID := callbackChat(update)
	if messageID != 0 {
		b.EditMessageReplyMarkup(ctx, &bot.EditMessageReplyMarkupParams{
			ChatID:      chatID,
			MessageID:   messageID,
			ReplyMarkup: tg.CategoryKeyboard(category, user.IsPremium()),
		})
	}

	if category == domain.CategoryNone {
		h.reply(ctx, b, chatID, "🧭 Back to general guidance. Write whenever you are ready.")
		return
	}

	tile, err := h.guide.LoadTile(ctx, chatID, string(category))
	if err != nil {
		slog.Warn("load tile", "error", err, "category", category)
		h.reply(ctx, b, chatID, fmt.Sprintf("🧭 Topic set to *%s*. Write whenever you are ready.", category.Title()))
		return
	}
	if err := tg.SendLongMessage(ctx, b, chatID, tileText(tile.Title, tile.Text), nil); err != nil {
		h.logSendError(chatID, err)
	}
}

func tileText(title, body string) string {
	if body == "" {
		return fmt.Sprintf("*%s*\n\nWrite whenever you are ready.", title)
	}
	return fmt.Sprintf("*%s*\n\n%s\n\n_Write whenever you are ready._", title, body)
}
