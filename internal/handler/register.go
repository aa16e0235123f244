package handler

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	tg "github.com/set-night/mindguide/internal/telegram"
)

// Register registers all command and callback handlers on the bot instance.
func (h *Handler) Register() {
	// Commands
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypePrefix, h.handleStart)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypePrefix, h.handleHelp)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/categories", bot.MatchTypePrefix, h.handleCategories)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/clear", bot.MatchTypePrefix, h.handleClear)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/status", bot.MatchTypePrefix, h.handleStatus)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/premium", bot.MatchTypePrefix, h.handlePremium)

	// Category callbacks; cat_none is matched by the prefix as well
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, tg.CallbackCategory, bot.MatchTypePrefix, h.handleCategorySelect)

	// Guide callbacks
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, tg.CallbackRetry, bot.MatchTypePrefix, h.handleRetry)

	// Premium callbacks
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, tg.CallbackPremium, bot.MatchTypePrefix, h.handlePremiumBuy)

	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "noop", bot.MatchTypeExact, h.handleNoop)

	// Plain text goes to the guide
	h.bot.RegisterHandlerMatchFunc(isGuideMessage, h.handleGuideMessage)
}

// HandleDefault receives updates no registered handler matched: payment
// updates arrive here.
func (h *Handler) HandleDefault(ctx context.Context, b *bot.Bot, update *models.Update) {
	switch {
	case update.PreCheckoutQuery != nil:
		h.HandlePreCheckout(ctx, b, update)
	case update.Message != nil && update.Message.SuccessfulPayment != nil:
		h.HandleSuccessfulPayment(ctx, b, update)
	}
}

// isGuideMessage matches private, non-command text messages.
func isGuideMessage(update *models.Update) bool {
	msg := update.Message
	if msg == nil || msg.Chat.Type != "private" || msg.SuccessfulPayment != nil {
		return false
	}
	text := strings.TrimSpace(msg.Text)
	return text != "" && !strings.HasPrefix(text, "/")
}

// handleNoop acknowledges callbacks of non-interactive buttons.
func (h *Handler) handleNoop(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery != nil {
		b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
			CallbackQueryID: update.CallbackQuery.ID,
		})
	}
}

// callbackChat returns the chat and message of a callback's source message.
func callbackChat(update *models.Update) (chatID int64, messageID int) {
	if msg := update.CallbackQuery.Message.Message; msg != nil {
		return msg.Chat.ID, msg.ID
	}
	return update.CallbackQuery.From.ID, 0
}

func (h *Handler) reply(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeMarkdownV1,
	}); err != nil {
		if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
			h.logSendError(chatID, err)
		}
	}
}
