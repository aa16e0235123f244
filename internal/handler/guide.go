package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/mindguide/internal/domain"
	"github.com/set-night/mindguide/internal/guide"
	"github.com/set-night/mindguide/internal/middleware"
	tg "github.com/set-night/mindguide/internal/telegram"
)

const journalTimeout = 5 * time.Second

// handleGuideMessage dispatches a private text message to the guide. The
// dispatch runs on its own goroutine so a chat can send again while a reply
// is still being typed.
func (h *Handler) handleGuideMessage(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg := update.Message
	user := middleware.GetUser(ctx)
	if user == nil {
		return
	}

	if err := h.userService.UpdateLastInteraction(ctx, user.ID); err != nil {
		slog.Warn("update last interaction", "error", err, "user_id", user.ID)
	}

	h.dispatch(ctx, b, user, msg.Chat.ID, msg.ID, func(obs guide.Observer) (*guide.Result, error) {
		return h.guide.Send(ctx, msg.Chat.ID, msg.Text, string(effectiveCategory(user)), obs)
	})
}

// handleRetry re-dispatches a failed user turn named by the callback data.
func (h *Handler) handleRetry(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}
	user := middleware.GetUser(ctx)
	if user == nil {
		return
	}

	turnID, _ := tg.TrimCallback(update.CallbackQuery.Data, tg.CallbackRetry)
	chatID, messageID := callbackChat(update)

	retryable := false
	if conv, ok := h.guide.Store().Lookup(chatID); ok {
		turn, found := conv.Turn(turnID)
		retryable = found && turn.IsUser && turn.IsFailed
	}
	if !retryable {
		b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
			CallbackQueryID: update.CallbackQuery.ID,
			Text:            "This message can no longer be retried.",
		})
		return
	}
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: update.CallbackQuery.ID})

	// drop the button so the same turn is not retried twice from one message
	if messageID != 0 {
		b.EditMessageReplyMarkup(ctx, &bot.EditMessageReplyMarkupParams{ChatID: chatID, MessageID: messageID})
	}

	h.dispatch(ctx, b, user, chatID, 0, func(obs guide.Observer) (*guide.Result, error) {
		return h.guide.Retry(ctx, chatID, turnID, string(effectiveCategory(user)), obs)
	})
}

func (h *Handler) dispatch(ctx context.Context, b *bot.Bot, user *domain.User, chatID int64, replyTo int, run func(guide.Observer) (*guide.Result, error)) {
	live := tg.NewLiveReply(ctx, b, chatID, replyTo, h.cfg.EditInterval).
		OnSettle(func(res *guide.Result, err error) {
			h.journal(user, res, err)
		})

	h.dispatches.Add(1)
	go func() {
		defer h.dispatches.Done()
		_, err := run(live)
		if errors.Is(err, guide.ErrEmptyMessage) {
			return
		}
		var sendErr *guide.SendError
		if err != nil && !errors.As(err, &sendErr) && !errors.Is(err, context.Canceled) {
			slog.Error("guide dispatch", "error", err, "chat_id", chatID)
			h.tgLogger.LogError(err, fmt.Sprintf("guide dispatch, chat %d", chatID))
		}
	}()
}

func (h *Handler) journal(user *domain.User, res *guide.Result, err error) {
	if res == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)
	defer cancel()
	req, recErr := h.requestLog.Record(ctx, user.ID, res, err)
	if recErr != nil {
		slog.Error("journal guide request", "error", recErr, "chat_id", res.ChatID)
		return
	}
	slog.Debug("guide request journalled",
		"request_id", req.ID,
		"chat_id", req.ChatID,
		"outcome", req.Outcome,
		"fragments", req.Fragments,
	)
}

// effectiveCategory drops a premium topic whose subscription has lapsed.
func effectiveCategory(user *domain.User) domain.Category {
	if !user.CanUse(user.Category) {
		return domain.CategoryNone
	}
	return user.Category
}

func (h *Handler) handleClear(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	h.guide.Clear(chatID)
	h.reply(ctx, b, chatID, "🔄 Conversation cleared. Let's start over.")
}

func (h *Handler) handleStatus(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	user := middleware.GetUser(ctx)
	if user == nil {
		return
	}
	chatID := update.Message.Chat.ID

	stats, err := h.requestLog.Stats(ctx, user.ID)
	if err != nil {
		slog.Error("request stats", "error", err, "user_id", user.ID)
	}
	h.reply(ctx, b, chatID, statusText(user, h.guide.Status(chatID), h.guide.Turns(chatID), h.guide.Counters(chatID), stats))
}

func statusText(user *domain.User, st guide.Status, turns []guide.Turn, c guide.Counters, stats domain.RequestStats) string {
	state := "idle"
	switch {
	case st.IsStreaming:
		state = "typing a reply"
	case st.IsLoading:
		state = "loading a topic"
	}

	failed := 0
	for _, t := range turns {
		if t.IsFailed {
			failed++
		}
	}

	premium := "no"
	if user.IsPremium() {
		premium = "until " + user.PremiumUntil.Format("2006-01-02")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 *Status*\n\n")
	fmt.Fprintf(&sb, "Guide: %s\n", state)
	fmt.Fprintf(&sb, "Topic: %s\n", effectiveCategory(user).Title())
	fmt.Fprintf(&sb, "Premium: %s\n\n", premium)
	fmt.Fprintf(&sb, "This conversation: %d messages, %d failed\n", len(turns), failed)
	fmt.Fprintf(&sb, "Requests this session: %d (%d failed)\n", c.Requests, c.FailedRequests)
	fmt.Fprintf(&sb, "All time: %d requests, %d failed", stats.Total, stats.Failed)
	return sb.String()
}

func (h *Handler) logSendError(chatID int64, err error) {
	if errors.Is(err, bot.ErrorForbidden) {
		slog.Info("chat unreachable", "chat_id", chatID, "error", domain.ErrBotBlocked)
		return
	}
	slog.Error("send message", "chat_id", chatID, "error", err)
}
