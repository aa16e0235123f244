package handler

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/mindguide/internal/domain"
	"github.com/set-night/mindguide/internal/middleware"
	"github.com/set-night/mindguide/internal/service"
	tg "github.com/set-night/mindguide/internal/telegram"
)

func premiumText(user *domain.User) string {
	status := "None"
	if user.IsPremium() {
		status = fmt.Sprintf("Active until %s", user.PremiumUntil.Format("02.01.2006"))
	}
	return fmt.Sprintf(
		"⭐ *Premium*\n\n"+
			"Status: *%s*\n\n"+
			"*Includes:*\n"+
			"• %s and %s topics\n"+
			"• Higher message rate\n\n"+
			"Paid with Telegram Stars.",
		status,
		domain.CategoryGrowth.Title(),
		domain.CategoryHealing.Title(),
	)
}

func premiumKeyboard() *models.InlineKeyboardMarkup {
	var rows [][]models.InlineKeyboardButton
	for i, plan := range service.GetPremiumPlans() {
		label := fmt.Sprintf("%d days — $%s (%d ⭐)", plan.Days, plan.PriceUSD.StringFixed(2), service.CalculateStarAmount(plan.PriceUSD))
		rows = append(rows, tg.ButtonRow(tg.InlineButton(label, tg.CallbackPremium+strconv.Itoa(i))))
	}
	return tg.InlineKeyboard(rows...)
}

func (h *Handler) handlePremium(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Chat.Type != "private" {
		return
	}
	user := middleware.GetUser(ctx)
	if user == nil {
		return
	}
	chatID := update.Message.Chat.ID

	params := &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      premiumText(user),
		ParseMode: models.ParseModeMarkdownV1,
	}
	if h.cfg.StarsEnabled {
		params.ReplyMarkup = premiumKeyboard()
	} else {
		params.Text += "\n\n_Purchases are currently unavailable._"
	}
	if _, err := b.SendMessage(ctx, params); err != nil {
		h.logSendError(chatID, err)
	}
}

// handlePremiumBuy sends a Stars invoice for the chosen plan.
func (h *Handler) handlePremiumBuy(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: update.CallbackQuery.ID})

	if !h.cfg.StarsEnabled || middleware.GetUser(ctx) == nil {
		return
	}

	idxStr, _ := tg.TrimCallback(update.CallbackQuery.Data, tg.CallbackPremium)
	idx, err := strconv.Atoi(idxStr)
	if err != nil {
		return
	}
	plan, err := service.PlanByIndex(idx)
	if err != nil {
		return
	}

	stars := service.CalculateStarAmount(plan.PriceUSD)
	chatID := update.CallbackQuery.From.ID

	_, err = b.SendInvoice(ctx, &bot.SendInvoiceParams{
		ChatID:      chatID,
		Title:       "Premium",
		Description: fmt.Sprintf("Premium guidance for %d days", plan.Days),
		Payload:     invoicePayload(plan),
		Currency:    "XTR",
		Prices: []models.LabeledPrice{
			{Label: fmt.Sprintf("%d days", plan.Days), Amount: stars},
		},
	})
	if err != nil {
		h.logSendError(chatID, err)
	}
}
