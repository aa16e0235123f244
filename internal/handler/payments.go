package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/mindguide/internal/domain"
	"github.com/set-night/mindguide/internal/middleware"
	"github.com/set-night/mindguide/internal/service"
)

const invoicePrefix = "premium_"

func invoicePayload(plan domain.PremiumPlan) string {
	return fmt.Sprintf("%s%d", invoicePrefix, plan.Days)
}

// planFromPayload resolves and validates the plan of an invoice payload
// against the amount Telegram reports.
func planFromPayload(payload, currency string, total int) (domain.PremiumPlan, error) {
	daysStr, ok := strings.CutPrefix(payload, invoicePrefix)
	if !ok {
		return domain.PremiumPlan{}, fmt.Errorf("%w: payload %q", domain.ErrUnknownPlan, payload)
	}
	days, err := strconv.Atoi(daysStr)
	if err != nil {
		return domain.PremiumPlan{}, fmt.Errorf("%w: payload %q", domain.ErrUnknownPlan, payload)
	}
	plan, err := service.PlanByDays(days)
	if err != nil {
		return domain.PremiumPlan{}, err
	}
	if currency != "XTR" || total != service.CalculateStarAmount(plan.PriceUSD) {
		return domain.PremiumPlan{}, fmt.Errorf("%w: %d %s", domain.ErrInvalidAmount, total, currency)
	}
	return plan, nil
}

func (h *Handler) HandlePreCheckout(ctx context.Context, b *bot.Bot, update *models.Update) {
	q := update.PreCheckoutQuery
	if q == nil {
		return
	}

	params := &bot.AnswerPreCheckoutQueryParams{PreCheckoutQueryID: q.ID, OK: true}
	if _, err := planFromPayload(q.InvoicePayload, q.Currency, q.TotalAmount); err != nil || !h.cfg.StarsEnabled {
		slog.Warn("reject pre-checkout", "error", err, "payload", q.InvoicePayload)
		params.OK = false
		params.ErrorMessage = "This offer is no longer available. Please open /premium again."
	}
	if _, err := b.AnswerPreCheckoutQuery(ctx, params); err != nil {
		slog.Error("answer pre-checkout", "error", err)
	}
}

func (h *Handler) HandleSuccessfulPayment(ctx context.Context, b *bot.Bot, update *models.Update) {
	payment := update.Message.SuccessfulPayment
	chatID := update.Message.Chat.ID
	user := middleware.GetUser(ctx)
	if user == nil {
		slog.Error("successful payment without user", "chat_id", chatID, "charge_id", payment.TelegramPaymentChargeID)
		return
	}

	plan, err := planFromPayload(payment.InvoicePayload, payment.Currency, payment.TotalAmount)
	if err != nil {
		slog.Error("parse payment payload", "error", err, "payload", payment.InvoicePayload)
		h.tgLogger.LogError(err, fmt.Sprintf("successful payment from %d", user.TelegramID))
		return
	}

	purchase, err := h.premiumService.Activate(ctx, user.ID, plan, payment.TelegramPaymentChargeID)
	if errors.Is(err, domain.ErrPurchaseRecorded) {
		slog.Warn("duplicate payment update", "charge_id", payment.TelegramPaymentChargeID)
		return
	}
	if err != nil {
		slog.Error("activate premium", "error", err, "user_id", user.ID)
		h.tgLogger.LogError(err, fmt.Sprintf("activate premium for %d", user.TelegramID))
		h.reply(ctx, b, chatID, "❌ Payment received but activation failed. We are on it.")
		return
	}

	h.reply(ctx, b, chatID, fmt.Sprintf("✅ Premium active until *%s*. Enjoy every topic in /categories!", purchase.PremiumUntil.Format("02.01.2006")))
	h.tgLogger.LogPremiumPurchase(user.TelegramID, purchase)
}
