package telegram

import (
	"strings"

	"github.com/go-telegram/bot/models"
	"github.com/set-night/mindguide/internal/domain"
)

// Callback data prefixes.
const (
	CallbackCategory = "cat_"
	CallbackRetry    = "retry_"
	CallbackPremium  = "premium_"
	CallbackNone     = "cat_none"
)

// InlineButton creates a single inline keyboard button.
func InlineButton(text, callbackData string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{
		Text:         text,
		CallbackData: callbackData,
	}
}

// InlineKeyboard creates an inline keyboard from rows of buttons.
func InlineKeyboard(rows ...[]models.InlineKeyboardButton) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: rows,
	}
}

// ButtonRow creates a row of inline buttons.
func ButtonRow(buttons ...models.InlineKeyboardButton) []models.InlineKeyboardButton {
	return buttons
}

// CategoryKeyboard lists the guidance tiles two per row. The selected one is
// ticked and premium ones carry a star for users without a subscription.
func CategoryKeyboard(selected domain.Category, premium bool) *models.InlineKeyboardMarkup {
	var rows [][]models.InlineKeyboardButton
	var row []models.InlineKeyboardButton
	for _, c := range domain.Categories {
		label := c.Title()
		if c == selected {
			label = "✅ " + label
		} else if c.Premium() && !premium {
			label += " ⭐"
		}
		row = append(row, InlineButton(label, CallbackCategory+string(c)))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, ButtonRow(InlineButton("General guidance", CallbackNone)))
	return InlineKeyboard(rows...)
}

// RetryKeyboard offers a retry of the failed user turn.
func RetryKeyboard(userTurnID string) *models.InlineKeyboardMarkup {
	return InlineKeyboard(ButtonRow(InlineButton("🔄 Retry", CallbackRetry+userTurnID)))
}

// TrimCallback returns data without prefix and whether the prefix matched.
func TrimCallback(data, prefix string) (string, bool) {
	if !strings.HasPrefix(data, prefix) {
		return "", false
	}
	return strings.TrimPrefix(data, prefix), true
}
