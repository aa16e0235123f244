package middleware

import "github.com/go-telegram/bot/models"

// updateInfo is what the middlewares need to know about an update.
type updateInfo struct {
	kind   string
	chatID int64
	from   *models.User
}

func describe(update *models.Update) updateInfo {
	switch {
	case update.Message != nil:
		return updateInfo{kind: "message", chatID: update.Message.Chat.ID, from: update.Message.From}
	case update.CallbackQuery != nil:
		info := updateInfo{kind: "callback_query", from: &update.CallbackQuery.From}
		if msg := update.CallbackQuery.Message.Message; msg != nil {
			info.chatID = msg.Chat.ID
		}
		return info
	case update.PreCheckoutQuery != nil:
		return updateInfo{kind: "pre_checkout_query", from: update.PreCheckoutQuery.From}
	}
	return updateInfo{kind: "unknown"}
}

func (i updateInfo) userID() int64 {
	if i.from == nil {
		return 0
	}
	return i.from.ID
}
