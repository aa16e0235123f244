package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Recover returns middleware that recovers from panics. onPanic, if set, is
// told about every recovered panic.
func Recover(onPanic func(ctx context.Context, err error)) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				info := describe(update)
				slog.Error("panic recovered in handler",
					"panic", r,
					"type", info.kind,
					"chat_id", info.chatID,
					"stack", string(debug.Stack()),
				)
				if onPanic != nil {
					onPanic(ctx, fmt.Errorf("panic in %s handler: %v", info.kind, r))
				}
			}()
			next(ctx, b, update)
		}
	}
}
