package middleware

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/mindguide/internal/domain"
)

type ctxKey string

const UserKey ctxKey = "user"

// GetUser extracts user from context.
func GetUser(ctx context.Context) *domain.User {
	u, ok := ctx.Value(UserKey).(*domain.User)
	if !ok {
		return nil
	}
	return u
}

// WithUser stores user in ctx.
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

type UserFinder interface {
	FindOrCreate(ctx context.Context, telegramID int64, firstName, username string, isAdmin bool) (*domain.User, bool, error)
	UpdateInfo(ctx context.Context, userID int64, firstName, username string) error
}

// UserLoader returns middleware that loads the sender into context. onRegister
// is called once for every newly created user. A changed name or username is
// written back before the update is handled.
func UserLoader(users UserFinder, cfg interface{ IsAdmin(int64) bool }, onRegister func(*domain.User)) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			from := describe(update).from
			if from == nil {
				next(ctx, b, update)
				return
			}

			user, created, err := users.FindOrCreate(ctx, from.ID, from.FirstName, from.Username, cfg.IsAdmin(from.ID))
			if err != nil {
				slog.Error("load user", "error", err, "telegram_id", from.ID)
			}
			if err == nil && user != nil {
				ctx = WithUser(ctx, user)
				if created && onRegister != nil {
					onRegister(user)
				}
				if !created && (user.FirstName != from.FirstName || user.Username != from.Username) {
					if err := users.UpdateInfo(ctx, user.ID, from.FirstName, from.Username); err != nil {
						slog.Warn("update user info", "error", err, "user_id", user.ID)
					} else {
						user.FirstName = from.FirstName
						user.Username = from.Username
					}
				}
			}

			next(ctx, b, update)
		}
	}
}
