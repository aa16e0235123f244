package middleware

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"golang.org/x/time/rate"
)

type chatLimiter struct {
	limiter  *rate.Limiter
	premium  bool
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per chat. Premium users get a larger
// per-minute budget.
type RateLimiter struct {
	mu      sync.Mutex
	chats   map[int64]*chatLimiter
	regular int
	premium int
	now     func() time.Time
}

func NewRateLimiter(regularPerMinute, premiumPerMinute int) *RateLimiter {
	return &RateLimiter{
		chats:   make(map[int64]*chatLimiter),
		regular: regularPerMinute,
		premium: premiumPerMinute,
		now:     time.Now,
	}
}

func (l *RateLimiter) Allow(chatID int64, premium bool) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	c, ok := l.chats[chatID]
	if !ok || c.premium != premium {
		perMinute := l.regular
		if premium {
			perMinute = l.premium
		}
		c = &chatLimiter{
			limiter: rate.NewLimiter(rate.Limit(float64(perMinute)/60), perMinute),
			premium: premium,
		}
		l.chats[chatID] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

// Prune drops buckets idle for longer than maxIdle.
func (l *RateLimiter) Prune(maxIdle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-maxIdle)
	pruned := 0
	for id, c := range l.chats {
		if c.lastSeen.Before(cutoff) {
			delete(l.chats, id)
			pruned++
		}
	}
	return pruned
}

// RateLimit returns middleware that enforces per-minute rate limits on
// messages. Callbacks, pre-checkout queries and payment confirmations always
// pass. It runs after UserLoader so the premium budget applies.
func RateLimit(l *RateLimiter, notify func(ctx context.Context, b *bot.Bot, chatID int64)) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			if !limited(update) {
				next(ctx, b, update)
				return
			}

			chatID := update.Message.Chat.ID
			premium := false
			if user := GetUser(ctx); user != nil {
				premium = user.IsPremium()
			}

			if !l.Allow(chatID, premium) {
				slog.Debug("rate limited", "chat_id", chatID, "premium", premium)
				if notify != nil {
					notify(ctx, b, chatID)
				}
				return
			}

			next(ctx, b, update)
		}
	}
}

// limited reports whether update spends from the chat budget. A successful
// payment arrives as a message but has already been charged.
func limited(update *models.Update) bool {
	return update.Message != nil && update.Message.SuccessfulPayment == nil
}
