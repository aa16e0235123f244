package main

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	mindguideroot "github.com/set-night/mindguide"
	"github.com/set-night/mindguide/internal/config"
	"github.com/set-night/mindguide/internal/domain"
	"github.com/set-night/mindguide/internal/guide"
	"github.com/set-night/mindguide/internal/handler"
	"github.com/set-night/mindguide/internal/middleware"
	"github.com/set-night/mindguide/internal/repository"
	"github.com/set-night/mindguide/internal/server"
	"github.com/set-night/mindguide/internal/service"
	"github.com/set-night/mindguide/internal/telegram"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)
	slog.Info("config loaded",
		"guide_api", cfg.GuideAPIURL,
		"stars_enabled", cfg.StarsEnabled,
		"status_api", cfg.StatusAPIEnabled,
		"admins", cfg.AdminIDsString(),
	)

	// Setup context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Run migrations
	migrationsFS, err := fs.Sub(mindguideroot.MigrationsFS, "migrations")
	if err != nil {
		slog.Error("failed to load embedded migrations", "error", err)
		os.Exit(1)
	}
	if err := repository.RunMigrations(cfg.DatabaseURL, migrationsFS); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	queries := repository.New(pool)

	// Initialize services
	userService := service.NewUserService(queries)
	premiumService := service.NewPremiumService(pool, queries)
	requestLog := service.NewRequestLog(queries)
	guideService := guide.NewService(guide.Deps{
		Store:     guide.NewStore(),
		Transport: service.NewGuideClient(cfg.ChatURL(), cfg.GuideAPIToken),
		Tiles:     service.NewTileClient(cfg.TilesURL(), cfg.GuideAPIToken, service.NewTileCache(cfg.TileCacheTTL)),
		Pacing:    cfg.GuidePacing,
	})
	limiter := middleware.NewRateLimiter(cfg.RateLimitRegular, cfg.RateLimitPremium)

	// Handler and logger pointers for use in closures set up before the bot exists
	var h *handler.Handler
	var tgLogger *telegram.TelegramLogger

	opts := []bot.Option{
		bot.WithMiddlewares(
			middleware.Recover(func(_ context.Context, err error) {
				if tgLogger != nil {
					tgLogger.LogError(err, "bot handler")
				}
			}),
			middleware.Logging(),
			middleware.UserLoader(userService, cfg, func(u *domain.User) {
				if tgLogger != nil {
					tgLogger.LogRegistration(u)
				}
			}),
			middleware.RateLimit(limiter, func(ctx context.Context, b *bot.Bot, chatID int64) {
				b.SendMessage(ctx, &bot.SendMessageParams{
					ChatID: chatID,
					Text:   "⏳ Too many messages. Please take a breath and try again in a moment.",
				})
			}),
		),
		bot.WithDefaultHandler(func(ctx context.Context, b *bot.Bot, update *models.Update) {
			if h == nil {
				return
			}
			h.HandleDefault(ctx, b, update)
		}),
	}
	b, err := bot.New(cfg.BotToken, opts...)
	if err != nil {
		slog.Error("failed to create bot", "error", err)
		os.Exit(1)
	}

	// Get bot info
	me, err := b.GetMe(ctx)
	if err != nil {
		slog.Error("failed to get bot info", "error", err)
		os.Exit(1)
	}
	slog.Info("bot info retrieved", "id", me.ID, "username", me.Username)

	if cfg.DropPendingUpdates {
		if _, err := b.DeleteWebhook(ctx, &bot.DeleteWebhookParams{DropPendingUpdates: true}); err != nil {
			slog.Warn("failed to drop pending updates", "error", err)
		}
	}

	tgLogger = telegram.NewTelegramLogger(b, cfg)

	h = handler.New(handler.Deps{
		Bot:            b,
		Cfg:            cfg,
		UserService:    userService,
		PremiumService: premiumService,
		Guide:          guideService,
		RequestLog:     requestLog,
		TgLogger:       tgLogger,
		BotUsername:    me.Username,
	})
	h.Register()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting bot", "username", me.Username, "id", me.ID)
		b.Start(gctx)
		return nil
	})

	if cfg.StatusAPIEnabled {
		g.Go(func() error {
			return server.New(guideService, cfg.Port).Run(gctx)
		})
	}

	// Idle conversation and rate limiter eviction
	g.Go(func() error {
		ticker := time.NewTicker(config.EvictionInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if n := guideService.EvictIdle(cfg.GuideIdleTTL); n > 0 {
					slog.Info("evicted idle conversations", "count", n)
				}
				limiter.Prune(config.RateLimiterIdle)
			}
		}
	})

	if err := g.Wait(); err != nil {
		slog.Error("shutting down", "error", err)
	}

	// Let dispatches interrupted by the shutdown settle and journal
	h.Wait()
	slog.Info("bot stopped gracefully")
}
