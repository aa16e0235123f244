package handler

import (
	"sync"

	"github.com/go-telegram/bot"
	"github.com/set-night/mindguide/internal/config"
	"github.com/set-night/mindguide/internal/guide"
	"github.com/set-night/mindguide/internal/service"
	"github.com/set-night/mindguide/internal/telegram"
)

// Handler holds all dependencies needed by command and callback handlers.
type Handler struct {
	bot            *bot.Bot
	cfg            *config.Config
	userService    *service.UserService
	premiumService *service.PremiumService
	guide          *guide.Service
	requestLog     *service.RequestLog
	tgLogger       *telegram.TelegramLogger
	botUsername    string

	// in-flight guide dispatches
	dispatches sync.WaitGroup
}

// Deps contains all dependencies required to construct a Handler.
type Deps struct {
	Bot            *bot.Bot
	Cfg            *config.Config
	UserService    *service.UserService
	PremiumService *service.PremiumService
	Guide          *guide.Service
	RequestLog     *service.RequestLog
	TgLogger       *telegram.TelegramLogger
	BotUsername    string
}

// New creates a new Handler from the provided dependencies.
func New(deps Deps) *Handler {
	return &Handler{
		bot:            deps.Bot,
		cfg:            deps.Cfg,
		userService:    deps.UserService,
		premiumService: deps.PremiumService,
		guide:          deps.Guide,
		requestLog:     deps.RequestLog,
		tgLogger:       deps.TgLogger,
		botUsername:    deps.BotUsername,
	}
}

// Wait blocks until every guide dispatch started by the handler has settled.
func (h *Handler) Wait() {
	h.dispatches.Wait()
}
