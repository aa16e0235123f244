package telegram

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/mindguide/internal/guide"
)

const (
	placeholderText = "✍️ …"
	emptyReplyText  = "The guide had nothing to add this time. Try rephrasing your message."
	interruptedNote = "\n\n_(reply interrupted)_"
)

// LiveReply renders one guide dispatch into a Telegram message: a placeholder
// is sent on dispatch, edited as the assistant turn grows and finalised when
// the dispatch settles. It implements guide.Observer.
type LiveReply struct {
	ctx      context.Context
	m        Messenger
	chatID   int64
	replyTo  int
	interval time.Duration
	now      func() time.Time
	onSettle func(res *guide.Result, err error)

	messageID  int
	lastEdit   time.Time
	lastText   string
	stopTyping context.CancelFunc
}

func NewLiveReply(ctx context.Context, m Messenger, chatID int64, replyTo int, interval time.Duration) *LiveReply {
	return &LiveReply{
		ctx:      ctx,
		m:        m,
		chatID:   chatID,
		replyTo:  replyTo,
		interval: interval,
		now:      time.Now,
	}
}

// OnSettle registers a hook run after the reply is finalised.
func (r *LiveReply) OnSettle(fn func(res *guide.Result, err error)) *LiveReply {
	r.onSettle = fn
	return r
}

func (r *LiveReply) Dispatched(chatID int64, _ guide.Exchange) {
	r.stopTyping = StartTyping(r.ctx, r.m, chatID)

	params := &bot.SendMessageParams{ChatID: chatID, Text: placeholderText}
	if r.replyTo != 0 {
		params.ReplyParameters = &models.ReplyParameters{MessageID: r.replyTo, AllowSendingWithoutReply: true}
	}
	msg, err := r.m.SendMessage(r.ctx, params)
	if err != nil {
		slog.Warn("send reply placeholder", "chat_id", chatID, "error", err)
		return
	}
	r.messageID = msg.ID
	r.lastEdit = r.now()
}

// Applied edits the placeholder at most once per interval.
func (r *LiveReply) Applied(chatID int64, turn guide.Turn) {
	if r.messageID == 0 || turn.Text == r.lastText {
		return
	}
	if r.now().Sub(r.lastEdit) < r.interval {
		return
	}
	r.edit(r.ctx, turn.Text+" ▌", nil)
	r.lastText = turn.Text
}

func (r *LiveReply) Settled(res *guide.Result, err error) {
	if r.stopTyping != nil {
		r.stopTyping()
	}
	// the dispatch may have ended because ctx was cancelled
	ctx := context.WithoutCancel(r.ctx)

	var sendErr *guide.SendError
	switch {
	case errors.As(err, &sendErr):
		r.finish(ctx, "⚠️ "+sendErr.Message, RetryKeyboard(sendErr.Exchange.UserTurnID))
	case res == nil:
	case res.Outcome == guide.OutcomeInterrupted:
		r.finish(ctx, res.Text+interruptedNote, nil)
	case res.Text == "":
		r.finish(ctx, emptyReplyText, nil)
	default:
		r.finish(ctx, res.Text, nil)
	}

	if r.onSettle != nil {
		r.onSettle(res, err)
	}
}

// finish writes the final text: the first part into the placeholder, the
// rest as new messages. Without a placeholder everything is sent anew.
func (r *LiveReply) finish(ctx context.Context, text string, markup *models.InlineKeyboardMarkup) {
	var rm models.ReplyMarkup
	if markup != nil {
		rm = markup
	}

	if r.messageID == 0 {
		if err := SendLongMessage(ctx, r.m, r.chatID, text, rm); err != nil {
			slog.Error("send reply", "chat_id", r.chatID, "error", err)
		}
		return
	}

	parts := SplitMessage(text, MaxMessageLen)
	if len(parts) == 1 {
		r.edit(ctx, text, rm)
		return
	}
	r.edit(ctx, parts[0], nil)
	for i, part := range parts[1:] {
		var partMarkup models.ReplyMarkup
		if i == len(parts)-2 {
			partMarkup = rm
		}
		if err := SendLongMessage(ctx, r.m, r.chatID, part, partMarkup); err != nil {
			slog.Error("send reply part", "chat_id", r.chatID, "error", err)
			return
		}
	}
}

func (r *LiveReply) edit(ctx context.Context, text string, markup models.ReplyMarkup) {
	if err := EditText(ctx, r.m, r.chatID, r.messageID, text, markup); err != nil {
		slog.Warn("edit reply", "chat_id", r.chatID, "message_id", r.messageID, "error", err)
		return
	}
	r.lastEdit = r.now()
}
