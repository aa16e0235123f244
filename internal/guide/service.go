package guide

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// ChatRequest is the body of one guide chat call.
type ChatRequest struct {
	Content     string         `json:"content"`
	ChatHistory []HistoryEntry `json:"chatHistory"`
	Category    string         `json:"category,omitempty"`
}

// Transport performs the chat call and returns the whole response body.
type Transport interface {
	Send(ctx context.Context, req ChatRequest) (string, error)
}

// Tile is static guidance content for one category.
type Tile struct {
	Category string `json:"category"`
	Title    string `json:"title"`
	Text     string `json:"text"`
}

// TileSource fetches guidance tiles.
type TileSource interface {
	Tile(ctx context.Context, category string) (*Tile, error)
}

// Observer follows a dispatch. Calls happen on the dispatching goroutine,
// in order: Dispatched, Applied for every grown turn, Settled.
type Observer interface {
	Dispatched(chatID int64, ex Exchange)
	Applied(chatID int64, turn Turn)
	Settled(res *Result, err error)
}

type Outcome string

const (
	OutcomeCompleted   Outcome = "completed"
	OutcomeFailed      Outcome = "failed"
	OutcomeInterrupted Outcome = "interrupted"
)

// Result describes a settled dispatch.
type Result struct {
	ChatID    int64
	Exchange  Exchange
	Category  string
	Text      string
	Outcome   Outcome
	Applied   int
	Dropped   int
	Frames    FrameStats
	StartedAt time.Time
	Duration  time.Duration
}

// Service runs guide dispatches against an injected store and transport.
type Service struct {
	store     *Store
	transport Transport
	tiles     TileSource
	applier   *Applier
	now       func() time.Time
}

type Deps struct {
	Store     *Store
	Transport Transport
	Tiles     TileSource
	Pacing    time.Duration
}

func NewService(deps Deps) *Service {
	store := deps.Store
	if store == nil {
		store = NewStore()
	}
	return &Service{
		store:     store,
		transport: deps.Transport,
		tiles:     deps.Tiles,
		applier:   NewApplier(deps.Pacing),
		now:       time.Now,
	}
}

func (s *Service) Store() *Store {
	return s.store
}

// Send dispatches text for chatID. The user turn and an empty assistant
// placeholder are appended and the status raised before the transport is
// called. A transport failure marks the user turn failed and is returned as
// *SendError; the placeholder stays in place.
func (s *Service) Send(ctx context.Context, chatID int64, text, category string, obs Observer) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}

	if s.transport == nil {
		return nil, ErrNoTransport
	}

	conv := s.store.acquire(chatID, (*Conversation).markDispatched)
	history := conv.History()
	ex := conv.AppendExchange(text)

	res := &Result{
		ChatID:    chatID,
		Exchange:  ex,
		Category:  category,
		StartedAt: s.now(),
	}
	if obs != nil {
		obs.Dispatched(chatID, ex)
	}

	var err error
	defer func() {
		conv.markSettled(res.Outcome == OutcomeFailed)
		res.Duration = s.now().Sub(res.StartedAt)
		if obs != nil {
			obs.Settled(res, err)
		}
	}()

	body, err := s.transport.Send(ctx, ChatRequest{
		Content:     text,
		ChatHistory: history,
		Category:    category,
	})
	if err != nil {
		conv.MarkFailed(ex.UserTurnID)
		res.Outcome = OutcomeFailed
		slog.Error("guide transport failed", "chat_id", chatID, "error", err)
		err = newSendError(ex, err)
		return res, err
	}

	var onApply func(Turn)
	if obs != nil {
		onApply = func(t Turn) { obs.Applied(chatID, t) }
	}

	applied, applyErr := s.applier.Apply(ctx, conv, ex.AssistantTurnID, NewFrameReader(strings.NewReader(body)), onApply)
	conv.Seal(ex.AssistantTurnID)
	res.Applied = applied.Applied
	res.Dropped = applied.Dropped
	res.Frames = applied.Frames
	if t, ok := conv.Turn(ex.AssistantTurnID); ok {
		res.Text = t.Text
	}

	if applyErr != nil {
		res.Outcome = OutcomeInterrupted
		err = fmt.Errorf("apply fragments: %w", applyErr)
		return res, err
	}

	res.Outcome = OutcomeCompleted
	if res.Dropped > 0 || res.Frames.Malformed > 0 {
		slog.Warn("guide stream anomalies",
			"chat_id", chatID,
			"dropped", res.Dropped,
			"malformed", res.Frames.Malformed,
		)
	}
	return res, nil
}

// Retry re-dispatches the text of a failed user turn as a new exchange.
// The failed turn keeps its flag.
func (s *Service) Retry(ctx context.Context, chatID int64, userTurnID, category string, obs Observer) (*Result, error) {
	conv, ok := s.store.Lookup(chatID)
	if !ok {
		return nil, ErrTurnNotFound
	}
	turn, ok := conv.Turn(userTurnID)
	if !ok {
		return nil, ErrTurnNotFound
	}
	if !turn.IsUser || !turn.IsFailed {
		return nil, ErrNotRetryable
	}
	return s.Send(ctx, chatID, turn.Text, category, obs)
}

// Clear drops every turn of chatID.
func (s *Service) Clear(chatID int64) {
	if conv, ok := s.store.Lookup(chatID); ok {
		conv.Clear()
	}
}

func (s *Service) Turns(chatID int64) []Turn {
	conv, ok := s.store.Lookup(chatID)
	if !ok {
		return []Turn{}
	}
	return conv.Turns()
}

func (s *Service) Status(chatID int64) Status {
	conv, ok := s.store.Lookup(chatID)
	if !ok {
		return Status{}
	}
	return conv.Status()
}

func (s *Service) Counters(chatID int64) Counters {
	conv, ok := s.store.Lookup(chatID)
	if !ok {
		return Counters{}
	}
	return conv.Counters()
}

// LoadTile fetches the tile for category while the chat reports IsLoading.
func (s *Service) LoadTile(ctx context.Context, chatID int64, category string) (*Tile, error) {
	if s.tiles == nil {
		return nil, ErrNoTileSource
	}
	conv := s.store.acquire(chatID, func(c *Conversation) { c.setLoading(true) })
	defer conv.setLoading(false)

	tile, err := s.tiles.Tile(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("load tile %s: %w", category, err)
	}
	return tile, nil
}

// EvictIdle drops conversations idle for longer than maxIdle.
func (s *Service) EvictIdle(maxIdle time.Duration) int {
	return s.store.EvictIdle(maxIdle)
}
