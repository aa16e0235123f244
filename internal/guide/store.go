package guide

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Conversation is the ordered turn list of one chat plus its request status.
// All mutations go through the conversation mutex.
type Conversation struct {
	mu     sync.RWMutex
	chatID int64
	now    func() time.Time
	newID  func() string

	turns      []Turn
	index      map[string]int
	status     Status
	counters   Counters
	inFlight   int
	lastActive time.Time
}

func newConversation(chatID int64, now func() time.Time, newID func() string) *Conversation {
	return &Conversation{
		chatID:     chatID,
		now:        now,
		newID:      newID,
		index:      make(map[string]int),
		lastActive: now(),
	}
}

func (c *Conversation) ChatID() int64 {
	return c.chatID
}

// AppendExchange appends the user turn and its empty assistant placeholder
// back-to-back and returns the handle binding them.
func (c *Conversation) AppendExchange(text string) Exchange {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	user := Turn{ID: c.newID(), Text: text, IsUser: true, CreatedAt: now}
	assistant := Turn{ID: c.newID(), CreatedAt: now}
	c.appendLocked(user)
	c.appendLocked(assistant)
	c.lastActive = now

	return Exchange{UserTurnID: user.ID, AssistantTurnID: assistant.ID}
}

func (c *Conversation) appendLocked(t Turn) {
	c.index[t.ID] = len(c.turns)
	c.turns = append(c.turns, t)
}

// AppendFragment concatenates text onto the open assistant turn with the given
// id. It returns false when the turn no longer exists, is sealed or is a user turn.
func (c *Conversation) AppendFragment(assistantID, text string) (Turn, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i, ok := c.index[assistantID]
	if !ok || !c.turns[i].Open() {
		c.counters.DroppedFragments++
		return Turn{}, false
	}
	c.turns[i].Text += text
	c.counters.AppliedFragments++
	c.lastActive = c.now()
	return c.turns[i], true
}

// Seal closes an assistant turn for further fragments.
func (c *Conversation) Seal(assistantID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i, ok := c.index[assistantID]; ok && !c.turns[i].IsUser {
		c.turns[i].Sealed = true
	}
}

// MarkFailed flags a user turn whose paired request failed. Assistant turns are
// never flagged.
func (c *Conversation) MarkFailed(userID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	i, ok := c.index[userID]
	if !ok || !c.turns[i].IsUser {
		return false
	}
	c.turns[i].IsFailed = true
	return true
}

// Clear drops every turn. Status and counters are kept.
func (c *Conversation) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.turns = nil
	c.index = make(map[string]int)
	c.lastActive = c.now()
}

// Turn returns a copy of the turn with the given id.
func (c *Conversation) Turn(id string) (Turn, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.index[id]
	if !ok {
		return Turn{}, false
	}
	return c.turns[i], true
}

// Turns returns a copy of the ordered turn list.
func (c *Conversation) Turns() []Turn {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// History maps the current turns to chat history entries, skipping turns
// without text.
func (c *Conversation) History() []HistoryEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	history := make([]HistoryEntry, 0, len(c.turns))
	for _, t := range c.turns {
		if t.Text == "" {
			continue
		}
		history = append(history, HistoryEntry{Role: t.Role(), Content: t.Text})
	}
	return history
}

func (c *Conversation) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

func (c *Conversation) Counters() Counters {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.counters
}

func (c *Conversation) markDispatched() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.status.IsSendingMessage = true
	c.status.IsStreaming = true
	c.counters.Requests++
	c.inFlight++
}

func (c *Conversation) markSettled(failed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.status.IsSendingMessage = false
	c.status.IsStreaming = false
	if failed {
		c.counters.FailedRequests++
	}
	if c.inFlight > 0 {
		c.inFlight--
	}
	c.lastActive = c.now()
}

func (c *Conversation) setLoading(loading bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status.IsLoading = loading
}

func (c *Conversation) addMalformed(n int) {
	if n == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters.MalformedFrames += n
}

func (c *Conversation) idleSince(cutoff time.Time) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.inFlight == 0 && !c.status.IsLoading && c.lastActive.Before(cutoff)
}

// Store holds the in-memory conversations of the process, keyed by chat id.
type Store struct {
	mu    sync.RWMutex
	convs map[int64]*Conversation
	now   func() time.Time
	newID func() string
}

func NewStore() *Store {
	return &Store{
		convs: make(map[int64]*Conversation),
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Get returns the conversation for chatID, creating it on first use.
func (s *Store) Get(chatID int64) *Conversation {
	s.mu.RLock()
	conv, ok := s.convs[chatID]
	s.mu.RUnlock()
	if ok {
		return conv
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if conv, ok := s.convs[chatID]; ok {
		return conv
	}
	conv = newConversation(chatID, s.now, s.newID)
	s.convs[chatID] = conv
	return conv
}

// acquire returns the conversation for chatID, creating it on first use, and
// applies mark while the store lock is held so EvictIdle cannot remove it
// before the mark is visible.
func (s *Store) acquire(chatID int64, mark func(*Conversation)) *Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.convs[chatID]
	if !ok {
		conv = newConversation(chatID, s.now, s.newID)
		s.convs[chatID] = conv
	}
	mark(conv)
	return conv
}

// Lookup returns the conversation for chatID without creating it.
func (s *Store) Lookup(chatID int64) (*Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.convs[chatID]
	return conv, ok
}

// EvictIdle removes conversations without activity for longer than maxIdle.
// Conversations with a request or tile fetch in flight are kept.
func (s *Store) EvictIdle(maxIdle time.Duration) int {
	if maxIdle <= 0 {
		return 0
	}
	cutoff := s.now().Add(-maxIdle)

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, conv := range s.convs {
		if conv.idleSince(cutoff) {
			delete(s.convs, id)
			evicted++
		}
	}
	return evicted
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.convs)
}
