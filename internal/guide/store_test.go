package guide

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestStore(now *time.Time) *Store {
	s := NewStore()
	seq := 0
	s.newID = func() string {
		seq++
		return fmt.Sprintf("t%d", seq)
	}
	if now != nil {
		s.now = func() time.Time { return *now }
	}
	return s
}

func TestConversationAppendExchange(t *testing.T) {
	conv := newTestStore(nil).Get(1)

	ex := conv.AppendExchange("hi")

	turns := conv.Turns()
	require.Len(t, turns, 2)
	require.Equal(t, ex.UserTurnID, turns[0].ID)
	require.True(t, turns[0].IsUser)
	require.Equal(t, "hi", turns[0].Text)
	require.Equal(t, ex.AssistantTurnID, turns[1].ID)
	require.False(t, turns[1].IsUser)
	require.Empty(t, turns[1].Text)
	require.True(t, turns[1].Open())
}

func TestConversationAppendFragment(t *testing.T) {
	conv := newTestStore(nil).Get(1)
	ex := conv.AppendExchange("hi")

	turn, ok := conv.AppendFragment(ex.AssistantTurnID, "Hel")
	require.True(t, ok)
	require.Equal(t, "Hel", turn.Text)
	turn, ok = conv.AppendFragment(ex.AssistantTurnID, "lo")
	require.True(t, ok)
	require.Equal(t, "Hello", turn.Text)

	_, ok = conv.AppendFragment(ex.UserTurnID, "x")
	require.False(t, ok, "user turns never receive fragments")

	conv.Seal(ex.AssistantTurnID)
	_, ok = conv.AppendFragment(ex.AssistantTurnID, "!")
	require.False(t, ok, "sealed turns never receive fragments")

	_, ok = conv.AppendFragment("missing", "x")
	require.False(t, ok)

	got, _ := conv.Turn(ex.AssistantTurnID)
	require.Equal(t, "Hello", got.Text)
	require.Equal(t, 3, conv.Counters().DroppedFragments)
	require.Equal(t, 2, conv.Counters().AppliedFragments)
}

func TestConversationMarkFailedOnlyUserTurns(t *testing.T) {
	conv := newTestStore(nil).Get(1)
	ex := conv.AppendExchange("hi")

	require.False(t, conv.MarkFailed(ex.AssistantTurnID))
	require.True(t, conv.MarkFailed(ex.UserTurnID))

	turns := conv.Turns()
	require.True(t, turns[0].IsFailed)
	require.False(t, turns[1].IsFailed)
}

func TestConversationHistorySkipsEmptyTurns(t *testing.T) {
	conv := newTestStore(nil).Get(1)
	first := conv.AppendExchange("one")
	conv.AppendFragment(first.AssistantTurnID, "reply")
	conv.AppendExchange("two")

	require.Equal(t, []HistoryEntry{
		{Role: RoleUser, Content: "one"},
		{Role: RoleAssistant, Content: "reply"},
		{Role: RoleUser, Content: "two"},
	}, conv.History())
}

func TestConversationClearDropsLateFragments(t *testing.T) {
	conv := newTestStore(nil).Get(1)
	ex := conv.AppendExchange("hi")

	conv.Clear()

	require.Empty(t, conv.Turns())
	_, ok := conv.AppendFragment(ex.AssistantTurnID, "late")
	require.False(t, ok)
}

func TestConversationTurnsReturnsCopy(t *testing.T) {
	conv := newTestStore(nil).Get(1)
	conv.AppendExchange("hi")

	turns := conv.Turns()
	turns[0].Text = "mutated"

	require.Equal(t, "hi", conv.Turns()[0].Text)
}

func TestStoreEvictIdle(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := newTestStore(&now)

	s.Get(1)
	busy := s.Get(2)
	busy.markDispatched()
	fresh := s.Get(3)

	now = now.Add(2 * time.Hour)
	fresh.AppendExchange("still here")

	evicted := s.EvictIdle(time.Hour)

	require.Equal(t, 1, evicted)
	_, ok := s.Lookup(1)
	require.False(t, ok)
	_, ok = s.Lookup(2)
	require.True(t, ok, "in-flight conversations are kept")
	_, ok = s.Lookup(3)
	require.True(t, ok)

	require.Zero(t, s.EvictIdle(0))
}

func TestStoreAcquireMarksBeforeEviction(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := newTestStore(&now)
	stale := s.Get(1)

	now = now.Add(48 * time.Hour)
	conv := s.acquire(1, (*Conversation).markDispatched)

	require.Same(t, stale, conv)
	require.Zero(t, s.EvictIdle(time.Hour), "a dispatched conversation survives eviction")
	got, ok := s.Lookup(1)
	require.True(t, ok)
	require.Same(t, conv, got)

	conv.markSettled(false)
	now = now.Add(2 * time.Hour)
	require.Equal(t, 1, s.EvictIdle(time.Hour))
}
