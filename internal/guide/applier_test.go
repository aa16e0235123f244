package guide

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestApplierPacesAppliedFragmentsOnly(t *testing.T) {
	conv := newTestStore(nil).Get(1)
	ex := conv.AppendExchange("hi")

	var waits []time.Duration
	a := NewApplier(10 * time.Millisecond)
	a.wait = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}

	body := "data: {\"content\":\"a\"}\ndata: {bad\ndata: {\"content\":\"b\"}\n"
	res, err := a.Apply(context.Background(), conv, ex.AssistantTurnID, NewFrameReader(strings.NewReader(body)), nil)
	require.NoError(t, err)
	require.Equal(t, 2, res.Applied)
	require.Len(t, waits, 2)
	require.Equal(t, 1, res.Frames.Malformed)
	require.Equal(t, 1, conv.Counters().MalformedFrames)
}

func TestApplierDropsIntoSealedTurnWithoutWaiting(t *testing.T) {
	conv := newTestStore(nil).Get(1)
	ex := conv.AppendExchange("hi")
	conv.Seal(ex.AssistantTurnID)

	a := NewApplier(time.Hour)
	a.wait = func(context.Context, time.Duration) error {
		t.Fatal("dropped fragments are not paced")
		return nil
	}

	res, err := a.Apply(context.Background(), conv, ex.AssistantTurnID,
		NewFrameReader(strings.NewReader("data: {\"content\":\"x\"}\ndata: {\"content\":\"y\"}")), nil)
	require.NoError(t, err)
	require.Equal(t, 2, res.Dropped)
	require.Zero(t, res.Applied)
}

func TestNewApplierClampsNegativePacing(t *testing.T) {
	require.Zero(t, NewApplier(-time.Second).pacing)
}
