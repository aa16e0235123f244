package guide

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"
)

// DefaultPacing is the delay between two applied fragments.
const DefaultPacing = 30 * time.Millisecond

// Applier replays fragments into an assistant placeholder, one at a time.
type Applier struct {
	pacing time.Duration
	wait   func(ctx context.Context, d time.Duration) error
}

func NewApplier(pacing time.Duration) *Applier {
	if pacing < 0 {
		pacing = 0
	}
	return &Applier{pacing: pacing, wait: sleepContext}
}

// ApplyResult summarises one replay.
type ApplyResult struct {
	Applied int
	Dropped int
	Frames  FrameStats
}

// Apply reads fragments from fr in order and appends each to the turn
// identified by assistantID. A fragment whose target is gone or sealed is
// dropped and counted. onApply, if set, observes every grown turn.
func (a *Applier) Apply(ctx context.Context, conv *Conversation, assistantID string, fr *FrameReader, onApply func(Turn)) (res ApplyResult, err error) {
	defer func() {
		res.Frames = fr.Stats()
		conv.addMalformed(res.Frames.Malformed)
	}()

	for {
		frag, nextErr := fr.Next()
		if errors.Is(nextErr, io.EOF) {
			break
		}
		if nextErr != nil {
			return res, nextErr
		}

		turn, ok := conv.AppendFragment(assistantID, frag.Text)
		if !ok {
			res.Dropped++
			slog.Warn("drop fragment without open placeholder",
				"chat_id", conv.ChatID(),
				"turn_id", assistantID,
				"frame", frag.Frame,
			)
			continue
		}
		res.Applied++
		if onApply != nil {
			onApply(turn)
		}

		if a.pacing > 0 {
			if waitErr := a.wait(ctx, a.pacing); waitErr != nil {
				return res, waitErr
			}
		}
	}

	return res, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
