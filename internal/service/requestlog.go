package service

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/set-night/mindguide/internal/domain"
	"github.com/set-night/mindguide/internal/guide"
	"github.com/set-night/mindguide/internal/repository"
)

// RequestLog journals settled guide dispatches.
type RequestLog struct {
	queries *repository.Queries
}

func NewRequestLog(queries *repository.Queries) *RequestLog {
	return &RequestLog{queries: queries}
}

// Record journals a settled dispatch and returns the stored record.
func (l *RequestLog) Record(ctx context.Context, userID int64, res *guide.Result, sendErr error) (domain.GuideRequest, error) {
	req := newGuideRequest(userID, res, sendErr)
	if err := l.queries.CreateGuideRequest(ctx, guideRequestParams(req)); err != nil {
		return req, fmt.Errorf("record guide request: %w", err)
	}
	return req, nil
}

func (l *RequestLog) Stats(ctx context.Context, userID int64) (domain.RequestStats, error) {
	row, err := l.queries.GetGuideRequestStats(ctx, userID)
	if err != nil {
		return domain.RequestStats{}, fmt.Errorf("get request stats: %w", err)
	}
	return domain.RequestStats{
		Total:     int(row.Total),
		Failed:    int(row.Failed),
		Dropped:   int(row.Dropped),
		Malformed: int(row.Malformed),
	}, nil
}

func newGuideRequest(userID int64, res *guide.Result, sendErr error) domain.GuideRequest {
	req := domain.GuideRequest{
		ID:              uuid.New(),
		UserID:          userID,
		ChatID:          res.ChatID,
		UserTurnID:      res.Exchange.UserTurnID,
		AssistantTurnID: res.Exchange.AssistantTurnID,
		Category:        domain.Category(res.Category),
		Outcome:         string(res.Outcome),
		Fragments:       res.Applied,
		Dropped:         res.Dropped,
		Malformed:       res.Frames.Malformed,
		SentinelSeen:    res.Frames.Done,
		ResponseChars:   utf8.RuneCountInString(res.Text),
		Duration:        res.Duration,
		CreatedAt:       res.StartedAt,
	}
	if sendErr != nil {
		req.Error = sendErr.Error()
	}
	return req
}

func guideRequestParams(r domain.GuideRequest) repository.CreateGuideRequestParams {
	return repository.CreateGuideRequestParams{
		ID:              r.ID,
		UserID:          r.UserID,
		ChatID:          r.ChatID,
		UserTurnID:      r.UserTurnID,
		AssistantTurnID: r.AssistantTurnID,
		Category:        string(r.Category),
		Outcome:         r.Outcome,
		Fragments:       int32(r.Fragments),
		Dropped:         int32(r.Dropped),
		Malformed:       int32(r.Malformed),
		SentinelSeen:    r.SentinelSeen,
		ResponseChars:   int32(r.ResponseChars),
		DurationMs:      r.Duration.Milliseconds(),
		Error:           r.Error,
	}
}
