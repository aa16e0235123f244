package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/set-night/mindguide/internal/config"
	"github.com/set-night/mindguide/internal/guide"
)

// GuideClient calls the guide chat endpoint. It implements guide.Transport.
type GuideClient struct {
	url        string
	token      string
	httpClient *http.Client
}

func NewGuideClient(url, token string) *GuideClient {
	return &GuideClient{
		url:        url,
		token:      token,
		httpClient: &http.Client{Timeout: config.RequestTimeout},
	}
}

type apiError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Send posts the request and returns the whole response body. Only status 200
// counts as success; everything else is a *guide.TransportError.
func (c *GuideClient) Send(ctx context.Context, chatReq guide.ChatRequest) (string, error) {
	if chatReq.ChatHistory == nil {
		chatReq.ChatHistory = []guide.HistoryEntry{}
	}
	payload, err := json.Marshal(chatReq)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &guide.TransportError{Err: fmt.Errorf("chat request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &guide.TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &guide.TransportError{StatusCode: resp.StatusCode, Err: statusError(resp.StatusCode, body)}
	}
	return string(body), nil
}

// statusError prefers the message of a JSON error body.
func statusError(status int, body []byte) error {
	var e apiError
	if json.Unmarshal(body, &e) == nil {
		if e.Message != "" {
			return errors.New(e.Message)
		}
		if e.Error != "" {
			return errors.New(e.Error)
		}
	}
	switch status {
	case http.StatusTooManyRequests:
		return errors.New("the guide is busy right now, please wait a moment")
	case http.StatusServiceUnavailable:
		return errors.New("the guide is temporarily unavailable")
	}
	return fmt.Errorf("unexpected status %d", status)
}
