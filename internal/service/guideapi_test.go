package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/set-night/mindguide/internal/guide"
	"github.com/stretchr/testify/require"
)

func TestGuideClientSendReturnsBodyOn200(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/guide/chat", r.URL.Path)
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		_, _ = io.WriteString(w, "data: {\"content\":\"hi\"}\n")
	}))
	defer srv.Close()

	c := NewGuideClient(srv.URL+"/guide/chat", "secret")
	body, err := c.Send(context.Background(), guide.ChatRequest{Content: "hello"})
	require.NoError(t, err)
	require.Equal(t, "data: {\"content\":\"hi\"}\n", body)

	require.Equal(t, "hello", got["content"])
	require.Equal(t, []any{}, got["chatHistory"])
	_, hasCategory := got["category"]
	require.False(t, hasCategory)
}

func TestGuideClientSendNon200(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{name: "json message", status: http.StatusBadRequest, body: `{"message":"content is required"}`, message: "content is required"},
		{name: "json error", status: http.StatusInternalServerError, body: `{"error":"boom"}`, message: "boom"},
		{name: "busy", status: http.StatusTooManyRequests, body: "slow down", message: "the guide is busy right now, please wait a moment"},
		{name: "created is not success", status: http.StatusCreated, body: "data: {\"content\":\"x\"}", message: "unexpected status 201"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := NewGuideClient(srv.URL, "").Send(context.Background(), guide.ChatRequest{Content: "x"})

			var te *guide.TransportError
			require.ErrorAs(t, err, &te)
			require.Equal(t, tt.status, te.StatusCode)
			require.EqualError(t, te.Err, tt.message)
		})
	}
}

func TestGuideClientSendNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewGuideClient(url, "").Send(context.Background(), guide.ChatRequest{Content: "x"})

	var te *guide.TransportError
	require.ErrorAs(t, err, &te)
	require.Zero(t, te.StatusCode)
}
