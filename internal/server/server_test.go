package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/set-night/mindguide/internal/guide"
	"github.com/stretchr/testify/require"
)

type stubTransport string

func (s stubTransport) Send(context.Context, guide.ChatRequest) (string, error) {
	return string(s), nil
}

func newTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	svc := guide.NewService(guide.Deps{Transport: stubTransport("data: {\"content\":\"hello\"}")})
	for _, text := range []string{"one", "two"} {
		_, err := svc.Send(context.Background(), 42, text, "", nil)
		require.NoError(t, err)
	}
	s := New(svc, 0)
	return s, s.Routes()
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	_, h := newTestServer(t)

	rec := get(h, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "ok", body["status"])
	require.Equal(t, float64(1), body["conversations"])
}

func TestChatStatus(t *testing.T) {
	_, h := newTestServer(t)

	rec := get(h, "/api/chats/42/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var body statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, int64(42), body.ChatID)
	require.True(t, body.Status.Idle())
	require.Equal(t, 2, body.Counters.Requests)
	require.Equal(t, 4, body.Turns)

	require.Equal(t, http.StatusNotFound, get(h, "/api/chats/7/status").Code)
	require.Equal(t, http.StatusBadRequest, get(h, "/api/chats/abc/status").Code)
}

func TestChatTurns(t *testing.T) {
	_, h := newTestServer(t)

	rec := get(h, "/api/chats/42/turns?limit=2")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Turns []guide.Turn `json:"turns"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Turns, 2)
	require.Equal(t, "two", body.Turns[0].Text)
	require.Equal(t, "hello", body.Turns[1].Text)

	require.Equal(t, http.StatusBadRequest, get(h, "/api/chats/42/turns?limit=0").Code)
}
