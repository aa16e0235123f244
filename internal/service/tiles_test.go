package service

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/set-night/mindguide/internal/domain"
	"github.com/set-night/mindguide/internal/guide"
	"github.com/stretchr/testify/require"
)

func TestTileClientRendersAndCaches(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		require.Equal(t, "/guide/tiles/love", r.URL.Path)
		_, _ = io.WriteString(w, `{"title":"Love","content":"<h2>Start small</h2><p>Listen  first.</p><ul><li>Ask</li><li>Reflect</li></ul><script>x()</script>"}`)
	}))
	defer srv.Close()

	c := NewTileClient(srv.URL+"/guide/tiles/", "", NewTileCache(time.Hour))

	tile, err := c.Tile(context.Background(), "love")
	require.NoError(t, err)
	require.Equal(t, "Love", tile.Title)
	require.Equal(t, "Start small\n\nListen first.\n\n• Ask\n\n• Reflect", tile.Text)

	_, err = c.Tile(context.Background(), "love")
	require.NoError(t, err)
	require.Equal(t, int32(1), hits.Load())
}

func TestTileClientRejectsUnknownCategory(t *testing.T) {
	c := NewTileClient("http://127.0.0.1:1", "", NewTileCache(time.Hour))

	_, err := c.Tile(context.Background(), "astrology")
	require.ErrorIs(t, err, domain.ErrUnknownCategory)
	_, err = c.Tile(context.Background(), "")
	require.ErrorIs(t, err, domain.ErrUnknownCategory)
}

func TestTileClientFallsBackToCategoryTitle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"content":"plain words"}`)
	}))
	defer srv.Close()

	tile, err := NewTileClient(srv.URL, "", NewTileCache(time.Hour)).Tile(context.Background(), "career")
	require.NoError(t, err)
	require.Equal(t, domain.CategoryCareer.Title(), tile.Title)
	require.Equal(t, "plain words", tile.Text)
}

func TestTileCacheExpires(t *testing.T) {
	now := time.Now()
	c := NewTileCache(time.Minute)
	c.now = func() time.Time { return now }

	c.Set("love", nil)
	require.Nil(t, c.Get("love"))

	c.Set("career", &guide.Tile{Category: "career", Title: "Career"})
	require.NotNil(t, c.Get("career"))
	now = now.Add(2 * time.Minute)
	require.Nil(t, c.Get("career"))
}
