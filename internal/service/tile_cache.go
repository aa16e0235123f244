package service

import (
	"sync"
	"time"

	"github.com/set-night/mindguide/internal/guide"
)

type cachedTile struct {
	tile     *guide.Tile
	cachedAt time.Time
}

type TileCache struct {
	mu    sync.RWMutex
	tiles map[string]cachedTile
	ttl   time.Duration
	now   func() time.Time
}

func NewTileCache(ttl time.Duration) *TileCache {
	return &TileCache{
		tiles: make(map[string]cachedTile),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (c *TileCache) Get(category string) *guide.Tile {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.tiles[category]
	if !ok || c.now().Sub(entry.cachedAt) > c.ttl {
		return nil
	}
	return entry.tile
}

func (c *TileCache) Set(category string, tile *guide.Tile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tiles[category] = cachedTile{tile: tile, cachedAt: c.now()}
}
