package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/set-night/mindguide/internal/config"
	"github.com/set-night/mindguide/internal/domain"
	"github.com/set-night/mindguide/internal/guide"
)

// TileClient fetches guidance tiles and renders their HTML to plain text.
// It implements guide.TileSource.
type TileClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	cache      *TileCache
}

func NewTileClient(baseURL, token string, cache *TileCache) *TileClient {
	return &TileClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: config.TileRequestTimeout},
		cache:      cache,
	}
}

func (c *TileClient) Tile(ctx context.Context, category string) (*guide.Tile, error) {
	cat, err := domain.ParseCategory(category)
	if err != nil {
		return nil, err
	}
	if cat == domain.CategoryNone {
		return nil, fmt.Errorf("%w: tiles need a category", domain.ErrUnknownCategory)
	}
	if tile := c.cache.Get(category); tile != nil {
		return tile, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+url.PathEscape(category), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch tile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch tile: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var result struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parse tile: %w", err)
	}

	text, err := htmlToText(result.Content)
	if err != nil {
		return nil, fmt.Errorf("render tile: %w", err)
	}

	title := result.Title
	if title == "" {
		title = cat.Title()
	}
	tile := &guide.Tile{Category: category, Title: title, Text: text}
	c.cache.Set(category, tile)
	return tile, nil
}

// htmlToText flattens tile HTML into Telegram-friendly text: one paragraph or
// heading per block, list items prefixed with a bullet.
func htmlToText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}
	doc.Find("script, style").Remove()

	var blocks []string
	doc.Find("h1, h2, h3, p, li").Each(func(_ int, s *goquery.Selection) {
		text := strings.Join(strings.Fields(s.Text()), " ")
		if text == "" {
			return
		}
		if goquery.NodeName(s) == "li" {
			text = "• " + text
		}
		blocks = append(blocks, text)
	})

	if len(blocks) == 0 {
		return strings.Join(strings.Fields(doc.Text()), " "), nil
	}
	return strings.Join(blocks, "\n\n"), nil
}
