package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/set-night/mindguide/internal/config"
	"github.com/set-night/mindguide/internal/guide"
)

// Server exposes a read-only view of the in-memory guide conversations.
type Server struct {
	guide *guide.Service
	port  int
	now   func() time.Time
}

func New(svc *guide.Service, port int) *Server {
	return &Server{guide: svc, port: port, now: time.Now}
}

func (s *Server) Routes() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())
	engine.GET("/healthz", s.handleHealthz)

	chats := engine.Group("/api/chats/:chatID", chatIDParam())
	chats.GET("/status", s.handleStatus)
	chats.GET("/turns", s.handleTurns)
	return engine
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("status api listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve status api: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown status api: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve status api: %w", err)
	}
	return nil
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"conversations": s.guide.Store().Len(),
		"time":          s.now().UTC(),
	})
}

type statusResponse struct {
	ChatID   int64          `json:"chatId"`
	Status   guide.Status   `json:"status"`
	Counters guide.Counters `json:"counters"`
	Turns    int            `json:"turns"`
}

func (s *Server) handleStatus(c *gin.Context) {
	chatID := c.GetInt64(chatIDKey)
	conv, ok := s.guide.Store().Lookup(chatID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
		return
	}
	c.JSON(http.StatusOK, statusResponse{
		ChatID:   chatID,
		Status:   conv.Status(),
		Counters: conv.Counters(),
		Turns:    len(conv.Turns()),
	})
}

// handleTurns lists the most recent turns, oldest first.
func (s *Server) handleTurns(c *gin.Context) {
	chatID := c.GetInt64(chatIDKey)
	conv, ok := s.guide.Store().Lookup(chatID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
		return
	}

	limit := config.MaxListedTurns
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, config.MaxListedTurns)
	}

	turns := conv.Turns()
	if len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	c.JSON(http.StatusOK, gin.H{"chatId": chatID, "turns": turns})
}
