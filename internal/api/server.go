// Package api exposes a small read-only HTTP surface for operating the bot:
// a health probe and a status snapshot of the running pipeline.
package api

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Status is the live state reported by /api/status.
type Status struct {
	Mode          string    `json:"mode"`
	Symbols       []string  `json:"symbols"`
	StartedAt     time.Time `json:"started_at"`
	LastTickAt    time.Time `json:"last_tick_at,omitempty"`
	OpenPositions int       `json:"open_positions"`
	DailyLossEUR  float64   `json:"daily_loss_eur"`
	KillSwitch    bool      `json:"kill_switch"`
}

// StatusFunc returns the current pipeline status.
type StatusFunc func() Status

// Server wraps the HTTP listener.
type Server struct {
	addr   string
	engine *gin.Engine
	srv    *http.Server
	log    zerolog.Logger
}

func NewServer(addr string, status StatusFunc, logsDir string, log zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(cors.Default())

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/api/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, status())
	})
	engine.GET("/api/v1/decisions/today", func(c *gin.Context) {
		day := time.Now().UTC().Format("2006-01-02")
		decisions, err := readDecisions(logsDir, day)
		if err != nil {
			log.Warn().Err(err).Msg("decision log read failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "decision log unreadable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"date": day, "count": len(decisions), "decisions": decisions})
	})

	return &Server{
		addr:   addr,
		engine: engine,
		log:    log,
	}
}

// readDecisions loads one day's decision log. A missing file is an empty day,
// not an error; malformed lines are skipped.
func readDecisions(logsDir, day string) ([]json.RawMessage, error) {
	f, err := os.Open(filepath.Join(logsDir, "decisions", day+"_decisions.jsonl"))
	if err != nil {
		if os.IsNotExist(err) {
			return []json.RawMessage{}, nil
		}
		return nil, err
	}
	defer f.Close()

	decisions := []json.RawMessage{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if !json.Valid(line) {
			continue
		}
		decisions = append(decisions, json.RawMessage(append([]byte(nil), line...)))
	}
	return decisions, scanner.Err()
}

// Start runs the listener in a goroutine and returns immediately.
func (s *Server) Start() {
	s.srv = &http.Server{Addr: s.addr, Handler: s.engine}
	go func() {
		s.log.Info().Str("addr", s.addr).Msg("status server listening")
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error().Err(err).Msg("status server stopped")
		}
	}()
}

// Shutdown drains the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
