// Package gate holds the signal-rate limits: a once-per-day clamp backed by
// a marker file, and an in-memory per-symbol cooldown.
package gate

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// DailyClamp allows at most one emitted signal per UTC day. The marker file
// survives restarts, so a crash after emitting cannot double-send.
type DailyClamp struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// NewDailyClamp stores the marker under dir.
func NewDailyClamp(dir string) *DailyClamp {
	return &DailyClamp{
		path: filepath.Join(dir, "daily_signal_sent.txt"),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (c *DailyClamp) today() string {
	return c.now().UTC().Format("2006-01-02")
}

// EmittedToday reports whether a signal was already emitted this UTC day.
// An unreadable or stale marker counts as not emitted.
func (c *DailyClamp) EmittedToday() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.path)
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(data)) == c.today()
}

// MarkEmitted records today's date in the marker. Written to a temp file and
// renamed so a crash mid-write never leaves a corrupt marker.
func (c *DailyClamp) MarkEmitted() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return err
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(c.today()+"\n"), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, c.path)
}
