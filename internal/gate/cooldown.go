package gate

import (
	"os"
	"strconv"
	"sync"
	"time"
)

const (
	defaultCooldown = 30 * time.Minute
	cooldownEnv     = "COOLDOWN_MIN"
)

// Cooldown suppresses repeat signals per symbol for a fixed window. State is
// in-memory only; a restart clears it, which is acceptable because the daily
// clamp still bounds total volume.
type Cooldown struct {
	mu     sync.Mutex
	window time.Duration
	last   map[string]time.Time
	now    func() time.Time
}

// NewCooldown uses the given window, with the COOLDOWN_MIN env var taking
// precedence. Zero or negative falls back to 30 minutes.
func NewCooldown(window time.Duration) *Cooldown {
	if env := os.Getenv(cooldownEnv); env != "" {
		if mins, err := strconv.Atoi(env); err == nil && mins > 0 {
			window = time.Duration(mins) * time.Minute
		}
	}
	if window <= 0 {
		window = defaultCooldown
	}
	return &Cooldown{
		window: window,
		last:   make(map[string]time.Time),
		now:    time.Now,
	}
}

// Ready reports whether the symbol is outside its cooldown window.
func (c *Cooldown) Ready(symbol string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	sent, ok := c.last[symbol]
	if !ok {
		return true
	}
	return c.now().Sub(sent) >= c.window
}

// MarkSent starts the symbol's cooldown window from now.
func (c *Cooldown) MarkSent(symbol string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last[symbol] = c.now()
}
