package risk

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// dailyLossEnv overrides the tracked value, mainly for tests and manual
// intervention. A loss is negative (e.g. "-30").
const dailyLossEnv = "DAILY_LOSS_EUR"

// DailyLoss tracks the cumulative realized PnL (EUR) for the current UTC day,
// persisted to a small JSON file so restarts within the same day keep the
// kill switch armed.
type DailyLoss struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

type dailyLossState struct {
	Date string  `json:"date"` // UTC calendar date, 2006-01-02
	PnL  float64 `json:"pnl_eur"`
}

// NewDailyLoss creates a tracker persisting under dir (usually the logs dir).
func NewDailyLoss(dir string) *DailyLoss {
	return &DailyLoss{
		path: filepath.Join(dir, "daily_loss.json"),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Current returns today's cumulative PnL in EUR. The DAILY_LOSS_EUR
// environment variable, when set, takes precedence over the file.
func (d *DailyLoss) Current() float64 {
	if v := os.Getenv(dailyLossEnv); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	st, err := d.read()
	if err != nil || st.Date != d.today() {
		return 0
	}
	return st.PnL
}

// Add records a realized PnL delta for today (read-modify-write under the
// lock; a state from a previous day is reset first).
func (d *DailyLoss) Add(pnl float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	st, err := d.read()
	if err != nil || st.Date != d.today() {
		st = dailyLossState{Date: d.today()}
	}
	st.PnL += pnl
	return d.write(st)
}

func (d *DailyLoss) today() string {
	return d.now().Format("2006-01-02")
}

func (d *DailyLoss) read() (dailyLossState, error) {
	var st dailyLossState
	data, err := os.ReadFile(d.path)
	if err != nil {
		return st, err
	}
	err = json.Unmarshal(data, &st)
	return st, err
}

func (d *DailyLoss) write(st dailyLossState) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(d.path), 0o755); err != nil {
		return err
	}
	// Write-then-rename so concurrent readers never see a partial state.
	tmp := d.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, d.path)
}
