package bot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"spot-trading-bot/internal/binance"
	"spot-trading-bot/internal/gate"
	"spot-trading-bot/internal/journal"
	"spot-trading-bot/internal/logging"
	"spot-trading-bot/internal/market"
	"spot-trading-bot/internal/risk"
)

type deadSource struct{}

func (deadSource) GetKlines(symbol, interval string, limit int) ([]binance.Kline, error) {
	return nil, errors.New("exchange unavailable")
}

func newTestBot(t *testing.T) (*Bot, string) {
	t.Helper()
	t.Setenv("LOGS_DIR", "")
	t.Setenv("COOLDOWN_MIN", "")
	dir := t.TempDir()

	return &Bot{
		Symbols:  []string{"BTCUSDT"},
		Snapshot: market.NewBuilder(deadSource{}, logging.Nop()),
		Risk:     risk.DefaultConfig(),
		Journal:  journal.New(dir, logging.Nop()),
		Clamp:    gate.NewDailyClamp(dir),
		Cooldown: gate.NewCooldown(30 * time.Minute),
		Log:      logging.Nop(),
	}, dir
}

func TestRunTickNoDataLogsNoProposal(t *testing.T) {
	b, dir := newTestBot(t)

	b.RunTick(context.Background())

	day := time.Now().UTC().Format("2006-01-02")
	data, err := os.ReadFile(filepath.Join(dir, "decisions", day+"_decisions.jsonl"))
	if err != nil {
		t.Fatalf("decisions file missing: %v", err)
	}
	if !strings.Contains(string(data), journal.StageNoProposal) {
		t.Errorf("decision log %q lacks no_proposal stage", string(data))
	}
	if b.LastTick().IsZero() {
		t.Error("LastTick not updated")
	}
}

func TestRunTickSignalOnlyRespectsDailyClamp(t *testing.T) {
	b, dir := newTestBot(t)
	b.SignalOnly = true
	if err := b.Clamp.MarkEmitted(); err != nil {
		t.Fatal(err)
	}

	b.RunTick(context.Background())

	day := time.Now().UTC().Format("2006-01-02")
	if _, err := os.Stat(filepath.Join(dir, "decisions", day+"_decisions.jsonl")); err == nil {
		t.Error("clamped signal-only tick still produced decisions")
	}
}

type countingSource struct {
	fetches int
}

func (c *countingSource) GetKlines(symbol, interval string, limit int) ([]binance.Kline, error) {
	c.fetches++
	return nil, errors.New("exchange unavailable")
}

func TestRunTickClampDoesNotGateExecutionPath(t *testing.T) {
	b, dir := newTestBot(t)
	src := &countingSource{}
	b.Symbols = []string{"BTCUSDT", "ETHUSDT"}
	b.Snapshot = market.NewBuilder(src, logging.Nop())
	if err := b.Clamp.MarkEmitted(); err != nil {
		t.Fatal(err)
	}

	b.RunTick(context.Background())

	if src.fetches == 0 {
		t.Error("routing tick fetched no klines after clamp marked")
	}
	day := time.Now().UTC().Format("2006-01-02")
	data, err := os.ReadFile(filepath.Join(dir, "decisions", day+"_decisions.jsonl"))
	if err != nil {
		t.Fatalf("decisions file missing: %v", err)
	}
	if got := strings.Count(string(data), journal.StageNoProposal); got != 2 {
		t.Errorf("decision stages logged = %d, want one per symbol", got)
	}
}

func TestRunTickStopsOnCanceledContext(t *testing.T) {
	b, dir := newTestBot(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b.RunTick(ctx)

	if entries, _ := os.ReadDir(filepath.Join(dir, "decisions")); len(entries) != 0 {
		t.Error("canceled tick still processed symbols")
	}
}

func TestSchedulerNextTickAlignment(t *testing.T) {
	s := NewScheduler(10*time.Minute, logging.Nop())

	from := time.Date(2026, 3, 1, 9, 3, 27, 0, time.UTC)
	if got, want := s.nextTick(from), time.Date(2026, 3, 1, 9, 10, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("nextTick = %v, want %v", got, want)
	}

	onBoundary := time.Date(2026, 3, 1, 9, 10, 0, 0, time.UTC)
	if got, want := s.nextTick(onBoundary), time.Date(2026, 3, 1, 9, 20, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("nextTick on boundary = %v, want %v", got, want)
	}
}

func TestSchedulerEnforcesMinInterval(t *testing.T) {
	s := NewScheduler(time.Minute, logging.Nop())
	if s.Interval != 5*time.Minute {
		t.Errorf("interval = %v, want clamped to 5m", s.Interval)
	}
}

func TestRunnerLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runner.pid")

	l1 := NewRunnerLock(path)
	if err := l1.Acquire(); err != nil {
		t.Fatal(err)
	}

	// Same PID is alive, so a second lock must fail.
	l2 := NewRunnerLock(path)
	if err := l2.Acquire(); err == nil {
		t.Fatal("second acquire succeeded while lock held")
	}

	l1.Release()
	if err := l2.Acquire(); err != nil {
		t.Errorf("acquire after release failed: %v", err)
	}
	l2.Release()
}

func TestRunnerLockStealsStaleLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runner.pid")
	// PID 0 never refers to a live userspace process.
	if err := os.WriteFile(path, []byte("0\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	l := NewRunnerLock(path)
	if err := l.Acquire(); err != nil {
		t.Errorf("stale lock not taken over: %v", err)
	}
	l.Release()
}
