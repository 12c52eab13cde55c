package journal

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"spot-trading-bot/internal/logging"
)

func newTestJournal(t *testing.T) *Journal {
	t.Helper()
	t.Setenv(logsDirEnv, "")
	return New(t.TempDir(), logging.Nop())
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines
}

func TestLogsDirEnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(logsDirEnv, dir)

	j := New("ignored", logging.Nop())
	if j.Dir() != dir {
		t.Errorf("dir = %q, want env override %q", j.Dir(), dir)
	}
}

func TestDecisionsArePartitionedByDay(t *testing.T) {
	j := newTestJournal(t)
	day1 := time.Date(2026, 3, 1, 23, 50, 0, 0, time.UTC)
	j.now = func() time.Time { return day1 }

	j.LogDecision(DecisionEvent{Symbol: "BTCUSDT", Stage: StageNoProposal})
	j.now = func() time.Time { return day1.Add(20 * time.Minute) } // crosses midnight
	j.LogDecision(DecisionEvent{Symbol: "BTCUSDT", Stage: StageSignalOnly})

	f1 := filepath.Join(j.Dir(), "decisions", "2026-03-01_decisions.jsonl")
	f2 := filepath.Join(j.Dir(), "decisions", "2026-03-02_decisions.jsonl")
	if got := readLines(t, f1); len(got) != 1 {
		t.Errorf("day 1 file has %d lines, want 1", len(got))
	}
	if got := readLines(t, f2); len(got) != 1 {
		t.Errorf("day 2 file has %d lines, want 1", len(got))
	}

	var evt DecisionEvent
	if err := json.Unmarshal([]byte(readLines(t, f1)[0]), &evt); err != nil {
		t.Fatalf("decision line is not valid JSON: %v", err)
	}
	if evt.Stage != StageNoProposal || evt.TS == "" {
		t.Errorf("decoded event = %+v", evt)
	}
}

func TestExecutionEventsStampStage(t *testing.T) {
	j := newTestJournal(t)
	j.now = func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }

	j.LogExecutionAttempt(ExecutionEvent{Symbol: "BTCUSDT", Side: "BUY", Leg: LegEntry})
	j.LogExecutionResult(ExecutionEvent{Symbol: "BTCUSDT", Side: "BUY", Leg: LegEntry, Status: StatusSuccess})

	lines := readLines(t, filepath.Join(j.Dir(), "executions", "2026-03-01_executions.jsonl"))
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}

	var attempt, result ExecutionEvent
	if err := json.Unmarshal([]byte(lines[0]), &attempt); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(lines[1]), &result); err != nil {
		t.Fatal(err)
	}
	if attempt.Stage != "attempt" || result.Stage != "result" {
		t.Errorf("stages = %q/%q, want attempt/result", attempt.Stage, result.Stage)
	}
}

func TestOrderCSVHeaderWrittenOnce(t *testing.T) {
	j := newTestJournal(t)

	for i := 0; i < 3; i++ {
		j.AppendOrder(OrderEvent{Mode: "paper", Symbol: "BTCUSDT", Side: "long", Qty: 0.1, Status: StatusSimulated})
	}

	lines := readLines(t, filepath.Join(j.Dir(), "orders.csv"))
	if len(lines) != 4 {
		t.Fatalf("got %d CSV lines, want header + 3 rows", len(lines))
	}
	if !strings.HasPrefix(lines[0], "ts,mode,symbol,side,qty,price,router_action,exchange,order_id,status") {
		t.Errorf("unexpected header: %q", lines[0])
	}
	for _, line := range lines[1:] {
		if strings.HasPrefix(line, "ts,") {
			t.Error("header repeated in data rows")
		}
	}

	jsonl := readLines(t, filepath.Join(j.Dir(), "orders.jsonl"))
	if len(jsonl) != 3 {
		t.Errorf("orders.jsonl has %d lines, want 3", len(jsonl))
	}
}

func TestPositionRowsAreAppendOnly(t *testing.T) {
	j := newTestJournal(t)

	j.AppendPosition(PositionEvent{ID: "p1", Symbol: "BTCUSDT", Side: "long", Status: PositionOpened, Entry: 100, Qty: 0.5})
	j.AppendPosition(PositionEvent{ID: "p1", Symbol: "BTCUSDT", Side: "long", Status: PositionClosed, Entry: 100, Qty: 0.5, ExitPrice: 110, RealizedPnL: 5})

	lines := readLines(t, filepath.Join(j.Dir(), "positions.jsonl"))
	if len(lines) != 2 {
		t.Fatalf("got %d position rows, want 2 (open and close are separate)", len(lines))
	}

	var open PositionEvent
	if err := json.Unmarshal([]byte(lines[0]), &open); err != nil {
		t.Fatal(err)
	}
	if open.Status != PositionOpened || open.ExitPrice != 0 {
		t.Errorf("open row mutated: %+v", open)
	}
}

func TestWritesNeverError(t *testing.T) {
	// Pointing the journal at an unwritable path must not panic or block.
	t.Setenv(logsDirEnv, "")
	j := New("/proc/nonexistent/journal", logging.Nop())

	j.LogDecision(DecisionEvent{Symbol: "BTCUSDT", Stage: StageNoProposal})
	j.AppendOrder(OrderEvent{Symbol: "BTCUSDT"})
	j.AppendPosition(PositionEvent{ID: "p1"})
	j.LogExecutionAttempt(ExecutionEvent{Symbol: "BTCUSDT"})
}
