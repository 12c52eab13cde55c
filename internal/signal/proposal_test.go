package signal

import (
	"errors"
	"math"
	"testing"
	"time"
)

func validReasons() []string {
	return []string{"reason one", "reason two", "reason three"}
}

func TestNewProposalValid(t *testing.T) {
	p, err := New("btcusdt", SideLong, 100, 95, 110, 0.25, 5.0, validReasons(), 45)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if p.Symbol != "BTCUSDT" {
		t.Errorf("symbol = %q, want BTCUSDT", p.Symbol)
	}
	if p.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
	if got := p.RMultiple(); math.Abs(got-2.0) > 1e-9 {
		t.Errorf("RMultiple = %v, want 2.0", got)
	}
}

func TestNewProposalRejections(t *testing.T) {
	tests := []struct {
		name    string
		side    Side
		entry   float64
		stop    float64
		take    float64
		riskPct float64
		sizePct float64
		reasons []string
		ttl     int
	}{
		{"unknown side", Side("sideways"), 100, 95, 110, 0.25, 5, validReasons(), 45},
		{"long stop above entry", SideLong, 100, 105, 110, 0.25, 5, validReasons(), 45},
		{"long take below entry", SideLong, 100, 95, 99, 0.25, 5, validReasons(), 45},
		{"short stop below entry", SideShort, 100, 95, 90, 0.25, 5, validReasons(), 45},
		{"zero entry", SideLong, 0, 95, 110, 0.25, 5, validReasons(), 45},
		{"two reasons", SideLong, 100, 95, 110, 0.25, 5, []string{"a", "b"}, 45},
		{"blank reasons dropped", SideLong, 100, 95, 110, 0.25, 5, []string{"a", "  ", "b"}, 45},
		{"zero risk", SideLong, 100, 95, 110, 0, 5, validReasons(), 45},
		{"size over 100", SideLong, 100, 95, 110, 0.25, 101, validReasons(), 45},
		{"ttl over a day", SideLong, 100, 95, 110, 0.25, 5, validReasons(), 1441},
		{"zero ttl", SideLong, 100, 95, 110, 0.25, 5, validReasons(), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New("BTCUSDT", tt.side, tt.entry, tt.stop, tt.take, tt.riskPct, tt.sizePct, tt.reasons, tt.ttl)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("error type = %T, want *ValidationError", err)
			}
		})
	}
}

func TestProposalIsExpired(t *testing.T) {
	p, err := New("BTCUSDT", SideLong, 100, 95, 110, 0.25, 5, validReasons(), 45)
	if err != nil {
		t.Fatal(err)
	}

	if p.IsExpired(p.CreatedAt.Add(44 * time.Minute)) {
		t.Error("expired before TTL lapsed")
	}
	if !p.IsExpired(p.CreatedAt.Add(46 * time.Minute)) {
		t.Error("not expired after TTL lapsed")
	}
}

func TestPositionSize(t *testing.T) {
	// Risking 0.25% of 10000 = 25 over a 2-point stop distance at entry 100.
	qty, err := PositionSize(10000, 0.25, 100, 98, 1)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(qty-0.125) > 1e-9 {
		t.Errorf("qty = %v, want 0.125", qty)
	}

	// Leverage scales linearly.
	qty, err = PositionSize(10000, 0.25, 100, 98, 2)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(qty-0.25) > 1e-9 {
		t.Errorf("qty with 2x leverage = %v, want 0.25", qty)
	}

	if _, err := PositionSize(0, 0.25, 100, 98, 1); err == nil {
		t.Error("zero balance should error")
	}
	if _, err := PositionSize(10000, 0.25, 100, 100, 1); err == nil {
		t.Error("entry == stop should error")
	}
}

func TestGenerateFromBreakoutSnapshot(t *testing.T) {
	p := Generate(breakoutSnapshot())
	if p == nil {
		t.Fatal("Generate returned nil for a breakout market")
	}

	if p.Side != SideLong {
		t.Errorf("side = %q, want long", p.Side)
	}
	if !(p.Stop < p.Entry && p.Entry < p.Take) {
		t.Errorf("levels not ordered: %v/%v/%v", p.Stop, p.Entry, p.Take)
	}
	if p.RiskPct != 0.25 || p.SizePct != 5.0 || p.TTLMinutes != 45 {
		t.Errorf("defaults = risk %v size %v ttl %v, want 0.25/5/45", p.RiskPct, p.SizePct, p.TTLMinutes)
	}
	if len(p.Reasons) < 3 || len(p.Reasons) > 5 {
		t.Errorf("got %d reasons, want 3..5", len(p.Reasons))
	}
}

func TestGenerateNilCases(t *testing.T) {
	if Generate(nil) != nil {
		t.Error("Generate(nil) produced a proposal")
	}

	snap := breakoutSnapshot()
	snap.Price = 0
	if Generate(snap) != nil {
		t.Error("Generate with zero price produced a proposal")
	}

	quiet := breakoutSnapshot()
	quiet.Timeframes["4h"].TrendScore = 0.1 // no playbook triggers
	quiet.Timeframes["1d"].TrendScore = 0.1
	quiet.Timeframes["1h"].TrendScore = 0.1
	if Generate(quiet) != nil {
		t.Error("Generate without setups produced a proposal")
	}
}
