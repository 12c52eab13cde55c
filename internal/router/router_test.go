package router

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"spot-trading-bot/internal/binance"
	"spot-trading-bot/internal/execution"
	"spot-trading-bot/internal/journal"
	"spot-trading-bot/internal/logging"
	"spot-trading-bot/internal/risk"
	"spot-trading-bot/internal/signal"
)

type recordingSender struct {
	calls []map[string]string
	err   error
}

func (r *recordingSender) PlaceOrder(params map[string]string) (*binance.OrderResponse, error) {
	r.calls = append(r.calls, params)
	if r.err != nil {
		return nil, r.err
	}
	return &binance.OrderResponse{Symbol: params["symbol"], OrderId: int64(len(r.calls)), Status: "FILLED"}, nil
}

func routerProposal(t *testing.T) *signal.Proposal {
	t.Helper()
	p, err := signal.New("BTCUSDT", signal.SideLong, 100, 98, 106, 0.25, 5,
		[]string{"one", "two", "three"}, 45)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func newTestRouter(t *testing.T, mode string, sender *recordingSender) (*Router, string) {
	t.Helper()
	t.Setenv("LOGS_DIR", "")
	dir := t.TempDir()
	jrnl := journal.New(dir, logging.Nop())

	return &Router{
		Mode:           mode,
		Risk:           risk.DefaultConfig(),
		Leverage:       1,
		DefaultBalance: 10000,
		Paper:          &PaperBroker{Journal: jrnl},
		Executor: &execution.Executor{
			Sender:  sender,
			Journal: jrnl,
			Mode:    mode,
			Log:     logging.Nop(),
		},
		Journal: jrnl,
		Log:     logging.Nop(),
	}, dir
}

func TestPlaceProposalPaper(t *testing.T) {
	sender := &recordingSender{}
	r, dir := newTestRouter(t, ModePaper, sender)

	res := r.PlaceProposal(routerProposal(t))
	if res.Status != journal.StatusSimulated {
		t.Fatalf("status = %q, want simulated", res.Status)
	}
	// balance 10000, risk 0.25% = 25, stop distance 2 -> 12.5 quote, which
	// is 0.125 base at entry 100.
	if math.Abs(res.Qty-0.125) > 1e-9 {
		t.Errorf("qty = %v, want 0.125", res.Qty)
	}
	if len(sender.calls) != 0 {
		t.Errorf("paper mode sent %d exchange orders", len(sender.calls))
	}
	if r.Paper.OpenCount() != 1 {
		t.Errorf("open paper positions = %d, want 1", r.Paper.OpenCount())
	}

	for _, name := range []string{"orders.jsonl", "orders.csv", "positions.jsonl", "positions.csv"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("journal file %s missing: %v", name, err)
		}
	}

	orders, err := os.ReadFile(filepath.Join(dir, "orders.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(orders), `"router_action":"simulate_open"`) {
		t.Errorf("order event %q lacks simulate_open action", string(orders))
	}
	if !strings.Contains(string(orders), `"status":"OPENED"`) {
		t.Errorf("order event %q lacks OPENED status", string(orders))
	}
}

func TestPlaceProposalRejectedAtTradeCap(t *testing.T) {
	sender := &recordingSender{}
	r, _ := newTestRouter(t, ModePaper, sender)

	p := routerProposal(t)
	p.RiskPct = 0.6 // above the 0.5 trade cap

	res := r.PlaceProposal(p)
	if res.Status != StatusRejectedRiskGuard {
		t.Errorf("status = %q, want rejected_risk_guard", res.Status)
	}
	if r.Paper.OpenCount() != 0 {
		t.Error("rejected proposal opened a position")
	}
}

func TestPlaceProposalLiveTooSmall(t *testing.T) {
	sender := &recordingSender{}
	r, _ := newTestRouter(t, ModeLive, sender)
	r.DefaultBalance = 10 // sizes to 0.00125, below the live floor

	res := r.PlaceProposal(routerProposal(t))
	if res.Status != journal.StatusTooSmall {
		t.Fatalf("status = %q, want too_small", res.Status)
	}
	if len(sender.calls) != 0 {
		t.Errorf("too_small still sent %d orders", len(sender.calls))
	}
}

func TestPlaceProposalLiveBalanceFallback(t *testing.T) {
	sender := &recordingSender{}
	r, _ := newTestRouter(t, ModeLive, sender)
	r.Balance = func() (float64, error) { return 0, errors.New("exchange down") }

	res := r.PlaceProposal(routerProposal(t))
	// Falls back to the default balance instead of skipping the trade.
	if math.Abs(res.Qty-0.125) > 1e-9 {
		t.Errorf("qty = %v, want 0.125 from the default balance", res.Qty)
	}
}

func TestPlaceProposalOrderPlanPath(t *testing.T) {
	sender := &recordingSender{}
	r, _ := newTestRouter(t, ModeLive, sender)
	r.UseOrderPlan = true
	r.LotStep = func(string) float64 { return 0.001 }

	res := r.PlaceProposal(routerProposal(t))
	if res.Status != journal.StatusSuccess {
		t.Fatalf("status = %q, want success", res.Status)
	}
	if len(sender.calls) != 3 {
		t.Errorf("sent %d orders, want 3 plan legs", len(sender.calls))
	}
	if math.Abs(res.Qty-0.125) > 1e-9 {
		t.Errorf("qty = %v, want 0.125", res.Qty)
	}
}

func TestPlaceProposalTestnetStaysOnSingleOrder(t *testing.T) {
	sender := &recordingSender{}
	r, _ := newTestRouter(t, ModeTestnet, sender)
	r.UseOrderPlan = true
	r.LotStep = func(string) float64 { return 0.001 }

	res := r.PlaceProposal(routerProposal(t))
	if res.Status != journal.StatusSuccess {
		t.Fatalf("status = %q, want success", res.Status)
	}
	if len(sender.calls) != 1 {
		t.Errorf("testnet sent %d orders, want one market order", len(sender.calls))
	}
	if got := sender.calls[0]["type"]; got != "MARKET" {
		t.Errorf("testnet order type = %q, want MARKET", got)
	}
}

func TestPlaceProposalLegacyPathLogsPlan(t *testing.T) {
	sender := &recordingSender{}
	r, dir := newTestRouter(t, ModeTestnet, sender)
	r.UseOrderPlan = false
	r.LotStep = func(string) float64 { return 0.001 }

	res := r.PlaceProposal(routerProposal(t))
	if res.Status != journal.StatusSuccess {
		t.Fatalf("status = %q, want success", res.Status)
	}
	if len(sender.calls) != 1 {
		t.Errorf("legacy path sent %d orders, want 1", len(sender.calls))
	}

	data, err := os.ReadFile(filepath.Join(dir, "orders.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "order_plan_built") {
		t.Error("legacy path did not journal the built plan")
	}
	if !strings.Contains(string(data), "plan_only") {
		t.Error("plan row not marked plan_only")
	}
}

func TestPaperBrokerCloseRealizesPnL(t *testing.T) {
	t.Setenv("LOGS_DIR", "")
	b := &PaperBroker{Journal: journal.New(t.TempDir(), logging.Nop())}

	id := b.SimulateOpen(routerProposal(t), 0.5)
	pnl, err := b.SimulateClose(id, 106, "take_profit")
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(pnl-3.0) > 1e-9 { // (106-100) * 0.5
		t.Errorf("pnl = %v, want 3.0", pnl)
	}
	if b.OpenCount() != 0 {
		t.Errorf("open positions after close = %d, want 0", b.OpenCount())
	}

	if _, err := b.SimulateClose(id, 106, "again"); err == nil {
		t.Error("closing twice should error")
	}
}
