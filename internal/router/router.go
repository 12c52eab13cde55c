package router

import (
	"github.com/rs/zerolog"

	"spot-trading-bot/internal/execution"
	"spot-trading-bot/internal/journal"
	"spot-trading-bot/internal/risk"
	"spot-trading-bot/internal/signal"
)

// Router-level result statuses. Executor statuses pass through unchanged.
const (
	StatusRejectedRiskGuard = "rejected_risk_guard"
)

// minLiveQty is the pre-rounding sanity floor for live orders. Distinct from
// the lot-step rounding inside the order plan, which has its own too_small.
const minLiveQty = 0.01

// Result is the outcome of routing one proposal.
type Result struct {
	Status     string
	Mode       string
	Qty        float64
	Price      float64
	OrderID    string
	PositionID string
	Reason     string
}

// Router places an approved proposal on the backend matching the resolved
// mode. Construct it once per run; Mode comes from ResolveMode.
type Router struct {
	Mode     string
	Risk     risk.Config
	Leverage float64

	// Balance reports the quote balance for sizing. In live mode it is
	// refreshed from the exchange; on error the router falls back to
	// DefaultBalance rather than skipping the trade.
	Balance        func() (float64, error)
	DefaultBalance float64

	UseOrderPlan bool
	LotStep      func(symbol string) float64

	Paper    *PaperBroker
	Executor *execution.Executor
	Journal  *journal.Journal
	Log      zerolog.Logger
}

// PlaceProposal validates the proposal against the trade cap, sizes it, and
// dispatches it to the mode's backend. The final risk check runs with the
// trade cap, not the proposal cap.
func (r *Router) PlaceProposal(p *signal.Proposal) Result {
	if err := risk.Validate(p, r.Risk, false); err != nil {
		r.Log.Warn().Err(err).Str("symbol", p.Symbol).Msg("proposal rejected at trade cap")
		return Result{Status: StatusRejectedRiskGuard, Mode: r.Mode, Reason: err.Error()}
	}

	balance := r.resolveBalance()
	lev := r.Leverage
	if lev <= 0 {
		lev = 1
	}
	qty, err := signal.PositionSize(balance, p.RiskPct, p.Entry, p.Stop, lev)
	if err != nil {
		return Result{Status: StatusRejectedRiskGuard, Mode: r.Mode, Reason: err.Error()}
	}

	if r.Mode == ModeLive && qty < minLiveQty {
		r.Journal.LogExecutionResult(journal.ExecutionEvent{
			Mode:   r.Mode,
			Symbol: p.Symbol,
			Side:   string(p.Side),
			Qty:    qty,
			Status: journal.StatusTooSmall,
		})
		return Result{Status: journal.StatusTooSmall, Mode: r.Mode, Qty: qty}
	}

	if r.Mode == ModePaper {
		return r.placePaper(p, qty)
	}
	return r.placeExchange(p, qty)
}

func (r *Router) resolveBalance() float64 {
	if r.Mode == ModeLive && r.Balance != nil {
		bal, err := r.Balance()
		if err == nil {
			return bal
		}
		r.Log.Warn().Err(err).Msg("balance refresh failed, using default")
	}
	return r.DefaultBalance
}

func (r *Router) placePaper(p *signal.Proposal, qty float64) Result {
	id := r.Paper.SimulateOpen(p, qty)
	r.Journal.AppendOrder(journal.OrderEvent{
		Mode:         r.Mode,
		Symbol:       p.Symbol,
		Side:         string(p.Side),
		Qty:          qty,
		Price:        p.Entry,
		RouterAction: "simulate_open",
		Exchange:     "paper",
		OrderID:      id,
		Status:       journal.PositionOpened,
		RiskPct:      p.RiskPct,
		SizePct:      p.SizePct,
	})
	return Result{Status: journal.StatusSimulated, Mode: r.Mode, Qty: qty, Price: p.Entry, PositionID: id}
}

func (r *Router) placeExchange(p *signal.Proposal, qty float64) Result {
	step := 0.0
	if r.LotStep != nil {
		step = r.LotStep(p.Symbol)
	}
	plan := execution.BuildOrderPlan(p, qty, step)

	// Testnet stays on the single-order path; the plan path is live-only.
	if r.Mode == ModeLive && r.UseOrderPlan && plan.Valid {
		res := r.Executor.ExecutePlan(p, plan)
		out := Result{Status: res.Status, Mode: r.Mode, Qty: plan.QtyRounded, Price: p.Entry}
		if len(res.Legs) > 0 {
			out.OrderID = res.Legs[0].OrderID
		}
		r.Journal.AppendOrder(journal.OrderEvent{
			Mode:         r.Mode,
			Symbol:       p.Symbol,
			Side:         string(p.Side),
			Qty:          plan.QtyRounded,
			Price:        p.Entry,
			RouterAction: "order_plan_executed",
			Exchange:     "binance_spot",
			OrderID:      out.OrderID,
			Status:       res.Status,
			RiskPct:      p.RiskPct,
			SizePct:      p.SizePct,
			Plan:         plan,
		})
		return out
	}

	// Legacy single-order path. The plan is still built and journaled so the
	// audit trail shows what the plan path would have sent.
	r.Journal.AppendOrder(journal.OrderEvent{
		Mode:         r.Mode,
		Symbol:       p.Symbol,
		Side:         string(p.Side),
		Qty:          plan.QtyRounded,
		Price:        p.Entry,
		RouterAction: "order_plan_built",
		Exchange:     "binance_spot",
		Status:       journal.StatusPlanOnly,
		RiskPct:      p.RiskPct,
		SizePct:      p.SizePct,
		Plan:         plan,
	})

	orderID, status, err := r.Executor.SendSingleOrder(p, qty)
	out := Result{Status: status, Mode: r.Mode, Qty: qty, Price: p.Entry, OrderID: orderID}
	if err != nil {
		out.Reason = err.Error()
	}
	r.Journal.AppendOrder(journal.OrderEvent{
		Mode:         r.Mode,
		Symbol:       p.Symbol,
		Side:         string(p.Side),
		Qty:          qty,
		Price:        p.Entry,
		RouterAction: "single_order",
		Exchange:     "binance_spot",
		OrderID:      orderID,
		Status:       status,
		RiskPct:      p.RiskPct,
		SizePct:      p.SizePct,
	})
	return out
}
