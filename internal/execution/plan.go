// Package execution turns an approved proposal into exchange orders: a
// three-leg order plan (market entry, limit take-profit, stop-limit
// stop-loss), quantity rounding against the symbol's lot step, and a daily
// loss kill switch that blocks trading before any network call.
package execution

import (
	"math"

	"spot-trading-bot/internal/signal"
)

// defaultLotStep is used when the exchange filter is unavailable.
const defaultLotStep = 0.001

// Plan reasons for invalid plans.
const (
	PlanReasonTooSmall = "too_small"
)

// OrderLeg is one order within a plan.
type OrderLeg struct {
	Kind      string  `json:"kind"`
	Side      string  `json:"side"`
	Type      string  `json:"type"`
	Qty       float64 `json:"qty"`
	Price     float64 `json:"price,omitempty"`
	StopPrice float64 `json:"stop_price,omitempty"`
}

// OrderPlan is the full set of orders derived from one proposal. An invalid
// plan carries a reason and must not be sent; callers fall back to the
// single-order path instead.
type OrderPlan struct {
	Symbol      string     `json:"symbol"`
	Side        string     `json:"side"`
	QtyOriginal float64    `json:"qty_original"`
	QtyRounded  float64    `json:"qty_rounded"`
	LotStep     float64    `json:"lot_step"`
	Legs        []OrderLeg `json:"legs,omitempty"`
	Valid       bool       `json:"valid"`
	Reason      string     `json:"reason,omitempty"`
}

// RoundDownToStep floors qty to a multiple of step. It never rounds up, and
// rounding an already rounded quantity returns it unchanged. A non-positive
// step leaves qty untouched.
func RoundDownToStep(qty, step float64) float64 {
	if step <= 0 {
		return qty
	}
	// The divide picks up representation error (0.29/0.01 is
	// 28.999999999999996), so nudge by a relative epsilon before flooring.
	// Relative keeps the nudge below any real quantity difference, so a
	// quantity genuinely under a step multiple still floors down.
	steps := math.Floor((qty / step) * (1 + 1e-12))
	rounded := steps * step
	// Kill float dust like 0.012000000000000002 from the multiply.
	decimals := stepDecimals(step)
	factor := math.Pow(10, float64(decimals))
	return math.Round(rounded*factor) / factor
}

func stepDecimals(step float64) int {
	d := 0
	for step < 1 && d < 12 {
		step *= 10
		d++
	}
	return d
}

// BuildOrderPlan derives the three-leg plan from a proposal and raw quantity.
// Long proposals buy at market then sell the exits; shorts invert. A quantity
// that floors to zero yields an invalid plan with reason too_small.
func BuildOrderPlan(p *signal.Proposal, qty, lotStep float64) OrderPlan {
	if lotStep <= 0 {
		lotStep = defaultLotStep
	}
	rounded := RoundDownToStep(qty, lotStep)

	plan := OrderPlan{
		Symbol:      p.Symbol,
		Side:        string(p.Side),
		QtyOriginal: qty,
		QtyRounded:  rounded,
		LotStep:     lotStep,
	}
	if rounded <= 0 {
		plan.Reason = PlanReasonTooSmall
		return plan
	}

	entrySide, exitSide := "BUY", "SELL"
	if p.Side == signal.SideShort {
		entrySide, exitSide = "SELL", "BUY"
	}

	plan.Valid = true
	plan.Legs = []OrderLeg{
		{Kind: "entry", Side: entrySide, Type: "MARKET", Qty: rounded},
		{Kind: "take_profit", Side: exitSide, Type: "LIMIT", Qty: rounded, Price: p.Take},
		{Kind: "stop_loss", Side: exitSide, Type: "STOP_LOSS_LIMIT", Qty: rounded, Price: p.Stop, StopPrice: p.Stop},
	}
	return plan
}
