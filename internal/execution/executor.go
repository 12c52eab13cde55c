package execution

import (
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"spot-trading-bot/internal/binance"
	"spot-trading-bot/internal/journal"
	"spot-trading-bot/internal/signal"
)

// OrderSender sends one spot order. Satisfied by binance.SpotClient.
type OrderSender interface {
	PlaceOrder(params map[string]string) (*binance.OrderResponse, error)
}

// LegResult is the outcome of one plan leg.
type LegResult struct {
	Leg     OrderLeg
	OrderID string
	Err     error
}

// PlanResult is the outcome of sending a full plan. Legs holds one entry per
// attempted leg, in send order.
type PlanResult struct {
	Status string
	Legs   []LegResult
}

// Executor sends order plans to the exchange, one leg at a time. Legs are
// independent: a failed take-profit does not cancel the entry, it is logged
// and the next leg is still attempted.
type Executor struct {
	Sender  OrderSender
	Journal *journal.Journal
	Kill    KillSwitch
	Mode    string
	Log     zerolog.Logger
}

// ExecutePlan re-checks the kill switch, then sends entry, take-profit and
// stop-loss in order. The overall status is success only when every leg was
// accepted; a blocked switch returns kill_switch_blocked with no legs sent.
func (e *Executor) ExecutePlan(p *signal.Proposal, plan OrderPlan) PlanResult {
	if !plan.Valid {
		return PlanResult{Status: journal.StatusTooSmall}
	}
	if e.Kill.Blocked() {
		e.Log.Warn().Str("symbol", plan.Symbol).Msg("kill switch active, plan not sent")
		e.Journal.LogExecutionResult(journal.ExecutionEvent{
			Mode:   e.Mode,
			Symbol: plan.Symbol,
			Side:   plan.Side,
			Status: journal.StatusKillSwitchBlocked,
		})
		return PlanResult{Status: journal.StatusKillSwitchBlocked}
	}

	res := PlanResult{Status: journal.StatusSuccess}
	for _, leg := range plan.Legs {
		lr := e.sendLeg(plan, leg)
		res.Legs = append(res.Legs, lr)
		if lr.Err != nil {
			res.Status = statusForError(lr.Err)
		}
	}
	return res
}

func (e *Executor) sendLeg(plan OrderPlan, leg OrderLeg) LegResult {
	e.Journal.LogExecutionAttempt(journal.ExecutionEvent{
		Mode:   e.Mode,
		Symbol: plan.Symbol,
		Side:   leg.Side,
		Leg:    legKind(leg.Kind),
		Qty:    leg.Qty,
		Price:  leg.Price,
	})

	params := map[string]string{
		"symbol":   plan.Symbol,
		"side":     leg.Side,
		"type":     leg.Type,
		"quantity": strconv.FormatFloat(leg.Qty, 'f', -1, 64),
	}
	if leg.Type != "MARKET" {
		params["price"] = strconv.FormatFloat(leg.Price, 'f', -1, 64)
		params["timeInForce"] = "GTC"
	}
	if leg.StopPrice > 0 {
		params["stopPrice"] = strconv.FormatFloat(leg.StopPrice, 'f', -1, 64)
	}

	resp, err := e.Sender.PlaceOrder(params)
	if err != nil {
		e.Log.Error().Err(err).Str("symbol", plan.Symbol).Str("leg", leg.Kind).Msg("order leg failed")
		e.Journal.LogExecutionResult(journal.ExecutionEvent{
			Mode:   e.Mode,
			Symbol: plan.Symbol,
			Side:   leg.Side,
			Leg:    legKind(leg.Kind),
			Qty:    leg.Qty,
			Price:  leg.Price,
			Status: statusForError(err),
			Error:  err.Error(),
		})
		return LegResult{Leg: leg, Err: err}
	}

	orderID := strconv.FormatInt(resp.OrderId, 10)
	e.Journal.LogExecutionResult(journal.ExecutionEvent{
		Mode:    e.Mode,
		Symbol:  plan.Symbol,
		Side:    leg.Side,
		Leg:     legKind(leg.Kind),
		Qty:     leg.Qty,
		Price:   leg.Price,
		Status:  journal.StatusSuccess,
		OrderID: orderID,
	})
	return LegResult{Leg: leg, OrderID: orderID}
}

func legKind(kind string) string {
	switch kind {
	case "entry":
		return journal.LegEntry
	case "take_profit":
		return journal.LegTakeProfit
	case "stop_loss":
		return journal.LegStopLoss
	}
	return kind
}

func statusForError(err error) string {
	switch err.(type) {
	case *binance.AuthenticationError:
		return journal.StatusAuthError
	case *binance.NetworkError:
		return journal.StatusNetworkError
	default:
		return journal.StatusExchangeError
	}
}

// SendSingleOrder is the legacy path: one market entry with the exit levels
// logged as information only. The kill switch is still honored.
func (e *Executor) SendSingleOrder(p *signal.Proposal, qty float64) (string, string, error) {
	if e.Kill.Blocked() {
		e.Journal.LogExecutionResult(journal.ExecutionEvent{
			Mode:   e.Mode,
			Symbol: p.Symbol,
			Side:   string(p.Side),
			Status: journal.StatusKillSwitchBlocked,
		})
		return "", journal.StatusKillSwitchBlocked, nil
	}

	side := "BUY"
	if p.Side == signal.SideShort {
		side = "SELL"
	}

	e.Journal.LogExecutionAttempt(journal.ExecutionEvent{
		Mode:   e.Mode,
		Symbol: p.Symbol,
		Side:   side,
		Leg:    journal.LegEntry,
		Qty:    qty,
		Price:  p.Entry,
		Meta: map[string]interface{}{
			"tp": p.Take,
			"sl": p.Stop,
		},
	})

	resp, err := e.Sender.PlaceOrder(map[string]string{
		"symbol":   p.Symbol,
		"side":     side,
		"type":     "MARKET",
		"quantity": strconv.FormatFloat(qty, 'f', -1, 64),
	})
	if err != nil {
		status := statusForError(err)
		e.Journal.LogExecutionResult(journal.ExecutionEvent{
			Mode:   e.Mode,
			Symbol: p.Symbol,
			Side:   side,
			Leg:    journal.LegEntry,
			Qty:    qty,
			Status: status,
			Error:  err.Error(),
		})
		return "", status, fmt.Errorf("place order: %w", err)
	}

	orderID := strconv.FormatInt(resp.OrderId, 10)
	e.Journal.LogExecutionResult(journal.ExecutionEvent{
		Mode:    e.Mode,
		Symbol:  p.Symbol,
		Side:    side,
		Leg:     journal.LegEntry,
		Qty:     qty,
		Status:  journal.StatusSuccess,
		OrderID: orderID,
	})
	return orderID, journal.StatusSuccess, nil
}
