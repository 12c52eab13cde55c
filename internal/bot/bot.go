// Package bot wires the pipeline together and drives it on a schedule:
// snapshot, setup scan, proposal, risk guard, routing, and the audit trail.
package bot

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"spot-trading-bot/internal/gate"
	"spot-trading-bot/internal/journal"
	"spot-trading-bot/internal/market"
	"spot-trading-bot/internal/notification"
	"spot-trading-bot/internal/risk"
	"spot-trading-bot/internal/router"
	"spot-trading-bot/internal/signal"
)

// Reviewer is an optional veto hook between risk guard and routing. A
// non-empty return rejects the proposal with that reason.
type Reviewer func(p *signal.Proposal) string

// Bot runs the signal pipeline for a set of symbols.
type Bot struct {
	Symbols  []string
	Snapshot *market.Builder
	Risk     risk.Config
	Router   *router.Router
	Journal  *journal.Journal
	Clamp    *gate.DailyClamp
	Cooldown *gate.Cooldown
	Notify   *notification.Manager
	Review   Reviewer

	// SignalOnly skips routing; the proposal is journaled and alerted but
	// never executed.
	SignalOnly bool

	Log zerolog.Logger

	lastTick time.Time
}

// LastTick reports when a tick last completed.
func (b *Bot) LastTick() time.Time { return b.lastTick }

// RunTick processes every symbol once, sequentially. Each symbol produces
// exactly one decision event.
func (b *Bot) RunTick(ctx context.Context) {
	for _, symbol := range b.Symbols {
		if ctx.Err() != nil {
			return
		}
		b.runSymbol(symbol)
	}
	b.lastTick = time.Now().UTC()
}

func (b *Bot) runSymbol(symbol string) {
	log := b.Log.With().Str("symbol", symbol).Logger()

	if b.SignalOnly && b.Clamp != nil && b.Clamp.EmittedToday() {
		log.Debug().Msg("daily signal already emitted, skipping")
		return
	}
	if b.Cooldown != nil && !b.Cooldown.Ready(symbol) {
		log.Debug().Msg("cooldown active, skipping")
		return
	}

	snap := b.Snapshot.Build(symbol)
	p := signal.Generate(snap)
	if p == nil {
		b.Journal.LogDecision(journal.DecisionEvent{
			Symbol: symbol,
			Stage:  journal.StageNoProposal,
		})
		return
	}

	if err := risk.Validate(p, b.Risk, true); err != nil {
		log.Warn().Err(err).Msg("proposal rejected by risk guard")
		b.Journal.LogDecision(journal.DecisionEvent{
			Symbol:   symbol,
			Stage:    journal.StageRejectedRiskGuard,
			Proposal: p,
			Reason:   err.Error(),
		})
		return
	}

	if b.Review != nil {
		if reason := b.Review(p); reason != "" {
			log.Info().Str("reason", reason).Msg("proposal rejected by reviewer")
			b.Journal.LogDecision(journal.DecisionEvent{
				Symbol:   symbol,
				Stage:    journal.StageRejectedReviewer,
				Proposal: p,
				Reason:   reason,
			})
			return
		}
	}

	if b.Notify != nil {
		if err := b.Notify.SendProposal(p); err != nil {
			log.Warn().Err(err).Msg("proposal alert failed")
		}
	}

	if b.SignalOnly {
		b.Journal.LogDecision(journal.DecisionEvent{
			Symbol:   symbol,
			Stage:    journal.StageSignalOnly,
			Proposal: p,
		})
		b.markEmitted(symbol)
		return
	}

	res := b.Router.PlaceProposal(p)
	log.Info().
		Str("status", res.Status).
		Str("mode", res.Mode).
		Float64("qty", res.Qty).
		Msg("proposal routed")

	b.Journal.LogDecision(journal.DecisionEvent{
		Symbol:   symbol,
		Stage:    journal.StageExecution,
		Proposal: p,
		Execution: &journal.DecisionOutcome{
			Status:  res.Status,
			Mode:    res.Mode,
			Qty:     res.Qty,
			Price:   res.Price,
			OrderID: res.OrderID,
			Error:   res.Reason,
		},
	})

	if b.Notify != nil {
		if err := b.Notify.SendExecution(symbol, res.Mode, res.Status, res.Qty, res.Price); err != nil {
			log.Warn().Err(err).Msg("execution alert failed")
		}
	}

	b.markEmitted(symbol)
}

// markEmitted records a produced signal in the cooldown, and in the daily
// clamp when running signal-only. The clamp limits the standalone signal
// emitter to one alert per day; routed proposals are paced by the per-symbol
// cooldown alone. Rejected and empty ticks never reach here.
func (b *Bot) markEmitted(symbol string) {
	if b.Cooldown != nil {
		b.Cooldown.MarkSent(symbol)
	}
	if b.SignalOnly && b.Clamp != nil {
		if err := b.Clamp.MarkEmitted(); err != nil {
			b.Log.Warn().Err(err).Msg("daily clamp marker write failed")
		}
	}
}
