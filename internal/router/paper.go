package router

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"spot-trading-bot/internal/journal"
	"spot-trading-bot/internal/signal"
)

// PaperBroker simulates fills for paper mode. Every open and close is
// journaled as its own row; the open row is never rewritten.
type PaperBroker struct {
	Journal *journal.Journal

	mu   sync.Mutex
	open map[string]paperPosition
}

type paperPosition struct {
	id     string
	symbol string
	side   signal.Side
	entry  float64
	qty    float64
}

// SimulateOpen fills the proposal at its entry price and returns the
// position ID.
func (b *PaperBroker) SimulateOpen(p *signal.Proposal, qty float64) string {
	id := uuid.NewString()

	b.mu.Lock()
	if b.open == nil {
		b.open = make(map[string]paperPosition)
	}
	b.open[id] = paperPosition{id: id, symbol: p.Symbol, side: p.Side, entry: p.Entry, qty: qty}
	b.mu.Unlock()

	b.Journal.AppendPosition(journal.PositionEvent{
		ID:      id,
		Symbol:  p.Symbol,
		Side:    string(p.Side),
		Status:  journal.PositionOpened,
		Entry:   p.Entry,
		Stop:    p.Stop,
		Take:    p.Take,
		Qty:     qty,
		RiskPct: p.RiskPct,
		SizePct: p.SizePct,
	})
	return id
}

// SimulateClose closes an open position at exitPrice and journals the
// realized PnL. Closing an unknown ID is an error.
func (b *PaperBroker) SimulateClose(id string, exitPrice float64, reason string) (float64, error) {
	b.mu.Lock()
	pos, ok := b.open[id]
	if ok {
		delete(b.open, id)
	}
	b.mu.Unlock()
	if !ok {
		return 0, fmt.Errorf("no open paper position %s", id)
	}

	pnl := (exitPrice - pos.entry) * pos.qty
	if pos.side == signal.SideShort {
		pnl = -pnl
	}

	b.Journal.AppendPosition(journal.PositionEvent{
		ID:          pos.id,
		Symbol:      pos.symbol,
		Side:        string(pos.side),
		Status:      journal.PositionClosed,
		Entry:       pos.entry,
		Qty:         pos.qty,
		ExitPrice:   exitPrice,
		RealizedPnL: pnl,
		Reason:      reason,
	})
	return pnl, nil
}

// OpenCount reports how many simulated positions are open.
func (b *PaperBroker) OpenCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.open)
}
