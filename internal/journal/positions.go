package journal

import (
	"path/filepath"
	"time"
)

var positionCSVHeader = []string{
	"ts", "id", "symbol", "side", "status",
	"entry", "stop", "take", "qty", "exit_price",
	"realized_pnl", "reason", "risk_pct", "size_pct",
}

// Position lifecycle statuses.
const (
	PositionOpened = "OPENED"
	PositionClosed = "CLOSED"
)

// PositionEvent is one row in positions.jsonl and positions.csv. Opens and
// closes are separate rows sharing an ID; an open row is never rewritten.
type PositionEvent struct {
	TS          string  `json:"ts"`
	ID          string  `json:"id"`
	Symbol      string  `json:"symbol"`
	Side        string  `json:"side"`
	Status      string  `json:"status"`
	Entry       float64 `json:"entry"`
	Stop        float64 `json:"stop,omitempty"`
	Take        float64 `json:"take,omitempty"`
	Qty         float64 `json:"qty"`
	ExitPrice   float64 `json:"exit_price,omitempty"`
	RealizedPnL float64 `json:"realized_pnl,omitempty"`
	Reason      string  `json:"reason,omitempty"`
	RiskPct     float64 `json:"risk_pct,omitempty"`
	SizePct     float64 `json:"size_pct,omitempty"`
}

// AppendPosition writes the event to positions.jsonl and positions.csv.
func (j *Journal) AppendPosition(evt PositionEvent) {
	if evt.TS == "" {
		evt.TS = j.now().Format(time.RFC3339)
	}

	j.appendJSONL(filepath.Join(j.dir, "positions.jsonl"), evt)
	j.appendCSV(filepath.Join(j.dir, "positions.csv"), positionCSVHeader, []string{
		evt.TS, evt.ID, evt.Symbol, evt.Side, evt.Status,
		formatFloat(evt.Entry), formatFloat(evt.Stop), formatFloat(evt.Take),
		formatFloat(evt.Qty), formatFloat(evt.ExitPrice),
		formatFloat(evt.RealizedPnL), evt.Reason,
		formatFloat(evt.RiskPct), formatFloat(evt.SizePct),
	})
}
