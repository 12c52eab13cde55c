package journal

import (
	"path/filepath"
	"strconv"
	"time"
)

// orderCSVHeader is fixed; readers rely on column order staying stable.
var orderCSVHeader = []string{
	"ts", "mode", "symbol", "side", "qty", "price",
	"router_action", "exchange", "order_id", "status",
	"risk_pct", "size_pct",
}

// OrderEvent is one row in orders.jsonl and orders.csv.
type OrderEvent struct {
	TS           string  `json:"ts"`
	Mode         string  `json:"mode"`
	Symbol       string  `json:"symbol"`
	Side         string  `json:"side"`
	Qty          float64 `json:"qty"`
	Price        float64 `json:"price"`
	RouterAction string  `json:"router_action"`
	Exchange     string  `json:"exchange"`
	OrderID      string  `json:"order_id"`
	Status       string  `json:"status"`
	RiskPct      float64 `json:"risk_pct"`
	SizePct      float64 `json:"size_pct"`

	Plan interface{} `json:"plan,omitempty"`
}

// AppendOrder writes the event to both orders.jsonl and orders.csv. The
// structured plan, when present, only goes to the JSONL side.
func (j *Journal) AppendOrder(evt OrderEvent) {
	if evt.TS == "" {
		evt.TS = j.now().Format(time.RFC3339)
	}

	j.appendJSONL(filepath.Join(j.dir, "orders.jsonl"), evt)
	j.appendCSV(filepath.Join(j.dir, "orders.csv"), orderCSVHeader, []string{
		evt.TS, evt.Mode, evt.Symbol, evt.Side,
		formatFloat(evt.Qty), formatFloat(evt.Price),
		evt.RouterAction, evt.Exchange, evt.OrderID, evt.Status,
		formatFloat(evt.RiskPct), formatFloat(evt.SizePct),
	})
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
