package journal

import "time"

// Execution event statuses. kill_switch_blocked and too_small are terminal
// router decisions recorded before any network call.
const (
	StatusSuccess           = "success"
	StatusExchangeError     = "exchange_error"
	StatusAuthError         = "auth_error"
	StatusNetworkError      = "network_error"
	StatusTooSmall          = "too_small"
	StatusKillSwitchBlocked = "kill_switch_blocked"
	StatusSimulated         = "simulated"
	StatusPlanOnly          = "plan_only"
)

// Order leg kinds within an execution attempt.
const (
	LegEntry      = "entry"
	LegTakeProfit = "take_profit"
	LegStopLoss   = "stop_loss"
)

// ExecutionEvent is one line in logs/executions/<date>_executions.jsonl.
// Attempts and results share the struct; Stage distinguishes them.
type ExecutionEvent struct {
	TS       string  `json:"ts"`
	Stage    string  `json:"stage"`
	Mode     string  `json:"mode"`
	Symbol   string  `json:"symbol"`
	Side     string  `json:"side"`
	Leg      string  `json:"leg,omitempty"`
	Qty      float64 `json:"qty,omitempty"`
	Price    float64 `json:"price,omitempty"`
	Status   string  `json:"status,omitempty"`
	OrderID  string  `json:"order_id,omitempty"`
	Exchange string  `json:"exchange,omitempty"`
	Error    string  `json:"error,omitempty"`

	Meta map[string]interface{} `json:"meta,omitempty"`
}

// LogExecutionAttempt records an order about to be sent.
func (j *Journal) LogExecutionAttempt(evt ExecutionEvent) {
	evt.Stage = "attempt"
	j.logExecution(evt)
}

// LogExecutionResult records the outcome of a send, success or failure.
func (j *Journal) LogExecutionResult(evt ExecutionEvent) {
	evt.Stage = "result"
	j.logExecution(evt)
}

func (j *Journal) logExecution(evt ExecutionEvent) {
	ts := j.now()
	if evt.TS == "" {
		evt.TS = ts.Format(time.RFC3339)
	}
	j.appendJSONL(j.dayFile("executions", "executions", ts), evt)
}
