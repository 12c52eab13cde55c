package journal

import "time"

// Decision stages, logged in pipeline order. A scheduler tick emits exactly
// one of these per symbol.
const (
	StageNoProposal        = "no_proposal"
	StageRejectedRiskGuard = "proposal_rejected_risk_guard"
	StageRejectedReviewer  = "proposal_rejected_reviewer"
	StageExecution         = "execution"
	StageSignalOnly        = "signal_only"
)

// DecisionEvent is one line in logs/decisions/<date>_decisions.jsonl. It
// captures why a tick did or did not trade, with enough of the proposal and
// execution outcome embedded to reconstruct the decision offline.
type DecisionEvent struct {
	TS     string `json:"ts"`
	Symbol string `json:"symbol"`
	Stage  string `json:"stage"`

	Proposal  interface{}      `json:"proposal,omitempty"`
	Reason    string           `json:"reason,omitempty"`
	Execution *DecisionOutcome `json:"execution,omitempty"`

	Meta map[string]interface{} `json:"meta,omitempty"`
}

// DecisionOutcome summarizes the router result inside a decision event.
type DecisionOutcome struct {
	Status   string  `json:"status"`
	Mode     string  `json:"mode"`
	Qty      float64 `json:"qty,omitempty"`
	Price    float64 `json:"price,omitempty"`
	Exchange string  `json:"exchange,omitempty"`
	OrderID  string  `json:"order_id,omitempty"`
	Error    string  `json:"error,omitempty"`
}

// LogDecision appends a decision event to the day-partitioned decisions file.
// A zero TS is stamped with the current UTC time.
func (j *Journal) LogDecision(evt DecisionEvent) {
	ts := j.now()
	if evt.TS == "" {
		evt.TS = ts.Format(time.RFC3339)
	}
	j.appendJSONL(j.dayFile("decisions", "decisions", ts), evt)
}
