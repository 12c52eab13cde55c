package risk

import (
	"fmt"
	"strings"

	"spot-trading-bot/internal/signal"
)

// Config holds the percentage-of-capital risk caps. The trade cap is the hard
// per-trade ceiling; the proposal cap is the tighter advisory ceiling applied
// when a proposal is first built.
type Config struct {
	MaxTradePct    float64 `yaml:"max_trade_pct"`
	MaxProposalPct float64 `yaml:"max_proposal_pct"`
}

// DefaultConfig returns the safe defaults (0.25% proposals, 0.5% hard cap).
func DefaultConfig() Config {
	return Config{MaxTradePct: 0.5, MaxProposalPct: 0.25}
}

// LimitError reports a proposal whose risk exceeds the applicable cap.
type LimitError struct {
	RiskPct float64
	Cap     float64
	Kind    string // "proposal" or "trade"
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("risk %.4f%% exceeds %s cap %.4f%%", e.RiskPct, e.Kind, e.Cap)
}

// Validate checks a proposal against the runtime guard rails, in order:
// level ordering, reason count, then the risk cap selected by isProposal.
// Callers run it twice per pipeline: once at proposal time (isProposal=true)
// and once immediately before execution (isProposal=false).
func Validate(p *signal.Proposal, cfg Config, isProposal bool) error {
	if err := checkLevels(p); err != nil {
		return err
	}
	if err := checkReasons(p); err != nil {
		return err
	}

	cap := cfg.MaxTradePct
	kind := "trade"
	if isProposal {
		cap = cfg.MaxProposalPct
		kind = "proposal"
	}
	if p.RiskPct > cap {
		return &LimitError{RiskPct: p.RiskPct, Cap: cap, Kind: kind}
	}
	return nil
}

func checkLevels(p *signal.Proposal) error {
	if p.Side == signal.SideLong {
		if !(p.Stop < p.Entry && p.Entry < p.Take) {
			return &signal.ValidationError{Reason: "inconsistent levels: long requires stop < entry < take"}
		}
		return nil
	}
	if !(p.Stop > p.Entry && p.Entry > p.Take) {
		return &signal.ValidationError{Reason: "inconsistent levels: short requires stop > entry > take"}
	}
	return nil
}

func checkReasons(p *signal.Proposal) error {
	n := 0
	for _, r := range p.Reasons {
		if strings.TrimSpace(r) != "" {
			n++
		}
	}
	if n < 3 {
		return &signal.ValidationError{Reason: fmt.Sprintf("need at least 3 non-empty reasons, got %d", n)}
	}
	return nil
}
