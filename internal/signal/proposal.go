package signal

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// ValidationError marks a proposal that violates its construction invariants.
// It is always handled locally ("no proposal"), never surfaced as a crash.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid proposal: " + e.Reason
}

// Proposal is a fully-validated candidate trade, immutable after construction.
//
// Invariants enforced by New:
//   - long:  stop < entry < take;  short: stop > entry > take
//   - at least 3 non-empty reasons
//   - entry/stop/take all > 0
//   - 0 < RiskPct, 0 < SizePct <= 100, 0 < TTLMinutes <= 1440
type Proposal struct {
	Symbol     string    `json:"symbol"`
	Side       Side      `json:"side"`
	Entry      float64   `json:"entry"`
	Stop       float64   `json:"stop"`
	Take       float64   `json:"take"`
	RiskPct    float64   `json:"risk_pct"` // percent of capital at risk
	SizePct    float64   `json:"size_pct"` // indicative position size, percent of capital
	Reasons    []string  `json:"reasons"`
	TTLMinutes int       `json:"ttl_minutes"`
	CreatedAt  time.Time `json:"created_at"`
}

// New validates and builds a Proposal. Violations return a *ValidationError;
// the proposal is never silently repaired.
func New(symbol string, side Side, entry, stop, take, riskPct, sizePct float64, reasons []string, ttlMinutes int) (*Proposal, error) {
	if side != SideLong && side != SideShort {
		return nil, &ValidationError{Reason: fmt.Sprintf("unknown side %q", side)}
	}
	if entry <= 0 || stop <= 0 || take <= 0 {
		return nil, &ValidationError{Reason: "entry, stop and take must all be positive"}
	}
	if side == SideLong && !(stop < entry && entry < take) {
		return nil, &ValidationError{Reason: "long requires stop < entry < take"}
	}
	if side == SideShort && !(stop > entry && entry > take) {
		return nil, &ValidationError{Reason: "short requires stop > entry > take"}
	}

	cleaned := make([]string, 0, len(reasons))
	for _, r := range reasons {
		if s := strings.TrimSpace(r); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	if len(cleaned) < 3 {
		return nil, &ValidationError{Reason: fmt.Sprintf("need at least 3 non-empty reasons, got %d", len(cleaned))}
	}

	if riskPct <= 0 {
		return nil, &ValidationError{Reason: "risk_pct must be positive"}
	}
	if sizePct <= 0 || sizePct > 100 {
		return nil, &ValidationError{Reason: "size_pct must be in (0, 100]"}
	}
	if ttlMinutes <= 0 || ttlMinutes > 1440 {
		return nil, &ValidationError{Reason: "ttl_minutes must be in (0, 1440]"}
	}

	return &Proposal{
		Symbol:     strings.ToUpper(symbol),
		Side:       side,
		Entry:      entry,
		Stop:       stop,
		Take:       take,
		RiskPct:    riskPct,
		SizePct:    sizePct,
		Reasons:    cleaned,
		TTLMinutes: ttlMinutes,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// IsExpired reports whether the proposal's TTL has lapsed at the given time.
func (p *Proposal) IsExpired(now time.Time) bool {
	return now.After(p.CreatedAt.Add(time.Duration(p.TTLMinutes) * time.Minute))
}

// RMultiple returns the payoff as a multiple of the risked distance, or 0
// when entry and stop coincide.
func (p *Proposal) RMultiple() float64 {
	r := math.Abs(p.Entry - p.Stop)
	if r <= 0 {
		return 0
	}
	if p.Side == SideLong {
		return (p.Take - p.Entry) / r
	}
	return (p.Entry - p.Take) / r
}

// PositionSize computes an approximate base-asset quantity so that riskPct of
// the balance is lost if the stop is hit (linear product assumption):
//
//	qty = (balance * riskPct/100) / |entry-stop| * leverage / entry
func PositionSize(balance, riskPct, entry, stop, leverage float64) (float64, error) {
	if balance <= 0 || entry <= 0 || stop <= 0 {
		return 0, fmt.Errorf("invalid sizing parameters (balance=%.2f entry=%.2f stop=%.2f)", balance, entry, stop)
	}
	riskPerUnit := math.Abs(entry - stop)
	if riskPerUnit == 0 {
		return 0, fmt.Errorf("entry and stop must differ")
	}
	riskAmount := balance * (riskPct / 100.0)
	qty := riskAmount / riskPerUnit * leverage / entry
	if qty < 0 {
		qty = 0
	}
	return qty, nil
}
