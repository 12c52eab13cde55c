package signal

import (
	"math"

	"spot-trading-bot/internal/market"
)

// Generator defaults. RiskPct stays within the proposal cap; SizePct is
// indicative only (exact sizing happens at execution time).
const (
	defaultMinQuality = 0.6
	defaultRiskPct    = 0.25
	defaultSizePct    = 5.0
	defaultTTLMinutes = 45
	maxReasons        = 5
)

// Generate scans the snapshot for setups, picks the best candidate and turns
// it into a Proposal. Returns nil when no setup clears the quality bar or the
// winning candidate fails proposal validation.
func Generate(snap *market.Snapshot) *Proposal {
	if snap == nil || snap.Price <= 0 {
		return nil
	}

	candidates := ScanSetups(snap)
	if len(candidates) == 0 {
		return nil
	}

	best := chooseBest(candidates, defaultMinQuality)
	if best == nil {
		return nil
	}

	reasons := best.Reasons
	if len(reasons) > maxReasons {
		reasons = reasons[:maxReasons]
	}

	p, err := New(
		best.Symbol,
		best.Side,
		round2(best.Entry),
		round2(best.Stop),
		round2(best.Take),
		defaultRiskPct,
		defaultSizePct,
		reasons,
		defaultTTLMinutes,
	)
	if err != nil {
		// A candidate that cannot form a valid proposal is discarded, not repaired.
		return nil
	}
	return p
}

// chooseBest filters by minimum quality and returns the highest-quality
// candidate. Ties resolve to the earliest candidate in playbook order.
func chooseBest(candidates []Candidate, minQuality float64) *Candidate {
	var best *Candidate
	for i := range candidates {
		c := &candidates[i]
		if c.Quality < minQuality {
			continue
		}
		if best == nil || c.Quality > best.Quality {
			best = c
		}
	}
	return best
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
