package signal

import (
	"spot-trading-bot/internal/market"
)

// Side is the direction of a candidate or proposal.
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// Candidate is a playbook's raw trade idea, produced and consumed within a
// single scan cycle.
type Candidate struct {
	ID      string
	Symbol  string
	Side    Side
	Quality float64 // 0..1
	Entry   float64
	Stop    float64
	Take    float64
	Reasons []string
}

// ScanSetups evaluates the playbooks against a snapshot in a fixed order and
// returns every candidate that triggered. An empty slice means no setup; the
// scanner never fabricates synthetic candidates.
func ScanSetups(snap *market.Snapshot) []Candidate {
	if snap == nil || snap.Symbol == "" {
		return nil
	}

	var candidates []Candidate

	if c := trendBreakoutLong(snap); c != nil {
		candidates = append(candidates, *c)
	}
	if c := trendPullbackLong(snap); c != nil {
		candidates = append(candidates, *c)
	}
	if c := meanReversion15m(snap); c != nil {
		candidates = append(candidates, *c)
	}

	return candidates
}

// atrAbs converts an ATR expressed in percent of price to an absolute value.
func atrAbs(price, atrPct float64) float64 {
	if price <= 0 || atrPct <= 0 {
		return 0
	}
	return price * (atrPct / 100.0)
}

// distPct is the distance of price from an EMA, in percent of price.
func distPct(price, emaVal float64) float64 {
	if price <= 0 || emaVal <= 0 {
		return 0
	}
	return (price - emaVal) / price * 100.0
}

// trendBreakoutLong fires when the higher timeframes trend up strongly, 1h
// volatility is contracting, and the 15m close sits within 0.5% of its high.
func trendBreakoutLong(snap *market.Snapshot) *Candidate {
	tf15 := snap.Timeframe("15m")
	tf1h := snap.Timeframe("1h")
	tf4h := snap.Timeframe("4h")
	tf1d := snap.Timeframe("1d")
	if tf15 == nil || tf1h == nil || tf4h == nil || tf1d == nil {
		return nil
	}

	if tf4h.TrendScore <= 0.6 || tf1d.TrendScore <= 0.5 {
		return nil
	}
	if tf1h.ATRPct14 >= 2.0 || tf1h.RangePct20 >= 4.0 {
		return nil
	}
	if tf15.Close < tf15.High*0.995 {
		return nil
	}

	entry := tf15.Close
	atrVal := atrAbs(entry, tf1h.ATRPct14)
	if atrVal <= 0 {
		return nil
	}

	quality := 0.6 + min(0.2, (tf4h.TrendScore+tf1d.TrendScore)/10.0)

	return &Candidate{
		ID:      "trend_breakout_15m_long",
		Symbol:  snap.Symbol,
		Side:    SideLong,
		Quality: clamp01(quality),
		Entry:   entry,
		Stop:    entry - 2.0*atrVal,
		Take:    entry + 4.0*atrVal,
		Reasons: []string{
			"Strong uptrend on 4h and daily.",
			"1h volatility contracting ahead of the breakout.",
			"15m close near its highs (bullish breakout).",
		},
	}
}

// trendPullbackLong fires on a pullback to the 1h EMA20 inside a strong
// 4h + 1h uptrend.
func trendPullbackLong(snap *market.Snapshot) *Candidate {
	tf1h := snap.Timeframe("1h")
	tf4h := snap.Timeframe("4h")
	if tf1h == nil || tf4h == nil {
		return nil
	}

	if tf4h.TrendScore <= 0.7 || tf1h.TrendScore <= 0.7 {
		return nil
	}

	distEMA := distPct(tf1h.Close, tf1h.EMA20)
	if distEMA < -2.5 || distEMA > 0.0 {
		return nil
	}

	entry := tf1h.Close
	atrVal := atrAbs(entry, tf1h.ATRPct14)
	if atrVal <= 0 {
		return nil
	}

	quality := 0.65 + min(0.2, (tf4h.TrendScore+tf1h.TrendScore)/10.0)

	return &Candidate{
		ID:      "trend_pullback_1h_long",
		Symbol:  snap.Symbol,
		Side:    SideLong,
		Quality: clamp01(quality),
		Entry:   entry,
		Stop:    entry - 1.5*atrVal,
		Take:    entry + 3.0*atrVal,
		Reasons: []string{
			"Strong uptrend on both 4h and 1h.",
			"Pullback into the 1h EMA20 (value-zone retest).",
			"ATR small enough for a technical stop.",
		},
	}
}

// meanReversion15m fires on a 15m stretch away from the EMA20 inside a
// range or bear regime with moderate volatility.
func meanReversion15m(snap *market.Snapshot) *Candidate {
	tf15 := snap.Timeframe("15m")
	if tf15 == nil {
		return nil
	}
	if snap.Regime.Trend != "range" && snap.Regime.Trend != "bear" {
		return nil
	}
	if snap.Regime.Volatility != "calm" && snap.Regime.Volatility != "normal" {
		return nil
	}

	atrVal := atrAbs(tf15.Close, tf15.ATRPct14)
	if atrVal <= 0 {
		return nil
	}

	entry := tf15.Close
	distEMA := distPct(tf15.Close, tf15.EMA20)

	switch {
	case distEMA > 2.0:
		return &Candidate{
			ID:      "mean_reversion_15m_short",
			Symbol:  snap.Symbol,
			Side:    SideShort,
			Quality: 0.55,
			Entry:   entry,
			Stop:    entry + 2.0*atrVal,
			Take:    entry - 3.0*atrVal,
			Reasons: []string{
				"Ranging market with moderate volatility.",
				"15m price stretched well above its EMA20 (bullish excess).",
				"Reversion-to-mean setup (short).",
			},
		}
	case distEMA < -2.0:
		return &Candidate{
			ID:      "mean_reversion_15m_long",
			Symbol:  snap.Symbol,
			Side:    SideLong,
			Quality: 0.55,
			Entry:   entry,
			Stop:    entry - 2.0*atrVal,
			Take:    entry + 3.0*atrVal,
			Reasons: []string{
				"Ranging market with moderate volatility.",
				"15m price stretched well below its EMA20 (bearish excess).",
				"Reversion-to-mean setup (long).",
			},
		}
	}
	return nil
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
