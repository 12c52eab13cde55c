package market

import (
	"strings"

	"github.com/rs/zerolog"

	"spot-trading-bot/internal/analysis"
	"spot-trading-bot/internal/binance"
)

// Timeframes scanned per snapshot, with enough lookback for stable
// ATR / EMA / slope values without inflating latency.
var defaultTimeframes = map[string]int{
	"15m": 200,
	"1h":  240,
	"4h":  240,
	"1d":  365,
}

// minCandles is the minimum history depth below which a timeframe is omitted
// from the snapshot entirely rather than zero-filled.
const minCandles = 30

// TimeframeMetrics holds the derived per-timeframe indicator values.
type TimeframeMetrics struct {
	Close      float64 `json:"close"`
	High       float64 `json:"high"`
	Low        float64 `json:"low"`
	Volume     float64 `json:"volume"`
	EMA20      float64 `json:"ema_20"`
	ATRPct14   float64 `json:"atr_pct_14"`
	RangePct20 float64 `json:"range_pct_20"`
	TrendScore float64 `json:"trend_score"` // -1 (strong bear) to +1 (strong bull)
}

// Regime is the qualitative trend/volatility classification.
type Regime struct {
	Trend      string `json:"trend"`      // bull, bear, range
	Volatility string `json:"volatility"` // calm, normal, storm
}

// Snapshot is an immutable view of the market for one symbol, rebuilt every
// cycle. A Price of 0 with no timeframes means no usable data: do not trade.
type Snapshot struct {
	Symbol     string                       `json:"symbol"`
	Price      float64                      `json:"price"`
	Timeframes map[string]*TimeframeMetrics `json:"timeframes"`
	Regime     Regime                       `json:"regime"`
}

// Timeframe returns the metrics for a timeframe, or nil if it was omitted.
func (s *Snapshot) Timeframe(key string) *TimeframeMetrics {
	return s.Timeframes[key]
}

// KlineSource fetches candle history. An empty slice (or an error) marks the
// timeframe unusable.
type KlineSource interface {
	GetKlines(symbol, interval string, limit int) ([]binance.Kline, error)
}

// Builder constructs market snapshots from candle history.
type Builder struct {
	source     KlineSource
	timeframes map[string]int
	log        zerolog.Logger
}

// NewBuilder creates a snapshot builder using the default timeframe set.
func NewBuilder(source KlineSource, log zerolog.Logger) *Builder {
	return &Builder{
		source:     source,
		timeframes: defaultTimeframes,
		log:        log,
	}
}

// Build fetches candles for every configured timeframe and derives the
// snapshot. Timeframes with insufficient history are omitted; when none is
// usable a neutral snapshot is returned.
func (b *Builder) Build(symbol string) *Snapshot {
	sym := strings.ToUpper(strings.TrimSpace(symbol))

	tfs := make(map[string]*TimeframeMetrics)
	for tf, limit := range b.timeframes {
		klines, err := b.source.GetKlines(sym, tf, limit)
		if err != nil {
			b.log.Warn().Str("symbol", sym).Str("timeframe", tf).Err(err).
				Msg("kline fetch failed, omitting timeframe")
			continue
		}
		if m := computeTimeframe(klines); m != nil {
			tfs[tf] = m
		}
	}

	if len(tfs) == 0 {
		return neutralSnapshot(sym)
	}

	price := 0.0
	for _, tf := range []string{"15m", "1h", "4h", "1d"} {
		if m, ok := tfs[tf]; ok {
			price = m.Close
			break
		}
	}

	return &Snapshot{
		Symbol:     sym,
		Price:      price,
		Timeframes: tfs,
		Regime:     deriveRegime(tfs),
	}
}

func neutralSnapshot(symbol string) *Snapshot {
	return &Snapshot{
		Symbol:     symbol,
		Price:      0,
		Timeframes: map[string]*TimeframeMetrics{},
		Regime:     Regime{Trend: "range", Volatility: "normal"},
	}
}

// computeTimeframe derives the metrics for one timeframe, or nil when the
// history is too shallow for stable indicators.
func computeTimeframe(klines []binance.Kline) *TimeframeMetrics {
	if len(klines) < minCandles {
		return nil
	}

	last := klines[len(klines)-1]
	if last.Close <= 0 {
		return nil
	}

	atrPct := analysis.CalculateATR(klines, 14) / last.Close * 100.0

	// Trend score from the EMA20 slope over 5 candles, normalized by price
	// and rescaled so ~0.5%/candle maps to 0.5, clamped to [-1, 1].
	raw := analysis.CalculateEMASlope(klines, 20, 5) / last.Close * 100.0
	trendScore := clamp(raw, -1.0, 1.0)

	return &TimeframeMetrics{
		Close:      last.Close,
		High:       last.High,
		Low:        last.Low,
		Volume:     last.Volume,
		EMA20:      analysis.CalculateEMA(klines, 20),
		ATRPct14:   atrPct,
		RangePct20: analysis.CalculateRangePct(klines, 20),
		TrendScore: trendScore,
	}
}

// deriveRegime synthesizes the qualitative regime from the numeric metrics.
func deriveRegime(tfs map[string]*TimeframeMetrics) Regime {
	var trendScores []float64
	for _, key := range []string{"4h", "1d", "1h"} {
		if m, ok := tfs[key]; ok {
			trendScores = append(trendScores, m.TrendScore)
		}
	}

	avgTrend := mean(trendScores)
	trend := "range"
	if avgTrend > 0.25 {
		trend = "bull"
	} else if avgTrend < -0.25 {
		trend = "bear"
	}

	var volSources []float64
	for _, key := range []string{"1h", "4h", "15m"} {
		if m, ok := tfs[key]; ok {
			volSources = append(volSources, m.ATRPct14)
		}
	}

	vol := mean(volSources)
	volatility := "normal"
	if vol < 1.0 {
		volatility = "calm"
	} else if vol >= 3.0 {
		volatility = "storm"
	}

	return Regime{Trend: trend, Volatility: volatility}
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
