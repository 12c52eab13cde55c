package analysis

import (
	"math"

	"spot-trading-bot/internal/binance"
)

// CalculateSMA calculates Simple Moving Average of closes
func CalculateSMA(klines []binance.Kline, period int) float64 {
	if len(klines) < period || period < 1 {
		return 0
	}

	sum := 0.0
	for i := len(klines) - period; i < len(klines); i++ {
		sum += klines[i].Close
	}
	return sum / float64(period)
}

// CalculateEMA calculates Exponential Moving Average of closes over the whole
// history (alpha = 2/(period+1), seeded with the first close).
func CalculateEMA(klines []binance.Kline, period int) float64 {
	if len(klines) == 0 || period < 1 {
		return 0
	}

	multiplier := 2.0 / float64(period+1)
	ema := klines[0].Close
	for i := 1; i < len(klines); i++ {
		ema = klines[i].Close*multiplier + ema*(1-multiplier)
	}
	return ema
}

// TrueRange computes max(high-low, |high-prevClose|, |low-prevClose|).
// prevClose < 0 marks the first candle, where TR is just high-low.
func TrueRange(prevClose, high, low float64) float64 {
	if prevClose < 0 {
		return high - low
	}
	return math.Max(high-low, math.Max(math.Abs(high-prevClose), math.Abs(low-prevClose)))
}

// CalculateATR calculates the Average True Range as a simple average of the
// true ranges over the last `period` candles.
func CalculateATR(klines []binance.Kline, period int) float64 {
	n := len(klines)
	if n == 0 || period < 1 {
		return 0
	}

	start := n - period
	if start < 0 {
		start = 0
	}

	prevClose := -1.0
	if start > 0 {
		prevClose = klines[start-1].Close
	}

	sum := 0.0
	count := 0
	for i := start; i < n; i++ {
		sum += TrueRange(prevClose, klines[i].High, klines[i].Low)
		prevClose = klines[i].Close
		count++
	}
	return sum / float64(count)
}

// CalculateRangePct returns (highest high - lowest low) over the last `period`
// candles as a percent of the last close.
func CalculateRangePct(klines []binance.Kline, period int) float64 {
	n := len(klines)
	if n == 0 || period < 1 {
		return 0
	}

	lastClose := klines[n-1].Close
	if lastClose == 0 {
		return 0
	}

	start := n - period
	if start < 0 {
		start = 0
	}

	hi := klines[start].High
	lo := klines[start].Low
	for i := start + 1; i < n; i++ {
		if klines[i].High > hi {
			hi = klines[i].High
		}
		if klines[i].Low < lo {
			lo = klines[i].Low
		}
	}
	return (hi - lo) / lastClose * 100.0
}

// CalculateEMASlope returns the per-candle EMA delta over `lookback` candles:
// the EMA of the full history minus the EMA of the history truncated by
// `lookback`, divided by lookback. Returns 0 when history is too short.
func CalculateEMASlope(klines []binance.Kline, period, lookback int) float64 {
	if lookback < 1 || len(klines) <= lookback {
		return 0
	}
	emaNow := CalculateEMA(klines, period)
	emaPast := CalculateEMA(klines[:len(klines)-lookback], period)
	return (emaNow - emaPast) / float64(lookback)
}
