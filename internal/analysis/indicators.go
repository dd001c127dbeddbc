// Package analysis computes the technical indicators the scorer and monitor
// consume from raw price/volume history. Every function degrades to an
// explicit neutral value on short input instead of returning an error: a
// freshly listed token with ten candles still needs a defensible score.
package analysis

import "math"

// MACDValue is the line/signal/histogram triplet.
type MACDValue struct {
	Value     float64 `json:"value"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

// RSI computes Wilder's smoothed RSI over prices. It returns 50 (neutral)
// when fewer than period+1 prices are available, and 100 when no losses
// occurred in the window (monotonic uptrend).
func RSI(prices []float64, period int) float64 {
	if period <= 0 {
		period = 14
	}
	if len(prices) < period+1 {
		return 50
	}
	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss += -change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	for i := period + 1; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// EMA computes the exponential moving average of series with multiplier
// 2/(period+1), seeded with the simple average of the first period elements.
// A series shorter than period returns its last element.
func EMA(series []float64, period int) float64 {
	if len(series) == 0 {
		return 0
	}
	if period <= 0 || len(series) < period {
		return series[len(series)-1]
	}
	var seed float64
	for i := 0; i < period; i++ {
		seed += series[i]
	}
	ema := seed / float64(period)
	mult := 2.0 / float64(period+1)
	for i := period; i < len(series); i++ {
		ema = (series[i]-ema)*mult + ema
	}
	return ema
}

// MACD computes the 12/26 MACD line with a 9-period signal applied to the
// MACD series. With exactly 26 prices the MACD series holds a single value,
// so the signal collapses to the MACD line and the histogram to zero; longer
// histories produce a conventional rolling signal. Fewer than 26 prices
// return zeros.
func MACD(prices []float64) MACDValue {
	const (
		fast   = 12
		slow   = 26
		signal = 9
	)
	if len(prices) < slow {
		return MACDValue{}
	}
	fastSeries := emaSeries(prices, fast)
	slowSeries := emaSeries(prices, slow)
	macdSeries := make([]float64, 0, len(prices)-slow+1)
	for i := slow - 1; i < len(prices); i++ {
		macdSeries = append(macdSeries, fastSeries[i]-slowSeries[i])
	}
	line := macdSeries[len(macdSeries)-1]
	sig := EMA(macdSeries, signal)
	return MACDValue{Value: line, Signal: sig, Histogram: line - sig}
}

// emaSeries returns the running EMA aligned with values; entries before the
// seed window repeat the values themselves so indexing stays uniform.
func emaSeries(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	if len(values) < period {
		copy(out, values)
		return out
	}
	var seed float64
	for i := 0; i < period; i++ {
		seed += values[i]
		out[i] = values[i]
	}
	ema := seed / float64(period)
	out[period-1] = ema
	mult := 2.0 / float64(period+1)
	for i := period; i < len(values); i++ {
		ema = (values[i]-ema)*mult + ema
		out[i] = ema
	}
	return out
}

// Volatility is the population standard deviation of simple returns
// (p[i]-p[i-1])/p[i-1]. Fewer than two prices, or a zero price, contribute
// nothing.
func Volatility(prices []float64) float64 {
	if len(prices) < 2 {
		return 0
	}
	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] == 0 {
			continue
		}
		returns = append(returns, (prices[i]-prices[i-1])/prices[i-1])
	}
	return stddev(returns)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stddev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	var sq float64
	for _, v := range values {
		d := v - m
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values)))
}
