package analysis

import "math"

// VolumeTrend classifies the latest volume sample against the window mean.
type VolumeTrend string

const (
	TrendIncreasing VolumeTrend = "increasing"
	TrendDecreasing VolumeTrend = "decreasing"
	TrendStable     VolumeTrend = "stable"
)

// VolumeProfileResult carries the trend band and the unusual-activity flag.
type VolumeProfileResult struct {
	Trend           VolumeTrend `json:"trend"`
	UnusualActivity bool        `json:"unusualActivity"`
}

// VolumeProfile compares the last volume sample against the window mean:
// more than +20% is increasing, less than -20% decreasing, otherwise stable.
// Activity is unusual when the last sample deviates from the mean by more
// than two population standard deviations.
func VolumeProfile(volumes []float64) VolumeProfileResult {
	if len(volumes) == 0 {
		return VolumeProfileResult{Trend: TrendStable}
	}
	m := mean(volumes)
	sd := stddev(volumes)
	last := volumes[len(volumes)-1]

	trend := TrendStable
	if m > 0 {
		switch ratio := last / m; {
		case ratio > 1.2:
			trend = TrendIncreasing
		case ratio < 0.8:
			trend = TrendDecreasing
		}
	}
	return VolumeProfileResult{
		Trend:           trend,
		UnusualActivity: sd > 0 && math.Abs(last-m) > 2*sd,
	}
}

// Snapshot bundles everything the scorer needs from one asset's history.
type Snapshot struct {
	RSI           float64             `json:"rsi"`
	MACD          MACDValue           `json:"macd"`
	VolumeProfile VolumeProfileResult `json:"volumeProfile"`
	Volatility    float64             `json:"volatility"`
}

// Compute derives the full technical snapshot from price and volume history.
func Compute(prices, volumes []float64) Snapshot {
	return Snapshot{
		RSI:           RSI(prices, 14),
		MACD:          MACD(prices),
		VolumeProfile: VolumeProfile(volumes),
		Volatility:    Volatility(prices),
	}
}
