package stats

import (
	"math"

	"SipPulse/internal/domain/models"
)

// ComputeDayStats derives per-day statistics from an ordered daily
// series. The result is parallel to bars (stats[i] belongs to bars[i]).
// The first day carries no return and the volatility stays undefined
// until `window` returns have accumulated; both are flagged, not zeroed
// into the aggregates.
func ComputeDayStats(bars []models.DailyBar, window int) ([]models.DayStats, error) {
	if len(bars) < 2 {
		return nil, &models.InsufficientDataError{Have: len(bars), Need: 2}
	}
	if window < 2 {
		return nil, &models.ConfigurationError{Reason: "volatility window must be >= 2"}
	}

	out := make([]models.DayStats, len(bars))

	// rolling sums over the trailing `window` pct changes
	ring := make([]float64, window)
	var sum, sum2 float64
	filled := 0

	peak := bars[0].Close
	for i := range bars {
		s := &out[i]
		b := bars[i]

		if b.Close > peak {
			peak = b.Close
		}
		if peak > 0 {
			s.Drawdown = (b.Close - peak) / peak
		}
		if b.Open > 0 {
			s.IntradayRange = (b.High - b.Low) / b.Open
		}

		if i == 0 {
			continue
		}
		prev := bars[i-1].Close
		if prev <= 0 {
			continue
		}

		s.PctChange = (b.Close - prev) / prev
		s.HasReturn = true
		if b.Close > 0 {
			s.LogReturn = math.Log(b.Close / prev)
		}

		s.Gap = (b.Open - prev) / prev
		s.HasGap = true
		s.GapDown = s.Gap < 0

		// slide the window
		idx := (i - 1) % window
		if filled == window {
			old := ring[idx]
			sum -= old
			sum2 -= old * old
		} else {
			filled++
		}
		ring[idx] = s.PctChange
		sum += s.PctChange
		sum2 += s.PctChange * s.PctChange

		if filled == window {
			s.Volatility = stddev(sum, sum2, window)
			s.HasVol = true
		}
	}

	return out, nil
}

// stddev computes the sample standard deviation from running sums.
func stddev(sum, sum2 float64, n int) float64 {
	fn := float64(n)
	mean := sum / fn
	variance := (sum2 - fn*mean*mean) / (fn - 1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}
