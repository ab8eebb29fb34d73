package stats

import (
	"math"

	"SipPulse/internal/domain/models"
)

// Classify flags panic days and fills the per-day SIP opportunity
// score. A day is a panic day when its return breaches -dropThreshold
// or its rolling volatility reaches volThreshold. Days whose return or
// volatility is still undefined classify as not-panic; excluding them
// instead would shrink every group's denominator.
//
// Total over its input; mutates and returns the same slice.
func Classify(stats []models.DayStats, dropThreshold, volThreshold float64) []models.DayStats {
	for i := range stats {
		s := &stats[i]
		s.Panic = (s.HasReturn && s.PctChange <= -dropThreshold) ||
			(s.HasVol && s.Volatility >= volThreshold)
		s.SipScore = sipScore(s)
	}
	return stats
}

// sipScore is the multiplicative opportunity score: only down days
// score, amplified by volatility, drawdown depth, gap-downs and panic.
func sipScore(s *models.DayStats) float64 {
	if !s.HasReturn || s.PctChange >= 0 {
		return 0
	}
	score := 1.0
	if s.HasVol {
		score *= 1 + s.Volatility
	}
	score *= 1 + math.Abs(s.Drawdown)
	if s.GapDown {
		score *= 2
	}
	if s.Panic {
		score *= 2
	}
	return score
}

// CountPanicDays returns the number of flagged days.
func CountPanicDays(stats []models.DayStats) int {
	n := 0
	for i := range stats {
		if stats[i].Panic {
			n++
		}
	}
	return n
}
