package calendar

import (
	"fmt"
	"sort"

	"SipPulse/internal/domain/models"
	domrepo "SipPulse/internal/domain/repository"
)

type bucket struct {
	key models.GroupKey

	rows   int
	panics int

	retSum   float64
	retCount int
	drops    int

	volSum   float64
	volCount int

	ddSum  float64
	sipSum float64
}

// Aggregate partitions the joined bar+stats sequence by one calendar
// dimension and reduces each bucket. Groups with fewer than minSamples
// rows land in the excluded list instead of the ranking input; the
// caller reports them, never drops them silently.
//
// Averages skip undefined returns/volatilities; SampleCount and the
// panic ratio denominator count every row in the group.
func Aggregate(bars []models.DailyBar, stats []models.DayStats, dim domrepo.Dimension, minSamples int) ([]models.GroupStats, []models.ExcludedGroup, error) {
	if len(bars) != len(stats) {
		return nil, nil, fmt.Errorf("bars/stats length mismatch: %d vs %d", len(bars), len(stats))
	}

	buckets := make(map[models.GroupKey]*bucket)
	for i := range bars {
		key, err := KeyFor(dim, bars[i].Date)
		if err != nil {
			return nil, nil, err
		}
		b, ok := buckets[key]
		if !ok {
			b = &bucket{key: key}
			buckets[key] = b
		}

		s := &stats[i]
		b.rows++
		if s.Panic {
			b.panics++
		}
		if s.HasReturn {
			b.retSum += s.PctChange
			b.retCount++
			if s.PctChange < 0 {
				b.drops++
			}
		}
		if s.HasVol {
			b.volSum += s.Volatility
			b.volCount++
		}
		b.ddSum += s.Drawdown
		b.sipSum += s.SipScore
	}

	groups := make([]models.GroupStats, 0, len(buckets))
	var excluded []models.ExcludedGroup
	for _, b := range buckets {
		if b.rows < minSamples {
			excluded = append(excluded, models.ExcludedGroup{
				Key:         b.key,
				SampleCount: b.rows,
				Reason:      fmt.Sprintf("only %d samples, need %d", b.rows, minSamples),
			})
			continue
		}
		g := models.GroupStats{
			Key:         b.key,
			SampleCount: b.rows,
			PanicRatio:  float64(b.panics) / float64(b.rows),
			AvgDrawdown: b.ddSum / float64(b.rows),
			AvgSipScore: b.sipSum / float64(b.rows),
		}
		if b.retCount > 0 {
			g.AvgDrop = b.retSum / float64(b.retCount)
			g.DropProb = float64(b.drops) / float64(b.retCount)
		}
		if b.volCount > 0 {
			g.AvgVolatility = b.volSum / float64(b.volCount)
		}
		groups = append(groups, g)
	}

	sort.Slice(groups, func(i, j int) bool { return groups[i].Key.Less(groups[j].Key) })
	sort.Slice(excluded, func(i, j int) bool { return excluded[i].Key.Less(excluded[j].Key) })
	return groups, excluded, nil
}
