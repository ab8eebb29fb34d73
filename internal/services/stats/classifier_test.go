package stats

import "testing"

func TestClassifyDropThreshold(t *testing.T) {
	bars := barsFromCloses([]float64{100, 98, 97, 101, 99, 95})
	stats, err := ComputeDayStats(bars, 20) // window never fills: vol undefined throughout
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	Classify(stats, 0.02, 1.0)

	// index 1 is exactly -0.02 and meets the threshold; index 4 is just
	// under; index 5 exceeds it.
	want := []bool{false, true, false, false, false, true}
	for i, w := range want {
		if stats[i].Panic != w {
			t.Fatalf("panic[%d] = %v, want %v", i, stats[i].Panic, w)
		}
	}
}

func TestClassifyVolatilityThreshold(t *testing.T) {
	bars := barsFromCloses([]float64{100, 105, 95, 104, 96})
	stats, err := ComputeDayStats(bars, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	Classify(stats, 1.0, 0.01) // drop threshold unreachable, vol very low
	hit := false
	for i := range stats {
		if stats[i].Panic {
			if !stats[i].HasVol {
				t.Fatalf("panic[%d] set while volatility undefined", i)
			}
			hit = true
		}
	}
	if !hit {
		t.Fatalf("expected at least one volatility-driven panic day")
	}
}

func TestClassifyUndefinedDaysAreCalm(t *testing.T) {
	bars := barsFromCloses([]float64{100, 50}) // -50% but index 0 has no return
	stats, _ := ComputeDayStats(bars, 20)
	Classify(stats, 0.02, 0.015)
	if stats[0].Panic {
		t.Fatalf("day without return classified as panic")
	}
	if !stats[1].Panic {
		t.Fatalf("-50%% day not classified as panic")
	}
}

func TestSipScoreZeroOnUpDays(t *testing.T) {
	bars := barsFromCloses([]float64{100, 110, 121})
	stats, _ := ComputeDayStats(bars, 20)
	Classify(stats, 0.02, 0.015)
	for i := range stats {
		if stats[i].SipScore != 0 {
			t.Fatalf("sip score nonzero on up day %d: %v", i, stats[i].SipScore)
		}
	}
}

func TestCountPanicDays(t *testing.T) {
	bars := barsFromCloses([]float64{100, 98, 97, 101, 99, 95})
	stats, _ := ComputeDayStats(bars, 20)
	Classify(stats, 0.02, 1.0)
	if got := CountPanicDays(stats); got != 2 {
		t.Fatalf("panic days = %d, want 2", got)
	}
}
