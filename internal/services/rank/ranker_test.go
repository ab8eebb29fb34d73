package rank

import (
	"errors"
	"reflect"
	"testing"

	"SipPulse/internal/domain/models"
)

func weights() models.ScoreWeights {
	return models.ScoreWeights{Drop: 0.5, Panic: 0.3, Volatility: 0.2}
}

func group(label string, drop, panicRatio, vol float64, samples int) models.GroupStats {
	return models.GroupStats{
		Key:           models.GroupKey{Label: label},
		SampleCount:   samples,
		AvgDrop:       drop,
		PanicRatio:    panicRatio,
		AvgVolatility: vol,
	}
}

func TestRankAscendingComposite(t *testing.T) {
	in := []models.GroupStats{
		group("calm", 0.001, 0.1, 0.01, 50),
		group("worst", -0.02, 0.1, 0.01, 50),
		group("middle", -0.005, 0.1, 0.01, 50),
	}
	out, err := Rank(in, weights())
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	gotOrder := []string{out[0].Key.Label, out[1].Key.Label, out[2].Key.Label}
	wantOrder := []string{"worst", "middle", "calm"}
	if !reflect.DeepEqual(gotOrder, wantOrder) {
		t.Fatalf("order = %v, want %v", gotOrder, wantOrder)
	}
	for i, g := range out {
		if g.Rank != i+1 {
			t.Fatalf("rank at %d = %d, want %d", i, g.Rank, i+1)
		}
		if i > 0 && out[i-1].CompositeScore > g.CompositeScore {
			t.Fatalf("composite not ascending at %d", i)
		}
	}
}

func TestRankCompositeValue(t *testing.T) {
	in := []models.GroupStats{group("g", -0.02, 0.4, 0.02, 10)}
	out, err := Rank(in, weights())
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	want := 0.5*-0.02 + 0.3*0.4 + 0.2*0.02
	if got := out[0].CompositeScore; got != want {
		t.Fatalf("composite = %v, want %v", got, want)
	}
}

func TestRankTieBreaks(t *testing.T) {
	// identical inputs, differing sample counts: more samples first
	in := []models.GroupStats{
		group("small", -0.01, 0.2, 0.01, 5),
		group("big", -0.01, 0.2, 0.01, 40),
	}
	out, err := Rank(in, weights())
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if out[0].Key.Label != "big" {
		t.Fatalf("tie should go to the larger sample, got %q first", out[0].Key.Label)
	}

	// same samples too: calendar order decides
	in = []models.GroupStats{
		{Key: models.GroupKey{Ord: 3, Label: "Wed"}, AvgDrop: -0.01, PanicRatio: 0.2, AvgVolatility: 0.01, SampleCount: 10},
		{Key: models.GroupKey{Ord: 1, Label: "Mon"}, AvgDrop: -0.01, PanicRatio: 0.2, AvgVolatility: 0.01, SampleCount: 10},
	}
	out, err = Rank(in, weights())
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if out[0].Key.Label != "Mon" {
		t.Fatalf("equal-sample tie should follow calendar order, got %q first", out[0].Key.Label)
	}
}

func TestRankDeterministicAndIdempotent(t *testing.T) {
	mk := func() []models.GroupStats {
		return []models.GroupStats{
			group("a", -0.004, 0.12, 0.011, 30),
			group("b", -0.004, 0.12, 0.011, 30),
			group("c", -0.009, 0.22, 0.014, 18),
			group("d", 0.002, 0.05, 0.008, 44),
		}
	}
	first, err := Rank(mk(), weights())
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	second, err := Rank(mk(), weights())
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("same input produced different rankings")
	}
	again, err := Rank(first, weights())
	if err != nil {
		t.Fatalf("re-rank: %v", err)
	}
	if !reflect.DeepEqual(again, second) {
		t.Fatalf("re-ranking an already ranked slice changed it")
	}
}

func TestRankRejectsBadWeights(t *testing.T) {
	in := []models.GroupStats{group("g", -0.01, 0.1, 0.01, 10)}
	_, err := Rank(in, models.ScoreWeights{Drop: 0.5, Panic: 0.3, Volatility: 0.1})
	var cfgErr *models.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}

func TestRankEmpty(t *testing.T) {
	out, err := Rank(nil, weights())
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected empty output")
	}
}
