package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalConfig = `
environment: test
backend:
  type: clickhouse
feed:
  symbols: ["SENSEX"]
`

func TestLoadAppliesAnalysisDefaults(t *testing.T) {
	c, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	p := c.Analysis.Params
	if p.DropThreshold != 0.02 || p.VolatilityWindow != 20 ||
		p.VolatilityThreshold != 0.015 || p.MinSamplesPerGroup != 5 {
		t.Fatalf("unexpected defaults: %+v", p)
	}
	if p.Weights.Drop != 0.5 || p.Weights.Panic != 0.3 || p.Weights.Volatility != 0.2 {
		t.Fatalf("unexpected default weights: %+v", p.Weights)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	c, err := Load(writeConfig(t, minimalConfig+`
analysis:
  params:
    drop_threshold: 0.03
    volatility_window: 10
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Analysis.Params.DropThreshold != 0.03 {
		t.Fatalf("drop_threshold = %v", c.Analysis.Params.DropThreshold)
	}
	if c.Analysis.Params.VolatilityWindow != 10 {
		t.Fatalf("volatility_window = %v", c.Analysis.Params.VolatilityWindow)
	}
	// untouched fields still defaulted
	if c.Analysis.Params.MinSamplesPerGroup != 5 {
		t.Fatalf("min_samples_per_group = %v", c.Analysis.Params.MinSamplesPerGroup)
	}
}

func TestLoadRejectsBadWeights(t *testing.T) {
	_, err := Load(writeConfig(t, minimalConfig+`
analysis:
  params:
    score_weights:
      drop: 0.5
      panic: 0.3
      volatility: 0.1
`))
	if err == nil || !strings.Contains(err.Error(), "score_weights") {
		t.Fatalf("expected weight-sum error, got %v", err)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	_, err := Load(writeConfig(t, `
environment: test
backend:
  type: postgres
feed:
  symbols: ["SENSEX"]
`))
	if err == nil || !strings.Contains(err.Error(), "backend.type") {
		t.Fatalf("expected backend error, got %v", err)
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("BACKEND", "kafka")
	t.Setenv("SYMBOLS", "SENSEX,NIFTY")
	c, err := LoadWithEnv(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Backend.Type != "kafka" {
		t.Fatalf("backend = %q", c.Backend.Type)
	}
	if len(c.Feed.Symbols) != 2 || c.Feed.Symbols[1] != "NIFTY" {
		t.Fatalf("symbols = %v", c.Feed.Symbols)
	}
}
