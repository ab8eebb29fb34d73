package main

import (
	"context"
	"flag"
	"log"
	"os"

	"SipPulse/internal/di"
	"SipPulse/internal/domain/models"
	"SipPulse/internal/repository"
	"SipPulse/internal/usecase"
	"SipPulse/pkg/config"
	applogger "SipPulse/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	input := flag.String("input", "", "CSV file or URL; runs a one-shot batch analysis instead of the server")
	out := flag.String("out", "reports", "output directory for batch CSV reports")
	symbol := flag.String("symbol", "SENSEX", "symbol label for batch input")
	strict := flag.Bool("strict", false, "abort the batch load on the first malformed row")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		// batch mode works without a config file; defaults apply
		if *input == "" {
			log.Fatalf("config load failed: %v", err)
		}
		cfg = &config.Config{}
		cfg.Analysis.Params = models.DefaultAnalysisParams()
	}

	if *input != "" {
		if err := runBatch(cfg, *input, *out, *symbol, *strict); err != nil {
			log.Fatalf("batch analysis failed: %v", err)
		}
		return
	}

	log.Printf("env=%s backend=%s", cfg.Environment, cfg.Backend.Type)

	// Wire DI: Initialize all dependencies
	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	log.Printf("clickhouse: connected and schema ready - db: %s\n", cfg.ClickHouse.Database)
	log.Printf("kafka: connected brokers=%v topic=%s", cfg.Kafka.Brokers, cfg.Kafka.Topic)

	// Run application (blocks until signal)
	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}

// runBatch loads a CSV series, runs the full analysis, and writes the
// per-dimension reports without starting any server infrastructure.
func runBatch(cfg *config.Config, input, out, symbol string, strict bool) error {
	l, err := applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
	if err != nil {
		return err
	}
	if cfg.Analysis.Strict {
		strict = true
	}

	source := repository.NewCSVBarSource(input, symbol, strict,
		repository.WithSourceLogger(l),
	)
	analysis := usecase.NewAnalysisUseCase(cfg.Analysis.Params, nil, l)

	report, err := analysis.Run(context.Background(), source)
	if err != nil {
		return err
	}
	for _, w := range report.Warnings {
		l.Warn("input warning", applogger.String("detail", w))
	}

	writer := repository.NewCSVReportWriter(out, l)
	if err := writer.Write(report); err != nil {
		return err
	}
	l.Info("batch analysis complete",
		applogger.String("out", out),
		applogger.Int("bars", report.BarCount),
		applogger.Int("panic_days", report.PanicDays),
	)
	return nil
}
