package server

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	domrepo "SipPulse/internal/domain/repository"
	"SipPulse/internal/handler/api"
	"SipPulse/internal/repository"
	icache "SipPulse/internal/service/cache"
	"SipPulse/internal/usecase"
	pkgcache "SipPulse/pkg/cache"
	pkgch "SipPulse/pkg/clickhouse"
	"SipPulse/pkg/config"
	xhttp "SipPulse/pkg/http"
	pkgkafka "SipPulse/pkg/kafka"
	applogger "SipPulse/pkg/logger"
	pkgqueue "SipPulse/pkg/queue"

	"github.com/redis/go-redis/v9"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	collector   *usecase.BarCollector
	consumer    *pkgkafka.Consumer
	kh          pkgkafka.MessageHandler
	chClient    *pkgch.Client
	producer    *pkgkafka.Producer
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
	jobQueue    *pkgqueue.RedisQueue
	BarProc     *usecase.BarProcessor
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	collector *usecase.BarCollector,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
	producer *pkgkafka.Producer,
) *App {
	return &App{
		cfg:       cfg,
		collector: collector,
		consumer:  consumer,
		kh:        kh,
		chClient:  chClient,
		producer:  producer,
	}
}

// kafkaLogSink adapts the Kafka producer to the log collector's
// Publisher interface.
type kafkaLogSink struct {
	producer *pkgkafka.Producer
}

func (s kafkaLogSink) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return s.producer.Publish(ctx, topic, nil, payload)
}

// SetHTTPHandler allows DI to inject an HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// init app logger (console info by default)
	l, _ := applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})

	// Ship aggregated error logs to Kafka when a log topic is set.
	if a.producer != nil && a.cfg.Kafka.LogTopic != "" {
		l.AddCollector(&applogger.CollectorConfig{
			Topic:     a.cfg.Kafka.LogTopic,
			Publisher: kafkaLogSink{producer: a.producer},
		})
		defer l.RemoveCollector()
	}

	// Setup Echo HTTP server using pkg/http and register routes via handler
	var httpHandler xhttp.Handler
	if a.httpHandler != nil {
		httpHandler = a.httpHandler
	} else if a.chClient != nil {
		store := repository.NewClickHouseBarStore(a.chClient.DB(), a.cfg.ClickHouse.Database+".daily_bars")

		var reportCache icache.BytesCache
		var rdb *redis.Client
		if a.cfg.Analysis.Redis.Enabled {
			reportCache = icache.NewRedisCache(icache.RedisConfig{
				Addr:     a.cfg.Analysis.Redis.Addr,
				Password: a.cfg.Analysis.Redis.Password,
				DB:       a.cfg.Analysis.Redis.DB,
			})
			rdb = redis.NewClient(&redis.Options{
				Addr:     a.cfg.Analysis.Redis.Addr,
				Password: a.cfg.Analysis.Redis.Password,
				DB:       a.cfg.Analysis.Redis.DB,
			})
		} else {
			reportCache = icache.NewTTLCache()
		}

		analysis := usecase.NewAnalysisUseCase(a.cfg.Analysis.Params, nil, l)
		rankings := usecase.NewRankingsUseCase(analysis, store, reportCache, a.cfg.Analysis.CacheTTL, l)
		bars := usecase.NewBarsUseCase(store)

		var jobsPub pkgqueue.QueueService
		if a.cfg.Analysis.Queue.Enabled && rdb != nil {
			writerFn := func(dir string) domrepo.ReportWriter {
				return repository.NewCSVReportWriter(dir, l)
			}
			var locks pkgcache.Service = pkgcache.NewMemoryCache()
			if host, portStr, splitErr := net.SplitHostPort(a.cfg.Analysis.Redis.Addr); splitErr == nil {
				port, _ := strconv.Atoi(portStr)
				rc, cacheErr := pkgcache.NewRedisCache(
					pkgcache.WithRedisHost(host),
					pkgcache.WithRedisPort(port),
					pkgcache.WithRedisPassword(a.cfg.Analysis.Redis.Password),
					pkgcache.WithRedisDB(a.cfg.Analysis.Redis.DB),
				)
				if cacheErr != nil {
					l.Warn("job lock cache unavailable, using in-memory locks", applogger.Error(cacheErr))
				} else {
					locks = rc
				}
			}
			job := usecase.NewAnalyzeJob(rankings, writerFn, locks, l)
			a.jobQueue = pkgqueue.NewRedisConsumer(l, &pkgqueue.QueueConfig{
				Workers:    a.cfg.Analysis.Queue.Workers,
				RetryLimit: a.cfg.Analysis.Queue.MaxRetries,
				RetryDelay: a.cfg.Analysis.Queue.RetryDelay,
			}, rdb, []pkgqueue.Job{job},
				pkgqueue.WithKeyPrefix("sippulse:queue:"+a.cfg.Analysis.Queue.Name))
			jobsPub = a.jobQueue
		}

		httpHandler = api.NewRankingsEchoHandler(l, rankings, bars, jobsPub, a.healthFn(ctx))
	}

	a.httpServer = xhttp.NewServer(httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	// Start collector
	go func() {
		if err := a.collector.Start(ctx); err != nil {
			l.Error("collector error", applogger.Error(err))
		}
	}()
	l.Info("collector started", applogger.Strings("symbols", a.cfg.Feed.Symbols))

	// Start consumer if configured
	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	// Start analysis job queue if configured
	if a.jobQueue != nil {
		if err := a.jobQueue.Start(); err != nil {
			l.Error("job queue start error", applogger.Error(err))
		} else {
			l.Info("analysis job queue started",
				applogger.Int("workers", a.cfg.Analysis.Queue.Workers))
		}
	}

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// healthFn reports the status of each wired dependency.
func (a *App) healthFn(ctx context.Context) func() map[string]string {
	return func() map[string]string {
		out := map[string]string{"status": "ok"}
		if a.collector != nil {
			if a.collector.IsConnected() {
				out["feed"] = "connected"
			} else {
				out["feed"] = "disconnected"
			}
		}
		if a.chClient != nil {
			if err := a.chClient.DB().PingContext(ctx); err != nil {
				out["clickhouse"] = "down: " + err.Error()
				out["status"] = "degraded"
			} else {
				out["clickhouse"] = "up"
			}
		}
		return out
	}
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	l, err := applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
	if err != nil {
		log.Printf("failed to create logger: %v", err)
		return err
	}
	l.Info("shutting down...")

	// Stop collector (pipeline + stream)
	if err := a.collector.Shutdown(ctx); err != nil {
		l.Warn("collector stop error", applogger.Error(err))
	}

	// Shutdown HTTP server
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	// Stop analysis job queue
	if a.jobQueue != nil {
		if err := a.jobQueue.Stop(shutdownCtx); err != nil {
			l.Warn("job queue stop error", applogger.Error(err))
		}
	}

	// Stop consumer
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// Close bar processor resources; flushes the open bar first
	if a.BarProc != nil {
		a.BarProc.Close()
	}

	// Close infrastructure clients
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	l.Info("shutdown complete")
	return nil
}
