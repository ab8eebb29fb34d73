package api

import (
	"net/http"
	"time"

	models "SipPulse/internal/domain/models"
	domrepo "SipPulse/internal/domain/repository"
	"SipPulse/internal/service/metrics"
	"SipPulse/internal/service/ratelimit"
	"SipPulse/internal/usecase"
	xhttp "SipPulse/pkg/http"
	xlogger "SipPulse/pkg/logger"
	"SipPulse/pkg/queue"
	"SipPulse/pkg/util"

	"github.com/labstack/echo/v4"
)

// RankingsEchoHandler implements the Echo-based HTTP API.
type RankingsEchoHandler struct {
	logger   *xlogger.Logger
	rankings *usecase.RankingsUseCase
	bars     *usecase.BarsUseCase
	jobs     queue.QueueService
	health   func() map[string]string
	rl       *ratelimit.Limiter
}

func NewRankingsEchoHandler(
	logger *xlogger.Logger,
	rankings *usecase.RankingsUseCase,
	bars *usecase.BarsUseCase,
	jobs queue.QueueService,
	health func() map[string]string,
) *RankingsEchoHandler {
	metrics.Register()
	return &RankingsEchoHandler{
		logger:   logger,
		rankings: rankings,
		bars:     bars,
		jobs:     jobs,
		health:   health,
		rl:       ratelimit.New(),
	}
}

func (h *RankingsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/rankings", h.Rankings)
	g.GET("/bars", h.Bars)
	g.POST("/analyze", h.Analyze)
	g.GET("/health", h.Health)
}

func (h *RankingsEchoHandler) Rankings(c echo.Context) error {
	start := time.Now()
	endpoint := "rankings"
	defer func() { metrics.AnalysisLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.RankingsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":rankings", 5, 2) {
		h.logger.Warn("rankings rate_limited", xlogger.String("remote", c.RealIP()))
		return c.NoContent(http.StatusTooManyRequests)
	}

	to := util.ParseDateDefault(req.To, util.Day(time.Now()))
	from := util.ParseDateDefault(req.From, to.AddDate(-10, 0, 0))

	res, err := h.rankings.GetRankings(c.Request().Context(), usecase.GetRankingsParams{
		Symbol:    req.Symbol,
		Dimension: domrepo.NormalizeDimension(req.Dimension),
		From:      from,
		To:        to,
	})
	if err != nil {
		metrics.AnalysisErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("rankings usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return xhttp.SuccessResponse(c, res)
}

func (h *RankingsEchoHandler) Bars(c echo.Context) error {
	start := time.Now()
	endpoint := "bars"
	defer func() { metrics.AnalysisLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.BarsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	to := util.ParseDateDefault(req.To, util.Day(time.Now()))
	from := util.ParseDateDefault(req.From, to.AddDate(-1, 0, 0))

	res, err := h.bars.GetBars(c.Request().Context(), usecase.GetBarsParams{
		Symbol: req.Symbol,
		From:   from,
		To:     to,
		Limit:  req.Limit,
	})
	if err != nil {
		metrics.AnalysisErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("bars usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.SuccessResponse(c, res)
}

// Analyze enqueues a background recompute for the symbol and range.
func (h *RankingsEchoHandler) Analyze(c echo.Context) error {
	endpoint := "analyze"
	req := &models.AnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":analyze", 2, 0.5) {
		h.logger.Warn("analyze rate_limited", xlogger.String("remote", c.RealIP()))
		return c.NoContent(http.StatusTooManyRequests)
	}
	if h.jobs == nil {
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, "analysis queue disabled")
	}

	err := h.jobs.PublishMessage(c.Request().Context(), usecase.AnalyzeJobType, usecase.AnalyzePayload{
		Symbol: req.Symbol,
		From:   req.From,
		To:     req.To,
	})
	if err != nil {
		metrics.AnalysisErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("analyze enqueue error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.CreatedResponse(c, map[string]string{"status": "queued", "symbol": req.Symbol})
}

func (h *RankingsEchoHandler) Health(c echo.Context) error {
	if h.health == nil {
		return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
	}
	return xhttp.SuccessResponse(c, h.health())
}
