package api

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"StockInsight/internal/domain/models"
	"StockInsight/internal/service/metrics"
	"StockInsight/internal/service/ratelimit"
	xhttp "StockInsight/pkg/http"
	"StockInsight/pkg/logger"
)

// StockHandler serves market data and the model-backed analyses.
type StockHandler struct {
	resolver StockResolver
	news     NewsAnalyzer
	agent    Agent
	market   MarketAnalyst
	limiter  *ratelimit.Limiter
	logger   *logger.Logger
}

func NewStockHandler(resolver StockResolver, news NewsAnalyzer, agent Agent, market MarketAnalyst, limiter *ratelimit.Limiter, log *logger.Logger) *StockHandler {
	metrics.Register()
	return &StockHandler{
		resolver: resolver,
		news:     news,
		agent:    agent,
		market:   market,
		limiter:  limiter,
		logger:   log.With(logger.String("component", "api")),
	}
}

func (h *StockHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/stock", observe("stock", h.Stock))
	g.GET("/news", observe("news", h.News))
	g.GET("/movers", observe("movers", h.Movers))
	g.POST("/agent", observe("agent", h.Agent), h.limit("agent"))
	g.POST("/sector", observe("sector", h.Sector), h.limit("analysis"))
	g.POST("/relations", observe("relations", h.Relations), h.limit("analysis"))
	g.POST("/ml-notes", observe("ml_notes", h.MLNotes), h.limit("analysis"))
}

func (h *StockHandler) limit(scope string) echo.MiddlewareFunc {
	if h.limiter == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return ratelimit.Middleware(h.limiter, scope, h.logger)
}

// observe records latency and 4xx/5xx responses per endpoint.
func observe(endpoint string, next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		if err != nil || c.Response().Status >= 400 {
			metrics.APIErrors.WithLabelValues(endpoint).Inc()
		}
		return err
	}
}

func (h *StockHandler) fail(c echo.Context, msg string, err error) error {
	appErr := appError(err)
	h.logger.Warn(msg, logger.Int("status", appErr.Status), logger.Error(err))
	return xhttp.AppErrorResponse(c, appErr)
}

// Stock never fails once the ticker validates: the resolver falls back to
// generated data.
func (h *StockHandler) Stock(c echo.Context) error {
	req := &models.StockQuery{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ticker := strings.TrimSpace(req.Ticker)
	if ticker == "" {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("ticker is empty"))
	}
	snap := h.resolver.Resolve(c.Request().Context(), ticker)
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, snap)
}

func (h *StockHandler) News(c echo.Context) error {
	req := &models.NewsQuery{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	articles, err := h.news.FetchAndAnalyze(c.Request().Context(), req.Topic)
	if err != nil {
		return h.fail(c, "news failed", err)
	}
	return xhttp.SuccessResponse(c, articles)
}

func (h *StockHandler) Agent(c echo.Context) error {
	req := &models.AgentRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if strings.TrimSpace(req.Query) == "" {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("query is empty"))
	}
	resp, err := h.agent.Answer(c.Request().Context(), req.Query)
	if err != nil {
		return h.fail(c, "agent failed", err)
	}
	return xhttp.SuccessResponse(c, resp)
}

func (h *StockHandler) Sector(c echo.Context) error {
	req := &models.SectorRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.market.AnalyzeSector(c.Request().Context(), req.Sector)
	if err != nil {
		return h.fail(c, "sector analysis failed", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *StockHandler) Relations(c echo.Context) error {
	req := &models.RelationsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.market.DiscoverRelations(c.Request().Context(), req.AssetList, req.AnalysisType)
	if err != nil {
		return h.fail(c, "relations analysis failed", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *StockHandler) Movers(c echo.Context) error {
	req := &models.MoversQuery{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return xhttp.SuccessResponse(c, h.market.Movers(req.Count, models.MoverDirection(req.Type)))
}

func (h *StockHandler) MLNotes(c echo.Context) error {
	req := &models.MLNotesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	features := req.Features()
	if strings.TrimSpace(req.ModelName) == "" || len(features) == 0 {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("model name and at least one feature are required"))
	}
	res, err := h.market.GenerateMLNotes(c.Request().Context(), req.ModelName, features, req.PerformanceMetrics)
	if err != nil {
		return h.fail(c, "ml notes failed", err)
	}
	return xhttp.SuccessResponse(c, res)
}
