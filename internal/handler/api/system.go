package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"StockInsight/internal/domain/models"
	xhttp "StockInsight/pkg/http"
	"StockInsight/pkg/logger"
	"StockInsight/pkg/util"
)

const healthTimeout = 3 * time.Second

// SystemHandler serves the ticker board, the resolution history and /healthz.
// board and history may be nil when their features are off.
type SystemHandler struct {
	board   QuoteBoard
	history ResolutionHistory
	checks  map[string]HealthCheck
	logger  *logger.Logger
}

func NewSystemHandler(board QuoteBoard, history ResolutionHistory, checks map[string]HealthCheck, log *logger.Logger) *SystemHandler {
	return &SystemHandler{board: board, history: history, checks: checks, logger: log.With(logger.String("component", "api"))}
}

func (h *SystemHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	g := e.Group("/api")
	g.GET("/ticker", observe("ticker", h.Ticker))
	g.GET("/resolutions", observe("resolutions", h.Resolutions))
}

type tickerResponse struct {
	Connected bool                 `json:"connected"`
	Quotes    []models.TickerQuote `json:"quotes"`
}

func (h *SystemHandler) Ticker(c echo.Context) error {
	if h.board == nil {
		return xhttp.SuccessResponse(c, tickerResponse{Quotes: []models.TickerQuote{}})
	}
	return xhttp.SuccessResponse(c, tickerResponse{Connected: h.board.IsConnected(), Quotes: h.board.Quotes()})
}

func (h *SystemHandler) Resolutions(c echo.Context) error {
	req := &models.ResolutionsQuery{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if h.history == nil {
		return xhttp.AppErrorResponse(c, xhttp.UnavailableError("resolution history is not configured"))
	}
	events, err := h.history.Recent(c.Request().Context(), util.NormalizeTicker(req.Ticker), req.Limit)
	if err != nil {
		h.logger.Warn("resolution history failed", logger.Error(err))
		return xhttp.AppErrorResponse(c, appError(err))
	}
	return xhttp.SuccessResponse(c, events)
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (h *SystemHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
	defer cancel()

	resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(h.checks))}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			resp.Status = "degraded"
			resp.Checks[name] = err.Error()
			continue
		}
		resp.Checks[name] = "ok"
	}
	if resp.Status != "ok" {
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, resp)
	}
	return xhttp.SuccessResponse(c, resp)
}
