package api

import (
	"github.com/labstack/echo/v4"

	"StockInsight/internal/domain/models"
	xhttp "StockInsight/pkg/http"
	"StockInsight/pkg/logger"
)

// PortfolioHandler serves the transaction ledger, its valuation and the
// watchlist.
type PortfolioHandler struct {
	portfolio Portfolio
	watchlist Watchlist
	logger    *logger.Logger
}

func NewPortfolioHandler(portfolio Portfolio, watchlist Watchlist, log *logger.Logger) *PortfolioHandler {
	return &PortfolioHandler{portfolio: portfolio, watchlist: watchlist, logger: log.With(logger.String("component", "api"))}
}

func (h *PortfolioHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/portfolio", observe("portfolio", h.Valuation))
	g.GET("/portfolio/transactions", observe("transactions", h.Transactions))
	g.POST("/portfolio/transactions", observe("transactions", h.AddTransaction))
	g.DELETE("/portfolio/transactions/:id", observe("transactions", h.RemoveTransaction))
	g.GET("/watchlist", observe("watchlist", h.Watchlist))
	g.POST("/watchlist", observe("watchlist", h.Watch))
	g.DELETE("/watchlist/:ticker", observe("watchlist", h.Unwatch))
}

func (h *PortfolioHandler) fail(c echo.Context, msg string, err error) error {
	h.logger.Warn(msg, logger.Error(err))
	return xhttp.AppErrorResponse(c, appError(err))
}

func (h *PortfolioHandler) Valuation(c echo.Context) error {
	p, err := h.portfolio.Valuation(c.Request().Context())
	if err != nil {
		return h.fail(c, "portfolio valuation failed", err)
	}
	return xhttp.SuccessResponse(c, p)
}

func (h *PortfolioHandler) Transactions(c echo.Context) error {
	txs, err := h.portfolio.Transactions(c.Request().Context())
	if err != nil {
		return h.fail(c, "list transactions failed", err)
	}
	return xhttp.SuccessResponse(c, txs)
}

func (h *PortfolioHandler) AddTransaction(c echo.Context) error {
	req := &models.TransactionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tx, err := h.portfolio.AddTransaction(c.Request().Context(), *req)
	if err != nil {
		return h.fail(c, "add transaction failed", err)
	}
	return xhttp.CreatedResponse(c, tx)
}

func (h *PortfolioHandler) RemoveTransaction(c echo.Context) error {
	if err := h.portfolio.RemoveTransaction(c.Request().Context(), c.Param("id")); err != nil {
		return h.fail(c, "remove transaction failed", err)
	}
	return xhttp.NoContentResponse(c)
}

func (h *PortfolioHandler) Watchlist(c echo.Context) error {
	list, err := h.watchlist.List(c.Request().Context())
	if err != nil {
		return h.fail(c, "list watchlist failed", err)
	}
	return xhttp.SuccessResponse(c, list)
}

func (h *PortfolioHandler) Watch(c echo.Context) error {
	req := &models.WatchlistRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	list, err := h.watchlist.Add(c.Request().Context(), req.Ticker)
	if err != nil {
		return h.fail(c, "watch failed", err)
	}
	return xhttp.SuccessResponse(c, list)
}

func (h *PortfolioHandler) Unwatch(c echo.Context) error {
	list, err := h.watchlist.Remove(c.Request().Context(), c.Param("ticker"))
	if err != nil {
		return h.fail(c, "unwatch failed", err)
	}
	return xhttp.SuccessResponse(c, list)
}
