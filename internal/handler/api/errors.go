package api

import (
	"errors"
	"net/http"

	"StockInsight/internal/usecase"
	xhttp "StockInsight/pkg/http"
)

// appError maps usecase failures onto HTTP errors. The cause is kept for
// logging but never rendered.
func appError(err error) *xhttp.AppError {
	var agentErr *usecase.AgentError
	switch {
	case errors.Is(err, usecase.ErrNoAgentBackend),
		errors.Is(err, usecase.ErrNoAnalysisBackend),
		errors.Is(err, usecase.ErrHistoryUnavailable):
		return xhttp.UnavailableError("this feature is not configured").WithError(err)
	case errors.As(err, &agentErr):
		return xhttp.UpstreamError("the assistant could not answer").
			WithParam("backend", agentErr.Backend).
			WithError(err)
	case errors.Is(err, usecase.ErrTransactionNotFound):
		return xhttp.NotFoundError("transaction not found").WithError(err)
	case errors.Is(err, usecase.ErrInvalidDate):
		return xhttp.NewAppError("ERR_INVALID_DATE", "date", "date is not a recognised timestamp", http.StatusBadRequest).WithError(err)
	}
	return xhttp.UpstreamError("upstream request failed").WithError(err)
}
