package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"StockInsight/pkg/logger"
)

// DataResponse writes the envelope with statusCode as both the HTTP status
// and the body status.
func DataResponse(c echo.Context, statusCode int, data any) error {
	return c.JSON(statusCode, APIResponse{
		Status:  statusCode,
		Message: http.StatusText(statusCode),
		Data:    data,
	})
}

func SuccessResponse(c echo.Context, data any) error {
	return DataResponse(c, http.StatusOK, data)
}

func CreatedResponse(c echo.Context, data any) error {
	return DataResponse(c, http.StatusCreated, data)
}

func NoContentResponse(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}

func BadRequestResponse(c echo.Context, errs []ValidationError) error {
	return DataResponse(c, http.StatusBadRequest, errs)
}

func InternalServerErrorResponse(c echo.Context) error {
	return DataResponse(c, http.StatusInternalServerError, "Something went wrong")
}

// AppErrorResponse writes an *AppError found in err's chain, or a generic 500.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return DataResponse(c, appErr.Status, []*AppError{appErr})
	}
	return InternalServerErrorResponse(c)
}

// ErrorHandler renders errors that escape handlers (unknown routes, bad
// methods, middleware failures) in the same envelope.
func ErrorHandler(log *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		switch {
		case errors.As(err, &he):
			msg, _ := he.Message.(string)
			if msg == "" {
				msg = http.StatusText(he.Code)
			}
			err = NewAppError("ERR_HTTP", "", msg, he.Code)
		default:
			var appErr *AppError
			if !errors.As(err, &appErr) {
				log.Error("unhandled error",
					logger.String("path", c.Path()),
					logger.Error(err))
			}
		}

		_ = AppErrorResponse(c, err)
	}
}
