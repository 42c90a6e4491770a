package middleware

import (
	stderrors "errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "taskmanager/internal/errors"
)

// ErrorHandler renders every error as an ErrorResponse.
type ErrorHandler struct {
	logger *slog.Logger
}

// NewErrorHandler creates the echo HTTPErrorHandler.
func NewErrorHandler(logger *slog.Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle implements echo.HTTPErrorHandler.
func (h *ErrorHandler) Handle(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, body := h.resolve(err)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(c.Request().Context(), "request failed",
			slog.Any("error", err),
			slog.String("path", c.Request().URL.Path),
			slog.String("method", c.Request().Method),
			slog.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
		)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, body)
}

func (h *ErrorHandler) resolve(err error) (int, apperrors.ErrorResponse) {
	var domainErr *apperrors.Error
	var httpErr *echo.HTTPError
	if !stderrors.As(err, &domainErr) && stderrors.As(err, &httpErr) {
		message := http.StatusText(httpErr.Code)
		if msg, ok := httpErr.Message.(string); ok && httpErr.Code < http.StatusInternalServerError {
			message = msg
		}
		return httpErr.Code, apperrors.ErrorResponse{Message: message, Code: "HTTP_ERROR"}
	}

	mapped := apperrors.MapErrorToHTTP(err)
	return mapped.StatusCode, mapped.ToErrorResponse()
}
