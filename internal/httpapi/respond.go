package httpapi

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"eventhub-api/internal/apperr"
)

// errorBody is the envelope of every failed response.
type errorBody struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Error      string `json:"error"`
}

func abortStatus(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, errorBody{
		StatusCode: status,
		Message:    message,
		Error:      http.StatusText(status),
	})
}

// fail writes err as an envelope. Internal errors are logged and masked.
func fail(c *gin.Context, err error) {
	status, message := apperr.Public(err)
	if status == http.StatusInternalServerError {
		loggerFrom(c).Error("request failed",
			"error", err,
			"method", c.Request.Method,
			"path", c.FullPath(),
			"request_id", c.GetString(requestIDKey),
		)
	}
	abortStatus(c, status, message)
}

// bindJSON decodes the request body into dst. An empty body leaves dst
// untouched so that partial updates may send nothing.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		abortStatus(c, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// pathID parses a positive integer path parameter.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		abortStatus(c, http.StatusBadRequest, "Validation failed (numeric string is expected)")
		return 0, false
	}
	return id, true
}

// pageNumber reads the page query parameter; absent means 1.
func pageNumber(c *gin.Context) (int, bool) {
	raw := c.Query("page")
	if raw == "" {
		return 1, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		abortStatus(c, http.StatusBadRequest, "page must be an integer")
		return 0, false
	}
	return n, true
}

func loggerFrom(c *gin.Context) *slog.Logger {
	if l, ok := c.Get(loggerKey); ok {
		if logger, ok := l.(*slog.Logger); ok {
			return logger
		}
	}
	return slog.Default()
}
