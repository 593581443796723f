package logging

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/kittycad/kittycad-go/option"
)

// HTTPMiddleware logs every API round trip at debug level.
func HTTPMiddleware(logger *slog.Logger) option.Middleware {
	return func(req *http.Request, next option.MiddlewareNext) (*http.Response, error) {
		start := time.Now()
		res, err := next(req)
		attrs := []any{
			"method", req.Method,
			"path", req.URL.Path,
			"duration", time.Since(start).Round(time.Millisecond),
		}
		if err != nil {
			logger.Debug("api request failed", append(attrs, "error", err)...)
			return res, err
		}
		logger.Debug("api request", append(attrs, "status", res.StatusCode, "request_id", res.Header.Get("X-Request-Id"))...)
		return res, nil
	}
}
