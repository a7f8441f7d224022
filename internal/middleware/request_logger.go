package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/dealer-ledger/pkg/logger"
)

// quietRoutes are polled by load balancers and not worth a line each
var quietRoutes = map[string]bool{
	"/api/v1/health": true,
}

// RequestLogger writes one line per request. The level follows the status:
// Error for 5xx, Warn for 4xx and Info otherwise.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if quietRoutes[route] {
			return
		}
		if route == "" {
			route = "unmatched"
		}

		status := c.Writer.Status()
		attrs := []any{
			slog.String("method", c.Request.Method),
			slog.String("route", route),
			slog.String("path", c.Request.URL.RequestURI()),
			slog.Int("status", status),
			slog.Int("bytes", c.Writer.Size()),
			slog.Duration("latency", time.Since(start)),
			slog.String("ip", c.ClientIP()),
			slog.String("request_id", GetRequestID(c)),
		}
		if username := c.GetString(ctxUsername); username != "" {
			attrs = append(attrs, slog.String("user", username), slog.String("role", GetUserRole(c)))
		}
		if errs := c.Errors.ByType(gin.ErrorTypePrivate).String(); errs != "" {
			attrs = append(attrs, slog.String("error", errs))
		}

		switch {
		case status >= 500:
			logger.Log.Error("Request failed", attrs...)
		case status >= 400:
			logger.Log.Warn("Request rejected", attrs...)
		default:
			logger.Log.Info("Request served", attrs...)
		}
	}
}
