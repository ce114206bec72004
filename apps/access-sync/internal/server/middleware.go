package server

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/oyaguma3/access-sync/apps/access-sync/internal/handler"
	"github.com/oyaguma3/access-sync/pkg/httputil"
	"golang.org/x/time/rate"
)

const traceIDHeader = "X-Trace-ID"

// TraceIDMiddleware はX-Trace-IDヘッダからトレースIDを取得する。
// ヘッダがない場合は新しく採番し、レスポンスヘッダにも設定する。
func TraceIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(traceIDHeader)
		if traceID == "" {
			traceID = uuid.NewString()
		}
		c.Set(handler.TraceIDKey, traceID)
		c.Header(traceIDHeader, traceID)
		c.Next()
	}
}

// LoggingMiddleware はリクエストログを出力する。
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)
		slog.Info("request completed",
			"trace_id", c.GetString(handler.TraceIDKey),
			"method", c.Request.Method,
			"path", c.FullPath(),
			"http_status", c.Writer.Status(),
			"latency_ms", latency.Milliseconds(),
		)
	}
}

// RecoveryMiddleware はパニックからの復旧を行う。
func RecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				traceID := c.GetString(handler.TraceIDKey)
				slog.Error("panic recovered",
					"trace_id", traceID,
					"error", err,
				)
				httputil.AbortWithError(c, httputil.InternalServerError("An unexpected error occurred").WithTraceID(traceID))
			}
		}()
		c.Next()
	}
}

// RateLimitMiddleware はコンセントレータ保護のためリクエスト流量を制限する。
func RateLimitMiddleware(limiter *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			traceID := c.GetString(handler.TraceIDKey)
			slog.Warn("rate limit exceeded",
				"trace_id", traceID,
				"path", c.FullPath(),
			)
			httputil.AbortWithError(c, httputil.TooManyRequests("rate limit exceeded").WithTraceID(traceID))
			return
		}
		c.Next()
	}
}

// NewLimiter は設定値からトークンバケットを生成する。rpsが0以下の場合は無制限。
func NewLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}
