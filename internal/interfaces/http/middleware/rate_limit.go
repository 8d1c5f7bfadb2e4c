package middleware

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	domainerrors "qomex.backend/internal/domain/errors"
	"qomex.backend/internal/interfaces/http/response"
	"qomex.backend/pkg/logger"
	"qomex.backend/pkg/redis"
)

var incrWindow = redis.IncrWindow

// RateLimitMiddleware allows max requests per client IP per fixed window.
// Redis failures let the request through.
func RateLimitMiddleware(name string, max int64, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if max <= 0 || window <= 0 {
			c.Next()
			return
		}

		key := fmt.Sprintf("ratelimit:%s:%s", name, c.ClientIP())
		count, err := incrWindow(c.Request.Context(), key, window)
		if err != nil {
			logger.Warn(c.Request.Context(), "rate limiter unavailable", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		if count > max {
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			response.AbortError(c, domainerrors.TooManyRequests("too many requests"))
			return
		}
		c.Next()
	}
}
