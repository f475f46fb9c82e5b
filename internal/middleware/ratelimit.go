package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const rateLimitKeyPrefix = "zisaku:rate:submit:"

// RateLimitMiddleware throttles how often one user may hit the submit
// endpoint, using a fixed-window counter in Redis. This guards the
// transport against floods and is independent of the per-problem
// submission limit the judge enforces: the judge's limit is contest
// policy, this one is abuse protection.
//
// When Redis is unreachable the request is let through: losing the
// throttle is preferable to taking submissions down with the cache.
func RateLimitMiddleware(client *redis.Client, max int, window time.Duration, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil || max <= 0 {
			c.Next()
			return
		}

		userID, ok := GetUserID(c)
		if !ok {
			// The auth middleware runs first; without an identity
			// there is nothing meaningful to key the counter on.
			c.Next()
			return
		}

		key := rateLimitKeyPrefix + userID.String()
		count, err := client.Incr(c.Request.Context(), key).Result()
		if err != nil {
			logger.Warn("Rate limit check failed, allowing request",
				zap.Error(err),
				zap.String("user_id", userID.String()),
			)
			c.Next()
			return
		}
		if count == 1 {
			client.Expire(c.Request.Context(), key, window)
		}

		if int(count) > max {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many submissions, slow down",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
