package middleware

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"marketplace/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimit is a fixed-window limiter keyed by client IP and route,
// backed by redis INCR/EXPIRE. A nil client disables it; redis errors
// fail open so an unavailable redis never takes the API down.
func RateLimit(rdb *redis.Client, limit int64, window time.Duration) gin.HandlerFunc {
	if rdb == nil || limit <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		key := fmt.Sprintf("rl:%s:%s", c.FullPath(), c.ClientIP())
		ctx := c.Request.Context()

		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			log.Printf("ratelimit: incr failed, failing open: %v", err)
			c.Next()
			return
		}
		if count == 1 {
			if err := rdb.Expire(ctx, key, window).Err(); err != nil {
				log.Printf("ratelimit: expire failed: %v", err)
			}
		}

		if count > limit {
			response.AbortError(c, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests, try again later")
			return
		}

		c.Next()
	}
}
