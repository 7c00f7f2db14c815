package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RateLimit returns a middleware capping each client IP at limit requests
// per period. Counters live in process memory, so the cap applies per
// server instance.
func RateLimit(limit int64, period time.Duration) gin.HandlerFunc {
	instance := limiter.New(memory.NewStore(), limiter.Rate{
		Period: period,
		Limit:  limit,
	})
	return mgin.NewMiddleware(instance)
}
