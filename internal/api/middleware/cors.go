package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/haneul-labs/complyhub/internal/config"
)

const (
	corsAllowHeaders = "Content-Type, Authorization, X-Requested-With"
	corsAllowMethods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
	corsMaxAge       = "86400"
)

// CORS returns a middleware allowing cross-origin requests from the given
// origins. An empty origin list allows every origin, which is refused in
// production so a misconfigured deployment fails at startup instead of
// serving an open policy.
func CORS(origins []string, env config.Environment, logger zerolog.Logger) (gin.HandlerFunc, error) {
	if len(origins) == 0 {
		if env == config.EnvProduction {
			return nil, fmt.Errorf("cors: CORS_ORIGINS must be set in production")
		}
		logger.Warn().Msg("CORS_ORIGINS is empty, allowing all origins")
	}

	allowed := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		allowed[strings.ToLower(strings.TrimSuffix(origin, "/"))] = struct{}{}
	}

	return func(c *gin.Context) {
		// Responses differ by Origin, so caches must key on it.
		c.Header("Vary", "Origin")

		if origin := c.Request.Header.Get("Origin"); origin != "" {
			_, ok := allowed[strings.ToLower(origin)]
			if ok || len(allowed) == 0 {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Access-Control-Allow-Credentials", "true")
				c.Header("Access-Control-Allow-Headers", corsAllowHeaders)
				c.Header("Access-Control-Allow-Methods", corsAllowMethods)
				c.Header("Access-Control-Max-Age", corsMaxAge)
			}
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}, nil
}
