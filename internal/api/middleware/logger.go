package middleware

import (
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// sensitiveParam reports whether a query parameter may carry a credential.
// Matching is by suffix so variants like refresh_token or api_key are caught
// without listing each one.
func sensitiveParam(name string) bool {
	name = strings.ToLower(name)
	if name == "password" {
		return true
	}
	for _, suffix := range [...]string{"token", "secret", "key", "signature"} {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// redactQueryString replaces values of credential-bearing query parameters
// with [REDACTED] before the query reaches the logs.
func redactQueryString(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}

	params, err := url.ParseQuery(rawQuery)
	if err != nil {
		return rawQuery
	}

	redacted := false
	for name, values := range params {
		if !sensitiveParam(name) {
			continue
		}
		for i := range values {
			values[i] = "[REDACTED]"
		}
		params[name] = values
		redacted = true
	}

	if !redacted {
		return rawQuery
	}
	return params.Encode()
}

// RequestLogger returns a middleware that logs one line per request with
// zerolog, leveled by response status.
func RequestLogger(logger zerolog.Logger) gin.HandlerFunc {
	log := logger.With().Str("component", "http").Logger()

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := redactQueryString(c.Request.URL.RawQuery)

		c.Next()

		status := c.Writer.Status()

		var event *zerolog.Event
		switch {
		case status >= 500:
			event = log.Error()
		case status >= 400:
			event = log.Warn()
		default:
			event = log.Info()
		}

		if len(c.Errors) > 0 {
			event = event.Str("errors", c.Errors.String())
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", query).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Int("body_size", c.Writer.Size()).
			Msg("request")
	}
}
