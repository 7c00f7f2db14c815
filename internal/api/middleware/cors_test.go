package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/haneul-labs/complyhub/internal/config"
)

func corsRouter(t *testing.T, origins []string, env config.Environment) *gin.Engine {
	t.Helper()
	handler, err := CORS(origins, env, zerolog.Nop())
	if err != nil {
		t.Fatalf("CORS: %v", err)
	}
	r := gin.New()
	r.Use(handler)
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestCORS(t *testing.T) {
	origins := []string{"https://app.complyhub.io"}

	t.Run("allowed origin echoed", func(t *testing.T) {
		r := corsRouter(t, origins, config.EnvDevelopment)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("Origin", "https://app.complyhub.io")
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.complyhub.io" {
			t.Errorf("Access-Control-Allow-Origin = %q", got)
		}
	})

	t.Run("unknown origin gets no allow headers", func(t *testing.T) {
		r := corsRouter(t, origins, config.EnvDevelopment)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("Access-Control-Allow-Origin = %q, want empty", got)
		}
	})

	t.Run("preflight short-circuits", func(t *testing.T) {
		r := corsRouter(t, origins, config.EnvDevelopment)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
		req.Header.Set("Origin", "https://app.complyhub.io")
		r.ServeHTTP(w, req)

		if w.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want 204", w.Code)
		}
		if got := w.Header().Get("Access-Control-Allow-Methods"); got == "" {
			t.Error("missing Access-Control-Allow-Methods on preflight")
		}
	})

	t.Run("empty origins refused in production", func(t *testing.T) {
		if _, err := CORS(nil, config.EnvProduction, zerolog.Nop()); err == nil {
			t.Fatal("expected an error for open CORS in production")
		}
	})

	t.Run("empty origins allow all outside production", func(t *testing.T) {
		r := corsRouter(t, nil, config.EnvDevelopment)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("Origin", "https://anything.example.com")
		r.ServeHTTP(w, req)

		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://anything.example.com" {
			t.Errorf("Access-Control-Allow-Origin = %q", got)
		}
	})
}
