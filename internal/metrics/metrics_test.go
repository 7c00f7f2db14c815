package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestMiddlewareCountsRequests(t *testing.T) {
	m := New()

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/api/v1/tasks", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", m.Handler())

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", w.Code)
	}

	body := w.Body.String()
	if !strings.Contains(body, `complyhub_http_requests_total{method="GET",route="/api/v1/tasks",status="200"} 3`) {
		t.Errorf("request counter missing or wrong:\n%s", body)
	}
	if !strings.Contains(body, "complyhub_http_request_duration_seconds") {
		t.Error("duration histogram missing")
	}
}

func TestNewIsReentrant(t *testing.T) {
	// Each Metrics carries its own registry; constructing two must not
	// panic on duplicate registration.
	_ = New()
	_ = New()
}
