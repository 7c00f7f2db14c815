package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/haneul-labs/complyhub/internal/api/middleware"
	"github.com/haneul-labs/complyhub/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type routeRegistrar interface {
	RegisterRoutes(r *gin.RouterGroup)
}

// newTestRouter builds a router with the handler's routes mounted under
// /api/v1 and the given principal injected, skipping real token validation.
func newTestRouter(h routeRegistrar, p *middleware.Principal) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if p != nil {
			c.Set(middleware.PrincipalContextKey, *p)
		}
		c.Next()
	})
	api := r.Group("/api/v1")
	h.RegisterRoutes(api)
	return r
}

func doJSON(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req, _ = http.NewRequest(method, path, nil)
	} else {
		req, _ = http.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(w, req)
	return w
}

func memberPrincipal(orgID uuid.UUID) *middleware.Principal {
	return &middleware.Principal{UserID: uuid.New(), OrgID: orgID, Role: models.UserRoleMember}
}

func adminPrincipal(orgID uuid.UUID) *middleware.Principal {
	return &middleware.Principal{UserID: uuid.New(), OrgID: orgID, Role: models.UserRoleAdmin}
}

// mockRecorder captures audit trail entries.
type mockRecorder struct {
	activities []*models.Activity
	err        error
}

func (m *mockRecorder) Record(_ context.Context, activity *models.Activity) error {
	if m.err != nil {
		return m.err
	}
	m.activities = append(m.activities, activity)
	return nil
}

func (m *mockRecorder) lastType() models.ActivityType {
	if len(m.activities) == 0 {
		return ""
	}
	return m.activities[len(m.activities)-1].Type
}
