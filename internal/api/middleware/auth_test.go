package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/haneul-labs/complyhub/internal/auth"
	"github.com/haneul-labs/complyhub/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(tokens Verifier, adminOnly bool) *gin.Engine {
	r := gin.New()
	group := r.Group("/", RequireUser(tokens))
	if adminOnly {
		group.Use(RequireAdmin())
	}
	group.GET("/whoami", func(c *gin.Context) {
		p, _ := GetPrincipal(c)
		c.JSON(http.StatusOK, gin.H{"user_id": p.UserID, "org_id": p.OrgID, "role": p.Role})
	})
	return r
}

func issueToken(t *testing.T, m *auth.TokenManager, role models.UserRole) (*models.User, string) {
	t.Helper()
	user := &models.User{ID: uuid.New(), OrgID: uuid.New(), Role: role}
	pair, err := m.IssuePair(user)
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}
	return user, pair.AccessToken
}

func TestRequireUser(t *testing.T) {
	m := auth.NewTokenManager("test-secret", time.Minute, time.Hour)
	r := newTestRouter(m, false)

	t.Run("MissingHeader", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		r.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("MalformedHeader", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Basic abc123")
		r.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("GarbageToken", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		r.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("RefreshTokenRejected", func(t *testing.T) {
		user := &models.User{ID: uuid.New(), OrgID: uuid.New(), Role: models.UserRoleMember}
		pair, err := m.IssuePair(user)
		if err != nil {
			t.Fatalf("IssuePair: %v", err)
		}
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer "+pair.RefreshToken)
		r.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("ValidToken", func(t *testing.T) {
		_, token := issueToken(t, m, models.UserRoleMember)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
	})
}

func TestRequireAdmin(t *testing.T) {
	m := auth.NewTokenManager("test-secret", time.Minute, time.Hour)
	r := newTestRouter(m, true)

	t.Run("MemberForbidden", func(t *testing.T) {
		_, token := issueToken(t, m, models.UserRoleMember)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		r.ServeHTTP(w, req)
		if w.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", w.Code)
		}
	})

	t.Run("AdminAllowed", func(t *testing.T) {
		_, token := issueToken(t, m, models.UserRoleAdmin)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
	})
}
