package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ecotrail/api-go/models"
	"github.com/ecotrail/api-go/utils"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(mw gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(RequestLogger(), mw)
	r.GET("/me", func(c *gin.Context) {
		claims := utils.GetUser(c)
		if claims == nil {
			c.JSON(http.StatusOK, gin.H{"user_id": nil})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": claims.UserID, "role": claims.Role})
	})
	return r
}

func token(t *testing.T, id uint, role, secret string, ttl time.Duration) string {
	t.Helper()
	tok, err := utils.GenerateToken(&models.User{ID: id, Role: role}, secret, ttl)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return tok
}

func TestAuthMiddleware(t *testing.T) {
	r := newRouter(AuthMiddleware(testSecret))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"bad format", "Token abc", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + token(t, 1, models.RoleUser, "other", time.Hour), http.StatusUnauthorized},
		{"expired", "Bearer " + token(t, 1, models.RoleUser, testSecret, -time.Hour), http.StatusUnauthorized},
		{"valid", "Bearer " + token(t, 7, models.RoleAdmin, testSecret, time.Hour), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", w.Code, tt.want, w.Body.String())
			}
			if w.Header().Get(RequestIDHeader) == "" {
				t.Error("missing request id header")
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	r := newRouter(OptionalAuth(testSecret))

	tests := []struct {
		name string
		url  string
		auth string
		want string
	}{
		{"anonymous", "/me", "", `{"user_id":null}`},
		{"invalid token stays anonymous", "/me?token=garbage", "", `{"user_id":null}`},
		{"query token", "/me?token=" + token(t, 3, models.RoleUser, testSecret, time.Hour), "", `{"role":"user","user_id":3}`},
		{"header token", "/me", "Bearer " + token(t, 4, models.RoleUser, testSecret, time.Hour), `{"role":"user","user_id":4}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != http.StatusOK || w.Body.String() != tt.want {
				t.Errorf("got %d %s, want %s", w.Code, w.Body.String(), tt.want)
			}
		})
	}
}

func TestRequestIDIsPropagated(t *testing.T) {
	r := newRouter(OptionalAuth(testSecret))
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("request id = %q, want abc-123", got)
	}
}
