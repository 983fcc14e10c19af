package middlewares

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"delivery-service/internal/domain"
	"delivery-service/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func signToken(t *testing.T, claims jwt.Claims, method jwt.SigningMethod, secret string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func validClaims(role domain.Role) Claims {
	return Claims{
		UserID: 7,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func newAuthRouter(roles ...domain.Role) *gin.Engine {
	r := gin.New()
	handlers := []gin.HandlerFunc{AuthMiddleware(testSecret)}
	if len(roles) > 0 {
		handlers = append(handlers, RequireRole(roles...))
	}
	handlers = append(handlers, func(c *gin.Context) {
		actor, _ := ActorFrom(c)
		c.JSON(http.StatusOK, gin.H{"userId": actor.UserID, "role": actor.Role})
	})
	r.GET("/me", handlers...)
	return r
}

func TestAuthMiddleware(t *testing.T) {
	expired := validClaims(domain.RoleClient)
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	tests := []struct {
		name       string
		header     func(t *testing.T) string
		roles      []domain.Role
		wantStatus int
	}{
		{
			name:       "valid token",
			header:     func(t *testing.T) string { return "Bearer " + signToken(t, validClaims(domain.RoleClient), jwt.SigningMethodHS256, testSecret) },
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing header",
			header:     func(*testing.T) string { return "" },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong secret",
			header:     func(t *testing.T) string { return "Bearer " + signToken(t, validClaims(domain.RoleClient), jwt.SigningMethodHS256, "other") },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "expired token",
			header:     func(t *testing.T) string { return "Bearer " + signToken(t, expired, jwt.SigningMethodHS256, testSecret) },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "unexpected algorithm",
			header:     func(t *testing.T) string { return "Bearer " + signToken(t, validClaims(domain.RoleClient), jwt.SigningMethodHS512, testSecret) },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "role not allowed",
			header:     func(t *testing.T) string { return "Bearer " + signToken(t, validClaims(domain.RoleClient), jwt.SigningMethodHS256, testSecret) },
			roles:      []domain.Role{domain.RoleAdmin},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "role allowed",
			header:     func(t *testing.T) string { return "Bearer " + signToken(t, validClaims(domain.RoleAdmin), jwt.SigningMethodHS256, testSecret) },
			roles:      []domain.Role{domain.RoleAdmin},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if h := tt.header(t); h != "" {
				req.Header.Set("Authorization", h)
			}
			w := httptest.NewRecorder()

			newAuthRouter(tt.roles...).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestRequestLogger_SetsRequestID(t *testing.T) {
	var buf bytes.Buffer
	r := gin.New()
	r.Use(RequestLogger(logger.New(logger.Config{Output: &buf, Format: "json"})))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	assert.Contains(t, buf.String(), `"path":"/ping"`)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

type recordedActivity struct {
	entries []domain.UserActivity
}

func (r *recordedActivity) Record(_ context.Context, a domain.UserActivity) error {
	r.entries = append(r.entries, a)
	return nil
}

func TestActivityTracker(t *testing.T) {
	rec := &recordedActivity{}
	r := gin.New()
	r.Use(func(c *gin.Context) {
		SetActor(c, domain.Actor{UserID: 7, Role: domain.RoleClient})
		c.Next()
	})
	r.Use(ActivityTracker(rec, logger.Nop()))
	r.GET("/orders", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders", nil))

	require.Len(t, rec.entries, 1)
	got := rec.entries[0]
	assert.Equal(t, "GET", got.Method)
	assert.Equal(t, "/orders", got.Path)
	assert.Equal(t, http.StatusOK, got.StatusCode)
	require.NotNil(t, got.UserID)
	assert.Equal(t, uint64(7), *got.UserID)
}

func TestPrometheusMiddleware_PassesThrough(t *testing.T) {
	r := gin.New()
	r.Use(PrometheusMiddleware())
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}
