package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizex-academy/portal-api/internal/models"
	"github.com/bizex-academy/portal-api/internal/service"
)

const testSecret = "middleware-test-secret"

func signToken(t *testing.T, role models.UserRole, expiry time.Duration) string {
	t.Helper()
	now := time.Now().UTC()
	claims := &models.JWTClaims{
		UserID: "user-1",
		Role:   role,
		Email:  "admin@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func protectedRouter(roles ...models.UserRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	authService := service.NewAuthService(nil, nil, nil, service.AuthConfig{
		AccessTokenSecret: testSecret,
		AccessTokenExpiry: 15 * time.Minute,
	})
	router := gin.New()
	group := router.Group("/", JWT(authService))
	if len(roles) > 0 {
		group.Use(RequireRoles(roles...))
	}
	group.GET("/ping", func(c *gin.Context) {
		claims, _ := CurrentClaims(c)
		c.JSON(http.StatusOK, gin.H{"user_id": claims.UserID})
	})
	return router
}

func TestJWTRejectsMissingAndMalformedHeaders(t *testing.T) {
	router := protectedRouter()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Token abc")
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTRejectsExpiredToken(t *testing.T) {
	router := protectedRouter()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, models.RoleAdmin, -time.Minute))
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRolesEnforcesAllowedRoles(t *testing.T) {
	router := protectedRouter(models.RoleAdmin, models.RoleStaff)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, models.RoleMentor, time.Minute))
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, models.RoleStaff, time.Minute))
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
