package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"site-generator-backend/internal/middleware"
	"site-generator-backend/internal/models"
)

const testSecret = "test-secret-key-for-jwt-signing-must-be-long-enough"

func authRouter(t *testing.T, secret string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.AuthMiddleware(secret))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString(middleware.UserIDKey)})
	})
	return router
}

func sign(t *testing.T, method jwt.SigningMethod, claims jwt.MapClaims, key interface{}) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func serve(router *gin.Engine, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	router := authRouter(t, testSecret)
	token := sign(t, jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-123",
		"exp": time.Now().Add(time.Hour).Unix(),
	}, []byte(testSecret))

	w := serve(router, "Bearer "+token)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":"user-123"}`, w.Body.String())
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	router := authRouter(t, testSecret)

	expired := sign(t, jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-123",
		"exp": time.Now().Add(-time.Minute).Unix(),
	}, []byte(testSecret))
	otherSecret := sign(t, jwt.SigningMethodHS256, jwt.MapClaims{"sub": "user-123"}, []byte("another-secret"))
	noSubject := sign(t, jwt.SigningMethodHS256, jwt.MapClaims{"role": "anon"}, []byte(testSecret))
	none := sign(t, jwt.SigningMethodNone, jwt.MapClaims{"sub": "user-123"}, jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name          string
		authorization string
		message       string
	}{
		{"missing header", "", "missing authorization header"},
		{"wrong scheme", "Basic abc", "invalid authorization header format"},
		{"empty token", "Bearer ", "invalid authorization header format"},
		{"garbage", "Bearer invalid-token", "invalid token"},
		{"expired", "Bearer " + expired, "token has expired"},
		{"other secret", "Bearer " + otherSecret, "invalid token"},
		{"alg none", "Bearer " + none, "invalid token"},
		{"no subject", "Bearer " + noSubject, "missing user id in token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(router, tt.authorization)
			require.Equal(t, http.StatusUnauthorized, w.Code)

			var body models.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, "unauthorized", body.Error)
			assert.Equal(t, tt.message, body.Message)
		})
	}
}

func TestAuthMiddleware_NoSecretConfigured(t *testing.T) {
	router := authRouter(t, "")
	token := sign(t, jwt.SigningMethodHS256, jwt.MapClaims{"sub": "user-123"}, []byte("anything"))

	w := serve(router, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
