package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newProtectedEcho() *echo.Echo {
	e := echo.New()
	e.Use(JWTMiddleware(testSecret, nil))
	e.GET("/me", func(c echo.Context) error {
		userID, err := UserIDFromContext(c)
		if err != nil {
			return c.String(http.StatusOK, "anonymous")
		}
		return c.String(http.StatusOK, userID)
	})
	return e
}

func TestGenerateTokenClaims(t *testing.T) {
	tokenStr, expiresAt, err := GenerateToken("user-123", testSecret, time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	claims, ok := token.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, "user-123", claims["sub"])
	assert.Equal(t, "user-123", claims["user_id"])
}

func TestGenerateTokenValidation(t *testing.T) {
	_, _, err := GenerateToken("", testSecret, time.Hour)
	assert.Error(t, err)
	_, _, err = GenerateToken("u", "", time.Hour)
	assert.Error(t, err)
	_, _, err = GenerateToken("u", testSecret, 0)
	assert.Error(t, err)
}

func TestJWTMiddlewareValidToken(t *testing.T) {
	e := newProtectedEcho()
	tokenStr, _, err := GenerateToken("user-123", testSecret, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+tokenStr)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-123", rec.Body.String())
}

func TestJWTMiddlewareMissingTokenPassesThrough(t *testing.T) {
	e := newProtectedEcho()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anonymous", rec.Body.String())
}

func TestJWTMiddlewareRejectsInvalidToken(t *testing.T) {
	e := newProtectedEcho()
	tokenStr, _, err := GenerateToken("user-123", "other-secret", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+tokenStr)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUserIDFromContextWithoutToken(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	_, err := UserIDFromContext(c)
	assert.Error(t, err)
}
