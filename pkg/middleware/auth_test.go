package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// fakeToken implements Token
type fakeToken struct {
	data map[string]interface{}
}

func (t *fakeToken) Claims(v interface{}) error {
	if mm, ok := v.(*map[string]interface{}); ok {
		*mm = t.data
		return nil
	}
	return fmt.Errorf("unsupported claims type")
}

// fakeVerifier implements Verifier
type fakeVerifier struct{}

func (f *fakeVerifier) Verify(ctx context.Context, raw string) (Token, error) {
	if raw == "goodtoken" {
		return &fakeToken{data: map[string]interface{}{"sub": "alice", "institutionId": "hospitalA"}}, nil
	}
	return nil, fmt.Errorf("invalid token")
}

func serve(g *gin.Engine, path, authz string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rw := httptest.NewRecorder()
	g.ServeHTTP(rw, req)
	return rw
}

func TestAuthMiddleware_NoHeader(t *testing.T) {
	g := gin.New()
	g.GET("/", AuthMiddleware(&fakeVerifier{}), func(c *gin.Context) { c.Status(http.StatusOK) })

	rw := serve(g, "/", "")
	require.Equal(t, http.StatusUnauthorized, rw.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rw.Body.Bytes(), &body))
	require.Equal(t, false, body["success"])
}

func TestAuthMiddleware_InvalidHeader(t *testing.T) {
	g := gin.New()
	g.GET("/", AuthMiddleware(&fakeVerifier{}), func(c *gin.Context) { c.Status(http.StatusOK) })

	require.Equal(t, http.StatusUnauthorized, serve(g, "/", "BadHeader").Code)
	require.Equal(t, http.StatusUnauthorized, serve(g, "/", "Bearer badtoken").Code)
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	g := gin.New()
	g.GET("/", AuthMiddleware(&fakeVerifier{}), func(c *gin.Context) {
		claims, ok := c.Get(ClaimsKey)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"claims": claims})
	})

	rw := serve(g, "/", "Bearer goodtoken")
	require.Equal(t, http.StatusOK, rw.Code)
	var got map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(rw.Body.Bytes(), &got))
	require.Equal(t, "alice", got["claims"]["sub"])
}

func TestInstitutionScope(t *testing.T) {
	g := gin.New()
	g.GET("/institutions/:institutionId/workers", AuthMiddleware(&fakeVerifier{}), InstitutionScope(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	require.Equal(t, http.StatusOK, serve(g, "/institutions/hospitalA/workers", "Bearer goodtoken").Code)
	require.Equal(t, http.StatusForbidden, serve(g, "/institutions/schoolB/workers", "Bearer goodtoken").Code)
}

func TestRequestID(t *testing.T) {
	g := gin.New()
	g.Use(RequestID())
	g.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("requestId")) })

	rw := serve(g, "/", "")
	require.NotEmpty(t, rw.Header().Get(RequestIDHeader))
	require.Equal(t, rw.Header().Get(RequestIDHeader), rw.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rw = httptest.NewRecorder()
	g.ServeHTTP(rw, req)
	require.Equal(t, "abc-123", rw.Header().Get(RequestIDHeader))
}
