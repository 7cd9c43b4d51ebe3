package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/lshigami/learnhub/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	authed := r.Group("", Auth(testSecret))
	authed.GET("/me", func(c *gin.Context) {
		identity, ok := IdentityFrom(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": identity.ID, "role": identity.Role})
	})
	authed.GET("/admin", RequireRole(model.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func get(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthAcceptsIssuedToken(t *testing.T) {
	r := newAuthRouter()
	token, err := IssueToken(testSecret, model.Identity{ID: 42, Role: model.RoleStudent}, time.Hour)
	require.NoError(t, err)

	w := get(r, "/me", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":42,"role":"student"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestAuthRejectsBadTokens(t *testing.T) {
	r := newAuthRouter()

	expired, err := IssueToken(testSecret, model.Identity{ID: 1, Role: model.RoleStudent}, -time.Minute)
	require.NoError(t, err)
	foreign, err := IssueToken("other-secret", model.Identity{ID: 1, Role: model.RoleStudent}, time.Hour)
	require.NoError(t, err)
	badRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		Role:             "instructor",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "1"},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		Role:             "student",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "ada"},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		reason string
	}{
		{"missing header", "", "unauthorized"},
		{"expired", expired, "invalid_token"},
		{"wrong secret", foreign, "invalid_token"},
		{"unknown role", badRole, "invalid_token"},
		{"non numeric subject", badSubject, "invalid_token"},
		{"garbage", "not.a.jwt", "invalid_token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(r, "/me", tt.token)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), `"error":"`+tt.reason+`"`)
		})
	}
}

func TestAuthRejectsMalformedHeader(t *testing.T) {
	r := newAuthRouter()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Token abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRole(t *testing.T) {
	r := newAuthRouter()

	student, err := IssueToken(testSecret, model.Identity{ID: 7, Role: model.RoleStudent}, time.Hour)
	require.NoError(t, err)
	admin, err := IssueToken(testSecret, model.Identity{ID: 1, Role: model.RoleAdmin}, time.Hour)
	require.NoError(t, err)

	w := get(r, "/admin", student)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), `"error":"forbidden"`)

	w = get(r, "/admin", admin)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRequestIDPropagatesInboundValue(t *testing.T) {
	r := newAuthRouter()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
}
