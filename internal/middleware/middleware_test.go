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
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const secret = "test-secret"

func sign(t *testing.T, claims JWTClaims, key string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return token
}

func validClaims(roles ...string) JWTClaims {
	return JWTClaims{
		UserID: "u1",
		Name:   "Maja",
		Roles:  roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(handlers...)
	r.GET("/x", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString("user_id"), "roles": c.GetStringSlice("roles")})
	})
	return r
}

func do(r http.Handler, token string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuth(t *testing.T) {
	r := newRouter(JWTAuth(secret))

	w := do(r, sign(t, validClaims("kam"), secret))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":"u1"`)

	assert.Equal(t, http.StatusUnauthorized, do(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, sign(t, validClaims(), "other")).Code)

	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	assert.Equal(t, http.StatusUnauthorized, do(r, sign(t, expired, secret)).Code)

	refresh := validClaims()
	refresh.Type = "refresh"
	assert.Equal(t, http.StatusUnauthorized, do(r, sign(t, refresh, secret)).Code)
}

func TestJWTAuth_QueryToken(t *testing.T) {
	r := newRouter(JWTAuth(secret))
	req := httptest.NewRequest(http.MethodGet, "/x?token="+sign(t, validClaims(), secret), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRole(t *testing.T) {
	r := newRouter(JWTAuth(secret), RequireRole("kam", "masterdata"))

	assert.Equal(t, http.StatusOK, do(r, sign(t, validClaims("masterdata"), secret)).Code)
	assert.Equal(t, http.StatusOK, do(r, sign(t, validClaims(AdminRole), secret)).Code)
	assert.Equal(t, http.StatusForbidden, do(r, sign(t, validClaims("logistics"), secret)).Code)
	assert.Equal(t, http.StatusForbidden, do(r, sign(t, validClaims(), secret)).Code)

	bare := newRouter(RequireRole("kam"))
	assert.Equal(t, http.StatusForbidden, do(bare, "").Code)
}

func TestRequestID(t *testing.T) {
	r := newRouter(RequestID())

	w := do(r, "")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = do(r, "", "X-Request-ID", "abc")
	assert.Equal(t, "abc", w.Header().Get("X-Request-ID"))
}

func TestCORS(t *testing.T) {
	r := newRouter(CORS([]string{"https://planner.example"}))

	w := do(r, "", "Origin", "https://planner.example")
	assert.Equal(t, "https://planner.example", w.Header().Get("Access-Control-Allow-Origin"))

	w = do(r, "", "Origin", "https://evil.example")
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	open := newRouter(CORS(nil))
	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	w = httptest.NewRecorder()
	open.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := newRouter(Logger(zap.New(core)))

	do(r, "")
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "Request", entry.Message)
	assert.Equal(t, int64(200), entry.ContextMap()["status"])
}
