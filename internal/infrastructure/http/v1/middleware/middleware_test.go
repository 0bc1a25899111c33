package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"batteryshop/internal/core/apperror"
	appctx "batteryshop/internal/core/context"
	"batteryshop/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(Recovery(), Trace(), Logger(logger.Nop()), ErrorHandler())
	r.GET("/x", handlers...)
	return r
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRecovery_RendersInternalError(t *testing.T) {
	r := newEngine(func(c *gin.Context) { panic("boom") })

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, apperror.CodeInternal, body["code"])
	assert.NotContains(t, rec.Body.String(), "boom")
}

func TestTrace_EchoesRequestID(t *testing.T) {
	var seen string
	r := newEngine(func(c *gin.Context) {
		seen = appctx.GetRequestID(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(HeaderRequestID, "req-42")
	rec := serve(r, req)

	assert.Equal(t, "req-42", seen)
	assert.Equal(t, "req-42", rec.Header().Get(HeaderRequestID))
	assert.NotEmpty(t, rec.Header().Get(HeaderTraceID))
}

type staticValidator struct{ user *appctx.UserContext }

func (v staticValidator) ValidateToken(string) (*appctx.UserContext, error) {
	if v.user == nil {
		return nil, apperror.NewUnauthorized("invalid token")
	}
	return v.user, nil
}

func TestAuthAndPermission(t *testing.T) {
	admin := &appctx.UserContext{UserID: "root", IsAdmin: true}
	clerk := &appctx.UserContext{UserID: "clerk"}

	cases := []struct {
		name   string
		header string
		user   *appctx.UserContext
		status int
	}{
		{name: "no header", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", user: admin, status: http.StatusUnauthorized},
		{name: "rejected token", header: "Bearer t", status: http.StatusUnauthorized},
		{name: "missing permission", header: "Bearer t", user: clerk, status: http.StatusForbidden},
		{name: "admin", header: "Bearer t", user: admin, status: http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newEngine(
				Auth(staticValidator{user: tc.user}),
				RequirePermission("sales:create"),
				func(c *gin.Context) { c.Status(http.StatusNoContent) },
			)
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			assert.Equal(t, tc.status, serve(r, req).Code)
		})
	}
}

func TestTrace_ReplacesUnsafeRequestID(t *testing.T) {
	r := newEngine(func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(HeaderRequestID, "bad id\twith spaces")
	rec := serve(r, req)

	got := rec.Header().Get(HeaderRequestID)
	assert.NotEmpty(t, got)
	assert.NotEqual(t, "bad id\twith spaces", got)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer  abc ", "abc", true},
		{"", "", false},
		{"Basic abc", "", false},
		{"Bearer", "", false},
		{"Bearer   ", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			token, err := bearerToken(tt.header)
			if !tt.ok {
				assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.token, token)
		})
	}
}
