package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnableCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	tests := []struct {
		name        string
		allowed     []string
		method      string
		origin      string
		wantCode    int
		wantOrigin  string
		wantMethods string
	}{
		{name: "preflight any origin", method: http.MethodOptions, origin: "http://reader.local",
			wantCode: http.StatusNoContent, wantOrigin: "*", wantMethods: "GET, POST, PUT, DELETE, OPTIONS"},
		{name: "wildcard entry", allowed: []string{"*"}, method: http.MethodGet, origin: "http://reader.local",
			wantCode: http.StatusTeapot, wantOrigin: "*", wantMethods: "GET, POST, PUT, DELETE, OPTIONS"},
		{name: "listed origin is reflected", allowed: []string{"https://admin.school.vn"}, method: http.MethodOptions,
			origin: "https://admin.school.vn", wantCode: http.StatusNoContent, wantOrigin: "https://admin.school.vn",
			wantMethods: "GET, POST, PUT, DELETE, OPTIONS"},
		{name: "unlisted origin preflight", allowed: []string{"https://admin.school.vn"}, method: http.MethodOptions,
			origin: "https://evil.example", wantCode: http.StatusForbidden},
		{name: "unlisted origin simple request", allowed: []string{"https://admin.school.vn"}, method: http.MethodGet,
			origin: "https://evil.example", wantCode: http.StatusTeapot},
		{name: "same origin request", allowed: []string{"https://admin.school.vn"}, method: http.MethodGet,
			wantCode: http.StatusTeapot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/routes", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.method == http.MethodOptions {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			rec := httptest.NewRecorder()
			EnableCORS(tt.allowed, next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.wantMethods, rec.Header().Get("Access-Control-Allow-Methods"))
			assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))
			assert.Contains(t, rec.Header().Values("Vary"), "Origin")
			if tt.wantOrigin != "" {
				assert.Equal(t, "Content-Type", rec.Header().Get("Access-Control-Allow-Headers"))
			}
		})
	}
}

func TestCompress(t *testing.T) {
	body := strings.Repeat(`{"name":"stop"},`, 200)
	h := Compress(DefaultCompressionConfig(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
	assert.Less(t, rec.Body.Len(), len(body))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Content-Encoding"))
	assert.Equal(t, body, rec.Body.String())
}

func TestRateLimiter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(0.001, 2)
	t.Cleanup(rl.Stop)

	r := gin.New()
	r.POST("/checkin", rl.Handler(), func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/checkin", nil)
		req.RemoteAddr = ip + ":4000"
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, send("10.0.0.1").Code)

	rec := send("10.0.0.1")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"status":"error","message":"Rate limit exceeded"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// other clients have their own budget
	assert.Equal(t, http.StatusOK, send("10.0.0.2").Code)
}

func TestRateLimiterDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(0, 0)
	t.Cleanup(rl.Stop)

	r := gin.New()
	r.GET("/", rl.Handler(), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 20; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}
