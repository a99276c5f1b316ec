package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Helpers
// =============================================================================

// testHandler is a simple handler that always answers 200.
func testHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// =============================================================================
// AuthMiddleware Tests
// =============================================================================

func TestAuthMiddleware_NoToken_AllowsAll(t *testing.T) {
	handler := NewAuthMiddleware(AuthConfig{}).Handler(testHandler())

	rec := serve(handler, httptest.NewRequest("GET", "/api/v1/runs", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddleware_BearerToken_Valid(t *testing.T) {
	handler := NewAuthMiddleware(AuthConfig{Token: "s3cret"}).Handler(testHandler())

	req := httptest.NewRequest("GET", "/api/v1/runs", nil)
	req.Header.Set("Authorization", "Bearer s3cret")

	assert.Equal(t, http.StatusOK, serve(handler, req).Code)
}

func TestAuthMiddleware_HeaderToken_Valid(t *testing.T) {
	handler := NewAuthMiddleware(AuthConfig{Token: "s3cret"}).Handler(testHandler())

	req := httptest.NewRequest("GET", "/api/v1/runs", nil)
	req.Header.Set(HeaderAPIToken, "s3cret")

	assert.Equal(t, http.StatusOK, serve(handler, req).Code)
}

func TestAuthMiddleware_Token_Missing(t *testing.T) {
	handler := NewAuthMiddleware(AuthConfig{Token: "s3cret"}).Handler(testHandler())

	rec := serve(handler, httptest.NewRequest("GET", "/api/v1/runs", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "unauthorized", resp.Code)
}

func TestAuthMiddleware_Token_Invalid(t *testing.T) {
	handler := NewAuthMiddleware(AuthConfig{Token: "s3cret"}).Handler(testHandler())

	req := httptest.NewRequest("GET", "/api/v1/runs", nil)
	req.Header.Set("Authorization", "Bearer wrong")

	rec := serve(handler, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestTokenFromRequest(t *testing.T) {
	tests := []struct {
		name   string
		header string
		value  string
		want   string
	}{
		{"bearer", "Authorization", "Bearer abc", "abc"},
		{"basic is ignored", "Authorization", "Basic abc", ""},
		{"api token header", HeaderAPIToken, " abc ", "abc"},
		{"none", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			assert.Equal(t, tt.want, TokenFromRequest(req))
		})
	}
}

// =============================================================================
// Request Logging Tests
// =============================================================================

func TestRequestLogger_LogsStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	handler := RequestLogger(logger)(testHandler())
	rec := serve(handler, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, buf.String(), "path=/health")
	assert.Contains(t, buf.String(), "status=200")
}
