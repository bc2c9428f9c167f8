package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/auth"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/config"
	ierr "github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/errors"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/logger"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(RequestIDMiddleware, ErrorHandler(logger.NewNoopLogger()))
	r.Use(handlers...)
	return r
}

func whoAmI(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user_id": types.GetUserID(c.Request.Context())})
}

func TestErrorHandler_RendersHintAndDetails(t *testing.T) {
	r := newEngine()
	r.GET("/fail", func(c *gin.Context) {
		c.Error(ierr.NewError("subscription already cancelled").
			WithHint("This subscription is already cancelled").
			WithReportableDetails(map[string]any{"subscription_id": "subs_1"}).
			Mark(ierr.ErrConflict))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))

	require.Equal(t, http.StatusConflict, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "This subscription is already cancelled", resp.Error.Display)
	assert.Equal(t, "subs_1", resp.Error.Details["subscription_id"])
}

func TestErrorHandler_UnknownErrorIs500(t *testing.T) {
	r := newEngine()
	r.GET("/boom", func(c *gin.Context) {
		c.Error(assert.AnError)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "An unexpected error occurred")
}

func TestRequestIDMiddleware(t *testing.T) {
	r := newEngine()
	r.GET("/id", func(c *gin.Context) {
		c.String(http.StatusOK, types.GetRequestID(c.Request.Context()))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/id", nil)
	req.Header.Set(types.HeaderRequestID, "req-123")
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Body.String())
	assert.Equal(t, "req-123", w.Header().Get(types.HeaderRequestID))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/id", nil))
	assert.NotEmpty(t, w.Body.String())
	assert.Equal(t, w.Body.String(), w.Header().Get(types.HeaderRequestID))
}

func TestAuthenticateMiddleware(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Auth.Secret = "jwt-secret"
	cfg.Auth.APIKey = auth.HashAPIKey("back-office-key")

	r := newEngine(AuthenticateMiddleware(cfg, logger.NewNoopLogger()))
	r.GET("/me", whoAmI)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-42",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("jwt-secret"))
	require.NoError(t, err)

	tests := []struct {
		name     string
		header   string
		value    string
		wantCode int
		wantUser string
	}{
		{name: "bearer token", header: types.HeaderAuthorization, value: "Bearer " + token, wantCode: http.StatusOK, wantUser: "user-42"},
		{name: "api key acts as system", header: types.HeaderAPIKey, value: "back-office-key", wantCode: http.StatusOK, wantUser: types.SystemUserID},
		{name: "wrong api key", header: types.HeaderAPIKey, value: "nope", wantCode: http.StatusUnauthorized},
		{name: "missing credentials", wantCode: http.StatusUnauthorized},
		{name: "not a bearer", header: types.HeaderAuthorization, value: "Basic abc", wantCode: http.StatusUnauthorized},
		{name: "bad token", header: types.HeaderAuthorization, value: "Bearer abc.def.ghi", wantCode: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantUser != "" {
				assert.Contains(t, w.Body.String(), tt.wantUser)
			}
		})
	}
}

func TestWebhookAuthMiddleware(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Webhook.AuthToken = "shared-token"

	r := newEngine(WebhookAuthMiddleware(cfg, logger.NewNoopLogger()))
	r.POST("/hook", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPost, "/hook", nil)
	req.Header.Set(cfg.Webhook.AuthHeader, "shared-token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/hook", nil)
	req.Header.Set(cfg.Webhook.AuthHeader, "guess")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	cfg.Webhook.AuthToken = ""
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/hook", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireSystemUser(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Auth.Secret = "test-secret"
	cfg.Auth.APIKey = auth.HashAPIKey("svc-key")

	r := newEngine(AuthenticateMiddleware(cfg, logger.NewNoopLogger()), RequireSystemUser)
	r.GET("/ops", whoAmI)

	req := httptest.NewRequest(http.MethodGet, "/ops", nil)
	req.Header.Set(types.HeaderAPIKey, "svc-key")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), types.SystemUserID)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "usr_1",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodGet, "/ops", nil)
	req.Header.Set(types.HeaderAuthorization, "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "This operation is restricted to back-office callers", resp.Error.Display)
}
