package middleware

import (
	"net/http"
	"strings"

	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/auth"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/config"
	ierr "github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/errors"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/logger"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/types"
	"github.com/gin-gonic/gin"
)

// AuthenticateMiddleware authenticates requests based on either:
// 1. API key in the x-api-key header, for back-office callers acting as the system user
// 2. JWT token in the Authorization header as a Bearer token
// It sets the user ID in the request context for downstream handlers
func AuthenticateMiddleware(cfg *config.Configuration, logger *logger.Logger) gin.HandlerFunc {
	authProvider := auth.NewProvider(cfg)

	return func(c *gin.Context) {
		if apiKey := c.GetHeader(types.HeaderAPIKey); apiKey != "" {
			if !auth.ValidateAPIKey(cfg, apiKey) {
				logger.Debugw("invalid api key", "path", c.FullPath())
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid API key"})
				return
			}
			ctx := types.SetUserID(c.Request.Context(), types.SystemUserID)
			c.Request = c.Request.WithContext(ctx)
			c.Next()
			return
		}

		authHeader := c.GetHeader(types.HeaderAuthorization)
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			return
		}

		claims, err := authProvider.ValidateToken(c.Request.Context(), tokenString)
		if err != nil {
			logger.Debugw("failed to validate token", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		ctx := types.SetUserID(c.Request.Context(), claims.UserID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireSystemUser admits only callers authenticated with the API key.
// Must run after AuthenticateMiddleware.
func RequireSystemUser(c *gin.Context) {
	if types.GetUserID(c.Request.Context()) != types.SystemUserID {
		c.Error(ierr.NewError("system access required").
			WithHint("This operation is restricted to back-office callers").
			WithReportableDetails(map[string]any{"path": c.FullPath()}).
			Mark(ierr.ErrPermissionDenied))
		c.Abort()
		return
	}
	c.Next()
}

// WebhookAuthMiddleware checks the shared token the gateway sends with each
// delivery. An empty configured token disables the check.
func WebhookAuthMiddleware(cfg *config.Configuration, logger *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		expected := cfg.Webhook.AuthToken
		if expected == "" {
			c.Next()
			return
		}

		if !auth.SecureCompare(c.GetHeader(cfg.Webhook.AuthHeader), expected) {
			logger.Warnw("webhook rejected, token mismatch",
				"remote_ip", c.ClientIP(),
				"request_id", types.GetRequestID(c.Request.Context()),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid webhook token"})
			return
		}
		c.Next()
	}
}
