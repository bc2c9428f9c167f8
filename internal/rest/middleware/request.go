package middleware

import (
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/types"
	"github.com/gin-gonic/gin"
)

// RequestIDMiddleware propagates the caller's X-Request-ID or assigns one
func RequestIDMiddleware(c *gin.Context) {
	requestID := c.GetHeader(types.HeaderRequestID)
	if requestID == "" {
		requestID = types.GenerateUUID()
	}

	ctx := types.SetRequestID(c.Request.Context(), requestID)
	c.Request = c.Request.WithContext(ctx)
	c.Header(types.HeaderRequestID, requestID)

	c.Next()
}
