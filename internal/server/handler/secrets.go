package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tracelight/casegate/internal/broker"
)

// HandleGetSecret handles GET /v1/secrets/:name. The response is the bare
// provisioned value; unknown names get a 404 that never echoes any value.
func HandleGetSecret(b *broker.Broker) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := strings.TrimSpace(c.Param("name"))
		if name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "secret name is required"})
			return
		}

		value, err := b.GetSecret(name)
		if err != nil {
			if errors.Is(err, broker.ErrUnknownSecret) {
				c.JSON(http.StatusNotFound, gin.H{"error": "unknown secret name"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve secret"})
			return
		}

		c.String(http.StatusOK, value)
	}
}

type verifyPasswordRequest struct {
	Password string `json:"password"`
}

// HandleVerifyPassword handles POST /v1/secrets/verify-auth-password. The
// response shape is identical for every outcome; only the boolean changes.
func HandleVerifyPassword(b *broker.Broker) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req verifyPasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"ok": b.VerifyPassword(req.Password)})
	}
}
