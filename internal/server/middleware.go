package server

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tracelight/casegate/internal/logx"
)

// AuthHeader is the shared-secret header every protected component checks.
const AuthHeader = "X-Casegate-Key"

// CORS returns a Gin middleware that handles Cross-Origin Resource Sharing.
// OPTIONS requests are answered with the allowed origin/method/header set and
// no body, before any auth or routing runs.
func CORS(origins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[strings.TrimRight(o, "/")] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && allowed[strings.TrimRight(origin, "/")] {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
			c.Header("Access-Control-Allow-Methods", "GET, HEAD, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, "+AuthHeader)
			c.Header("Access-Control-Max-Age", "86400")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// HeaderAuth returns a middleware requiring the shared-secret header to
// exactly equal secret. failStatus is the component's authorization failure
// code (401 for the profile store, 403 elsewhere). The check runs before any
// body parsing or storage work.
func HeaderAuth(secret string, failStatus int) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(AuthHeader)
		if got == "" {
			c.AbortWithStatusJSON(failStatus, gin.H{"error": "missing " + AuthHeader + " header"})
			return
		}
		if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			c.AbortWithStatusJSON(failStatus, gin.H{"error": "invalid gateway key"})
			return
		}
		c.Next()
	}
}

// BearerAuth returns a middleware requiring a valid Bearer token. Used by the
// media gateway's upload/delete operations, which carry a secret distinct
// from the shared header scheme.
func BearerAuth(token string) gin.HandlerFunc {
	expected := "Bearer " + token
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "missing Authorization header"})
			return
		}
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Authorization header must use Bearer scheme"})
			return
		}
		if subtle.ConstantTimeCompare([]byte(auth), []byte(expected)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid media token"})
			return
		}
		c.Next()
	}
}

// RequestLog assigns a request ID and logs method, path, status and duration
// once the handler chain completes.
func RequestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Header("X-Request-ID", id)

		start := time.Now()
		c.Next()

		logx.Debugf("http %s %s status=%d dur=%s request_id=%s",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start), id)
	}
}
