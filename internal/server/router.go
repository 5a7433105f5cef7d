package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tracelight/casegate/internal/broker"
	"github.com/tracelight/casegate/internal/docstore"
	"github.com/tracelight/casegate/internal/server/db"
	"github.com/tracelight/casegate/internal/server/handler"
	"github.com/tracelight/casegate/internal/signer"
)

// NewRouter builds the HTTP surface: health check, secret broker, profile
// store, document store, media gateway and captcha proxy, each behind its own
// auth middleware.
func NewRouter(cfg *Config, store *db.Store, docs docstore.Store) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLog())
	r.Use(CORS(cfg.CORSOrigins))
	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
	})

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	b := broker.New(cfg.Secrets, cfg.AccessPassword)
	urlSigner := signer.New([]byte(cfg.MediaSigningKey), cfg.MediaURLBase, signer.DefaultTTL)

	v1 := r.Group("/v1")

	secrets := v1.Group("/secrets", HeaderAuth(cfg.SecretsKey, http.StatusForbidden))
	secrets.POST("/verify-auth-password", handler.HandleVerifyPassword(b))
	secrets.GET("/:name", handler.HandleGetSecret(b))

	profiles := v1.Group("/profiles", HeaderAuth(cfg.ProfilesKey, http.StatusUnauthorized))
	profiles.GET("/:uid", handler.HandleGetProfile(store))
	profiles.PUT("/:uid", handler.HandlePutProfile(store))
	profiles.DELETE("/:uid", handler.HandleDeleteProfile(store))

	documents := v1.Group("/documents", HeaderAuth(cfg.DocsKey, http.StatusForbidden))
	documents.GET("/*path", handler.HandleGetDocument(docs))
	documents.HEAD("/*path", handler.HandleHeadDocument(docs))
	documents.PUT("/*path", handler.HandlePutDocument(docs))
	documents.DELETE("/*path", handler.HandleDeleteDocument(docs))

	media := v1.Group("/media")
	media.GET("/sign/*path", handler.HandleMediaSign(urlSigner))
	media.POST("", BearerAuth(cfg.MediaToken), handler.HandleMediaUpload(cfg.MediaUploadURL, cfg.MediaCDNKey))
	media.DELETE("/:asset_id", BearerAuth(cfg.MediaToken), handler.HandleMediaDelete(cfg.MediaDeleteURL, cfg.MediaCDNKey))

	v1.POST("/captcha", handler.HandleCaptchaVerify(cfg.CaptchaSecret, cfg.CaptchaVerifyURL))

	return r
}
