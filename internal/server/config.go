package server

import (
	"fmt"
	"os"
	"strings"

	"github.com/tracelight/casegate/internal/docstore"
)

// secretEnvNames is the allow-list of secret names the broker may resolve,
// mapped to the environment variables that provision them. Anything outside
// this table is rejected at lookup time.
var secretEnvNames = map[string]string{
	"maps-api-key":     "CASEGATE_SECRET_MAPS_API_KEY",
	"captcha-site-key": "CASEGATE_SECRET_CAPTCHA_SITE_KEY",
	"media-public-key": "CASEGATE_SECRET_MEDIA_PUBLIC_KEY",
}

// Config holds server configuration loaded from environment variables. It is
// immutable after LoadConfig and injected into the router, never read as
// ambient globals by handlers.
type Config struct {
	ListenAddr  string
	DBPath      string
	CORSOrigins []string

	// Shared-secret header auth. GatewayKey is the default; the per-component
	// keys fall back to it when unset.
	GatewayKey  string
	SecretsKey  string
	ProfilesKey string
	DocsKey     string

	// Secret broker.
	AccessPassword string
	Secrets        map[string]string

	// Document store.
	DocsBackend string // "minio" or "memory"
	Docs        docstore.MinioConfig

	// Media gateway.
	MediaToken      string
	MediaSigningKey string
	MediaURLBase    string
	MediaUploadURL  string
	MediaDeleteURL  string
	MediaCDNKey     string

	// CAPTCHA verification proxy.
	CaptchaSecret    string
	CaptchaVerifyURL string
}

// LoadConfig loads server configuration from environment variables.
func LoadConfig() (*Config, error) {
	gatewayKey := os.Getenv("CASEGATE_GATEWAY_KEY")
	if gatewayKey == "" {
		return nil, fmt.Errorf("CASEGATE_GATEWAY_KEY is required")
	}
	if len(gatewayKey) < 16 {
		return nil, fmt.Errorf("CASEGATE_GATEWAY_KEY must be at least 16 characters")
	}

	accessPassword := os.Getenv("CASEGATE_ACCESS_PASSWORD")
	if accessPassword == "" {
		return nil, fmt.Errorf("CASEGATE_ACCESS_PASSWORD is required")
	}

	mediaToken := os.Getenv("CASEGATE_MEDIA_TOKEN")
	if mediaToken == "" {
		return nil, fmt.Errorf("CASEGATE_MEDIA_TOKEN is required")
	}

	signingKey := os.Getenv("CASEGATE_MEDIA_SIGNING_KEY")
	if signingKey == "" {
		return nil, fmt.Errorf("CASEGATE_MEDIA_SIGNING_KEY is required")
	}
	if len(signingKey) < 16 {
		return nil, fmt.Errorf("CASEGATE_MEDIA_SIGNING_KEY must be at least 16 characters")
	}

	dbPath := os.Getenv("CASEGATE_DB_PATH")
	if dbPath == "" {
		dbPath = "casegate.db"
	}

	listenAddr := os.Getenv("CASEGATE_LISTEN_ADDR")
	if listenAddr == "" {
		listenAddr = ":8080"
	}

	docsBackend := strings.TrimSpace(strings.ToLower(os.Getenv("CASEGATE_DOCS_BACKEND")))
	switch docsBackend {
	case "":
		docsBackend = "minio"
	case "minio", "memory":
	default:
		return nil, fmt.Errorf("CASEGATE_DOCS_BACKEND must be minio or memory")
	}

	var corsOrigins []string
	if v := os.Getenv("CASEGATE_CORS_ORIGINS"); v != "" {
		for _, o := range strings.Split(v, ",") {
			o = strings.TrimSpace(o)
			if o != "" {
				corsOrigins = append(corsOrigins, o)
			}
		}
	}

	secrets := make(map[string]string)
	for name, env := range secretEnvNames {
		if v := os.Getenv(env); v != "" {
			secrets[name] = v
		}
	}

	mediaURLBase := os.Getenv("CASEGATE_MEDIA_URL_BASE")
	if mediaURLBase == "" {
		mediaURLBase = "https://ik.imagekit.io/casegate"
	}
	mediaUploadURL := os.Getenv("CASEGATE_MEDIA_UPLOAD_URL")
	if mediaUploadURL == "" {
		mediaUploadURL = "https://upload.imagekit.io/api/v1/files/upload"
	}
	mediaDeleteURL := os.Getenv("CASEGATE_MEDIA_DELETE_URL")
	if mediaDeleteURL == "" {
		mediaDeleteURL = "https://api.imagekit.io/v1/files"
	}

	captchaVerifyURL := os.Getenv("CASEGATE_CAPTCHA_VERIFY_URL")
	if captchaVerifyURL == "" {
		captchaVerifyURL = "https://api.hcaptcha.com/siteverify"
	}

	cfg := &Config{
		ListenAddr:  listenAddr,
		DBPath:      dbPath,
		CORSOrigins: corsOrigins,

		GatewayKey:  gatewayKey,
		SecretsKey:  envOr("CASEGATE_SECRETS_KEY", gatewayKey),
		ProfilesKey: envOr("CASEGATE_PROFILES_KEY", gatewayKey),
		DocsKey:     envOr("CASEGATE_DOCS_KEY", gatewayKey),

		AccessPassword: accessPassword,
		Secrets:        secrets,

		DocsBackend: docsBackend,
		Docs: docstore.MinioConfig{
			Endpoint:  os.Getenv("CASEGATE_S3_ENDPOINT"),
			AccessKey: os.Getenv("CASEGATE_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("CASEGATE_S3_SECRET_KEY"),
			Bucket:    os.Getenv("CASEGATE_S3_BUCKET"),
		},

		MediaToken:      mediaToken,
		MediaSigningKey: signingKey,
		MediaURLBase:    mediaURLBase,
		MediaUploadURL:  mediaUploadURL,
		MediaDeleteURL:  mediaDeleteURL,
		MediaCDNKey:     os.Getenv("CASEGATE_MEDIA_CDN_KEY"),

		CaptchaSecret:    os.Getenv("CASEGATE_CAPTCHA_SECRET"),
		CaptchaVerifyURL: captchaVerifyURL,
	}

	if cfg.DocsBackend == "minio" {
		if cfg.Docs.Endpoint == "" || cfg.Docs.AccessKey == "" || cfg.Docs.SecretKey == "" || cfg.Docs.Bucket == "" {
			return nil, fmt.Errorf("CASEGATE_S3_ENDPOINT, CASEGATE_S3_ACCESS_KEY, CASEGATE_S3_SECRET_KEY and CASEGATE_S3_BUCKET are required with the minio backend")
		}
	}

	return cfg, nil
}

// SecretValues returns every value that must never appear in log output.
func (c *Config) SecretValues() []string {
	vals := []string{
		c.GatewayKey, c.SecretsKey, c.ProfilesKey, c.DocsKey,
		c.MediaToken, c.MediaSigningKey, c.MediaCDNKey,
		c.CaptchaSecret, c.Docs.SecretKey,
	}
	for _, v := range c.Secrets {
		vals = append(vals, v)
	}
	if !strings.HasPrefix(c.AccessPassword, "$2") {
		vals = append(vals, c.AccessPassword)
	}
	return vals
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
