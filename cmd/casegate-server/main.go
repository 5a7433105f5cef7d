package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/tracelight/casegate/internal/docstore"
	"github.com/tracelight/casegate/internal/logx"
	"github.com/tracelight/casegate/internal/redact"
	"github.com/tracelight/casegate/internal/server"
	"github.com/tracelight/casegate/internal/server/db"
	"github.com/tracelight/casegate/internal/version"
)

func main() {
	showVersion := flag.Bool("version", false, "Print version and exit")
	verbose := flag.Bool("verbose", false, "Enable verbose debug logs (same as --log-level debug)")
	logLevel := flag.String("log-level", "", "Log level: debug|info|warn|error (or CASEGATE_LOG_LEVEL)")
	envFile := flag.String("env-file", ".env", "Path to .env file (skipped if not found)")
	flag.BoolVar(showVersion, "v", false, "Print version and exit")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s\n\n", version.String("casegate-server"))
		fmt.Fprintf(os.Stderr, "Casegate fronts the case-management app's secrets, profiles, documents and media.\n\n")
		fmt.Fprintf(os.Stderr, "Environment variables:\n")
		fmt.Fprintf(os.Stderr, "  CASEGATE_GATEWAY_KEY         Shared-secret API key (min 16 chars, required)\n")
		fmt.Fprintf(os.Stderr, "  CASEGATE_ACCESS_PASSWORD     Access password, plaintext or bcrypt hash (required)\n")
		fmt.Fprintf(os.Stderr, "  CASEGATE_MEDIA_TOKEN         Bearer token for media upload/delete (required)\n")
		fmt.Fprintf(os.Stderr, "  CASEGATE_MEDIA_SIGNING_KEY   HMAC key for signed media URLs (min 16 chars, required)\n")
		fmt.Fprintf(os.Stderr, "  CASEGATE_DB_PATH             SQLite database path (default: casegate.db)\n")
		fmt.Fprintf(os.Stderr, "  CASEGATE_LISTEN_ADDR         Listen address (default: :8080)\n")
		fmt.Fprintf(os.Stderr, "  CASEGATE_DOCS_BACKEND        Document backend: minio|memory (default: minio)\n")
		fmt.Fprintf(os.Stderr, "  CASEGATE_S3_ENDPOINT         S3/MinIO endpoint for the document store\n")
		fmt.Fprintf(os.Stderr, "  CASEGATE_CORS_ORIGINS        Comma-separated allowed origins\n")
		fmt.Fprintf(os.Stderr, "  CASEGATE_LOG_LEVEL           Log level: debug|info|warn|error (default: info)\n")
		fmt.Fprintf(os.Stderr, "\nFlags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("casegate-server"))
		os.Exit(0)
	}

	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		log.Fatalf("load env file: %v", err)
	}

	if err := logx.Configure(*logLevel, *verbose); err != nil {
		log.Fatalf("configure logging: %v", err)
	}

	cfg, err := server.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Every secret the process holds is scrubbed from log output, whatever
	// path it takes to get there.
	logWriter := redact.NewWriter(os.Stderr, cfg.SecretValues())
	logx.SetOutput(logWriter)
	log.SetOutput(logWriter)

	store, err := db.NewStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer store.Close()

	var docs docstore.Store
	switch cfg.DocsBackend {
	case "memory":
		logx.Warnf("document store backend is in-memory; documents will not survive a restart")
		docs = docstore.NewMemory()
	default:
		docs, err = docstore.NewMinio(context.Background(), cfg.Docs)
		if err != nil {
			log.Fatalf("open document store: %v", err)
		}
	}

	r := server.NewRouter(cfg, store, docs)
	logx.Infof("server config: docs_backend=%s cors_origins=%d", cfg.DocsBackend, len(cfg.CORSOrigins))

	log.Printf("casegate-server listening on %s", cfg.ListenAddr)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
