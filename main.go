package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"nura/go-api/internal/blob"
	"nura/go-api/internal/config"
	"nura/go-api/internal/genai"
	"nura/go-api/internal/store"
)

// newBlobStore builds the configured image store.
func newBlobStore(cfg *config.Config) blob.Store {
	if cfg.BlobBackend == "http" {
		return &blob.HTTP{
			URL:        cfg.StorageURL,
			Key:        cfg.StorageKey,
			Bucket:     cfg.StorageBucket,
			HTTPClient: &http.Client{Timeout: 30 * time.Second},
		}
	}
	return &blob.Disk{Dir: cfg.BlobDir, BaseURL: cfg.PublicBaseURL + "/media"}
}

func main() {
	log.SetPrefix("nura-api: ")
	log.SetFlags(log.LstdFlags | log.Lmsgprefix)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	if cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := store.Open(ctx, cfg.DBURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to open database: %v\n", err)
		os.Exit(1)
	}
	defer repo.Close()
	fmt.Println("DB ready!")

	h := &Handler{
		store:     repo,
		ai:        genai.New(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.AITimeout),
		blobs:     newBlobStore(cfg),
		jwtSecret: []byte(cfg.JWTSecret),
		jwtExpire: cfg.JWTExpire,
		defaultTZ: cfg.DefaultTimezone,
		aiLimiter: newUserLimiter(cfg.AIRatePerMin, cfg.AIBurst),
	}
	if cfg.OpenAIAPIKey == "" {
		log.Printf("[main] OPENAI_API_KEY not set, AI endpoints will return 503")
	}

	fmt.Println("Starting gin app...")

	router := gin.Default()
	router.SetTrustedProxies(nil)
	if cfg.BlobBackend == "disk" {
		router.Static("/media", cfg.BlobDir)
	}
	h.registerRoutes(router)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[main] listen: %v", err)
		}
	}()
	log.Printf("[main] listening on %s", cfg.Addr)

	<-ctx.Done()
	log.Printf("[main] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[main] shutdown: %v", err)
	}
}
