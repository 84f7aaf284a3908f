package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"studio/api/internal/app"
	"studio/api/internal/assets"
	"studio/api/internal/block"
	"studio/api/internal/config"
	"studio/api/internal/content"
	"studio/api/internal/export"
	"studio/api/internal/history"
	"studio/api/internal/presence"
	"studio/api/internal/search"
	"studio/api/internal/template"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	store, err := content.NewStore(ctx, cfg.RedisURL, cfg.ContentKey)
	if err != nil {
		log.Fatalf("redis connection failed: %v", err)
	}
	defer store.Close()

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("invalid redis url: %v", err)
	}
	redisClient := redis.NewClient(opts)
	defer redisClient.Close()

	registry := block.NewDefaultRegistry()
	hist := history.NewManager(redisClient, cfg.VersionKeyPrefix, store)
	catalog := template.NewCatalog()

	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
		defer meiliClient.Close()
	}
	searchService := search.NewService(meiliClient, search.NewMemory())

	var assetStore *assets.Store
	if strings.TrimSpace(cfg.MinioEndpoint) != "" {
		assetStore, err = assets.New(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			log.Printf("WARNING: object storage unavailable, asset uploads disabled: %v", err)
			assetStore = nil
		}
	}

	service := app.NewService(
		cfg,
		store,
		hist,
		registry,
		catalog,
		searchService,
		export.NewService(store, registry),
		assetStore,
		presence.NewRedisBus(redisClient),
	)
	service.Bootstrap(ctx)

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Studio API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	service.Shutdown(shutdownCtx)
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
