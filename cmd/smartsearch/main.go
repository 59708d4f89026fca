package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/liliang-cn/smartsearch/internal/api"
	"github.com/liliang-cn/smartsearch/internal/backend"
	"github.com/liliang-cn/smartsearch/internal/config"
	"github.com/liliang-cn/smartsearch/internal/logging"
	"github.com/liliang-cn/smartsearch/internal/repository"
	"github.com/liliang-cn/smartsearch/internal/service"
)

var (
	configPath = flag.String("config", "", "Path to config file")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Search response cache
	var cache service.SearchCache
	if cfg.Cache.Enabled {
		db, err := repository.NewDB(cfg.Cache.Path)
		if err != nil {
			logger.Fatal("Failed to initialize cache database", zap.Error(err))
		}
		defer db.Close()

		cacheRepo := repository.NewSearchCacheRepository(db)
		removed, err := cacheRepo.Purge(cfg.Cache.TTL)
		if err != nil {
			logger.Warn("Failed to purge search cache", zap.Error(err))
		}
		entries, err := cacheRepo.Count()
		if err != nil {
			logger.Warn("Failed to count search cache entries", zap.Error(err))
		}
		logger.Info("Search cache ready",
			zap.String("path", cfg.Cache.Path),
			zap.Int64("purged", removed),
			zap.Int("entries", entries),
		)
		cache = cacheRepo
	}

	// Backend collaborators
	searchClient, err := backend.NewSearchClient(cfg.Backend.APIURL, cfg.Backend.RequestTimeout, logger.Named("search"))
	if err != nil {
		logger.Fatal("Failed to create search client", zap.Error(err))
	}
	socket := backend.NewSocketClient(backend.SocketConfig{
		URL:            cfg.Backend.SocketURL,
		DialTimeout:    cfg.Backend.DialTimeout,
		ReconnectDelay: cfg.Backend.ReconnectDelay,
		PingInterval:   cfg.Backend.PingInterval,
	}, logger.Named("socket"))

	// Services
	phrases := cfg.Session.TerminalPhrases
	if len(phrases) == 0 {
		phrases = service.DefaultTerminalPhrases
	}
	sessionService := service.NewSessionService(socket, service.NewTerminalClassifier(phrases), logger.Named("session"))
	searchService := service.NewSearchService(searchClient, cache, cfg.Cache.TTL, logger.Named("search"))

	socket.SetHandler(sessionService)
	socketDone := make(chan struct{})
	go func() {
		defer close(socketDone)
		socket.Run(ctx)
	}()

	router := api.SetupRouter(sessionService, searchService, logger, api.RouterConfig{
		APIKey:       cfg.Admin.APIKey,
		AllowOrigins: cfg.CORS.AllowOrigins,
	})

	// WriteTimeout stays unset so the session stream is not cut off.
	// Request contexts end on shutdown, which closes open streams.
	srv := &http.Server{
		Addr:              cfg.Address(),
		Handler:           router,
		BaseContext:       func(net.Listener) context.Context { return ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("Starting SmartSearch server",
			zap.String("address", cfg.Address()),
			zap.String("base_url", cfg.Server.BaseURL),
			zap.String("backend_socket", cfg.Backend.SocketURL),
			zap.String("backend_api", cfg.Backend.APIURL),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	<-socketDone

	logger.Info("Server exited")
}
