package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/yikao/finfeed/app/api"
	"github.com/yikao/finfeed/app/cfg"
	"github.com/yikao/finfeed/app/collection"
	"github.com/yikao/finfeed/app/collector"
	"github.com/yikao/finfeed/app/database"
	"github.com/yikao/finfeed/app/dedup"
	"github.com/yikao/finfeed/app/synonym"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting FinFeed server", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "migration_version", version, "dirty", dirty)

	sources, err := collector.LoadSources(appCfg.SourcesFile)
	if err != nil {
		slog.Error("Failed to load sources", "file", appCfg.SourcesFile, "error", err)
		os.Exit(1)
	}

	fetchers, err := collector.BuildFetchers(sources, appCfg.UserAgent)
	if err != nil {
		slog.Error("Failed to build fetchers", "error", err)
		os.Exit(1)
	}
	slog.Info("Sources loaded", "configured", len(sources), "enabled", len(fetchers))

	articleRepo := database.NewArticleRepository(db)
	logRepo := database.NewCollectionLogRepository(db)

	engine := synonym.NewEngine(appCfg.SynonymDataDir, appCfg.SynonymSource)
	scorer := dedup.NewScorer(dedup.Config{
		SemanticThreshold:  appCfg.SemanticThreshold,
		SynonymThreshold:   appCfg.SynonymThreshold,
		EnableSynonyms:     appCfg.EnableSynonyms,
		SynonymSource:      appCfg.SynonymSource,
		MaxSynonymsPerWord: 10,
		MaxTokens:          30,
	}, engine)
	dedupService := dedup.NewService(articleRepo, scorer, appCfg.RecentWindow)

	persister := collection.NewPersister(dedupService)
	manager := collection.NewManager(db, articleRepo, logRepo, persister, fetchers)
	runner := collection.NewRunner(manager, appCfg.MaxConcurrency,
		time.Duration(appCfg.CollectorTimeout)*time.Second)

	scheduler := collection.NewScheduler(runner, manager.Sources(),
		time.Duration(appCfg.CollectionInterval)*time.Second)
	scheduler.Start()
	defer scheduler.Stop()
	slog.Info("Collection scheduler started",
		"interval", appCfg.CollectionInterval,
		"max_concurrency", appCfg.MaxConcurrency)

	handler := api.NewHandler(articleRepo, logRepo, manager, runner, appCfg.Version)
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("HTTP server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Scheduler stops via defer, draining in-flight collections.
	slog.Info("Shutdown complete")
}
