package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"transitmap/internal/config"
	"transitmap/internal/domain"
	"transitmap/internal/handler"
	"transitmap/internal/hub"
	"transitmap/internal/layout"
	"transitmap/internal/loader"
	"transitmap/internal/metrics"
	"transitmap/internal/repository"
	"transitmap/internal/repository/memory"
	"transitmap/internal/repository/sqlite"
	"transitmap/internal/service"
	"transitmap/internal/watcher"
)

func main() {
	// Command line flags
	configPath := flag.String("config", "", "Config file path (default: search standard locations)")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	ephemeral := flag.Bool("ephemeral", false, "Keep layout versions in memory only")
	initConfig := flag.Bool("init-config", false, "Write a default config file and exit")
	flag.Parse()

	if *initConfig {
		path, err := writeDefaultConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote default config to %s\n", path)
		return
	}

	cfg, loadedFrom, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}
	if *ephemeral {
		cfg.Database.Ephemeral = true
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if loadedFrom != "" {
		logger.Info("Starting transit map server", zap.String("config", loadedFrom))
	} else {
		logger.Info("Starting transit map server with default config")
	}
	logger.Info(cfg.Summary())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
	logger.Info("Server stopped")
}

func loadConfig(path string) (*config.Config, string, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

// writeDefaultConfig saves the defaults to path, or to the standard location
// when path is empty. An existing file is never overwritten.
func writeDefaultConfig(path string) (string, error) {
	if path == "" {
		path = config.DefaultConfigPath()
	}
	if _, err := os.Stat(path); err == nil {
		return path, fmt.Errorf("%s already exists", path)
	}
	return path, config.DefaultConfig().Save(path)
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	// Reference data. Any dataset that cannot be loaded is fatal.
	ld := loader.New(cfg.Data.FetchTimeout.Duration(), logger.Named("loader"))
	network, err := ld.Load(ctx, sourcesFromConfig(cfg.Data))
	if err != nil {
		return fmt.Errorf("load reference data: %w", err)
	}

	kv, err := openStore(cfg.Database, logger)
	if err != nil {
		return err
	}
	defer kv.Close()

	collector := metrics.NewCollector("transitmap")

	// Event bus to SSE hub
	eventBus := service.NewEventBus()
	sseHub := hub.New(logger.Named("hub"))
	sseHub.SetObserver(collector)
	hubCtx, hubCancel := context.WithCancel(context.Background())
	defer hubCancel()
	go sseHub.Run(hubCtx)

	eventChan := make(chan service.Event, 100)
	eventBus.Subscribe(eventChan)
	go func() {
		for {
			select {
			case event := <-eventChan:
				sseHub.Broadcast(event)
			case <-hubCtx.Done():
				return
			}
		}
	}()

	store := layout.NewStore(kv, cfg.Storage.VersionsKey)
	logger.Info("Layout versions stored", zap.String("key", store.Key()))

	session := service.NewSession(ctx, network, store, eventBus,
		service.WithLogger(logger.Named("session")),
		service.WithMetrics(collector),
	)

	if cfg.Inbox.Dir != "" {
		inbox := watcher.New(cfg.Inbox.Dir, watcher.ImporterFunc(func(ctx context.Context, _ string, payload []byte) error {
			_, err := session.ImportAsNewVersion(ctx, payload)
			return err
		}), logger.Named("inbox")).
			WithDebounce(cfg.Inbox.Debounce.Duration()).
			WithObserver(collector)

		go func() {
			if err := inbox.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Inbox watcher stopped", zap.Error(err))
			}
		}()
	}

	router := handler.NewRouter(handler.RouterConfig{
		Map:            handler.NewMapHandler(session, logger.Named("api")),
		Events:         sseHub,
		MetricsHandler: collector.Handler(),
		Observer:       collector,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         logger.Named("http"),
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration(),
		WriteTimeout: cfg.Server.WriteTimeout.Duration(),
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening", zap.String("addr", cfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...", zap.Int("sse_clients", sseHub.ClientCount()))

	// SSE streams never finish on their own; close them before draining
	hubCancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Server shutdown error", zap.Error(err))
	}
	return nil
}

func sourcesFromConfig(data config.DataConfig) loader.Sources {
	src := loader.Sources{
		Coordinates: data.Coordinates,
		Colors:      data.Colors,
	}
	for _, s := range data.Sources {
		src.Datasets = append(src.Datasets, loader.Dataset{
			Kind:     domain.StationKind(s.Type),
			Location: s.Path,
		})
	}
	return src
}

func openStore(cfg config.DatabaseConfig, logger *zap.Logger) (repository.KeyValueStore, error) {
	if cfg.Ephemeral {
		logger.Warn("Layout versions are kept in memory and lost on exit")
		return memory.New(), nil
	}
	repo, err := sqlite.New(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	logger.Info("Database opened", zap.String("path", cfg.Path))
	return repo, nil
}
