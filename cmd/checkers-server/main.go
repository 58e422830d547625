package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/park285/Cheese-Checkers/internal/api"
	appcfg "github.com/park285/Cheese-Checkers/internal/config"
	"github.com/park285/Cheese-Checkers/internal/layout"
	"github.com/park285/Cheese-Checkers/internal/msgcat"
	"github.com/park285/Cheese-Checkers/internal/obslog"
	"github.com/park285/Cheese-Checkers/internal/render"
	"github.com/park285/Cheese-Checkers/internal/session"
	"github.com/park285/Cheese-Checkers/internal/syncfast"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	lay, err := layout.Load(cfg.LayoutFile)
	if err != nil {
		logger.Fatal("layout_load_error", zap.String("path", cfg.LayoutFile), zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	store, err := openStore(ctx, cfg)
	if err != nil {
		cancel()
		logger.Fatal("store_init_error", zap.Error(err))
	}
	mgr := session.NewManager(store, lay)

	// 히스토리 저장소: DATABASE_URL 없으면 메모리
	repo, err := openRecorder(ctx, cfg)
	cancel()
	if err != nil {
		_ = store.Close()
		logger.Fatal("repository_init_error", zap.Error(err))
	}
	mgr.AttachRepository(repo)

	if cfg.SyncBaseURL != "" {
		client := syncfast.NewClient(cfg.SyncBaseURL,
			syncfast.WithBearerToken(cfg.SyncToken),
			syncfast.WithRetry(cfg.SyncRetry),
		)
		mgr.OnMove(client.Listener())
		logger.Info("sync_enabled", zap.String("base_url", cfg.SyncBaseURL))
	}

	msgs, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		logger.Fatal("messages_load_error", zap.String("dir", cfg.MessagesDir), zap.Error(err))
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.NewServer(mgr, render.NewRenderer(cfg.RenderSquareSize), msgs, api.WithOriginPatterns(cfg.WSOriginPatterns...)).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server_listen", zap.String("addr", cfg.ListenAddr), zap.String("layout", lay.Name))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("server_shutdown", zap.String("signal", sig.String()))
	case err := <-errCh:
		logger.Error("server_error", zap.Error(err))
	}

	sctx, scancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer scancel()
	err = multierr.Combine(srv.Shutdown(sctx), mgr.Close())
	if err != nil {
		logger.Error("shutdown_error", zap.Error(err))
	}
}

func openStore(ctx context.Context, cfg *appcfg.AppConfig) (session.Store, error) {
	if cfg.RedisURL == "" {
		obslog.L().Warn("store_memory_fallback", zap.String("reason", "REDIS_URL not set"))
		return session.NewMemoryStore(), nil
	}
	rdb, err := session.DialRedis(ctx, cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	return session.NewRedisStore(rdb, cfg.SessionTTL), nil
}

func openRecorder(ctx context.Context, cfg *appcfg.AppConfig) (session.MoveRecorder, error) {
	if cfg.DatabaseURL == "" {
		return session.NewMemoryRecorder(), nil
	}
	repo, err := session.NewRepository(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, multierr.Append(err, repo.Close())
	}
	return repo, nil
}
