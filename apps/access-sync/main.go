// Package main はAccess Syncのエントリーポイント。
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/oyaguma3/access-sync/apps/access-sync/internal/concentrator"
	"github.com/oyaguma3/access-sync/apps/access-sync/internal/config"
	"github.com/oyaguma3/access-sync/apps/access-sync/internal/disconnect"
	"github.com/oyaguma3/access-sync/apps/access-sync/internal/enforcement"
	"github.com/oyaguma3/access-sync/apps/access-sync/internal/handler"
	"github.com/oyaguma3/access-sync/apps/access-sync/internal/policy"
	"github.com/oyaguma3/access-sync/apps/access-sync/internal/server"
	"github.com/oyaguma3/access-sync/apps/access-sync/internal/store"
	"github.com/oyaguma3/access-sync/pkg/logging"
)

func main() {
	// 1. 設定読み込み
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// 2. ロガー初期化
	initLogger(cfg)

	// 3. 施行ポリシー
	pol, err := policy.FromConfig(cfg)
	if err != nil {
		slog.Error("invalid enforcement policy", "error", err)
		os.Exit(1)
	}

	slog.Info("starting access-sync",
		"listen_addr", cfg.ListenAddr,
		"log_level", cfg.LogLevel,
		"router", cfg.RouterBaseURL(),
		"session_termination", cfg.SessionTermination,
		"lock_enabled", cfg.LockEnabled,
	)

	// 4. 排他ロック
	ctx := context.Background()
	locker := store.NewNoopLocker()
	if cfg.LockEnabled {
		vc, err := store.NewValkeyClient(ctx, cfg)
		if err != nil {
			slog.Error("failed to connect to valkey", "error", err)
			os.Exit(1)
		}
		defer vc.Close()
		locker = store.NewLocker(vc, config.LockTTL)
	}

	// 5. 施行エンジン
	fields := logging.NewFields(logging.NewMasker(cfg.LogMaskUsername))
	var terminator enforcement.SessionTerminator
	if cfg.UsesRADIUSDisconnect() {
		terminator = disconnect.NewTerminator(cfg)
	}
	engine := enforcement.NewEngine(concentrator.NewManager(cfg), pol, terminator, fields)

	// 6. ハンドラー
	accessHandler := handler.NewAccessHandler(engine, locker, fields)

	// 7. サーバー起動
	srv := server.New(cfg, accessHandler)

	// 8. Graceful Shutdown設定
	go func() {
		if err := srv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// 9. シグナル待機
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(ctx, config.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("server stopped")
}

// initLogger はロガーを初期化する。
func initLogger(cfg *config.Config) {
	level := slog.LevelInfo
	switch strings.ToUpper(cfg.LogLevel) {
	case "DEBUG":
		level = slog.LevelDebug
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	h := slog.NewJSONHandler(os.Stdout, opts)
	logger := slog.New(h).With("app", "access-sync")
	slog.SetDefault(logger)
}
