// Package server はHTTPサーバーの管理を提供する。
package server

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oyaguma3/access-sync/apps/access-sync/internal/config"
	"github.com/oyaguma3/access-sync/apps/access-sync/internal/handler"
)

// Server は施行APIのHTTPサーバー。
type Server struct {
	engine    *gin.Engine
	server    *http.Server
	addr      string
	rateRPS   float64
	rateBurst int
}

// New は新しいServerを生成する。
// 書き込みタイムアウトは1リクエストで行うコンセントレータ呼び出しの合計時間から決める。
func New(cfg *config.Config, h *handler.AccessHandler) *Server {
	gin.SetMode(cfg.GinMode)

	engine := gin.New()
	engine.Use(TraceIDMiddleware())
	engine.Use(LoggingMiddleware())
	engine.Use(RecoveryMiddleware())

	SetupRouter(engine, h, NewLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst))

	return &Server{
		engine: engine,
		server: &http.Server{
			Handler:           engine,
			ReadHeaderTimeout: config.ReadHeaderTimeout,
			WriteTimeout:      writeTimeout(cfg.RouterTimeout()),
		},
		addr:      cfg.ListenAddr,
		rateRPS:   cfg.RateLimitRPS,
		rateBurst: cfg.RateLimitBurst,
	}
}

// writeTimeout はコンセントレータ呼び出しが全てタイムアウトしても応答を書ける時間を返す。
func writeTimeout(routerTimeout time.Duration) time.Duration {
	return routerTimeout*config.MaxCallsPerRequest + config.ReadHeaderTimeout
}

// Handler はHTTPハンドラーを返す。
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run はListenAddrで待ち受けを開始する。
func (s *Server) Run() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve は指定したリスナーでリクエストを処理する。Shutdownまで戻らない。
func (s *Server) Serve(ln net.Listener) error {
	slog.Info("starting server",
		"addr", ln.Addr().String(),
		"rate_limit_rps", s.rateRPS,
		"rate_limit_burst", s.rateBurst,
		"write_timeout_ms", s.server.WriteTimeout.Milliseconds(),
	)
	return s.server.Serve(ln)
}

// Shutdown は処理中のリクエストの完了を待ってサーバーを停止する。
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("shutting down server")
	return s.server.Shutdown(ctx)
}
