package runner

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nao1215/taskbot/internal/config"
	"github.com/nao1215/taskbot/pkg/httpserver"
	"github.com/nao1215/taskbot/pkg/middleware"
)

// RunPath は実行を起動するエンドポイント。
const RunPath = "/api/v1/run"

// Server はタスクランナーのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// runner は実行本体。
	runner *Runner
	// cfg は次の実行に使う設定。チーム設定の再読み込みで差し替わる。
	cfg atomic.Pointer[config.Config]
	// logger はロガー。
	logger *zap.Logger
}

// NewServer は新しいランナーサーバーを生成する。
func NewServer(cfg *config.Config, runner *Runner, logger *zap.Logger) (*Server, error) {
	if cfg.SecretToken == "" {
		return nil, errors.New("SECRET_TOKENが設定されていません")
	}

	router := gin.New()
	router.Use(middleware.Recovery(logger))
	router.Use(gin.Logger())

	s := &Server{
		router: router,
		port:   cfg.Port,
		runner: runner,
		logger: logger,
	}
	s.cfg.Store(cfg)
	s.setupRoutes(cfg.SecretToken)

	return s, nil
}

// SetConfig は次の実行から使う設定を差し替える。実行中の処理には影響しない。
func (s *Server) SetConfig(cfg *config.Config) {
	s.cfg.Store(cfg)
	s.logger.Info("設定を差し替え", zap.Strings("teams", cfg.Teams()))
}

// Run はHTTPサーバーを起動し、ctxが終了したら処理中のリクエストを待って停止する。
func (s *Server) Run(ctx context.Context) error {
	return httpserver.Run(ctx, ":"+s.port, s.router, s.logger)
}

// Handler はHTTPハンドラを返す。テストで使用する。
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes(secret string) {
	s.router.GET(RunPath, middleware.SecretToken(secret), s.handleRun())

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "runner"})
	})
}

// handleRun は1回の実行を行い、結果のレポートを返すハンドラ。
// 致命的エラーの場合は本文なしの500を返す。
func (s *Server) handleRun() gin.HandlerFunc {
	return func(c *gin.Context) {
		report, err := s.runner.Run(c.Request.Context(), s.cfg.Load())
		if err != nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}
