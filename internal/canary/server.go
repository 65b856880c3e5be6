package canary

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nao1215/taskbot/pkg/httpserver"
	"github.com/nao1215/taskbot/pkg/middleware"
)

const (
	// defaultLimit はチェック一覧の既定件数。
	defaultLimit = 20
	// maxLimit はチェック一覧の最大件数。
	maxLimit = 100
)

// Server はカナリアサービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// checker はチェックの実行者。
	checker *Checker
	// store はチェック履歴。
	store *Store
	// logger はロガー。
	logger *zap.Logger
}

// NewServer は新しいカナリアサーバーを生成する。
func NewServer(port string, checker *Checker, store *Store, secret string, logger *zap.Logger) *Server {
	router := gin.New()
	router.Use(middleware.Recovery(logger))
	router.Use(gin.Logger())

	s := &Server{
		router:  router,
		port:    port,
		checker: checker,
		store:   store,
		logger:  logger,
	}
	s.setupRoutes(secret)

	return s
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
	checks := s.router.Group("/api/v1/checks")
	{
		// チェック履歴の一覧
		checks.GET("", s.handleList())
		// 今すぐチェックを実行
		checks.POST("", middleware.SecretToken(secret), s.handleCheck())
	}

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		version, err := s.store.SchemaVersion()
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "service": "canary"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "canary", "schema_version": version})
	})
}

// handleList は新しい順のチェック履歴を返すハンドラ。
func (s *Server) handleList() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := defaultLimit
		if v := c.Query("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 || n > maxLimit {
				c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("limitは1から%dの整数で指定してください", maxLimit)})
				return
			}
			limit = n
		}

		checks, err := s.store.List(c.Request.Context(), limit)
		if err != nil {
			s.logger.Error("チェック一覧の取得に失敗", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "チェック一覧の取得に失敗しました"})
			return
		}
		c.JSON(http.StatusOK, checks)
	}
}

// handleCheck はチェックを実行して結果を返すハンドラ。
func (s *Server) handleCheck() gin.HandlerFunc {
	return func(c *gin.Context) {
		check, err := s.checker.Check(c.Request.Context())
		if err != nil {
			s.logger.Error("チェックの記録に失敗", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "チェックの記録に失敗しました"})
			return
		}
		c.JSON(http.StatusCreated, check)
	}
}
