package resolver

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nao1215/taskbot/internal/notion"
	"github.com/nao1215/taskbot/pkg/httpclient"
	"github.com/nao1215/taskbot/pkg/httpserver"
	"github.com/nao1215/taskbot/pkg/middleware"
)

// errNoSecret は共有シークレットが未設定であることを表す。
var errNoSecret = errors.New("SECRET_TOKENが設定されていません")

// Server は解決サービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// local は実際にプロパティを解決するリゾルバ。
	local *Local
	// secret はサービストークンの検証に使う共有シークレット。
	secret string
	// logger はロガー。
	logger *zap.Logger
}

// NewServer は新しい解決サーバーを生成する。
func NewServer(port string, local *Local, secret string, logger *zap.Logger) (*Server, error) {
	if secret == "" {
		return nil, errNoSecret
	}

	router := gin.New()
	router.Use(middleware.Recovery(logger))
	router.Use(gin.Logger())

	s := &Server{
		router: router,
		port:   port,
		local:  local,
		secret: secret,
		logger: logger,
	}
	s.setupRoutes()

	return s, nil
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
func (s *Server) setupRoutes() {
	api := s.router.Group("/api/v1")
	api.Use(middleware.ServiceAuth(s.secret))
	{
		// チャンクの一括解決
		api.POST("/resolve", s.handleResolve())
	}

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "resolver"})
	})
}

// handleResolve はページのチャンクを受け取り、全プロパティを解決して返すハンドラ。
func (s *Server) handleResolve() gin.HandlerFunc {
	return func(c *gin.Context) {
		var pages []notion.Page
		if err := c.ShouldBindJSON(&pages); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "リクエストボディが不正です"})
			return
		}

		runID := middleware.GetRunID(c)
		if runID == "" {
			runID = c.GetHeader(httpclient.HeaderRunID)
		}
		logger := s.logger.With(zap.String("run_id", runID))

		ctx := httpclient.WithRunID(c.Request.Context(), runID)
		resolved, err := s.local.ResolvePages(ctx, pages)
		if err != nil {
			logger.Error("チャンクの解決に失敗", zap.Int("pages", len(pages)), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "解決に失敗しました"})
			return
		}

		logger.Info("チャンクを解決", zap.Int("pages", len(pages)))
		c.JSON(http.StatusOK, resolved)
	}
}
