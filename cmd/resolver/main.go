// プロパティ解決サービスのエントリポイント。
// ランナーから受け取ったページのチャンクについて、Notionから全プロパティを取得して返す。
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/nao1215/taskbot/internal/notion"
	"github.com/nao1215/taskbot/internal/resolver"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("ロガーの初期化に失敗: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8082"
	}

	token := os.Getenv("NOTION_TOKEN")
	if token == "" {
		logger.Fatal("NOTION_TOKENが設定されていません")
	}

	store := notion.NewClient(os.Getenv("NOTION_BASE_URL"), token)
	local := resolver.NewLocal(store, logger.Named("resolver"))

	server, err := resolver.NewServer(port, local, os.Getenv("SECRET_TOKEN"), logger.Named("server"))
	if err != nil {
		logger.Fatal("解決サーバーの初期化に失敗", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("解決サービスを起動します", zap.String("port", port))
	if err := server.Run(ctx); err != nil {
		logger.Error("解決サービスが異常終了", zap.Error(err))
		return
	}
	logger.Info("解決サービスを停止しました")
}
