// カナリアサービスのエントリポイント。
// 毎日決まった時刻にランナーを起動し、結果をWebhookに投稿して履歴を記録する。
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"go.uber.org/zap"

	"github.com/nao1215/taskbot/internal/canary"
	"github.com/nao1215/taskbot/internal/config"
	"github.com/nao1215/taskbot/pkg/webhook"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("ロガーの初期化に失敗: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.LoadCanary()
	if err != nil {
		logger.Fatal("設定の読み込みに失敗", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := canary.Open(ctx, cfg.DB, logger.Named("migration"))
	if err != nil {
		logger.Fatal("チェック履歴の初期化に失敗", zap.Error(err))
	}
	defer func() { _ = store.Close() }()

	checker := canary.NewChecker(cfg.RunnerURL, cfg.SecretToken, cfg.Hook, webhook.HTTPSender{}, store, logger.Named("checker"))

	scheduler := canary.NewScheduler(checker, cfg.Hour, cfg.Minute, cfg.Location, logger.Named("scheduler"))
	scheduler.Start(ctx)
	defer scheduler.Stop()

	server := canary.NewServer(cfg.Port, checker, store, cfg.SecretToken, logger.Named("server"))

	logger.Info("カナリアサービスを起動します", zap.String("port", cfg.Port))
	if err := server.Run(ctx); err != nil {
		logger.Error("カナリアサービスが異常終了", zap.Error(err))
		return
	}
	logger.Info("カナリアサービスを停止しました")
}
