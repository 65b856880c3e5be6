// タスクランナーのエントリポイント。
// Notionからイベントとタスクを集め、委員会ごとにDiscordへ通知する。
// serveはHTTPで起動要求を待ち受け、onceはその場で1回だけ実行する。
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nao1215/taskbot/internal/batch"
	"github.com/nao1215/taskbot/internal/config"
	"github.com/nao1215/taskbot/internal/notion"
	"github.com/nao1215/taskbot/internal/resolver"
	"github.com/nao1215/taskbot/internal/runner"
	"github.com/nao1215/taskbot/pkg/webhook"
)

var (
	// verbose はデバッグログを有効にする。
	verbose bool
	// asJSON はonceの結果をJSONで出力する。
	asJSON bool
	// logger はコマンド全体で使うロガー。
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "runner",
	Short:         "Notionのタスクを委員会ごとにDiscordへ通知する",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		var err error
		logger, err = newLogger(verbose)
		return err
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "HTTPで起動要求を待ち受ける",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("設定の読み込みに失敗: %w", err)
		}

		server, err := runner.NewServer(cfg, newRunner(cfg), logger.Named("server"))
		if err != nil {
			return fmt.Errorf("ランナーサーバーの初期化に失敗: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		go func() {
			if err := config.Watch(ctx, cfg, logger.Named("config"), server.SetConfig); err != nil {
				logger.Error("チーム設定の監視に失敗", zap.Error(err))
			}
		}()

		logger.Info("ランナーサービスを起動します", zap.String("port", cfg.Port))
		return server.Run(ctx)
	},
}

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "1回だけ実行して結果を表示する",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("設定の読み込みに失敗: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		report, err := newRunner(cfg).Run(ctx, cfg)
		if err != nil {
			return err
		}

		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}
		printSummary(cmd.OutOrStdout(), report)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "デバッグログを出力する")
	onceCmd.Flags().BoolVar(&asJSON, "json", false, "レポートをJSONで出力する")
	rootCmd.AddCommand(serveCmd, onceCmd)
}

// newLogger は本番用のロガーを生成する。LOG_LEVELまたは--verboseでレベルを変える。
func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		level, err := zapcore.ParseLevel(lvl)
		if err != nil {
			return nil, fmt.Errorf("LOG_LEVELが不正です: %w", err)
		}
		cfg.Level = zap.NewAtomicLevelAt(level)
	}
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}

// newRunner は設定に応じた解決手段でRunnerを組み立てる。
// RESOLVER_URLが設定されていれば解決サービスを使い、無ければプロセス内で解決する。
func newRunner(cfg *config.Config) *runner.Runner {
	store := notion.NewClient(cfg.NotionBaseURL, cfg.NotionToken)

	var resolve batch.ChunkFunc[notion.Page]
	if cfg.ResolverURL != "" {
		resolve = resolver.NewClient(cfg.ResolverURL, cfg.SecretToken).ResolvePages
	} else {
		resolve = resolver.NewLocal(store, logger.Named("resolver")).ResolvePages
	}
	return runner.New(store, resolve, webhook.HTTPSender{}, logger.Named("runner"))
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		var fatal *runner.FatalError
		if errors.As(err, &fatal) {
			fmt.Fprintf(os.Stderr, "実行を中止しました (%s): %v\n", fatal.Stage, fatal.Err)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
