package config

import (
	"fmt"
	"os"
	"time"
)

const (
	// DefaultCanaryAt はカナリアの既定の実行時刻（HH:MM）。
	DefaultCanaryAt = "08:00"
	// DefaultCanaryDB はチェック履歴の既定の保存先。
	DefaultCanaryDB = "/data/canary.db?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
)

// Canary はカナリアサービスの設定。
type Canary struct {
	// Port はHTTPサーバーのリッスンポート。
	Port string
	// RunnerURL はランナーの起動エンドポイントのURL。
	RunnerURL string
	// SecretToken はランナーの起動とチェック要求に使う共有シークレット。
	SecretToken string
	// Hook はチェック結果の投稿先Webhook。
	Hook string
	// Hour と Minute は毎日の実行時刻。
	Hour, Minute int
	// DB はSQLiteのデータソース名。
	DB string
	// Location は実行時刻のタイムゾーン。
	Location *time.Location
}

// LoadCanary は環境変数からカナリアの設定を読み込む。
func LoadCanary() (*Canary, error) {
	cfg := &Canary{
		Port:        getEnvOr("PORT", "8081"),
		RunnerURL:   os.Getenv("RUNNER_URL"),
		SecretToken: os.Getenv("SECRET_TOKEN"),
		Hook:        os.Getenv("CANARY_HOOK"),
		DB:          getEnvOr("CANARY_DB", DefaultCanaryDB),
	}

	if cfg.RunnerURL == "" {
		return nil, fmt.Errorf("RUNNER_URL: %w", ErrMissingSetting)
	}
	if cfg.SecretToken == "" {
		return nil, fmt.Errorf("SECRET_TOKEN: %w", ErrMissingSetting)
	}

	at, err := time.Parse("15:04", getEnvOr("CANARY_AT", DefaultCanaryAt))
	if err != nil {
		return nil, fmt.Errorf("CANARY_ATの形式が不正です: %w", err)
	}
	cfg.Hour, cfg.Minute = at.Hour(), at.Minute()

	loc, err := time.LoadLocation(getEnvOr("TIMEZONE", DefaultTimezone))
	if err != nil {
		return nil, fmt.Errorf("タイムゾーンの読み込みに失敗: %w", err)
	}
	cfg.Location = loc

	return cfg, nil
}
