package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoadCanary はカナリア設定の読み込みを検証する。t.Setenvを使うため並列実行しない。
func TestLoadCanary(t *testing.T) {
	t.Run("実行時刻を解釈し既定値で補完されること", func(t *testing.T) {
		t.Setenv("RUNNER_URL", "http://runner:8080/api/v1/run")
		t.Setenv("SECRET_TOKEN", "shh")
		t.Setenv("CANARY_AT", "07:30")
		t.Setenv("CANARY_DB", "")
		t.Setenv("TIMEZONE", "")

		cfg, err := LoadCanary()
		require.NoError(t, err)
		assert.Equal(t, 7, cfg.Hour)
		assert.Equal(t, 30, cfg.Minute)
		assert.Equal(t, DefaultCanaryDB, cfg.DB)
		assert.Equal(t, DefaultTimezone, cfg.Location.String())
	})

	t.Run("RUNNER_URLが無い場合ErrMissingSettingを返すこと", func(t *testing.T) {
		t.Setenv("RUNNER_URL", "")
		t.Setenv("SECRET_TOKEN", "shh")

		_, err := LoadCanary()
		assert.True(t, errors.Is(err, ErrMissingSetting), "err = %v", err)
	})

	t.Run("不正な実行時刻はエラーになること", func(t *testing.T) {
		t.Setenv("RUNNER_URL", "http://runner")
		t.Setenv("SECRET_TOKEN", "shh")
		t.Setenv("CANARY_AT", "25:99")

		_, err := LoadCanary()
		require.Error(t, err)
	})
}
