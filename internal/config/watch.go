package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch はチーム設定ファイルの変更を監視し、変更のたびに新しい設定を
// onChangeに渡す。ctxがキャンセルされるまでブロックする。
// 解析に失敗した場合は警告を記録し、直前の設定を使い続ける。
// エディタの置き換え保存に対応するため、ファイルではなくディレクトリを監視する。
func Watch(ctx context.Context, base *Config, logger *zap.Logger, onChange func(*Config)) error {
	if base.TeamsPath == "" {
		<-ctx.Done()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("ファイル監視の開始に失敗: %w", err)
	}
	defer watcher.Close()

	target := filepath.Clean(base.TeamsPath)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("ディレクトリ %s の監視に失敗: %w", filepath.Dir(target), err)
	}
	logger.Info("チーム設定の監視を開始", zap.String("path", target))

	current := base
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			teams, err := ReadTeams(target)
			if err != nil {
				logger.Warn("チーム設定の再読み込みに失敗", zap.String("path", target), zap.Error(err))
				continue
			}
			current = current.WithTeams(teams)
			logger.Info("チーム設定を再読み込み", zap.Int("teams", len(teams)))
			onChange(current)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("ファイル監視エラー", zap.Error(err))
		}
	}
}
