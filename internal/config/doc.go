// Package config はタスクランナーの設定を読み込む。
//
// 環境変数で接続先とシークレットを、YAMLファイルで委員会ごとの通知先と
// メンションするロールを指定する。YAMLファイルを指定しない場合は
// バイナリに埋め込んだ既定の委員会一覧を使う。
//
// Configは実行ごとのスナップショットで、読み込み後に変更しない。
// Watchはファイル変更時に新しいスナップショットを生成して通知する。
package config
