// Package dispatch は委員会ごとの通知をWebhookに送信する。
//
// 通知先とメンションは実行ごとの設定から引く。全委員会に並行して送信し、
// 送信の失敗は委員会ごとのResultとして返す。
package dispatch
