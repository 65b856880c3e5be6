// Package canary はタスクランナーの死活を毎日確認する。
//
// 決まった時刻にランナーの起動エンドポイントを呼び、通知された委員会または
// エラーをカナリア用のWebhookに投稿し、チェック履歴をSQLiteに記録する。
package canary
