// Package runner はタスク通知の1回の実行を組み立てる。
//
// イベントの取得、タスクデータベースの探索、タスクの取得、プロパティの一括解決、
// 所有者の解決と分類、通知判定、送信の順に進む。イベント取得・データベース探索・
// タスク取得の失敗は実行全体を中止し、LOG_HOOKに報告する。プロパティ解決と
// 個々の送信の失敗はレポートに記録して処理を続ける。
package runner
