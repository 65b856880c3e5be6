// Package message は委員会ごとの通知を組み立てる。
//
// PingReasonsが通知するかどうかと理由を決め、Composeが期限切れ・今日・明日・
// 今後の4節からなる埋め込みメッセージを作る。Contentはロールメンションと
// 理由を並べた投稿本文を作る。
package message
