// Package httpclient はサービス間および外部APIとのHTTP通信を行うクライアントを提供する。
//
// Notion APIの呼び出し、解決サービスへのチャンク送信、Discord Webhookへの投稿、
// カナリアからランナーへの疎通確認など、JSONを送受信する通信パターンを統一する。
package httpclient
