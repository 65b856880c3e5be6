// Package middleware はGinベースのHTTP APIで使用する共通ミドルウェアを提供する。
//
// 共有シークレットヘッダーによる起動リクエストの認証、ランナーから解決サービスへの
// サービストークン（JWT）の発行と検証、パニックリカバリを含む。
package middleware
