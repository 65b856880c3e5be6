// Package resolver はNotionページの全プロパティを解決する。
//
// データベースクエリが返すページはプロパティ値が省略されている。
// このパッケージはページごと・プロパティごとにプロパティ取得APIを呼び出し、
// 完全な値に置き換えたページを返す。
//
// 3つの形で提供する:
//   - Local: プロセス内で解決する。
//   - Server: Localを公開するHTTPサービス。サービストークンで認証する。
//   - Client: Serverを呼び出すクライアント。
//
// Local.ResolvePagesとClient.ResolvePagesはどちらもbatch.ChunkFuncとして使える。
package resolver
