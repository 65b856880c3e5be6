// Package notion はNotion REST APIのうち、タスク集計に必要な操作だけを扱うクライアントを提供する。
//
// データベースクエリが返すページのプロパティは一部が省略されるため、
// 各プロパティはRetrievePropertyで個別に解決する。プロパティ値はValueを実装する
// 型のタグ付き共用体として表し、未解決・解決失敗はMissingで明示する。
package notion
