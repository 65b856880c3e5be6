// Package batch はプロパティの一括解決をチャンクに分けて並行に実行する。
//
// Notionのクエリ結果はプロパティが省略されるため、各レコードの全プロパティを
// 個別に取得し直す必要がある。1回の呼び出しで行う取得はBudget件までに抑え、
// レコードを連続したチャンクに分けて呼び出しごとに1チャンクを渡す。
//
// チャンクの分割は最もプロパティの多いレコードを基準に決める:
//
//	calls = ceil(maxProps * n / Budget)
//	size  = floor(n / calls)    // 余りは最後のチャンクへ
//
// 1つのチャンクが失敗しても他のチャンクは続行し、失敗したレコードは
// Result.Errを持ったまま元の順序で返る。
package batch
