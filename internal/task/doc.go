// Package task はイベントとタスクのドメインモデルを提供する。
//
// 期限の分類、所有委員会の解決、委員会と分類によるグループ化を扱う。
// どの処理も入力だけで結果が決まり、外部との通信は行わない。
// 「今日」は呼び出し側が1回の実行につき1度だけ決めて渡す。
package task
