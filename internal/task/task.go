package task

import "time"

// Committee は委員会（チーム）名。Notionの選択肢名をそのまま使う。
type Committee string

// Initiative は親イベントの委員会を引き継ぐことを表す特別な委員会名。
const Initiative Committee = "Initiative"

// Bucket は期限による分類。
type Bucket string

const (
	// PastDue は期限切れ。
	PastDue Bucket = "PastDue"
	// Today は今日が期限。
	Today Bucket = "Today"
	// Tomorrow は明日が期限。
	Tomorrow Bucket = "Tomorrow"
	// Upcoming は明後日以降が期限。
	Upcoming Bucket = "Upcoming"
)

// Buckets は表示順に並べた全分類。
var Buckets = []Bucket{PastDue, Today, Tomorrow, Upcoming}

// Status はタスクの進捗。
type Status string

const (
	NotStarted Status = "Not started"
	InProgress Status = "In progress"
	Completed  Status = "Completed"
)

// ParseStatus はNotionのステータス名を変換する。空の場合はNotStarted。
func ParseStatus(name string) Status {
	if name == "" {
		return NotStarted
	}
	return Status(name)
}

// Event はタスクをまとめる親イベント。
type Event struct {
	// ID はNotionページのID。
	ID string `json:"id"`
	// Title はイベント名。
	Title string `json:"title"`
	// Team はイベントを担当する委員会。
	Team Committee `json:"team"`
	// Date はイベントの日付（Notionの日付文字列）。
	Date string `json:"date"`
	// DatabaseID はイベント直下のタスクデータベースのID。
	DatabaseID string `json:"database_id"`
}

// Task は通知対象の1つのタスク。
type Task struct {
	// ID はNotionページのID。
	ID string `json:"id"`
	// Title はタスク名。
	Title string `json:"title"`
	// URL はNotionページのURL。
	URL string `json:"url"`
	// Emoji はページアイコンの絵文字。
	Emoji string `json:"emoji,omitempty"`
	// Status は進捗。
	Status Status `json:"status"`
	// Due は期限。
	Due time.Time `json:"due"`
	// Bucket は期限による分類。
	Bucket Bucket `json:"bucket"`
	// Team は所有者解決後の担当委員会。Initiativeになることはない。
	Team Committee `json:"team"`
	// Assignees は担当者の表示名。
	Assignees []string `json:"assignees,omitempty"`
	// Event は親イベント。読み取り専用の参照として共有する。
	Event *Event `json:"event"`
	// Incomplete はプロパティの一括解決に失敗し、クエリ結果の一部のプロパティだけで作られたことを表す。
	Incomplete bool `json:"incomplete,omitempty"`
}

// EventTitle は親イベント名を返す。親が無い場合は空文字列。
func (t Task) EventTitle() string {
	if t.Event == nil {
		return ""
	}
	return t.Event.Title
}
