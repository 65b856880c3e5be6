package task

import (
	"fmt"
	"time"
)

// dateOnly はNotionの時刻なし日付の形式。
const dateOnly = "2006-01-02"

// ParseDate はNotionの日付文字列を解析する。
// 時刻なしの日付はlocの0時として扱う。
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(dateOnly, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("日付 %q の解析に失敗: %w", s, err)
	}
	return t, nil
}

// Day は時刻をlocでの暦日の0時に正規化する。
func Day(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// Classify は期限を今日と比べて分類する。比較は暦日単位で、
// todayのタイムゾーンを基準にする。
func Classify(due, today time.Time) Bucket {
	loc := today.Location()
	d := Day(due, loc)
	t := Day(today, loc)

	switch {
	case d.Before(t):
		return PastDue
	case d.Equal(t):
		return Today
	case d.Equal(t.AddDate(0, 0, 1)):
		return Tomorrow
	default:
		return Upcoming
	}
}

// IsStartOfWeek は今日が週の始まり（月曜日）かを返す。
func IsStartOfWeek(today time.Time) bool {
	return today.Weekday() == time.Monday
}

// Lookahead は期限が近いタスクとして取得する日数を返す。
// 週の始まりは2週間、それ以外は1週間。
func Lookahead(today time.Time) int {
	if IsStartOfWeek(today) {
		return 14
	}
	return 7
}
