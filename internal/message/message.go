package message

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/nao1215/taskbot/internal/task"
	"github.com/nao1215/taskbot/pkg/webhook"
)

// IncompleteMark はプロパティを解決できなかったタスクの行末に付ける。
const IncompleteMark = " ⚠ *(details may be incomplete)*"

// 通知理由の文言。
const (
	ReasonStartOfWeek = "It's Monday! Below are the list of tasks due with a 2 week lookahead."
	ReasonPastDue     = "There are tasks that are **__past due__** and not marked as completed."
	ReasonDueToday    = "There are tasks **due today** that are not marked as completed."
	ReasonDueTomorrow = "There are tasks *due tomorrow* that are not marked as in progress."
)

// section は本文の1つの節。
type section struct {
	bucket      task.Bucket
	header      string
	placeholder string
	prefix      string
}

// sections は本文に並べる節。順序は固定。
var sections = []section{
	{bucket: task.PastDue, header: "**__Past Due__**", placeholder: "🥳 No Tasks Past Due", prefix: "‼"},
	{bucket: task.Today, header: "**__Due Today__**", placeholder: "😎 No Tasks Due Today"},
	{bucket: task.Tomorrow, header: "**__Due Tomorrow__**", placeholder: "👀 No Tasks Due Tomorrow"},
	{bucket: task.Upcoming, header: "**__Upcoming Tasks__**", placeholder: "😴 No Upcoming Tasks"},
}

// PingReasons は委員会に通知すべき理由を返す。空の場合は通知しない。
// todayは分類に使ったものと同じ「今日」を渡す。
func PingReasons(groups task.GroupedTasks, today time.Time) []string {
	var reasons []string
	if task.IsStartOfWeek(today) {
		reasons = append(reasons, ReasonStartOfWeek)
	}
	if len(groups[task.PastDue]) > 0 {
		reasons = append(reasons, ReasonPastDue)
	}
	if hasStatusOtherThan(groups[task.Today], task.Completed) {
		reasons = append(reasons, ReasonDueToday)
	}
	if hasStatusOtherThan(groups[task.Tomorrow], task.InProgress) {
		reasons = append(reasons, ReasonDueTomorrow)
	}
	return reasons
}

func hasStatusOtherThan(tasks []task.Task, status task.Status) bool {
	for _, t := range tasks {
		if t.Status != status {
			return true
		}
	}
	return false
}

// Compose は委員会のタスク一覧の埋め込みメッセージを組み立てる。
func Compose(team task.Committee, groups task.GroupedTasks, today time.Time) webhook.Embed {
	return webhook.Embed{
		Title:       fmt.Sprintf("Tasks Overview for '%s'", team),
		Description: Body(groups, today),
	}
}

// Body は4つの節からなる本文を返す。タスクの無い節には代わりの一文を置く。
func Body(groups task.GroupedTasks, today time.Time) string {
	parts := make([]string, 0, len(sections))
	for _, s := range sections {
		tasks := groups[s.bucket]
		if len(tasks) == 0 {
			parts = append(parts, s.header+"\n"+s.placeholder)
			continue
		}
		lines := make([]string, 0, len(tasks))
		for _, t := range tasks {
			lines = append(lines, "> "+s.prefix+Line(t, today))
		}
		parts = append(parts, s.header+"\n"+strings.Join(lines, "\n"))
	}
	return strings.Join(parts, "\n\n")
}

// Line はタスク1件の行を返す。
func Line(t task.Task, today time.Time) string {
	title := t.Title
	if t.Emoji != "" {
		title = t.Emoji + " " + title
	}
	line := fmt.Sprintf("**%s**, *due %s* | [[*%s*] **%s**](%s)",
		t.Status, Relative(t.Due, today), t.EventTitle(), title, t.URL)
	if t.Incomplete {
		line += IncompleteMark
	}
	return line
}

// Relative は期限を今日からの相対的な表現にする。比較は暦日単位。
func Relative(due, today time.Time) string {
	d := civilUTC(due, today.Location())
	t := civilUTC(today, today.Location())

	switch int(d.Sub(t).Hours() / 24) {
	case 0:
		return "today"
	case 1:
		return "tomorrow"
	case -1:
		return "yesterday"
	}
	if d.Before(t) {
		return humanize.CustomRelTime(d, t, "", "", pastDays)
	}
	return humanize.CustomRelTime(d, t, "", "", futureDays)
}

// 相対表現は週や月にまとめず常に日数で表す。
var (
	futureDays = []humanize.RelTimeMagnitude{{D: math.MaxInt64, Format: "in %d days", DivBy: humanize.Day}}
	pastDays   = []humanize.RelTimeMagnitude{{D: math.MaxInt64, Format: "%d days ago", DivBy: humanize.Day}}
)

// civilUTC はlocでの暦日をUTCの同じ日付の0時に置き換える。
// 置き換え後の日数の差は常に24時間の倍数になる。
func civilUTC(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Content は投稿本文を返す。メンションが空の場合はメンション行を付けない。
func Content(mentions []string, reasons []string) string {
	lines := make([]string, 0, len(reasons)+1)
	if len(mentions) > 0 {
		tags := make([]string, 0, len(mentions))
		for _, id := range mentions {
			tags = append(tags, "<@&"+id+">")
		}
		lines = append(lines, strings.Join(tags, " "))
	}
	lines = append(lines, reasons...)
	return strings.Join(lines, "\n")
}

// Notice は通知する1委員会分の内容。
type Notice struct {
	// Team は委員会。
	Team task.Committee `json:"team"`
	// Groups は委員会の分類済みタスク。
	Groups task.GroupedTasks `json:"tasks"`
	// Reasons は通知理由。空になることはない。
	Reasons []string `json:"reasons"`
}

// Gate は通知理由のある委員会だけを委員会名の昇順で返す。
func Gate(teams task.TeamTasks, today time.Time) []Notice {
	var notices []Notice
	for _, team := range teams.Teams() {
		groups := teams[team]
		reasons := PingReasons(groups, today)
		if len(reasons) == 0 {
			continue
		}
		notices = append(notices, Notice{Team: team, Groups: groups, Reasons: reasons})
	}
	return notices
}
