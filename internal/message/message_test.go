package message

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/taskbot/internal/task"
)

var pacific = func() *time.Location {
	loc, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		panic(err)
	}
	return loc
}()

// tuesday は週の始まりではない日。
var tuesday = time.Date(2024, 9, 10, 9, 0, 0, 0, pacific)

// TestPingReasons は通知するかどうかの判定を検証する。
func TestPingReasons(t *testing.T) {
	t.Parallel()

	monday := time.Date(2024, 9, 9, 9, 0, 0, 0, pacific)
	tk := func(s task.Status) task.Task { return task.Task{ID: "t", Status: s} }

	tests := []struct {
		name   string
		groups task.GroupedTasks
		today  time.Time
		want   []string
	}{
		{
			name:   "明日期限で進行中だけなら通知しない",
			groups: task.GroupedTasks{task.Tomorrow: {tk(task.InProgress)}},
			today:  tuesday,
			want:   nil,
		},
		{
			name:   "今日期限で完了済みだけなら通知しない",
			groups: task.GroupedTasks{task.Today: {tk(task.Completed)}},
			today:  tuesday,
			want:   nil,
		},
		{
			name:   "今後のタスクだけなら通知しない",
			groups: task.GroupedTasks{task.Upcoming: {tk(task.NotStarted)}},
			today:  tuesday,
			want:   nil,
		},
		{
			name:   "月曜日は常に通知する",
			groups: task.GroupedTasks{task.Upcoming: {tk(task.NotStarted)}},
			today:  monday,
			want:   []string{ReasonStartOfWeek},
		},
		{
			name:   "期限切れがあれば通知する",
			groups: task.GroupedTasks{task.PastDue: {tk(task.InProgress)}},
			today:  tuesday,
			want:   []string{ReasonPastDue},
		},
		{
			name:   "今日期限の未完了があれば通知する",
			groups: task.GroupedTasks{task.Today: {tk(task.Completed), tk(task.InProgress)}},
			today:  tuesday,
			want:   []string{ReasonDueToday},
		},
		{
			name:   "明日期限の未着手があれば通知する",
			groups: task.GroupedTasks{task.Tomorrow: {tk(task.InProgress), tk(task.NotStarted)}},
			today:  tuesday,
			want:   []string{ReasonDueTomorrow},
		},
		{
			name: "すべての理由が定義順に並ぶ",
			groups: task.GroupedTasks{
				task.PastDue:  {tk(task.NotStarted)},
				task.Today:    {tk(task.NotStarted)},
				task.Tomorrow: {tk(task.Completed)},
			},
			today: monday,
			want:  []string{ReasonStartOfWeek, ReasonPastDue, ReasonDueToday, ReasonDueTomorrow},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if diff := cmp.Diff(tt.want, PingReasons(tt.groups, tt.today)); diff != "" {
				t.Errorf("PingReasons() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// TestRelative は相対的な期限表現を検証する。
func TestRelative(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		due  time.Time
		want string
	}{
		{name: "今日", due: tuesday.Add(10 * time.Hour), want: "today"},
		{name: "明日", due: tuesday.AddDate(0, 0, 1), want: "tomorrow"},
		{name: "昨日", due: tuesday.AddDate(0, 0, -1), want: "yesterday"},
		{name: "3日後", due: tuesday.AddDate(0, 0, 3), want: "in 3 days"},
		{name: "2日前", due: tuesday.AddDate(0, 0, -2), want: "2 days ago"},
		{name: "2週間後も日数で表すこと", due: tuesday.AddDate(0, 0, 14), want: "in 14 days"},
		{name: "1週間前も日数で表すこと", due: tuesday.AddDate(0, 0, -7), want: "7 days ago"},
		{name: "月をまたいでも日数で表すこと", due: time.Date(2024, 10, 2, 0, 0, 0, 0, pacific), want: "in 22 days"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Relative(tt.due, tuesday); got != tt.want {
				t.Errorf("Relative() = %q, want %q", got, tt.want)
			}
		})
	}

	t.Run("夏時間の切り替えをまたいでも日数が変わらないこと", func(t *testing.T) {
		t.Parallel()

		// 2024-11-03 に夏時間が終わる
		today := time.Date(2024, 11, 1, 9, 0, 0, 0, pacific)
		due := time.Date(2024, 11, 4, 0, 0, 0, 0, pacific)
		if got := Relative(due, today); got != "in 3 days" {
			t.Errorf("Relative() = %q, want %q", got, "in 3 days")
		}
	})
}

// TestLine はタスク行の形式を検証する。
func TestLine(t *testing.T) {
	t.Parallel()

	event := &task.Event{Title: "Fall Kickoff", Team: "Marketing"}

	t.Run("絵文字付き", func(t *testing.T) {
		t.Parallel()

		tk := task.Task{Title: "Print flyers", Emoji: "🖨️", Status: task.InProgress, Due: tuesday, URL: "https://notion.so/a", Event: event}
		want := "**In progress**, *due today* | [[*Fall Kickoff*] **🖨️ Print flyers**](https://notion.so/a)"
		if got := Line(tk, tuesday); got != want {
			t.Errorf("Line() = %q, want %q", got, want)
		}
	})

	t.Run("絵文字なし", func(t *testing.T) {
		t.Parallel()

		tk := task.Task{Title: "Book room", Status: task.NotStarted, Due: tuesday.AddDate(0, 0, 1), URL: "https://notion.so/b", Event: event}
		want := "**Not started**, *due tomorrow* | [[*Fall Kickoff*] **Book room**](https://notion.so/b)"
		if got := Line(tk, tuesday); got != want {
			t.Errorf("Line() = %q, want %q", got, want)
		}
	})

	t.Run("プロパティを解決できなかったタスクには印が付くこと", func(t *testing.T) {
		t.Parallel()

		tk := task.Task{Title: "Book room", Status: task.NotStarted, Due: tuesday.AddDate(0, 0, 3), URL: "https://notion.so/b", Event: event, Incomplete: true}
		want := "**Not started**, *due in 3 days* | [[*Fall Kickoff*] **Book room**](https://notion.so/b) ⚠ *(details may be incomplete)*"
		if got := Line(tk, tuesday); got != want {
			t.Errorf("Line() = %q, want %q", got, want)
		}
	})
}

// TestCompose は埋め込みメッセージ全体を検証する。
func TestCompose(t *testing.T) {
	t.Parallel()

	event := &task.Event{Title: "Fall Kickoff", Team: "Marketing"}
	groups := task.GroupedTasks{
		task.PastDue: {{Title: "Order food", Status: task.NotStarted, Due: tuesday.AddDate(0, 0, -1), URL: "u1", Event: event}},
		task.Today:   {{Title: "Task A", Status: task.NotStarted, Due: tuesday, URL: "u2", Event: event}},
	}

	got := Compose("Marketing", groups, tuesday)

	if got.Title != "Tasks Overview for 'Marketing'" {
		t.Errorf("Title = %q", got.Title)
	}
	want := strings.Join([]string{
		"**__Past Due__**\n> ‼**Not started**, *due yesterday* | [[*Fall Kickoff*] **Order food**](u1)",
		"**__Due Today__**\n> **Not started**, *due today* | [[*Fall Kickoff*] **Task A**](u2)",
		"**__Due Tomorrow__**\n👀 No Tasks Due Tomorrow",
		"**__Upcoming Tasks__**\n😴 No Upcoming Tasks",
	}, "\n\n")
	if diff := cmp.Diff(want, got.Description); diff != "" {
		t.Errorf("Description mismatch (-want +got):\n%s", diff)
	}
}

// TestContent は投稿本文を検証する。
func TestContent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		mentions []string
		reasons  []string
		want     string
	}{
		{
			name:     "メンションと理由",
			mentions: []string{"1", "2"},
			reasons:  []string{ReasonPastDue, ReasonDueToday},
			want:     "<@&1> <@&2>\n" + ReasonPastDue + "\n" + ReasonDueToday,
		},
		{
			name:    "メンションなし",
			reasons: []string{ReasonDueTomorrow},
			want:    ReasonDueTomorrow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Content(tt.mentions, tt.reasons); got != tt.want {
				t.Errorf("Content() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestGate は通知理由のある委員会だけが残ることを検証する。
func TestGate(t *testing.T) {
	t.Parallel()

	teams := task.TeamTasks{
		"Technology": {task.Tomorrow: {{ID: "a", Status: task.InProgress}}},
		"Marketing":  {task.Today: {{ID: "b", Status: task.NotStarted}}},
		"Admin":      {task.PastDue: {{ID: "c", Status: task.InProgress}}},
	}

	got := Gate(teams, tuesday)

	var names []task.Committee
	for _, n := range got {
		names = append(names, n.Team)
		if len(n.Reasons) == 0 {
			t.Errorf("%s の理由が空", n.Team)
		}
	}
	if diff := cmp.Diff([]task.Committee{"Admin", "Marketing"}, names); diff != "" {
		t.Errorf("Gate() teams mismatch (-want +got):\n%s", diff)
	}
}
