package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/nao1215/taskbot/internal/runner"
	"github.com/nao1215/taskbot/internal/task"
)

// printSummary は実行結果を人が読む形で出力する。
func printSummary(w io.Writer, report *runner.Report) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)

	bold.Fprintf(w, "Run %s (%s)\n", report.RunID, report.GeneratedAt.Format("2006-01-02 15:04 MST"))

	sent := make(map[task.Committee]runner.Dispatch, len(report.Dispatches))
	for _, d := range report.Dispatches {
		sent[d.Team] = d
	}

	if len(report.Teams) == 0 {
		fmt.Fprintln(w, "  通知対象の委員会はありません")
	}
	for _, team := range report.Teams.Teams() {
		groups := report.Teams[team]
		status := green.Sprint("✓")
		if d, ok := sent[team]; !ok || !d.OK {
			status = red.Sprint("✗")
		}
		fmt.Fprintf(w, "  %s %s", status, bold.Sprint(team))
		for _, b := range task.Buckets {
			fmt.Fprintf(w, "  %s=%d", b, len(groups[b]))
		}
		fmt.Fprintln(w)
		if d := sent[team]; d.Error != "" {
			fmt.Fprintf(w, "      %s\n", red.Sprint(d.Error))
		}
	}

	for _, u := range report.Unroutable {
		fmt.Fprintf(w, "  %s %s [%s]: %s\n", yellow.Sprint("!"), u.Title, u.Event, u.Reason)
	}
	if n := len(report.ResolveErrors); n > 0 {
		fmt.Fprintf(w, "  %s プロパティの解決に失敗したページ: %d\n", yellow.Sprint("!"), n)
	}
}
