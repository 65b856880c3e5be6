package task

import "sort"

// GroupedTasks は分類ごとのタスク一覧。空の一覧は持たない。
type GroupedTasks map[Bucket][]Task

// TeamTasks は委員会ごとの分類済みタスク。タスクの無い委員会は含まない。
type TeamTasks map[Committee]GroupedTasks

// Group はタスクを委員会と分類でまとめ、各一覧を期限の昇順に並べる。
// 完了済みの期限切れタスクは除く。期限が同じ場合は入力順を保つ。
func Group(tasks []Task) TeamTasks {
	out := make(TeamTasks)
	for _, t := range tasks {
		if t.Status == Completed && t.Bucket == PastDue {
			continue
		}
		groups, ok := out[t.Team]
		if !ok {
			groups = make(GroupedTasks)
			out[t.Team] = groups
		}
		groups[t.Bucket] = append(groups[t.Bucket], t)
	}

	for _, groups := range out {
		for _, list := range groups {
			sort.SliceStable(list, func(i, j int) bool {
				return list[i].Due.Before(list[j].Due)
			})
		}
	}
	return out
}

// Teams は委員会名を昇順で返す。
func (tt TeamTasks) Teams() []Committee {
	teams := make([]Committee, 0, len(tt))
	for team := range tt {
		teams = append(teams, team)
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i] < teams[j] })
	return teams
}

// Tasks は委員会名の昇順、分類の表示順で全タスクを平坦化する。
func (tt TeamTasks) Tasks() []Task {
	var out []Task
	for _, team := range tt.Teams() {
		for _, b := range Buckets {
			out = append(out, tt[team][b]...)
		}
	}
	return out
}

// Count は全分類のタスク数を返す。
func (g GroupedTasks) Count() int {
	n := 0
	for _, list := range g {
		n += len(list)
	}
	return n
}
