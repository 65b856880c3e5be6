package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/taskbot/internal/notion"
	"github.com/nao1215/taskbot/internal/task"
)

// Notionのプロパティ名と選択肢名。
const (
	propName    = "Name"
	propType    = "Type"
	propDate    = "Date"
	propDueDate = "Due Date"
	propStatus  = "Status"
	propAssign  = "Assign"

	typeEvent    = "Event"
	missingTitle = "Missing Title"

	// pastDueWindow は期限切れとして取得する期間。
	pastDueWindow = 7 * 24 * time.Hour
)

// Store はランナーが使うNotionの操作。
type Store interface {
	QueryDatabase(ctx context.Context, databaseID string, filter notion.Filter) ([]notion.Page, error)
	ChildDatabase(ctx context.Context, pageID string) (string, error)
}

// eventFilter は来月まで、または過去1週間のイベントを選ぶ。
func eventFilter() notion.Filter {
	return notion.And(
		notion.MultiSelectContains(propType, typeEvent),
		notion.Or(notion.DateNextMonth(propDate), notion.DatePastWeek(propDate)),
	)
}

// pastDueFilter は期限を過ぎて1週間以内のタスクを選ぶ。
func pastDueFilter(now time.Time) notion.Filter {
	return notion.And(
		notion.FormulaDateBefore(propDueDate, now),
		notion.FormulaDateOnOrAfter(propDueDate, now.Add(-pastDueWindow)),
	)
}

// upcomingFilter は今から先読み日数以内が期限のタスクを選ぶ。
func upcomingFilter(now time.Time) notion.Filter {
	return notion.And(
		notion.FormulaDateOnOrBefore(propDueDate, now.AddDate(0, 0, task.Lookahead(now))),
		notion.FormulaDateOnOrAfter(propDueDate, now),
	)
}

// toEvent は解決済みのイベントページをEventに変換する。
// 委員会はType属性のうち"Event"以外の最初の選択肢。
func toEvent(p notion.Page) *task.Event {
	e := &task.Event{
		ID:    p.ID,
		Title: p.Text(propName),
		Date:  p.DateStart(propDate),
	}
	if e.Title == "" {
		e.Title = missingTitle
	}
	for _, name := range p.MultiSelectNames(propType) {
		if name != typeEvent {
			e.Team = task.Committee(name)
			break
		}
	}
	return e
}

// discoverDatabases は各イベント直下のタスクデータベースを並行に探す。
// 1つでも見つからなければ実行全体を中止する。
func discoverDatabases(ctx context.Context, store Store, events []*task.Event) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, e := range events {
		g.Go(func() error {
			id, err := store.ChildDatabase(ctx, e.ID)
			if errors.Is(err, notion.ErrNoChildDatabase) {
				return &FatalError{
					Stage: "discover",
					Err:   fmt.Errorf("Unable to find database for '%s'! Please check it's not nested in another block!: %w", e.Title, err),
				}
			}
			if err != nil {
				return &FatalError{Stage: "discover", Err: fmt.Errorf("イベント '%s': %w", e.Title, err)}
			}
			e.DatabaseID = id
			return nil
		})
	}
	return g.Wait()
}

// fetchTasks は各イベントのタスクデータベースから期限切れと期限間近のタスクを並行に取得する。
// 結果は全イベントの期限切れ、全イベントの期限間近の順に、イベントの順序を保って並べる。
func fetchTasks(ctx context.Context, store Store, events []*task.Event, now time.Time) ([]notion.Page, error) {
	filters := []notion.Filter{pastDueFilter(now), upcomingFilter(now)}
	results := make([][]notion.Page, len(filters)*len(events))

	g, ctx := errgroup.WithContext(ctx)
	for fi, filter := range filters {
		for ei, e := range events {
			slot := fi*len(events) + ei
			g.Go(func() error {
				pages, err := store.QueryDatabase(ctx, e.DatabaseID, filter)
				if err != nil {
					return &FatalError{Stage: "fetch", Err: fmt.Errorf("イベント '%s' のタスク取得に失敗: %w", e.Title, err)}
				}
				results[slot] = pages
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var pages []notion.Page
	for _, r := range results {
		pages = append(pages, r...)
	}
	return pages, nil
}
