package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nao1215/taskbot/internal/batch"
	"github.com/nao1215/taskbot/internal/config"
	"github.com/nao1215/taskbot/internal/dispatch"
	"github.com/nao1215/taskbot/internal/message"
	"github.com/nao1215/taskbot/internal/notion"
	"github.com/nao1215/taskbot/internal/task"
	"github.com/nao1215/taskbot/pkg/httpclient"
	"github.com/nao1215/taskbot/pkg/webhook"
)

const (
	// CanaryUsername は致命的エラー報告の投稿者名。
	CanaryUsername = "🤖 Task Bot Canary"
	// crashReportTimeout は致命的エラー報告の送信期限。
	crashReportTimeout = 10 * time.Second
)

// FatalError は実行全体を中止したエラー。Stageは失敗した段階。
type FatalError struct {
	Stage string
	Err   error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Unroutable は委員会を決められなかったタスク。
type Unroutable struct {
	TaskID string `json:"task_id"`
	Title  string `json:"title"`
	Event  string `json:"event"`
	Reason string `json:"reason"`
}

// ResolveError はプロパティ解決に失敗したページ。
type ResolveError struct {
	PageID string `json:"page_id"`
	Error  string `json:"error"`
}

// Dispatch は1委員会への送信結果。
type Dispatch struct {
	Team  task.Committee `json:"team"`
	OK    bool           `json:"ok"`
	Error string         `json:"error,omitempty"`
}

// Report は1回の実行結果。
type Report struct {
	// RunID は実行ID。
	RunID string `json:"run_id"`
	// GeneratedAt は実行時刻。
	GeneratedAt time.Time `json:"generated_at"`
	// Teams は通知対象になった委員会の分類済みタスク。
	Teams task.TeamTasks `json:"teams"`
	// Reasons は委員会ごとの通知理由。
	Reasons map[task.Committee][]string `json:"reasons"`
	// Dispatches は送信結果。
	Dispatches []Dispatch `json:"dispatches"`
	// Unroutable は委員会を決められなかったタスク。
	Unroutable []Unroutable `json:"unroutable,omitempty"`
	// ResolveErrors はプロパティ解決に失敗したページ。
	ResolveErrors []ResolveError `json:"resolve_errors,omitempty"`
}

// Option はRunnerの設定を変更する。
type Option func(*Runner)

// WithClock は現在時刻の取得方法を差し替える。
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		r.now = now
	}
}

// Runner はNotionからタスクを集めて委員会ごとに通知する。
type Runner struct {
	// store はNotionへのアクセス。
	store Store
	// resolve はページのチャンクを一括解決する。
	resolve batch.ChunkFunc[notion.Page]
	// sender はWebhookへの送信手段。
	sender webhook.Sender
	// now は現在時刻を返す。
	now func() time.Time
	// logger はロガー。
	logger *zap.Logger
}

// New は新しいRunnerを生成する。
func New(store Store, resolve batch.ChunkFunc[notion.Page], sender webhook.Sender, logger *zap.Logger, opts ...Option) *Runner {
	r := &Runner{
		store:   store,
		resolve: resolve,
		sender:  sender,
		now:     time.Now,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run は1回の実行を行う。致命的エラーの場合はLOG_HOOKに報告したうえで*FatalErrorを返す。
func (r *Runner) Run(ctx context.Context, cfg *config.Config) (*Report, error) {
	runID := uuid.NewString()
	ctx = httpclient.WithRunID(ctx, runID)
	logger := r.logger.With(zap.String("run_id", runID))

	now := r.now().In(cfg.Location)
	logger.Info("実行を開始", zap.Time("now", now))

	report, err := r.run(ctx, cfg, now, logger)
	if err != nil {
		var fatal *FatalError
		if !errors.As(err, &fatal) {
			err = &FatalError{Stage: "run", Err: err}
		}
		logger.Error("実行を中止", zap.Error(err))
		r.reportFatal(ctx, cfg, runID, err, logger)
		return nil, err
	}

	report.RunID = runID
	logger.Info("実行が完了",
		zap.Int("teams", len(report.Teams)),
		zap.Int("unroutable", len(report.Unroutable)),
		zap.Int("resolve_errors", len(report.ResolveErrors)),
	)
	return report, nil
}

func (r *Runner) run(ctx context.Context, cfg *config.Config, now time.Time, logger *zap.Logger) (*Report, error) {
	report := &Report{GeneratedAt: now}

	eventPages, err := r.store.QueryDatabase(ctx, cfg.EventsDatabaseID, eventFilter())
	if err != nil {
		return nil, &FatalError{Stage: "events", Err: err}
	}
	eventPages, _ = r.resolvePages(ctx, eventPages, report, logger)

	events := make([]*task.Event, len(eventPages))
	for i, p := range eventPages {
		events[i] = toEvent(p)
	}
	logger.Info("イベントを取得", zap.Int("events", len(events)))

	if err := discoverDatabases(ctx, r.store, events); err != nil {
		return nil, err
	}

	taskPages, err := fetchTasks(ctx, r.store, events, now)
	if err != nil {
		return nil, err
	}
	taskPages, unresolved := r.resolvePages(ctx, taskPages, report, logger)
	logger.Info("タスクを取得", zap.Int("tasks", len(taskPages)))

	byDatabase := make(map[string]*task.Event, len(events))
	for _, e := range events {
		byDatabase[e.DatabaseID] = e
	}

	today := task.Day(now, cfg.Location)
	var tasks []task.Task
	for _, p := range taskPages {
		// 解決に失敗したページもクエリ結果の値で分類して通知し、行に印を付ける
		t, reason := toTask(p, byDatabase[p.Parent.DatabaseID], today, cfg.Location)
		_, t.Incomplete = unresolved[p.ID]
		if reason != "" {
			logger.Warn("委員会を決められないタスク", zap.String("task", p.ID), zap.String("reason", reason))
			report.Unroutable = append(report.Unroutable, Unroutable{
				TaskID: p.ID,
				Title:  t.Title,
				Event:  t.EventTitle(),
				Reason: reason,
			})
			continue
		}
		tasks = append(tasks, t)
	}

	notices := message.Gate(task.Group(tasks), today)
	report.Teams = make(task.TeamTasks, len(notices))
	report.Reasons = make(map[task.Committee][]string, len(notices))
	for _, n := range notices {
		report.Teams[n.Team] = n.Groups
		report.Reasons[n.Team] = n.Reasons
	}

	d := dispatch.New(r.sender, cfg.Username, cfg.AvatarURL, logger)
	for _, res := range d.Send(ctx, cfg, notices, today) {
		entry := Dispatch{Team: res.Team, OK: res.Err == nil}
		if res.Err != nil {
			entry.Error = res.Err.Error()
		}
		report.Dispatches = append(report.Dispatches, entry)
	}

	return report, nil
}

// resolvePages は全プロパティを一括解決する。失敗したページは未解決のまま使い、
// レポートに記録したうえでIDの集合として返す。
func (r *Runner) resolvePages(ctx context.Context, pages []notion.Page, report *Report, logger *zap.Logger) ([]notion.Page, map[string]struct{}) {
	results := batch.Resolve(ctx, pages, r.resolve, logger.Named("batch"))
	unresolved := make(map[string]struct{})
	for _, res := range results {
		if res.Err != nil {
			report.ResolveErrors = append(report.ResolveErrors, ResolveError{PageID: res.Record.ID, Error: res.Err.Error()})
			unresolved[res.Record.ID] = struct{}{}
		}
	}
	return batch.Records(results), unresolved
}

// reportFatal は致命的エラーをLOG_HOOKに投稿する。投稿の失敗はログに残すだけ。
func (r *Runner) reportFatal(ctx context.Context, cfg *config.Config, runID string, err error, logger *zap.Logger) {
	if cfg.LogHook == "" {
		logger.Warn("LOG_HOOKが未設定のためエラーを報告しません")
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), crashReportTimeout)
	defer cancel()

	content := fmt.Sprintf("Task run %s failed: %v", runID, err)
	p := webhook.New(CanaryUsername, content)
	if sendErr := r.sender.Send(ctx, cfg.LogHook, p); sendErr != nil {
		logger.Error("エラー報告の送信に失敗", zap.Error(sendErr))
	}
}

// toTask は解決済みのタスクページをTaskに変換する。
// 委員会を決められない場合は理由を返す。
func toTask(p notion.Page, event *task.Event, today time.Time, loc *time.Location) (task.Task, string) {
	t := task.Task{
		ID:        p.ID,
		Title:     p.Text(propName),
		URL:       p.URL,
		Emoji:     p.Emoji(),
		Status:    task.ParseStatus(p.StatusName(propStatus)),
		Assignees: p.PeopleNames(propAssign),
		Event:     event,
	}
	if t.Title == "" {
		t.Title = missingTitle
	}
	if event == nil {
		return t, "親イベントが見つかりません"
	}

	due := p.DateStart(propDueDate)
	if due == "" {
		due = event.Date
	}
	dueAt, err := task.ParseDate(due, loc)
	if err != nil {
		return t, fmt.Sprintf("期限を解釈できません: %q", due)
	}
	t.Due = dueAt
	t.Bucket = task.Classify(dueAt, today)

	owner, ok := task.ParseOwner(p.SelectName(propType), p.MultiSelectNames(propType))
	if !ok {
		return t, "Typeが設定されていません"
	}
	team, ok := owner.Resolve(event.Team)
	if !ok {
		return t, fmt.Sprintf("%sの委員会を親イベントから決められません", owner)
	}
	t.Team = team
	return t, ""
}
