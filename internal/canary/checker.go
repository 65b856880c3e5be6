package canary

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nao1215/taskbot/internal/runner"
	"github.com/nao1215/taskbot/pkg/httpclient"
	"github.com/nao1215/taskbot/pkg/middleware"
	"github.com/nao1215/taskbot/pkg/webhook"
)

// runTimeout はランナー1回分の実行を待つ上限。
const runTimeout = 5 * time.Minute

// 投稿する文言。
const (
	successPrefix = "Sucessfully sent tasks for these teams: \n\n"
	failurePrefix = "There was an error sending the tasks: "
)

// Checker はランナーを起動し、結果を投稿して記録する。
type Checker struct {
	// client はランナーの起動エンドポイントへのHTTPクライアント。
	client *httpclient.Client
	// hook は結果の投稿先Webhook。空の場合は投稿しない。
	hook string
	// sender はWebhookへの送信手段。
	sender webhook.Sender
	// store はチェック履歴。
	store *Store
	// now は現在時刻を返す。
	now func() time.Time
	// logger はロガー。
	logger *zap.Logger
}

// NewChecker は新しいCheckerを生成する。runnerURLは起動エンドポイントの完全なURL。
func NewChecker(runnerURL, secret, hook string, sender webhook.Sender, store *Store, logger *zap.Logger) *Checker {
	return &Checker{
		client: httpclient.New(runnerURL,
			httpclient.WithTimeout(runTimeout),
			httpclient.WithHeader(middleware.HeaderSecretToken, secret),
		),
		hook:   hook,
		sender: sender,
		store:  store,
		now:    time.Now,
		logger: logger,
	}
}

// Check はランナーを1回起動する。ランナーの失敗はCheckに記録し、
// エラーを返すのは履歴の保存に失敗した場合だけ。
func (c *Checker) Check(ctx context.Context) (Check, error) {
	check := Check{ID: uuid.NewString(), StartedAt: c.now()}
	logger := c.logger.With(zap.String("check_id", check.ID))

	var report runner.Report
	if err := c.client.GetJSON(ctx, "", &report); err != nil {
		check.Error = err.Error()
		logger.Error("ランナーの実行に失敗", zap.Error(err))
	} else {
		check.OK = true
		check.Teams = make([]string, 0, len(report.Teams))
		for team := range report.Teams {
			check.Teams = append(check.Teams, string(team))
		}
		sort.Strings(check.Teams)
		logger.Info("ランナーの実行が完了", zap.String("run_id", report.RunID), zap.Strings("teams", check.Teams))
	}
	check.FinishedAt = c.now()

	check.Notified = c.notify(ctx, check, logger)

	if err := c.store.Record(ctx, check); err != nil {
		return check, err
	}
	return check, nil
}

// notify は結果をWebhookに投稿し、投稿できたかを返す。
func (c *Checker) notify(ctx context.Context, check Check, logger *zap.Logger) bool {
	if c.hook == "" {
		logger.Warn("CANARY_HOOKが未設定のため結果を投稿しません")
		return false
	}
	if err := c.sender.Send(ctx, c.hook, webhook.New(runner.CanaryUsername, Content(check))); err != nil {
		logger.Error("結果の投稿に失敗", zap.Error(err))
		return false
	}
	return true
}

// Content はチェック結果の投稿本文を返す。
func Content(check Check) string {
	if !check.OK {
		return failurePrefix + check.Error
	}
	return successPrefix + strings.Join(check.Teams, "\n")
}
