package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/taskbot/internal/message"
	"github.com/nao1215/taskbot/internal/task"
	"github.com/nao1215/taskbot/pkg/webhook"
)

// ErrUnknownTeam は委員会の通知先が設定されていないことを表す。
var ErrUnknownTeam = errors.New("委員会の通知先が設定されていません")

// Directory は委員会の通知先とメンションを引く。
type Directory interface {
	Endpoint(team string) (string, bool)
	Mentions(team string) []string
}

// Result は1委員会への送信結果。
type Result struct {
	// Team は委員会。
	Team task.Committee
	// Err は送信に失敗した場合のエラー。成功した場合はnil。
	Err error
}

// Dispatcher は委員会ごとの通知を送信する。
type Dispatcher struct {
	// sender はWebhookへの送信手段。
	sender webhook.Sender
	// username は投稿者名。
	username string
	// avatarURL は投稿者のアバター。
	avatarURL string
	// logger はロガー。
	logger *zap.Logger
}

// New は新しいDispatcherを生成する。
func New(sender webhook.Sender, username, avatarURL string, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		sender:    sender,
		username:  username,
		avatarURL: avatarURL,
		logger:    logger,
	}
}

// Payload は委員会に送る投稿を組み立てる。
func (d *Dispatcher) Payload(dir Directory, n message.Notice, today time.Time) webhook.Payload {
	embed := message.Compose(n.Team, n.Groups, today)
	embed.Description = webhook.Truncate(embed.Description, webhook.MaxDescriptionLength)

	p := webhook.New(d.username, message.Content(dir.Mentions(string(n.Team)), n.Reasons), embed)
	if d.avatarURL != "" {
		p.AvatarURL = d.avatarURL
	}
	return p
}

// Send は全委員会に並行して送信し、入力と同じ順序で結果を返す。
// 1つの送信の失敗は他の送信を止めない。
func (d *Dispatcher) Send(ctx context.Context, dir Directory, notices []message.Notice, today time.Time) []Result {
	results := make([]Result, len(notices))

	var g errgroup.Group
	for i, n := range notices {
		g.Go(func() error {
			results[i] = Result{Team: n.Team, Err: d.send(ctx, dir, n, today)}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (d *Dispatcher) send(ctx context.Context, dir Directory, n message.Notice, today time.Time) error {
	logger := d.logger.With(zap.String("team", string(n.Team)))

	url, ok := dir.Endpoint(string(n.Team))
	if !ok {
		logger.Warn("通知先が無いため送信しません")
		return fmt.Errorf("%s: %w", n.Team, ErrUnknownTeam)
	}

	if err := d.sender.Send(ctx, url, d.Payload(dir, n, today)); err != nil {
		logger.Error("通知の送信に失敗", zap.Error(err))
		return fmt.Errorf("%s: %w", n.Team, err)
	}

	logger.Info("通知を送信", zap.Strings("reasons", n.Reasons), zap.Int("tasks", n.Groups.Count()))
	return nil
}

// Failed は失敗した送信の数を返す。
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
