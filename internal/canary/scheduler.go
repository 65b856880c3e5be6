package canary

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// NextRun はnowより後で最初に来るhour:minuteを返す。時刻はnowのタイムゾーンで解釈する。
func NextRun(now time.Time, hour, minute int) time.Time {
	y, m, d := now.Date()
	next := time.Date(y, m, d, hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = time.Date(y, m, d+1, hour, minute, 0, 0, now.Location())
	}
	return next
}

// Scheduler は毎日決まった時刻にチェックを実行するバックグラウンドプロセス。
type Scheduler struct {
	// checker はチェックの実行者。
	checker *Checker
	// hour と minute は実行時刻。
	hour, minute int
	// loc は実行時刻のタイムゾーン。
	loc *time.Location
	// now は現在時刻を返す。
	now func() time.Time
	// cancel はバックグラウンドゴルーチンを停止するためのキャンセル関数。
	cancel context.CancelFunc
	// done はバックグラウンドゴルーチンの終了を通知する。
	done chan struct{}
	// logger はロガー。
	logger *zap.Logger
}

// NewScheduler は新しいSchedulerを生成する。
func NewScheduler(checker *Checker, hour, minute int, loc *time.Location, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		checker: checker,
		hour:    hour,
		minute:  minute,
		loc:     loc,
		now:     time.Now,
		logger:  logger,
	}
}

// Start はバックグラウンドでスケジュールを開始する。
func (s *Scheduler) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)

		for {
			now := s.now().In(s.loc)
			next := NextRun(now, s.hour, s.minute)
			s.logger.Info("次のチェックを予約", zap.Time("at", next))

			timer := time.NewTimer(next.Sub(now))
			select {
			case <-ctx.Done():
				timer.Stop()
				s.logger.Info("スケジュールを停止しました")
				return
			case <-timer.C:
				if _, err := s.checker.Check(ctx); err != nil {
					s.logger.Error("チェックの記録に失敗", zap.Error(err))
				}
			}
		}
	}()
}

// Stop はスケジュールを停止し、実行中のチェックの終了を待つ。
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
}
