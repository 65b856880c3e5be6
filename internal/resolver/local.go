package resolver

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/taskbot/internal/notion"
	"github.com/nao1215/taskbot/pkg/webhook"
)

// defaultConcurrency はプロパティ取得の同時実行数の既定値。
const defaultConcurrency = 16

// maxReasonLength はMissingに記録する理由の最大文字数。
const maxReasonLength = 200

// PropertyRetriever はページの1つのプロパティを取得する。
type PropertyRetriever interface {
	RetrieveProperty(ctx context.Context, pageID, propertyID string) (notion.Value, error)
}

// Local はプロセス内でページのプロパティを解決する。
// 解決サービスを経由しない場合のランナーと、解決サービス自身が使う。
type Local struct {
	// store はプロパティの取得先。
	store PropertyRetriever
	// limit は同時に実行する取得の上限。
	limit int
	// logger はロガー。
	logger *zap.Logger
}

// NewLocal は新しいLocalを生成する。
func NewLocal(store PropertyRetriever, logger *zap.Logger) *Local {
	return &Local{store: store, limit: defaultConcurrency, logger: logger}
}

// ResolvePages は各ページの全プロパティを取得し、入力と同じ順序で返す。
// 個々のプロパティの取得に失敗した場合、そのプロパティだけがnotion.Missingになる。
// 入力のページは変更しない。
func (l *Local) ResolvePages(ctx context.Context, pages []notion.Page) ([]notion.Page, error) {
	type slot struct {
		page int
		name string
		prop notion.Property
	}

	var slots []slot
	for i, p := range pages {
		for name, prop := range p.Properties {
			slots = append(slots, slot{page: i, name: name, prop: prop})
		}
	}

	// 各goroutineは自分のスロットだけに書き込む
	var g errgroup.Group
	g.SetLimit(l.limit)
	for i := range slots {
		s := &slots[i]
		pageID := pages[s.page].ID
		g.Go(func() error {
			v, err := l.store.RetrieveProperty(ctx, pageID, s.prop.ID)
			if err != nil {
				l.logger.Warn("プロパティの取得に失敗",
					zap.String("page_id", pageID),
					zap.String("property", s.name),
					zap.Error(err),
				)
				v = notion.Missing{Reason: webhook.Truncate(err.Error(), maxReasonLength)}
			}
			s.prop = notion.Property{ID: s.prop.ID, Value: v}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("プロパティの解決が中断されました: %w", err)
	}

	out := make([]notion.Page, len(pages))
	props := make([]map[string]notion.Property, len(pages))
	for i, p := range pages {
		props[i] = make(map[string]notion.Property, len(p.Properties))
	}
	for _, s := range slots {
		props[s.page][s.name] = s.prop
	}
	for i, p := range pages {
		out[i] = p.WithProperties(props[i])
	}
	return out, nil
}
