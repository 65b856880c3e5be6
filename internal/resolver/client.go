package resolver

import (
	"context"
	"fmt"
	"time"

	"github.com/nao1215/taskbot/internal/notion"
	"github.com/nao1215/taskbot/pkg/httpclient"
	"github.com/nao1215/taskbot/pkg/middleware"
)

// ResolvePath は一括解決APIのパス。
const ResolvePath = "/api/v1/resolve"

// clientTimeout は1チャンクの解決を待つ時間。
const clientTimeout = 60 * time.Second

// Client は解決サービスにチャンクを送って解決させるクライアント。
type Client struct {
	// baseURL は解決サービスのベースURL。
	baseURL string
	// secret はサービストークンの署名に使う共有シークレット。
	secret string
}

// NewClient は新しいClientを生成する。
func NewClient(baseURL, secret string) *Client {
	return &Client{baseURL: baseURL, secret: secret}
}

// ResolvePages はページのチャンクを解決サービスに送り、解決済みのページを受け取る。
// リクエストごとに実行IDを含む短命のサービストークンを付与する。
func (c *Client) ResolvePages(ctx context.Context, pages []notion.Page) ([]notion.Page, error) {
	runID := httpclient.RunIDFrom(ctx)
	client := httpclient.New(c.baseURL,
		httpclient.WithTimeout(clientTimeout),
		httpclient.WithTokenSource(func() (string, error) {
			return middleware.GenerateServiceToken(c.secret, runID, middleware.ServiceTokenTTL)
		}),
	)

	var resolved []notion.Page
	if err := client.PostJSON(ctx, ResolvePath, pages, &resolved); err != nil {
		return nil, fmt.Errorf("解決サービスの呼び出しに失敗: %w", err)
	}
	return resolved, nil
}
