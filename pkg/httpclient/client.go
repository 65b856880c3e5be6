package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// defaultTimeout は1リクエストあたりの既定タイムアウト。
const defaultTimeout = 30 * time.Second

// maxErrorBody はエラー時にStatusErrorへ保持するレスポンスボディの最大バイト数。
const maxErrorBody = 4096

// Client はサービス間通信および外部API呼び出し用のHTTPクライアント。
// ベースURL、固定ヘッダー、Bearerトークンの取得方法を持つ。
type Client struct {
	// httpClient は内部で使用するHTTPクライアント。
	httpClient *http.Client
	// baseURL は接続先のベースURL。Webhookのように完全なURLを指定してもよい。
	baseURL string
	// headers は全リクエストに付与する固定ヘッダー。
	headers map[string]string
	// tokenSource はリクエストごとにBearerトークンを返す関数。nilの場合は付与しない。
	tokenSource func() (string, error)
}

// Option はClientの設定を変更する関数。
type Option func(*Client)

// WithTimeout はリクエストのタイムアウトを設定する。
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHeader は全リクエストに付与する固定ヘッダーを追加する。
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// WithTokenSource はリクエストごとにAuthorization: Bearerヘッダーを付与する。
// 短命なサービストークンを毎回発行する用途を想定している。
func WithTokenSource(fn func() (string, error)) Option {
	return func(c *Client) {
		c.tokenSource = fn
	}
}

// WithHTTPClient は内部で使用するHTTPクライアントを差し替える。
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New は新しいHTTPクライアントを生成する。
// baseURLには接続先のベースURL（例: "https://api.notion.com"）を指定する。
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		baseURL: baseURL,
		headers: make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL は接続先のベースURLを返す。
func (c *Client) BaseURL() string {
	return c.baseURL
}

// PostJSON は指定パスにJSONボディでPOSTリクエストを送信する。
// resultがnilでなければレスポンスボディをデシリアライズする。
func (c *Client) PostJSON(ctx context.Context, path string, body any, result any) error {
	return c.doJSON(ctx, http.MethodPost, path, body, result)
}

// GetJSON は指定パスにGETリクエストを送信する。
// resultがnilでなければレスポンスボディをデシリアライズする。
func (c *Client) GetJSON(ctx context.Context, path string, result any) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, result)
}

// StatusError は2xx以外のHTTPステータスが返ったことを表すエラー。
type StatusError struct {
	// StatusCode はHTTPステータスコード。
	StatusCode int
	// Body はレスポンスボディの先頭部分。
	Body string
}

// Error はエラーメッセージを返す。
func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTPエラー: status=%d, body=%s", e.StatusCode, e.Body)
}

// doJSON はJSON形式のHTTPリクエストを実行する共通処理。
func (c *Client) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("リクエストボディのシリアライズに失敗: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	if c.tokenSource != nil {
		token, err := c.tokenSource()
		if err != nil {
			return fmt.Errorf("認証トークンの取得に失敗: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	// コンテキストから実行IDを伝播する
	if runID, ok := ctx.Value(contextKeyRunID).(string); ok {
		req.Header.Set(HeaderRunID, runID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTPリクエストの送信に失敗: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("レスポンスボディのデシリアライズに失敗: %w", err)
		}
	}
	return nil
}

// HeaderRunID はパイプライン実行IDをサービス間で伝播するためのHTTPヘッダーキー。
const HeaderRunID = "X-Run-ID"

// contextKey はコンテキストキーの型。
type contextKey string

// contextKeyRunID はコンテキストに実行IDを格納するためのキー。
const contextKeyRunID contextKey = "run_id"

// WithRunID はコンテキストにパイプライン実行IDを設定する。
// 解決サービスへの呼び出しでログを突き合わせるために使用する。
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, contextKeyRunID, runID)
}

// RunIDFrom はコンテキストから実行IDを取り出す。設定されていなければ空文字列を返す。
func RunIDFrom(ctx context.Context) string {
	runID, _ := ctx.Value(contextKeyRunID).(string)
	return runID
}
