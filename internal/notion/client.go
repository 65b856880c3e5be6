package notion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/nao1215/taskbot/pkg/httpclient"
)

const (
	// DefaultBaseURL はNotion APIのベースURL。
	DefaultBaseURL = "https://api.notion.com"
	// APIVersion はリクエストに付与するNotion-Versionヘッダーの値。
	APIVersion = "2022-06-28"
	// pageSize はページネーションの1回あたりの取得件数。
	pageSize = 100
)

// ErrNoChildDatabase はページ直下に子データベースが見つからないことを表す。
var ErrNoChildDatabase = errors.New("子データベースが見つかりません")

// Client はNotion REST APIのクライアント。
// クエリ・子ブロック一覧・プロパティ取得の3つの操作だけを扱う。
type Client struct {
	// http はNotion APIへのHTTPクライアント。
	http *httpclient.Client
}

// NewClient は新しいNotionクライアントを生成する。
// baseURLが空の場合はDefaultBaseURLを使用する。
func NewClient(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		http: httpclient.New(baseURL,
			httpclient.WithHeader("Authorization", "Bearer "+token),
			httpclient.WithHeader("Notion-Version", APIVersion),
		),
	}
}

// queryRequest はデータベースクエリのリクエストボディ。
type queryRequest struct {
	Filter      Filter `json:"filter,omitempty"`
	StartCursor string `json:"start_cursor,omitempty"`
	PageSize    int    `json:"page_size"`
}

// queryResponse はデータベースクエリのレスポンス。
type queryResponse struct {
	Results    []Page `json:"results"`
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor"`
}

// QueryDatabase はフィルタに一致するページをすべて取得する。
// has_moreがfalseになるまでページネーションを続け、APIが返した順序を保つ。
func (c *Client) QueryDatabase(ctx context.Context, databaseID string, filter Filter) ([]Page, error) {
	path := fmt.Sprintf("/v1/databases/%s/query", url.PathEscape(databaseID))

	var pages []Page
	cursor := ""
	for {
		var resp queryResponse
		req := queryRequest{Filter: filter, StartCursor: cursor, PageSize: pageSize}
		if err := c.http.PostJSON(ctx, path, req, &resp); err != nil {
			return nil, fmt.Errorf("データベース %s のクエリに失敗: %w", databaseID, err)
		}
		pages = append(pages, resp.Results...)
		if !resp.HasMore || resp.NextCursor == "" {
			return pages, nil
		}
		cursor = resp.NextCursor
	}
}

// blockChildrenResponse は子ブロック一覧のレスポンス。
type blockChildrenResponse struct {
	Results []struct {
		ID   string `json:"id"`
		Type string `json:"type"`
	} `json:"results"`
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor"`
}

// ChildDatabase はページ直下にある最初の子データベースのIDを返す。
// 見つからない場合はErrNoChildDatabaseを返す。他のブロックに入れ子になった
// データベースは探索しない。
func (c *Client) ChildDatabase(ctx context.Context, pageID string) (string, error) {
	cursor := ""
	for {
		q := url.Values{}
		q.Set("page_size", fmt.Sprint(pageSize))
		if cursor != "" {
			q.Set("start_cursor", cursor)
		}
		path := fmt.Sprintf("/v1/blocks/%s/children?%s", url.PathEscape(pageID), q.Encode())

		var resp blockChildrenResponse
		if err := c.http.GetJSON(ctx, path, &resp); err != nil {
			return "", fmt.Errorf("ページ %s の子ブロック取得に失敗: %w", pageID, err)
		}
		for _, b := range resp.Results {
			if b.Type == "child_database" {
				return b.ID, nil
			}
		}
		if !resp.HasMore || resp.NextCursor == "" {
			return "", fmt.Errorf("ページ %s: %w", pageID, ErrNoChildDatabase)
		}
		cursor = resp.NextCursor
	}
}

// propertyItemResponse はプロパティアイテム取得のレスポンス。
// objectが"property_item"なら単一値、"list"ならページネーションされた要素の一覧。
type propertyItemResponse struct {
	Object       string            `json:"object"`
	Type         string            `json:"type"`
	Results      []json.RawMessage `json:"results"`
	PropertyItem struct {
		Type string `json:"type"`
	} `json:"property_item"`
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor"`
}

// RetrieveProperty はページの1つのプロパティの完全な値を取得する。
// タイトル・リッチテキスト・ユーザーのように一覧で返る値は全ページを連結する。
func (c *Client) RetrieveProperty(ctx context.Context, pageID, propertyID string) (Value, error) {
	var acc Value
	listType := ""
	cursor := ""
	for {
		q := url.Values{}
		q.Set("page_size", fmt.Sprint(pageSize))
		if cursor != "" {
			q.Set("start_cursor", cursor)
		}
		// プロパティIDはAPIが返したエンコード済みの値をそのまま使う
		path := fmt.Sprintf("/v1/pages/%s/properties/%s?%s", url.PathEscape(pageID), propertyID, q.Encode())

		var raw json.RawMessage
		if err := c.http.GetJSON(ctx, path, &raw); err != nil {
			return nil, fmt.Errorf("ページ %s のプロパティ %s の取得に失敗: %w", pageID, propertyID, err)
		}
		var resp propertyItemResponse
		if err := json.Unmarshal(raw, &resp); err != nil {
			return nil, fmt.Errorf("プロパティアイテムのデシリアライズに失敗: %w", err)
		}

		if resp.Object != "list" {
			return decodeValue(resp.Type, raw, false)
		}

		listType = resp.PropertyItem.Type
		for _, item := range resp.Results {
			v, err := decodeValue(listType, item, true)
			if err != nil {
				return nil, err
			}
			acc = appendValue(acc, v)
		}
		if !resp.HasMore || resp.NextCursor == "" {
			break
		}
		cursor = resp.NextCursor
	}

	if acc == nil {
		return emptyValue(listType), nil
	}
	return acc, nil
}

// appendValue は一覧で返る値を連結する。
func appendValue(acc, v Value) Value {
	switch cur := acc.(type) {
	case Title:
		if next, ok := v.(Title); ok {
			return Title{Text: cur.Text + next.Text}
		}
	case RichText:
		if next, ok := v.(RichText); ok {
			return RichText{Text: cur.Text + next.Text}
		}
	case People:
		if next, ok := v.(People); ok {
			return People{People: append(cur.People, next.People...)}
		}
	case nil:
		return v
	}
	return acc
}

// emptyValue は要素を持たない一覧の値を返す。
func emptyValue(typ string) Value {
	switch Kind(typ) {
	case KindTitle:
		return Title{}
	case KindRichText:
		return RichText{}
	case KindPeople:
		return People{}
	default:
		return Unsupported{Type: typ}
	}
}
