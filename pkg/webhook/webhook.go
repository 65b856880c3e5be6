// Package webhook はDiscord互換のチャットWebhookに投稿するペイロードと送信処理を提供する。
package webhook

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/nao1215/taskbot/pkg/httpclient"
)

const (
	// MaxContentLength はcontentフィールドの最大文字数。
	MaxContentLength = 2000
	// MaxDescriptionLength は埋め込みの本文の最大文字数。
	MaxDescriptionLength = 4096
	// DefaultAvatarURL はボット投稿に使うアバター画像のURL。
	DefaultAvatarURL = "https://cdn.discordapp.com/icons/825566580922122240/86a4f047ac47ca24ae7c805be2bac514.webp?size=96"
	// sendTimeout は1回の投稿のタイムアウト。
	sendTimeout = 15 * time.Second
)

// Payload はWebhookに送信するJSONドキュメント。
type Payload struct {
	// Username は投稿者として表示される名前。
	Username string `json:"username"`
	// AvatarURL は投稿者のアバター画像URL。
	AvatarURL string `json:"avatar_url"`
	// Content は本文。ロールメンションと通知理由を含む。
	Content string `json:"content"`
	// Embeds は埋め込みメッセージ。
	Embeds []Embed `json:"embeds,omitempty"`
}

// Embed は埋め込みメッセージのタイトルと本文。
type Embed struct {
	// Title は埋め込みのタイトル。
	Title string `json:"title"`
	// Description は埋め込みの本文。
	Description string `json:"description"`
}

// New は既定のアバターを使うペイロードを生成する。
// contentはMaxContentLengthを超える場合に切り詰める。
func New(username, content string, embeds ...Embed) Payload {
	return Payload{
		Username:  username,
		AvatarURL: DefaultAvatarURL,
		Content:   Truncate(content, MaxContentLength),
		Embeds:    embeds,
	}
}

// Truncate は文字列を先頭からn文字（rune単位）に切り詰める。
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// ErrNoURL は投稿先URLが空であることを表す。
var ErrNoURL = errors.New("Webhook URLが設定されていません")

// Sender はWebhookへの投稿を抽象化するインターフェース。
type Sender interface {
	Send(ctx context.Context, url string, p Payload) error
}

// HTTPSender はHTTP POSTでWebhookに投稿するSender実装。
// レスポンスボディは解釈せず、ステータスコードのみで成否を判定する。
type HTTPSender struct{}

// Send はペイロードをurlにPOSTする。
func (HTTPSender) Send(ctx context.Context, url string, p Payload) error {
	if url == "" {
		return ErrNoURL
	}
	client := httpclient.New(url, httpclient.WithTimeout(sendTimeout))
	if err := client.PostJSON(ctx, "", p, nil); err != nil {
		return fmt.Errorf("Webhookへの投稿に失敗: %w", err)
	}
	return nil
}
