package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// TestTruncate はTruncate関数を検証する。
func TestTruncate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{name: "上限以下はそのまま返ること", in: "abc", n: 3, want: "abc"},
		{name: "上限を超えると切り詰められること", in: "abcdef", n: 4, want: "abcd"},
		{name: "マルチバイト文字をrune単位で切り詰めること", in: "‼締切超過です", n: 3, want: "‼締切"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Truncate(tt.in, tt.n); got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
			}
		})
	}
}

// TestNew はNew関数を検証する。
func TestNew(t *testing.T) {
	t.Parallel()

	p := New("🤖 Task Bot", strings.Repeat("x", 2500), Embed{Title: "t", Description: "d"})
	if len(p.Content) != MaxContentLength {
		t.Errorf("len(Content) = %d, want %d", len(p.Content), MaxContentLength)
	}
	if p.AvatarURL != DefaultAvatarURL {
		t.Errorf("AvatarURL = %q", p.AvatarURL)
	}
	if len(p.Embeds) != 1 {
		t.Errorf("len(Embeds) = %d, want 1", len(p.Embeds))
	}
}

// TestHTTPSender はHTTPSenderの送信処理を検証する。
func TestHTTPSender(t *testing.T) {
	t.Parallel()

	t.Run("仕様どおりのJSONフィールド名で送信されること", func(t *testing.T) {
		t.Parallel()

		var got map[string]any
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewDecoder(r.Body).Decode(&got)
			w.WriteHeader(http.StatusNoContent)
		}))
		defer ts.Close()

		p := New("bot", "hello", Embed{Title: "Tasks Overview for 'Marketing'", Description: "body"})
		if err := (HTTPSender{}).Send(context.Background(), ts.URL, p); err != nil {
			t.Fatalf("Send()でエラーが発生: %v", err)
		}
		for _, key := range []string{"username", "avatar_url", "content", "embeds"} {
			if _, ok := got[key]; !ok {
				t.Errorf("フィールド %q が送信されていない", key)
			}
		}
		embeds, _ := got["embeds"].([]any)
		if len(embeds) != 1 {
			t.Fatalf("len(embeds) = %d, want 1", len(embeds))
		}
		embed, _ := embeds[0].(map[string]any)
		if embed["title"] != "Tasks Overview for 'Marketing'" || embed["description"] != "body" {
			t.Errorf("embed = %v", embed)
		}
	})

	t.Run("失敗ステータスでエラーが返ること", func(t *testing.T) {
		t.Parallel()

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer ts.Close()

		if err := (HTTPSender{}).Send(context.Background(), ts.URL, New("bot", "x")); err == nil {
			t.Fatal("Send()がエラーを返すべきだが、nilが返った")
		}
	})

	t.Run("URL未設定でエラーが返ること", func(t *testing.T) {
		t.Parallel()

		if err := (HTTPSender{}).Send(context.Background(), "", New("bot", "x")); err == nil {
			t.Fatal("Send()がエラーを返すべきだが、nilが返った")
		}
	})
}
