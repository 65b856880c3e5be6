package notion

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestQueryDatabase はQueryDatabaseのページネーションとリクエスト形式を検証する。
func TestQueryDatabase(t *testing.T) {
	t.Parallel()

	t.Run("has_moreがfalseになるまで全ページを順に取得すること", func(t *testing.T) {
		t.Parallel()

		var cursors []string
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/databases/db-1/query", r.URL.Path)
			assert.Equal(t, "Bearer secret_token", r.Header.Get("Authorization"))
			assert.Equal(t, APIVersion, r.Header.Get("Notion-Version"))

			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			cursor, _ := body["start_cursor"].(string)
			cursors = append(cursors, cursor)
			assert.Contains(t, body, "filter")

			if cursor == "" {
				w.Write([]byte(`{"results":[{"id":"p1","properties":{}},{"id":"p2","properties":{}}],"has_more":true,"next_cursor":"c2"}`))
				return
			}
			w.Write([]byte(`{"results":[{"id":"p3","properties":{}}],"has_more":false,"next_cursor":null}`))
		}))
		defer ts.Close()

		client := NewClient(ts.URL, "secret_token")
		pages, err := client.QueryDatabase(context.Background(), "db-1", MultiSelectContains("Type", "Event"))
		require.NoError(t, err)

		ids := make([]string, 0, len(pages))
		for _, p := range pages {
			ids = append(ids, p.ID)
		}
		assert.Equal(t, []string{"p1", "p2", "p3"}, ids)
		assert.Equal(t, []string{"", "c2"}, cursors)
	})

	t.Run("APIエラーがラップされて返ること", func(t *testing.T) {
		t.Parallel()

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"object":"error","code":"validation_error"}`))
		}))
		defer ts.Close()

		_, err := NewClient(ts.URL, "t").QueryDatabase(context.Background(), "db-1", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db-1")
	})
}

// TestChildDatabase はChildDatabaseを検証する。
func TestChildDatabase(t *testing.T) {
	t.Parallel()

	t.Run("最初のchild_databaseブロックのIDを返すこと", func(t *testing.T) {
		t.Parallel()

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/blocks/event-1/children", r.URL.Path)
			if r.URL.Query().Get("start_cursor") == "" {
				w.Write([]byte(`{"results":[{"id":"b1","type":"paragraph"}],"has_more":true,"next_cursor":"n1"}`))
				return
			}
			w.Write([]byte(`{"results":[{"id":"db-a","type":"child_database"},{"id":"db-b","type":"child_database"}],"has_more":false}`))
		}))
		defer ts.Close()

		id, err := NewClient(ts.URL, "t").ChildDatabase(context.Background(), "event-1")
		require.NoError(t, err)
		assert.Equal(t, "db-a", id)
	})

	t.Run("子データベースが無い場合ErrNoChildDatabaseを返すこと", func(t *testing.T) {
		t.Parallel()

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"results":[{"id":"b1","type":"column_list"}],"has_more":false}`))
		}))
		defer ts.Close()

		_, err := NewClient(ts.URL, "t").ChildDatabase(context.Background(), "event-1")
		assert.True(t, errors.Is(err, ErrNoChildDatabase), "err = %v", err)
	})
}

// TestRetrieveProperty はRetrievePropertyの単一値・一覧値の扱いを検証する。
func TestRetrieveProperty(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		responses []string
		want      Value
	}{
		{
			name:      "単一選択の値をそのまま返すこと",
			responses: []string{`{"object":"property_item","id":"a%3Ab","type":"select","select":{"id":"x","name":"Marketing","color":"red"}}`},
			want:      Select{Name: "Marketing"},
		},
		{
			name:      "日付数式を返すこと",
			responses: []string{`{"object":"property_item","id":"f","type":"formula","formula":{"type":"date","date":{"start":"2024-09-10","end":null}}}`},
			want:      Formula{ResultType: "date", Date: Date{Start: "2024-09-10"}},
		},
		{
			name: "ページをまたぐタイトルを連結すること",
			responses: []string{
				`{"object":"list","results":[{"object":"property_item","type":"title","title":{"plain_text":"Fall "}}],"property_item":{"id":"title","type":"title"},"has_more":true,"next_cursor":"c1"}`,
				`{"object":"list","results":[{"object":"property_item","type":"title","title":{"plain_text":"Kickoff"}}],"property_item":{"id":"title","type":"title"},"has_more":false}`,
			},
			want: Title{Text: "Fall Kickoff"},
		},
		{
			name:      "ユーザー一覧を集めること",
			responses: []string{`{"object":"list","results":[{"type":"people","people":{"id":"u1","name":"Alex"}},{"type":"people","people":{"id":"u2","name":"Sam"}}],"property_item":{"type":"people"},"has_more":false}`},
			want:      People{People: []Person{{ID: "u1", Name: "Alex"}, {ID: "u2", Name: "Sam"}}},
		},
		{
			name:      "空のタイトル一覧は空文字列のTitleになること",
			responses: []string{`{"object":"list","results":[],"property_item":{"type":"title"},"has_more":false}`},
			want:      Title{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			calls := 0
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v1/pages/page-1/properties/prop-1", r.URL.Path)
				w.Write([]byte(tt.responses[calls]))
				calls++
			}))
			defer ts.Close()

			got, err := NewClient(ts.URL, "t").RetrieveProperty(context.Background(), "page-1", "prop-1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, len(tt.responses), calls)
		})
	}
}

// TestFilter はフィルタがNotion APIの形式でシリアライズされることを検証する。
func TestFilter(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 9, 10, 8, 0, 0, 0, time.UTC)
	f := And(
		MultiSelectContains("Type", "Event"),
		Or(DateNextMonth("Date"), DatePastWeek("Date")),
		FormulaDateOnOrBefore("Due Date", at),
	)
	b, err := json.Marshal(f)
	require.NoError(t, err)
	assert.JSONEq(t, `{"and":[
		{"property":"Type","multi_select":{"contains":"Event"}},
		{"or":[{"property":"Date","date":{"next_month":{}}},{"property":"Date","date":{"past_week":{}}}]},
		{"property":"Due Date","formula":{"date":{"on_or_before":"2024-09-10T08:00:00Z"}}}
	]}`, string(b))
}
