package resolver

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"github.com/nao1215/taskbot/internal/notion"
	"github.com/nao1215/taskbot/pkg/httpclient"
	"github.com/nao1215/taskbot/pkg/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testSecret = "shared-secret"

// fakeStore はプロパティIDごとの値を返すテスト用のストア。
type fakeStore struct {
	mu     sync.Mutex
	values map[string]notion.Value
	fail   map[string]error
	calls  []string
}

func (f *fakeStore) RetrieveProperty(_ context.Context, pageID, propertyID string) (notion.Value, error) {
	f.mu.Lock()
	f.calls = append(f.calls, pageID+"/"+propertyID)
	f.mu.Unlock()

	if err, ok := f.fail[propertyID]; ok {
		return nil, err
	}
	return f.values[propertyID], nil
}

// partialPages はクエリ直後の、値が省略されたページ。
func partialPages() []notion.Page {
	return []notion.Page{
		{
			ID: "task-a",
			Properties: map[string]notion.Property{
				"Name":   {ID: "title", Value: notion.Title{}},
				"Status": {ID: "st", Value: notion.Status{}},
			},
		},
		{
			ID: "task-b",
			Properties: map[string]notion.Property{
				"Name":   {ID: "title", Value: notion.Title{}},
				"Assign": {ID: "as", Value: notion.People{}},
			},
		},
	}
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		values: map[string]notion.Value{
			"title": notion.Title{Text: "Book venue"},
			"st":    notion.Status{Name: "In progress"},
		},
		fail: map[string]error{"as": errors.New("status=502")},
	}
}

// TestLocalResolvePages はプロセス内の解決を検証する。
func TestLocalResolvePages(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	in := partialPages()
	got, err := NewLocal(store, zap.NewNop()).ResolvePages(context.Background(), in)
	if err != nil {
		t.Fatalf("ResolvePages() error = %v", err)
	}

	if len(got) != 2 || got[0].ID != "task-a" || got[1].ID != "task-b" {
		t.Fatalf("順序が保たれていない: %+v", got)
	}
	if got[0].Text("Name") != "Book venue" || got[0].StatusName("Status") != "In progress" {
		t.Errorf("task-a = %+v", got[0].Properties)
	}
	if m, ok := got[1].Value("Assign").(notion.Missing); !ok || m.Reason == "" {
		t.Errorf("失敗したプロパティはMissingになるべき: %#v", got[1].Value("Assign"))
	}
	if got[1].Text("Name") != "Book venue" {
		t.Errorf("同じページの他のプロパティは解決されるべき: %+v", got[1].Properties)
	}
	if len(store.calls) != 4 {
		t.Errorf("calls = %v, want 4 calls", store.calls)
	}
	if in[0].Text("Name") != "" {
		t.Error("入力のページは変更されないべき")
	}
}

// TestLocalResolvePagesCanceled はキャンセル時にエラーを返すことを検証する。
func TestLocalResolvePagesCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLocal(newFakeStore(), zap.NewNop()).ResolvePages(ctx, partialPages())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

// newTestServer は解決サーバーを起動する。
func newTestServer(t *testing.T, store PropertyRetriever) *httptest.Server {
	t.Helper()
	s, err := NewServer("0", NewLocal(store, zap.NewNop()), testSecret, zap.NewNop())
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

// TestNewServer はシークレット未設定の場合にエラーを返すことを検証する。
func TestNewServer(t *testing.T) {
	t.Parallel()

	if _, err := NewServer("0", NewLocal(newFakeStore(), zap.NewNop()), "", zap.NewNop()); err == nil {
		t.Error("シークレット未設定ではエラーを返すべき")
	}
}

// TestHandleResolve は解決APIの認証と応答を検証する。
func TestHandleResolve(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, newFakeStore())

	t.Run("トークンが無い場合401を返すこと", func(t *testing.T) {
		t.Parallel()

		resp, err := http.Post(ts.URL+ResolvePath, "application/json", bytes.NewBufferString("[]"))
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", resp.StatusCode)
		}
	})

	t.Run("別のシークレットで署名したトークンは401を返すこと", func(t *testing.T) {
		t.Parallel()

		token, err := middleware.GenerateServiceToken("other", "run-1", middleware.ServiceTokenTTL)
		if err != nil {
			t.Fatal(err)
		}
		req, _ := http.NewRequest(http.MethodPost, ts.URL+ResolvePath, bytes.NewBufferString("[]"))
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", resp.StatusCode)
		}
	})

	t.Run("不正なボディは400を返すこと", func(t *testing.T) {
		t.Parallel()

		token, _ := middleware.GenerateServiceToken(testSecret, "run-1", middleware.ServiceTokenTTL)
		req, _ := http.NewRequest(http.MethodPost, ts.URL+ResolvePath, bytes.NewBufferString(`{"not":"a list"}`))
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
	})

	t.Run("ヘルスチェックは認証不要であること", func(t *testing.T) {
		t.Parallel()

		resp, err := http.Get(ts.URL + "/health")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("status = %d, want 200", resp.StatusCode)
		}
	})
}

// TestClientResolvePages はクライアントとサーバーの往復を検証する。
func TestClientResolvePages(t *testing.T) {
	t.Parallel()

	t.Run("解決済みのページが入力順に返ること", func(t *testing.T) {
		t.Parallel()

		ts := newTestServer(t, newFakeStore())
		ctx := httpclient.WithRunID(context.Background(), "run-42")

		got, err := NewClient(ts.URL, testSecret).ResolvePages(ctx, partialPages())
		if err != nil {
			t.Fatalf("ResolvePages() error = %v", err)
		}

		want, _ := NewLocal(newFakeStore(), zap.NewNop()).ResolvePages(context.Background(), partialPages())
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("サービス経由とプロセス内で結果が異なる (-local +client):\n%s", diff)
		}
	})

	t.Run("実行IDがトークンとヘッダーで伝わること", func(t *testing.T) {
		t.Parallel()

		var (
			mu                  sync.Mutex
			gotRunID, gotHeader string
		)
		router := gin.New()
		router.POST(ResolvePath, middleware.ServiceAuth(testSecret), func(c *gin.Context) {
			mu.Lock()
			defer mu.Unlock()
			gotRunID = middleware.GetRunID(c)
			gotHeader = c.GetHeader(httpclient.HeaderRunID)
			c.JSON(http.StatusOK, []notion.Page{})
		})
		ts := httptest.NewServer(router)
		defer ts.Close()

		ctx := httpclient.WithRunID(context.Background(), "run-7")
		if _, err := NewClient(ts.URL, testSecret).ResolvePages(ctx, nil); err != nil {
			t.Fatalf("ResolvePages() error = %v", err)
		}
		mu.Lock()
		defer mu.Unlock()
		if gotRunID != "run-7" || gotHeader != "run-7" {
			t.Errorf("run id: token=%q header=%q, want run-7", gotRunID, gotHeader)
		}
	})

	t.Run("サーバーエラーはエラーとして返ること", func(t *testing.T) {
		t.Parallel()

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer ts.Close()

		_, err := NewClient(ts.URL, testSecret).ResolvePages(context.Background(), partialPages())
		var se *httpclient.StatusError
		if !errors.As(err, &se) || se.StatusCode != http.StatusBadGateway {
			t.Errorf("err = %v, want StatusError 502", err)
		}
	})
}
