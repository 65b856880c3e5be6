package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nao1215/taskbot/pkg/webhook"
)

const (
	// DefaultEventsDatabaseID はイベントを管理するNotionデータベースの既定ID。
	DefaultEventsDatabaseID = "b42e8533001d43e7a32e8f2788fd548e"
	// DefaultTimezone は「今日」を決めるタイムゾーンの既定値。
	DefaultTimezone = "America/Los_Angeles"
	// DefaultUsername は通知の投稿者名。
	DefaultUsername = "🤖 Task Bot"
	// testHookSplit はテストモードでTEST_HOOK_1に送る委員会の数。
	testHookSplit = 5
)

//go:embed teams.yaml
var defaultTeams []byte

// ErrMissingSetting は必須の設定値が無いことを表す。
var ErrMissingSetting = errors.New("必須の設定値がありません")

// Team は1つの委員会の通知設定。
type Team struct {
	// Name は委員会名。Notionの選択肢名と一致する。
	Name string `yaml:"name"`
	// Webhook は通知先のWebhook URL。
	Webhook string `yaml:"webhook"`
	// Roles はメンションするDiscordロールID。
	Roles []string `yaml:"roles"`
}

// teamsFile はチーム設定ファイルの形式。
type teamsFile struct {
	Teams []Team `yaml:"teams"`
}

// Config はタスクランナーの1回の実行に使う設定のスナップショット。
// 生成後は変更せず、差し替える場合は新しい値を作る。
type Config struct {
	// Port はHTTPサーバーのリッスンポート。
	Port string
	// NotionToken はNotion APIのトークン。
	NotionToken string
	// NotionBaseURL はNotion APIのベースURL。空の場合は既定値を使う。
	NotionBaseURL string
	// EventsDatabaseID はイベントデータベースのID。
	EventsDatabaseID string
	// SecretToken はトリガー要求とサービス間トークンに使う共有シークレット。
	SecretToken string
	// LogHook は致命的エラーの報告先Webhook。
	LogHook string
	// ResolverURL はプロパティ解決サービスのURL。空の場合はプロセス内で解決する。
	ResolverURL string
	// TeamsPath はチーム設定ファイルのパス。空の場合は埋め込みの既定値を使う。
	TeamsPath string
	// Testing がtrueの場合はテスト用Webhookに送り、メンションを付けない。
	Testing bool
	// TestHooks はテストモードで使う2つのWebhook。
	TestHooks [2]string
	// Location は「今日」を決めるタイムゾーン。
	Location *time.Location
	// Username は通知の投稿者名。
	Username string
	// AvatarURL は通知の投稿者アバター。
	AvatarURL string

	// teams は設定ファイル上の順序を保った委員会一覧。
	teams []Team
}

// Load は環境変数とチーム設定ファイルから設定を読み込む。
func Load() (*Config, error) {
	cfg := &Config{
		Port:             getEnvOr("PORT", "8080"),
		NotionToken:      os.Getenv("NOTION_TOKEN"),
		NotionBaseURL:    os.Getenv("NOTION_BASE_URL"),
		EventsDatabaseID: getEnvOr("EVENTS_DATABASE_ID", DefaultEventsDatabaseID),
		SecretToken:      os.Getenv("SECRET_TOKEN"),
		LogHook:          os.Getenv("LOG_HOOK"),
		ResolverURL:      os.Getenv("RESOLVER_URL"),
		TeamsPath:        os.Getenv("TEAMS_CONFIG"),
		Testing:          os.Getenv("TESTING") == "true",
		TestHooks:        [2]string{os.Getenv("TEST_HOOK_1"), os.Getenv("TEST_HOOK_2")},
		Username:         DefaultUsername,
		AvatarURL:        webhook.DefaultAvatarURL,
	}

	if cfg.NotionToken == "" {
		return nil, fmt.Errorf("NOTION_TOKEN: %w", ErrMissingSetting)
	}
	if cfg.SecretToken == "" {
		return nil, fmt.Errorf("SECRET_TOKEN: %w", ErrMissingSetting)
	}

	loc, err := time.LoadLocation(getEnvOr("TIMEZONE", DefaultTimezone))
	if err != nil {
		return nil, fmt.Errorf("タイムゾーンの読み込みに失敗: %w", err)
	}
	cfg.Location = loc

	teams, err := ReadTeams(cfg.TeamsPath)
	if err != nil {
		return nil, err
	}
	cfg.teams = teams

	return cfg, nil
}

// ReadTeams はチーム設定ファイルを読み込む。pathが空の場合は埋め込みの既定値を使う。
func ReadTeams(path string) ([]Team, error) {
	data := defaultTeams
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("チーム設定ファイルの読み込みに失敗: %w", err)
		}
		data = b
	}
	return ParseTeams(data, os.Getenv)
}

// ParseTeams はYAMLのチーム設定を解析し、${ENV}をgetenvで展開する。
// 委員会名の重複と空の名前はエラーとする。
func ParseTeams(data []byte, getenv func(string) string) ([]Team, error) {
	var f teamsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("チーム設定の解析に失敗: %w", err)
	}

	seen := make(map[string]bool, len(f.Teams))
	teams := make([]Team, 0, len(f.Teams))
	for i, t := range f.Teams {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			return nil, fmt.Errorf("%d番目の委員会: name: %w", i+1, ErrMissingSetting)
		}
		if seen[name] {
			return nil, fmt.Errorf("委員会 %q が重複しています", name)
		}
		seen[name] = true
		teams = append(teams, Team{
			Name:    name,
			Webhook: os.Expand(t.Webhook, getenv),
			Roles:   append([]string(nil), t.Roles...),
		})
	}
	return teams, nil
}

// WithTeams は委員会一覧を差し替えたコピーを返す。
func (c *Config) WithTeams(teams []Team) *Config {
	next := *c
	next.teams = append([]Team(nil), teams...)
	return &next
}

// Teams は設定ファイル上の順序で委員会名を返す。
func (c *Config) Teams() []string {
	names := make([]string, 0, len(c.teams))
	for _, t := range c.teams {
		names = append(names, t.Name)
	}
	return names
}

// Endpoint は委員会の通知先Webhookを返す。
// テストモードでは先頭5委員会がTEST_HOOK_1、残りがTEST_HOOK_2になる。
// 未知の委員会の場合はfalseを返す。
func (c *Config) Endpoint(team string) (string, bool) {
	for i, t := range c.teams {
		if t.Name != team {
			continue
		}
		if !c.Testing {
			return t.Webhook, true
		}
		if i < testHookSplit {
			return c.TestHooks[0], true
		}
		return c.TestHooks[1], true
	}
	return "", false
}

// Mentions は委員会でメンションするロールIDを返す。テストモードでは常に空。
func (c *Config) Mentions(team string) []string {
	if c.Testing {
		return nil
	}
	for _, t := range c.teams {
		if t.Name == team {
			return append([]string(nil), t.Roles...)
		}
	}
	return nil
}

// Now は設定したタイムゾーンでの現在時刻を返す。
func (c *Config) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}

// getEnvOr は環境変数の値を取得し、未設定の場合はデフォルト値を返す。
func getEnvOr(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
