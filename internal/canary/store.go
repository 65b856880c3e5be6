package canary

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/nao1215/taskbot/pkg/migration"
)

//go:embed migrations
var migrationsFS embed.FS

// timeLayout は保存する日時の形式。文字列の順序が時刻の順序と一致する。
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Check は1回のチェックの記録。
type Check struct {
	// ID はチェックの一意識別子。
	ID string `json:"id"`
	// StartedAt は開始日時。
	StartedAt time.Time `json:"started_at"`
	// FinishedAt は終了日時。
	FinishedAt time.Time `json:"finished_at"`
	// OK はランナーの実行が成功したか。
	OK bool `json:"ok"`
	// Teams は通知された委員会。
	Teams []string `json:"teams"`
	// Error は失敗時のエラー。
	Error string `json:"error,omitempty"`
	// Notified は結果をWebhookに投稿できたか。
	Notified bool `json:"notified"`
}

// Store はチェック履歴のSQLiteストア。
type Store struct {
	db *sql.DB
}

// Open はSQLiteデータベースを開き、マイグレーションを適用する。
func Open(ctx context.Context, dsn string, logger *zap.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}
	// :memory: は接続ごとに別のデータベースになる
	db.SetMaxOpenConns(1)

	if err := migration.Run(ctx, db, migrationsFS, "migrations", logger); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}
	return &Store{db: db}, nil
}

// Close はデータベースを閉じる。
func (s *Store) Close() error {
	return s.db.Close()
}

// SchemaVersion は適用済みのスキーマバージョンを返す。
func (s *Store) SchemaVersion() (int, error) {
	return migration.Version(s.db)
}

// Record はチェックを保存する。
func (s *Store) Record(ctx context.Context, c Check) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO checks (id, started_at, finished_at, ok, teams, error, notified)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID,
		c.StartedAt.UTC().Format(timeLayout),
		c.FinishedAt.UTC().Format(timeLayout),
		boolToInt(c.OK),
		strings.Join(c.Teams, "\n"),
		c.Error,
		boolToInt(c.Notified),
	)
	if err != nil {
		return fmt.Errorf("チェック %s の保存に失敗: %w", c.ID, err)
	}
	return nil
}

// List は新しい順に最大limit件のチェックを返す。
func (s *Store) List(ctx context.Context, limit int) ([]Check, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, ok, teams, error, notified
		 FROM checks ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("チェック一覧の取得に失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()

	checks := make([]Check, 0)
	for rows.Next() {
		var (
			c                 Check
			started, finished string
			ok, notified      int
			teams             string
		)
		if err := rows.Scan(&c.ID, &started, &finished, &ok, &teams, &c.Error, &notified); err != nil {
			return nil, fmt.Errorf("チェックの読み込みに失敗: %w", err)
		}
		if c.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			return nil, fmt.Errorf("開始日時の解析に失敗: %w", err)
		}
		if c.FinishedAt, err = time.Parse(timeLayout, finished); err != nil {
			return nil, fmt.Errorf("終了日時の解析に失敗: %w", err)
		}
		c.OK = ok != 0
		c.Notified = notified != 0
		c.Teams = []string{}
		if teams != "" {
			c.Teams = strings.Split(teams, "\n")
		}
		checks = append(checks, c)
	}
	return checks, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
