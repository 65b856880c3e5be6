// Package migration はSQLiteデータベースのマイグレーションを管理する。
// embed.FSからSQLファイルを読み込み、バージョン管理テーブルで適用状態を追跡する。
package migration

import (
	"cmp"
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// upSuffix は適用するマイグレーションファイルの接尾辞。
const upSuffix = ".up.sql"

// file は1つのマイグレーションファイル。
type file struct {
	version int
	name    string
	path    string
}

// Run はdir直下の*.up.sqlをバージョン順に適用する。適用済みのバージョンはスキップする。
// ファイル名は 000001_description.up.sql の形式で、形式が不正なファイルや
// バージョンの重複があればどれも適用せずにエラーを返す。
func Run(ctx context.Context, db *sql.DB, fsys fs.FS, dir string, logger *zap.Logger) error {
	files, err := collect(fsys, dir)
	if err != nil {
		return fmt.Errorf("マイグレーションファイルの収集に失敗: %w", err)
	}

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME NOT NULL DEFAULT (datetime('now'))
		)
	`); err != nil {
		return fmt.Errorf("マイグレーション管理テーブルの作成に失敗: %w", err)
	}

	current, err := Version(db)
	if err != nil {
		return err
	}

	for _, f := range files {
		if f.version <= current {
			continue
		}
		if err := apply(ctx, db, fsys, f); err != nil {
			return fmt.Errorf("マイグレーション %06d_%s の適用に失敗: %w", f.version, f.name, err)
		}
		logger.Info("マイグレーションを適用", zap.Int("version", f.version), zap.String("name", f.name))
	}
	return nil
}

// Version は適用済みの最新バージョンを返す。未適用の場合は0。
func Version(db *sql.DB) (int, error) {
	var v sql.NullInt64
	if err := db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&v); err != nil {
		return 0, fmt.Errorf("バージョンの取得に失敗: %w", err)
	}
	return int(v.Int64), nil
}

// collect はdir直下の*.up.sqlをバージョン順に並べて返す。
func collect(fsys fs.FS, dir string) ([]file, error) {
	paths, err := fs.Glob(fsys, path.Join(dir, "*"+upSuffix))
	if err != nil {
		return nil, err
	}

	files := make([]file, 0, len(paths))
	seen := make(map[int]string, len(paths))
	for _, p := range paths {
		base := strings.TrimSuffix(path.Base(p), upSuffix)
		num, name, ok := strings.Cut(base, "_")
		if !ok || name == "" {
			return nil, fmt.Errorf("%s: ファイル名は 000001_description%s の形式にしてください", p, upSuffix)
		}
		version, err := strconv.Atoi(num)
		if err != nil || version < 1 {
			return nil, fmt.Errorf("%s: バージョン %q が不正です", p, num)
		}
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("%s: バージョン %d が %s と重複しています", p, version, prev)
		}
		seen[version] = p
		files = append(files, file{version: version, name: name, path: p})
	}

	slices.SortFunc(files, func(a, b file) int { return cmp.Compare(a.version, b.version) })
	return files, nil
}

// apply は1つのマイグレーションとバージョンの記録を同じトランザクションで行う。
func apply(ctx context.Context, db *sql.DB, fsys fs.FS, f file) error {
	content, err := fs.ReadFile(fsys, f.path)
	if err != nil {
		return fmt.Errorf("ファイル読み込みに失敗: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, string(content)); err != nil {
		return fmt.Errorf("SQL実行に失敗: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", f.version); err != nil {
		return fmt.Errorf("バージョン記録に失敗: %w", err)
	}
	return tx.Commit()
}
