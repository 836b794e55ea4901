package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/shouni/go-storyboard-kit/pkg/asset"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ImageCache は生成画像やアップロード画像を SQLite に保存します。
// プロジェクト JSON には "cache:<key>" 参照だけを残し、巨大な data URI を持たせないために使います。
type ImageCache struct {
	conn   *sql.DB
	logger *slog.Logger
}

// Open はデータベースを開き、未適用のマイグレーションを適用します。
func Open(dbPath string, logger *slog.Logger) (*ImageCache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	c := &ImageCache{conn: conn, logger: logger}
	if err := c.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return c, nil
}

// Close はデータベースを閉じます。
func (c *ImageCache) Close() error {
	return c.conn.Close()
}

func (c *ImageCache) migrate() error {
	migrations, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}

	for _, m := range migrations {
		if m.IsDir() {
			continue
		}
		name := m.Name()
		if c.isMigrationApplied(name) {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		if _, err := c.conn.Exec(string(content)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", name, err)
		}
		if _, err := c.conn.Exec("INSERT INTO _migrations (name) VALUES (?)", name); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", name, err)
		}
		c.logger.Debug("applied migration", "name", name)
	}
	return nil
}

func (c *ImageCache) isMigrationApplied(name string) bool {
	var exists int
	err := c.conn.QueryRow("SELECT 1 FROM sqlite_master WHERE type='table' AND name='_migrations'").Scan(&exists)
	if err != nil {
		return false
	}

	var applied int
	err = c.conn.QueryRow("SELECT 1 FROM _migrations WHERE name = ?", name).Scan(&applied)
	return err == nil && applied == 1
}

// Put は data URI を内容のハッシュをキーとして保存し、キーを返します。
// owner は画像を生成したフレームやキャラクターの ID です。
func (c *ImageCache) Put(ctx context.Context, owner, dataURI string) (string, error) {
	sum := sha256.Sum256([]byte(dataURI))
	key := hex.EncodeToString(sum[:16])
	if err := c.PutWithKey(ctx, key, owner, dataURI); err != nil {
		return "", err
	}
	return key, nil
}

// PutWithKey は指定したキーで data URI を保存します。既存のキーは上書きされます。
func (c *ImageCache) PutWithKey(ctx context.Context, key, owner, dataURI string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("キーが空です")
	}
	mime, ok := mimeOf(dataURI)
	if !ok {
		return fmt.Errorf("data URI ではありません: %.32s", dataURI)
	}

	_, err := c.conn.ExecContext(ctx, `
		INSERT INTO images (key, owner, mime, data, size) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET owner = excluded.owner, mime = excluded.mime,
			data = excluded.data, size = excluded.size, updated_at = datetime('now')`,
		key, owner, mime, dataURI, len(dataURI))
	if err != nil {
		return fmt.Errorf("画像の保存に失敗しました (key=%s): %w", key, err)
	}
	return nil
}

// Get はキーに対応する data URI を返します。存在しなければ asset.ErrNotFound を返します。
func (c *ImageCache) Get(ctx context.Context, key string) (string, error) {
	var data string
	err := c.conn.QueryRowContext(ctx, "SELECT data FROM images WHERE key = ?", key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("key=%s: %w", key, asset.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("画像の読み込みに失敗しました (key=%s): %w", key, err)
	}
	return data, nil
}

// Delete はキーの画像を削除します。存在しないキーは無視します。
func (c *ImageCache) Delete(ctx context.Context, key string) error {
	if _, err := c.conn.ExecContext(ctx, "DELETE FROM images WHERE key = ?", key); err != nil {
		return fmt.Errorf("画像の削除に失敗しました (key=%s): %w", key, err)
	}
	return nil
}

// Clear は全ての画像を削除し、削除件数を返します。
func (c *ImageCache) Clear(ctx context.Context) (int64, error) {
	res, err := c.conn.ExecContext(ctx, "DELETE FROM images")
	if err != nil {
		return 0, fmt.Errorf("画像キャッシュの全削除に失敗しました: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("削除件数の取得に失敗しました: %w", err)
	}
	if _, err := c.conn.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		c.logger.Warn("WAL のチェックポイントに失敗しました", "error", err)
	}
	return n, nil
}

// Stats は保存件数と合計サイズを返します。
func (c *ImageCache) Stats(ctx context.Context) (count int64, bytes int64, err error) {
	err = c.conn.QueryRowContext(ctx, "SELECT COUNT(*), COALESCE(SUM(size), 0) FROM images").Scan(&count, &bytes)
	if err != nil {
		return 0, 0, fmt.Errorf("画像キャッシュの集計に失敗しました: %w", err)
	}
	return count, bytes, nil
}

// mimeOf は "data:<mime>;base64," の mime 部分を返します。
func mimeOf(dataURI string) (string, bool) {
	if !strings.HasPrefix(dataURI, "data:") {
		return "", false
	}
	head, _, found := strings.Cut(strings.TrimPrefix(dataURI, "data:"), ",")
	if !found {
		return "", false
	}
	mime, _, _ := strings.Cut(head, ";")
	if mime == "" {
		mime = "application/octet-stream"
	}
	return mime, true
}
