package publisher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/shouni/go-storyboard-kit/pkg/asset"
)

// OutputWriter はデータを保存先に書き出すためのインターフェースです。
type OutputWriter interface {
	Write(ctx context.Context, path string, r io.Reader, contentType string) error
}

// LocalWriter はローカルファイルシステムへ書き出す OutputWriter です。
type LocalWriter struct{}

// Write は親ディレクトリを作成してからファイルを書き出します。
func (LocalWriter) Write(_ context.Context, path string, r io.Reader, _ string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("出力ディレクトリの作成に失敗しました: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("ファイルの作成に失敗しました: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return fmt.Errorf("ファイルの書き込みに失敗しました: %w", err)
	}
	return f.Close()
}

// AssetManager は生成物の保存パスと永続化を管理します。
type AssetManager struct {
	writer  OutputWriter
	baseDir string // 保存先のベースディレクトリ (例: "output/images")
}

func NewAssetManager(writer OutputWriter, baseDir string) *AssetManager {
	return &AssetManager{
		writer:  writer,
		baseDir: baseDir,
	}
}

// SaveDataURI は data URI の画像をデコードして保存し、拡張子を含む保存先のパスを返します。
// stem は拡張子を除いたファイル名です。
func (am *AssetManager) SaveDataURI(ctx context.Context, stem, dataURI string) (string, error) {
	data, mime, err := asset.DecodeDataURI(dataURI)
	if err != nil {
		return "", fmt.Errorf("asset_manager: %w", err)
	}
	fullPath, err := ResolveOutputPath(am.baseDir, stem+extensionOf(mime))
	if err != nil {
		return "", fmt.Errorf("asset_manager: %w", err)
	}
	if err := am.writer.Write(ctx, fullPath, bytes.NewReader(data), mime); err != nil {
		return "", fmt.Errorf("asset_manager: 画像の保存に失敗しました: %w", err)
	}
	return fullPath, nil
}
